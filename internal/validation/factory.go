package validation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joelkehle/idea-validation/internal/llm"
	"github.com/joelkehle/idea-validation/internal/sources"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

type Options struct {
	LLMProvider string
	LLMModel    string
	LLMAttempts int
	// Cache memoizes keyword volumes when set.
	Cache      sources.Cache
	CacheTTL   time.Duration
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
	Tracer     trace.Tracer
}

// NewEngineFromCredentials builds the concrete collaborators for every
// credential that is present. Missing credentials leave the provider unset.
func NewEngineFromCredentials(creds Credentials, opts Options) (*Engine, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	deps := Dependencies{Logger: log, Tracer: opts.Tracer}

	caller, err := llm.NewCaller(opts.LLMProvider, creds.OpenAIKey, creds.AnthropicKey, opts.LLMModel)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.WithField("provider", opts.LLMProvider).Info("llm not configured; ai analysis and keyword extraction will use fallbacks")
	case err != nil:
		return nil, fmt.Errorf("llm caller: %w", err)
	default:
		deps.LLM = llm.NewExecutor(caller, opts.LLMAttempts, log)
	}

	if strings.TrimSpace(creds.SerpAPIKey) != "" {
		var vol VolumeProvider = sources.NewSerpAPIVolume(sources.SerpAPIConfig{APIKey: creds.SerpAPIKey, HTTPClient: opts.HTTPClient})
		if opts.Cache != nil {
			vol = sources.NewCachedVolume(vol, opts.Cache, opts.CacheTTL)
		}
		deps.Volume = vol
	}
	if strings.TrimSpace(creds.ProductHuntToken) != "" {
		deps.Listings = sources.NewProductHunt(sources.ProductHuntConfig{Token: creds.ProductHuntToken, HTTPClient: opts.HTTPClient})
	}
	// Public repository search works unauthenticated at a lower rate limit.
	deps.Repositories = sources.NewGitHub(sources.GitHubConfig{Token: creds.GitHubToken, HTTPClient: opts.HTTPClient})
	if strings.TrimSpace(creds.WhoisXMLKey) != "" {
		deps.Domains = sources.NewWhoisXML(sources.WhoisXMLConfig{APIKey: creds.WhoisXMLKey, HTTPClient: opts.HTTPClient})
	} else {
		deps.Domains = sources.NewDNSChecker()
	}
	if strings.TrimSpace(creds.RedditClientID) != "" && strings.TrimSpace(creds.RedditClientSecret) != "" {
		deps.Discussions = sources.NewReddit(sources.RedditConfig{
			ClientID:     creds.RedditClientID,
			ClientSecret: creds.RedditClientSecret,
			UserAgent:    creds.RedditUserAgent,
			HTTPClient:   opts.HTTPClient,
		})
	}

	log.WithFields(logrus.Fields{
		"llm":         deps.LLM.Enabled(),
		"volume":      deps.Volume != nil,
		"listings":    deps.Listings != nil,
		"discussions": deps.Discussions != nil,
		"whoisxml":    creds.WhoisXMLKey != "",
	}).Info("validation engine configured")
	return NewEngine(deps), nil
}
