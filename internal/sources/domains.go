package sources

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
)

const WhoisXMLBaseURL = "https://domain-availability.whoisxmlapi.com/api/v1"

type WhoisXMLConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// WhoisXML checks registration status through the WhoisXML domain availability API.
type WhoisXML struct {
	cfg WhoisXMLConfig
}

func NewWhoisXML(cfg WhoisXMLConfig) *WhoisXML {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = WhoisXMLBaseURL
	}
	cfg.HTTPClient = defaultHTTPClient(cfg.HTTPClient)
	return &WhoisXML{cfg: cfg}
}

type whoisResponse struct {
	DomainInfo struct {
		DomainAvailability string `json:"domainAvailability"`
		DomainName         string `json:"domainName"`
	} `json:"DomainInfo"`
}

func (w *WhoisXML) Available(ctx context.Context, domain string) (bool, error) {
	if w == nil || w.cfg.APIKey == "" {
		return false, ErrNotConfigured
	}
	q := url.Values{}
	q.Set("apiKey", w.cfg.APIKey)
	q.Set("domainName", domain)
	q.Set("outputFormat", "JSON")
	var out whoisResponse
	err := doJSON(ctx, w.cfg.HTTPClient, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, w.cfg.BaseURL+"?"+q.Encode(), nil)
	}, &out)
	if err != nil {
		return false, err
	}
	switch strings.ToUpper(out.DomainInfo.DomainAvailability) {
	case "AVAILABLE":
		return true, nil
	case "UNAVAILABLE":
		return false, nil
	default:
		return false, errors.New("whoisxml: unknown availability " + out.DomainInfo.DomainAvailability)
	}
}

type hostLookuper interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// DNSChecker treats a domain with no DNS records as available. It needs no
// credentials and is used when no availability API key is configured.
type DNSChecker struct {
	resolver hostLookuper
}

func NewDNSChecker() *DNSChecker {
	return &DNSChecker{resolver: net.DefaultResolver}
}

func (d *DNSChecker) Available(ctx context.Context, domain string) (bool, error) {
	_, err := d.resolver.LookupHost(ctx, domain)
	if err == nil {
		return false, nil
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return true, nil
	}
	return false, err
}
