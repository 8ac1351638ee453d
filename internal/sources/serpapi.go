package sources

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const SerpAPIBaseURL = "https://serpapi.com/search.json"

type SerpAPIConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// SerpAPIVolume estimates keyword volume from the total result count of a Google search.
type SerpAPIVolume struct {
	cfg SerpAPIConfig
}

func NewSerpAPIVolume(cfg SerpAPIConfig) *SerpAPIVolume {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = SerpAPIBaseURL
	}
	cfg.HTTPClient = defaultHTTPClient(cfg.HTTPClient)
	return &SerpAPIVolume{cfg: cfg}
}

type serpResponse struct {
	Error             string `json:"error"`
	SearchInformation struct {
		TotalResults int64 `json:"total_results"`
	} `json:"search_information"`
}

func (s *SerpAPIVolume) KeywordVolume(ctx context.Context, keyword string) (int, error) {
	if s == nil || s.cfg.APIKey == "" {
		return 0, ErrNotConfigured
	}
	q := url.Values{}
	q.Set("engine", "google")
	q.Set("q", keyword)
	q.Set("api_key", s.cfg.APIKey)
	q.Set("num", "10")
	var out serpResponse
	err := doJSON(ctx, s.cfg.HTTPClient, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"?"+q.Encode(), nil)
	}, &out)
	if err != nil {
		return 0, err
	}
	if out.Error != "" {
		return 0, &StatusError{Status: http.StatusBadGateway, Body: out.Error}
	}
	v := out.SearchInformation.TotalResults
	if v < 0 {
		v = 0
	}
	const maxInt32 = 1<<31 - 1
	if v > maxInt32 {
		v = maxInt32
	}
	return int(v), nil
}
