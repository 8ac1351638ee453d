package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
)

const ProductHuntBaseURL = "https://api.producthunt.com/v2/api/graphql"

type Listing struct {
	Name    string `json:"name"`
	Tagline string `json:"tagline"`
	URL     string `json:"url"`
	Votes   int    `json:"votes"`
}

type ProductHuntConfig struct {
	Token      string
	BaseURL    string
	Limit      int
	HTTPClient *http.Client
}

// ProductHunt lists launched products for a topic derived from the query.
type ProductHunt struct {
	cfg ProductHuntConfig
}

func NewProductHunt(cfg ProductHuntConfig) *ProductHunt {
	cfg.Token = strings.TrimSpace(cfg.Token)
	if cfg.BaseURL == "" {
		cfg.BaseURL = ProductHuntBaseURL
	}
	if cfg.Limit <= 0 || cfg.Limit > 20 {
		cfg.Limit = 10
	}
	cfg.HTTPClient = defaultHTTPClient(cfg.HTTPClient)
	return &ProductHunt{cfg: cfg}
}

const productHuntQuery = `query Posts($topic: String, $first: Int) {
  posts(topic: $topic, first: $first, order: VOTES) {
    edges { node { name tagline url votesCount } }
  }
}`

type productHuntResponse struct {
	Data struct {
		Posts struct {
			Edges []struct {
				Node struct {
					Name       string `json:"name"`
					Tagline    string `json:"tagline"`
					URL        string `json:"url"`
					VotesCount int    `json:"votesCount"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"posts"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

func topicSlug(query string) string {
	return strings.Trim(nonSlugRe.ReplaceAllString(strings.ToLower(query), "-"), "-")
}

func (p *ProductHunt) SearchProducts(ctx context.Context, query string) ([]Listing, error) {
	if p == nil || p.cfg.Token == "" {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(map[string]any{
		"query":     productHuntQuery,
		"variables": map[string]any{"topic": topicSlug(query), "first": p.cfg.Limit},
	})
	if err != nil {
		return nil, err
	}
	var out productHuntResponse
	err = doJSON(ctx, p.cfg.HTTPClient, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+p.cfg.Token)
		return req, nil
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Errors) > 0 {
		return nil, &StatusError{Status: http.StatusBadGateway, Body: out.Errors[0].Message}
	}
	listings := make([]Listing, 0, len(out.Data.Posts.Edges))
	for _, e := range out.Data.Posts.Edges {
		if strings.TrimSpace(e.Node.Name) == "" {
			continue
		}
		listings = append(listings, Listing{Name: e.Node.Name, Tagline: e.Node.Tagline, URL: e.Node.URL, Votes: e.Node.VotesCount})
	}
	return listings, nil
}
