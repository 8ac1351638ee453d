package sources

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const GitHubBaseURL = "https://api.github.com"

type Repository struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Stars       int    `json:"stars"`
	URL         string `json:"url"`
}

type RepoSearch struct {
	TotalCount int          `json:"total_count"`
	Items      []Repository `json:"items"`
}

type GitHubConfig struct {
	Token      string
	BaseURL    string
	PerPage    int
	HTTPClient *http.Client
}

// GitHub searches public repositories. A token is optional; unauthenticated
// requests are subject to a lower rate limit.
type GitHub struct {
	cfg GitHubConfig
}

func NewGitHub(cfg GitHubConfig) *GitHub {
	cfg.Token = strings.TrimSpace(cfg.Token)
	if cfg.BaseURL == "" {
		cfg.BaseURL = GitHubBaseURL
	}
	if cfg.PerPage <= 0 || cfg.PerPage > 30 {
		cfg.PerPage = 5
	}
	cfg.HTTPClient = defaultHTTPClient(cfg.HTTPClient)
	return &GitHub{cfg: cfg}
}

type githubSearchResponse struct {
	TotalCount int `json:"total_count"`
	Items      []struct {
		FullName        string `json:"full_name"`
		Description     string `json:"description"`
		StargazersCount int    `json:"stargazers_count"`
		HTMLURL         string `json:"html_url"`
	} `json:"items"`
}

func (g *GitHub) SearchRepositories(ctx context.Context, query string) (RepoSearch, error) {
	if g == nil {
		return RepoSearch{}, ErrNotConfigured
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("sort", "stars")
	q.Set("order", "desc")
	q.Set("per_page", strconv.Itoa(g.cfg.PerPage))
	var out githubSearchResponse
	err := doJSON(ctx, g.cfg.HTTPClient, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(g.cfg.BaseURL, "/")+"/search/repositories?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		if g.cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+g.cfg.Token)
		}
		return req, nil
	}, &out)
	if err != nil {
		return RepoSearch{}, err
	}
	res := RepoSearch{TotalCount: out.TotalCount, Items: make([]Repository, 0, len(out.Items))}
	for _, it := range out.Items {
		res.Items = append(res.Items, Repository{Name: it.FullName, Description: it.Description, Stars: it.StargazersCount, URL: it.HTMLURL})
	}
	return res, nil
}
