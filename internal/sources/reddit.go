package sources

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	RedditTokenURL = "https://www.reddit.com/api/v1/access_token"
	RedditAPIURL   = "https://oauth.reddit.com"
)

type Discussion struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Subreddit string `json:"subreddit"`
	Score     int    `json:"score"`
	Comments  int    `json:"comments"`
	URL       string `json:"url"`
}

type RedditConfig struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	TokenURL     string
	APIURL       string
	HTTPClient   *http.Client
}

// Reddit searches posts with an application-only OAuth token. The token source
// caches the bearer token until it expires (one hour for Reddit).
type Reddit struct {
	cfg    RedditConfig
	client *http.Client
}

type userAgentTransport struct {
	base http.RoundTripper
	ua   string
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.ua)
	return t.base.RoundTrip(r)
}

func NewReddit(cfg RedditConfig) *Reddit {
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = RedditTokenURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = RedditAPIURL
	}
	r := &Reddit{cfg: cfg}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return r
	}

	base := defaultHTTPClient(cfg.HTTPClient)
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	uaClient := &http.Client{Transport: userAgentTransport{base: transport, ua: cfg.UserAgent}, Timeout: base.Timeout}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, uaClient)
	r.client = cc.Client(tokenCtx)
	r.client.Timeout = base.Timeout
	return r
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string `json:"title"`
				Selftext    string `json:"selftext"`
				Subreddit   string `json:"subreddit"`
				Score       int    `json:"score"`
				NumComments int    `json:"num_comments"`
				Permalink   string `json:"permalink"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (r *Reddit) SearchDiscussions(ctx context.Context, query string, limit int) ([]Discussion, error) {
	if r == nil || r.client == nil {
		return nil, ErrNotConfigured
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort", "relevance")
	q.Set("t", "year")
	q.Set("type", "link")
	var out redditListing
	err := doJSON(ctx, r.client, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(r.cfg.APIURL, "/")+"/search?"+q.Encode(), nil)
	}, &out)
	if err != nil {
		return nil, err
	}
	posts := make([]Discussion, 0, len(out.Data.Children))
	for _, c := range out.Data.Children {
		d := c.Data
		if strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Selftext) == "" {
			continue
		}
		link := d.Permalink
		if strings.HasPrefix(link, "/") {
			link = "https://www.reddit.com" + link
		}
		posts = append(posts, Discussion{
			Title:     d.Title,
			Body:      d.Selftext,
			Subreddit: d.Subreddit,
			Score:     d.Score,
			Comments:  d.NumComments,
			URL:       link,
		})
	}
	return posts, nil
}
