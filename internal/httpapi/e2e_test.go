//go:build integration

package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joelkehle/idea-validation/internal/sources"
	"github.com/joelkehle/idea-validation/internal/store"
	"github.com/joelkehle/idea-validation/internal/validation"
	"github.com/joelkehle/idea-validation/internal/workflow"
)

// fakeUpstream serves every third-party API the engine talks to.
func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/serp", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "serp-key" {
			http.Error(w, "bad key", http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"search_information":{"total_results":120000}}`)
	})
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"posts":{"edges":[
			{"node":{"name":"PlanToPlate","tagline":"Meal plans for families","url":"https://example.com/p","votesCount":340}},
			{"node":{"name":"GroceryPal","tagline":"Shared grocery lists","url":"https://example.com/g","votesCount":120}}
		]}}}`)
	})
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"total_count":14,"items":[{"full_name":"acme/mealplanner","description":"planner","stargazers_count":88,"html_url":"https://github.com/acme/mealplanner"}]}`)
	})
	mux.HandleFunc("/whois", func(w http.ResponseWriter, r *http.Request) {
		avail := "UNAVAILABLE"
		if strings.HasSuffix(r.URL.Query().Get("domainName"), ".io") {
			avail = "AVAILABLE"
		}
		_, _ = io.WriteString(w, `{"DomainInfo":{"domainAvailability":"`+avail+`"}}`)
	})
	mux.HandleFunc("/reddit/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/reddit/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"children":[
			{"data":{"title":"I love meal planning apps","selftext":"Great time saver, would pay for one.","subreddit":"mealprep","score":40,"num_comments":12,"permalink":"/r/mealprep/1"}},
			{"data":{"title":"Frustrated with grocery lists","selftext":"I hate rewriting the same list every week.","subreddit":"parenting","score":22,"num_comments":9,"permalink":"/r/parenting/2"}}
		]}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestE2EValidationLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// --- 1. Wire the engine against fake upstreams ---
	up := fakeUpstream(t)
	client := up.Client()
	engine := validation.NewEngine(validation.Dependencies{
		Volume: sources.NewCachedVolume(
			sources.NewSerpAPIVolume(sources.SerpAPIConfig{APIKey: "serp-key", BaseURL: up.URL + "/serp", HTTPClient: client}),
			sources.NewMemoryCache(), time.Hour),
		Listings:     sources.NewProductHunt(sources.ProductHuntConfig{Token: "ph", BaseURL: up.URL + "/graphql", HTTPClient: client}),
		Repositories: sources.NewGitHub(sources.GitHubConfig{BaseURL: up.URL, HTTPClient: client}),
		Domains:      sources.NewWhoisXML(sources.WhoisXMLConfig{APIKey: "wx", BaseURL: up.URL + "/whois", HTTPClient: client}),
		Discussions: sources.NewReddit(sources.RedditConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			UserAgent:    "idea-validation-test",
			TokenURL:     up.URL + "/reddit/token",
			APIURL:       up.URL + "/reddit",
			HTTPClient:   client,
		}),
		Logger: quietLogger(),
	})

	// --- 2. Start the API on a real listener ---
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "e2e.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	h := NewServer(engine, st, workflow.NewAssistant(engine.Executor(), quietLogger()), Options{Logger: quietLogger()})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: h}
	go srv.Serve(ln)
	defer srv.Close()
	baseURL := "http://" + ln.Addr().String()

	// --- 3. Validate an idea ---
	body := strings.NewReader(`{"business_idea":"A meal planning app for busy parents that builds weekly grocery lists","context":{"audience":"parents"},"publish":true}`)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/validations", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /v1/validations: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		blob, _ := io.ReadAll(resp.Body)
		t.Fatalf("POST /v1/validations returned %d: %s", resp.StatusCode, blob)
	}
	var created reportEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	r := created.Report

	if len(r.FallbackSignals) != 1 || r.FallbackSignals[0] != validation.SignalAIAnalysis {
		t.Fatalf("expected only ai_analysis to fall back, got %v", r.FallbackSignals)
	}
	for _, kv := range r.Signals.MarketDemand.VolumeData {
		if kv.Volume != 120000 || kv.Estimated {
			t.Fatalf("expected live volume, got %+v", kv)
		}
	}
	comp := r.Signals.Competition
	if comp.ListingCount != 2 || comp.RepositoryCount != 14 || comp.Competitors[0].Name != "PlanToPlate" {
		t.Fatalf("unexpected competition %+v", comp)
	}
	if comp.DomainsAvailable != 1 {
		t.Fatalf("expected one available .io domain, got %+v", comp.Domains)
	}
	if sp := r.Signals.SocialProof; sp.DiscussionCount != 2 || sp.Fallback {
		t.Fatalf("unexpected social proof %+v", sp)
	}
	if r.ValidationScore < 0 || r.ValidationScore > 100 || !r.Published {
		t.Fatalf("unexpected report header %+v", r)
	}

	// --- 4. Library, report rendering and assist all see the stored report ---
	resp2, err := http.Get(baseURL + "/v1/library")
	if err != nil {
		t.Fatalf("GET /v1/library: %v", err)
	}
	defer resp2.Body.Close()
	var lib struct {
		Items []store.Summary `json:"items"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&lib); err != nil || len(lib.Items) != 1 || lib.Items[0].ID != r.ID {
		t.Fatalf("unexpected library %+v err=%v", lib, err)
	}

	resp3, err := http.Get(baseURL + "/v1/validations/" + r.ID + "/report?format=html")
	if err != nil {
		t.Fatalf("GET report: %v", err)
	}
	defer resp3.Body.Close()
	page, _ := io.ReadAll(resp3.Body)
	if resp3.StatusCode != http.StatusOK || !strings.Contains(string(page), "PlanToPlate") {
		t.Fatalf("html report missing competitor (status %d)", resp3.StatusCode)
	}

	resp4, err := http.Post(baseURL+"/v1/phases/market_clarity/assist", "application/json",
		strings.NewReader(`{"field":"competitors","validation_id":"`+r.ID+`"}`))
	if err != nil {
		t.Fatalf("POST assist: %v", err)
	}
	defer resp4.Body.Close()
	var sug struct {
		Suggestion workflow.Suggestion `json:"suggestion"`
	}
	if err := json.NewDecoder(resp4.Body).Decode(&sug); err != nil {
		t.Fatalf("decode assist: %v", err)
	}
	if sug.Suggestion.Source != workflow.SourcePrefill || !strings.Contains(sug.Suggestion.Value, "PlanToPlate") {
		t.Fatalf("unexpected assist suggestion %+v", sug.Suggestion)
	}
}
