package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joelkehle/idea-validation/internal/store"
	"github.com/joelkehle/idea-validation/internal/validation"
	"github.com/joelkehle/idea-validation/internal/workflow"
	"github.com/sirupsen/logrus"
)

const testIdea = "A subscription meal planning app for busy parents with weekly grocery lists"

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakePDF struct{ err error }

func (f fakePDF) Render(_ context.Context, r *validation.Report) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 " + r.ID), nil
}

func newServerForTest(t *testing.T, opts Options) http.Handler {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	engine := validation.NewEngine(validation.Dependencies{Logger: quietLogger()})
	opts.Logger = quietLogger()
	return NewServer(engine, st, workflow.NewAssistant(nil, quietLogger()), opts)
}

func postJSON(t *testing.T, h http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	blob, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(blob))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

type errorEnvelope struct {
	OK    bool `json:"ok"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d body=%s", status, rr.Code, rr.Body.String())
	}
	env := decode[errorEnvelope](t, rr)
	if env.OK || env.Error.Code != code {
		t.Fatalf("expected error code %q, got %+v", code, env)
	}
}

type reportEnvelope struct {
	OK     bool              `json:"ok"`
	Report validation.Report `json:"report"`
}

func mustCreate(t *testing.T, h http.Handler, idea string, publish bool) validation.Report {
	t.Helper()
	rr := postJSON(t, h, "/v1/validations", map[string]any{"business_idea": idea, "publish": publish}, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	env := decode[reportEnvelope](t, rr)
	if !env.OK || env.Report.ID == "" {
		t.Fatalf("unexpected create response %s", rr.Body.String())
	}
	return env.Report
}

func TestHealth(t *testing.T) {
	h := newServerForTest(t, Options{})
	rr := get(t, h, "/v1/health")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ok":true`) {
		t.Fatalf("health status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateAndFetchValidation(t *testing.T) {
	h := newServerForTest(t, Options{})
	created := mustCreate(t, h, testIdea, false)
	if created.ValidationScore < 0 || created.ValidationScore > 100 {
		t.Fatalf("score out of range: %d", created.ValidationScore)
	}
	if len(created.FallbackSignals) == 0 {
		t.Fatal("expected fallback signals without providers")
	}

	rr := get(t, h, "/v1/validations/"+created.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decode[reportEnvelope](t, rr).Report
	if got.ID != created.ID || got.ValidationScore != created.ValidationScore || got.BusinessIdea != testIdea {
		t.Fatalf("stored report mismatch: %+v", got)
	}

	rr = get(t, h, "/v1/validations")
	items := decode[struct {
		Items []store.Summary `json:"items"`
	}](t, rr).Items
	if len(items) != 1 || items[0].ID != created.ID {
		t.Fatalf("unexpected list %+v", items)
	}
}

func TestCreateValidationRejectsBadInput(t *testing.T) {
	h := newServerForTest(t, Options{})
	assertError(t, postJSON(t, h, "/v1/validations", map[string]any{"business_idea": "   "}, nil), http.StatusBadRequest, CodeEmptyIdea)

	req := httptest.NewRequest(http.MethodPost, "/v1/validations", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assertError(t, rr, http.StatusBadRequest, CodeInvalidRequest)
}

func TestUnknownValidationIsNotFound(t *testing.T) {
	h := newServerForTest(t, Options{})
	assertError(t, get(t, h, "/v1/validations/missing"), http.StatusNotFound, CodeNotFound)
	assertError(t, get(t, h, "/v1/validations/missing/report"), http.StatusNotFound, CodeNotFound)
	assertError(t, postJSON(t, h, "/v1/validations/missing/publish", map[string]any{}, nil), http.StatusNotFound, CodeNotFound)
}

func TestReportFormats(t *testing.T) {
	h := newServerForTest(t, Options{PDF: fakePDF{}})
	created := mustCreate(t, h, testIdea, false)
	base := "/v1/validations/" + created.ID + "/report"

	rr := get(t, h, base)
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/markdown") {
		t.Fatalf("markdown status=%d type=%s", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Body.String(), "## Score Breakdown") {
		t.Fatalf("markdown missing breakdown:\n%s", rr.Body.String())
	}

	rr = get(t, h, base+"?format=html")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `class="report-table"`) {
		t.Fatalf("html status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = get(t, h, base+"?format=pdf")
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf status=%d type=%s", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("unexpected pdf body %q", rr.Body.String())
	}

	assertError(t, get(t, h, base+"?format=docx"), http.StatusBadRequest, CodeUnsupported)
}

func TestReportPDFDisabledOrFailing(t *testing.T) {
	h := newServerForTest(t, Options{})
	created := mustCreate(t, h, testIdea, false)
	assertError(t, get(t, h, "/v1/validations/"+created.ID+"/report?format=pdf"), http.StatusBadRequest, CodeUnsupported)

	h = newServerForTest(t, Options{PDF: fakePDF{err: errors.New("chrome missing")}})
	created = mustCreate(t, h, testIdea, false)
	assertError(t, get(t, h, "/v1/validations/"+created.ID+"/report?format=pdf"), http.StatusInternalServerError, CodeInternal)
}

func TestPublishAndLibrary(t *testing.T) {
	h := newServerForTest(t, Options{})
	private := mustCreate(t, h, testIdea, false)
	public := mustCreate(t, h, "A marketplace connecting dog owners with vetted walkers", true)

	libraryIDs := func() []string {
		rr := get(t, h, "/v1/library")
		items := decode[struct {
			Items []store.Summary `json:"items"`
		}](t, rr).Items
		var ids []string
		for _, it := range items {
			if !it.Published {
				t.Fatalf("library returned unpublished item %+v", it)
			}
			ids = append(ids, it.ID)
		}
		return ids
	}
	if ids := libraryIDs(); len(ids) != 1 || ids[0] != public.ID {
		t.Fatalf("unexpected library %v", ids)
	}

	rr := postJSON(t, h, "/v1/validations/"+private.ID+"/publish", map[string]any{}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("publish status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ids := libraryIDs(); len(ids) != 2 {
		t.Fatalf("expected two published items, got %v", ids)
	}

	rr = postJSON(t, h, "/v1/validations/"+public.ID+"/publish", map[string]any{"published": false}, nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"published":false`) {
		t.Fatalf("unpublish status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ids := libraryIDs(); len(ids) != 1 || ids[0] != private.ID {
		t.Fatalf("unexpected library after unpublish %v", ids)
	}
}

func TestPhasesAndAssist(t *testing.T) {
	h := newServerForTest(t, Options{})
	rr := get(t, h, "/v1/phases")
	phases := decode[struct {
		Phases []workflow.PhaseDef `json:"phases"`
	}](t, rr).Phases
	if len(phases) != len(validation.Phases) || phases[0].Phase != validation.PhaseMarketClarity {
		t.Fatalf("unexpected phases %+v", phases)
	}

	created := mustCreate(t, h, testIdea, false)
	rr = postJSON(t, h, "/v1/phases/create_offer/assist", map[string]any{
		"field":         "pricing_model",
		"validation_id": created.ID,
	}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("assist status=%d body=%s", rr.Code, rr.Body.String())
	}
	sug := decode[struct {
		Suggestion workflow.Suggestion `json:"suggestion"`
	}](t, rr).Suggestion
	if sug.Source != workflow.SourcePrefill || sug.Value != "subscription" {
		t.Fatalf("unexpected suggestion %+v", sug)
	}

	assertError(t, postJSON(t, h, "/v1/phases/bogus/assist", map[string]any{"field": "x"}, nil), http.StatusNotFound, CodeNotFound)
	assertError(t, postJSON(t, h, "/v1/phases/launch/assist", map[string]any{"field": "nope"}, nil), http.StatusBadRequest, CodeInvalidRequest)
	assertError(t, postJSON(t, h, "/v1/phases/launch/assist", map[string]any{}, nil), http.StatusBadRequest, CodeInvalidRequest)
	assertError(t, postJSON(t, h, "/v1/phases/launch/assist", map[string]any{"field": "timeline", "validation_id": "gone"}, nil), http.StatusNotFound, CodeNotFound)
}

func TestRateLimitOnPosts(t *testing.T) {
	h := newServerForTest(t, Options{RatePerMinute: 1, RateBurst: 1})
	headers := map[string]string{"X-Real-IP": "203.0.113.7"}

	rr := postJSON(t, h, "/v1/validations", map[string]any{"business_idea": testIdea}, headers)
	if rr.Code != http.StatusCreated {
		t.Fatalf("first post status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr = postJSON(t, h, "/v1/validations", map[string]any{"business_idea": testIdea}, headers)
	assertError(t, rr, http.StatusTooManyRequests, CodeRateLimited)
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	// Another client has its own bucket and reads are never limited.
	rr = postJSON(t, h, "/v1/validations", map[string]any{"business_idea": testIdea}, map[string]string{"X-Real-IP": "203.0.113.8"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("second client status=%d", rr.Code)
	}
	if rr := get(t, h, "/v1/validations"); rr.Code != http.StatusOK {
		t.Fatalf("list should not be limited, got %d", rr.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newServerForTest(t, Options{CORSOrigins: []string{"https://app.example.com"}})
	req := httptest.NewRequest(http.MethodOptions, "/v1/validations", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
}
