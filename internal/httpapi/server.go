package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joelkehle/idea-validation/internal/render"
	"github.com/joelkehle/idea-validation/internal/store"
	"github.com/joelkehle/idea-validation/internal/validation"
	"github.com/joelkehle/idea-validation/internal/workflow"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 64 << 10

const (
	CodeInvalidRequest = "invalid_request"
	CodeEmptyIdea      = "empty_idea"
	CodeNotFound       = "not_found"
	CodeRateLimited    = "rate_limited"
	CodeUnsupported    = "unsupported_format"
	CodeInternal       = "internal"
)

type Validator interface {
	Validate(ctx context.Context, req validation.Request) (*validation.Report, error)
}

type ReportStore interface {
	Save(ctx context.Context, r *validation.Report) error
	Get(ctx context.Context, id string) (*validation.Report, error)
	SetPublished(ctx context.Context, id string, published bool) error
	List(ctx context.Context, opts store.ListOptions) ([]store.Summary, error)
}

type Assistant interface {
	Suggest(ctx context.Context, req workflow.AssistRequest) (workflow.Suggestion, error)
}

// PDFRenderer is optional; without one format=pdf is rejected.
type PDFRenderer interface {
	Render(ctx context.Context, r *validation.Report) ([]byte, error)
}

type Options struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	RatePerMinute  int
	RateBurst      int
	PDF            PDFRenderer
	Logger         logrus.FieldLogger
}

type Server struct {
	validator Validator
	store     ReportStore
	assistant Assistant
	pdf       PDFRenderer
	limiter   *clientLimiter
	log       logrus.FieldLogger
	started   time.Time
}

func NewServer(v Validator, st ReportStore, a Assistant, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 90 * time.Second
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	s := &Server{
		validator: v,
		store:     st,
		assistant: a,
		pdf:       opts.PDF,
		limiter:   newClientLimiter(opts.RatePerMinute, opts.RateBurst),
		log:       opts.Logger.WithField("component", "httpapi"),
		started:   time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/library", s.handleLibrary)
		r.Get("/phases", s.handlePhases)

		r.Route("/validations", func(r chi.Router) {
			r.With(s.limiter.middleware).Post("/", s.handleCreateValidation)
			r.Get("/", s.handleListValidations)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetValidation)
				r.Get("/report", s.handleReport)
				r.With(s.limiter.middleware).Post("/publish", s.handlePublish)
			})
		})
		r.With(s.limiter.middleware).Post("/phases/{phase}/assist", s.handleAssist)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

// writeStoreError maps store failures onto the error envelope.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, CodeNotFound, "validation not found or expired")
		return
	}
	writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte("{}"), nil
	}
	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	return blob, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	blob, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "read body: "+err.Error())
		return false
	}
	if err := json.Unmarshal(blob, dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid json: "+err.Error())
		return false
	}
	return true
}

func parseInt(value string, def int) int {
	if strings.TrimSpace(value) == "" {
		return def
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return v
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			s.log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			}).Info("http request")
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	})
}

type createValidationRequest struct {
	BusinessIdea string            `json:"business_idea"`
	Context      map[string]string `json:"context"`
	Publish      bool              `json:"publish"`
}

func (s *Server) handleCreateValidation(w http.ResponseWriter, r *http.Request) {
	var req createValidationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	report, err := s.validator.Validate(r.Context(), validation.Request{
		BusinessIdea: req.BusinessIdea,
		Context:      req.Context,
	})
	if errors.Is(err, validation.ErrEmptyIdea) {
		writeError(w, http.StatusBadRequest, CodeEmptyIdea, "business_idea is required")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}
	report.Published = req.Publish
	if err := s.store.Save(r.Context(), report); err != nil {
		s.log.WithError(err).WithField("report_id", report.ID).Error("save validation failed")
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "report": report})
}

func (s *Server) handleListValidations(w http.ResponseWriter, r *http.Request) {
	s.list(w, r, false)
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	s.list(w, r, true)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, publishedOnly bool) {
	q := r.URL.Query()
	opts := store.ListOptions{
		Limit:         parseInt(q.Get("limit"), store.DefaultListLimit),
		Offset:        max(0, parseInt(q.Get("offset"), 0)),
		PublishedOnly: publishedOnly,
	}
	items, err := s.store.List(r.Context(), opts)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "items": items})
}

func (s *Server) handleGetValidation(w http.ResponseWriter, r *http.Request) {
	report, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "report": report})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	switch format {
	case "", "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, validation.BuildMarkdown(report))
	case "html":
		page, err := render.HTML(report)
		if err != nil {
			writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, page)
	case "pdf":
		if s.pdf == nil {
			writeError(w, http.StatusBadRequest, CodeUnsupported, "pdf rendering is not enabled")
			return
		}
		blob, err := s.pdf.Render(r.Context(), report)
		if err != nil {
			s.log.WithError(err).WithField("report_id", report.ID).Error("pdf render failed")
			writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "validation-"+report.ID+".pdf"))
		_, _ = w.Write(blob)
	default:
		writeError(w, http.StatusBadRequest, CodeUnsupported, fmt.Sprintf("unsupported format %q", format))
	}
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Published *bool `json:"published"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	published := true
	if req.Published != nil {
		published = *req.Published
	}
	id := chi.URLParam(r, "id")
	if err := s.store.SetPublished(r.Context(), id, published); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id, "published": published})
}

func (s *Server) handlePhases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "phases": workflow.Catalog()})
}

type assistRequest struct {
	Field        string            `json:"field"`
	BusinessIdea string            `json:"business_idea"`
	Notes        string            `json:"notes"`
	Values       map[string]string `json:"values"`
	ValidationID string            `json:"validation_id"`
}

func (s *Server) handleAssist(w http.ResponseWriter, r *http.Request) {
	var req assistRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Field) == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "field is required")
		return
	}
	in := workflow.AssistRequest{
		Phase:  validation.Phase(chi.URLParam(r, "phase")),
		Field:  req.Field,
		Idea:   req.BusinessIdea,
		Notes:  req.Notes,
		Values: req.Values,
	}
	if id := strings.TrimSpace(req.ValidationID); id != "" {
		report, err := s.store.Get(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		in.Report = report
	}
	sug, err := s.assistant.Suggest(r.Context(), in)
	switch {
	case errors.Is(err, workflow.ErrUnknownPhase):
		writeError(w, http.StatusNotFound, CodeNotFound, err.Error())
		return
	case errors.Is(err, workflow.ErrUnknownField):
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "suggestion": sug})
}
