package validation

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/joelkehle/idea-validation/internal/llm"
	"github.com/joelkehle/idea-validation/internal/sources"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/joelkehle/idea-validation/internal/validation"

type VolumeProvider interface {
	KeywordVolume(ctx context.Context, keyword string) (int, error)
}

type ListingProvider interface {
	SearchProducts(ctx context.Context, query string) ([]sources.Listing, error)
}

type RepositoryProvider interface {
	SearchRepositories(ctx context.Context, query string) (sources.RepoSearch, error)
}

type DomainChecker interface {
	Available(ctx context.Context, domain string) (bool, error)
}

type DiscussionProvider interface {
	SearchDiscussions(ctx context.Context, query string, limit int) ([]sources.Discussion, error)
}

// Dependencies wires the engine's collaborators. Any provider may be nil; the
// matching collector then uses its fallback data.
type Dependencies struct {
	LLM          *llm.Executor
	Volume       VolumeProvider
	Listings     ListingProvider
	Repositories RepositoryProvider
	Domains      DomainChecker
	Discussions  DiscussionProvider
	Logger       logrus.FieldLogger
	Tracer       trace.Tracer
	Now          func() time.Time
	NewID        func() string
}

type Engine struct {
	llm         *llm.Executor
	volume      VolumeProvider
	listings    ListingProvider
	repos       RepositoryProvider
	domains     DomainChecker
	discussions DiscussionProvider
	log         logrus.FieldLogger
	tracer      trace.Tracer
	now         func() time.Time
	newID       func() string
}

func NewEngine(deps Dependencies) *Engine {
	e := &Engine{
		llm:         deps.LLM,
		volume:      deps.Volume,
		listings:    deps.Listings,
		repos:       deps.Repositories,
		domains:     deps.Domains,
		discussions: deps.Discussions,
		log:         deps.Logger,
		tracer:      deps.Tracer,
		now:         deps.Now,
		newID:       deps.NewID,
	}
	if e.log == nil {
		e.log = logrus.StandardLogger()
	}
	e.log = e.log.WithField("component", "validation")
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e
}

// Executor exposes the engine's LLM executor so other components can share
// its caller and retry policy. It is nil when no model is configured.
func (e *Engine) Executor() *llm.Executor { return e.llm }

// Validate scores a business idea. The only error is ErrEmptyIdea; every
// collaborator failure is absorbed into the affected signal.
func (e *Engine) Validate(ctx context.Context, req Request) (*Report, error) {
	idea := strings.TrimSpace(req.BusinessIdea)
	if idea == "" {
		return nil, ErrEmptyIdea
	}
	truncated := false
	if utf8.RuneCountInString(idea) > MaxIdeaChars {
		idea = truncateRunes(idea, MaxIdeaChars)
		truncated = true
	}
	reqCtx := copyContext(req.Context)

	ctx, span := e.tracer.Start(ctx, "validation.Validate")
	defer span.End()
	started := e.now()

	keywords := guarded(e.log, "keywords", func() []string {
		return traced(ctx, e.tracer, "validation.keywords", func(ctx context.Context) []string {
			return e.ExtractKeywords(ctx, idea, reqCtx)
		})
	}, func() []string { return LocalKeywords(idea, reqCtx[ContextAudience]) })
	offline := e.offline()

	var sig Signals
	var g errgroup.Group
	g.Go(func() error {
		sig.MarketDemand = guarded(e.log, string(SignalMarketDemand), func() MarketDemandSignal {
			return traced(ctx, e.tracer, "signal.market_demand", func(ctx context.Context) MarketDemandSignal {
				return e.CollectMarketDemand(ctx, keywords)
			})
		}, func() MarketDemandSignal { return offline.CollectMarketDemand(ctx, keywords) })
		return nil
	})
	g.Go(func() error {
		sig.Competition = guarded(e.log, string(SignalCompetition), func() CompetitionSignal {
			return traced(ctx, e.tracer, "signal.competition", func(ctx context.Context) CompetitionSignal {
				return e.CollectCompetition(ctx, keywords)
			})
		}, func() CompetitionSignal { return offline.CollectCompetition(ctx, keywords) })
		return nil
	})
	g.Go(func() error {
		sig.Monetization = guarded(e.log, string(SignalMonetization), func() MonetizationSignal {
			return AssessMonetization(idea)
		}, func() MonetizationSignal { return AssessMonetization("") })
		sig.Feasibility = guarded(e.log, string(SignalFeasibility), func() FeasibilitySignal {
			return AssessFeasibility(idea)
		}, func() FeasibilitySignal { return AssessFeasibility("") })
		return nil
	})
	g.Go(func() error {
		sig.AIAnalysis = guarded(e.log, string(SignalAIAnalysis), func() AIAnalysisSignal {
			return traced(ctx, e.tracer, "signal.ai_analysis", func(ctx context.Context) AIAnalysisSignal {
				return e.AnalyzeIdea(ctx, idea, reqCtx)
			})
		}, func() AIAnalysisSignal { return fallbackAnalysis(idea) })
		return nil
	})
	g.Go(func() error {
		sig.SocialProof = guarded(e.log, string(SignalSocialProof), func() SocialProofSignal {
			return traced(ctx, e.tracer, "signal.social_proof", func(ctx context.Context) SocialProofSignal {
				return e.CollectSocialProof(ctx, keywords)
			})
		}, func() SocialProofSignal { return offline.CollectSocialProof(ctx, keywords) })
		return nil
	})
	_ = g.Wait()

	agg := AggregateScores(sig.Breakdown())
	rec := BuildRecommendations(sig, agg)
	validatedAt := e.now().UTC()

	report := &Report{
		ID:              e.newID(),
		BusinessIdea:    idea,
		Context:         reqCtx,
		Keywords:        keywords,
		ValidationScore: agg.Overall,
		ConfidenceLevel: agg.ConfidenceLevel,
		ConfidenceScore: agg.ConfidenceScore,
		ScoreBreakdown:  agg.Breakdown,
		Signals:         sig,
		Recommendations: rec,
		PhasePrefill:    BuildPhasePrefill(idea, keywords, sig, rec),
		FallbackSignals: fallbackSignals(sig),
		InputTruncated:  truncated,
		ValidatedAt:     validatedAt,
		ExpiresAt:       validatedAt.Add(ReportTTL),
	}

	span.SetAttributes(
		attribute.String("validation.id", report.ID),
		attribute.Int("validation.score", report.ValidationScore),
		attribute.String("validation.confidence", string(report.ConfidenceLevel)),
		attribute.Int("validation.fallbacks", len(report.FallbackSignals)),
	)
	e.log.WithFields(logrus.Fields{
		"report_id":  report.ID,
		"score":      report.ValidationScore,
		"confidence": report.ConfidenceLevel,
		"fallbacks":  len(report.FallbackSignals),
		"elapsed_ms": e.now().Sub(started).Milliseconds(),
	}).Info("validation complete")
	return report, nil
}

// offline returns a copy of the engine with every external collaborator
// removed, so its collectors produce their fallback data.
func (e *Engine) offline() *Engine {
	c := *e
	c.llm = nil
	c.volume = nil
	c.listings = nil
	c.repos = nil
	c.domains = nil
	c.discussions = nil
	return &c
}

// guarded runs fn and, if it panics, logs the panic and returns fallback().
func guarded[T any](log logrus.FieldLogger, stage string, fn func() T, fallback func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logrus.Fields{
				"stage": stage,
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			}).Error("collector panicked; using fallback")
			out = fallback()
		}
	}()
	return fn()
}

func traced[T any](ctx context.Context, tr trace.Tracer, name string, fn func(context.Context) T) T {
	ctx, span := tr.Start(ctx, name)
	defer span.End()
	return fn(ctx)
}

func fallbackSignals(sig Signals) []SignalName {
	out := []SignalName{}
	if sig.MarketDemand.Fallback {
		out = append(out, SignalMarketDemand)
	}
	if sig.Competition.Fallback {
		out = append(out, SignalCompetition)
	}
	if sig.AIAnalysis.Fallback {
		out = append(out, SignalAIAnalysis)
	}
	if sig.SocialProof.Fallback {
		out = append(out, SignalSocialProof)
	}
	return out
}

func copyContext(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
