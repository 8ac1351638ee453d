package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joelkehle/idea-validation/internal/llm"
	"github.com/joelkehle/idea-validation/internal/validation"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownPhase = errors.New("unknown phase")
	ErrUnknownField = errors.New("unknown field")
)

const (
	assistTimeout = 30 * time.Second

	SourceLLM     = "llm"
	SourcePrefill = "prefill"
	SourceNone    = "none"
)

type AssistRequest struct {
	Phase  validation.Phase   `json:"phase"`
	Field  string             `json:"field"`
	Idea   string             `json:"business_idea,omitempty"`
	Notes  string             `json:"notes,omitempty"`
	Values map[string]string  `json:"values,omitempty"`
	Report *validation.Report `json:"-"`
}

type Suggestion struct {
	Phase  validation.Phase `json:"phase"`
	Field  string           `json:"field"`
	Value  string           `json:"value"`
	Source string           `json:"source"`
	Model  string           `json:"model,omitempty"`
}

// Assistant drafts form values for a phase. It never fails for a known
// phase and field; without a model answer it returns the report's prefill.
type Assistant struct {
	llm *llm.Executor
	log logrus.FieldLogger
}

func NewAssistant(exec *llm.Executor, log logrus.FieldLogger) *Assistant {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Assistant{llm: exec, log: log.WithField("component", "assistant")}
}

func (a *Assistant) Suggest(ctx context.Context, req AssistRequest) (Suggestion, error) {
	def, ok := Lookup(req.Phase)
	if !ok {
		return Suggestion{}, fmt.Errorf("%w: %q", ErrUnknownPhase, req.Phase)
	}
	field, ok := def.Field(req.Field)
	if !ok {
		return Suggestion{}, fmt.Errorf("%w: %q in %s", ErrUnknownField, req.Field, req.Phase)
	}
	out := Suggestion{Phase: req.Phase, Field: field.Key, Source: SourceNone}
	log := a.log.WithFields(logrus.Fields{"phase": req.Phase, "field": field.Key})

	if a.llm.Enabled() {
		v, err := a.draft(ctx, def, field, req)
		if err == nil {
			out.Value, out.Source, out.Model = v, SourceLLM, a.llm.ModelName()
			return out, nil
		}
		log.WithError(err).Warn("assist fell back to prefill")
	}
	if req.Report != nil {
		if v, ok := req.Report.PhasePrefill.FieldText(req.Phase, field.Key); ok && strings.TrimSpace(v) != "" {
			out.Value, out.Source = v, SourcePrefill
		}
	}
	return out, nil
}

func (a *Assistant) draft(ctx context.Context, def PhaseDef, field Field, req AssistRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, assistTimeout)
	defer cancel()

	var resp struct {
		Value string `json:"value"`
	}
	_, err := a.llm.Run(ctx, "assist_"+string(def.Phase), assistPrompt(def, field, req), &resp, func() error {
		if strings.TrimSpace(resp.Value) == "" {
			return fmt.Errorf("empty value")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Value), nil
}

func assistPrompt(def PhaseDef, field Field, req AssistRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are helping a founder complete step %d of a product launch workflow: %s.\n", def.Step, def.Title)
	fmt.Fprintf(&b, "Phase goal: %s\n", def.Goal)
	fmt.Fprintf(&b, "Draft the field %q.", field.Label)
	if field.Help != "" {
		fmt.Fprintf(&b, " %s", field.Help)
	}
	if field.Multiline {
		b.WriteString(" Use one item per line.")
	}
	b.WriteString("\nReturn ONLY a JSON object: {\"value\": string}.\n")

	idea := strings.TrimSpace(req.Idea)
	if idea == "" && req.Report != nil {
		idea = req.Report.BusinessIdea
	}
	if idea != "" {
		fmt.Fprintf(&b, "\nBusiness idea:\n%s\n", idea)
	}
	if req.Report != nil {
		fmt.Fprintf(&b, "\nValidation score: %d/100 (%s). Verdict: %s.\n",
			req.Report.ValidationScore, req.Report.ConfidenceLevel, req.Report.Recommendations.Verdict)
		if v, ok := req.Report.PhasePrefill.FieldText(req.Phase, field.Key); ok && strings.TrimSpace(v) != "" {
			fmt.Fprintf(&b, "Draft from validation data:\n%s\n", v)
		}
	}
	if len(req.Values) > 0 {
		b.WriteString("\nAnswers already given in this phase:\n")
		keys := make([]string, 0, len(req.Values))
		for k := range req.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if v := strings.TrimSpace(req.Values[k]); v != "" {
				fmt.Fprintf(&b, "- %s: %s\n", k, v)
			}
		}
	}
	if n := strings.TrimSpace(req.Notes); n != "" {
		fmt.Fprintf(&b, "\nFounder notes: %s\n", n)
	}
	return b.String()
}
