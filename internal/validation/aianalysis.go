package validation

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	analysisTimeout     = 45 * time.Second
	analysisPromptLimit = 4000
)

// AnalyzeIdea asks the LLM for a structured viability assessment. Any failure
// yields DefaultInsight with Fallback set.
func (e *Engine) AnalyzeIdea(ctx context.Context, idea string, reqCtx map[string]string) AIAnalysisSignal {
	log := signalLogger(e.log, SignalAIAnalysis)
	if !e.llm.Enabled() {
		log.Debug("ai analysis skipped: llm not configured")
		return fallbackAnalysis(idea)
	}

	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	var insight AIInsight
	_, err := e.llm.Run(ctx, "ai_analysis", analysisPrompt(idea, reqCtx), &insight, func() error {
		return validateInsight(insight)
	})
	if err != nil {
		log.WithError(err).Warn("ai analysis fell back to default insight")
		return fallbackAnalysis(idea)
	}
	insight = normalizeInsight(insight)
	return AIAnalysisSignal{
		Score:   clampScore(insight.ViabilityScore),
		Insight: insight,
		Model:   e.llm.ModelName(),
	}
}

func analysisPrompt(idea string, reqCtx map[string]string) string {
	var b strings.Builder
	b.WriteString("Evaluate the following business idea and return ONLY a JSON object with these keys:\n")
	b.WriteString(`{
  "viability_score": integer 0-100,
  "strengths": [string], "weaknesses": [string], "opportunities": [string], "threats": [string],
  "ideal_customer_profile": {"description": string, "demographics": string, "pain_points": [string], "channels": [string]},
  "revenue_models": [string],
  "risks": [string],
  "differentiation_strategy": string,
  "launch_timeline": string,
  "mvp_features": [string]
}`)
	b.WriteString("\n\nBusiness idea:\n")
	b.WriteString(truncateRunes(idea, analysisPromptLimit))
	if len(reqCtx) > 0 {
		b.WriteString("\n\nAdditional context:\n")
		for _, k := range sortedKeys(reqCtx) {
			if v := strings.TrimSpace(reqCtx[k]); v != "" {
				fmt.Fprintf(&b, "- %s: %s\n", k, v)
			}
		}
	}
	return b.String()
}

func validateInsight(in AIInsight) error {
	if in.ViabilityScore < 0 || in.ViabilityScore > 100 {
		return fmt.Errorf("viability_score %d outside 0-100", in.ViabilityScore)
	}
	if len(in.Strengths) == 0 && len(in.Weaknesses) == 0 {
		return fmt.Errorf("swot analysis missing")
	}
	return nil
}

// DefaultInsight is the deterministic analysis used when no LLM result is available.
func DefaultInsight(idea string) AIInsight {
	return AIInsight{
		ViabilityScore: clampInt(utf8.RuneCountInString(idea)/4, 40, 90),
		Strengths:      []string{"Addresses a clearly stated problem", "Can be tested with a small pilot"},
		Weaknesses:     []string{"Demand has not been validated with paying customers", "Limited information about the founding team's distribution"},
		Opportunities:  []string{"Growing interest in online solutions", "Underserved niche segments"},
		Threats:        []string{"Established competitors with larger budgets", "Low switching costs for customers"},
		IdealCustomer: CustomerProfile{
			Description:  "Early adopters who actively feel the problem and search for solutions online",
			Demographics: "Adults 25-45, digitally active",
			PainPoints:   []string{"Current options are too expensive or complicated"},
			Channels:     []string{"search", "social media", "online communities"},
		},
		RevenueModels:   []string{"subscription", "one-time purchase"},
		Risks:           []string{"Customer acquisition cost may exceed early revenue"},
		Differentiation: "Focus on a narrow audience and deliver a noticeably simpler experience",
		LaunchTimeline:  "8-12 weeks to a paid pilot",
		MVPFeatures:     []string{"Core workflow for the primary use case", "Simple onboarding", "Payment collection"},
	}
}

func fallbackAnalysis(idea string) AIAnalysisSignal {
	insight := DefaultInsight(idea)
	return AIAnalysisSignal{Score: insight.ViabilityScore, Insight: insight, Fallback: true}
}

func normalizeInsight(in AIInsight) AIInsight {
	in.Strengths = nonNil(in.Strengths)
	in.Weaknesses = nonNil(in.Weaknesses)
	in.Opportunities = nonNil(in.Opportunities)
	in.Threats = nonNil(in.Threats)
	in.IdealCustomer.PainPoints = nonNil(in.IdealCustomer.PainPoints)
	in.IdealCustomer.Channels = nonNil(in.IdealCustomer.Channels)
	in.RevenueModels = nonNil(in.RevenueModels)
	in.Risks = nonNil(in.Risks)
	in.MVPFeatures = nonNil(in.MVPFeatures)
	return in
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
