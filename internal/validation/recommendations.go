package validation

import (
	"fmt"
	"strings"
)

const (
	VerdictStrong    = "strong"
	VerdictPromising = "promising"
	VerdictNeedsWork = "needs work"

	strengthThreshold = 70
	maxMergedInsights = 3
)

type Recommendations struct {
	Verdict          string   `json:"verdict"`
	Summary          string   `json:"summary"`
	ImmediateActions []string `json:"immediate_actions"`
	PivotSuggestions []string `json:"pivot_suggestions"`
	Strengths        []string `json:"strengths"`
	Risks            []string `json:"risks"`
	NextSteps        []string `json:"next_steps"`
}

var signalLabels = map[SignalName]string{
	SignalMarketDemand: "Market demand",
	SignalCompetition:  "Competitive position",
	SignalMonetization: "Monetization potential",
	SignalFeasibility:  "Technical feasibility",
	SignalAIAnalysis:   "AI viability assessment",
	SignalSocialProof:  "Community interest",
}

// Label returns a human-readable name for the signal.
func (n SignalName) Label() string {
	if l, ok := signalLabels[n]; ok {
		return l
	}
	return string(n)
}

// BuildRecommendations applies fixed score thresholds to the clamped breakdown.
func BuildRecommendations(sig Signals, agg Aggregate) Recommendations {
	b := agg.Breakdown
	rec := Recommendations{
		Verdict:          verdictFor(agg.Overall),
		ImmediateActions: []string{},
		PivotSuggestions: []string{},
		Strengths:        []string{},
		Risks:            []string{},
		NextSteps:        []string{},
	}

	if b.MarketDemand < 50 {
		rec.ImmediateActions = append(rec.ImmediateActions,
			"Validate demand before building: run a landing page with a waitlist and talk to 10 potential customers")
	}
	if b.Competition > 70 {
		pivot := "Claim a clear position before others arrive"
		if gaps := sig.Competition.DifferentiationGaps; len(gaps) > 0 {
			pivot += ". Differentiation opportunities: " + strings.Join(gaps, "; ")
		}
		rec.PivotSuggestions = append(rec.PivotSuggestions, pivot)
	}
	if b.Competition < 30 {
		rec.PivotSuggestions = append(rec.PivotSuggestions,
			"The space is crowded; narrow the offer to a specific audience segment")
	}
	if b.Monetization < 50 {
		rec.ImmediateActions = append(rec.ImmediateActions,
			fmt.Sprintf("Test willingness to pay with a pre-sale offer priced at %s", sig.Monetization.PriceRange))
	}
	if b.Feasibility < 40 {
		rec.ImmediateActions = append(rec.ImmediateActions,
			"Scope the MVP down to the single workflow customers would pay for first")
	}
	if b.SocialProof < 40 {
		rec.ImmediateActions = append(rec.ImmediateActions,
			"Engage in online communities where the audience discusses this problem to gather evidence of demand")
	}

	for _, w := range signalWeights {
		if b.Get(w.name) >= strengthThreshold {
			rec.Strengths = append(rec.Strengths, fmt.Sprintf("%s is strong (%d/100)", w.name.Label(), b.Get(w.name)))
		}
	}
	insight := sig.AIAnalysis.Insight
	rec.Strengths = appendUnique(rec.Strengths, insight.Strengths, maxMergedInsights)
	rec.Risks = appendUnique(rec.Risks, insight.Risks, maxMergedInsights)
	rec.Risks = appendUnique(rec.Risks, insight.Threats, maxMergedInsights)
	if sig.Competition.SaturationLevel == "High" {
		rec.Risks = append(rec.Risks, fmt.Sprintf("High market saturation (%d/100)", sig.Competition.Saturation))
	}

	rec.NextSteps = nextSteps(rec.Verdict, sig)
	rec.Summary = fmt.Sprintf("Overall validation score %d/100 with %s confidence: this idea is %s.",
		agg.Overall, agg.ConfidenceLevel, rec.Verdict)
	return rec
}

func verdictFor(overall int) string {
	switch {
	case overall >= 70:
		return VerdictStrong
	case overall >= 50:
		return VerdictPromising
	default:
		return VerdictNeedsWork
	}
}

func nextSteps(verdict string, sig Signals) []string {
	steps := []string{}
	switch verdict {
	case VerdictStrong:
		steps = append(steps, "Build the MVP and line up pilot customers")
	case VerdictPromising:
		steps = append(steps, "Run a small paid experiment before committing to a full build")
	default:
		steps = append(steps, "Revisit the problem statement and target audience before investing further")
	}
	if t := strings.TrimSpace(sig.AIAnalysis.Insight.LaunchTimeline); t != "" {
		steps = append(steps, "Plan the launch around a "+t+" timeline")
	}
	steps = append(steps, fmt.Sprintf("Start with a %s model in the %s range", sig.Monetization.PrimaryModel, sig.Monetization.PriceRange))
	return steps
}

func appendUnique(dst, src []string, limit int) []string {
	added := 0
	for _, s := range src {
		if added == limit {
			break
		}
		s = strings.TrimSpace(s)
		if s == "" || containsFold(dst, s) {
			continue
		}
		dst = append(dst, s)
		added++
	}
	return dst
}
