package validation

import "math"

// Weights are integer percentages so the weighted sum is exact before rounding.
var signalWeights = []struct {
	name SignalName
	pct  int
}{
	{SignalMarketDemand, 25},
	{SignalCompetition, 20},
	{SignalMonetization, 15},
	{SignalFeasibility, 10},
	{SignalAIAnalysis, 20},
	{SignalSocialProof, 10},
}

const (
	highConfidenceMin   = 75.0
	mediumConfidenceMin = 50.0
)

type Aggregate struct {
	Overall         int             `json:"overall"`
	Breakdown       ScoreBreakdown  `json:"breakdown"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	ConfidenceScore float64         `json:"confidence_score"`
}

// Weight returns the fractional weight of a signal in the composite score.
func Weight(name SignalName) float64 {
	for _, w := range signalWeights {
		if w.name == name {
			return float64(w.pct) / 100
		}
	}
	return 0
}

func (b ScoreBreakdown) Get(name SignalName) int {
	switch name {
	case SignalMarketDemand:
		return b.MarketDemand
	case SignalCompetition:
		return b.Competition
	case SignalMonetization:
		return b.Monetization
	case SignalFeasibility:
		return b.Feasibility
	case SignalAIAnalysis:
		return b.AIAnalysis
	case SignalSocialProof:
		return b.SocialProof
	}
	return 0
}

func (b ScoreBreakdown) clamped() ScoreBreakdown {
	return ScoreBreakdown{
		MarketDemand: clampScore(b.MarketDemand),
		Competition:  clampScore(b.Competition),
		Monetization: clampScore(b.Monetization),
		Feasibility:  clampScore(b.Feasibility),
		AIAnalysis:   clampScore(b.AIAnalysis),
		SocialProof:  clampScore(b.SocialProof),
	}
}

// AggregateScores computes the weighted composite and the dispersion-based
// confidence. Scores are clamped to [0,100] before weighting.
func AggregateScores(in ScoreBreakdown) Aggregate {
	b := in.clamped()

	sum := 0
	values := make([]float64, 0, len(signalWeights))
	for _, w := range signalWeights {
		s := b.Get(w.name)
		sum += w.pct * s
		values = append(values, float64(s))
	}
	overall := (sum + 50) / 100

	conf := math.Round(clampFloat(100-populationStdDev(values), 0, 100)*100) / 100
	return Aggregate{
		Overall:         overall,
		Breakdown:       b,
		ConfidenceLevel: confidenceLabel(conf),
		ConfidenceScore: conf,
	}
}

func confidenceLabel(score float64) ConfidenceLevel {
	switch {
	case score >= highConfidenceMin:
		return ConfidenceHigh
	case score >= mediumConfidenceMin:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func populationStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
