package validation

import (
	"fmt"
	"strings"
	"time"
)

const Disclaimer = "This is an automated, best-effort validation based on public signals and heuristics. " +
	"Signals marked as estimated used fallback data because a data source was unavailable."

// BuildMarkdown renders a report for people to read. The output is stable for a given report.
func BuildMarkdown(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Idea Validation Report\n\n")
	fmt.Fprintf(&b, "- Report ID: %s\n", r.ID)
	fmt.Fprintf(&b, "- Validated: %s\n", r.ValidatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Expires: %s\n", r.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Keywords: %s\n\n", strings.Join(r.Keywords, ", "))
	fmt.Fprintf(&b, "%s\n\n", Disclaimer)

	fmt.Fprintf(&b, "## Business Idea\n\n%s\n\n", r.BusinessIdea)
	if r.InputTruncated {
		fmt.Fprintf(&b, "> The idea text was truncated to %d characters before scoring.\n\n", MaxIdeaChars)
	}

	fmt.Fprintf(&b, "## Verdict\n\n")
	fmt.Fprintf(&b, "**%d/100** (%s) with %s confidence (%.2f).\n\n", r.ValidationScore, r.Recommendations.Verdict, r.ConfidenceLevel, r.ConfidenceScore)
	if r.Recommendations.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", r.Recommendations.Summary)
	}

	fallback := map[SignalName]bool{}
	for _, n := range r.FallbackSignals {
		fallback[n] = true
	}
	fmt.Fprintf(&b, "## Score Breakdown\n\n")
	fmt.Fprintf(&b, "| Signal | Score | Weight | Data |\n|---|---:|---:|---|\n")
	for _, w := range signalWeights {
		data := "live"
		if fallback[w.name] {
			data = "estimated"
		}
		fmt.Fprintf(&b, "| %s | %d | %d%% | %s |\n", w.name.Label(), r.ScoreBreakdown.Get(w.name), w.pct, data)
	}
	b.WriteString("\n")

	writeMarketSection(&b, r.Signals.MarketDemand)
	writeCompetitionSection(&b, r.Signals.Competition)

	m := r.Signals.Monetization
	fmt.Fprintf(&b, "## Monetization\n\n")
	fmt.Fprintf(&b, "- Primary model: %s (%s)\n", m.PrimaryModel, m.PriceRange)
	fmt.Fprintf(&b, "- Alternatives: %s\n", joinOrNone(m.AlternativeModels))
	fmt.Fprintf(&b, "- Price tolerance confidence: %.2f\n\n", m.PriceToleranceConfidence)

	f := r.Signals.Feasibility
	fmt.Fprintf(&b, "## Feasibility\n\n")
	fmt.Fprintf(&b, "- Complexity: %s (effort %d/100)\n", f.Complexity, f.EffortScore)
	fmt.Fprintf(&b, "- Estimated MVP: %d weeks\n", f.MVPWeeks)
	fmt.Fprintf(&b, "- Capabilities: %s\n\n", joinOrNone(f.RequiredCapabilities))

	writeInsightSection(&b, r.Signals.AIAnalysis)
	writeSocialSection(&b, r.Signals.SocialProof)

	rec := r.Recommendations
	fmt.Fprintf(&b, "## Recommendations\n\n")
	writeList(&b, "Immediate actions", rec.ImmediateActions)
	writeList(&b, "Pivot suggestions", rec.PivotSuggestions)
	writeList(&b, "Strengths", rec.Strengths)
	writeList(&b, "Risks", rec.Risks)
	writeList(&b, "Next steps", rec.NextSteps)
	return b.String()
}

func writeMarketSection(b *strings.Builder, m MarketDemandSignal) {
	fmt.Fprintf(b, "## Market Demand\n\n")
	fmt.Fprintf(b, "Total monthly search volume: %s (%s trend, %s seasonal variance).\n\n", fmtCount(m.TotalVolume), m.Trend, m.SeasonalVariance)
	if len(m.VolumeData) == 0 {
		return
	}
	fmt.Fprintf(b, "| Keyword | Volume |\n|---|---:|\n")
	for _, v := range m.VolumeData {
		vol := fmtCount(v.Volume)
		if v.Estimated {
			vol += " (est.)"
		}
		fmt.Fprintf(b, "| %s | %s |\n", sanitizeCell(v.Keyword), vol)
	}
	b.WriteString("\n")
}

func writeCompetitionSection(b *strings.Builder, c CompetitionSignal) {
	fmt.Fprintf(b, "## Competition\n\n")
	fmt.Fprintf(b, "Saturation %d/100 (%s): %d product listings, %s open-source repositories, %d of %d candidate domains available.\n\n",
		c.Saturation, c.SaturationLevel, c.ListingCount, fmtCount(c.RepositoryCount), c.DomainsAvailable, len(c.Domains))
	if len(c.Competitors) > 0 {
		fmt.Fprintf(b, "| Competitor | Description | Votes |\n|---|---|---:|\n")
		for _, comp := range c.Competitors {
			name := sanitizeCell(comp.Name)
			if comp.URL != "" {
				name = fmt.Sprintf("[%s](%s)", name, comp.URL)
			}
			fmt.Fprintf(b, "| %s | %s | %d |\n", name, sanitizeCell(comp.Description), comp.Votes)
		}
		b.WriteString("\n")
	}
	writeList(b, "Differentiation gaps", c.DifferentiationGaps)
}

func writeInsightSection(b *strings.Builder, a AIAnalysisSignal) {
	in := a.Insight
	fmt.Fprintf(b, "## AI Analysis\n\n")
	if a.Fallback {
		fmt.Fprintf(b, "> No model response was available; a baseline assessment is shown.\n\n")
	} else if a.Model != "" {
		fmt.Fprintf(b, "Model: `%s`\n\n", a.Model)
	}
	writeList(b, "Strengths", in.Strengths)
	writeList(b, "Weaknesses", in.Weaknesses)
	writeList(b, "Opportunities", in.Opportunities)
	writeList(b, "Threats", in.Threats)
	fmt.Fprintf(b, "**Ideal customer:** %s (%s)\n\n", sanitize(in.IdealCustomer.Description), sanitize(in.IdealCustomer.Demographics))
	if in.Differentiation != "" {
		fmt.Fprintf(b, "**Differentiation:** %s\n\n", sanitize(in.Differentiation))
	}
	if in.LaunchTimeline != "" {
		fmt.Fprintf(b, "**Launch timeline:** %s\n\n", sanitize(in.LaunchTimeline))
	}
	writeList(b, "MVP features", in.MVPFeatures)
}

func writeSocialSection(b *strings.Builder, s SocialProofSignal) {
	fmt.Fprintf(b, "## Social Proof\n\n")
	if s.DiscussionCount == 0 {
		fmt.Fprintf(b, "No community discussions were found.\n\n")
		return
	}
	fmt.Fprintf(b, "%d discussions: %.1f%% positive, %.1f%% negative, %.1f%% neutral.\n\n",
		s.DiscussionCount, s.Sentiment.Positive, s.Sentiment.Negative, s.Sentiment.Neutral)
	writeList(b, "Pain points", s.PainPoints)
	writeList(b, "Feature requests", s.FeatureRequests)
	if len(s.Discussions) > 0 {
		fmt.Fprintf(b, "**Sample discussions**\n\n")
		for _, d := range s.Discussions {
			fmt.Fprintf(b, "- [%s](%s) %s, %s\n", sanitize(d.Title), d.URL, d.Source, d.Sentiment)
		}
		b.WriteString("\n")
	}
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", sanitize(it))
	}
	b.WriteString("\n")
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func sanitize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

func sanitizeCell(s string) string {
	return strings.ReplaceAll(sanitize(s), "|", "\\|")
}

// fmtCount formats n with comma separators (e.g. 1200000 → "1,200,000").
func fmtCount(n int) string {
	if n < 0 {
		return "-" + fmtCount(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		out.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if out.Len() > 0 {
			out.WriteByte(',')
		}
		out.WriteString(s[i : i+3])
	}
	return out.String()
}
