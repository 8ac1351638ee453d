package validation

import (
	"math"
	"unicode/utf8"
)

type revenueRule struct {
	model   string
	words   []string
	alts    []string
	pricing string
}

// Checked in order; the first rule with a matching word picks the primary model.
var revenueRules = []revenueRule{
	{"marketplace commission", []string{"marketplace", "buyers", "sellers", "connect", "booking", "bookings"}, []string{"listing fees", "subscription"}, "5-15% per transaction"},
	{"service retainer", []string{"coaching", "consulting", "agency", "service", "services", "freelance"}, []string{"one-time purchase", "subscription"}, "$500-$3,000 per month"},
	{"one-time purchase", []string{"course", "courses", "ebook", "template", "templates", "download", "workshop"}, []string{"subscription", "service retainer"}, "$29-$299 one-time"},
	{"usage-based pricing", []string{"api", "usage", "credits", "compute", "requests"}, []string{"subscription"}, "$0.01-$0.10 per request"},
	{"advertising", []string{"content", "blog", "newsletter", "media", "podcast", "community"}, []string{"sponsorships", "subscription"}, "$10-$40 CPM"},
	{"subscription", []string{"subscription", "monthly", "saas", "software", "platform", "tool", "dashboard"}, []string{"freemium", "usage-based pricing"}, "$19-$99 per month"},
}

var defaultRevenue = revenueRule{model: "subscription", alts: []string{"freemium", "one-time purchase"}, pricing: "$19-$99 per month"}

// AssessMonetization derives price tolerance from how much detail the idea carries.
func AssessMonetization(idea string) MonetizationSignal {
	conf := clampFloat(float64(utf8.RuneCountInString(idea))/400, 0.3, 1.0)
	rule := defaultRevenue
	words := wordSet(idea)
	for _, r := range revenueRules {
		if containsAny(words, r.words) {
			rule = r
			break
		}
	}
	return MonetizationSignal{
		Score:                    int(math.Round(conf * 100)),
		PriceToleranceConfidence: roundTo(conf, 2),
		PrimaryModel:             rule.model,
		AlternativeModels:        append([]string{}, rule.alts...),
		PriceRange:               rule.pricing,
	}
}

type capabilityRule struct {
	capability string
	words      []string
}

var capabilityRules = []capabilityRule{
	{"mobile app development", []string{"app", "mobile", "ios", "android"}},
	{"machine learning", []string{"ai", "ml", "machine", "learning", "model", "prediction", "gpt"}},
	{"payments integration", []string{"payment", "payments", "checkout", "subscription", "billing"}},
	{"marketplace operations", []string{"marketplace", "buyers", "sellers", "vendors"}},
	{"data analytics", []string{"data", "analytics", "dashboard", "reporting", "insights"}},
	{"content production", []string{"content", "video", "course", "podcast", "newsletter"}},
	{"logistics", []string{"delivery", "shipping", "inventory", "warehouse"}},
}

// AssessFeasibility treats longer descriptions as more involved builds.
func AssessFeasibility(idea string) FeasibilitySignal {
	effort := clampInt(utf8.RuneCountInString(idea)/5, 20, 90)
	complexity := "high"
	switch {
	case effort < 40:
		complexity = "low"
	case effort < 70:
		complexity = "medium"
	}
	words := wordSet(idea)
	caps := []string{"web development"}
	for _, r := range capabilityRules {
		if containsAny(words, r.words) {
			caps = append(caps, r.capability)
		}
	}
	caps = append(caps, "digital marketing")
	return FeasibilitySignal{
		Score:                100 - effort,
		EffortScore:          effort,
		Complexity:           complexity,
		MVPWeeks:             effort/10 + 2,
		RequiredCapabilities: caps,
	}
}

func wordSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range tokenize(s) {
		set[w] = struct{}{}
	}
	return set
}

func containsAny(set map[string]struct{}, words []string) bool {
	for _, w := range words {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}
