package workflow

import "github.com/joelkehle/idea-validation/internal/validation"

type Field struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Help      string `json:"help,omitempty"`
	Multiline bool   `json:"multiline"`
}

type PhaseDef struct {
	Phase  validation.Phase `json:"phase"`
	Step   int              `json:"step"`
	Title  string           `json:"title"`
	Goal   string           `json:"goal"`
	Fields []Field          `json:"fields"`
}

func (p PhaseDef) Field(key string) (Field, bool) {
	for _, f := range p.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Field keys match the JSON names of the prefill buckets so a validation
// report can seed every form.
var catalog = []PhaseDef{
	{
		Phase: validation.PhaseMarketClarity, Step: 1, Title: "Market Clarity",
		Goal: "Define who the offer is for and what problem it solves.",
		Fields: []Field{
			{Key: "target_audience", Label: "Target audience", Multiline: true},
			{Key: "demographics", Label: "Demographics"},
			{Key: "pain_points", Label: "Pain points", Multiline: true},
			{Key: "keywords", Label: "Search keywords"},
			{Key: "market_size", Label: "Market size"},
			{Key: "competitors", Label: "Competitors", Multiline: true},
			{Key: "positioning", Label: "Positioning statement", Multiline: true},
		},
	},
	{
		Phase: validation.PhaseCreateOffer, Step: 2, Title: "Create Your Offer",
		Goal: "Package the solution into an offer people can buy.",
		Fields: []Field{
			{Key: "value_proposition", Label: "Value proposition", Multiline: true},
			{Key: "pricing_model", Label: "Pricing model"},
			{Key: "price_range", Label: "Price range"},
			{Key: "alternative_models", Label: "Alternative pricing models"},
			{Key: "guarantee", Label: "Guarantee"},
			{Key: "bonuses", Label: "Bonuses", Multiline: true},
		},
	},
	{
		Phase: validation.PhaseCreateService, Step: 3, Title: "Create Your Service",
		Goal: "Describe what gets delivered and what it takes to build.",
		Fields: []Field{
			{Key: "service_description", Label: "Service description", Multiline: true},
			{Key: "core_features", Label: "Core features", Multiline: true},
			{Key: "complexity", Label: "Complexity"},
			{Key: "delivery_timeline", Label: "Delivery timeline"},
			{Key: "required_capabilities", Label: "Required capabilities", Multiline: true},
		},
	},
	{
		Phase: validation.PhaseBuildFunnel, Step: 4, Title: "Build Your Funnel",
		Goal: "Turn visitors into leads and leads into customers.",
		Fields: []Field{
			{Key: "lead_magnet", Label: "Lead magnet"},
			{Key: "landing_headline", Label: "Landing page headline"},
			{Key: "funnel_steps", Label: "Funnel steps", Multiline: true},
			{Key: "call_to_action", Label: "Call to action"},
		},
	},
	{
		Phase: validation.PhaseEmailSequences, Step: 5, Title: "Email Sequences",
		Goal: "Nurture leads toward the launch.",
		Fields: []Field{
			{Key: "welcome_subject", Label: "Welcome email subject"},
			{Key: "nurture_topics", Label: "Nurture topics", Multiline: true},
			{Key: "objection_handlers", Label: "Objections to address", Multiline: true},
			{Key: "launch_subject", Label: "Launch email subject"},
		},
	},
	{
		Phase: validation.PhaseOrganicPosts, Step: 6, Title: "Organic Posts",
		Goal: "Plan social content that builds an audience before launch.",
		Fields: []Field{
			{Key: "content_pillars", Label: "Content pillars", Multiline: true},
			{Key: "post_ideas", Label: "Post ideas", Multiline: true},
			{Key: "hashtags", Label: "Hashtags"},
			{Key: "channels", Label: "Channels"},
		},
	},
	{
		Phase: validation.PhaseFacebookAds, Step: 7, Title: "Facebook Ads",
		Goal: "Design paid campaigns for the launch.",
		Fields: []Field{
			{Key: "audience_interests", Label: "Audience interests", Multiline: true},
			{Key: "demographics", Label: "Demographics"},
			{Key: "ad_angles", Label: "Ad angles", Multiline: true},
			{Key: "headline", Label: "Headline"},
			{Key: "primary_text", Label: "Primary text", Multiline: true},
		},
	},
	{
		Phase: validation.PhaseLaunch, Step: 8, Title: "Launch",
		Goal: "Ship it and measure what happens.",
		Fields: []Field{
			{Key: "timeline", Label: "Launch timeline"},
			{Key: "checklist", Label: "Launch checklist", Multiline: true},
			{Key: "success_metrics", Label: "Success metrics", Multiline: true},
			{Key: "risks", Label: "Risks", Multiline: true},
			{Key: "verdict", Label: "Validation verdict"},
		},
	},
}

// Catalog returns the launch phases in workflow order.
func Catalog() []PhaseDef {
	out := make([]PhaseDef, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(phase validation.Phase) (PhaseDef, bool) {
	for _, p := range catalog {
		if p.Phase == phase {
			return p, true
		}
	}
	return PhaseDef{}, false
}
