package validation

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Phase string

const (
	PhaseMarketClarity  Phase = "market_clarity"
	PhaseCreateOffer    Phase = "create_offer"
	PhaseCreateService  Phase = "create_service"
	PhaseBuildFunnel    Phase = "build_funnel"
	PhaseEmailSequences Phase = "email_sequences"
	PhaseOrganicPosts   Phase = "organic_posts"
	PhaseFacebookAds    Phase = "facebook_ads"
	PhaseLaunch         Phase = "launch"
)

// Phases lists the launch workflow in order.
var Phases = []Phase{
	PhaseMarketClarity, PhaseCreateOffer, PhaseCreateService, PhaseBuildFunnel,
	PhaseEmailSequences, PhaseOrganicPosts, PhaseFacebookAds, PhaseLaunch,
}

func (p Phase) Valid() bool {
	for _, v := range Phases {
		if v == p {
			return true
		}
	}
	return false
}

type MarketClarityPrefill struct {
	TargetAudience string   `json:"target_audience"`
	Demographics   string   `json:"demographics"`
	PainPoints     []string `json:"pain_points"`
	Keywords       []string `json:"keywords"`
	MarketSize     string   `json:"market_size"`
	Competitors    []string `json:"competitors"`
	Positioning    string   `json:"positioning"`
}

type CreateOfferPrefill struct {
	ValueProposition  string   `json:"value_proposition"`
	PricingModel      string   `json:"pricing_model"`
	PriceRange        string   `json:"price_range"`
	AlternativeModels []string `json:"alternative_models"`
	Guarantee         string   `json:"guarantee"`
	Bonuses           []string `json:"bonuses"`
}

type CreateServicePrefill struct {
	ServiceDescription   string   `json:"service_description"`
	CoreFeatures         []string `json:"core_features"`
	Complexity           string   `json:"complexity"`
	DeliveryTimeline     string   `json:"delivery_timeline"`
	RequiredCapabilities []string `json:"required_capabilities"`
}

type BuildFunnelPrefill struct {
	LeadMagnet      string   `json:"lead_magnet"`
	LandingHeadline string   `json:"landing_headline"`
	FunnelSteps     []string `json:"funnel_steps"`
	CallToAction    string   `json:"call_to_action"`
}

type EmailSequencesPrefill struct {
	WelcomeSubject    string   `json:"welcome_subject"`
	NurtureTopics     []string `json:"nurture_topics"`
	ObjectionHandlers []string `json:"objection_handlers"`
	LaunchSubject     string   `json:"launch_subject"`
}

type OrganicPostsPrefill struct {
	ContentPillars []string `json:"content_pillars"`
	PostIdeas      []string `json:"post_ideas"`
	Hashtags       []string `json:"hashtags"`
	Channels       []string `json:"channels"`
}

type FacebookAdsPrefill struct {
	AudienceInterests []string `json:"audience_interests"`
	Demographics      string   `json:"demographics"`
	AdAngles          []string `json:"ad_angles"`
	Headline          string   `json:"headline"`
	PrimaryText       string   `json:"primary_text"`
}

type LaunchPrefill struct {
	Timeline       string   `json:"timeline"`
	Checklist      []string `json:"checklist"`
	SuccessMetrics []string `json:"success_metrics"`
	Risks          []string `json:"risks"`
	Verdict        string   `json:"verdict"`
}

// PhasePrefill carries one content bucket per launch phase. Every field is
// always populated, with empty strings or lists when no signal data exists.
type PhasePrefill struct {
	MarketClarity  MarketClarityPrefill  `json:"market_clarity"`
	CreateOffer    CreateOfferPrefill    `json:"create_offer"`
	CreateService  CreateServicePrefill  `json:"create_service"`
	BuildFunnel    BuildFunnelPrefill    `json:"build_funnel"`
	EmailSequences EmailSequencesPrefill `json:"email_sequences"`
	OrganicPosts   OrganicPostsPrefill   `json:"organic_posts"`
	FacebookAds    FacebookAdsPrefill    `json:"facebook_ads"`
	Launch         LaunchPrefill         `json:"launch"`
}

// Bucket returns the fields of one phase keyed by their JSON names.
func (p PhasePrefill) Bucket(phase Phase) (map[string]any, bool) {
	var v any
	switch phase {
	case PhaseMarketClarity:
		v = p.MarketClarity
	case PhaseCreateOffer:
		v = p.CreateOffer
	case PhaseCreateService:
		v = p.CreateService
	case PhaseBuildFunnel:
		v = p.BuildFunnel
	case PhaseEmailSequences:
		v = p.EmailSequences
	case PhaseOrganicPosts:
		v = p.OrganicPosts
	case PhaseFacebookAds:
		v = p.FacebookAds
	case PhaseLaunch:
		v = p.Launch
	default:
		return nil, false
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

// FieldText renders a bucket field as plain text, joining lists with newlines.
func (p PhasePrefill) FieldText(phase Phase, field string) (string, bool) {
	bucket, ok := p.Bucket(phase)
	if !ok {
		return "", false
	}
	v, ok := bucket[field]
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, "\n"), true
	default:
		return fmt.Sprint(t), true
	}
}

// BuildPhasePrefill maps signal detail and recommendations into the eight phase buckets.
func BuildPhasePrefill(idea string, keywords []string, sig Signals, rec Recommendations) PhasePrefill {
	insight := sig.AIAnalysis.Insight
	icp := insight.IdealCustomer
	pains := firstNonEmpty(sig.SocialProof.PainPoints, icp.PainPoints)
	summary := firstSentence(idea)

	competitors := make([]string, 0, len(sig.Competition.Competitors))
	for _, c := range sig.Competition.Competitors {
		competitors = append(competitors, c.Name)
	}

	headline := fmt.Sprintf("Finally, a better way to handle %s", keywordPhrase(keywords))

	return PhasePrefill{
		MarketClarity: MarketClarityPrefill{
			TargetAudience: icp.Description,
			Demographics:   icp.Demographics,
			PainPoints:     nonNil(pains),
			Keywords:       nonNil(append([]string(nil), keywords...)),
			MarketSize: fmt.Sprintf("%d monthly searches across %d keywords (%s trend)",
				sig.MarketDemand.TotalVolume, len(sig.MarketDemand.VolumeData), sig.MarketDemand.Trend),
			Competitors: competitors,
			Positioning: insight.Differentiation,
		},
		CreateOffer: CreateOfferPrefill{
			ValueProposition:  summary,
			PricingModel:      sig.Monetization.PrimaryModel,
			PriceRange:        sig.Monetization.PriceRange,
			AlternativeModels: nonNil(sig.Monetization.AlternativeModels),
			Guarantee:         "30-day money-back guarantee",
			Bonuses:           nonNil(limit(sig.SocialProof.FeatureRequests, 3)),
		},
		CreateService: CreateServicePrefill{
			ServiceDescription:   summary,
			CoreFeatures:         nonNil(insight.MVPFeatures),
			Complexity:           sig.Feasibility.Complexity,
			DeliveryTimeline:     fmt.Sprintf("%d weeks to MVP", sig.Feasibility.MVPWeeks),
			RequiredCapabilities: nonNil(sig.Feasibility.RequiredCapabilities),
		},
		BuildFunnel: BuildFunnelPrefill{
			LeadMagnet:      fmt.Sprintf("Free guide: how to solve %s", keywordPhrase(keywords)),
			LandingHeadline: headline,
			FunnelSteps:     []string{"Lead magnet opt-in", "Welcome email sequence", "Sales page", "Checkout", "Onboarding"},
			CallToAction:    "Join the early access list",
		},
		EmailSequences: EmailSequencesPrefill{
			WelcomeSubject:    "Welcome! Here is what to expect",
			NurtureTopics:     nonNil(limit(pains, 3)),
			ObjectionHandlers: nonNil(limit(insight.Weaknesses, 3)),
			LaunchSubject:     "Doors are open",
		},
		OrganicPosts: OrganicPostsPrefill{
			ContentPillars: nonNil(limit(keywords, 3)),
			PostIdeas:      postIdeas(pains, insight.Strengths),
			Hashtags:       hashtags(keywords),
			Channels:       nonNil(icp.Channels),
		},
		FacebookAds: FacebookAdsPrefill{
			AudienceInterests: nonNil(limit(keywords, 5)),
			Demographics:      icp.Demographics,
			AdAngles:          nonNil(limit(sig.Competition.DifferentiationGaps, 3)),
			Headline:          headline,
			PrimaryText:       summary,
		},
		Launch: LaunchPrefill{
			Timeline:       insight.LaunchTimeline,
			Checklist:      nonNil(append(append([]string{}, rec.ImmediateActions...), rec.NextSteps...)),
			SuccessMetrics: []string{"Waitlist sign-ups", "Landing page conversion rate", "First paying customers"},
			Risks:          nonNil(rec.Risks),
			Verdict:        rec.Verdict,
		},
	}
}

func firstNonEmpty(lists ...[]string) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return []string{}
}

func limit(s []string, n int) []string {
	if len(s) > n {
		return append([]string{}, s[:n]...)
	}
	return append([]string{}, s...)
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if parts := splitSentences(s); len(parts) > 0 {
		return truncateRunes(parts[0], maxSentenceRunes)
	}
	return ""
}

func keywordPhrase(keywords []string) string {
	if len(keywords) == 0 {
		return "this problem"
	}
	return strings.Join(limit(keywords, 2), " ")
}

func postIdeas(pains, strengths []string) []string {
	ideas := []string{}
	for _, p := range limit(pains, 3) {
		ideas = append(ideas, "Story post: "+p)
	}
	for _, s := range limit(strengths, 2) {
		ideas = append(ideas, "Why it works: "+s)
	}
	return ideas
}

func hashtags(keywords []string) []string {
	tags := []string{}
	for _, kw := range limit(keywords, 5) {
		if tag := domainLabel(kw); tag != "" {
			tags = append(tags, "#"+tag)
		}
	}
	return tags
}
