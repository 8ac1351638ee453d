package validation

import (
	"errors"
	"time"

	"github.com/joelkehle/idea-validation/internal/sources"
)

const (
	ReportTTL       = 30 * 24 * time.Hour
	MaxIdeaChars    = 5000
	ContextAudience = "audience"
)

var ErrEmptyIdea = errors.New("business idea is empty")

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

type SignalName string

const (
	SignalMarketDemand SignalName = "market_demand"
	SignalCompetition  SignalName = "competition"
	SignalMonetization SignalName = "monetization"
	SignalFeasibility  SignalName = "feasibility"
	SignalAIAnalysis   SignalName = "ai_analysis"
	SignalSocialProof  SignalName = "social_proof"
)

// Credentials carries every external API secret the engine may use. Empty
// fields disable the matching collaborator.
type Credentials struct {
	OpenAIKey          string `yaml:"openai_api_key"`
	AnthropicKey       string `yaml:"anthropic_api_key"`
	SerpAPIKey         string `yaml:"serpapi_key"`
	ProductHuntToken   string `yaml:"producthunt_token"`
	GitHubToken        string `yaml:"github_token"`
	WhoisXMLKey        string `yaml:"whoisxml_key"`
	RedditClientID     string `yaml:"reddit_client_id"`
	RedditClientSecret string `yaml:"reddit_client_secret"`
	RedditUserAgent    string `yaml:"reddit_user_agent"`
}

type Request struct {
	BusinessIdea string            `json:"business_idea"`
	Context      map[string]string `json:"context,omitempty"`
}

type KeywordVolume struct {
	Keyword   string `json:"keyword"`
	Volume    int    `json:"volume"`
	Estimated bool   `json:"estimated"`
}

type MarketDemandSignal struct {
	Score            int             `json:"score"`
	RawScore         int             `json:"raw_score"`
	Keywords         []string        `json:"keywords"`
	TotalVolume      int             `json:"total_volume"`
	VolumeData       []KeywordVolume `json:"volume_data"`
	TrendDirection   int             `json:"trend_direction"`
	Trend            string          `json:"trend"`
	GrowthRate       int             `json:"growth_rate"`
	SeasonalVariance string          `json:"seasonal_variance"`
	Fallback         bool            `json:"fallback"`
}

type Competitor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Votes       int    `json:"votes"`
}

type DomainStatus struct {
	Domain    string `json:"domain"`
	Available bool   `json:"available"`
	Checked   bool   `json:"checked"`
}

type CompetitionSignal struct {
	Score               int                  `json:"score"`
	Saturation          int                  `json:"saturation"`
	SaturationLevel     string               `json:"saturation_level"`
	Competitors         []Competitor         `json:"competitors"`
	ListingCount        int                  `json:"listing_count"`
	RepositoryCount     int                  `json:"repository_count"`
	Repositories        []sources.Repository `json:"repositories"`
	Domains             []DomainStatus       `json:"domains"`
	DomainsAvailable    int                  `json:"domains_available"`
	DifferentiationGaps []string             `json:"differentiation_gaps"`
	Fallback            bool                 `json:"fallback"`
}

type MonetizationSignal struct {
	Score                    int      `json:"score"`
	PriceToleranceConfidence float64  `json:"price_tolerance_confidence"`
	PrimaryModel             string   `json:"primary_model"`
	AlternativeModels        []string `json:"alternative_models"`
	PriceRange               string   `json:"price_range"`
}

type FeasibilitySignal struct {
	Score                int      `json:"score"`
	EffortScore          int      `json:"effort_score"`
	Complexity           string   `json:"complexity"`
	MVPWeeks             int      `json:"mvp_weeks"`
	RequiredCapabilities []string `json:"required_capabilities"`
}

type CustomerProfile struct {
	Description  string   `json:"description"`
	Demographics string   `json:"demographics"`
	PainPoints   []string `json:"pain_points"`
	Channels     []string `json:"channels"`
}

type AIInsight struct {
	ViabilityScore  int             `json:"viability_score"`
	Strengths       []string        `json:"strengths"`
	Weaknesses      []string        `json:"weaknesses"`
	Opportunities   []string        `json:"opportunities"`
	Threats         []string        `json:"threats"`
	IdealCustomer   CustomerProfile `json:"ideal_customer_profile"`
	RevenueModels   []string        `json:"revenue_models"`
	Risks           []string        `json:"risks"`
	Differentiation string          `json:"differentiation_strategy"`
	LaunchTimeline  string          `json:"launch_timeline"`
	MVPFeatures     []string        `json:"mvp_features"`
}

type AIAnalysisSignal struct {
	Score    int       `json:"score"`
	Insight  AIInsight `json:"insight"`
	Model    string    `json:"model,omitempty"`
	Fallback bool      `json:"fallback"`
}

type DiscussionSnippet struct {
	Title     string `json:"title"`
	Excerpt   string `json:"excerpt"`
	Source    string `json:"source"`
	URL       string `json:"url"`
	Sentiment string `json:"sentiment"`
}

type SentimentBreakdown struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

type SocialProofSignal struct {
	Score           int                 `json:"score"`
	DiscussionCount int                 `json:"discussion_count"`
	Discussions     []DiscussionSnippet `json:"discussions"`
	Sentiment       SentimentBreakdown  `json:"sentiment_breakdown"`
	PainPoints      []string            `json:"pain_points"`
	FeatureRequests []string            `json:"feature_requests"`
	Fallback        bool                `json:"fallback"`
}

type Signals struct {
	MarketDemand MarketDemandSignal `json:"market_demand"`
	Competition  CompetitionSignal  `json:"competition"`
	Monetization MonetizationSignal `json:"monetization"`
	Feasibility  FeasibilitySignal  `json:"feasibility"`
	AIAnalysis   AIAnalysisSignal   `json:"ai_analysis"`
	SocialProof  SocialProofSignal  `json:"social_proof"`
}

type ScoreBreakdown struct {
	MarketDemand int `json:"market_demand"`
	Competition  int `json:"competition"`
	Monetization int `json:"monetization"`
	Feasibility  int `json:"feasibility"`
	AIAnalysis   int `json:"ai_analysis"`
	SocialProof  int `json:"social_proof"`
}

// Breakdown collects the six raw signal scores.
func (s Signals) Breakdown() ScoreBreakdown {
	return ScoreBreakdown{
		MarketDemand: s.MarketDemand.Score,
		Competition:  s.Competition.Score,
		Monetization: s.Monetization.Score,
		Feasibility:  s.Feasibility.Score,
		AIAnalysis:   s.AIAnalysis.Score,
		SocialProof:  s.SocialProof.Score,
	}
}

type Report struct {
	ID              string            `json:"id"`
	BusinessIdea    string            `json:"business_idea"`
	Context         map[string]string `json:"context,omitempty"`
	Keywords        []string          `json:"keywords"`
	ValidationScore int               `json:"validation_score"`
	ConfidenceLevel ConfidenceLevel   `json:"confidence_level"`
	ConfidenceScore float64           `json:"confidence_score"`
	ScoreBreakdown  ScoreBreakdown    `json:"score_breakdown"`
	Signals         Signals           `json:"signals"`
	Recommendations Recommendations   `json:"recommendations"`
	PhasePrefill    PhasePrefill      `json:"phase_prefill"`
	FallbackSignals []SignalName      `json:"fallback_signals"`
	InputTruncated  bool              `json:"input_truncated,omitempty"`
	Published       bool              `json:"published"`
	ValidatedAt     time.Time         `json:"validated_at"`
	ExpiresAt       time.Time         `json:"expires_at"`
}
