package validation

import (
	"context"
	"math"
	"strings"
)

const (
	discussionLimit   = 25
	maxSnippets       = 10
	maxExtracted      = 5
	maxExcerptRunes   = 280
	maxSentenceRunes  = 200
	sentimentPositive = "positive"
	sentimentNegative = "negative"
	sentimentNeutral  = "neutral"
)

var positiveWords = map[string]struct{}{
	"love": {}, "great": {}, "awesome": {}, "amazing": {}, "helpful": {}, "useful": {},
	"excellent": {}, "recommend": {}, "happy": {}, "best": {}, "easy": {}, "perfect": {},
	"worth": {}, "good": {}, "saved": {},
}

var negativeWords = map[string]struct{}{
	"hate": {}, "terrible": {}, "awful": {}, "frustrating": {}, "frustrated": {}, "annoying": {},
	"expensive": {}, "difficult": {}, "broken": {}, "worst": {}, "problem": {}, "struggling": {},
	"useless": {}, "bad": {}, "confusing": {},
}

var painIndicators = []string{
	"struggling with", "frustrated with", "frustrated by", "i hate", "problem with",
	"hard to", "can't find", "cannot find", "too expensive", "waste of time",
}

var featureIndicators = []string{
	"would be great if", "i wish", "wish there was", "would love", "it would be nice",
	"should have", "feature request", "looking for a tool",
}

// CollectSocialProof classifies community discussions about the keywords.
func (e *Engine) CollectSocialProof(ctx context.Context, keywords []string) SocialProofSignal {
	log := signalLogger(e.log, SignalSocialProof)
	sig := SocialProofSignal{
		Discussions:     []DiscussionSnippet{},
		PainPoints:      []string{},
		FeatureRequests: []string{},
	}
	if e.discussions == nil {
		sig.Fallback = true
		return sig
	}
	query := strings.Join(keywords[:min(len(keywords), competitionTerm)], " ")
	posts, err := e.discussions.SearchDiscussions(ctx, query, discussionLimit)
	if err != nil {
		logSourceError(log, err, "discussion search unavailable")
		sig.Fallback = true
		return sig
	}

	var pos, neg, neutral int
	for _, p := range posts {
		text := p.Title + ". " + p.Body
		label := ClassifySentiment(text)
		switch label {
		case sentimentPositive:
			pos++
		case sentimentNegative:
			neg++
		default:
			neutral++
		}
		if len(sig.Discussions) < maxSnippets {
			sig.Discussions = append(sig.Discussions, DiscussionSnippet{
				Title:     p.Title,
				Excerpt:   truncateRunes(strings.TrimSpace(p.Body), maxExcerptRunes),
				Source:    "r/" + p.Subreddit,
				URL:       p.URL,
				Sentiment: label,
			})
		}
		sig.PainPoints = appendMatches(sig.PainPoints, text, painIndicators)
		sig.FeatureRequests = appendMatches(sig.FeatureRequests, text, featureIndicators)
	}

	sig.DiscussionCount = len(posts)
	sig.Sentiment = sentimentShares(pos, neg, neutral)
	sig.Score = SocialProofScore(pos, neg, len(posts))
	return sig
}

// SocialProofScore is clamp(positive% - negative% + min(40, 2*count), 0, 100).
func SocialProofScore(positive, negative, count int) int {
	if count <= 0 {
		return 0
	}
	posPct := 100 * float64(positive) / float64(count)
	negPct := 100 * float64(negative) / float64(count)
	return clampScore(int(math.Round(posPct - negPct + float64(min(40, 2*count)))))
}

// ClassifySentiment votes by counting fixed positive and negative words. Ties are neutral.
func ClassifySentiment(text string) string {
	var pos, neg int
	for _, w := range tokenize(text) {
		if _, ok := positiveWords[w]; ok {
			pos++
		}
		if _, ok := negativeWords[w]; ok {
			neg++
		}
	}
	switch {
	case pos > neg:
		return sentimentPositive
	case neg > pos:
		return sentimentNegative
	default:
		return sentimentNeutral
	}
}

func sentimentShares(pos, neg, neutral int) SentimentBreakdown {
	total := pos + neg + neutral
	if total == 0 {
		return SentimentBreakdown{}
	}
	pct := func(n int) float64 { return roundTo(100*float64(n)/float64(total), 1) }
	return SentimentBreakdown{Positive: pct(pos), Negative: pct(neg), Neutral: pct(neutral)}
}

// appendMatches adds sentences containing any indicator phrase until maxExtracted is reached.
func appendMatches(dst []string, text string, indicators []string) []string {
	for _, sentence := range splitSentences(text) {
		if len(dst) >= maxExtracted {
			return dst
		}
		lower := strings.ToLower(sentence)
		for _, ind := range indicators {
			if !strings.Contains(lower, ind) {
				continue
			}
			if snippet := truncateRunes(sentence, maxSentenceRunes); !containsFold(dst, snippet) {
				dst = append(dst, snippet)
			}
			break
		}
	}
	return dst
}

func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
