package validation

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"
)

const (
	keywordTimeout     = 15 * time.Second
	maxLLMKeywords     = 8
	maxLocalKeywords   = 6
	minKeywordRunes    = 4
	maxSearchKeywords  = 5
	keywordPromptLimit = 2000
)

var defaultKeywords = []string{"business", "online", "service"}

var stopWords = map[string]struct{}{
	"about": {}, "after": {}, "also": {}, "been": {}, "being": {}, "both": {}, "could": {},
	"does": {}, "each": {}, "from": {}, "have": {}, "help": {}, "helps": {}, "into": {},
	"just": {}, "like": {}, "make": {}, "makes": {}, "more": {}, "most": {}, "much": {},
	"need": {}, "only": {}, "other": {}, "over": {}, "people": {}, "should": {}, "some": {},
	"such": {}, "than": {}, "that": {}, "their": {}, "them": {}, "then": {}, "there": {},
	"these": {}, "they": {}, "this": {}, "those": {}, "through": {}, "very": {}, "want": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "while": {}, "will": {}, "with": {},
	"without": {}, "would": {}, "your": {}, "yours": {},
}

// ExtractKeywords asks the LLM for search keywords and falls back to local
// tokenization. It always returns at least one keyword.
func (e *Engine) ExtractKeywords(ctx context.Context, idea string, reqCtx map[string]string) []string {
	log := e.log.WithField("stage", "keywords")
	if e.llm.Enabled() {
		kws, err := e.llmKeywords(ctx, idea, reqCtx)
		if err == nil {
			return kws
		}
		log.WithError(err).Warn("keyword extraction fell back to local tokenizer")
	}
	return LocalKeywords(idea, reqCtx[ContextAudience])
}

func (e *Engine) llmKeywords(ctx context.Context, idea string, reqCtx map[string]string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, keywordTimeout)
	defer cancel()

	var raw []string
	prompt := keywordPrompt(idea, reqCtx)
	_, err := e.llm.Run(ctx, "keywords", prompt, &raw, func() error {
		if len(normalizeKeywords(raw, maxLLMKeywords)) == 0 {
			return fmt.Errorf("no usable keywords")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return normalizeKeywords(raw, maxLLMKeywords), nil
}

func keywordPrompt(idea string, reqCtx map[string]string) string {
	var b strings.Builder
	b.WriteString("Extract 5 to 8 short search keywords for market research on this business idea.\n")
	b.WriteString("Return ONLY a JSON array of lowercase strings.\n\n")
	b.WriteString("Business idea:\n")
	b.WriteString(truncateRunes(idea, keywordPromptLimit))
	if a := strings.TrimSpace(reqCtx[ContextAudience]); a != "" {
		b.WriteString("\n\nTarget audience: ")
		b.WriteString(a)
	}
	return b.String()
}

// LocalKeywords tokenizes idea and audience text without any network calls.
func LocalKeywords(idea, audience string) []string {
	tokens := tokenize(idea)
	tokens = append(tokens, tokenize(audience)...)
	out := make([]string, 0, maxLocalKeywords)
	seen := map[string]struct{}{}
	for _, tok := range tokens {
		if len([]rune(tok)) < minKeywordRunes {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		if len(out) == maxLocalKeywords {
			break
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultKeywords...)
	}
	return out
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalizeKeywords(in []string, limit int) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, kw := range in {
		kw = strings.ToLower(strings.Join(strings.Fields(kw), " "))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
		if len(out) == limit {
			break
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func signalLogger(log logrus.FieldLogger, name SignalName) logrus.FieldLogger {
	return log.WithField("signal", string(name))
}
