package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrNotConfigured = errors.New("llm not configured")

var statusCodeRe = regexp.MustCompile(`status(?:\s+code)?[:=\s]+(\d{3})`)

type failureClass int

const (
	failureNone failureClass = iota
	failureTimeout
	failureRateLimit
	failureServer
	failureClient
)

const DefaultAttempts = 2

type Metrics struct {
	Attempts       int
	ContentRetries int
}

// Executor runs a prompt until the response decodes into out and passes validate.
type Executor struct {
	caller   Caller
	attempts int
	log      logrus.FieldLogger
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewExecutor(caller Caller, attempts int, log logrus.FieldLogger) *Executor {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Executor{caller: caller, attempts: attempts, log: log, sleep: sleepCtx}
}

func (e *Executor) Enabled() bool { return e != nil && e.caller != nil }

func (e *Executor) ModelName() string {
	if !e.Enabled() {
		return ""
	}
	return e.caller.ModelName()
}

func (e *Executor) Run(ctx context.Context, stage, prompt string, out any, validate func() error) (Metrics, error) {
	metrics := Metrics{}
	if !e.Enabled() {
		return metrics, ErrNotConfigured
	}
	if validate == nil {
		validate = func() error { return nil }
	}
	log := e.log.WithFields(logrus.Fields{"component": "llm", "stage": stage, "model": e.caller.ModelName()})
	feedback := ""
	for attempt := 1; attempt <= e.attempts; attempt++ {
		metrics.Attempts = attempt
		fullPrompt := prompt
		if feedback != "" {
			fullPrompt += "\n\n" + feedback
		}
		last := attempt == e.attempts

		start := time.Now()
		raw, err := e.caller.GenerateJSON(ctx, fullPrompt)
		alog := log.WithFields(logrus.Fields{"attempt": attempt, "elapsed_ms": time.Since(start).Milliseconds()})
		if err != nil {
			class := classifyTransportError(err)
			alog.WithError(err).WithField("class", class).Warn("llm attempt transport error")
			if !last && (class == failureTimeout || class == failureRateLimit || class == failureServer) {
				if serr := e.sleep(ctx, backoffDelay(attempt)); serr != nil {
					return metrics, fmt.Errorf("%s: %w", stage, serr)
				}
				continue
			}
			return metrics, fmt.Errorf("%s transport failure: %w", stage, err)
		}

		raw = strings.TrimSpace(raw)
		if raw == "" {
			alog.Warn("llm attempt empty")
			if !last {
				metrics.ContentRetries++
				feedback = "Your previous response was empty. Return valid JSON only."
				continue
			}
			return metrics, fmt.Errorf("%s failed: empty response", stage)
		}

		clean := ExtractJSON(raw)
		resetTarget(out)
		if err := json.Unmarshal([]byte(clean), out); err != nil {
			alog.WithError(err).Warn("llm attempt json error")
			if !last {
				metrics.ContentRetries++
				feedback = "Your previous response was not valid JSON. Return valid JSON only."
				continue
			}
			return metrics, fmt.Errorf("%s failed json parse: %w", stage, err)
		}
		if err := validate(); err != nil {
			alog.WithError(err).Warn("llm attempt validation error")
			if !last {
				metrics.ContentRetries++
				feedback = fmt.Sprintf("Your response failed validation: %s. Fix and return valid JSON only.", err)
				continue
			}
			return metrics, fmt.Errorf("%s failed validation: %w", stage, err)
		}
		alog.WithField("response_chars", len(clean)).Debug("llm attempt success")
		return metrics, nil
	}
	return metrics, fmt.Errorf("%s failed after retries", stage)
}

// resetTarget zeroes the value out points to, so fields a retry omits do not
// keep data from a rejected attempt.
func resetTarget(out any) {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return
	}
	v.Elem().Set(reflect.Zero(v.Elem().Type()))
}

// ExtractJSON strips markdown fences and surrounding prose from a model response.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
		return s
	}
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return s
	}
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end > start {
		return s[start : end+1]
	}
	return s
}

func classifyTransportError(err error) failureClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	msg := strings.ToLower(err.Error())
	if m := statusCodeRe.FindStringSubmatch(msg); len(m) == 2 {
		switch {
		case m[1] == "429":
			return failureRateLimit
		case strings.HasPrefix(m[1], "5"):
			return failureServer
		case strings.HasPrefix(m[1], "4"):
			return failureClient
		}
	}
	switch {
	case strings.Contains(msg, "rate limit"):
		return failureRateLimit
	case strings.Contains(msg, "server error"):
		return failureServer
	default:
		return failureServer
	}
}

func backoffDelay(attempt int) time.Duration {
	switch attempt {
	case 1:
		return 1 * time.Second
	case 2:
		return 2 * time.Second
	default:
		return 4 * time.Second
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NewCaller picks a caller for the configured provider. An empty key yields ErrNotConfigured.
func NewCaller(provider, openAIKey, anthropicKey, model string) (Caller, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "openai":
		if strings.TrimSpace(openAIKey) == "" {
			return nil, ErrNotConfigured
		}
		return NewOpenAICaller(OpenAIConfig{APIKey: openAIKey, Model: model})
	case "anthropic":
		if strings.TrimSpace(anthropicKey) == "" {
			return nil, ErrNotConfigured
		}
		return NewAnthropicCaller(anthropicKey, model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}
