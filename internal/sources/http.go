package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrNotConfigured is returned by providers whose credentials are absent.
var ErrNotConfigured = errors.New("source not configured")

const (
	defaultTimeout   = 15 * time.Second
	maxAttempts      = 3
	defaultUserAgent = "idea-validation/1.0"
)

type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

func defaultHTTPClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: defaultTimeout}
}

// doJSON executes the request built by newReq and decodes a 2xx body into out.
// 429 and 5xx responses are retried with backoff; newReq is called per attempt
// so request bodies can be replayed.
func doJSON(ctx context.Context, client *http.Client, newReq func() (*http.Request, error), out any) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := newReq()
		if err != nil {
			return err
		}
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", defaultUserAgent)
		}
		retryAfter, err := doOnce(client, req, out)
		if err == nil {
			return nil
		}
		lastErr = err
		var se *StatusError
		if !errors.As(err, &se) || !se.retryable() || attempt == maxAttempts {
			return err
		}
		wait := retryAfter
		if wait <= 0 {
			wait = backoffDelay(attempt)
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
	}
	return lastErr
}

func doOnce(client *http.Client, req *http.Request, out any) (time.Duration, error) {
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		blob, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return parseRetryAfter(resp.Header.Get("Retry-After")), &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(blob))}
	}
	if out == nil {
		return 0, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return 0, fmt.Errorf("decode %s response: %w", req.URL.Host, err)
	}
	return 0, nil
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	if n > 10 {
		n = 10
	}
	return time.Duration(n) * time.Second
}

var backoffDelay = func(attempt int) time.Duration {
	switch attempt {
	case 1:
		return 500 * time.Millisecond
	case 2:
		return 1 * time.Second
	default:
		return 2 * time.Second
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
