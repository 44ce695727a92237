package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GE3O/fence-catalog/internal/model"
)

// userAgent identifies this client to upstream servers.
// Required: WooCommerce CDN/WAF rate-limits requests without User-Agent.
const userAgent = "FenceCatalog/1.0"

// invoke performs one bounded HTTP attempt against a single candidate URL
// and classifies the outcome. The attempt deadline is enforced with its own
// context; when it fires, the in-flight call is cancelled and invoke returns
// without waiting for the transport to unwind.
//
// Classification:
//   - deadline exceeded      -> timeout failure (retryable)
//   - DNS/conn/TLS fault     -> network failure (retryable)
//   - non-2xx status         -> status failure (retryable by caller policy)
//   - 2xx with invalid JSON  -> decode failure (non-retryable)
//
// A cancellation of the caller's context is returned as-is so the cascade
// stops instead of trying further templates.
func (c *Client) invoke(ctx context.Context, method, rawURL string, body any) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.policy.Timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	safeURL := redactURL(rawURL)

	req, err := http.NewRequestWithContext(attemptCtx, method, rawURL, bodyReader)
	if err != nil {
		return nil, model.NewNetworkError(safeURL, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		terr := classifyTransportFault(safeURL, err)
		c.logAttempt(method, safeURL, 0, time.Since(start), terr)
		return nil, terr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		terr := classifyTransportFault(safeURL, err)
		c.logAttempt(method, safeURL, resp.StatusCode, time.Since(start), terr)
		return nil, terr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		terr := model.NewStatusError(safeURL, resp.StatusCode)
		c.logAttempt(method, safeURL, resp.StatusCode, time.Since(start), terr)
		return nil, terr
	}

	if !json.Valid(data) {
		terr := model.NewDecodeError(safeURL, fmt.Errorf("body is not valid JSON"))
		c.logAttempt(method, safeURL, resp.StatusCode, time.Since(start), terr)
		return nil, terr
	}

	c.logAttempt(method, safeURL, resp.StatusCode, time.Since(start), nil)
	return json.RawMessage(data), nil
}

// classifyTransportFault maps a transport error to timeout or network class.
func classifyTransportFault(safeURL string, err error) *model.TransportError {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.NewTimeoutError(safeURL, err)
	}
	return model.NewNetworkError(safeURL, err)
}

// logAttempt emits one structured debug line per attempt.
func (c *Client) logAttempt(method, safeURL string, status int, elapsed time.Duration, err error) {
	attrs := []any{
		slog.String("method", method),
		slog.String("url", safeURL),
		slog.Duration("elapsed", elapsed),
	}
	if status != 0 {
		attrs = append(attrs, slog.Int("status", status))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		c.logger.Debug("catalog attempt failed", attrs...)
		return
	}
	c.logger.Debug("catalog attempt", attrs...)
}

// redactURL strips credential values from a candidate URL for logging.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		// Unparseable: drop the whole query rather than risk leaking it.
		return strings.SplitN(rawURL, "?", 2)[0]
	}
	q := u.Query()
	for _, key := range []string{"consumer_key", "consumer_secret"} {
		if q.Has(key) {
			q.Set(key, "***")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
