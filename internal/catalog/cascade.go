package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/eapache/go-resiliency/retrier"

	"github.com/GE3O/fence-catalog/internal/model"
)

// do runs the full cascade for one request, wrapped in the caller-level
// retry policy. Retries apply to the cascade as a whole rather than per
// template: a genuinely down backend fails out to synthetic data within one
// full pass instead of multiplying delay by templates x retries.
func (c *Client) do(ctx context.Context, req Request) (json.RawMessage, error) {
	if c.policy.MaxRetries <= 0 {
		return c.cascade(ctx, req)
	}

	var result json.RawMessage
	r := retrier.New(retrier.ConstantBackoff(c.policy.MaxRetries, c.policy.RetryDelay), transportClassifier{})
	err := r.RunCtx(ctx, func(ctx context.Context) error {
		raw, err := c.cascade(ctx, req)
		if err != nil {
			return err
		}
		result = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// cascade iterates the candidate templates in declaration order, replaying
// the request descriptor against each. The first success short-circuits the
// remaining templates. Failures accumulate in a per-call slice and are
// logged, never surfaced individually; on exhaustion the synthetic
// generator substitutes a response, or the last failure propagates when
// fallback is disabled (or the resource has no synthetic shape).
func (c *Client) cascade(ctx context.Context, req Request) (json.RawMessage, error) {
	failures := make([]error, 0, len(c.endpoints.Templates))

	for i := range c.endpoints.Templates {
		candidate := c.endpoints.Resolve(req.Path, req.Params, i)

		raw, err := c.invoke(ctx, req.Method, candidate, req.Body)
		if err == nil {
			return raw, nil
		}
		if ctx.Err() != nil {
			// Caller cancelled the whole request; stop walking templates.
			return nil, err
		}
		failures = append(failures, err)
	}

	last := failures[len(failures)-1]

	// Writes never synthesize: fabricating a successful create or delete
	// would leave the UI acting on state that does not exist upstream.
	if c.policy.SyntheticFallback && req.Method == http.MethodGet {
		if raw, ok := c.synthesize(req, last); ok {
			return raw, nil
		}
	}
	return nil, last
}

// synthesize asks the generator for placeholder data keyed by the original
// resource path and filters. Returns false when the resource shape has no
// synthetic equivalent.
func (c *Client) synthesize(req Request, last error) (json.RawMessage, bool) {
	data, err := c.synth.Synthesize(req.Path, req.Params)
	if err != nil {
		return nil, false
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, false
	}

	c.logger.Warn("all catalog endpoints failed, serving synthetic fallback",
		slog.String("path", req.Path),
		slog.Int("templates_tried", len(c.endpoints.Templates)),
		slog.String("last_error", last.Error()),
	)
	return raw, true
}

// transportClassifier tells the retrier which terminal cascade outcomes are
// worth another pass. Decode failures are not: the endpoint answered and
// replaying the request yields the same bytes. Context cancellation and
// non-transport errors fail immediately.
type transportClassifier struct{}

func (transportClassifier) Classify(err error) retrier.Action {
	if err == nil {
		return retrier.Succeed
	}
	var terr *model.TransportError
	if errors.As(err, &terr) && terr.Retryable() {
		return retrier.Retry
	}
	return retrier.Fail
}
