// Package catalog implements the resilient client for the upstream product
// catalog. A request walks an ordered cascade of candidate endpoint
// templates, each attempt bounded by a hard deadline, and degrades to
// deterministic synthetic data when no live endpoint answers.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/GE3O/fence-catalog/internal/endpoint"
	"github.com/GE3O/fence-catalog/internal/fallback"
	"github.com/GE3O/fence-catalog/internal/model"
	"github.com/GE3O/fence-catalog/internal/transport"
)

// Policy bounds the transport behavior of every request. Constructed once
// at startup and passed by value; never mutated during a request.
type Policy struct {
	// Timeout is the hard deadline for one attempt against one template.
	// Worst-case cascade latency is templates x Timeout.
	Timeout time.Duration

	// MaxRetries and RetryDelay wrap the whole cascade, not a single
	// template. With synthetic fallback enabled the cascade cannot fail,
	// so retries only engage when fallback is disabled.
	MaxRetries int
	RetryDelay time.Duration

	// SyntheticFallback substitutes placeholder data when every template
	// failed, instead of surfacing the last failure.
	SyntheticFallback bool
}

// DefaultPolicy returns the policy used when configuration is silent.
func DefaultPolicy() Policy {
	return Policy{
		Timeout:           10 * time.Second,
		MaxRetries:        2,
		RetryDelay:        500 * time.Millisecond,
		SyntheticFallback: true,
	}
}

// Request describes one catalog call. Immutable once constructed; the same
// descriptor is replayed against every candidate URL in the cascade.
type Request struct {
	Path   string
	Params url.Values
	Method string
	Body   any
}

// Config holds client construction parameters.
type Config struct {
	Endpoints endpoint.Config
	Policy    Policy
	Logger    *slog.Logger
}

// Client is the sole catalog entry point exposed to consumers. Safe for
// concurrent use: each call owns its descriptor, failure accumulator, and
// cancellation handles.
type Client struct {
	httpClient *http.Client
	endpoints  endpoint.Config
	policy     Policy
	logger     *slog.Logger
	synth      *fallback.Generator
}

// New creates a catalog client. The endpoint configuration must carry at
// least one template.
func New(cfg Config) (*Client, error) {
	if len(cfg.Endpoints.Templates) == 0 {
		return nil, fmt.Errorf("at least one endpoint template is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	synth, err := fallback.New()
	if err != nil {
		return nil, err
	}

	// Per-attempt deadlines come from request contexts; the transport only
	// bounds connection establishment.
	return &Client{
		httpClient: &http.Client{
			Transport: transport.New(cfg.Policy.Timeout),
		},
		endpoints: cfg.Endpoints,
		policy:    cfg.Policy,
		logger:    logger,
		synth:     synth,
	}, nil
}

// Read fetches a catalog resource. GET carries query parameters only.
func (c *Client) Read(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	return c.do(ctx, Request{Path: path, Params: params, Method: http.MethodGet})
}

// Create posts a new resource through the same transport policy.
func (c *Client) Create(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, Request{Path: path, Method: http.MethodPost, Body: body})
}

// Update replaces a resource through the same transport policy.
func (c *Client) Update(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, Request{Path: path, Method: http.MethodPut, Body: body})
}

// Delete removes a resource. Like Read, it carries query parameters only.
func (c *Client) Delete(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	return c.do(ctx, Request{Path: path, Params: params, Method: http.MethodDelete})
}

// categoriesPath is the logical resource for the catalog taxonomy.
const categoriesPath = "products/categories"

// Categories fetches the category taxonomy as typed records.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	raw, err := c.Read(ctx, categoriesPath, nil)
	if err != nil {
		return nil, err
	}
	var cats []model.Category
	if err := json.Unmarshal(raw, &cats); err != nil {
		return nil, fmt.Errorf("parsing categories: %w", err)
	}
	return cats, nil
}

// Products fetches the product collection. Supported params mirror the
// upstream API (category, search, per_page, ...) and pass through untouched.
func (c *Client) Products(ctx context.Context, params url.Values) ([]model.Product, error) {
	raw, err := c.Read(ctx, "products", params)
	if err != nil {
		return nil, err
	}
	var products []model.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("parsing products: %w", err)
	}
	return products, nil
}

// Product fetches a single product by id.
func (c *Client) Product(ctx context.Context, id int) (*model.Product, error) {
	raw, err := c.Read(ctx, "products/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, err
	}
	var p model.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parsing product %d: %w", id, err)
	}
	return &p, nil
}
