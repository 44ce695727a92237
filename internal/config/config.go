// Package config handles loading and validation of service configuration.
// Supports both development (env vars / CONFIG_FILE) and production
// (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"github.com/GE3O/fence-catalog/internal/catalog"
	"github.com/GE3O/fence-catalog/internal/endpoint"
)

// Config holds all service configuration.
// Environment determines whether store credentials load from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	StoreID    string

	// Store-specific configuration (loaded from secrets in production)
	Store StoreConfig
}

// StoreConfig contains the upstream catalog settings.
// In production this is loaded from Secret Manager as JSON; in development
// from individual env vars or CONFIG_FILE.
type StoreConfig struct {
	// Domain is the primary store domain. The www/non-www alternate and the
	// URL-template variants are derived from it at startup.
	Domain string `json:"domain"`

	// Always-present query auth; empty strings are sent when unset.
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`

	// Transport policy knobs. Zero values fall back to catalog defaults.
	TimeoutMs    int `json:"timeout_ms,omitempty"`
	MaxRetries   int `json:"max_retries,omitempty"`
	RetryDelayMs int `json:"retry_delay_ms,omitempty"`

	// DisableFallback propagates failures instead of synthesizing data.
	DisableFallback bool `json:"disable_fallback,omitempty"`

	// AllowedOrigins for the browser UI's CORS preflight. Empty allows any.
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) -> ENV vars / Secret Manager.
// Validates required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		StoreID:     os.Getenv("STORE_ID"),
	}

	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.StoreID == "" {
			return nil, fmt.Errorf("STORE_ID required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading store config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port        string      `json:"port"`
		Environment string      `json:"environment"`
		LogLevel    string      `json:"log_level"`
		StoreID     string      `json:"store_id"`
		Store       StoreConfig `json:"store"`
	}
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, "8080"),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		StoreID:     fileConfig.StoreID,
		Store:       fileConfig.Store,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches store config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{store_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StoreID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Store); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	return nil
}

// loadFromEnv reads store config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Store = StoreConfig{
		Domain:          os.Getenv("STORE_DOMAIN"),
		ConsumerKey:     os.Getenv("CONSUMER_KEY"),
		ConsumerSecret:  os.Getenv("CONSUMER_SECRET"),
		DisableFallback: os.Getenv("DISABLE_FALLBACK") == "true",
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Store.AllowedOrigins = append(c.Store.AllowedOrigins, o)
			}
		}
	}
	return nil
}

// validate checks that all required configuration fields are present.
// Credentials are deliberately not required: the upstream API accepts
// always-present empty auth parameters for public catalog reads.
func (c *Config) validate() error {
	if c.Store.Domain == "" {
		return fmt.Errorf("store domain is required")
	}
	return nil
}

// BuildEndpointConfig derives the candidate URL templates and credentials
// consumed by the catalog client.
func (c *Config) BuildEndpointConfig() (endpoint.Config, error) {
	return endpoint.NewConfig(c.Store.Domain, endpoint.Credentials{
		ConsumerKey:    c.Store.ConsumerKey,
		ConsumerSecret: c.Store.ConsumerSecret,
	})
}

// BuildPolicy converts the store settings into a transport policy,
// filling unset knobs from catalog defaults.
func (c *Config) BuildPolicy() catalog.Policy {
	p := catalog.DefaultPolicy()
	if c.Store.TimeoutMs > 0 {
		p.Timeout = time.Duration(c.Store.TimeoutMs) * time.Millisecond
	}
	if c.Store.MaxRetries > 0 {
		p.MaxRetries = c.Store.MaxRetries
	}
	if c.Store.RetryDelayMs > 0 {
		p.RetryDelay = time.Duration(c.Store.RetryDelayMs) * time.Millisecond
	}
	p.SyntheticFallback = !c.Store.DisableFallback
	return p
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
