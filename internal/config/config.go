// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// Environment mode: "development", "staging", "production".
	Environment string `koanf:"environment"`
}

// SecurityConfig holds the request-facing protections.
type SecurityConfig struct {
	// CORSOrigins lists allowed origins. "*" allows any origin, which is
	// the sensible default for a read-only recommendation API embedded in
	// catalog pages.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitPerMinute caps requests per client IP. Zero disables
	// rate limiting.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`
}

// CatalogConfig holds the upstream catalog API connection.
type CatalogConfig struct {
	// BaseURL is the catalog API root, e.g. "https://example.org/api".
	BaseURL string `koanf:"base_url"`

	// KeyIdentity and KeyCredential authenticate API requests. Both empty
	// means anonymous access, which public catalogs allow for reads.
	KeyIdentity   string `koanf:"key_identity"`
	KeyCredential string `koanf:"key_credential"`

	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig holds logging settings for zerolog.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("server.environment must be development, staging, or production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url is required")
	}
	if err := validateHTTPURL(c.Catalog.BaseURL, "catalog.base_url"); err != nil {
		return err
	}
	if c.Catalog.Timeout <= 0 {
		return fmt.Errorf("catalog.timeout must be positive, got %s", c.Catalog.Timeout)
	}
	// One key without the other is always a misconfiguration.
	if (c.Catalog.KeyIdentity == "") != (c.Catalog.KeyCredential == "") {
		return fmt.Errorf("catalog.key_identity and catalog.key_credential must be set together")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error, fatal, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
