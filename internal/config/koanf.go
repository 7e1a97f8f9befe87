// Similaria - Catalog Similar-Items Recommendation Service
// Copyright 2026 Hondana Dev
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hondana-dev/similaria

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/similaria/config.yaml",
	"/etc/similaria/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces the environment variables: SIMILARIA_SERVER_PORT,
// SIMILARIA_CATALOG_BASE_URL, and so on.
const envPrefix = "SIMILARIA_"

// defaultConfig returns a Config with every default applied. Defaults are
// loaded first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Security: SecurityConfig{
			CORSOrigins:        []string{"*"},
			RateLimitPerMinute: 120,
		},
		Catalog: CatalogConfig{
			BaseURL: "",
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Loaded carries the unmarshalled configuration together with the koanf
// instance it came from, so callers can read sections that stay untyped.
type Loaded struct {
	Config *Config
	koanf  *koanf.Koanf
}

// Load reads the configuration in three layers: struct defaults, an
// optional YAML file, and SIMILARIA_-prefixed environment variables.
func Load() (*Loaded, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &Loaded{Config: cfg, koanf: k}, nil
}

// findConfigFile searches the env override and then the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when they arrive as strings from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings, but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf paths:
//
//	SIMILARIA_SERVER_PORT          -> server.port
//	SIMILARIA_CATALOG_BASE_URL     -> catalog.base_url
//	SIMILARIA_LOGGING_LEVEL        -> logging.level
//	SIMILARIA_SIMILAR_LIMIT        -> similar.limit
//	SIMILARIA_SIMILAR_WEIGHT_SUBJECT -> similar.weight.subject
//
// Section names with compound keys need explicit entries because an
// underscore is both the section separator and part of key names.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	explicit := map[string]string{
		"catalog_base_url":               "catalog.base_url",
		"catalog_key_identity":           "catalog.key_identity",
		"catalog_key_credential":         "catalog.key_credential",
		"security_cors_origins":          "security.cors_origins",
		"security_rate_limit_per_minute": "security.rate_limit_per_minute",
	}
	if path, ok := explicit[key]; ok {
		return path
	}

	// Similar-section keys keep their dotted shape after the section and
	// group markers: similar_weight_author_id -> similar.weight.author_id.
	if rest, ok := strings.CutPrefix(key, "similar_"); ok {
		for _, group := range []string{"map", "weight", "serendipity", "multi_match", "jitter", "shelf_expand"} {
			if sub, ok := strings.CutPrefix(rest, group+"_"); ok {
				return "similar." + group + "." + sub
			}
		}
		return "similar." + rest
	}

	// Everything else splits on the first underscore: section_key.
	if section, rest, ok := strings.Cut(key, "_"); ok {
		return section + "." + rest
	}
	return key
}

// Koanf exposes the underlying instance for the config snapshot endpoint
// and the engine settings source.
func (l *Loaded) Koanf() *koanf.Koanf {
	return l.koanf
}

// SimilarSettings returns the similar section as a flat key-value source.
// The zero value answers every lookup with a miss, which leaves the
// engine on its built-in defaults.
type SimilarSettings struct {
	k *koanf.Koanf
}

// SimilarSettings builds the engine settings view over the similar
// section of the loaded configuration.
func (l *Loaded) SimilarSettings() *SimilarSettings {
	return &SimilarSettings{k: l.koanf}
}

// Get implements the engine's settings source over "similar." keys.
func (s *SimilarSettings) Get(key string) (string, bool) {
	if s == nil || s.k == nil {
		return "", false
	}
	path := "similar." + key
	if !s.k.Exists(path) {
		return "", false
	}
	return s.k.String(path), true
}
