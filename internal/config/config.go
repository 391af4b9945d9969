// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config assembles the pipeline configuration from defaults, an
// optional YAML file, environment variables and the .secrets directory.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/desk-researcher/internal/secrets"
	"github.com/pdiddy/desk-researcher/internal/vectorstore"
	"github.com/pdiddy/desk-researcher/pkg/types"
)

// EnvPrefix prefixes environment overrides, e.g. DESK_RESEARCHER_STORE_URL.
const EnvPrefix = "DESK_RESEARCHER"

// ConfigName is the config file base name searched in . and ~/.config/desk-researcher.
const ConfigName = "desk-researcher"

// Setup prepares v with defaults, environment binding and config search
// paths. cfgFile, when set, is used instead of searching.
func Setup(v *viper.Viper, cfgFile string) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", ConfigName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range legacyEnv {
		v.BindEnv(append([]string{key, EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, envs...)...)
	}
}

// ReadFile reads the config file if one is found. A missing file is not an
// error; it returns the path used, or "".
func ReadFile(v *viper.Viper) (string, error) {
	err := v.ReadInConfig()
	if err == nil {
		return v.ConfigFileUsed(), nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return "", nil
	}
	return "", fmt.Errorf("reading config file: %w", err)
}

// FromViper builds a Config from v and fills empty API keys from s.
func FromViper(v *viper.Viper, s secrets.Secrets) types.Config {
	cfg := types.Config{
		Debug: v.GetBool("debug"),
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:    v.GetDuration("fetch.timeout"),
				UserAgent:  v.GetString("fetch.user_agent"),
				MaxRetries: v.GetInt("fetch.max_retries"),
			},
			BaseURL:       v.GetString("fetch.base_url"),
			MaxResults:    v.GetInt("fetch.max_results"),
			AbstractLimit: v.GetInt("fetch.abstract_limit"),
		},
		Embedding: types.EmbeddingConfig{
			Backend:        v.GetString("embedding.backend"),
			Dimensions:     v.GetInt("embedding.dimensions"),
			ModelPath:      v.GetString("embedding.model_path"),
			VocabPath:      v.GetString("embedding.vocab_path"),
			RuntimeLibrary: v.GetString("embedding.runtime_library"),
			MaxTokens:      v.GetInt("embedding.max_tokens"),
			CacheSize:      v.GetInt("embedding.cache_size"),
		},
		Store: types.StoreConfig{
			Backend:    v.GetString("store.backend"),
			URL:        vectorstore.NormalizeURL(v.GetString("store.url")),
			APIKey:     v.GetString("store.api_key"),
			Collection: v.GetString("store.collection"),
			Timeout:    v.GetDuration("store.timeout"),
		},
		Index: types.IndexConfig{
			ChunkSize:    v.GetInt("index.chunk_size"),
			ChunkOverlap: v.GetInt("index.chunk_overlap"),
		},
		Retrieve: types.RetrieveConfig{
			TopK:     v.GetInt("retrieve.top_k"),
			MinScore: v.GetFloat64("retrieve.min_score"),
		},
		AI: types.AIConfig{
			Provider:    v.GetString("ai.provider"),
			BaseURL:     v.GetString("ai.base_url"),
			Model:       v.GetString("ai.model"),
			APIKey:      v.GetString("ai.api_key"),
			MaxRetries:  v.GetInt("ai.max_retries"),
			Timeout:     v.GetDuration("ai.timeout"),
			MaxTokens:   v.GetInt64("ai.max_tokens"),
			Temperature: v.GetFloat64("ai.temperature"),
			MaxSources:  v.GetInt("ai.max_sources"),
		},
		Email: types.EmailConfig{
			APIKey:     v.GetString("email.api_key"),
			BaseURL:    v.GetString("email.base_url"),
			From:       v.GetString("email.from"),
			MaxSources: v.GetInt("email.max_sources"),
			Timeout:    v.GetDuration("email.timeout"),
		},
		Server: types.ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
			MinQueryLength: v.GetInt("server.min_query_length"),
		},
		Runs: types.RunsConfig{
			DBPath: v.GetString("runs.db_path"),
		},
	}

	s.Fill(&cfg.AI.APIKey, secrets.GroqAPIKey)
	s.Fill(&cfg.Email.APIKey, secrets.ResendAPIKey)
	s.Fill(&cfg.Store.APIKey, secrets.QdrantAPIKey)
	return cfg
}

// Need names what a command requires from the configuration.
type Need int

const (
	NeedStore Need = 1 << iota
	NeedAI
	NeedEmail
)

// NeedAll is what a full research run requires.
const NeedAll = NeedStore | NeedAI | NeedEmail

// Validate checks cfg for the settings the caller needs and reports every
// problem at once.
func Validate(cfg types.Config, need Need) error {
	var errs []error
	if cfg.Embedding.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("embedding.dimensions must be positive"))
	}
	if cfg.Index.ChunkSize > 0 && cfg.Index.ChunkOverlap >= cfg.Index.ChunkSize {
		errs = append(errs, fmt.Errorf("index.chunk_overlap must be smaller than index.chunk_size"))
	}
	if need&NeedStore != 0 && cfg.Store.Backend != "memory" && cfg.Store.URL == "" {
		errs = append(errs, fmt.Errorf("store.url (or QDRANT_URL) is required"))
	}
	if need&NeedAI != 0 && cfg.AI.APIKey == "" {
		errs = append(errs, fmt.Errorf("ai.api_key is required: set GROQ_API_KEY or .secrets/%s", secrets.GroqAPIKey))
	}
	if need&NeedEmail != 0 && cfg.Email.APIKey == "" {
		errs = append(errs, fmt.Errorf("email.api_key is required: set RESEND_API_KEY or .secrets/%s", secrets.ResendAPIKey))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Redacted returns a copy of cfg with API keys masked.
func Redacted(cfg types.Config) types.Config {
	mask := func(s *string) {
		if *s != "" {
			*s = "********"
		}
	}
	mask(&cfg.AI.APIKey)
	mask(&cfg.Email.APIKey)
	mask(&cfg.Store.APIKey)
	return cfg
}

// WriteYAML writes cfg with secrets redacted.
func WriteYAML(w io.Writer, cfg types.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Redacted(cfg)); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return enc.Close()
}
