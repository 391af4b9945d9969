// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"time"

	"github.com/spf13/viper"
)

// defaults lists every configuration key with its default value.
var defaults = map[string]any{
	"debug": false,

	"fetch.base_url":       "https://export.arxiv.org/api/query",
	"fetch.max_results":    15,
	"fetch.abstract_limit": 700,
	"fetch.timeout":        15 * time.Second,
	"fetch.user_agent":     "desk-researcher/1.0",
	"fetch.max_retries":    3,

	"embedding.backend":         "hash",
	"embedding.dimensions":      384,
	"embedding.model_path":      "",
	"embedding.vocab_path":      "",
	"embedding.runtime_library": "",
	"embedding.max_tokens":      256,
	"embedding.cache_size":      1024,

	"store.backend":    "qdrant",
	"store.url":        "http://localhost:6333",
	"store.api_key":    "",
	"store.collection": "research_docs",
	"store.timeout":    60 * time.Second,

	"index.chunk_size":    200,
	"index.chunk_overlap": 40,

	"retrieve.top_k":     10,
	"retrieve.min_score": 0.0,

	"ai.provider":    "openai",
	"ai.base_url":    "https://api.groq.com/openai/v1",
	"ai.model":       "llama-3.3-70b-versatile",
	"ai.api_key":     "",
	"ai.max_retries": 3,
	"ai.timeout":     60 * time.Second,
	"ai.max_tokens":  1200,
	"ai.temperature": 0.3,
	"ai.max_sources": 5,

	"email.api_key":     "",
	"email.base_url":    "",
	"email.from":        "Research Automator <no-reply@research-automator.com>",
	"email.max_sources": 6,
	"email.timeout":     10 * time.Second,

	"server.host":             "0.0.0.0",
	"server.port":             8000,
	"server.request_timeout":  5 * time.Minute,
	"server.min_query_length": 10,

	"runs.db_path": "data/runs.db",
}

// legacyEnv maps the unprefixed environment variables used by earlier
// deployments onto configuration keys.
var legacyEnv = map[string][]string{
	"ai.api_key":    {"GROQ_API_KEY"},
	"email.api_key": {"RESEND_API_KEY"},
	"store.api_key": {"QDRANT_API_KEY"},
	"store.url":     {"QDRANT_URL", "QDRANT_HOST"},
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}
