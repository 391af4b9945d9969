// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries bounds retries on rate limiting and transient failures.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// FetchConfig holds settings for the paper search stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the arXiv query endpoint.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// MaxResults is the number of papers requested per topic (default 15).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// AbstractLimit truncates abstracts to this many characters (default 700).
	AbstractLimit int `json:"abstract_limit" yaml:"abstract_limit"`
}

// EmbeddingConfig selects and tunes the embedding backend.
type EmbeddingConfig struct {
	// Backend is "hash" (built in) or "onnx" (requires cgo and onnxruntime).
	Backend string `json:"backend" yaml:"backend"`

	// Dimensions is the vector size; all-MiniLM-L6-v2 produces 384.
	Dimensions int `json:"dimensions" yaml:"dimensions"`

	// ModelPath and VocabPath locate the ONNX model and its WordPiece vocabulary.
	ModelPath string `json:"model_path,omitempty" yaml:"model_path,omitempty"`
	VocabPath string `json:"vocab_path,omitempty" yaml:"vocab_path,omitempty"`

	// RuntimeLibrary is the onnxruntime shared library path (empty uses the system default).
	RuntimeLibrary string `json:"runtime_library,omitempty" yaml:"runtime_library,omitempty"`

	// MaxTokens bounds the tokenized sequence length for the ONNX backend.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// CacheSize is the LRU embedding cache capacity (0 disables caching).
	CacheSize int `json:"cache_size" yaml:"cache_size"`
}

// StoreConfig holds vector store settings.
type StoreConfig struct {
	// Backend is "qdrant" or "memory".
	Backend string `json:"backend" yaml:"backend"`

	// URL is the Qdrant REST endpoint (e.g. "http://localhost:6333").
	URL string `json:"url" yaml:"url"`

	// APIKey authenticates against Qdrant Cloud.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Collection is the collection name (default "research_docs").
	Collection string `json:"collection" yaml:"collection"`

	// Timeout is the per-request timeout for store calls.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// IndexConfig controls how paper text is split into snippets.
type IndexConfig struct {
	// ChunkSize is the snippet length in words (0 means one snippet per paper).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// ChunkOverlap is the number of words shared between consecutive snippets.
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`
}

// RetrieveConfig holds similarity search settings.
type RetrieveConfig struct {
	// TopK is the default number of passages returned (default 10).
	TopK int `json:"top_k" yaml:"top_k"`

	// MinScore drops passages scoring below this value (0 keeps all).
	MinScore float64 `json:"min_score" yaml:"min_score"`
}

// AIConfig holds settings for the hosted completion API.
type AIConfig struct {
	// Provider is the fantasy provider name ("openai" for OpenAI-compatible APIs such as Groq).
	Provider string `json:"provider" yaml:"provider"`

	// BaseURL is the API base (default "https://api.groq.com/openai/v1").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the model identifier (default "llama-3.3-70b-versatile").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the completion API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout bounds each completion attempt (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxTokens and Temperature tune generation. A temperature of 0 is
	// deterministic; negative values select the default of 0.3.
	MaxTokens   int64   `json:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxSources caps how many retrieved papers go into the prompt (default 5).
	MaxSources int `json:"max_sources" yaml:"max_sources"`
}

// EmailConfig holds settings for report delivery.
type EmailConfig struct {
	// APIKey is the Resend API key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the Resend API endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// From is the sender address.
	From string `json:"from" yaml:"from"`

	// MaxSources caps the sources listed in the email (default 6).
	MaxSources int `json:"max_sources" yaml:"max_sources"`

	// Timeout bounds the delivery request (default 10s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`

	// RequestTimeout bounds synchronous research requests.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`

	// MinQueryLength rejects shorter research questions (default 10).
	MinQueryLength int `json:"min_query_length" yaml:"min_query_length"`
}

// RunsConfig locates the run ledger database.
type RunsConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// Config groups all stage configurations for the pipeline.
type Config struct {
	Debug     bool            `json:"debug" yaml:"debug"`
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Index     IndexConfig     `json:"index" yaml:"index"`
	Retrieve  RetrieveConfig  `json:"retrieve" yaml:"retrieve"`
	AI        AIConfig        `json:"ai" yaml:"ai"`
	Email     EmailConfig     `json:"email" yaml:"email"`
	Server    ServerConfig    `json:"server" yaml:"server"`
	Runs      RunsConfig      `json:"runs" yaml:"runs"`
}
