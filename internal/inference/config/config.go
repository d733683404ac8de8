package config

import "time"

type Duration struct {
	Duration time.Duration
}

type HTTPConfig struct {
	Addr              string   `json:"addr" yaml:"addr"`
	ReadHeaderTimeout Duration `json:"read_header_timeout" yaml:"read_header_timeout"`
	IdleTimeout       Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout   Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxRequestBytes   int64    `json:"max_request_bytes" yaml:"max_request_bytes"`

	// RequestTimeout bounds a whole scene request, both model calls included.
	// Serverless hosts cap function duration, so this should stay below that cap.
	RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout"`

	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
}

type JSONSchemaConfig struct {
	// Mode controls how the scene schema is requested from upstream engines.
	// - "none": prompt only
	// - "guided_json": send guided decoding fields (vLLM-style)
	// - "prompt": append a system instruction with the schema text
	// - "auto": guided_json on the first attempt, prompt on the repair attempt
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`

	// MaxPromptBytes caps how much schema JSON can be injected into a prompt.
	MaxPromptBytes int `json:"max_prompt_bytes,omitempty" yaml:"max_prompt_bytes,omitempty"`
}

type EngineConfig struct {
	// Type is one of "mock", "oai_http", "gemini".
	Type string `json:"type" yaml:"type"`

	// BaseURL is the upstream base URL (oai_http only).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey is sent as a bearer token (oai_http) or used as the Gemini API key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	ChatCompletionsPath string `json:"chat_completions_path,omitempty" yaml:"chat_completions_path,omitempty"`

	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	JSONSchema JSONSchemaConfig `json:"json_schema,omitempty" yaml:"json_schema,omitempty"`

	// Replies scripts the mock engine; each call consumes the next entry and
	// the last one repeats.
	Replies []string `json:"replies,omitempty" yaml:"replies,omitempty"`
}

type ModelConfig struct {
	ID string `json:"id" yaml:"id"`

	// UpstreamModel overrides the model name sent to the engine. Defaults to ID.
	UpstreamModel string `json:"upstream_model,omitempty" yaml:"upstream_model,omitempty"`

	Engine EngineConfig `json:"engine" yaml:"engine"`
}

type PipelineConfig struct {
	// Model selects the entry in Models used for scene generation.
	Model           string  `json:"model" yaml:"model"`
	Temperature     float64 `json:"temperature" yaml:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens,omitempty" yaml:"max_output_tokens,omitempty"`

	// MaxHistoryMessages trims the repair conversation; the system message is always kept.
	MaxHistoryMessages int `json:"max_history_messages,omitempty" yaml:"max_history_messages,omitempty"`

	// MaxEchoBytes caps how much of the rejected response is echoed in the repair request.
	MaxEchoBytes int `json:"max_echo_bytes,omitempty" yaml:"max_echo_bytes,omitempty"`

	// MaxImageSide downscales larger uploads before they are sent upstream.
	MaxImageSide int `json:"max_image_side,omitempty" yaml:"max_image_side,omitempty"`
}

type StoreConfig struct {
	// Driver is "none", "sqlite" or "postgres".
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

type CacheConfig struct {
	// RedisAddr enables the scene cache when set.
	RedisAddr string   `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	Prefix    string   `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	TTL       Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

type Config struct {
	Env      string         `json:"env" yaml:"env"`
	HTTP     HTTPConfig     `json:"http" yaml:"http"`
	Models   []ModelConfig  `json:"models" yaml:"models"`
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline"`
	Store    StoreConfig    `json:"store" yaml:"store"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
}
