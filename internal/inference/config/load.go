package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const minHistoryMessages = 4

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		u, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		return d.parse(u)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be a JSON string like \"5s\" or an int nanoseconds: %w", err)
	}
	d.Duration = time.Duration(n)
	return nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar (line %d)", node.Line)
	}
	if node.Tag == "!!int" {
		n, err := strconv.ParseInt(node.Value, 10, 64)
		if err != nil {
			return err
		}
		d.Duration = time.Duration(n)
		return nil
	}
	return d.parse(node.Value)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

func (d *Duration) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dd
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: Duration{Duration: 5 * time.Second},
			IdleTimeout:       Duration{Duration: 2 * time.Minute},
			ShutdownTimeout:   Duration{Duration: 15 * time.Second},
			RequestTimeout:    Duration{Duration: 55 * time.Second},
			MaxRequestBytes:   12 << 20,
		},
		Pipeline: PipelineConfig{
			Temperature:        0.2,
			MaxHistoryMessages: 8,
			MaxEchoBytes:       16 << 10,
			MaxImageSide:       1536,
		},
		Store: StoreConfig{Driver: "none"},
		Cache: CacheConfig{Prefix: "levelsnap:scene:", TTL: Duration{Duration: 24 * time.Hour}},
	}
}

// Load reads the config file named by LS_CONFIG_PATH (or ./config/config.{json,yaml,yml})
// over the defaults, then applies env overrides.
func Load() (*Config, error) {
	cfgPath := strings.TrimSpace(os.Getenv("LS_CONFIG_PATH"))
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
				p := filepath.Join(wd, "config", name)
				if _, err := os.Stat(p); err == nil {
					cfgPath = p
					break
				}
			}
		}
	}
	return LoadFile(cfgPath)
}

// LoadFile is Load with an explicit path; an empty path means defaults only.
func LoadFile(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		default:
			if err := json.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)
	if err := normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("LOG_MODE")); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(os.Getenv("LS_HTTP_ADDR")); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("LS_MODEL")); v != "" {
		cfg.Pipeline.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("LS_STORE_DRIVER")); v != "" {
		cfg.Store.Driver = v
	}
	if v := strings.TrimSpace(os.Getenv("LS_STORE_DSN")); v != "" {
		cfg.Store.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("LS_REDIS_ADDR")); v != "" {
		cfg.Cache.RedisAddr = v
	}

	openaiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	geminiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	for i := range cfg.Models {
		e := &cfg.Models[i].Engine
		if strings.TrimSpace(e.APIKey) != "" {
			continue
		}
		switch normalizeEngineType(e.Type) {
		case "oai_http":
			e.APIKey = openaiKey
		case "gemini":
			e.APIKey = geminiKey
		}
	}
}

func normalizeEngineType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "openai_http", "oai_http":
		return "oai_http"
	case "gemini", "genai":
		return "gemini"
	default:
		return strings.ToLower(strings.TrimSpace(t))
	}
}

func normalize(cfg *Config) error {
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.MaxRequestBytes <= 0 {
		cfg.HTTP.MaxRequestBytes = 12 << 20
	}
	if cfg.HTTP.RequestTimeout.Duration < 0 {
		return errors.New("http.request_timeout must not be negative")
	}
	if len(cfg.Models) == 0 {
		cfg.Models = []ModelConfig{{ID: "mock-1", Engine: EngineConfig{Type: "mock"}}}
	}

	seen := map[string]bool{}
	for i := range cfg.Models {
		m := &cfg.Models[i]
		m.ID = strings.TrimSpace(m.ID)
		if m.ID == "" {
			return errors.New("model id is required")
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate model id %q", m.ID)
		}
		seen[m.ID] = true
		if strings.TrimSpace(m.Engine.Type) == "" {
			return fmt.Errorf("model %q missing engine.type", m.ID)
		}
		if strings.TrimSpace(m.UpstreamModel) == "" {
			m.UpstreamModel = m.ID
		}
		if err := normalizeEngine(m); err != nil {
			return err
		}
	}

	cfg.Pipeline.Model = strings.TrimSpace(cfg.Pipeline.Model)
	if cfg.Pipeline.Model == "" {
		cfg.Pipeline.Model = cfg.Models[0].ID
	}
	if !seen[cfg.Pipeline.Model] {
		return fmt.Errorf("pipeline.model %q does not name a configured model", cfg.Pipeline.Model)
	}
	if cfg.Pipeline.Temperature < 0 || cfg.Pipeline.Temperature > 2 {
		return fmt.Errorf("pipeline.temperature %v out of range [0,2]", cfg.Pipeline.Temperature)
	}
	if cfg.Pipeline.MaxHistoryMessages <= 0 {
		cfg.Pipeline.MaxHistoryMessages = 8
	}
	if cfg.Pipeline.MaxHistoryMessages < minHistoryMessages {
		cfg.Pipeline.MaxHistoryMessages = minHistoryMessages
	}
	if cfg.Pipeline.MaxEchoBytes <= 0 {
		cfg.Pipeline.MaxEchoBytes = 16 << 10
	}
	if cfg.Pipeline.MaxImageSide < 0 {
		return errors.New("pipeline.max_image_side must not be negative")
	}

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	switch cfg.Store.Driver {
	case "", "none":
		cfg.Store.Driver = "none"
	case "sqlite":
		if strings.TrimSpace(cfg.Store.DSN) == "" {
			cfg.Store.DSN = "levelsnap.db"
		}
	case "postgres":
		if strings.TrimSpace(cfg.Store.DSN) == "" {
			return errors.New("store.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("invalid store.driver=%q", cfg.Store.Driver)
	}

	cfg.Cache.RedisAddr = strings.TrimSpace(cfg.Cache.RedisAddr)
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = "levelsnap:scene:"
	}
	if cfg.Cache.TTL.Duration <= 0 {
		cfg.Cache.TTL = Duration{Duration: 24 * time.Hour}
	}
	return nil
}

func normalizeEngine(m *ModelConfig) error {
	e := &m.Engine
	e.Type = normalizeEngineType(e.Type)
	e.BaseURL = strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	e.APIKey = strings.TrimSpace(e.APIKey)
	e.ChatCompletionsPath = strings.TrimSpace(e.ChatCompletionsPath)
	if e.Timeout.Duration < 0 {
		return fmt.Errorf("model %q invalid engine.timeout", m.ID)
	}

	switch e.Type {
	case "mock":
		return nil
	case "oai_http":
		if e.BaseURL == "" {
			return fmt.Errorf("model %q (oai_http) missing engine.base_url", m.ID)
		}
		if e.ChatCompletionsPath == "" {
			e.ChatCompletionsPath = "/v1/chat/completions"
		}
	case "gemini":
		if e.APIKey == "" {
			return fmt.Errorf("model %q (gemini) missing engine.api_key (or GEMINI_API_KEY)", m.ID)
		}
	default:
		return fmt.Errorf("model %q unsupported engine.type=%q", m.ID, e.Type)
	}

	if e.Timeout.Duration == 0 {
		e.Timeout = Duration{Duration: 60 * time.Second}
	}

	e.JSONSchema.Mode = strings.ToLower(strings.TrimSpace(e.JSONSchema.Mode))
	switch e.JSONSchema.Mode {
	case "", "auto":
		e.JSONSchema.Mode = "auto"
	case "none", "guided_json", "prompt":
	default:
		return fmt.Errorf("model %q invalid engine.json_schema.mode=%q", m.ID, e.JSONSchema.Mode)
	}
	if e.JSONSchema.MaxPromptBytes < 0 {
		return fmt.Errorf("model %q invalid engine.json_schema.max_prompt_bytes", m.ID)
	}
	if e.JSONSchema.MaxPromptBytes == 0 {
		e.JSONSchema.MaxPromptBytes = 64 << 10
	}
	return nil
}
