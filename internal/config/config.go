package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"api_prefix"`
	LogLevel    string `json:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins"`

	// Auth
	APIKeyHeader string   `json:"api_key_header"`
	APIKeys      []string `json:"api_keys"`
	EnableAuth   bool     `json:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	// LLM
	LLMProvider      string `json:"llm_provider"` // "anthropic" | "ollama"
	AnthropicAPIKey  string `json:"anthropic_api_key"`
	AnthropicBaseURL string `json:"anthropic_base_url"` // override for custom proxy
	AnthropicModel   string `json:"anthropic_model"`
	OllamaHost       string `json:"ollama_host"`
	OllamaModel      string `json:"ollama_model"`
	ModelTimeout     int    `json:"model_timeout"` // seconds, per model call

	// Adapters
	JSONPlaceholderBaseURL string `json:"jsonplaceholder_base_url"`
	AdapterTimeout         int    `json:"adapter_timeout"` // seconds, per fetch

	// Sessions
	PostgresDSN string `json:"postgres_dsn"` // empty = in-memory session store

	// Audit
	EnableAuditLogging bool `json:"enable_audit_logging"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:                   DefaultHost,
		Port:                   DefaultPort,
		Environment:            DefaultEnvironment,
		APIPrefix:              DefaultAPIPrefix,
		LogLevel:               DefaultLogLevel,
		CORSOrigins:            DefaultCORSOrigins,
		APIKeyHeader:           "X-API-Key",
		EnableAuth:             false,
		RateLimitPerMinute:     DefaultRateLimitPerMinute,
		LLMProvider:            DefaultLLMProvider,
		AnthropicModel:         DefaultAnthropicModel,
		OllamaHost:             DefaultOllamaHost,
		OllamaModel:            DefaultOllamaModel,
		ModelTimeout:           DefaultModelTimeout,
		JSONPlaceholderBaseURL: DefaultJSONPlaceholderBaseURL,
		AdapterTimeout:         DefaultAdapterTimeout,
		EnableAuditLogging:     true,
	}

	// Load from JSON config file if specified
	if path := getEnv("MCP_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, err
		}
	}

	// Environment overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("MCP_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("MCP_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("MCP_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("MCP_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("MCP_API_KEYS", ""); v != "" {
		cfg.APIKeys = strings.Split(v, ",")
	}
	if v := getEnv("MCP_LLM_PROVIDER", ""); v != "" {
		cfg.LLMProvider = v
	}
	if v := getEnv("ANTHROPIC_API_KEY", ""); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := getEnv("ANTHROPIC_BASE_URL", ""); v != "" {
		cfg.AnthropicBaseURL = v
	}
	if v := getEnv("ANTHROPIC_MODEL", ""); v != "" {
		cfg.AnthropicModel = v
	}
	if v := getEnv("OLLAMA_HOST", ""); v != "" {
		cfg.OllamaHost = v
	}
	if v := getEnv("OLLAMA_MODEL", ""); v != "" {
		cfg.OllamaModel = v
	}
	if v := getEnv("JSONPLACEHOLDER_BASE_URL", ""); v != "" {
		cfg.JSONPlaceholderBaseURL = v
	}
	if v := getEnv("MCP_POSTGRES_DSN", ""); v != "" {
		cfg.PostgresDSN = v
	}
	if v := getEnv("MCP_MODEL_TIMEOUT", ""); v != "" {
		if t, err := strconv.Atoi(v); err == nil {
			cfg.ModelTimeout = t
		}
	}
	if v := getEnv("MCP_ADAPTER_TIMEOUT", ""); v != "" {
		if t, err := strconv.Atoi(v); err == nil {
			cfg.AdapterTimeout = t
		}
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}
	if v := getEnv("ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = v == "true" || v == "1"
	}
	if v := getEnv("ENABLE_AUDIT_LOGGING", ""); v != "" {
		cfg.EnableAuditLogging = v == "true" || v == "1"
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
