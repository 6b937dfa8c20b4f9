package chat

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the gochat configuration file.
type Config struct {
	// Script is the default script path.
	Script string `yaml:"script"`

	// ExitWords end the conversation from any Listen. Compared case-insensitively.
	ExitWords []string `yaml:"exit_words"`

	// ModulePrompts overrides the reply system prompt per script module.
	ModulePrompts map[string]string `yaml:"module_prompts"`

	LLM      LLMConfig      `yaml:"llm"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
	Serve    ServeConfig    `yaml:"serve"`
	Messages MessagesConfig `yaml:"messages"`
}

// LLMConfig configures the language model backing the classifier and reply generator.
type LLMConfig struct {
	// Provider is "anthropic" or "openai" (any OpenAI compatible endpoint).
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv  string        `yaml:"api_key_env"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`

	IntentTemperature float64 `yaml:"intent_temperature"`
	ReplyTemperature  float64 `yaml:"reply_temperature"`

	// History is how many transcript entries are sent with a reply request.
	History int `yaml:"history"`
}

// APIKey resolves the configured API key from the environment.
func (c LLMConfig) APIKey() string {
	env := c.APIKeyEnv
	if env == "" {
		env = "ANTHROPIC_API_KEY"
		if c.Provider == "openai" {
			env = "OPENAI_API_KEY"
		}
	}
	return os.Getenv(env)
}

// StoreConfig selects the persistent store.
type StoreConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// ServeConfig configures the multi-session HTTP server.
type ServeConfig struct {
	Addr        string        `yaml:"addr"`
	DB          string        `yaml:"db"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	Watch       bool          `yaml:"watch"`
}

// MessagesConfig holds the fixed texts spoken by the engine itself.
type MessagesConfig struct {
	Apology       string `yaml:"apology"`
	AIUnavailable string `yaml:"ai_unavailable"`
}

// Default configuration values.
const (
	DefaultIdleTimeout = 30 * time.Minute
	DefaultLLMTimeout  = 30 * time.Second
	DefaultReplyTurns  = 6
	DefaultAddr        = ":8080"
)

// DefaultExitWords are the exit synonyms recognized by every Listen.
var DefaultExitWords = []string{"exit", "quit", "退出"}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		ExitWords: append([]string(nil), DefaultExitWords...),
		LLM: LLMConfig{
			Provider:          "anthropic",
			Timeout:           DefaultLLMTimeout,
			IntentTemperature: 0.1,
			ReplyTemperature:  0.7,
			History:           DefaultReplyTurns,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    DefaultDBPath(),
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Serve: ServeConfig{
			Addr:        DefaultAddr,
			DB:          DefaultTranscriptPath(),
			IdleTimeout: DefaultIdleTimeout,
		},
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(cfg.ExitWords) == 0 {
		cfg.ExitWords = append([]string(nil), DefaultExitWords...)
	}
	if cfg.LLM.History <= 0 {
		cfg.LLM.History = DefaultReplyTurns
	}
	return cfg, nil
}

// ApplyEnv overrides config fields from GOCHAT_* environment variables.
func (c *Config) ApplyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Log.Level, "GOCHAT_LOG_LEVEL")
	set(&c.Log.Format, "GOCHAT_LOG_FORMAT")
	set(&c.Store.Driver, "GOCHAT_STORE_DRIVER")
	set(&c.Store.DSN, "GOCHAT_STORE_DSN")
	set(&c.LLM.Provider, "GOCHAT_LLM_PROVIDER")
	set(&c.LLM.Model, "GOCHAT_LLM_MODEL")
	set(&c.LLM.BaseURL, "GOCHAT_LLM_BASE_URL")
}
