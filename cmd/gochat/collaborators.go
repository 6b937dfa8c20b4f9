package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/everydev1618/gochat"
	"github.com/everydev1618/gochat/dsl"
	"github.com/everydev1618/gochat/examples"
	"github.com/everydev1618/gochat/llm"
	"github.com/everydev1618/gochat/store"
)

// newLLM builds the configured backend, or nil when no API key is set.
func newLLM(cfg chat.LLMConfig, logger *slog.Logger) llm.LLM {
	key := cfg.APIKey()
	if key == "" {
		logger.Warn("no LLM API key configured, AI features disabled", "provider", cfg.Provider)
		return nil
	}

	client := &http.Client{Timeout: cfg.Timeout}
	switch strings.ToLower(cfg.Provider) {
	case "openai", "glm", "zhipu":
		return llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:     key,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			MaxRetries: cfg.MaxRetries,
			HTTPClient: client,
		})
	default:
		return llm.NewAnthropic(
			llm.WithAPIKey(key),
			llm.WithModel(cfg.Model),
			llm.WithBaseURL(cfg.BaseURL),
			llm.WithMaxRetries(cfg.MaxRetries),
			llm.WithHTTPClient(client),
		)
	}
}

// collaborators builds the classifier and replier for cfg. Both are nil
// when AI is disabled.
func collaborators(cfg *chat.Config, noAI bool, logger *slog.Logger) (chat.Classifier, chat.Replier) {
	if noAI {
		return nil, nil
	}
	backend := newLLM(cfg.LLM, logger)
	if backend == nil {
		return nil, nil
	}

	classifier := llm.NewIntentClassifier(backend)
	if cfg.LLM.IntentTemperature > 0 {
		classifier.Temperature = cfg.LLM.IntentTemperature
	}
	replier := llm.NewReplyGenerator(backend, cfg.ModulePrompts)
	if cfg.LLM.ReplyTemperature > 0 {
		replier.Temperature = cfg.LLM.ReplyTemperature
	}
	return classifier, replier
}

// openStore opens the configured store. dsn overrides the config.
func openStore(ctx context.Context, cfg chat.StoreConfig, dsn string) (store.Store, error) {
	if dsn != "" {
		cfg.DSN = dsn
	}
	if cfg.Driver == "" || cfg.Driver == store.DriverSQLite {
		if dir := filepath.Dir(cfg.DSN); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create store directory: %w", err)
			}
		}
	}
	return store.Open(ctx, cfg.Driver, cfg.DSN)
}

// loadScript parses a script file, or an embedded example when path names
// one (e.g. "medical" or "ecommerce.chat").
func loadScript(path string, logger *slog.Logger) (*dsl.Script, error) {
	p := dsl.NewParser()
	p.OnLexError = func(e *dsl.LexError) {
		logger.Warn("lex error", "script", path, "error", e)
	}

	if _, err := os.Stat(path); err == nil {
		return p.ParseFile(path)
	}

	name := path
	if !strings.HasSuffix(name, ".chat") {
		name += ".chat"
	}
	src, err := examples.Read(name)
	if err != nil {
		return nil, fmt.Errorf("script %s: not a file or built-in example (%s)", path, strings.Join(examples.Names(), ", "))
	}
	return p.Parse(src)
}

// messageOptions returns the engine options shared by run and serve.
func messageOptions(cfg *chat.Config) []dsl.EngineOption {
	return []dsl.EngineOption{
		dsl.WithExitWords(cfg.ExitWords),
		dsl.WithReplyHistory(cfg.LLM.History),
		dsl.WithApology(cfg.Messages.Apology),
		dsl.WithAIUnavailable(cfg.Messages.AIUnavailable),
	}
}
