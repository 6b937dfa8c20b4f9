package chat

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultExitWords, cfg.ExitWords)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, DefaultIdleTimeout, cfg.Serve.IdleTimeout)
	assert.Equal(t, DefaultReplyTurns, cfg.LLM.History)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gochat.yaml")
	data := `
script: scripts/ecommerce.chat
exit_words: [bye]
llm:
  provider: openai
  model: glm-4
  base_url: https://open.bigmodel.cn/api/paas/v4
  timeout: 10s
store:
  driver: postgres
  dsn: postgres://localhost/shop
serve:
  addr: ":9000"
  idle_timeout: 5m
module_prompts:
  ecommerce: "You are a shop assistant."
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "scripts/ecommerce.chat", cfg.Script)
	assert.Equal(t, []string{"bye"}, cfg.ExitWords)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "glm-4", cfg.LLM.Model)
	assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 0.7, cfg.LLM.ReplyTemperature, "unset fields keep defaults")
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, ":9000", cfg.Serve.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Serve.IdleTimeout)
	assert.Equal(t, "You are a shop assistant.", cfg.ModulePrompts["ecommerce"])
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [not, a, map"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GOCHAT_LOG_LEVEL", "debug")
	t.Setenv("GOCHAT_STORE_DSN", "/tmp/shop.db")
	t.Setenv("GOCHAT_LLM_PROVIDER", "openai")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/shop.db", cfg.Store.DSN)
	assert.Equal(t, "openai", cfg.LLM.Provider)
}

func TestLLMConfigAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "ant-key")
	t.Setenv("OPENAI_API_KEY", "oai-key")
	t.Setenv("ZHIPU_KEY", "zp-key")

	assert.Equal(t, "ant-key", LLMConfig{Provider: "anthropic"}.APIKey())
	assert.Equal(t, "oai-key", LLMConfig{Provider: "openai"}.APIKey())
	assert.Equal(t, "zp-key", LLMConfig{Provider: "openai", APIKeyEnv: "ZHIPU_KEY"}.APIKey())
}

func TestHomeOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GOCHAT_HOME", dir)

	assert.Equal(t, dir, Home())
	assert.Equal(t, filepath.Join(dir, "gochat.db"), DefaultDBPath())
	require.NoError(t, EnsureHome())
	assert.DirExists(t, ScriptsPath())
}
