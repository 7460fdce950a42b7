package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chtemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenRouter.BaseURL)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.OpenRouter.Model)
	assert.Equal(t, 60, cfg.OpenRouter.TimeoutSecs)
	assert.Empty(t, cfg.OpenRouter.Key)
	assert.Equal(t, 60, cfg.Automation.TimeoutSecs)
	assert.Empty(t, cfg.Automation.WebhookURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 1.0, cfg.Server.AnalyzeRPS, 0.001)
	assert.Equal(t, 3, cfg.Server.AnalyzeBurst)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chtemp(t)

	yaml := `
openrouter:
  key: sk-or-test
  model: openai/gpt-4o
automation:
  webhook_url: https://n8n.example.com/webhook/alerts
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(".", "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-or-test", cfg.OpenRouter.Key)
	assert.Equal(t, "openai/gpt-4o", cfg.OpenRouter.Model)
	assert.Equal(t, "https://n8n.example.com/webhook/alerts", cfg.Automation.WebhookURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Untouched defaults survive.
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenRouter.BaseURL)
}

func TestLoadFromEnv(t *testing.T) {
	chtemp(t)
	t.Setenv("DOCINSIGHT_OPENROUTER_KEY", "sk-or-env")
	t.Setenv("DOCINSIGHT_AUTOMATION_WEBHOOK_URL", "https://n8n.example.com/hook")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-or-env", cfg.OpenRouter.Key)
	assert.Equal(t, "https://n8n.example.com/hook", cfg.Automation.WebhookURL)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.Error(t, InitLogger(LogConfig{Level: "not-a-level", Format: "json"}))
}
