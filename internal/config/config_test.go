package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.LLM.RetryDelay)
	assert.Equal(t, 5*time.Minute, cfg.LLM.Cooldown)
	assert.Equal(t, 60*time.Second, cfg.Scraper.BrowserTimeout)
	assert.Equal(t, 5*time.Second, cfg.Scraper.PageSettleWait)
	assert.Equal(t, 30*time.Second, cfg.Scraper.SelectorTimeout)
	assert.Len(t, cfg.LLM.Models, 3)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigYAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
llm:
  provider: openai
  api_key: ${JOBSCOUT_TEST_KEY}
  models:
    - name: model-a
      description: primary
    - name: model-b
  retry_delay: 500ms
scraper:
  engine: static
  max_pages: 4
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))
	t.Setenv("JOBSCOUT_TEST_KEY", "secret")
	t.Setenv("LLM_MAX_RETRIES", "5")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, []string{"model-a", "model-b"}, cfg.ModelNames())
	assert.Equal(t, 500*time.Millisecond, cfg.LLM.RetryDelay)
	assert.Equal(t, 5, cfg.LLM.MaxRetries)
	assert.Equal(t, "static", cfg.Scraper.Engine)
	assert.Equal(t, 4, cfg.Scraper.MaxPages)
	// untouched keys keep their defaults
	assert.Equal(t, 15, cfg.LLM.RequestsPerMinute)
}

func TestLLMModelsEnvOverride(t *testing.T) {
	t.Setenv("LLM_MODELS", "a, b ,,c")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.ModelNames())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Scraper.Engine = "warp"
	cfg.LLM.MaxRetries = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scraper.engine")
	assert.Contains(t, err.Error(), "llm.max_retries")
}
