package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "ASSISTANT_ID", "N8N_WEBHOOK_URL", "DATABASE_URL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.openai.com/v1", cfg.Assistant.BaseURL)
	assert.Equal(t, "Andy", cfg.Assistant.DisplayName)
	assert.Equal(t, "Restaurante Park", cfg.Restaurant.Name)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 2, cfg.HTTP.Retries)
	assert.Equal(t, time.Second, cfg.Poll.Interval)
	assert.Equal(t, 60*time.Second, cfg.Poll.MaxWait)
	assert.Equal(t, 15, cfg.Extract.MaxPolls)
	assert.Equal(t, 3, cfg.Extract.MaxRetries)
	assert.Equal(t, "1.99", cfg.Submission.Cost)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.EqualError(t, cfg.Validate(), "OPENAI_API_KEY is required")
}

func TestLoad_LegacyAndPrefixedEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-legacy")
	t.Setenv("ASSISTANT_ID", "asst_1")
	t.Setenv("N8N_WEBHOOK_URL", "http://n8n.local/webhook/reservas")
	t.Setenv("RESERVABOT_POLL_MAX_WAIT", "90s")
	t.Setenv("RESERVABOT_RESTAURANT_NAME", "Casa Pepe")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-legacy", cfg.Assistant.APIKey)
	assert.Equal(t, 90*time.Second, cfg.Poll.MaxWait)
	assert.Equal(t, "Casa Pepe", cfg.Restaurant.Name)
	require.NoError(t, cfg.Validate())

	t.Setenv("RESERVABOT_ASSISTANT_API_KEY", "sk-prefixed")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-prefixed", cfg.Assistant.APIKey)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "reservabot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
assistant:
  api_key: sk-file
  id: asst_file
webhook:
  url: http://localhost:5678/webhook/reservas
restaurant:
  timezone: America/Mexico_City
extract:
  max_retries: 1
log:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "asst_file", cfg.Assistant.ID)
	assert.Equal(t, 1, cfg.Extract.MaxRetries)
	assert.Equal(t, "json", cfg.Log.Format)
	require.NoError(t, cfg.Validate())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Mexico_City", loc.String())
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OPENAI_API_KEY=sk-dotenv\nASSISTANT_ID=asst_env\nN8N_WEBHOOK_URL=http://n8n/webhook\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-dotenv", cfg.Assistant.APIKey)
	assert.Equal(t, "http://n8n/webhook", cfg.Webhook.URL)

	t.Setenv("OPENAI_API_KEY", "sk-env-wins")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-env-wins", cfg.Assistant.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base, err := Load("")
	require.NoError(t, err)
	base.Assistant.APIKey = "k"
	base.Assistant.ID = "a"
	base.Webhook.URL = "http://n8n"
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"no assistant id", func(c *Config) { c.Assistant.ID = " " }, "ASSISTANT_ID is required"},
		{"no webhook", func(c *Config) { c.Webhook.URL = "" }, "N8N_WEBHOOK_URL is required"},
		{"zero timeout", func(c *Config) { c.HTTP.Timeout = 0 }, "http.timeout must be > 0"},
		{"negative retries", func(c *Config) { c.Extract.MaxRetries = -1 }, "retry counts must be >= 0"},
		{"bad timezone", func(c *Config) { c.Restaurant.Timezone = "Mars/Olympus" }, `restaurant.timezone "Mars/Olympus"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
