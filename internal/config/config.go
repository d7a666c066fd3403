package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	rlog "github.com/example/reserva-bot/internal/log"
)

const EnvPrefix = "RESERVABOT"

type Config struct {
	Assistant   AssistantConfig  `mapstructure:"assistant"`
	Restaurant  RestaurantConfig `mapstructure:"restaurant"`
	Webhook     WebhookConfig    `mapstructure:"webhook"`
	HTTP        HTTPConfig       `mapstructure:"http"`
	Poll        PollConfig       `mapstructure:"poll"`
	Extract     ExtractConfig    `mapstructure:"extract"`
	Submission  SubmissionConfig `mapstructure:"submission"`
	DatabaseURL string           `mapstructure:"database_url"`
	Log         rlog.Config      `mapstructure:"log"`
}

type AssistantConfig struct {
	APIKey      string `mapstructure:"api_key"`
	ID          string `mapstructure:"id"`
	BaseURL     string `mapstructure:"base_url"`
	DisplayName string `mapstructure:"display_name"`
}

type RestaurantConfig struct {
	Name     string `mapstructure:"name"`
	Timezone string `mapstructure:"timezone"`
}

type WebhookConfig struct {
	URL string `mapstructure:"url"`
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	// Retries applies to idempotent requests only.
	Retries int `mapstructure:"retries"`
}

type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	MaxWait  time.Duration `mapstructure:"max_wait"`
}

type ExtractConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxPolls     int           `mapstructure:"max_polls"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

type SubmissionConfig struct {
	Cost string `mapstructure:"cost"`
}

// legacyEnv maps keys to the plain variable names used by existing
// deployments. RESERVABOT_* names work for every key as well.
var legacyEnv = map[string]string{
	"assistant.api_key": "OPENAI_API_KEY",
	"assistant.id":      "ASSISTANT_ID",
	"webhook.url":       "N8N_WEBHOOK_URL",
	"database_url":      "DATABASE_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("assistant.api_key", "")
	v.SetDefault("assistant.id", "")
	v.SetDefault("assistant.base_url", "https://api.openai.com/v1")
	v.SetDefault("assistant.display_name", "Andy")
	v.SetDefault("restaurant.name", "Restaurante Park")
	v.SetDefault("restaurant.timezone", "Europe/Madrid")
	v.SetDefault("webhook.url", "")
	v.SetDefault("http.timeout", 10*time.Second)
	v.SetDefault("http.retries", 2)
	v.SetDefault("poll.interval", time.Second)
	v.SetDefault("poll.max_wait", 60*time.Second)
	v.SetDefault("extract.poll_interval", time.Second)
	v.SetDefault("extract.max_polls", 15)
	v.SetDefault("extract.max_retries", 3)
	v.SetDefault("submission.cost", "1.99")
	v.SetDefault("database_url", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

// Load reads defaults, then the optional file at path (yaml, json, toml or
// a .env file), then the environment. It does not validate.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if isDotEnv(path) {
			v.SetConfigType("env")
		}
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if isDotEnv(path) {
			// .env files hold flat variable names; they rank below the
			// real environment.
			for key, legacy := range legacyEnv {
				if name := strings.ToLower(legacy); v.InConfig(name) {
					v.SetDefault(key, v.GetString(name))
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func isDotEnv(path string) bool {
	return filepath.Base(path) == ".env" || filepath.Ext(path) == ".env"
}

// Validate checks the settings a chat cannot run without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Assistant.APIKey) == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(c.Assistant.ID) == "" {
		return fmt.Errorf("ASSISTANT_ID is required")
	}
	return c.ValidateWebhook()
}

// ValidateWebhook checks only what the webhook probes need.
func (c Config) ValidateWebhook() error {
	if strings.TrimSpace(c.Webhook.URL) == "" {
		return fmt.Errorf("N8N_WEBHOOK_URL is required")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be > 0")
	}
	if c.Poll.Interval <= 0 || c.Extract.PollInterval <= 0 {
		return fmt.Errorf("poll intervals must be > 0")
	}
	if c.Extract.MaxRetries < 0 || c.HTTP.Retries < 0 {
		return fmt.Errorf("retry counts must be >= 0")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the restaurant's timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Restaurant.Timezone)
	if err != nil {
		return nil, fmt.Errorf("restaurant.timezone %q: %w", c.Restaurant.Timezone, err)
	}
	return loc, nil
}
