package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")

	cfg := Load()

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "deepseek", cfg.LLM.Provider)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "https://gen.pollinations.ai", cfg.Image.BaseURL)
	assert.Equal(t, "flux", cfg.Image.Model)
	assert.Equal(t, 4, cfg.Image.Workers)
	assert.True(t, cfg.Discord.Enabled)
	assert.False(t, cfg.App.HTTPEnabled)
	assert.Empty(t, cfg.App.JwtSecret)
	require.NoError(t, cfg.Validate())
}

func TestValidate_HTTPSurfaceRequiresJwtSecret(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("HTTP_ENABLED", "true")
	t.Setenv("JWT_SECRET", "")

	cfg := Load()
	require.True(t, cfg.App.HTTPEnabled)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.App.JwtSecret")

	cfg.App.JwtSecret = "ops-secret"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Ollama")
	t.Setenv("LLM_MODEL", "llama3")
	t.Setenv("IMAGE_WORKERS", "8")
	t.Setenv("IMAGE_TIMEOUT_SECONDS", "30")
	t.Setenv("HTTP_ENABLED", "false")
	t.Setenv("DISCORD_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 8, cfg.Image.Workers)
	assert.Equal(t, 30*time.Second, cfg.Image.Timeout)
	assert.False(t, cfg.App.HTTPEnabled)
	require.NoError(t, cfg.Validate())
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"discord token", func(c *Config) { c.Discord.Token = "" }, "Config.Discord.Token"},
		{"deepseek key", func(c *Config) { c.LLM.APIKey = "" }, "Config.LLM.APIKey"},
		{"provider", func(c *Config) { c.LLM.Provider = "gemini" }, "Config.LLM.Provider"},
		{"workers", func(c *Config) { c.Image.Workers = 0 }, "Config.Image.Workers"},
		{"nats url", func(c *Config) { c.App.NatsURL = "not a url" }, "Config.App.NatsURL"},
		{"jwt secret", func(c *Config) { c.App.HTTPEnabled = true }, "Config.App.JwtSecret"},
		{"openai model", func(c *Config) { c.LLM.Provider = "openai" }, "Config.LLM.Model"},
		{"ollama model", func(c *Config) { c.LLM.Provider = "ollama" }, "Config.LLM.Model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_OllamaNeedsNoKey(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Provider = "ollama"
	cfg.LLM.Model = "llama3"
	cfg.LLM.APIKey = ""
	assert.NoError(t, cfg.Validate())
}

func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Port:             "3000",
			Environment:      "test",
			LogFilePath:      "app.log",
			AuditLogFilePath: "audit.log",
		},
		Discord: DiscordConfig{Enabled: true, Token: "token"},
		LLM: LLMConfig{
			Provider: "deepseek",
			APIKey:   "sk-test",
			Timeout:  time.Second,
		},
		Image: ImageConfig{
			BaseURL: "https://gen.pollinations.ai",
			Model:   "flux",
			Timeout: time.Second,
			Workers: 1,
		},
	}
}
