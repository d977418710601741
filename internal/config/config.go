package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Discord DiscordConfig
	LLM     LLMConfig
	Image   ImageConfig
}

type AppConfig struct {
	Port               string `validate:"required,numeric"`
	Environment        string `validate:"oneof=development production test"`
	LogFilePath        string `validate:"required"`
	AuditLogFilePath   string `validate:"required"`
	HTTPEnabled        bool
	CorsAllowedOrigins string
	NatsURL            string `validate:"omitempty,url"`
	JwtSecret          string `validate:"required_if=HTTPEnabled true"`
	OtelEnabled        bool
}

type DiscordConfig struct {
	Enabled bool
	Token   string `validate:"required_if=Enabled true"`
}

type LLMConfig struct {
	Provider      string        `validate:"oneof=deepseek openai ollama"`
	BaseURL       string        `validate:"omitempty,url"`
	Model         string        `validate:"required_unless=Provider deepseek"`
	APIKey        string        `validate:"required_if=Provider deepseek"`
	OllamaBaseURL string        `validate:"omitempty,url"`
	Timeout       time.Duration `validate:"gt=0"`
}

type ImageConfig struct {
	BaseURL string        `validate:"required,url"`
	Model   string        `validate:"required"`
	APIKey  string
	Timeout time.Duration `validate:"gt=0"`
	Workers int           `validate:"gt=0"`
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "logs/relay_events.log"),
			HTTPEnabled:        getEnvAsBool("HTTP_ENABLED", false),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Discord: DiscordConfig{
			Enabled: getEnvAsBool("DISCORD_ENABLED", true),
			Token:   getEnv("DISCORD_TOKEN", ""),
		},
		LLM: LLMConfig{
			Provider:      strings.ToLower(getEnv("LLM_PROVIDER", "deepseek")),
			BaseURL:       getEnv("LLM_BASE_URL", ""),
			Model:         getEnv("LLM_MODEL", ""),
			APIKey:        getEnv("DEEPSEEK_API_KEY", ""),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Timeout:       getEnvAsSeconds("LLM_TIMEOUT_SECONDS", 120),
		},
		Image: ImageConfig{
			BaseURL: getEnv("IMAGE_BASE_URL", "https://gen.pollinations.ai"),
			Model:   getEnv("IMAGE_MODEL", "flux"),
			APIKey:  getEnv("POLLINATIONS_API_KEY", ""),
			Timeout: getEnvAsSeconds("IMAGE_TIMEOUT_SECONDS", 120),
			Workers: getEnvAsInt("IMAGE_WORKERS", 4),
		},
	}
}

var validate = validator.New()

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}
