package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()
}

type Config struct {
	// Required
	TelegramBotToken      string
	TelegramAppID         int
	TelegramAppHash       string
	OpenAIAPIKey          string
	AssemblyAIAPIKey      string
	GoogleCredentialsFile string
	EncryptionKey         string

	// Optional with defaults
	TelegramSessionPath string
	OpenAIURL           string
	OpenAIModel         string
	AssemblyAIURL       string
	BaseURL             string
	DBPath              string
	HTTPPort            int
	LogLevel            string

	MaintenanceMode bool
	AdminUserID     string
	AdminChatID     string

	ResendAPIKey string
	EmailFrom    string
	AdminEmail   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionTTL         time.Duration
	ProfileTTL         time.Duration
	UserRatePerMinute  int
	TranscriptPollWait time.Duration
}

func LoadFromEnv() *Config {
	cfg := &Config{
		// Required
		TelegramBotToken:      os.Getenv("TELCAL_TELEGRAM_BOT_TOKEN"),
		TelegramAppID:         getEnvAsIntOrDefault("TELCAL_TELEGRAM_APP_ID", 0),
		TelegramAppHash:       os.Getenv("TELCAL_TELEGRAM_APP_HASH"),
		OpenAIAPIKey:          os.Getenv("TELCAL_OPENAI_API_KEY"),
		AssemblyAIAPIKey:      os.Getenv("TELCAL_ASSEMBLYAI_API_KEY"),
		GoogleCredentialsFile: getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", "./credentials.json"),
		EncryptionKey:         os.Getenv("TELCAL_ENCRYPTION_KEY"),

		// Optional with defaults
		TelegramSessionPath: getEnvOrDefault("TELCAL_TELEGRAM_SESSION_PATH", "./telegram.session"),
		OpenAIURL:           getEnvOrDefault("TELCAL_OPENAI_URL", "https://api.openai.com/v1"),
		OpenAIModel:         getEnvOrDefault("TELCAL_OPENAI_MODEL", "gpt-4o-mini"),
		AssemblyAIURL:       getEnvOrDefault("TELCAL_ASSEMBLYAI_URL", "https://api.assemblyai.com"),
		BaseURL:             strings.TrimRight(getEnvOrDefault("TELCAL_BASE_URL", "http://localhost:8080"), "/"),
		DBPath:              getEnvOrDefault("TELCAL_DB_PATH", "./telcal.db"),
		HTTPPort:            getEnvAsIntOrDefault("TELCAL_HTTP_PORT", 8080),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),

		MaintenanceMode: getEnvAsBoolOrDefault("TELCAL_MAINTENANCE_MODE", false),
		AdminUserID:     os.Getenv("TELCAL_ADMIN_USER_ID"),
		AdminChatID:     os.Getenv("TELCAL_ADMIN_CHAT_ID"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    getEnvOrDefault("TELCAL_EMAIL_FROM", "Telcal <onboarding@resend.dev>"),
		AdminEmail:   os.Getenv("TELCAL_ADMIN_EMAIL"),

		RedisAddr:     os.Getenv("TELCAL_REDIS_ADDR"),
		RedisPassword: os.Getenv("TELCAL_REDIS_PASSWORD"),
		RedisDB:       getEnvAsIntOrDefault("TELCAL_REDIS_DB", 0),

		SessionTTL:         time.Duration(getEnvAsIntOrDefault("TELCAL_SESSION_TTL_MINUTES", 60)) * time.Minute,
		ProfileTTL:         time.Duration(getEnvAsIntOrDefault("TELCAL_PROFILE_TTL_MINUTES", 30)) * time.Minute,
		UserRatePerMinute:  getEnvAsIntOrDefault("TELCAL_USER_RATE_PER_MINUTE", 20),
		TranscriptPollWait: time.Duration(getEnvAsIntOrDefault("TELCAL_TRANSCRIPT_POLL_MS", 3000)) * time.Millisecond,
	}

	return cfg
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string
	if c.TelegramBotToken == "" {
		missing = append(missing, "TELCAL_TELEGRAM_BOT_TOKEN")
	}
	if c.TelegramAppID == 0 {
		missing = append(missing, "TELCAL_TELEGRAM_APP_ID")
	}
	if c.TelegramAppHash == "" {
		missing = append(missing, "TELCAL_TELEGRAM_APP_HASH")
	}
	if c.OpenAIAPIKey == "" {
		missing = append(missing, "TELCAL_OPENAI_API_KEY")
	}
	if c.AssemblyAIAPIKey == "" {
		missing = append(missing, "TELCAL_ASSEMBLYAI_API_KEY")
	}
	if c.EncryptionKey == "" {
		missing = append(missing, "TELCAL_ENCRYPTION_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if _, err := os.Stat(c.GoogleCredentialsFile); err != nil {
		return fmt.Errorf("google credentials file %q: %w", c.GoogleCredentialsFile, err)
	}
	if c.SessionTTL <= 0 || c.ProfileTTL <= 0 {
		return errors.New("cache TTLs must be positive")
	}
	return nil
}

// RedirectURL is where Google sends the user after consent.
func (c *Config) RedirectURL() string {
	return c.BaseURL + "/oauth/callback"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
