package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default values applied when the corresponding environment variable is unset.
const (
	DefaultModel        = "gpt-4o"
	DefaultSystemPrompt = "You are a helpful assistant that helps users manage their tasks."
	DefaultListenAddr   = ":8080"
	DefaultMetricsAddr  = ":9090"

	DefaultTurnTimeout     = 2 * time.Minute
	DefaultModelTimeout    = 60 * time.Second
	DefaultStoreTimeout    = 10 * time.Second
	DefaultTelegramTimeout = 10 * time.Second
)

// Config holds all process-level configuration. It is loaded exactly once at
// startup and passed by reference into the server and orchestrator; nothing
// reads the environment after Load returns.
type Config struct {
	// TelegramToken is the bot API token used for outbound sendMessage calls.
	TelegramToken string

	// WebhookSecret, when non-empty, must match the
	// X-Telegram-Bot-Api-Secret-Token header of every webhook delivery.
	WebhookSecret string

	// AuthorizedUsers is the fixed allow-list of Telegram user IDs the bot
	// responds to. Everyone else is silently dropped.
	AuthorizedUsers []int64

	// OpenAIAPIKey authenticates chat completion calls.
	OpenAIAPIKey string

	// Model is the chat completion model identifier.
	Model string

	// SystemPrompt is the static system message for every turn.
	SystemPrompt string

	// TaskStoreBaseURL is the base URL of the task-storage HTTP API.
	TaskStoreBaseURL string

	// TaskStoreJWTSecret, when non-empty, enables HS256 bearer tokens on
	// storage requests. TaskStoreJWTSubject is the token subject claim.
	TaskStoreJWTSecret  string
	TaskStoreJWTSubject string

	// ListenAddr is the webhook server bind address.
	ListenAddr string

	// MetricsAddr is the dedicated metrics server bind address.
	MetricsAddr string

	// TurnTimeout bounds the processing of one inbound message end to end.
	TurnTimeout time.Duration

	// ModelTimeout, StoreTimeout and TelegramTimeout bound the individual
	// HTTP clients so one slow collaborator cannot pin a handler goroutine.
	ModelTimeout    time.Duration
	StoreTimeout    time.Duration
	TelegramTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present, matching local development setups.
// Missing required variables abort startup with an error listing the first
// missing key.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		WebhookSecret:       os.Getenv("TELEGRAM_WEBHOOK_SECRET"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		Model:               getEnvOrDefault("OPENAI_MODEL", DefaultModel),
		SystemPrompt:        getEnvOrDefault("SYSTEM_PROMPT", DefaultSystemPrompt),
		TaskStoreBaseURL:    strings.TrimRight(os.Getenv("TASKSTORE_BASE_URL"), "/"),
		TaskStoreJWTSecret:  os.Getenv("TASKSTORE_JWT_SECRET"),
		TaskStoreJWTSubject: getEnvOrDefault("TASKSTORE_JWT_SUBJECT", "taskbot"),
		ListenAddr:          getEnvOrDefault("LISTEN_ADDR", DefaultListenAddr),
		MetricsAddr:         getEnvOrDefault("METRICS_ADDR", DefaultMetricsAddr),
		TurnTimeout:         getEnvDuration("TURN_TIMEOUT", DefaultTurnTimeout),
		ModelTimeout:        getEnvDuration("OPENAI_TIMEOUT", DefaultModelTimeout),
		StoreTimeout:        getEnvDuration("TASKSTORE_TIMEOUT", DefaultStoreTimeout),
		TelegramTimeout:     getEnvDuration("TELEGRAM_TIMEOUT", DefaultTelegramTimeout),
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required in environment")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required in environment")
	}
	if cfg.TaskStoreBaseURL == "" {
		return nil, fmt.Errorf("TASKSTORE_BASE_URL is required in environment")
	}

	users, err := ParseAuthorizedUsers(os.Getenv("AUTHORIZED_USERS"))
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("AUTHORIZED_USERS is required in environment")
	}
	cfg.AuthorizedUsers = users

	return cfg, nil
}

// ParseAuthorizedUsers parses a comma-separated list of numeric Telegram user
// IDs. Blank entries are skipped; a non-numeric entry is a configuration
// error rather than a silently ignored one.
func ParseAuthorizedUsers(raw string) ([]int64, error) {
	var users []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("AUTHORIZED_USERS contains invalid user ID %q: %w", part, err)
		}
		users = append(users, id)
	}
	return users, nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
