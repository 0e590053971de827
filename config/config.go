package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultApplicationID     = "1124137839601406013"
	DefaultPollInterval      = 2 * time.Second
	DefaultPollAttempts      = 5
	DefaultRequestsPerSecond = 5.0
	DefaultStoreDriver       = "duckdb"
	DefaultAuditLogPath      = "data/audit.jsonl"
	DefaultCommandsFile      = "json/command.json"
	DefaultLogLevel          = "INFO"
)

type Config struct {
	DiscordBotToken      string
	DiscordApplicationID string

	OpenAIAPIKey            string
	OpenAIBaseURL           string
	OpenAIRequestsPerSecond float64
	AssistantID             string
	PollInterval            time.Duration
	PollAttempts            int
	RecreateMissingThreads  bool

	StoreDriver string
	StoreDSN    string

	AuditLogPath string
	CommandsFile string
	HealthAddr   string
	LogLevel     string
}

// LoadConfig reads the environment, after merging in envFile when it exists.
// Required variables are not checked here; see Validate and friends.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s の読み込みに失敗しました: %w", envFile, err)
		}
	}

	cfg := &Config{
		DiscordBotToken:      os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordApplicationID: envOr("DISCORD_APPLICATION_ID", DefaultApplicationID),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:        os.Getenv("OPENAI_BASE_URL"),
		AssistantID:          os.Getenv("ASSISTANT_ID"),
		StoreDriver:          envOr("STORE_DRIVER", DefaultStoreDriver),
		StoreDSN:             os.Getenv("STORE_DSN"),
		AuditLogPath:         DefaultAuditLogPath,
		CommandsFile:         envOr("COMMANDS_FILE", DefaultCommandsFile),
		HealthAddr:           os.Getenv("HEALTH_ADDR"),
		LogLevel:             strings.ToUpper(envOr("LOG_LEVEL", DefaultLogLevel)),
	}
	// an explicitly empty AUDIT_LOG_PATH disables the audit log
	if v, ok := os.LookupEnv("AUDIT_LOG_PATH"); ok {
		cfg.AuditLogPath = v
	}

	var errs []error
	var err error
	if cfg.PollInterval, err = durationEnv("POLL_INTERVAL", DefaultPollInterval); err != nil {
		errs = append(errs, err)
	}
	if cfg.PollAttempts, err = intEnv("POLL_ATTEMPTS", DefaultPollAttempts); err != nil {
		errs = append(errs, err)
	}
	if cfg.OpenAIRequestsPerSecond, err = floatEnv("OPENAI_REQUESTS_PER_SECOND", DefaultRequestsPerSecond); err != nil {
		errs = append(errs, err)
	}
	if cfg.RecreateMissingThreads, err = boolEnv("RECREATE_MISSING_THREADS", true); err != nil {
		errs = append(errs, err)
	}
	if cfg.PollAttempts < 1 {
		errs = append(errs, fmt.Errorf("POLL_ATTEMPTS must be at least 1, got %d", cfg.PollAttempts))
	}
	if cfg.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL must not be negative, got %s", cfg.PollInterval))
	}
	if cfg.OpenAIRequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("OPENAI_REQUESTS_PER_SECOND must not be negative, got %v", cfg.OpenAIRequestsPerSecond))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks everything the bot needs to run.
func (c *Config) Validate() error {
	return c.require("DISCORD_BOT_TOKEN", "OPENAI_API_KEY", "ASSISTANT_ID")
}

// ValidateDiscord checks the variables needed to talk to Discord only.
func (c *Config) ValidateDiscord() error {
	return c.require("DISCORD_BOT_TOKEN")
}

// ValidateAssistant checks the variables needed to talk to the assistant API only.
func (c *Config) ValidateAssistant() error {
	return c.require("OPENAI_API_KEY", "ASSISTANT_ID")
}

func (c *Config) require(names ...string) error {
	values := map[string]string{
		"DISCORD_BOT_TOKEN": c.DiscordBotToken,
		"OPENAI_API_KEY":    c.OpenAIAPIKey,
		"ASSISTANT_ID":      c.AssistantID,
	}
	missingVars := []string{}
	for _, name := range names {
		if values[name] == "" {
			missingVars = append(missingVars, name)
		}
	}
	if len(missingVars) > 0 {
		return errors.New("以下の環境変数が設定されていません: " + strings.Join(missingVars, ", "))
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
