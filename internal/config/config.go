package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the application configuration
type Config struct {
	BotToken    string `env:"BOT_TOKEN" env-required:"true" env-description:"Telegram bot token" validate:"required"`
	AdminIDsRaw string `env:"ADMIN_IDS" env-description:"comma-separated Telegram user IDs"`
	AdminIDs    []int64

	// Storage
	DBDriver    string `env:"DB_DRIVER" env-default:"sqlite" validate:"oneof=sqlite postgres mock"`
	SQLitePath  string `env:"SQLITE_PATH" env-default:"database.sqlite"`
	DatabaseURL string `env:"DATABASE_URL" validate:"required_if=DBDriver postgres"`

	// ClickHouse analytics
	AnalyticsEnabled   bool   `env:"ANALYTICS_ENABLED" env-default:"false"`
	ClickHouseHost     string `env:"CLICKHOUSE_HOST" env-default:"localhost"`
	ClickHousePort     int    `env:"CLICKHOUSE_PORT" env-default:"9000" validate:"min=1,max=65535"`
	ClickHouseDatabase string `env:"CLICKHOUSE_DATABASE" env-default:"default"`
	ClickHouseUser     string `env:"CLICKHOUSE_USER" env-default:"default"`
	ClickHousePassword string `env:"CLICKHOUSE_PASSWORD"`
	ClickHouseUseTLS   bool   `env:"CLICKHOUSE_USE_TLS" env-default:"false"`

	// Bot mode configuration
	WebhookMode bool   `env:"WEBHOOK_MODE" env-default:"false"`
	WebhookURL  string `env:"WEBHOOK_URL" validate:"omitempty,url"`
	Port        string `env:"PORT" env-default:"8080" validate:"numeric"`

	Env            string        `env:"APP_ENV" env-default:"local" validate:"oneof=local dev prod"`
	LogChannelID   int64         `env:"LOG_CHANNEL_ID"`
	BroadcastDelay time.Duration `env:"BROADCAST_DELAY" env-default:"50ms"`
	CVOutputDir    string        `env:"CV_OUTPUT_DIR"`
}

var validate = validator.New()

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		desc, _ := cleanenv.GetDescription(cfg, nil)
		return nil, fmt.Errorf("config: %w; %s", err, desc)
	}

	ids, err := ParseIDs(cfg.AdminIDsRaw)
	if err != nil {
		return nil, err
	}
	cfg.AdminIDs = ids

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.WebhookMode && cfg.WebhookURL == "" {
		return nil, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
	}
	return cfg, nil
}

// ParseIDs parses a comma-separated list of user IDs; blank input yields no IDs
func ParseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID in ADMIN_IDS: %s", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// IsProd reports whether the app runs in production mode
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}
