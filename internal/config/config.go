package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service. Everything comes
// from environment variables, with a .env file honored in development.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	SLA          SLAConfig
	Contract     ContractConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// SLAConfig sets per-priority response and resolution targets in minutes,
// keyed by priority name. A priority missing from the map gets no SLA stamp.
type SLAConfig struct {
	ResponseMinutes   map[string]int
	ResolutionMinutes map[string]int
}

// ContractConfig tunes contract draft sessions and renewal scanning.
type ContractConfig struct {
	DraftTTLMinutes         int
	RenewalNoticeDays       int
	RenewalScanIntervalMins int
}

// Load reads configuration from the environment, applying defaults where a
// value is optional. Only malformed values for typed fields fail the load.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-contract-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		SLA: SLAConfig{
			ResponseMinutes: slaMinutes("SLA_RESPONSE", map[string]int{
				"LOW":    480,
				"MEDIUM": 240,
				"HIGH":   60,
				"URGENT": 30,
			}),
			ResolutionMinutes: slaMinutes("SLA_RESOLUTION", map[string]int{
				"LOW":    4320,
				"MEDIUM": 1440,
				"HIGH":   480,
				"URGENT": 240,
			}),
		},
		Contract: ContractConfig{
			DraftTTLMinutes:         getEnvAsInt("CONTRACT_DRAFT_TTL_MINUTES", 120),
			RenewalNoticeDays:       getEnvAsInt("CONTRACT_RENEWAL_NOTICE_DAYS", 30),
			RenewalScanIntervalMins: getEnvAsInt("CONTRACT_RENEWAL_SCAN_INTERVAL_MINUTES", 60),
		},
	}

	return cfg, nil
}

// slaMinutes builds a per-priority minute map, letting the environment
// override each default via <prefix>_<PRIORITY>_MINUTES.
func slaMinutes(prefix string, defaults map[string]int) map[string]int {
	out := make(map[string]int, len(defaults))
	for priority, def := range defaults {
		out[priority] = getEnvAsInt(prefix+"_"+priority+"_MINUTES", def)
	}
	return out
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// DraftTTL returns how long an idle contract draft session survives.
func (c ContractConfig) DraftTTL() time.Duration {
	if c.DraftTTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.DraftTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	parsed, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	parsed, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return parsed
}
