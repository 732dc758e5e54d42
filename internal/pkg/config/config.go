package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Reaper   ReaperConfig
	Throttle ThrottleConfig
	CORS     CORSConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=catalog"`
}

// RedisConfig is optional: an empty address disables the login throttle.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET, required"`
	TokenTTL   time.Duration `env:"JWT_EXPIRES_IN, default=1h"`
	BcryptCost int           `env:"BCRYPT_COST,    default=12"`
	CookieName string        `env:"JWT_COOKIE_NAME, default=jwt"`
}

type StorageConfig struct {
	Dir       string `env:"UPLOAD_DIR,        default=uploads/images"`
	URLPrefix string `env:"UPLOAD_URL_PREFIX, default=/uploads/images"`
	MaxFiles  int    `env:"UPLOAD_MAX_FILES,  default=5"`
	MaxBytes  int64  `env:"UPLOAD_MAX_BYTES,  default=5242880"`
}

type ReaperConfig struct {
	Enabled     bool          `env:"REAPER_ENABLED,      default=true"`
	Interval    time.Duration `env:"REAPER_INTERVAL,     default=1h"`
	GracePeriod time.Duration `env:"REAPER_GRACE_PERIOD, default=24h"`
}

type ThrottleConfig struct {
	MaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS, default=5"`
	Window      time.Duration `env:"LOGIN_WINDOW,       default=15m"`
}

type CORSConfig struct {
	AllowOrigins []string `env:"CORS_ALLOW_ORIGINS, default=*"`
}

// IsProduction reports whether secure-only cookies should be issued.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from the given lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if cfg.Storage.MaxFiles <= 0 {
		return nil, fmt.Errorf("UPLOAD_MAX_FILES must be positive, got %d", cfg.Storage.MaxFiles)
	}
	return &cfg, nil
}
