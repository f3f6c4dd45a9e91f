package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer     string   `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL    string   `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience   string   `mapstructure:"AUTH_AUDIENCE"`
	DefaultOrg     string   `mapstructure:"DEFAULT_ORG"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`

	// Scheduling engine knobs.
	SearchWorkers    int `mapstructure:"SCHED_SEARCH_WORKERS"`
	FallbackDays     int `mapstructure:"SCHED_FALLBACK_DAYS"`
	StoreTimeoutSecs int `mapstructure:"SCHED_STORE_TIMEOUT_SECS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DEFAULT_ORG", "default")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("SCHED_SEARCH_WORKERS", 4)
	v.SetDefault("SCHED_FALLBACK_DAYS", 14)
	v.SetDefault("SCHED_STORE_TIMEOUT_SECS", 5)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"AUTH_ISSUER", "AUTH_JWKS_URL", "AUTH_AUDIENCE", "DEFAULT_ORG",
		"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"SCHED_SEARCH_WORKERS", "SCHED_FALLBACK_DAYS", "SCHED_STORE_TIMEOUT_SECS",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active; all requests get admin access.")
		log.Println("WARNING: set ENV=production and configure AUTH_ISSUER for production.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. In non-development
// modes AUTH_ISSUER must be set so that real JWT authentication is enforced.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthIssuer == "" {
		return fmt.Errorf(
			"AUTH_ISSUER must be set when ENV is not \"development\" (current ENV=%q); "+
				"refusing to start without authentication configuration", c.Env)
	}
	if c.SearchWorkers < 1 {
		return fmt.Errorf("SCHED_SEARCH_WORKERS must be at least 1, got %d", c.SearchWorkers)
	}
	if c.FallbackDays < 1 || c.FallbackDays > 30 {
		return fmt.Errorf("SCHED_FALLBACK_DAYS must be in [1,30], got %d", c.FallbackDays)
	}
	return nil
}
