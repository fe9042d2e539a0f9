package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	AuthSigningKey string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer     string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string        `mapstructure:"AUTH_AUDIENCE"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	Availability AvailabilityConfig `mapstructure:",squash"`
}

// AvailabilityConfig holds the resolver defaults. Request settings override
// the grid shape per call; the rest are process-wide.
type AvailabilityConfig struct {
	WindowDays          int    `mapstructure:"AVAILABILITY_WINDOW_DAYS"`
	WorkingHoursPerDay  int    `mapstructure:"AVAILABILITY_WORKING_HOURS"`
	StartOfWorkingUTC   string `mapstructure:"AVAILABILITY_START_OF_WORKING"`
	SlotDurationMinutes int    `mapstructure:"AVAILABILITY_SLOT_MINUTES"`
	MaxExaminersPerSlot int    `mapstructure:"AVAILABILITY_MAX_EXAMINERS"`
	MatchWorkers        int    `mapstructure:"AVAILABILITY_MATCH_WORKERS"`
	FuzzySpecialtyMatch bool   `mapstructure:"AVAILABILITY_FUZZY_SPECIALTY"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"AUTH_SIGNING_KEY", "AUTH_ISSUER", "AUTH_AUDIENCE",
	"CORS_ORIGINS", "REQUEST_TIMEOUT",
	"AVAILABILITY_WINDOW_DAYS", "AVAILABILITY_WORKING_HOURS", "AVAILABILITY_START_OF_WORKING",
	"AVAILABILITY_SLOT_MINUTES", "AVAILABILITY_MAX_EXAMINERS", "AVAILABILITY_MATCH_WORKERS",
	"AVAILABILITY_FUZZY_SPECIALTY",
}

// Load reads configuration from the environment and an optional .env file in
// the working directory. It does not validate; see Validate and
// RequireDatabase.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("AVAILABILITY_WINDOW_DAYS", 14)
	v.SetDefault("AVAILABILITY_WORKING_HOURS", 8)
	v.SetDefault("AVAILABILITY_START_OF_WORKING", "09:00")
	v.SetDefault("AVAILABILITY_SLOT_MINUTES", 60)
	v.SetDefault("AVAILABILITY_MAX_EXAMINERS", 3)
	v.SetDefault("AVAILABILITY_MATCH_WORKERS", 4)
	v.SetDefault("AVAILABILITY_FUZZY_SPECIALTY", true)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to serve with. Outside
// development a signing key is required so that bearer tokens are enforced.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY must be set when ENV=%q; refusing to start without authentication", c.Env)
	}
	if c.IsProduction() && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes in production, got %d", len(c.AuthSigningKey))
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}

	a := c.Availability
	switch {
	case a.WindowDays < 1 || a.WindowDays > 30:
		return fmt.Errorf("AVAILABILITY_WINDOW_DAYS must be between 1 and 30, got %d", a.WindowDays)
	case a.WorkingHoursPerDay < 1 || a.WorkingHoursPerDay > 24:
		return fmt.Errorf("AVAILABILITY_WORKING_HOURS must be between 1 and 24, got %d", a.WorkingHoursPerDay)
	case a.SlotDurationMinutes < 1:
		return fmt.Errorf("AVAILABILITY_SLOT_MINUTES must be positive, got %d", a.SlotDurationMinutes)
	case a.MaxExaminersPerSlot < 1 || a.MaxExaminersPerSlot > 3:
		return fmt.Errorf("AVAILABILITY_MAX_EXAMINERS must be between 1 and 3, got %d", a.MaxExaminersPerSlot)
	case a.MatchWorkers < 0:
		return fmt.Errorf("AVAILABILITY_MATCH_WORKERS must not be negative, got %d", a.MatchWorkers)
	case strings.TrimSpace(a.StartOfWorkingUTC) == "":
		return fmt.Errorf("AVAILABILITY_START_OF_WORKING is required")
	}
	return nil
}

// RequireDatabase reports an error when no DATABASE_URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}
