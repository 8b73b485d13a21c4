package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string   `mapstructure:"PORT"`
	Env           string   `mapstructure:"ENV"`
	DataDir       string   `mapstructure:"DATA_DIR"`
	StorageDriver string   `mapstructure:"STORAGE_DRIVER"`
	DatabaseURL   string   `mapstructure:"DATABASE_URL"`
	DBMaxConns    int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns    int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins   []string `mapstructure:"CORS_ORIGINS"`

	// Draft autosave debounce, in milliseconds.
	DraftDebounceMS int `mapstructure:"DRAFT_DEBOUNCE_MS"`

	// Session profile for the logged-in doctor and active clinic. The core
	// consumes this read-only; login/clinic switching happen elsewhere.
	DoctorName          string `mapstructure:"DOCTOR_NAME"`
	DoctorQualification string `mapstructure:"DOCTOR_QUALIFICATION"`
	DoctorPhone         string `mapstructure:"DOCTOR_PHONE"`
	ClinicName          string `mapstructure:"CLINIC_NAME"`
	ClinicAddress       string `mapstructure:"CLINIC_ADDRESS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8600")
	v.SetDefault("ENV", "development")
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("STORAGE_DRIVER", "file")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DRAFT_DEBOUNCE_MS", 1000)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATA_DIR")
	v.BindEnv("STORAGE_DRIVER")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("DRAFT_DEBOUNCE_MS")
	v.BindEnv("DOCTOR_NAME")
	v.BindEnv("DOCTOR_QUALIFICATION")
	v.BindEnv("DOCTOR_PHONE")
	v.BindEnv("CLINIC_NAME")
	v.BindEnv("CLINIC_ADDRESS")

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

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// DraftDebounce returns the autosave debounce interval.
func (c *Config) DraftDebounce() time.Duration {
	return time.Duration(c.DraftDebounceMS) * time.Millisecond
}

// Validate checks that the configuration is safe to run. The file driver
// needs a data directory; the postgres driver needs a connection string.
// DATA_DIR is required either way because the draft and doctor-info slots
// stay file-backed in every driver.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "file":
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required when STORAGE_DRIVER is \"file\"")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER is \"postgres\"")
		}
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the draft and doctor-info slots")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be \"file\" or \"postgres\", got %q", c.StorageDriver)
	}
	if c.DraftDebounceMS <= 0 {
		return fmt.Errorf("DRAFT_DEBOUNCE_MS must be positive, got %d", c.DraftDebounceMS)
	}
	return nil
}
