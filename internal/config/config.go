package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "dev-secret-change-in-production"

type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabasePath    string
	LegacyTasksFile string

	JWTSecret  string
	JWTExpiry  time.Duration
	BcryptCost int

	// GuestMode mounts the demo-user task routes under /api/v1/guest.
	GuestMode    bool
	DemoPassword string

	AppBaseURL string
	SMTP       SMTPConfig

	AuthRateRPS   float64
	AuthRateBurst int
}

// SMTPConfig holds outgoing mail settings. An empty Host disables delivery.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Enabled reports whether enough settings are present to send mail.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

// NewViper returns a viper instance with defaults registered and
// environment lookup enabled. Callers may bind flags onto it before
// passing it to FromViper.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("database_path", "data/taskpad.db")
	v.SetDefault("legacy_tasks_file", "data/tasks.json")
	v.SetDefault("jwt_secret", defaultJWTSecret)
	v.SetDefault("jwt_expiry", 24*time.Hour)
	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("guest_mode", false)
	v.SetDefault("demo_password", "demo123")
	v.SetDefault("app_base_url", "http://localhost:8080")
	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_user", "")
	v.SetDefault("smtp_pass", "")
	v.SetDefault("smtp_from", "")
	v.SetDefault("auth_rate_rps", 5.0)
	v.SetDefault("auth_rate_burst", 10)
	v.AutomaticEnv()
	return v
}

// Load resolves configuration from the environment.
func Load() Config {
	return FromViper(NewViper())
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	cfg := Config{
		Port:            v.GetString("port"),
		Env:             v.GetString("env"),
		LogLevel:        v.GetString("log_level"),
		DatabasePath:    v.GetString("database_path"),
		LegacyTasksFile: v.GetString("legacy_tasks_file"),
		JWTSecret:       v.GetString("jwt_secret"),
		JWTExpiry:       v.GetDuration("jwt_expiry"),
		BcryptCost:      v.GetInt("bcrypt_cost"),
		GuestMode:       v.GetBool("guest_mode"),
		DemoPassword:    v.GetString("demo_password"),
		AppBaseURL:      v.GetString("app_base_url"),
		SMTP: SMTPConfig{
			Host: v.GetString("smtp_host"),
			Port: v.GetInt("smtp_port"),
			User: v.GetString("smtp_user"),
			Pass: v.GetString("smtp_pass"),
			From: v.GetString("smtp_from"),
		},
		AuthRateRPS:   v.GetFloat64("auth_rate_rps"),
		AuthRateBurst: v.GetInt("auth_rate_burst"),
	}

	if cfg.Env == "production" && cfg.JWTSecret == defaultJWTSecret {
		slog.Error("JWT_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}
