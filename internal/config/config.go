package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Rate     RateConfig     `mapstructure:"rate"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig selects the engine: a non-empty URL means Postgres,
// otherwise the embedded SQLite file at Path is used.
type DatabaseConfig struct {
	URL  string `mapstructure:"url"`
	Path string `mapstructure:"path"`
}

type AdminConfig struct {
	// Bcrypt hash of the admin password. Basic auth takes precedence
	// over the static token when set.
	PasswordHash string `mapstructure:"password_hash"`
	Token        string `mapstructure:"token"`
	JWTSecret    string `mapstructure:"jwt_secret"`
	JWTExpiry    int    `mapstructure:"jwt_expiry_minutes"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	AlertTo  string `mapstructure:"alert_to"`
}

type TrackingConfig struct {
	ReturnThresholdMinutes int `mapstructure:"return_threshold_minutes"`
}

type RateConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 15*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("database.path", "happypaws.db")
	viper.SetDefault("admin.jwt_expiry_minutes", 60)
	viper.SetDefault("tracking.return_threshold_minutes", 30)
	viper.SetDefault("rate.rps", 25)
	viper.SetDefault("rate.burst", 50)

	viper.AutomaticEnv()
	_ = viper.BindEnv("database.url", "DATABASE_URL")
	_ = viper.BindEnv("admin.password_hash", "ADMIN_PASSWORD_HASH")
	_ = viper.BindEnv("admin.token", "ADMIN_TOKEN")
	_ = viper.BindEnv("admin.jwt_secret", "ADMIN_JWT_SECRET")

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; env vars and defaults cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
