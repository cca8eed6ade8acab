package server

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/elskow/gatehouse/internal/config"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

const defaultConfigPath = "./config/server"

func LoadConfig() (*config.AppConfig, error) {
	return loadConfig(defaultConfigPath)
}

func loadConfig(paths ...string) (*config.AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// A table named after APP_ENV, e.g. [production.grpc], overrides the
	// base sections. Environment variables still win over both.
	if overlay := v.GetStringMap(Environment()); len(overlay) > 0 {
		if err := v.MergeConfigMap(overlay); err != nil {
			return nil, fmt.Errorf("error merging %s overrides: %w", Environment(), err)
		}
	}

	var cfg config.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.request_timeout", time.Duration(0))

	v.SetDefault("grpc.port", "3001")
	v.SetDefault("grpc.enable_reflection", false)

	v.SetDefault("http.allowed_origins", []string{"*"})

	v.SetDefault("auth.user_jwt_secret", "")
	v.SetDefault("auth.admin_jwt_secret", "")
	v.SetDefault("auth.user_token_ttl", 24*time.Hour)
	v.SetDefault("auth.admin_token_ttl", 8*time.Hour)
	v.SetDefault("auth.bcrypt_cost", bcrypt.DefaultCost)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "gatehouse")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("seed.admin_username", "admin")
	v.SetDefault("seed.admin_password", "admin123")
	v.SetDefault("seed.default_expiry_days", 30)
}

func validateConfig(cfg *config.AppConfig) error {
	a := cfg.Auth
	if a.UserJWTSecret == "" || a.AdminJWTSecret == "" {
		return errors.New("auth.user_jwt_secret and auth.admin_jwt_secret are required")
	}
	if a.UserJWTSecret == a.AdminJWTSecret {
		return errors.New("user and admin JWT secrets must differ")
	}
	if a.UserTokenTTL <= 0 || a.AdminTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if a.BcryptCost < bcrypt.MinCost || a.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if err := validation.Validate(cfg.Seed.DefaultExpiryDays,
		validation.Required, validation.Min(1), validation.Max(config.MaxExpiryDays)); err != nil {
		return fmt.Errorf("seed.default_expiry_days: %w", err)
	}
	if cfg.Seed.AdminUsername == "" || cfg.Seed.AdminPassword == "" {
		return errors.New("seed admin credentials are required")
	}
	return nil
}

// Environment returns APP_ENV, falling back to development.
func Environment() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return EnvDevelopment
}
