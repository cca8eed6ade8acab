package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              string        `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

// GRPCConfig controls the side listener that serves the standard gRPC
// health service for orchestrator probes.
type GRPCConfig struct {
	Port             string `mapstructure:"port"`
	EnableReflection bool   `mapstructure:"enable_reflection"`
}

type HTTPConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuthConfig holds the two signing realms. The user and admin secrets must
// never be equal.
type AuthConfig struct {
	UserJWTSecret  string        `mapstructure:"user_jwt_secret"`
	AdminJWTSecret string        `mapstructure:"admin_jwt_secret"`
	UserTokenTTL   time.Duration `mapstructure:"user_token_ttl"`
	AdminTokenTTL  time.Duration `mapstructure:"admin_token_ttl"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// MaxExpiryDays caps the user expiry period at roughly a century.
const MaxExpiryDays = 36500

// SeedConfig describes the records created on first run.
type SeedConfig struct {
	AdminUsername     string `mapstructure:"admin_username"`
	AdminPassword     string `mapstructure:"admin_password"`
	DefaultExpiryDays int    `mapstructure:"default_expiry_days"`
}

type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

// DSN renders the libpq connection string shared by gorm and goose.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.Host,
		c.User,
		c.Password,
		c.Name,
		c.Port,
		c.SSLMode,
	)
}
