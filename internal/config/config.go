// Package config loads the service configuration from the environment.
//
// Variables are read with the USERAPI_ prefix, lowercased, and nested with a
// double underscore:
//
//	USERAPI_DATABASE__URI            -> database.uri
//	USERAPI_SERVER__READ_TIMEOUT     -> server.read_timeout
//	USERAPI_OBSERVABILITY__LOGGING__LEVEL -> observability.logging.level
//
// A `.env` file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "USERAPI_"

	// DriverPostgres stores users in PostgreSQL.
	DriverPostgres = "postgres"
	// DriverMemory keeps users in process memory. Meant for local runs.
	DriverMemory = "memory"

	// AuthModeJWT verifies HS256 bearer tokens signed with Auth.SecretKey.
	AuthModeJWT = "jwt"
	// AuthModeRedis resolves opaque bearer tokens against Redis.
	AuthModeRedis = "redis"
)

// Config is the root configuration object.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds the runtime environment name (local, development, production).
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the long-running HTTP server.
// Timeouts are seconds.
type ServerConfig struct {
	Port         string `koanf:"port" validate:"required"`
	ReadTimeout  int    `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout int    `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout  int    `koanf:"idle_timeout" validate:"required,min=1"`
	// BodyLimit caps request bodies, e.g. "6M".
	BodyLimit string `koanf:"body_limit" validate:"required"`
}

// DatabaseConfig describes the user store.
type DatabaseConfig struct {
	Driver string `koanf:"driver" validate:"required,oneof=postgres memory"`
	// URI is a postgres:// connection string. Required for the postgres driver.
	URI string `koanf:"uri" validate:"required_if=Driver postgres"`
	// ConnectTimeout is in seconds.
	ConnectTimeout int   `koanf:"connect_timeout" validate:"min=1"`
	MaxConns       int32 `koanf:"max_conns" validate:"min=1"`
}

// RedisConfig contains Redis connection details. Address is "host:port".
type RedisConfig struct {
	Address  string `koanf:"address"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// AuthConfig selects how bearer tokens are resolved.
type AuthConfig struct {
	Mode      string `koanf:"mode" validate:"required,oneof=jwt redis"`
	SecretKey string `koanf:"secret_key" validate:"required_if=Mode jwt"`
	Issuer    string `koanf:"issuer"`
}

// DefaultConfig returns the configuration used for every key the
// environment does not set.
func DefaultConfig() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
			BodyLimit:    "6M",
		},
		Database: DatabaseConfig{
			Driver:         DriverPostgres,
			ConnectTimeout: 5,
			MaxConns:       10,
		},
		Auth: AuthConfig{
			Mode: AuthModeJWT,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// LoadConfig reads the environment into a validated Config.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := DefaultConfig()

	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	validate := validator.New()

	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Auth.Mode == AuthModeRedis && mainConfig.Redis.Address == "" {
		return nil, fmt.Errorf("config validation failed: redis.address is required when auth.mode is %q", AuthModeRedis)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	if mainConfig.Observability.ServiceName == "" {
		mainConfig.Observability.ServiceName = DefaultServiceName
	}
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
