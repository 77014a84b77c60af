package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type AppConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DbConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
}

type JWTConfig struct {
	Secret      string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	JWTIssuer   string
	JWTAudience string
}

type Config struct {
	AppConfig *AppConfig
	DbConfig  *DbConfig
	JWTConfig *JWTConfig
}

// Load reads configuration from the environment. Callers load any dotenv
// file beforehand; this function never touches the filesystem.
func Load() (*Config, error) {
	appConfig := &AppConfig{Port: getenv("APP_PORT", "8080")}

	var err error
	if appConfig.ReadTimeout, err = duration("APP_READ_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if appConfig.WriteTimeout, err = duration("APP_WRITE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if appConfig.IdleTimeout, err = duration("APP_IDLE_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}

	dbConfig := &DbConfig{DSN: os.Getenv("POSTGRES_DSN")}
	if dbConfig.MaxOpenConns, err = integer("DB_MAX_OPEN_CONNS", 10); err != nil {
		return nil, err
	}
	if dbConfig.MaxIdleConns, err = integer("DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, err
	}
	if dbConfig.MaxConnLifetime, err = duration("DB_CONN_MAX_LIFETIME", 30*time.Minute); err != nil {
		return nil, err
	}

	jwtConfig := &JWTConfig{
		Secret:      os.Getenv("JWT_SECRET"),
		JWTIssuer:   getenv("JWT_ISSUER", "auth-service"),
		JWTAudience: getenv("JWT_AUDIENCE", "classroom"),
	}
	if jwtConfig.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	if jwtConfig.AccessTTL, err = duration("JWT_ACCESS_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if jwtConfig.RefreshTTL, err = duration("JWT_REFRESH_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}

	return &Config{
		AppConfig: appConfig,
		DbConfig:  dbConfig,
		JWTConfig: jwtConfig,
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func integer(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
