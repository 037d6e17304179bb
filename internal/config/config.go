package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret   string
	TokenExpiry time.Duration

	// Points granted to a wallet on first access.
	StartingBalance int64

	// Crash round pacing.
	CrashTickInterval time.Duration
	CrashIntermission time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:       getEnv("ENV", "local"),
		Port:      getEnv("PORT", "8080"),
		RedisURL:  getEnv("REDIS_URL", "localhost:6379"),
		RedisPass: getEnv("REDIS_PASSWORD", ""),
		JWTSecret: getEnv("JWT_SECRET", ""),

		TokenExpiry:       24 * time.Hour,
		StartingBalance:   1000,
		CrashTickInterval: 100 * time.Millisecond,
		CrashIntermission: 5 * time.Second,
	}

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %v", err)
	}
	cfg.RedisDB = db

	if v := os.Getenv("STARTING_BALANCE"); v != "" {
		balance, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid STARTING_BALANCE: %v", err)
		}
		cfg.StartingBalance = balance
	}

	if cfg.JWTSecret == "" && cfg.Env == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-do-not-use-in-production"
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
