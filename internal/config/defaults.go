package config

import (
	"path/filepath"
	"time"

	"taskflow/internal/util"
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			DBPath:          "data/taskflow.db",
			StaticDir:       "web",
			TokenTTL:        7 * 24 * time.Hour,
			AdminSessionTTL: 12 * time.Hour,
			ShutdownTimeout: 5 * time.Second,
		},
		Client: ClientConfig{
			APIURL:         "http://localhost:8080",
			Timeout:        15 * time.Second,
			SessionBackend: BackendSQLite,
			SessionPath:    filepath.Join(Dir(), "session.db"),
			RedisAddr:      "localhost:6379",
			RedisPrefix:    "taskflow:session:",
			SessionTTL:     7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// applyEnv lets environment variables override file values.
func applyEnv(cfg *Config) {
	s := &cfg.Server
	s.Addr = util.EnvOrDefault("TASKFLOW_ADDR", s.Addr)
	s.DBPath = util.EnvOrDefault("TASKFLOW_DB_PATH", s.DBPath)
	s.DatabaseURL = util.EnvOrDefault("DATABASE_URL", s.DatabaseURL)
	s.StaticDir = util.EnvOrDefault("TASKFLOW_STATIC_DIR", s.StaticDir)
	s.SecretKey = util.EnvOrDefault("SECRET_KEY", s.SecretKey)
	s.TokenTTL = util.EnvDurationOrDefault("TASKFLOW_TOKEN_TTL", s.TokenTTL)
	s.AdminEmail = util.EnvOrDefault("TASKFLOW_ADMIN_EMAIL", s.AdminEmail)
	s.AdminPassword = util.EnvOrDefault("TASKFLOW_ADMIN_PASSWORD", s.AdminPassword)
	s.SecureCookies = util.EnvBoolOrDefault("TASKFLOW_SECURE_COOKIES", s.SecureCookies)

	c := &cfg.Client
	c.APIURL = util.EnvOrDefault("TASKFLOW_API_URL", c.APIURL)
	c.Timeout = util.EnvDurationOrDefault("TASKFLOW_TIMEOUT", c.Timeout)
	c.SessionBackend = util.EnvOrDefault("TASKFLOW_SESSION_BACKEND", c.SessionBackend)
	c.SessionPath = util.EnvOrDefault("TASKFLOW_SESSION_PATH", c.SessionPath)
	c.RedisAddr = util.EnvOrDefault("TASKFLOW_REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = util.EnvOrDefault("TASKFLOW_REDIS_PASSWORD", c.RedisPassword)

	cfg.Log.Level = util.EnvOrDefault("TASKFLOW_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = util.EnvOrDefault("TASKFLOW_LOG_FORMAT", cfg.Log.Format)
}
