package config

import "time"

// Config is the full TaskFlow configuration shared by the server and the CLI.
type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Client ClientConfig `yaml:"client" mapstructure:"client"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures `taskflow serve`.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
	// DBPath is the SQLite file used when DatabaseURL is empty.
	DBPath      string        `yaml:"db_path" mapstructure:"db_path"`
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
	StaticDir   string        `yaml:"static_dir" mapstructure:"static_dir"`
	SecretKey   string        `yaml:"secret_key" mapstructure:"secret_key"`
	TokenTTL    time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`

	AdminEmail      string        `yaml:"admin_email" mapstructure:"admin_email"`
	AdminPassword   string        `yaml:"admin_password" mapstructure:"admin_password"`
	AdminSessionTTL time.Duration `yaml:"admin_session_ttl" mapstructure:"admin_session_ttl"`
	SecureCookies   bool          `yaml:"secure_cookies" mapstructure:"secure_cookies"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// Session backends of the CLI.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ClientConfig configures the CLI commands that talk to a server.
type ClientConfig struct {
	APIURL  string        `yaml:"api_url" mapstructure:"api_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// SessionBackend is one of sqlite, redis or memory.
	SessionBackend string `yaml:"session_backend" mapstructure:"session_backend"`
	SessionPath    string `yaml:"session_path" mapstructure:"session_path"`

	RedisAddr     string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string        `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int           `yaml:"redis_db" mapstructure:"redis_db"`
	RedisPrefix   string        `yaml:"redis_prefix" mapstructure:"redis_prefix"`
	SessionTTL    time.Duration `yaml:"session_ttl" mapstructure:"session_ttl"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}
