package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Retention  RetentionConfig  `mapstructure:"retention"`
	Connectors ConnectorsConfig `mapstructure:"connectors"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds audit database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// AuditConfig holds audit sink configuration
type AuditConfig struct {
	QueueSize      int           `mapstructure:"queue_size"`
	ForwardTimeout time.Duration `mapstructure:"forward_timeout"`
}

// RetentionConfig holds retention sweep configuration
type RetentionConfig struct {
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	TerminalMaxAge time.Duration `mapstructure:"terminal_max_age"`
	PendingMaxAge  time.Duration `mapstructure:"pending_max_age"`
	AuditMaxAge    time.Duration `mapstructure:"audit_max_age"`
}

// ConnectorsConfig holds the outbound connector endpoints
type ConnectorsConfig struct {
	EmailURL   string        `mapstructure:"email_url"`
	MeetingURL string        `mapstructure:"meeting_url"`
	TeamsURL   string        `mapstructure:"teams_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("APPROVALGATE")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("database.path", "data/approvalgate.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", time.Hour)
	viper.SetDefault("database.migrations_dir", "migrations")

	viper.SetDefault("audit.queue_size", 256)
	viper.SetDefault("audit.forward_timeout", 5*time.Second)

	viper.SetDefault("retention.sweep_interval", 10*time.Minute)
	viper.SetDefault("retention.terminal_max_age", 24*time.Hour)
	viper.SetDefault("retention.pending_max_age", 24*time.Hour)
	viper.SetDefault("retention.audit_max_age", 90*24*time.Hour)

	viper.SetDefault("connectors.timeout", 15*time.Second)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "console")
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Audit.QueueSize <= 0 {
		return fmt.Errorf("audit.queue_size must be positive, got %d", c.Audit.QueueSize)
	}
	if c.Audit.ForwardTimeout <= 0 {
		return fmt.Errorf("audit.forward_timeout must be positive")
	}
	if c.Retention.SweepInterval <= 0 {
		return fmt.Errorf("retention.sweep_interval must be positive")
	}
	if c.Retention.PendingMaxAge <= 0 {
		return fmt.Errorf("retention.pending_max_age must be positive")
	}
	return nil
}
