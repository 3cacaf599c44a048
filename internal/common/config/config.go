// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Engine        EngineConfig       `mapstructure:"engine"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // seconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // seconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // seconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Engine Config ---
type EngineConfig struct {
	ConflictRetries     int `mapstructure:"conflict_retries"`
	SweepIntervalSec    int `mapstructure:"sweep_interval"`    // seconds
	CacheTTLSec         int `mapstructure:"cache_ttl"`         // seconds
	PropagatorBufferLen int `mapstructure:"propagator_buffer"` // events per subscriber
}

// --- Notification Config ---
type NotificationConfig struct {
	QueueSize       int    `mapstructure:"queue_size"`
	Workers         int    `mapstructure:"workers"`
	Retries         int    `mapstructure:"retries"`
	RetryDelayMs    int    `mapstructure:"retry_delay_ms"`
	EmailEnabled    bool   `mapstructure:"email_enabled"`
	SMSEnabled      bool   `mapstructure:"sms_enabled"`
	FromEmail       string `mapstructure:"from_email"`
	AWSRegion       string `mapstructure:"aws_region"`
	DeliveryTimeout int    `mapstructure:"delivery_timeout"` // seconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
