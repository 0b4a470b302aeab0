package config

import (
	"fmt"
	"time"

	"github.com/aescanero/u64feed/pkg/wsclient"
	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the feed client
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// WebSocket client configuration
	WebSocket WebSocketConfig

	// Ops surfaces, disabled when the port is 0
	Ops OpsConfig

	// Redis configuration, memory adapters are used when Addr is empty
	Redis RedisConfig

	// Session records
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Timeouts
	Timeouts TimeoutConfig
}

// WebSocketConfig holds the endpoint and client behaviour
type WebSocketConfig struct {
	URL              string        `env:"WS_URL" envDefault:"ws://localhost:8080/random-u64"`
	Greeting         string        `env:"WS_GREETING" envDefault:"something"`
	PingInterval     time.Duration `env:"WS_PING_INTERVAL" envDefault:"10s"`
	HandshakeTimeout time.Duration `env:"WS_HANDSHAKE_TIMEOUT" envDefault:"45s"`
	WriteTimeout     time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"10s"`
	ExitOnClose      bool          `env:"WS_EXIT_ON_CLOSE" envDefault:"false"`
}

// OpsConfig holds the health and metrics endpoints
type OpsConfig struct {
	HTTPPort int `env:"OPS_HTTP_PORT" envDefault:"0"`
	GRPCPort int `env:"OPS_GRPC_PORT" envDefault:"0"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`

	// Stream topic for received frames
	FrameTopic string `env:"REDIS_FRAME_TOPIC" envDefault:"random-u64"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := wsclient.ParseEndpoint(c.WebSocket.URL); err != nil {
		return err
	}

	if c.WebSocket.PingInterval < 0 {
		return fmt.Errorf("ping interval must not be negative")
	}
	if c.WebSocket.HandshakeTimeout < 0 {
		return fmt.Errorf("handshake timeout must not be negative")
	}
	if c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}

	// Validate ops ports, 0 disables
	if c.Ops.HTTPPort < 0 || c.Ops.HTTPPort > 65535 {
		return fmt.Errorf("invalid ops HTTP port: %d", c.Ops.HTTPPort)
	}
	if c.Ops.GRPCPort < 0 || c.Ops.GRPCPort > 65535 {
		return fmt.Errorf("invalid ops gRPC port: %d", c.Ops.GRPCPort)
	}
	if c.Ops.HTTPPort != 0 && c.Ops.HTTPPort == c.Ops.GRPCPort {
		return fmt.Errorf("ops HTTP and gRPC ports must differ: %d", c.Ops.HTTPPort)
	}

	if c.Redis.Addr != "" && c.Redis.FrameTopic == "" {
		return fmt.Errorf("redis frame topic is required when redis is enabled")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// RedisEnabled reports whether the Redis adapters should be used
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

// GetHTTPAddr returns the ops HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.Ops.HTTPPort)
}

// GetGRPCAddr returns the ops gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.Ops.GRPCPort)
}
