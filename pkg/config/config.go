package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the tracker service configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Magnet     ChainConfig      `mapstructure:"magnet"`
	BSC        ChainConfig      `mapstructure:"bsc"`
	Bridge     BridgeConfig     `mapstructure:"bridge"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Shutdown   ShutdownConfig   `mapstructure:"shutdown"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// RedisConfig contains the optional ledger cache settings.
// An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ChainConfig contains per-chain RPC and signing settings
type ChainConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	ChainID        int64         `mapstructure:"chain_id"`
	SignerKey      string        `mapstructure:"signer_key"`
	GasLimit       uint64        `mapstructure:"gas_limit"`
	MaxGasPrice    string        `mapstructure:"max_gas_price"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// BridgeConfig contains bridge contract addresses and lifecycle settings
type BridgeConfig struct {
	BSCBridgeContract     string        `mapstructure:"bsc_bridge_contract"`
	MagnetMultisig        string        `mapstructure:"magnet_multisig"`
	ActiveChainID         int64         `mapstructure:"active_chain_id"`
	DepositFloor          string        `mapstructure:"deposit_floor"`
	DepositConfirmations  int           `mapstructure:"deposit_confirmations"`
	WithdrawConfirmations int           `mapstructure:"withdraw_confirmations"`
	WithdrawGasLimit      uint64        `mapstructure:"withdraw_gas_limit"`
	PollInterval          time.Duration `mapstructure:"poll_interval"`
	PollAttempts          int           `mapstructure:"poll_attempts"`
	ManualPollAttempts    int           `mapstructure:"manual_poll_attempts"`
	FallbackFeeRatio      string        `mapstructure:"fallback_fee_ratio"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// ShutdownConfig contains graceful shutdown settings
type ShutdownConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "bridge_tracker")

	// Redis defaults (cache disabled unless addr is set)
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttl", "5m")

	// Chain defaults
	viper.SetDefault("magnet.chain_id", 114514)
	viper.SetDefault("magnet.gas_limit", 21000)
	viper.SetDefault("magnet.request_timeout", "30s")
	viper.SetDefault("bsc.chain_id", 97)
	viper.SetDefault("bsc.gas_limit", 300000)
	viper.SetDefault("bsc.request_timeout", "30s")

	// Bridge defaults
	viper.SetDefault("bridge.active_chain_id", 114514)
	viper.SetDefault("bridge.deposit_floor", "10000")
	viper.SetDefault("bridge.deposit_confirmations", 12)
	viper.SetDefault("bridge.withdraw_confirmations", 2)
	viper.SetDefault("bridge.withdraw_gas_limit", 300000)
	viper.SetDefault("bridge.poll_interval", "3s")
	viper.SetDefault("bridge.poll_attempts", 20)
	viper.SetDefault("bridge.manual_poll_attempts", 50)
	viper.SetDefault("bridge.fallback_fee_ratio", "0.005")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_port", 9090)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")

	// Shutdown defaults
	viper.SetDefault("shutdown.timeout", "30s")
}

func validate(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Magnet.RPCURL == "" {
		return fmt.Errorf("magnet.rpc_url is required")
	}
	if config.BSC.RPCURL == "" {
		return fmt.Errorf("bsc.rpc_url is required")
	}
	if config.Bridge.BSCBridgeContract == "" {
		return fmt.Errorf("bridge.bsc_bridge_contract is required")
	}
	if config.Bridge.MagnetMultisig == "" {
		return fmt.Errorf("bridge.magnet_multisig is required")
	}
	return nil
}

// GetConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
