// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// DefaultContractAddress is the Counter demo contract on Polygon Mumbai.
const DefaultContractAddress = "0xA003003C47fb65291CB0B079CBd6028a7aF60Fa2"

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Contract  ContractConfig  `mapstructure:"contract"`
	Health    HealthConfig    `mapstructure:"health"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	TUIMode   bool            `mapstructure:"-"` // Set at runtime, not from config file
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds Ethereum node configuration. Both URLs are optional:
// without them the panel runs with no provider and prompts for one.
type EthereumConfig struct {
	WebSocketURL        string        `mapstructure:"websocket_url"`
	HTTPURL             string        `mapstructure:"http_url"`
	ReconnectDelay      time.Duration `mapstructure:"reconnect_delay"`
	HealthInterval      time.Duration `mapstructure:"health_interval"`
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval"`
	RPCRatePerSecond    float64       `mapstructure:"rpc_rate_per_second"`
}

// HasProvider reports whether any RPC endpoint is configured.
func (c *EthereumConfig) HasProvider() bool {
	return c.WebSocketURL != "" || c.HTTPURL != ""
}

// WalletConfig holds the local signing key settings.
type WalletConfig struct {
	PrivateKey         string        `mapstructure:"private_key"`
	KeystorePath       string        `mapstructure:"keystore_path"`
	KeystorePassphrase string        `mapstructure:"keystore_passphrase"`
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	AutoConnect        bool          `mapstructure:"auto_connect"`
}

// ContractConfig holds the Counter contract location.
type ContractConfig struct {
	Address     string `mapstructure:"address"`
	ExplorerURL string `mapstructure:"explorer_url"`
	SourceURL   string `mapstructure:"source_url"`
	FaucetURL   string `mapstructure:"faucet_url"`
}

// AddressHex returns the contract address as common.Address.
func (c *ContractConfig) AddressHex() common.Address {
	return common.HexToAddress(c.Address)
}

// ExplorerLink returns the explorer page of the contract, if configured.
func (c *ContractConfig) ExplorerLink() string {
	if c.ExplorerURL == "" {
		return ""
	}
	return c.ExplorerURL + "/address/" + c.Address
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("CDAPP")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "CDAPP_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "CDAPP_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "CDAPP_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	v.BindEnv("ethereum.websocket_url", "CDAPP_ETH_WS_URL", "ETH_WS_URL")
	v.BindEnv("ethereum.http_url", "CDAPP_ETH_HTTP_URL", "ETH_HTTP_URL")

	// Wallet
	v.BindEnv("wallet.private_key", "CDAPP_WALLET_PRIVATE_KEY", "WALLET_PRIVATE_KEY")
	v.BindEnv("wallet.keystore_path", "CDAPP_WALLET_KEYSTORE", "WALLET_KEYSTORE")
	v.BindEnv("wallet.keystore_passphrase", "CDAPP_WALLET_PASSPHRASE", "WALLET_PASSPHRASE")
	v.BindEnv("wallet.auto_connect", "CDAPP_WALLET_AUTO_CONNECT")

	// Contract
	v.BindEnv("contract.address", "CDAPP_CONTRACT_ADDRESS", "COUNTER_CONTRACT")

	// Telemetry
	v.BindEnv("telemetry.enabled", "CDAPP_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "CDAPP_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "CDAPP_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "counter-dapp")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Ethereum defaults
	v.SetDefault("ethereum.reconnect_delay", "5s")
	v.SetDefault("ethereum.health_interval", "15s")
	v.SetDefault("ethereum.receipt_poll_interval", "1s") // same tick bind.WaitMined uses
	v.SetDefault("ethereum.rpc_rate_per_second", 10)

	// Wallet defaults
	v.SetDefault("wallet.poll_interval", "1s")
	v.SetDefault("wallet.auto_connect", false)

	// Contract defaults
	v.SetDefault("contract.address", DefaultContractAddress)
	v.SetDefault("contract.explorer_url", "https://mumbai.polygonscan.com")
	v.SetDefault("contract.source_url", "https://github.com/oceans404/gasless-vc-gated-dapp/blob/main/frontend/src/demoSmartContract/Counter.sol")
	v.SetDefault("contract.faucet_url", "https://mumbaifaucet.com")

	// Health defaults
	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8081)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "counter-dapp")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !common.IsHexAddress(c.Contract.Address) {
		return fmt.Errorf("invalid contract.address: %s", c.Contract.Address)
	}
	if c.Wallet.PollInterval <= 0 {
		return fmt.Errorf("wallet.poll_interval must be positive")
	}
	if c.Ethereum.ReconnectDelay <= 0 {
		return fmt.Errorf("ethereum.reconnect_delay must be positive")
	}
	if c.Ethereum.HealthInterval <= 0 {
		return fmt.Errorf("ethereum.health_interval must be positive")
	}
	if c.Ethereum.ReceiptPollInterval <= 0 {
		return fmt.Errorf("ethereum.receipt_poll_interval must be positive")
	}
	if c.Ethereum.RPCRatePerSecond <= 0 {
		return fmt.Errorf("ethereum.rpc_rate_per_second must be positive")
	}
	if c.Wallet.PrivateKey != "" && c.Wallet.KeystorePath != "" {
		return fmt.Errorf("set only one of wallet.private_key and wallet.keystore_path")
	}
	return nil
}
