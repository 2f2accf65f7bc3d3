package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Contract.Address != DefaultContractAddress {
		t.Errorf("expected default contract, got %s", cfg.Contract.Address)
	}
	if cfg.Wallet.PollInterval != time.Second {
		t.Errorf("expected 1s poll interval, got %s", cfg.Wallet.PollInterval)
	}
	if cfg.Ethereum.HasProvider() {
		t.Error("expected no provider by default")
	}
	if cfg.Health.Port != 8081 {
		t.Errorf("expected health port 8081, got %d", cfg.Health.Port)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
ethereum:
  http_url: http://localhost:8545
wallet:
  poll_interval: 250ms
contract:
  address: "0x0000000000000000000000000000000000000001"
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CDAPP_ETH_WS_URL", "ws://localhost:8546")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Ethereum.HTTPURL != "http://localhost:8545" {
		t.Errorf("expected http url from file, got %q", cfg.Ethereum.HTTPURL)
	}
	if cfg.Ethereum.WebSocketURL != "ws://localhost:8546" {
		t.Errorf("expected ws url from env, got %q", cfg.Ethereum.WebSocketURL)
	}
	if cfg.Wallet.PollInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %s", cfg.Wallet.PollInterval)
	}
	if got := cfg.Contract.ExplorerLink(); got != "https://mumbai.polygonscan.com/address/0x0000000000000000000000000000000000000001" {
		t.Errorf("unexpected explorer link %q", got)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Ethereum: EthereumConfig{
				ReconnectDelay:      time.Second,
				HealthInterval:      time.Second,
				ReceiptPollInterval: time.Second,
				RPCRatePerSecond:    5,
			},
			Wallet:   WalletConfig{PollInterval: time.Second},
			Contract: ContractConfig{Address: DefaultContractAddress},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad address", mutate: func(c *Config) { c.Contract.Address = "0x123" }, wantErr: true},
		{name: "zero poll", mutate: func(c *Config) { c.Wallet.PollInterval = 0 }, wantErr: true},
		{name: "zero rate", mutate: func(c *Config) { c.Ethereum.RPCRatePerSecond = 0 }, wantErr: true},
		{
			name: "two key sources",
			mutate: func(c *Config) {
				c.Wallet.PrivateKey = "aa"
				c.Wallet.KeystorePath = "/tmp/key.json"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
