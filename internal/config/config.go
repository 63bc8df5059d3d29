package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Solana struct {
		RPCEndpoint string `yaml:"rpc_endpoint"`
		WSEndpoint  string `yaml:"ws_endpoint"`
	} `yaml:"solana"`
	Market struct {
		Oracle     string `yaml:"oracle"`
		BaseVault  string `yaml:"base_vault"`
		QuoteVault string `yaml:"quote_vault"`
	} `yaml:"market"`
	Model struct {
		ID           string `yaml:"id"`
		BlobPath     string `yaml:"blob_path"`
		EncodeStages int    `yaml:"encode_stages"`
		ScratchWidth int    `yaml:"scratch_width"`
		DeferredReLU bool   `yaml:"deferred_relu"`
	} `yaml:"model"`
	Accumulator struct {
		Version int `yaml:"version"` // 1 or 2
	} `yaml:"accumulator"`
	Schedule struct {
		CycleCron string `yaml:"cycle_cron"`
	} `yaml:"schedule"`
	Database struct {
		PostgresDSN   string `yaml:"postgres_dsn"`
		ClickhouseDSN string `yaml:"clickhouse_dsn"`
	} `yaml:"database"`
	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SOLANA_RPC_ENDPOINT"); v != "" {
		cfg.Solana.RPCEndpoint = v
	}
	if v := os.Getenv("SOLANA_WS_ENDPOINT"); v != "" {
		cfg.Solana.WSEndpoint = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Database.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Database.ClickhouseDSN = v
	}
	if v := os.Getenv("CYCLE_CRON"); v != "" {
		cfg.Schedule.CycleCron = v
	}

	// Defaults
	if cfg.Solana.RPCEndpoint == "" {
		cfg.Solana.RPCEndpoint = "https://api.mainnet-beta.solana.com"
	}
	if cfg.Model.ID == "" {
		cfg.Model.ID = "direction-v1"
	}
	if cfg.Model.EncodeStages == 0 {
		cfg.Model.EncodeStages = 2
	}
	if cfg.Model.ScratchWidth == 0 {
		cfg.Model.ScratchWidth = 1
	}
	if cfg.Accumulator.Version == 0 {
		cfg.Accumulator.Version = 2
	}
	if cfg.Schedule.CycleCron == "" {
		cfg.Schedule.CycleCron = "@every 1m"
	}
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = ":9091"
	}

	return cfg, nil
}

// Validate checks that all required fields are consistent.
func (c *Config) Validate() error {
	if c.Solana.RPCEndpoint == "" {
		return fmt.Errorf("solana.rpc_endpoint is required")
	}
	if c.Market.Oracle == "" {
		return fmt.Errorf("market.oracle is required")
	}
	if (c.Market.BaseVault == "") != (c.Market.QuoteVault == "") {
		return fmt.Errorf("market.base_vault and market.quote_vault must be set together")
	}
	if c.Model.EncodeStages < 1 {
		return fmt.Errorf("model.encode_stages must be at least 1")
	}
	if c.Model.ScratchWidth != 1 && c.Model.ScratchWidth != 2 {
		return fmt.Errorf("model.scratch_width must be 1 or 2")
	}
	if c.Model.DeferredReLU && c.Model.ScratchWidth != 2 {
		return fmt.Errorf("model.deferred_relu requires scratch_width 2")
	}
	if v := c.Accumulator.Version; v != 1 && v != 2 {
		return fmt.Errorf("accumulator.version must be 1 or 2")
	}
	return nil
}
