package config

import (
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	// Owner is the caller identity allowed to change the limit and whitelist.
	// For the Telegram front end this is the sender's user id.
	Owner  string `yaml:"owner"`
	Ledger struct {
		DailySendLimit string   `yaml:"daily_send_limit"`
		StateFile      string   `yaml:"state_file"`
		Whitelist      []string `yaml:"whitelist"`
	} `yaml:"ledger"`
	Schedule struct {
		ReportCron string `yaml:"report_cron"`
		FlushCron  string `yaml:"flush_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level       string `yaml:"level"`
		Environment string `yaml:"environment"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
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
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SPENDGUARD_OWNER"); v != "" {
		cfg.Owner = v
	}
	if v := os.Getenv("DAILY_SEND_LIMIT"); v != "" {
		cfg.Ledger.DailySendLimit = v
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		cfg.Ledger.StateFile = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Ledger.DailySendLimit == "" {
		cfg.Ledger.DailySendLimit = "100"
	}
	if cfg.Ledger.StateFile == "" {
		cfg.Ledger.StateFile = "data/ledger_state.json"
	}
	if cfg.Schedule.ReportCron == "" {
		cfg.Schedule.ReportCron = "0 0 9 * * *"
	}
	if cfg.Schedule.FlushCron == "" {
		cfg.Schedule.FlushCron = "0 */5 * * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/spendguard.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Environment == "" {
		cfg.Log.Environment = "production"
	}

	return cfg, nil
}

// InitialLimit parses the configured daily send limit.
func (c *Config) InitialLimit() (*big.Int, error) {
	v, ok := new(big.Int).SetString(c.Ledger.DailySendLimit, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("ledger.daily_send_limit must be a non-negative integer, got %q", c.Ledger.DailySendLimit)
	}
	return v, nil
}

// WhitelistAddresses parses the configured whitelist.
func (c *Config) WhitelistAddresses() ([]common.Address, error) {
	out := make([]common.Address, 0, len(c.Ledger.Whitelist))
	for _, s := range c.Ledger.Whitelist {
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("ledger.whitelist: invalid address %q", s)
		}
		out = append(out, common.HexToAddress(s))
	}
	return out, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	if _, err := c.InitialLimit(); err != nil {
		return err
	}
	if _, err := c.WhitelistAddresses(); err != nil {
		return err
	}
	return nil
}
