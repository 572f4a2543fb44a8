package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
owner: "424242"
ledger:
  daily_send_limit: "250"
  whitelist:
    - "0x00000000000000000000000000000000000000b2"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "424242", cfg.Owner)
	limit, err := cfg.InitialLimit()
	require.NoError(t, err)
	assert.Equal(t, int64(250), limit.Int64())

	wl, err := cfg.WhitelistAddresses()
	require.NoError(t, err)
	assert.Equal(t, []common.Address{common.HexToAddress("0xb2")}, wl)

	assert.Equal(t, "data/ledger_state.json", cfg.Ledger.StateFile)
	assert.Equal(t, "data/spendguard.db", cfg.Database.SQLitePath)
	assert.Equal(t, "0 0 9 * * *", cfg.Schedule.ReportCron)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	limit, err := cfg.InitialLimit()
	require.NoError(t, err)
	assert.Equal(t, int64(100), limit.Int64())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SPENDGUARD_OWNER", "from-env")
	t.Setenv("DAILY_SEND_LIMIT", "75")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")

	cfg, err := Load(writeConfig(t, "owner: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Owner)
	assert.Equal(t, "75", cfg.Ledger.DailySendLimit)
	assert.Equal(t, "/tmp/x.db", cfg.Database.SQLitePath)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "owner: [unclosed"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{Owner: "1"}
		c.Ledger.DailySendLimit = "100"
		return c
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing owner", func(c *Config) { c.Owner = "" }},
		{"negative limit", func(c *Config) { c.Ledger.DailySendLimit = "-1" }},
		{"non-numeric limit", func(c *Config) { c.Ledger.DailySendLimit = "ten" }},
		{"bad whitelist entry", func(c *Config) { c.Ledger.Whitelist = []string{"not-an-address"} }},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "t" }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
