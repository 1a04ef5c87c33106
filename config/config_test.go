package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_Valid(t *testing.T) {
	for _, n := range Networks {
		cfg := Default(n)
		if cfg.Network != n {
			t.Errorf("Default(%s).Network = %s", n, cfg.Network)
		}
		if err := Validate(cfg); err != nil {
			t.Errorf("Default(%s) invalid: %v", n, err)
		}
	}
}

func TestLoadFile_ParsesValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minter.conf")
	content := `# comment
network = testnet
web.port = 9000
gateway.testnet = "http://127.0.0.1:4001"
gateway.timeout = 3s
session.ttl = 5m
history.backend = memory
log.json = yes
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if values["gateway.testnet"] != "http://127.0.0.1:4001" {
		t.Errorf("quoted value = %q", values["gateway.testnet"])
	}

	cfg := DefaultMainnet()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatalf("ApplyFileConfig() error: %v", err)
	}

	if cfg.Network != Testnet {
		t.Errorf("network = %s, want testnet", cfg.Network)
	}
	if cfg.Web.Port != 9000 {
		t.Errorf("web.port = %d, want 9000", cfg.Web.Port)
	}
	if cfg.Gateway.URL(Testnet) != "http://127.0.0.1:4001" {
		t.Errorf("gateway testnet = %q", cfg.Gateway.URL(Testnet))
	}
	if cfg.Gateway.URL(Mainnet) != ProfileFor(Mainnet).GatewayURL {
		t.Errorf("gateway mainnet changed: %q", cfg.Gateway.URL(Mainnet))
	}
	if cfg.Gateway.Timeout != 3*time.Second {
		t.Errorf("gateway.timeout = %s", cfg.Gateway.Timeout)
	}
	if cfg.Session.TTL != 5*time.Minute {
		t.Errorf("session.ttl = %s", cfg.Session.TTL)
	}
	if cfg.History.Backend != HistoryMemory {
		t.Errorf("history.backend = %s", cfg.History.Backend)
	}
	if !cfg.Log.JSON {
		t.Error("log.json should be true")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "nope.conf"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("values = %v, want empty", values)
	}
}

func TestLoadFile_InvalidLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.conf")
	os.WriteFile(path, []byte("network testnet\n"), 0644)

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for line without '='")
	}
}

func TestApplyFileConfig_BadNumber(t *testing.T) {
	cfg := DefaultMainnet()
	err := ApplyFileConfig(cfg, map[string]string{"web.port": "eighty"})
	if err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}

func TestParseFlagsFrom_Overrides(t *testing.T) {
	f, err := ParseFlagsFrom([]string{
		"--network=testnet",
		"--port=8600",
		"--gateway-timeout=2s",
		"--history=false",
		"--log-json",
	})
	if err != nil {
		t.Fatalf("ParseFlagsFrom() error: %v", err)
	}

	cfg := DefaultMainnet()
	ApplyFlags(cfg, f)

	if cfg.Network != Testnet {
		t.Errorf("network = %s", cfg.Network)
	}
	if cfg.Web.Port != 8600 {
		t.Errorf("port = %d", cfg.Web.Port)
	}
	if cfg.Gateway.Timeout != 2*time.Second {
		t.Errorf("timeout = %s", cfg.Gateway.Timeout)
	}
	if cfg.History.Enabled {
		t.Error("history should be disabled by explicit flag")
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics default should survive when flag not set")
	}
	if !cfg.Log.JSON {
		t.Error("log json should be set")
	}
}

func TestParseFlagsFrom_PositionalStopsParsing(t *testing.T) {
	_, err := ParseFlagsFrom([]string{"--network=testnet", "oops", "--port=1"})
	if err == nil {
		t.Fatal("expected error for flag after positional argument")
	}
}

func TestLoadWithFlags_CreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	cfg, err := LoadWithFlags(&Flags{DataDir: dir, Network: "testnet"})
	if err != nil {
		t.Fatalf("LoadWithFlags() error: %v", err)
	}
	if cfg.Network != Testnet {
		t.Errorf("network = %s", cfg.Network)
	}
	if _, err := os.Stat(cfg.ConfigFile()); err != nil {
		t.Errorf("default config not written: %v", err)
	}
	if _, err := os.Stat(cfg.HistoryDir()); err != nil {
		t.Errorf("history dir not created: %v", err)
	}

	// The written default config must load back cleanly.
	again, err := LoadWithFlags(&Flags{DataDir: dir})
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}
	if again.Network != Testnet {
		t.Errorf("reloaded network = %s, want testnet from file", again.Network)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad network", func(c *Config) { c.Network = "devnet" }, true},
		{"bad port", func(c *Config) { c.Web.Port = 70000 }, true},
		{"empty gateway", func(c *Config) { c.Gateway.TestnetURL = "" }, true},
		{"gateway scheme", func(c *Config) { c.Gateway.MainnetURL = "ftp://node" }, true},
		{"zero timeout", func(c *Config) { c.Gateway.Timeout = 0 }, true},
		{"too many retries", func(c *Config) { c.Gateway.Retries = 9 }, true},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, true},
		{"bad backend", func(c *Config) { c.History.Backend = "sqlite" }, true},
		{"empty backend defaults", func(c *Config) { c.History.Backend = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMainnet()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExplorerTxURL(t *testing.T) {
	got := ExplorerTxURL("", Testnet, "ABC123")
	want := "https://lora.algokit.io/testnet/transaction/ABC123"
	if got != want {
		t.Errorf("ExplorerTxURL() = %q, want %q", got, want)
	}
}

func TestParseNetwork(t *testing.T) {
	if n, err := ParseNetwork(" TestNet "); err != nil || n != Testnet {
		t.Errorf("ParseNetwork(TestNet) = %q, %v", n, err)
	}
	if _, err := ParseNetwork("betanet"); err == nil {
		t.Error("expected error for betanet")
	}
}
