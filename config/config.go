// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Network profiles: fixed per network (genesis id, default gateway,
//     fee sink), see network.go
//   - Server settings: runtime configuration, can vary per deployment
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds the runtime configuration of the minter.
type Config struct {
	// Core
	Network NetworkType `conf:"network"` // Network preselected for new sessions.
	DataDir string      `conf:"datadir"`

	// Web UI server
	Web WebConfig

	// Node gateway (suggested params, submission)
	Gateway GatewayConfig

	// Block explorer links
	Explorer ExplorerConfig

	// Browser sessions
	Session SessionConfig

	// Confirmed mint history
	History HistoryConfig

	// Prometheus metrics
	Metrics MetricsConfig

	// Logging
	Log LogConfig
}

// WebConfig holds HTTP server settings.
type WebConfig struct {
	Addr         string `conf:"web.addr"`
	Port         int    `conf:"web.port"`
	SecureCookie bool   `conf:"web.securecookie"` // Set the Secure flag on the session cookie (HTTPS deployments).
}

// GatewayConfig holds node gateway settings.
type GatewayConfig struct {
	MainnetURL string        `conf:"gateway.mainnet"`
	TestnetURL string        `conf:"gateway.testnet"`
	Token      string        `conf:"gateway.token"`
	Timeout    time.Duration `conf:"gateway.timeout"`
	Retries    int           `conf:"gateway.retries"` // Retries for idempotent reads only.
}

// URL returns the gateway endpoint configured for network.
func (g GatewayConfig) URL(network NetworkType) string {
	if network == Testnet {
		return g.TestnetURL
	}
	return g.MainnetURL
}

// ExplorerConfig holds block explorer settings.
type ExplorerConfig struct {
	Host string `conf:"explorer.host"`
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	TTL time.Duration `conf:"session.ttl"`
}

// HistoryBackend selects where confirmed mints are recorded.
type HistoryBackend string

const (
	HistoryBadger HistoryBackend = "badger"
	HistoryMemory HistoryBackend = "memory"
)

// HistoryConfig holds confirmed mint history settings.
type HistoryConfig struct {
	Enabled bool           `conf:"history.enabled"`
	Backend HistoryBackend `conf:"history.backend"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool `conf:"metrics.enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.asset-minter
//	macOS:   ~/Library/Application Support/AssetMinter
//	Windows: %APPDATA%\AssetMinter
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".asset-minter"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "AssetMinter")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "AssetMinter")
		}
		return filepath.Join(home, "AppData", "Roaming", "AssetMinter")
	default:
		return filepath.Join(home, ".asset-minter")
	}
}

// HistoryDir returns the history database directory.
func (c *Config) HistoryDir() string {
	return filepath.Join(c.DataDir, "history")
}

// KeystoreDir returns the directory holding encrypted signing keyfiles.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.DataDir, "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "minter.conf")
}
