package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(strings.ToLower(value))
	case "datadir":
		cfg.DataDir = value

	// Web
	case "web.addr":
		cfg.Web.Addr = value
	case "web.port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Web.Port = port
	case "web.securecookie":
		cfg.Web.SecureCookie = parseBool(value)

	// Gateway
	case "gateway.mainnet":
		cfg.Gateway.MainnetURL = value
	case "gateway.testnet":
		cfg.Gateway.TestnetURL = value
	case "gateway.token":
		cfg.Gateway.Token = value
	case "gateway.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Gateway.Timeout = d
	case "gateway.retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Gateway.Retries = n

	// Explorer
	case "explorer.host":
		cfg.Explorer.Host = value

	// Sessions
	case "session.ttl":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Session.TTL = d

	// History
	case "history.enabled", "history":
		cfg.History.Enabled = parseBool(value)
	case "history.backend":
		cfg.History.Backend = HistoryBackend(strings.ToLower(value))

	// Metrics
	case "metrics.enabled", "metrics":
		cfg.Metrics.Enabled = parseBool(value)

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	content := `# Asset Minter Configuration

# Network preselected for new sessions: mainnet or testnet
network = ` + string(network) + `

# Data directory (default: ~/.asset-minter)
# datadir = ~/.asset-minter

# ============================================================================
# Web UI
# ============================================================================

web.addr = 127.0.0.1
web.port = 8501
# Set when served behind HTTPS
# web.securecookie = false

# ============================================================================
# Node Gateway
# ============================================================================

gateway.mainnet = ` + ProfileFor(Mainnet).GatewayURL + `
gateway.testnet = ` + ProfileFor(Testnet).GatewayURL + `
# gateway.token =
gateway.timeout = 10s
# Retries apply to parameter reads only, never to submissions.
gateway.retries = 0

# ============================================================================
# Explorer / Sessions
# ============================================================================

explorer.host = ` + DefaultExplorerHost + `
session.ttl = 30m

# ============================================================================
# History / Metrics
# ============================================================================

history.enabled = true
# badger or memory
history.backend = badger
metrics.enabled = true

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
