package config

import (
	"fmt"
	"net/url"
)

// Validate checks runtime config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if !cfg.Network.Valid() {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.Web.Port < 0 || cfg.Web.Port > 65535 {
		return fmt.Errorf("web.port must be in range [0, 65535]")
	}

	for _, n := range Networks {
		if err := validateGatewayURL(cfg.Gateway.URL(n)); err != nil {
			return fmt.Errorf("gateway.%s: %w", n, err)
		}
	}
	if cfg.Gateway.Timeout <= 0 {
		return fmt.Errorf("gateway.timeout must be positive")
	}
	if cfg.Gateway.Retries < 0 || cfg.Gateway.Retries > 5 {
		return fmt.Errorf("gateway.retries must be in range [0, 5]")
	}

	if cfg.Explorer.Host == "" {
		cfg.Explorer.Host = DefaultExplorerHost
	}
	if cfg.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}

	if cfg.History.Backend == "" {
		cfg.History.Backend = HistoryBadger
	}
	switch cfg.History.Backend {
	case HistoryBadger, HistoryMemory:
	default:
		return fmt.Errorf("history.backend must be %q or %q", HistoryBadger, HistoryMemory)
	}

	return nil
}

func validateGatewayURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("endpoint is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint host is required")
	}
	return nil
}
