package config

import "time"

// DefaultMainnet returns the default configuration with mainnet preselected.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		Web: WebConfig{
			Addr: "127.0.0.1",
			Port: 8501,
		},
		Gateway: GatewayConfig{
			MainnetURL: ProfileFor(Mainnet).GatewayURL,
			TestnetURL: ProfileFor(Testnet).GatewayURL,
			Timeout:    10 * time.Second,
			Retries:    0,
		},
		Explorer: ExplorerConfig{
			Host: DefaultExplorerHost,
		},
		Session: SessionConfig{
			TTL: 30 * time.Minute,
		},
		History: HistoryConfig{
			Enabled: true,
			Backend: HistoryBadger,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default configuration with testnet preselected.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}
