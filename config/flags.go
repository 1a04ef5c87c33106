package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	DataDir string
	Config  string

	// Web
	WebAddr      string
	WebPort      int
	SecureCookie bool

	// Gateway
	GatewayMainnet string
	GatewayTestnet string
	GatewayToken   string
	GatewayTimeout time.Duration

	// Explorer / sessions
	ExplorerHost string
	SessionTTL   time.Duration

	// History / metrics
	History        bool
	HistoryBackend string
	Metrics        bool

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetSecureCookie bool
	SetHistory      bool
	SetMetrics      bool
	SetLogJSON      bool
}

// ParseFlags parses command-line flags from os.Args and exits on error.
func ParseFlags() *Flags {
	f, err := ParseFlagsFrom(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return f
}

// ParseFlagsFrom parses the given command-line arguments.
func ParseFlagsFrom(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("minterd", flag.ContinueOnError)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	// Core
	fs.StringVar(&f.Network, "network", "", "Network preselected for new sessions (mainnet or testnet)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	// Web
	fs.StringVar(&f.WebAddr, "addr", "", "Web UI listen address")
	fs.IntVar(&f.WebPort, "port", 0, "Web UI listen port")
	fs.BoolVar(&f.SecureCookie, "secure-cookie", false, "Mark the session cookie Secure (HTTPS only)")

	// Gateway
	fs.StringVar(&f.GatewayMainnet, "gateway-mainnet", "", "Mainnet node gateway URL")
	fs.StringVar(&f.GatewayTestnet, "gateway-testnet", "", "Testnet node gateway URL")
	fs.StringVar(&f.GatewayToken, "gateway-token", "", "Node gateway API token")
	fs.DurationVar(&f.GatewayTimeout, "gateway-timeout", 0, "Node gateway request timeout")

	// Explorer / sessions
	fs.StringVar(&f.ExplorerHost, "explorer-host", "", "Block explorer host for confirmation links")
	fs.DurationVar(&f.SessionTTL, "session-ttl", 0, "Idle session lifetime")

	// History / metrics
	fs.BoolVar(&f.History, "history", true, "Record confirmed mints")
	fs.StringVar(&f.HistoryBackend, "history-backend", "", "History backend (badger or memory)")
	fs.BoolVar(&f.Metrics, "metrics", true, "Expose Prometheus metrics on /metrics")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = func() {
		printUsage()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	f.SetSecureCookie = isFlagSet(fs, "secure-cookie")
	f.SetHistory = isFlagSet(fs, "history")
	f.SetMetrics = isFlagSet(fs, "metrics")
	f.SetLogJSON = isFlagSet(fs, "log-json")

	f.Args = fs.Args()
	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			return nil, fmt.Errorf("flag %q was not parsed (positional argument stopped parsing)", arg)
		}
	}

	return f, nil
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	// Core
	if f.Network != "" {
		cfg.Network = NetworkType(strings.ToLower(f.Network))
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// Web
	if f.WebAddr != "" {
		cfg.Web.Addr = f.WebAddr
	}
	if f.WebPort != 0 {
		cfg.Web.Port = f.WebPort
	}
	if f.SetSecureCookie {
		cfg.Web.SecureCookie = f.SecureCookie
	}

	// Gateway
	if f.GatewayMainnet != "" {
		cfg.Gateway.MainnetURL = f.GatewayMainnet
	}
	if f.GatewayTestnet != "" {
		cfg.Gateway.TestnetURL = f.GatewayTestnet
	}
	if f.GatewayToken != "" {
		cfg.Gateway.Token = f.GatewayToken
	}
	if f.GatewayTimeout != 0 {
		cfg.Gateway.Timeout = f.GatewayTimeout
	}

	// Explorer / sessions
	if f.ExplorerHost != "" {
		cfg.Explorer.Host = f.ExplorerHost
	}
	if f.SessionTTL != 0 {
		cfg.Session.TTL = f.SessionTTL
	}

	// History / metrics
	if f.SetHistory {
		cfg.History.Enabled = f.History
	}
	if f.HistoryBackend != "" {
		cfg.History.Backend = HistoryBackend(strings.ToLower(f.HistoryBackend))
	}
	if f.SetMetrics {
		cfg.Metrics.Enabled = f.Metrics
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printUsage() {
	usage := `Asset Minter - create one-shot assets from the browser

Usage:
  minterd [options]
  minterd --help

Commands:
  --help, -h      Show this help message
  --version, -v   Show version information

Core Options:
  --network       Network preselected for new sessions: mainnet (default) or testnet
  --datadir       Data directory (default: ~/.asset-minter)
  --config, -c    Config file path (default: <datadir>/minter.conf)

Web Options:
  --addr            Listen address (default: 127.0.0.1)
  --port            Listen port (default: 8501)
  --secure-cookie   Mark the session cookie Secure

Gateway Options:
  --gateway-mainnet   Mainnet node gateway URL (default: algonode)
  --gateway-testnet   Testnet node gateway URL (default: algonode)
  --gateway-token     API token sent as X-Algo-API-Token
  --gateway-timeout   Request timeout (default: 10s)

Other Options:
  --explorer-host     Explorer host for confirmation links (default: lora.algokit.io)
  --session-ttl       Idle session lifetime (default: 30m)
  --history           Record confirmed mints (default: true)
  --history-backend   badger (default) or memory
  --metrics           Expose /metrics (default: true)

Logging Options:
  --log-level     Log level: debug, info, warn, error (default: info)
  --log-file      Log file path (default: stdout)
  --log-json      Output logs as JSON

Examples:
  # Serve on the default port with mainnet preselected
  minterd

  # Serve on all interfaces with testnet preselected
  minterd --network=testnet --addr=0.0.0.0
`
	fmt.Print(usage)
}

// Version is reported by --version.
const Version = "0.1.0"

// Load loads configuration with the following precedence:
// 1. Default values
// 2. Auto-create data dirs + default config (idempotent)
// 3. Config file
// 4. Command-line flags
func Load() (*Config, *Flags, error) {
	flags := ParseFlags()

	if flags.Help {
		printUsage()
		os.Exit(0)
	}
	if flags.Version {
		fmt.Println("minterd version " + Version)
		os.Exit(0)
	}

	cfg, err := LoadWithFlags(flags)
	if err != nil {
		return nil, nil, err
	}
	return cfg, flags, nil
}

// LoadWithFlags builds a Config from defaults, the config file and flags.
func LoadWithFlags(flags *Flags) (*Config, error) {
	network := Mainnet
	if strings.ToLower(flags.Network) == string(Testnet) {
		network = Testnet
	}

	cfg := Default(network)
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	if err := EnsureDataDirs(cfg); err != nil {
		return nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}

	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, fmt.Errorf("applying config file: %w", err)
	}

	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// EnsureDataDirs creates the data directory structure and a default config
// file if they don't already exist. Safe to call on every startup.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.HistoryDir(),
		cfg.KeystoreDir(),
		cfg.LogsDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}

	return nil
}
