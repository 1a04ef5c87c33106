// minter-cli builds, signs and submits asset creations from the terminal.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/Klingon-tech/asset-minter/config"
	"github.com/Klingon-tech/asset-minter/internal/asset"
	"github.com/Klingon-tech/asset-minter/internal/gateway"
	"github.com/Klingon-tech/asset-minter/internal/history"
	klog "github.com/Klingon-tech/asset-minter/internal/log"
	"github.com/Klingon-tech/asset-minter/internal/storage"
	"github.com/Klingon-tech/asset-minter/internal/wallet"
)

// confirmPoll is how often mint --wait polls the gateway.
const confirmPoll = 2 * time.Second

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	dataDir := config.DefaultDataDir()
	network := string(config.Mainnet)
	gatewayURL := ""
	token := ""

	// Scan for global flags before the subcommand.
	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--network" && len(args) > 1:
			network = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			network = args[0][len("--network="):]
			args = args[1:]
		case args[0] == "--testnet":
			network = string(config.Testnet)
			args = args[1:]
		case args[0] == "--gateway" && len(args) > 1:
			gatewayURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--gateway="):
			gatewayURL = args[0][len("--gateway="):]
			args = args[1:]
		case args[0] == "--token" && len(args) > 1:
			token = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--token="):
			token = args[0][len("--token="):]
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	net, err := config.ParseNetwork(network)
	if err != nil {
		fatal("%v", err)
	}
	cfg := loadConfig(net, dataDir, gatewayURL, token)
	klog.SetOutput(os.Stderr, "warn")

	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "status":
		cmdStatus(cfg)
	case "params":
		cmdParams(cfg)
	case "build":
		cmdBuild(cfg, cmdArgs)
	case "mint":
		cmdMint(cfg, cmdArgs)
	case "test-payment":
		cmdTestPayment(cfg, cmdArgs)
	case "key":
		cmdKey(cfg, cmdArgs)
	case "history":
		cmdHistory(cfg, cmdArgs)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: minter-cli [global flags] <command> [flags]

Global flags:
  --datadir <path>    Data directory (default: ~/.asset-minter)
  --network <net>     mainnet (default) or testnet
  --testnet           Shorthand for --network testnet
  --gateway <url>     Gateway URL for the selected network
  --token <token>     Gateway API token

Commands:
  status              Show gateway status for the selected network
  params              Show suggested transaction parameters
  build               Build an unsigned asset creation (prints details)
    --sender <addr> --name <name> --unit <unit> --total <n> --decimals <n>
  mint                Build, sign with a stored key and submit
    --key <name> --name <name> --unit <unit> --total <n> --decimals <n> [--wait]
  test-payment        Send %d microalgos to the fee sink to test a key
    --key <name> [--wait]
  key import          Import a 25-word mnemonic into the keystore
    --name <name> --mnemonic "word1 word2 ..."
  key list            List stored keys
  key export          Print the mnemonic of a stored key
    --name <name>
  history             List confirmed asset creations
    [--sender <addr>]

minter-cli opens the history database directly; stop minterd first when it
uses the badger backend.
`, asset.TestPaymentAmount)
}

// loadConfig builds the config the same way minterd does, without flags.
func loadConfig(network config.NetworkType, dataDir, gatewayURL, token string) *config.Config {
	cfg := config.Default(network)
	cfg.DataDir = dataDir

	values, err := config.LoadFile(cfg.ConfigFile())
	if err != nil {
		fatal("load config: %v", err)
	}
	if err := config.ApplyFileConfig(cfg, values); err != nil {
		fatal("apply config: %v", err)
	}
	cfg.Network = network

	if gatewayURL != "" {
		if network == config.Testnet {
			cfg.Gateway.TestnetURL = gatewayURL
		} else {
			cfg.Gateway.MainnetURL = gatewayURL
		}
	}
	if token != "" {
		cfg.Gateway.Token = token
	}
	if err := config.Validate(cfg); err != nil {
		fatal("invalid config: %v", err)
	}
	return cfg
}

func gatewayClient(cfg *config.Config) *gateway.Client {
	c, err := gateway.NewResolver(cfg.Gateway).Client(cfg.Network)
	if err != nil {
		fatal("%v", err)
	}
	return c
}

func cmdStatus(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Gateway.Timeout)
	defer cancel()

	st, err := gatewayClient(cfg).Status(ctx)
	if err != nil {
		fatal("status: %v", err)
	}
	fmt.Printf("Network:          %s\n", cfg.Network.Label())
	fmt.Printf("Gateway:          %s\n", cfg.Gateway.URL(cfg.Network))
	fmt.Printf("Last round:       %d\n", st.LastRound)
	fmt.Printf("Since last round: %s\n", time.Duration(st.TimeSinceLastRound))
	if st.CatchupTime > 0 {
		fmt.Printf("Catching up:      %s\n", time.Duration(st.CatchupTime))
	}
}

func cmdParams(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Gateway.Timeout)
	defer cancel()

	sp, err := gatewayClient(cfg).SuggestedParams(ctx)
	if err != nil {
		fatal("params: %v", err)
	}
	printJSON(sp)
}

// descriptorFlags registers the asset fields on fs.
func descriptorFlags(fs *flag.FlagSet) func() (asset.Descriptor, error) {
	d := asset.DefaultDescriptor()
	name := fs.String("name", d.AssetName, "Asset name")
	unit := fs.String("unit", d.UnitName, "Unit name")
	total := fs.String("total", fmt.Sprint(d.Total), "Total supply in base units")
	decimals := fs.String("decimals", fmt.Sprint(d.Decimals), "Decimal places")
	return func() (asset.Descriptor, error) {
		return asset.ParseDescriptor(url.Values{
			asset.FieldAssetName: {*name},
			asset.FieldUnitName:  {*unit},
			asset.FieldTotal:     {*total},
			asset.FieldDecimals:  {*decimals},
		})
	}
}

func cmdBuild(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	sender := fs.String("sender", "", "Creator address")
	descriptor := descriptorFlags(fs)
	fs.Parse(args)

	if *sender == "" {
		fatal("Usage: minter-cli build --sender <addr> [--name ... --unit ... --total ... --decimals ...]")
	}
	d, err := descriptor()
	if err != nil {
		fatal("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Gateway.Timeout)
	defer cancel()

	txn, err := asset.NewBuilder(gateway.NewResolver(cfg.Gateway)).Build(ctx, cfg.Network, *sender, d)
	if err != nil {
		fatal("build: %v", err)
	}
	printJSON(map[string]interface{}{
		"txid":    txn.ID,
		"network": txn.Network,
		"txn":     txn.DetailsMap(),
		"encoded": txn.EncodeBase64(),
	})
}

func cmdMint(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("mint", flag.ExitOnError)
	keyName := fs.String("key", "", "Keystore key name")
	wait := fs.Bool("wait", true, "Wait for confirmation")
	descriptor := descriptorFlags(fs)
	fs.Parse(args)

	if *keyName == "" {
		fatal("Usage: minter-cli mint --key <name> [--name ... --unit ... --total ... --decimals ...] [--wait]")
	}
	d, err := descriptor()
	if err != nil {
		fatal("%v", err)
	}

	signer := unlock(cfg, *keyName)
	resolver := gateway.NewResolver(cfg.Gateway)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Gateway.Timeout)
	txn, err := asset.NewBuilder(resolver).Build(ctx, cfg.Network, signer.Address(), d)
	cancel()
	if err != nil {
		fatal("build: %v", err)
	}

	receipt := signAndSubmit(cfg, signer, txn)
	if !*wait {
		return
	}
	info := awaitConfirmation(cfg, receipt.TxID, txn)
	fmt.Printf("Asset ID: %d\n", info.AssetIndex)

	if !cfg.History.Enabled {
		return
	}
	hist, closeDB := openHistory(cfg)
	defer closeDB()
	if err := hist.Put(history.Receipt{
		Network:     cfg.Network,
		TxID:        receipt.TxID,
		Sender:      signer.Address(),
		Asset:       d,
		ConfirmedAt: time.Now(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: record history: %v\n", err)
	}
}

func cmdTestPayment(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("test-payment", flag.ExitOnError)
	keyName := fs.String("key", "", "Keystore key name")
	wait := fs.Bool("wait", true, "Wait for confirmation")
	fs.Parse(args)

	if *keyName == "" {
		fatal("Usage: minter-cli test-payment --key <name> [--wait]")
	}

	signer := unlock(cfg, *keyName)
	resolver := gateway.NewResolver(cfg.Gateway)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Gateway.Timeout)
	txn, err := asset.NewBuilder(resolver).BuildTestPayment(ctx, cfg.Network, signer.Address())
	cancel()
	if err != nil {
		fatal("build: %v", err)
	}

	receipt := signAndSubmit(cfg, signer, txn)
	if *wait {
		awaitConfirmation(cfg, receipt.TxID, txn)
	}
}

func unlock(cfg *config.Config, name string) *wallet.LocalSigner {
	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	acct, err := ks.Load(name, password)
	if err != nil {
		fatal("unlock key: %v", err)
	}
	return wallet.NewLocalSigner(acct, gateway.NewResolver(cfg.Gateway))
}

func signAndSubmit(cfg *config.Config, signer *wallet.LocalSigner, txn *asset.Transaction) *wallet.Receipt {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Gateway.Timeout)
	defer cancel()

	receipt, err := signer.SignAndSubmit(ctx, cfg.Network, txn.Encode())
	if err != nil {
		fatal("submit: %v", err)
	}
	fmt.Printf("Submitted: %s\n", receipt.TxID)
	return receipt
}

func awaitConfirmation(cfg *config.Config, txID string, txn *asset.Transaction) *gateway.PendingInfo {
	// The transaction is dead once its validity window closes.
	rounds := uint64(txn.Params.LastRoundValid - txn.Params.FirstRoundValid)
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(rounds)*4*time.Second)
	defer cancel()

	info, err := gatewayClient(cfg).WaitForConfirmation(ctx, txID, confirmPoll)
	if err != nil {
		fatal("confirmation: %v", err)
	}
	fmt.Printf("Confirmed in round %d\n", info.ConfirmedRound)
	fmt.Printf("Explorer: %s\n", config.ExplorerTxURL(cfg.Explorer.Host, cfg.Network, txID))
	return info
}

func cmdKey(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fatal("Usage: minter-cli key <import|list|export> [flags]")
	}

	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}

	switch args[0] {
	case "import":
		cmdKeyImport(ks, args[1:])
	case "list":
		cmdKeyList(ks)
	case "export":
		cmdKeyExport(ks, args[1:])
	default:
		fatal("Unknown key command: %s\nUsage: minter-cli key <import|list|export> [flags]", args[0])
	}
}

func cmdKeyImport(ks *wallet.Keystore, args []string) {
	fs := flag.NewFlagSet("key import", flag.ExitOnError)
	name := fs.String("name", "", "Key name")
	phrase := fs.String("mnemonic", "", "25-word account mnemonic")
	fs.Parse(args)

	if *name == "" || *phrase == "" {
		fatal("Usage: minter-cli key import --name <name> --mnemonic \"word1 word2 ...\"")
	}

	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	addr, err := ks.Import(*name, *phrase, password, wallet.DefaultKDF())
	if err != nil {
		fatal("import: %v", err)
	}
	fmt.Printf("Key imported: %s\n", *name)
	fmt.Printf("Address: %s\n", addr)
}

func cmdKeyList(ks *wallet.Keystore) {
	keys, err := ks.List()
	if err != nil {
		fatal("list keys: %v", err)
	}
	if len(keys) == 0 {
		fmt.Println("No keys found.")
		return
	}
	for _, k := range keys {
		fmt.Printf("%-16s %s  %s\n", k.Name, k.Address, k.CreatedAt.Format(time.RFC3339))
	}
}

func cmdKeyExport(ks *wallet.Keystore, args []string) {
	fs := flag.NewFlagSet("key export", flag.ExitOnError)
	name := fs.String("name", "", "Key name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: minter-cli key export --name <name>")
	}
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	phrase, err := ks.Export(*name, password)
	if err != nil {
		fatal("export: %v", err)
	}
	fmt.Fprintln(os.Stderr, "WARNING: anyone with this mnemonic controls the account.")
	fmt.Println(phrase)
}

func cmdHistory(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	sender := fs.String("sender", "", "Only show assets created by this address")
	fs.Parse(args)

	hist, closeDB := openHistory(cfg)
	defer closeDB()

	receipts, err := hist.List(cfg.Network, *sender)
	if err != nil {
		fatal("history: %v", err)
	}
	if len(receipts) == 0 {
		fmt.Println("No confirmed assets.")
		return
	}
	for _, r := range receipts {
		fmt.Printf("%s  %-32s %-8s %s\n", r.ConfirmedAt.Format(time.RFC3339), r.Asset.AssetName, r.Asset.UnitName, r.TxID)
	}
}

func openHistory(cfg *config.Config) (*history.Store, func()) {
	dir := cfg.HistoryDir()
	if cfg.History.Backend == config.HistoryBadger {
		if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
			fatal("create data dir: %v", err)
		}
	}
	db, err := storage.Open(cfg.History.Backend, dir)
	if err != nil {
		fatal("open history: %v", err)
	}
	return history.NewStore(db), func() { db.Close() }
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("encode: %v", err)
	}
	fmt.Println(string(data))
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
