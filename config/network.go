package config

import (
	"fmt"
	"strings"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Networks lists the selectable networks in display order.
var Networks = []NetworkType{Mainnet, Testnet}

// Label returns the display name used by the network selector.
func (n NetworkType) Label() string {
	switch n {
	case Testnet:
		return "TestNet"
	default:
		return "MainNet"
	}
}

// Valid reports whether n is a supported network.
func (n NetworkType) Valid() bool {
	return n == Mainnet || n == Testnet
}

// ParseNetwork normalizes a network name.
func ParseNetwork(s string) (NetworkType, error) {
	n := NetworkType(strings.ToLower(strings.TrimSpace(s)))
	if !n.Valid() {
		return "", fmt.Errorf("unsupported network %q", s)
	}
	return n, nil
}

// Profile holds the fixed, public facts about a network.
type Profile struct {
	Network    NetworkType
	GenesisID  string
	GatewayURL string // Public algonode endpoint, needs no token.
	FeeSink    string // Account that receives transaction fees.
	ChainID    int    // Wallet-connect chain id.
}

var profiles = map[NetworkType]Profile{
	Mainnet: {
		Network:    Mainnet,
		GenesisID:  "mainnet-v1.0",
		GatewayURL: "https://mainnet-api.algonode.cloud",
		FeeSink:    "Y76M3MSY6DKBRHBL7C3NNDXGS5IIMQVQVUAB6MP4XEMMGVF2QWNPL226CA",
		ChainID:    416001,
	},
	Testnet: {
		Network:    Testnet,
		GenesisID:  "testnet-v1.0",
		GatewayURL: "https://testnet-api.algonode.cloud",
		FeeSink:    "A7NMWS3NT3IUDMLVO26ULGXGIIOUQ3ND2TXSER6EBGRZNOBOUIQXHIBGDE",
		ChainID:    416002,
	},
}

// ProfileFor returns the profile for network, falling back to mainnet.
func ProfileFor(network NetworkType) Profile {
	if p, ok := profiles[network]; ok {
		return p
	}
	return profiles[Mainnet]
}

// DefaultExplorerHost is the explorer used for confirmation links.
const DefaultExplorerHost = "lora.algokit.io"

// ExplorerTxURL returns the explorer link for a confirmed transaction.
func ExplorerTxURL(host string, network NetworkType, txID string) string {
	if host == "" {
		host = DefaultExplorerHost
	}
	return fmt.Sprintf("https://%s/%s/transaction/%s", host, network, txID)
}
