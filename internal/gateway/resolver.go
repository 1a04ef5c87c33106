package gateway

import (
	"context"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/Klingon-tech/asset-minter/config"
)

// Resolver holds one client per supported network.
type Resolver struct {
	clients map[config.NetworkType]*Client
}

// NewResolver creates clients for every network from the gateway settings.
func NewResolver(cfg config.GatewayConfig) *Resolver {
	opts := Options{Token: cfg.Token, Timeout: cfg.Timeout, Retries: cfg.Retries}
	r := &Resolver{clients: make(map[config.NetworkType]*Client, len(config.Networks))}
	for _, n := range config.Networks {
		r.clients[n] = New(n, cfg.URL(n), opts)
	}
	return r
}

// Client returns the client for network.
func (r *Resolver) Client(network config.NetworkType) (*Client, error) {
	c, ok := r.clients[network]
	if !ok {
		return nil, fmt.Errorf("no gateway for network %q", network)
	}
	return c, nil
}

// SuggestedParams fetches parameters from the gateway of network.
func (r *Resolver) SuggestedParams(ctx context.Context, network config.NetworkType) (types.SuggestedParams, error) {
	c, err := r.Client(network)
	if err != nil {
		return types.SuggestedParams{}, err
	}
	return c.SuggestedParams(ctx)
}

// SendRawTransaction submits signed bytes to the gateway of network.
func (r *Resolver) SendRawTransaction(ctx context.Context, network config.NetworkType, raw []byte) (string, error) {
	c, err := r.Client(network)
	if err != nil {
		return "", err
	}
	return c.SendRawTransaction(ctx, raw)
}
