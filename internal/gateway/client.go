// Package gateway provides an HTTP client for Algorand node gateways.
package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/Klingon-tech/asset-minter/config"
	klog "github.com/Klingon-tech/asset-minter/internal/log"
	"github.com/Klingon-tech/asset-minter/internal/metrics"
)

// TokenHeader carries the gateway API token.
const TokenHeader = "X-Algo-API-Token"

// validityWindow is the number of rounds a transaction stays valid after the
// round it was built in.
const validityWindow = 1000

// ErrUnavailable is returned when the gateway cannot be reached or answers
// with something that is not a usable response.
var ErrUnavailable = errors.New("gateway unavailable")

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway error %d: %s", e.Status, e.Message)
}

// Unwrap reports server-side failures as ErrUnavailable. Client errors
// (a rejected transaction, an unknown id) are returned as they are.
func (e *APIError) Unwrap() error {
	if e.Status >= 500 {
		return ErrUnavailable
	}
	return nil
}

// Client talks to one node gateway.
type Client struct {
	network config.NetworkType
	reads   *resty.Client
	writes  *resty.Client // never retried
	logger  zerolog.Logger
}

// Options configures a Client.
type Options struct {
	Token   string
	Timeout time.Duration
	Retries int
}

// New creates a client for the gateway at endpoint.
func New(network config.NetworkType, endpoint string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		network: network,
		reads:   newResty(endpoint, opts).SetRetryCount(opts.Retries),
		writes:  newResty(endpoint, opts),
		logger:  klog.Gateway.With().Str("network", string(network)).Logger(),
	}
}

func newResty(endpoint string, opts Options) *resty.Client {
	r := resty.New().
		SetHostURL(endpoint).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")
	if opts.Token != "" {
		r.SetHeader(TokenHeader, opts.Token)
	}
	return r
}

// Network returns the network this client was created for.
func (c *Client) Network() config.NetworkType { return c.network }

type paramsResponse struct {
	ConsensusVersion string `json:"consensus-version"`
	Fee              uint64 `json:"fee"`
	GenesisHash      string `json:"genesis-hash"`
	GenesisID        string `json:"genesis-id"`
	LastRound        uint64 `json:"last-round"`
	MinFee           uint64 `json:"min-fee"`
}

// SuggestedParams fetches the current transaction parameters. The
// validity window starts at the last round and spans 1000 rounds.
func (c *Client) SuggestedParams(ctx context.Context) (types.SuggestedParams, error) {
	var resp paramsResponse
	if err := c.get(ctx, "params", "/v2/transactions/params", &resp); err != nil {
		return types.SuggestedParams{}, err
	}

	gh, err := base64.StdEncoding.DecodeString(resp.GenesisHash)
	if err != nil || len(gh) != 32 {
		return types.SuggestedParams{}, fmt.Errorf("%w: bad genesis hash %q", ErrUnavailable, resp.GenesisHash)
	}
	if resp.GenesisID == "" {
		return types.SuggestedParams{}, fmt.Errorf("%w: missing genesis id", ErrUnavailable)
	}

	return types.SuggestedParams{
		Fee:              types.MicroAlgos(resp.Fee),
		GenesisID:        resp.GenesisID,
		GenesisHash:      gh,
		FirstRoundValid:  types.Round(resp.LastRound),
		LastRoundValid:   types.Round(resp.LastRound + validityWindow),
		ConsensusVersion: resp.ConsensusVersion,
		MinFee:           resp.MinFee,
	}, nil
}

// NodeStatus is the subset of /v2/status the minter reports.
type NodeStatus struct {
	LastRound          uint64 `json:"last-round"`
	LastVersion        string `json:"last-version"`
	TimeSinceLastRound uint64 `json:"time-since-last-round"`
	CatchupTime        uint64 `json:"catchup-time"`
}

// Status returns the node status.
func (c *Client) Status(ctx context.Context) (*NodeStatus, error) {
	var st NodeStatus
	if err := c.get(ctx, "status", "/v2/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// SendRawTransaction submits msgpack-encoded signed transactions and returns
// the id the gateway reports.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (string, error) {
	begin := time.Now()
	resp, err := c.writes.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-binary").
		SetBody(raw).
		Post("/v2/transactions")

	var out struct {
		TxID string `json:"txId"`
	}
	err = c.decode(resp, err, &out)
	metrics.GatewayRequest(c.network, "send", begin, err)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Raw transaction rejected")
		return "", err
	}
	c.logger.Info().Str("txid", out.TxID).Msg("Raw transaction submitted")
	return out.TxID, nil
}

// PendingInfo is the state of a submitted transaction.
type PendingInfo struct {
	ConfirmedRound uint64 `json:"confirmed-round"`
	PoolError      string `json:"pool-error"`
	AssetIndex     uint64 `json:"asset-index"`
}

// Confirmed reports whether the transaction made it into a block.
func (p *PendingInfo) Confirmed() bool { return p.ConfirmedRound > 0 }

// PendingTransaction looks up a submitted transaction by id.
func (c *Client) PendingTransaction(ctx context.Context, txID string) (*PendingInfo, error) {
	var info PendingInfo
	if err := c.get(ctx, "pending", "/v2/transactions/pending/"+url.PathEscape(txID), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// WaitForConfirmation polls the pending endpoint once per interval until the
// transaction is confirmed, rejected from the pool, or ctx ends.
func (c *Client) WaitForConfirmation(ctx context.Context, txID string, interval time.Duration) (*PendingInfo, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		info, err := c.PendingTransaction(ctx, txID)
		if err != nil {
			return nil, err
		}
		if info.Confirmed() {
			return info, nil
		}
		if info.PoolError != "" {
			return info, fmt.Errorf("transaction %s rejected: %s", txID, info.PoolError)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) get(ctx context.Context, endpoint, path string, out interface{}) error {
	begin := time.Now()
	resp, err := c.reads.R().SetContext(ctx).Get(path)
	err = c.decode(resp, err, out)
	metrics.GatewayRequest(c.network, endpoint, begin, err)
	if err != nil {
		c.logger.Debug().Err(err).Str("path", path).Msg("Gateway request failed")
	}
	return err
}

// decode classifies a resty result and unmarshals a successful body.
func (c *Client) decode(resp *resty.Response, err error, out interface{}) error {
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		var body struct {
			Message string `json:"message"`
		}
		msg := resp.Status()
		if json.Unmarshal(resp.Body(), &body) == nil && body.Message != "" {
			msg = body.Message
		}
		return &APIError{Status: resp.StatusCode(), Message: msg}
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}
