package asset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/rs/zerolog"

	"github.com/Klingon-tech/asset-minter/config"
	klog "github.com/Klingon-tech/asset-minter/internal/log"
	"github.com/Klingon-tech/asset-minter/internal/metrics"
)

// Builder errors.
var (
	ErrNoSender           = errors.New("no connected sender address")
	ErrInvalidSender      = errors.New("invalid sender address")
	ErrNetworkUnavailable = errors.New("network unavailable")
)

// ParamsSource supplies fresh suggested parameters for a network.
type ParamsSource interface {
	SuggestedParams(ctx context.Context, network config.NetworkType) (types.SuggestedParams, error)
}

// Transaction is a fully specified, unsigned asset creation transaction.
// It is never mutated after Build returns it.
type Transaction struct {
	Network    config.NetworkType
	Sender     string
	Descriptor Descriptor
	Params     types.SuggestedParams
	Txn        types.Transaction
	ID         string
	BuiltAt    time.Time
}

// Builder assembles asset creation transactions.
type Builder struct {
	params ParamsSource
	logger zerolog.Logger
	now    func() time.Time
}

// NewBuilder creates a builder fetching parameters from src.
func NewBuilder(src ParamsSource) *Builder {
	return &Builder{
		params: src,
		logger: klog.Builder,
		now:    time.Now,
	}
}

// Build fetches current network parameters and assembles an asset creation
// transaction for sender. Every authority field (manager, reserve, freeze,
// clawback) and url, metadata hash, note, lease and rekey-to are absent, so
// the resulting asset can never be reconfigured.
//
// An empty sender fails before any network access. A failed parameter fetch
// is returned as ErrNetworkUnavailable.
func (b *Builder) Build(ctx context.Context, network config.NetworkType, sender string, d Descriptor) (*Transaction, error) {
	sp, err := b.prepare(ctx, network, sender, d.Validate)
	if err != nil {
		metrics.BuildResult(network, err)
		return nil, err
	}

	txn, err := transaction.MakeAssetCreateTxn(
		sender,
		nil, // note
		sp,
		d.Total,
		d.Decimals,
		false,          // default frozen
		"", "", "", "", // manager, reserve, freeze, clawback
		d.UnitName,
		d.AssetName,
		"", // url
		"", // metadata hash
	)
	if err != nil {
		err = fmt.Errorf("assemble asset config: %w", err)
		metrics.BuildResult(network, err)
		return nil, err
	}

	built := b.wrap(network, sender, d, sp, txn)
	metrics.BuildResult(network, nil)
	b.logger.Info().
		Str("network", string(network)).
		Str("sender", sender).
		Str("txid", built.ID).
		Str("asset", d.AssetName).
		Uint64("first_valid", uint64(txn.FirstValid)).
		Uint64("last_valid", uint64(txn.LastValid)).
		Msg("Built asset creation transaction")
	return built, nil
}

// prepare runs the checks shared by every build and fetches parameters.
func (b *Builder) prepare(ctx context.Context, network config.NetworkType, sender string, validate func() error) (types.SuggestedParams, error) {
	if strings.TrimSpace(sender) == "" {
		return types.SuggestedParams{}, ErrNoSender
	}
	if _, err := types.DecodeAddress(sender); err != nil {
		return types.SuggestedParams{}, fmt.Errorf("%w: %v", ErrInvalidSender, err)
	}
	if !network.Valid() {
		return types.SuggestedParams{}, fmt.Errorf("unsupported network %q", network)
	}
	if err := validate(); err != nil {
		return types.SuggestedParams{}, err
	}

	sp, err := b.params.SuggestedParams(ctx, network)
	if err != nil {
		b.logger.Warn().Err(err).Str("network", string(network)).Msg("Suggested params fetch failed")
		return types.SuggestedParams{}, fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	return sp, nil
}

func (b *Builder) wrap(network config.NetworkType, sender string, d Descriptor, sp types.SuggestedParams, txn types.Transaction) *Transaction {
	return &Transaction{
		Network:    network,
		Sender:     sender,
		Descriptor: d,
		Params:     sp,
		Txn:        txn,
		ID:         crypto.GetTxID(txn),
		BuiltAt:    b.now(),
	}
}
