package asset

import (
	"context"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/transaction"

	"github.com/Klingon-tech/asset-minter/config"
)

// TestPaymentAmount is the microalgo amount sent by BuildTestPayment.
const TestPaymentAmount = 10

// FeeSinkAddress returns the fee sink account of network.
func FeeSinkAddress(network config.NetworkType) string {
	return config.ProfileFor(network).FeeSink
}

// BuildTestPayment builds a tiny payment from sender to the network fee sink.
// It exercises the same parameter fetch and signing path as an asset
// creation without creating anything.
func (b *Builder) BuildTestPayment(ctx context.Context, network config.NetworkType, sender string) (*Transaction, error) {
	sp, err := b.prepare(ctx, network, sender, func() error { return nil })
	if err != nil {
		return nil, err
	}

	txn, err := transaction.MakePaymentTxn(sender, FeeSinkAddress(network), TestPaymentAmount, nil, "", sp)
	if err != nil {
		return nil, fmt.Errorf("assemble payment: %w", err)
	}

	built := b.wrap(network, sender, Descriptor{}, sp, txn)
	b.logger.Info().
		Str("network", string(network)).
		Str("sender", sender).
		Str("txid", built.ID).
		Msg("Built test payment")
	return built, nil
}
