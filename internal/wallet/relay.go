package wallet

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/rs/zerolog"

	"github.com/Klingon-tech/asset-minter/config"
	klog "github.com/Klingon-tech/asset-minter/internal/log"
)

// Relay submits transactions signed in the browser. The widget holds the
// key; the server only checks that what comes back is what it offered.
type Relay struct {
	submit Submitter
	logger zerolog.Logger
	now    func() time.Time
}

// NewRelay creates a relay submitting through s.
func NewRelay(s Submitter) *Relay {
	return &Relay{
		submit: s,
		logger: klog.Wallet.With().Str("signer", "relay").Logger(),
		now:    time.Now,
	}
}

// Submit verifies that the first signed transaction has id expectedID, was
// built for network and carries a signature, then submits all of signed.
func (r *Relay) Submit(ctx context.Context, network config.NetworkType, expectedID string, signed [][]byte) (*Receipt, error) {
	if len(signed) == 0 {
		return nil, ErrEmptyRequest
	}
	genesisID := config.ProfileFor(network).GenesisID

	var body bytes.Buffer
	for i, raw := range signed {
		var stx types.SignedTxn
		if err := msgpack.Decode(raw, &stx); err != nil {
			return nil, fmt.Errorf("decode signed transaction %d: %w", i, err)
		}
		if i == 0 {
			if id := crypto.GetTxID(stx.Txn); id != expectedID {
				r.logger.Warn().Str("expected", expectedID).Str("got", id).Msg("Signed transaction mismatch")
				return nil, ErrTxIDMismatch
			}
		}
		if stx.Txn.GenesisID != genesisID {
			return nil, fmt.Errorf("transaction %d: %w: %q", i, ErrWrongNetwork, stx.Txn.GenesisID)
		}
		if !isSigned(stx) {
			return nil, fmt.Errorf("transaction %d: %w", i, ErrUnsigned)
		}
		body.Write(raw)
	}

	if _, err := r.submit.SendRawTransaction(ctx, network, body.Bytes()); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	r.logger.Info().Str("network", string(network)).Str("txid", expectedID).Msg("Relayed signed transaction")
	return &Receipt{Network: network, TxID: expectedID, SubmittedAt: r.now()}, nil
}

func isSigned(stx types.SignedTxn) bool {
	return stx.Sig != (types.Signature{}) ||
		len(stx.Msig.Subsigs) > 0 ||
		len(stx.Lsig.Logic) > 0
}
