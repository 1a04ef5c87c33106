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

// LocalSigner signs with a key held in memory.
type LocalSigner struct {
	account crypto.Account
	submit  Submitter
	logger  zerolog.Logger
	now     func() time.Time
}

// NewLocalSigner creates a signer for account submitting through s.
func NewLocalSigner(account crypto.Account, s Submitter) *LocalSigner {
	return &LocalSigner{
		account: account,
		submit:  s,
		logger:  klog.Wallet.With().Str("signer", "local").Logger(),
		now:     time.Now,
	}
}

// Address returns the signing account address.
func (l *LocalSigner) Address() string {
	return l.account.Address.String()
}

// Connect always succeeds with the held account.
func (l *LocalSigner) Connect(_ context.Context, network config.NetworkType) (string, error) {
	if l.account.Address.IsZero() {
		return "", ErrNoAccount
	}
	l.logger.Debug().Str("network", string(network)).Str("address", l.Address()).Msg("Connected")
	return l.Address(), nil
}

// SignAndSubmit signs every transaction in txns and submits them as one
// request. Each must be sent by the held account and built for network.
func (l *LocalSigner) SignAndSubmit(ctx context.Context, network config.NetworkType, txns [][]byte) (*Receipt, error) {
	if len(txns) == 0 {
		return nil, ErrEmptyRequest
	}
	genesisID := config.ProfileFor(network).GenesisID

	var (
		signed  bytes.Buffer
		firstID string
	)
	for i, raw := range txns {
		var tx types.Transaction
		if err := msgpack.Decode(raw, &tx); err != nil {
			return nil, fmt.Errorf("decode transaction %d: %w", i, err)
		}
		if tx.Sender != l.account.Address {
			return nil, fmt.Errorf("transaction %d: %w", i, ErrForeignSender)
		}
		if tx.GenesisID != genesisID {
			return nil, fmt.Errorf("transaction %d: %w: %q", i, ErrWrongNetwork, tx.GenesisID)
		}

		txID, stx, err := crypto.SignTransaction(l.account.PrivateKey, tx)
		if err != nil {
			return nil, fmt.Errorf("sign transaction %d: %w", i, err)
		}
		if i == 0 {
			firstID = txID
		}
		signed.Write(stx)
	}

	if _, err := l.submit.SendRawTransaction(ctx, network, signed.Bytes()); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	l.logger.Info().Str("network", string(network)).Str("txid", firstID).Int("count", len(txns)).Msg("Signed and submitted")
	return &Receipt{Network: network, TxID: firstID, SubmittedAt: l.now()}, nil
}
