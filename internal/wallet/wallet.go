// Package wallet signs and submits transactions on behalf of a connected
// account.
//
// Two signers are provided: LocalSigner holds a decrypted key from the
// keystore and is used from the command line, Relay accepts transactions
// signed by the browser wallet widget and forwards them to the gateway.
package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/Klingon-tech/asset-minter/config"
)

// Adapter errors. Neither is a failure the user needs to see as one.
var (
	ErrNoAccount = errors.New("no account connected")
	ErrDeclined  = errors.New("signing declined")
)

// Validation errors for signed or to-be-signed transactions.
var (
	ErrForeignSender = errors.New("transaction sender is not the signing account")
	ErrWrongNetwork  = errors.New("transaction built for another network")
	ErrTxIDMismatch  = errors.New("signed transaction does not match the offered one")
	ErrUnsigned      = errors.New("transaction carries no signature")
	ErrEmptyRequest  = errors.New("empty signing request")
)

// Receipt is the outcome of a successful submission.
type Receipt struct {
	Network     config.NetworkType `json:"network"`
	TxID        string             `json:"txid"`
	SubmittedAt time.Time          `json:"submitted_at"`
}

// Adapter connects an account and signs on its behalf.
type Adapter interface {
	// Connect returns the account address, or ErrNoAccount.
	Connect(ctx context.Context, network config.NetworkType) (string, error)
	// SignAndSubmit signs msgpack-encoded unsigned transactions, submits
	// them and returns the receipt, or ErrDeclined.
	SignAndSubmit(ctx context.Context, network config.NetworkType, txns [][]byte) (*Receipt, error)
}

// Submitter forwards signed transaction bytes to a network.
type Submitter interface {
	SendRawTransaction(ctx context.Context, network config.NetworkType, raw []byte) (string, error)
}
