// Package session holds the per-browser UI state of the minter and the
// state machine that moves it between disconnected, connected and
// awaiting-signature.
package session

import (
	"time"

	"github.com/Klingon-tech/asset-minter/config"
	"github.com/Klingon-tech/asset-minter/internal/asset"
)

// Phase is the state machine position of a session.
type Phase string

// Phases.
const (
	Disconnected      Phase = "Disconnected"
	Connected         Phase = "Connected"
	AwaitingSignature Phase = "AwaitingSignature"
)

// Confirmation records a transaction the network accepted.
type Confirmation struct {
	Network config.NetworkType `json:"network"`
	TxID    string             `json:"txid"`
	Sender  string             `json:"sender"`
	Asset   asset.Descriptor   `json:"asset"`
	At      time.Time          `json:"at"`
}

// State is everything a page render needs.
type State struct {
	Phase   Phase
	Network config.NetworkType
	Address string

	// Pending is the unsigned transaction waiting for the wallet. Offered
	// is set once it has been handed out; it is never handed out twice.
	Pending *asset.Transaction
	Offered bool

	LastConfirmation *Confirmation

	// Form holds the last submitted field values so a failed submission
	// can be redisplayed.
	Form      asset.Descriptor
	LastError string
}

func newState(network config.NetworkType) State {
	return State{
		Phase:   Disconnected,
		Network: network,
		Form:    asset.DefaultDescriptor(),
	}
}

// View is State plus the section visibility derived from it.
type View struct {
	State

	// FormExpanded is true while there is nothing pending and nothing
	// confirmed to show instead.
	FormExpanded bool
	ShowDetails  bool
	// AwaitingWallet is true while the wallet has the transaction and has
	// not answered.
	AwaitingWallet bool
}

// View derives section visibility from st.
func (st State) View() View {
	return View{
		State:          st,
		FormExpanded:   st.Pending == nil && st.LastConfirmation == nil,
		ShowDetails:    st.Pending != nil,
		AwaitingWallet: st.Phase == AwaitingSignature && st.Offered,
	}
}
