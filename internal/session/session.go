package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/qmuntal/stateless"
	"github.com/rs/zerolog"

	"github.com/Klingon-tech/asset-minter/config"
	"github.com/Klingon-tech/asset-minter/internal/asset"
	klog "github.com/Klingon-tech/asset-minter/internal/log"
	"github.com/Klingon-tech/asset-minter/internal/metrics"
)

// Session errors.
var (
	ErrNoPending       = errors.New("no transaction awaiting signature")
	ErrPendingMismatch = errors.New("confirmation does not match the pending transaction")
	ErrNotOffered      = errors.New("pending transaction was never handed to the wallet")
)

// Triggers.
const (
	triggerConnect       = "Connect"
	triggerDisconnect    = "Disconnect"
	triggerSwitchNetwork = "SwitchNetwork"
	triggerBuilt         = "Built"
	triggerConfirmed     = "Confirmed"
	triggerDeclined      = "Declined"
)

// Builder builds asset creation transactions.
type Builder interface {
	Build(ctx context.Context, network config.NetworkType, sender string, d asset.Descriptor) (*asset.Transaction, error)
}

// Session is one browser's state. All operations are serialized.
type Session struct {
	id string

	mu     sync.Mutex
	state  State
	fsm    *stateless.StateMachine
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a disconnected session preselecting network.
func New(id string, network config.NetworkType) *Session {
	s := &Session{
		id:     id,
		state:  newState(network),
		logger: klog.Session.With().Str("session", shortID(id)).Logger(),
		now:    time.Now,
	}
	s.fsm = stateless.NewStateMachineWithExternalStorage(func(_ context.Context) (stateless.State, error) {
		return s.state.Phase, nil
	}, func(_ context.Context, st stateless.State) error {
		s.state.Phase = st.(Phase)
		return nil
	}, stateless.FiringQueued)
	s.configure()
	return s
}

func (s *Session) configure() {
	s.fsm.Configure(Disconnected).
		OnEntry(func(_ context.Context, _ ...any) error {
			s.state.Address = ""
			s.clearPending()
			return nil
		}).
		Permit(triggerConnect, Connected).
		InternalTransition(triggerSwitchNetwork, s.applyNetwork).
		Ignore(triggerDisconnect).
		Ignore(triggerDeclined)

	s.fsm.Configure(Connected).
		OnEntryFrom(triggerConnect, s.applyAddress).
		OnEntryFrom(triggerSwitchNetwork, s.applyNetwork).
		OnEntryFrom(triggerConfirmed, s.applyConfirmation).
		OnEntryFrom(triggerDeclined, func(_ context.Context, _ ...any) error {
			metrics.Signing(s.state.Network, metrics.EventDeclined)
			s.logger.Info().Str("txid", s.state.Pending.ID).Msg("Signing declined")
			return nil
		}).
		PermitReentry(triggerConnect).
		Permit(triggerDisconnect, Disconnected).
		Permit(triggerBuilt, AwaitingSignature).
		InternalTransition(triggerSwitchNetwork, s.applyNetwork).
		Ignore(triggerDeclined)

	s.fsm.Configure(AwaitingSignature).
		OnEntryFrom(triggerBuilt, func(_ context.Context, args ...any) error {
			s.state.Pending = args[0].(*asset.Transaction)
			s.state.Offered = false
			return nil
		}).
		PermitReentry(triggerBuilt).
		Permit(triggerConfirmed, Connected).
		Permit(triggerDeclined, Connected).
		Permit(triggerSwitchNetwork, Connected).
		Permit(triggerConnect, Connected).
		Permit(triggerDisconnect, Disconnected)
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect records addr as the connected account. Reconnecting the same
// address changes nothing; a different address drops any pending
// transaction since it was built for another sender.
func (s *Session) Connect(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := types.DecodeAddress(addr); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if s.state.Phase != Disconnected && s.state.Address == addr {
		return nil
	}
	s.state.LastError = ""
	return s.fsm.Fire(triggerConnect, addr)
}

// Disconnect forgets the account and any pending transaction.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.LastError = ""
	return s.fsm.Fire(triggerDisconnect)
}

// SwitchNetwork selects network. Any pending transaction is dropped
// unconditionally.
func (s *Session) SwitchNetwork(network config.NetworkType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !network.Valid() {
		return fmt.Errorf("unsupported network %q", network)
	}
	s.state.LastError = ""
	return s.fsm.Fire(triggerSwitchNetwork, network)
}

// Submit builds an asset creation transaction from d for the connected
// account and makes it the pending transaction. On failure the error is
// also recorded for display and any previous pending state is kept.
func (s *Session) Submit(ctx context.Context, b Builder, d asset.Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Form = d
	s.state.LastError = ""
	return s.build(ctx, b, d)
}

// Retry rebuilds the pending transaction from its descriptor with fresh
// network parameters and offers the result again.
func (s *Session) Retry(ctx context.Context, b Builder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Pending == nil {
		return ErrNoPending
	}
	s.state.LastError = ""
	return s.build(ctx, b, s.state.Pending.Descriptor)
}

func (s *Session) build(ctx context.Context, b Builder, d asset.Descriptor) error {
	txn, err := b.Build(ctx, s.state.Network, s.state.Address, d)
	if err != nil {
		s.state.LastError = userMessage(err)
		s.logger.Debug().Err(err).Msg("Build failed")
		return err
	}
	return s.fsm.FireCtx(ctx, triggerBuilt, txn)
}

// RejectForm records a form that failed to parse.
func (s *Session) RejectForm(d asset.Descriptor, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Form = d
	s.state.LastError = userMessage(err)
}

// Offer returns the pending transaction for the wallet, at most once per
// built transaction.
func (s *Session) Offer() (*asset.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != AwaitingSignature || s.state.Pending == nil || s.state.Offered {
		return nil, false
	}
	s.state.Offered = true
	metrics.Signing(s.state.Network, metrics.EventOffered)
	s.logger.Info().Str("txid", s.state.Pending.ID).Msg("Offered transaction for signing")
	return s.state.Pending, true
}

// Confirm records txID as confirmed. It must be the pending transaction.
func (s *Session) Confirm(txID string) (*Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirm(txID)
}

func (s *Session) confirm(txID string) (*Confirmation, error) {
	if s.state.Phase != AwaitingSignature || s.state.Pending == nil {
		return nil, ErrNoPending
	}
	if txID != s.state.Pending.ID {
		return nil, ErrPendingMismatch
	}
	if err := s.fsm.Fire(triggerConfirmed, txID); err != nil {
		return nil, err
	}
	return s.state.LastConfirmation, nil
}

// Complete submits the offered pending transaction through submit while
// holding the session, then confirms it with the id submit returns.
func (s *Session) Complete(ctx context.Context, submit func(ctx context.Context, pending *asset.Transaction) (string, error)) (*Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != AwaitingSignature || s.state.Pending == nil {
		return nil, ErrNoPending
	}
	if !s.state.Offered {
		return nil, ErrNotOffered
	}
	s.state.LastError = ""

	txID, err := submit(ctx, s.state.Pending)
	if err != nil {
		s.state.LastError = userMessage(err)
		s.logger.Warn().Err(err).Str("txid", s.state.Pending.ID).Msg("Submission failed")
		return nil, err
	}
	return s.confirm(txID)
}

// Decline returns to Connected. The pending transaction stays visible but
// is not offered again; Retry builds a fresh one.
func (s *Session) Decline() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fsm.Fire(triggerDeclined)
}

func (s *Session) applyAddress(_ context.Context, args ...any) error {
	s.state.Address = args[0].(string)
	s.clearPending()
	s.logger.Info().Str("address", s.state.Address).Msg("Wallet connected")
	return nil
}

func (s *Session) applyNetwork(_ context.Context, args ...any) error {
	network := args[0].(config.NetworkType)
	if network != s.state.Network {
		s.logger.Info().Str("from", string(s.state.Network)).Str("to", string(network)).Msg("Network switched")
	}
	s.state.Network = network
	s.clearPending()
	return nil
}

func (s *Session) applyConfirmation(_ context.Context, args ...any) error {
	txn := s.state.Pending
	s.state.LastConfirmation = &Confirmation{
		Network: txn.Network,
		TxID:    args[0].(string),
		Sender:  txn.Sender,
		Asset:   txn.Descriptor,
		At:      s.now(),
	}
	s.clearPending()
	metrics.Signing(txn.Network, metrics.EventConfirmed)
	s.logger.Info().Str("txid", s.state.LastConfirmation.TxID).Msg("Transaction confirmed")
	return nil
}

func (s *Session) clearPending() {
	if s.state.Pending != nil {
		s.logger.Debug().Str("txid", s.state.Pending.ID).Msg("Dropped pending transaction")
	}
	s.state.Pending = nil
	s.state.Offered = false
}

// userMessage maps build and submission errors to what the page shows.
func userMessage(err error) string {
	var verr *asset.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, asset.ErrNoSender):
		return "Connect a wallet first."
	case errors.Is(err, asset.ErrNetworkUnavailable):
		return "The network is unavailable. Please try again."
	default:
		return err.Error()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
