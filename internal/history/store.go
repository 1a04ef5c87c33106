// Package history records confirmed asset creations.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/asset-minter/config"
	"github.com/Klingon-tech/asset-minter/internal/asset"
	klog "github.com/Klingon-tech/asset-minter/internal/log"
	"github.com/Klingon-tech/asset-minter/internal/storage"
)

var prefixReceipt = []byte("r/") // r/<sender>/<txid> -> Receipt JSON, per network namespace

// ErrNotFound is returned by Get for an unknown transaction.
var ErrNotFound = errors.New("receipt not found")

// Receipt is one confirmed asset creation.
type Receipt struct {
	Network     config.NetworkType `json:"network"`
	TxID        string             `json:"txid"`
	Sender      string             `json:"sender"`
	Asset       asset.Descriptor   `json:"asset"`
	ConfirmedAt time.Time          `json:"confirmed_at"`
}

// Store persists receipts, one key namespace per network.
type Store struct {
	nets   map[config.NetworkType]*storage.PrefixDB
	logger zerolog.Logger
}

// NewStore creates a receipt store over db.
func NewStore(db storage.DB) *Store {
	s := &Store{
		nets:   make(map[config.NetworkType]*storage.PrefixDB, len(config.Networks)),
		logger: klog.History,
	}
	for _, n := range config.Networks {
		s.nets[n] = storage.NewPrefixDB(db, []byte(string(n)+"/"))
	}
	return s
}

func (s *Store) ns(network config.NetworkType) (*storage.PrefixDB, error) {
	db, ok := s.nets[network]
	if !ok {
		return nil, fmt.Errorf("unsupported network %q", network)
	}
	return db, nil
}

// Put stores r.
func (s *Store) Put(r Receipt) error {
	db, err := s.ns(r.Network)
	if err != nil {
		return err
	}
	if r.TxID == "" || r.Sender == "" {
		return fmt.Errorf("receipt needs txid and sender")
	}
	data, err := json.Marshal(&r)
	if err != nil {
		return fmt.Errorf("receipt marshal: %w", err)
	}
	if err := db.Put(receiptKey(r.Sender, r.TxID), data); err != nil {
		return fmt.Errorf("receipt put: %w", err)
	}
	s.logger.Debug().Str("network", string(r.Network)).Str("txid", r.TxID).Msg("Recorded receipt")
	return nil
}

// List returns the receipts of sender on network, newest first. An empty
// sender lists every sender.
func (s *Store) List(network config.NetworkType, sender string) ([]Receipt, error) {
	db, err := s.ns(network)
	if err != nil {
		return nil, err
	}
	prefix := prefixReceipt
	if sender != "" {
		prefix = receiptKey(sender, "")
	}

	receipts := []Receipt{}
	err = db.ForEach(prefix, func(_, value []byte) error {
		var r Receipt
		if err := json.Unmarshal(value, &r); err != nil {
			return nil // Skip corrupt entries.
		}
		receipts = append(receipts, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("receipt list: %w", err)
	}
	sort.SliceStable(receipts, func(i, j int) bool {
		return receipts[i].ConfirmedAt.After(receipts[j].ConfirmedAt)
	})
	return receipts, nil
}

// Get finds the receipt for txID on network.
func (s *Store) Get(network config.NetworkType, txID string) (*Receipt, error) {
	db, err := s.ns(network)
	if err != nil {
		return nil, err
	}
	var found *Receipt
	errStop := errors.New("stop")
	err = db.ForEach(prefixReceipt, func(_, value []byte) error {
		var r Receipt
		if json.Unmarshal(value, &r) == nil && r.TxID == txID {
			found = &r
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, fmt.Errorf("receipt get: %w", err)
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, txID)
	}
	return found, nil
}

func receiptKey(sender, txID string) []byte {
	key := make([]byte, 0, len(prefixReceipt)+len(sender)+1+len(txID))
	key = append(key, prefixReceipt...)
	key = append(key, sender...)
	key = append(key, '/')
	return append(key, txID...)
}
