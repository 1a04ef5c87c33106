package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ReneKroon/ttlcache/v2"
	"github.com/rs/zerolog"

	"github.com/Klingon-tech/asset-minter/config"
	klog "github.com/Klingon-tech/asset-minter/internal/log"
	"github.com/Klingon-tech/asset-minter/internal/metrics"
)

const idBytes = 16

// Store keeps sessions in memory. A session not touched for the TTL is
// dropped together with any transaction it never got signed.
type Store struct {
	cache   *ttlcache.Cache
	network config.NetworkType
	logger  zerolog.Logger
}

// NewStore creates a store whose new sessions preselect network.
func NewStore(ttl time.Duration, network config.NetworkType) (*Store, error) {
	cache := ttlcache.NewCache()
	if err := cache.SetTTL(ttl); err != nil {
		return nil, fmt.Errorf("session ttl: %w", err)
	}
	s := &Store{
		cache:   cache,
		network: network,
		logger:  klog.Session,
	}
	cache.SetExpirationCallback(s.expired)
	return s, nil
}

func (s *Store) expired(key string, value interface{}) {
	metrics.SessionClosed()
	sess, ok := value.(*Session)
	if !ok {
		return
	}
	if st := sess.Snapshot(); st.Pending != nil {
		s.logger.Debug().
			Str("session", shortID(key)).
			Str("txid", st.Pending.ID).
			Msg("Session expired with unsubmitted transaction")
		return
	}
	s.logger.Debug().Str("session", shortID(key)).Msg("Session expired")
}

// Get returns the session with id and extends its lifetime.
func (s *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	v, err := s.cache.Get(id)
	if err != nil {
		return nil, false
	}
	return v.(*Session), true
}

// Create starts a new session with a random id.
func (s *Store) Create() (*Session, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	sess := New(id, s.network)
	if err := s.cache.Set(id, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	metrics.SessionOpened()
	s.logger.Debug().Str("session", shortID(id)).Msg("Session created")
	return sess, nil
}

// GetOrCreate returns the session with id, or a new one if id is unknown
// or expired. created reports which.
func (s *Store) GetOrCreate(id string) (sess *Session, created bool, err error) {
	if sess, ok := s.Get(id); ok {
		return sess, false, nil
	}
	sess, err = s.Create()
	return sess, err == nil, err
}

// Remove drops the session with id.
func (s *Store) Remove(id string) {
	err := s.cache.Remove(id)
	switch {
	case err == nil:
		metrics.SessionClosed()
	case !errors.Is(err, ttlcache.ErrNotFound):
		s.logger.Warn().Err(err).Msg("Remove session")
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.cache.Count()
}

// Close stops the expiry goroutine.
func (s *Store) Close() error {
	return s.cache.Close()
}

func newID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
