package wallet

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
)

const keyfileExt = ".key"

// ErrKeyNotFound is returned when no keyfile has the requested name.
var ErrKeyNotFound = errors.New("keyfile not found")

// keyFile is the on-disk JSON format of an encrypted signing key.
type keyFile struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Address   string    `json:"address"`
	Key       sealedKey `json:"key"`
}

// KeyEntry describes a stored keyfile without decrypting it.
type KeyEntry struct {
	Name      string
	Address   string
	CreatedAt time.Time
}

// Keystore manages encrypted signing keys in a directory.
type Keystore struct {
	dir string
}

// NewKeystore creates a keystore rooted at dir, creating it if needed.
func NewKeystore(dir string) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{dir: dir}, nil
}

func (ks *Keystore) path(name string) string {
	return filepath.Join(ks.dir, name+keyfileExt)
}

// Import encrypts the account behind a 25-word mnemonic under password and
// writes it as name. It returns the account address.
func (ks *Keystore) Import(name, phrase string, password []byte, params KDFParams) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid key name %q", name)
	}
	path := ks.path(name)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("key %q already exists", name)
	}

	sk, err := mnemonic.ToPrivateKey(strings.TrimSpace(phrase))
	if err != nil {
		return "", fmt.Errorf("decode mnemonic: %w", err)
	}
	defer zero(sk)
	acct, err := crypto.AccountFromPrivateKey(sk)
	if err != nil {
		return "", fmt.Errorf("derive account: %w", err)
	}
	addr := acct.Address.String()

	sealed, err := seal(sk, password, []byte(addr), params)
	if err != nil {
		return "", fmt.Errorf("encrypt key: %w", err)
	}

	kf := keyFile{
		Version:   1,
		CreatedAt: time.Now().UTC(),
		Address:   addr,
		Key:       *sealed,
	}
	data, err := json.MarshalIndent(&kf, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal keyfile: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("write keyfile: %w", err)
	}
	return addr, nil
}

// Load decrypts the keyfile name and returns its account.
func (ks *Keystore) Load(name string, password []byte) (crypto.Account, error) {
	kf, err := ks.read(ks.path(name))
	if err != nil {
		return crypto.Account{}, err
	}

	raw, err := kf.Key.open(password, []byte(kf.Address))
	if err != nil {
		return crypto.Account{}, err
	}
	if len(raw) != ed25519.PrivateKeySize {
		return crypto.Account{}, fmt.Errorf("malformed key: %d bytes", len(raw))
	}
	acct, err := crypto.AccountFromPrivateKey(ed25519.PrivateKey(raw))
	if err != nil {
		return crypto.Account{}, fmt.Errorf("derive account: %w", err)
	}
	if acct.Address.String() != kf.Address {
		return crypto.Account{}, fmt.Errorf("keyfile address %s does not match key", kf.Address)
	}
	return acct, nil
}

// List returns the stored keys sorted by name.
func (ks *Keystore) List() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}

	var keys []KeyEntry
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != keyfileExt {
			continue
		}
		kf, err := ks.read(filepath.Join(ks.dir, name))
		if err != nil {
			continue // Not ours, skip.
		}
		keys = append(keys, KeyEntry{
			Name:      strings.TrimSuffix(name, keyfileExt),
			Address:   kf.Address,
			CreatedAt: kf.CreatedAt,
		})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Name < keys[j].Name })
	return keys, nil
}

// Export decrypts name and returns its mnemonic.
func (ks *Keystore) Export(name string, password []byte) (string, error) {
	acct, err := ks.Load(name, password)
	if err != nil {
		return "", err
	}
	return mnemonic.FromPrivateKey(acct.PrivateKey)
}

func (ks *Keystore) read(path string) (*keyFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read keyfile: %w", err)
	}
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse keyfile: %w", err)
	}
	if kf.Version != 1 {
		return nil, fmt.Errorf("unsupported keyfile version: %d", kf.Version)
	}
	return &kf, nil
}
