package wallet

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
)

func newAccount(t *testing.T) (crypto.Account, string) {
	t.Helper()
	acct := crypto.GenerateAccount()
	phrase, err := mnemonic.FromPrivateKey(acct.PrivateKey)
	if err != nil {
		t.Fatalf("mnemonic: %v", err)
	}
	return acct, phrase
}

func TestKeystore_ImportLoad(t *testing.T) {
	ks, err := NewKeystore(filepath.Join(t.TempDir(), "keystore"))
	if err != nil {
		t.Fatalf("NewKeystore() error: %v", err)
	}
	acct, phrase := newAccount(t)

	addr, err := ks.Import("minter", phrase, []byte("pw"), fastKDF())
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if addr != acct.Address.String() {
		t.Errorf("Import() address = %s, want %s", addr, acct.Address)
	}

	loaded, err := ks.Load("minter", []byte("pw"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Address != acct.Address {
		t.Errorf("Load() address = %s", loaded.Address)
	}

	exported, err := ks.Export("minter", []byte("pw"))
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if exported != phrase {
		t.Error("exported mnemonic differs from imported one")
	}

	if _, err := ks.Load("minter", []byte("nope")); !errors.Is(err, ErrBadPassword) {
		t.Errorf("Load() wrong password error = %v", err)
	}
	if _, err := ks.Load("missing", []byte("pw")); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Load() missing error = %v", err)
	}
}

func TestKeystore_FileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}
	dir := t.TempDir()
	ks, _ := NewKeystore(dir)
	_, phrase := newAccount(t)

	if _, err := ks.Import("k", phrase, []byte("pw"), fastKDF()); err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "k.key"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("keyfile mode = %o, want 600", perm)
	}
}

func TestKeystore_ImportRejects(t *testing.T) {
	ks, _ := NewKeystore(t.TempDir())
	_, phrase := newAccount(t)

	if _, err := ks.Import("a", "not a mnemonic", []byte("pw"), fastKDF()); err == nil {
		t.Error("Import() with bad mnemonic should fail")
	}
	if _, err := ks.Import("../escape", phrase, []byte("pw"), fastKDF()); err == nil {
		t.Error("Import() with path in name should fail")
	}
	if _, err := ks.Import("a", phrase, []byte("pw"), fastKDF()); err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if _, err := ks.Import("a", phrase, []byte("pw"), fastKDF()); err == nil {
		t.Error("Import() over an existing key should fail")
	}
}

func TestKeystore_List(t *testing.T) {
	dir := t.TempDir()
	ks, _ := NewKeystore(dir)
	_, p1 := newAccount(t)
	_, p2 := newAccount(t)
	ks.Import("zeta", p1, []byte("pw"), fastKDF())
	ks.Import("alpha", p2, []byte("pw"), fastKDF())
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600)
	os.WriteFile(filepath.Join(dir, "junk.key"), []byte("{"), 0600)

	keys, err := ks.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(keys) != 2 || keys[0].Name != "alpha" || keys[1].Name != "zeta" {
		t.Fatalf("List() = %+v", keys)
	}
	if keys[0].Address == "" || keys[0].CreatedAt.IsZero() {
		t.Errorf("entry missing metadata: %+v", keys[0])
	}
}
