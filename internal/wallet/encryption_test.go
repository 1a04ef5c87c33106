package wallet

import (
	"bytes"
	"errors"
	"testing"
)

// fastKDF returns low-cost Argon2 params for fast tests.
func fastKDF() KDFParams {
	return KDFParams{
		Memory:      64, // 64 KiB (minimal)
		Iterations:  1,
		Parallelism: 1,
	}
}

func TestSealOpen_Roundtrip(t *testing.T) {
	plaintext := []byte("secret signing key")
	password := []byte("strong-password-123")
	ad := []byte("ADDRESS")

	s, err := seal(plaintext, password, ad, fastKDF())
	if err != nil {
		t.Fatalf("seal() error: %v", err)
	}
	if s.KDF != fastKDF() {
		t.Errorf("stored KDF = %+v", s.KDF)
	}

	got, err := s.open(password, ad)
	if err != nil {
		t.Fatalf("open() error: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("open() = %q, want %q", got, plaintext)
	}
}

func TestOpen_Rejects(t *testing.T) {
	s, err := seal([]byte("data"), []byte("correct"), []byte("ad"), fastKDF())
	if err != nil {
		t.Fatalf("seal() error: %v", err)
	}

	if _, err := s.open([]byte("wrong"), []byte("ad")); !errors.Is(err, ErrBadPassword) {
		t.Errorf("wrong password error = %v, want ErrBadPassword", err)
	}
	if _, err := s.open([]byte("correct"), []byte("other")); !errors.Is(err, ErrBadPassword) {
		t.Errorf("wrong associated data error = %v, want ErrBadPassword", err)
	}

	corrupt := *s
	corrupt.Ciphertext = append([]byte(nil), s.Ciphertext...)
	corrupt.Ciphertext[len(corrupt.Ciphertext)-1] ^= 0xFF
	if _, err := corrupt.open([]byte("correct"), []byte("ad")); !errors.Is(err, ErrBadPassword) {
		t.Errorf("corrupted ciphertext error = %v, want ErrBadPassword", err)
	}

	short := *s
	short.Nonce = short.Nonce[:8]
	if _, err := short.open([]byte("correct"), []byte("ad")); err == nil {
		t.Error("open with short nonce should fail")
	}
}

func TestSeal_DifferentEachTime(t *testing.T) {
	a, _ := seal([]byte("same"), []byte("pass"), nil, fastKDF())
	b, _ := seal([]byte("same"), []byte("pass"), nil, fastKDF())
	if bytes.Equal(a.Salt, b.Salt) || bytes.Equal(a.Ciphertext, b.Ciphertext) {
		t.Error("sealing twice should use fresh salt and nonce")
	}
}

func TestDefaultKDF(t *testing.T) {
	p := DefaultKDF()
	if p.Memory != 64*1024 || p.Iterations != 3 || p.Parallelism != 4 {
		t.Errorf("DefaultKDF() = %+v", p)
	}
}
