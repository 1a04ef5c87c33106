package wallet

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// SaltSize is the Argon2id salt length.
const SaltSize = 32

// ErrBadPassword is returned when a keyfile does not open with the given
// password.
var ErrBadPassword = errors.New("wrong password or corrupted keyfile")

// KDFParams holds Argon2id parameters. They are stored with every keyfile
// so costs can be raised without breaking old files.
type KDFParams struct {
	Memory      uint32 `json:"memory"` // in KiB
	Iterations  uint32 `json:"iterations"`
	Parallelism uint8  `json:"parallelism"`
}

// DefaultKDF returns recommended Argon2id parameters.
func DefaultKDF() KDFParams {
	return KDFParams{
		Memory:      64 * 1024, // 64 MB
		Iterations:  3,
		Parallelism: 4,
	}
}

// sealedKey is an XChaCha20-Poly1305 ciphertext with everything needed to
// re-derive its key.
type sealedKey struct {
	KDF        KDFParams `json:"kdf"`
	Salt       []byte    `json:"salt"`
	Nonce      []byte    `json:"nonce"`
	Ciphertext []byte    `json:"ciphertext"`
}

func deriveKey(password, salt []byte, params KDFParams) []byte {
	return argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, chacha20poly1305.KeySize)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// seal encrypts plaintext under password. ad is authenticated but not
// encrypted; keyfiles bind the account address this way.
func seal(plaintext, password, ad []byte, params KDFParams) (*sealedKey, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key := deriveKey(password, salt, params)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return &sealedKey{
		KDF:        params,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, ad),
	}, nil
}

// open decrypts s. Any authentication failure is ErrBadPassword.
func (s *sealedKey) open(password, ad []byte) ([]byte, error) {
	if len(s.Salt) != SaltSize || len(s.Nonce) != chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("malformed keyfile: salt %d bytes, nonce %d bytes", len(s.Salt), len(s.Nonce))
	}

	key := deriveKey(password, s.Salt, s.KDF)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	plaintext, err := aead.Open(nil, s.Nonce, s.Ciphertext, ad)
	if err != nil {
		return nil, ErrBadPassword
	}
	return plaintext, nil
}
