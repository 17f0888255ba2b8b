// Package crypto provides the authenticated-encryption and hashing
// primitives the vault storage engine builds on (spec §4.1, component C1).
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"

	"github.com/benjaminpreiss/git-vault/internal/domain"
)

// KeySize is the AES-256 key size in bytes.
const KeySize = 32

// NonceSize is the AES-GCM nonce size in bytes (96 bits).
const NonceSize = 12

var (
	errInvalidKeyLength   = errors.New("master key must be 64 hex characters")
	errInvalidKeyAlphabet = errors.New("master key must be lowercase hexadecimal")
)

// Engine implements domain.CryptoEngine with AES-256-GCM and SHA-256. It
// holds no key state between calls: every key is supplied by the caller per
// operation and never persisted, per spec §4.1's contract. Unlike a cache
// of prior ciphertexts, Engine draws a fresh nonce on every RandomNonce
// call — caching plaintext-to-ciphertext would violate I2 (each nonce used
// for exactly one encryption).
type Engine struct{}

// New returns a ready-to-use Engine.
func New() *Engine { return &Engine{} }

var _ domain.CryptoEngine = (*Engine)(nil)

func newGCM(key [32]byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, NonceSize)
}

// Encrypt seals all of src under AES-256-GCM with key and nonce, writing
// ciphertext‖tag to dst as a single contiguous stream (the AEAD's default
// framing).
func (e *Engine) Encrypt(dst io.Writer, src io.Reader, key [32]byte, nonce domain.Nonce) error {
	gcm, err := newGCM(key)
	if err != nil {
		return domain.NewError(domain.KindIOError, "crypto.Encrypt", err)
	}

	plaintext, err := io.ReadAll(src)
	if err != nil {
		return domain.NewError(domain.KindIOError, "crypto.Encrypt", err)
	}

	sealed := gcm.Seal(nil, nonce[:], plaintext, nil)
	if _, err := dst.Write(sealed); err != nil {
		return domain.NewError(domain.KindIOError, "crypto.Encrypt", err)
	}
	return nil
}

// Decrypt reverses Encrypt. On authentication failure it returns a
// KindAuthError error and writes nothing to dst: no partial plaintext ever
// escapes a failed call (spec §4.1, §7).
func (e *Engine) Decrypt(dst io.Writer, src io.Reader, key [32]byte, nonce domain.Nonce) error {
	gcm, err := newGCM(key)
	if err != nil {
		return domain.NewError(domain.KindIOError, "crypto.Decrypt", err)
	}

	ciphertext, err := io.ReadAll(src)
	if err != nil {
		return domain.NewError(domain.KindIOError, "crypto.Decrypt", err)
	}

	plaintext, err := gcm.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return domain.NewError(domain.KindAuthError, "crypto.Decrypt", err)
	}

	if _, err := dst.Write(plaintext); err != nil {
		return domain.NewError(domain.KindIOError, "crypto.Decrypt", err)
	}
	return nil
}

// HashSHA256 returns the SHA-256 digest of everything read from src.
func (e *Engine) HashSHA256(src io.Reader) (domain.Digest, error) {
	h := sha256.New()
	if _, err := io.Copy(h, src); err != nil {
		return domain.Digest{}, domain.NewError(domain.KindIOError, "crypto.HashSHA256", err)
	}
	var d domain.Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// RandomNonce returns 12 fresh bytes from the CSPRNG. Each call draws an
// independent sample; callers must use the result for exactly one
// encryption (I2) and never reuse it.
func (e *Engine) RandomNonce() (domain.Nonce, error) {
	var n domain.Nonce
	if _, err := io.ReadFull(rand.Reader, n[:]); err != nil {
		return domain.Nonce{}, domain.NewError(domain.KindIOError, "crypto.RandomNonce", err)
	}
	return n, nil
}

// ParseKey decodes a 64-character lowercase-hex master key into 32 bytes,
// validating length and alphabet per spec §4.1 and §7 (KindInvalidKey).
func ParseKey(hexKey string) ([32]byte, error) {
	var key [32]byte
	if len(hexKey) != 64 {
		return key, domain.NewError(domain.KindInvalidKey, "crypto.ParseKey", errInvalidKeyLength)
	}
	for i := 0; i < len(hexKey); i++ {
		c := hexKey[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return key, domain.NewError(domain.KindInvalidKey, "crypto.ParseKey", errInvalidKeyAlphabet)
		}
	}
	decoded, err := hex.DecodeString(hexKey)
	if err != nil {
		return key, domain.NewError(domain.KindInvalidKey, "crypto.ParseKey", err)
	}
	copy(key[:], decoded)
	return key, nil
}

// ZeroKey overwrites a key's bytes with zero, best-effort, once the caller
// is done with it (spec §9: the master key is process-scoped and zeroed on
// drop).
func ZeroKey(key *[32]byte) {
	for i := range key {
		key[i] = 0
	}
}

// FormatNonce renders a nonce as the 24-lowercase-hex-character representation
// stored in a .nonce file (spec §6), with no trailing newline.
func FormatNonce(n domain.Nonce) string { return hex.EncodeToString(n[:]) }

// ParseNonce parses the contents of a .nonce file.
func ParseNonce(s string) (domain.Nonce, error) {
	var n domain.Nonce
	if len(s) != NonceSize*2 {
		return n, errors.New("nonce must be 24 hex characters")
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return n, err
	}
	copy(n[:], decoded)
	return n, nil
}

// FormatDigest renders a digest as 64 lowercase hex characters, with no
// trailing newline, matching the state.hash on-disk format (spec §6).
func FormatDigest(d domain.Digest) string { return hex.EncodeToString(d[:]) }

// ParseDigest parses the contents of a state.hash file.
func ParseDigest(s string) (domain.Digest, error) {
	var d domain.Digest
	if len(s) != sha256.Size*2 {
		return d, errors.New("digest must be 64 hex characters")
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return d, err
	}
	copy(d[:], decoded)
	return d, nil
}
