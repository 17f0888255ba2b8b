package domain

import "io"

// CryptoEngine is C1: authenticated encryption, hashing, and randomness.
// Implementations never persist the key; callers own its lifetime.
type CryptoEngine interface {
	// Encrypt streams plaintext through AES-256-GCM under key and nonce,
	// writing ciphertext‖tag to dst.
	Encrypt(dst io.Writer, src io.Reader, key [32]byte, nonce Nonce) error

	// Decrypt reverses Encrypt. On tag mismatch it returns a KindAuthError
	// VaultError and writes nothing to dst.
	Decrypt(dst io.Writer, src io.Reader, key [32]byte, nonce Nonce) error

	// HashSHA256 returns the SHA-256 digest of everything read from src.
	HashSHA256(src io.Reader) (Digest, error)

	// RandomNonce returns 12 fresh cryptographically random bytes.
	RandomNonce() (Nonce, error)
}

// Digester is C2: directory content digest.
type Digester interface {
	// DigestDir returns hash_sha256(concat(hash_sha256(file) for file in
	// lexicographic path order)) over regular files under root. Symlinks,
	// directories, and metadata are excluded.
	DigestDir(root string) (Digest, error)
}

// VaultStore is C3: the on-disk layout of one vault.
type VaultStore interface {
	State() (State, error)

	ReadBase() (ciphertext []byte, nonce Nonce, err error)
	WriteBase(ciphertext []byte, nonce Nonce) error

	ListPatches() ([]PatchRef, error)
	NextPatchIndex() (int, error)
	ReadPatch(ref PatchRef) (ciphertext []byte, nonce Nonce, err error)
	AppendPatch(ciphertext []byte, nonce Nonce) (PatchRef, error)

	ReadStateHash() (Digest, error)
	WriteStateHash(d Digest) error

	// Lock acquires the vault's advisory lock (a lock file beside
	// state.hash) for the duration of a lock/unlock call and returns a
	// release function (spec §5).
	Lock() (unlock func(), err error)
}

// PatchEngine is C4: change-set synthesis, encoding, and application.
type PatchEngine interface {
	// Synthesize compares previous (prev) against current (cur) directory
	// trees and returns the change set described in spec §4.4.
	Synthesize(prev, cur string) (ChangeSet, error)

	// Encode renders a change set as the ASCII change-file format.
	Encode(cs ChangeSet) ([]byte, error)

	// Decode parses the ASCII change-file format back into a change set.
	Decode(raw []byte) (ChangeSet, error)

	// Apply replays a change set onto target, in file order.
	Apply(target string, cs ChangeSet) error
}

// Cache mirrors a vault's plaintext content outside the committed tree.
type Cache interface {
	// Valid reports whether the cache's stored hash equals want AND a fresh
	// re-digest of the cache content also equals want (I6).
	Valid(want Digest) (bool, error)

	// CopyInto copies the cache's content into target.
	CopyInto(target string) error

	// Refresh replaces the cache with a mirror of source and records hash.
	Refresh(source string, hash Digest) error

	// Present reports whether a cache mirror has ever been written, without
	// judging its validity (used by the read-only status report).
	Present() (bool, error)
}

// KeySource resolves the 256-bit master key.
type KeySource interface {
	MasterKey() (string, error) // 64 lowercase hex characters
}

// Logger receives structured progress events from the controller.
type Logger interface {
	Info(category, msg string)
	Warn(category, msg string)
	Error(category, msg string)
}
