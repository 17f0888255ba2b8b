// Package domain holds the core types, sentinel errors, and port interfaces
// of the vault storage engine. It has no knowledge of the filesystem layout,
// the wire format of a patch, or the CLI — those live in internal/infra and
// internal/usecase, which depend on domain, never the reverse.
package domain

import "fmt"

// State is a vault's position in its append-only lifecycle (spec §4.5).
type State int

// Vault lifecycle states. Transitions are strictly forward: Absent ->
// BaseOnly -> WithPatches -> WithPatches ...
const (
	StateAbsent State = iota
	StateBaseOnly
	StateWithPatches
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "Absent"
	case StateBaseOnly:
		return "BaseOnly"
	case StateWithPatches:
		return "WithPatches"
	default:
		return "Unknown"
	}
}

// Digest is a 32-byte SHA-256 fingerprint, used both as a directory digest
// (C2) and as a state hash.
type Digest [32]byte

func (d Digest) String() string { return fmt.Sprintf("%x", [32]byte(d)) }

// IsZero reports whether d is the zero digest (no content ever hashed into it).
func (d Digest) IsZero() bool { return d == Digest{} }

// Nonce is a 96-bit AES-GCM nonce, rendered on disk as 24 lowercase hex
// characters.
type Nonce [12]byte

func (n Nonce) String() string { return fmt.Sprintf("%x", [12]byte(n)) }

// PatchRef identifies one stored, encrypted patch by its 1-based index.
type PatchRef struct {
	Index int
}

// Name renders the patch's zero-padded three-digit identifier, e.g. "001".
func (p PatchRef) Name() string { return fmt.Sprintf("%03d", p.Index) }

// Status summarizes a vault's on-disk state for reporting (the supplemental
// `status` command), without mutating anything.
type Status struct {
	Path         string
	State        State
	PatchCount   int
	CacheValid   bool
	CachePresent bool
}
