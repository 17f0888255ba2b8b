package domain

import (
	"errors"
	"fmt"
)

// ErrKind classifies a VaultError per the error-handling contract: most
// kinds are fatal and propagate to the caller; CacheInvalid is the only
// kind the controller recovers from internally.
type ErrKind string

// Error kinds.
const (
	KindInvalidKey     ErrKind = "InvalidKey"
	KindIOError        ErrKind = "IOError"
	KindAuthError      ErrKind = "AuthError"
	KindCorruptPatch   ErrKind = "CorruptPatch"
	KindReplayMismatch ErrKind = "ReplayMismatch"
	KindCacheInvalid   ErrKind = "CacheInvalid"
	KindNoChange       ErrKind = "NoChange"
	KindVaultMissing   ErrKind = "VaultMissing"
)

// VaultError is the typed error every core operation returns on failure.
type VaultError struct {
	Kind ErrKind
	Op   string
	Err  error
}

func (e *VaultError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *VaultError) Unwrap() error { return e.Err }

// NewError builds a VaultError of the given kind for the given operation.
func NewError(kind ErrKind, op string, err error) *VaultError {
	return &VaultError{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether err is a VaultError of the given kind.
func IsKind(err error, kind ErrKind) bool {
	var ve *VaultError
	if errors.As(err, &ve) {
		return ve.Kind == kind
	}
	return false
}

// Sentinel errors for conditions that are not VaultError-wrapped because
// they carry no underlying cause.
var (
	// ErrDanglingPatch is reported by Store.Repair when a vault has a base
	// archive but no state.hash — the crash window between writing the base
	// and writing its state.hash. It is never resolved implicitly. A patch
	// appended without a following state.hash update is not detected by
	// Repair.
	ErrDanglingPatch = errors.New("vault has a patch beyond its committed state hash")

	// ErrPatchGap is returned when patch indices are not contiguous 1..N (I3).
	ErrPatchGap = errors.New("vault patch log has a gap in its index sequence")

	// ErrMissingNonce is returned when a patch or base file has no matching
	// nonce file, or vice versa (I4).
	ErrMissingNonce = errors.New("vault artifact is missing its nonce file")

	// ErrEmptyChangeSet signals step 7 of lock(): digests differed but the
	// synthesized change set carries no records. Per spec this is treated
	// as a no-op, not a failure.
	ErrEmptyChangeSet = errors.New("synthesized change set is empty")

	// ErrInvalidVaultPath is returned (wrapped in a KindCorruptPatch error)
	// for a file path inside a vault that contains ':' or a newline, which
	// the change-file encoding cannot carry. Configured vault paths are not
	// checked against it.
	ErrInvalidVaultPath = errors.New("invalid vault path")
)
