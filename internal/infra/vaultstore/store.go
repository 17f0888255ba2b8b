// Package vaultstore implements the on-disk layout of one vault: its base
// archive, nonces, ordered patch log, and state hash (spec §4.3, §6,
// component C3). It enforces the layout invariants (I1-I4). Every file is
// written via temp file, fsync and rename; a two-file write (ciphertext and
// nonce) is not atomic as a pair, see writePairAtomic.
package vaultstore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/benjaminpreiss/git-vault/internal/domain"
	"github.com/benjaminpreiss/git-vault/internal/infra/crypto"
	"github.com/gofrs/flock"
)

const (
	baseFileName      = "base.tar.gz.aes256gcm.enc"
	baseNonceFileName = "base.nonce"
	stateHashFileName = "state.hash"
	patchesDirName    = "patches"
)

var patchFileRe = regexp.MustCompile(`^(\d{3})\.patch\.aes256gcm\.enc$`)

// Store is the vault store for a single vault rooted at dataDir, i.e.
// R/.git-vault/data/<V>.
type Store struct {
	dataDir string
}

// New returns a Store rooted at dataDir. The directory need not exist yet;
// Ensure creates it.
func New(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

var _ domain.VaultStore = (*Store)(nil)

// Ensure creates the vault's data and patches directories if absent.
func (s *Store) Ensure() error {
	if err := os.MkdirAll(s.patchesDir(), 0o750); err != nil {
		return domain.NewError(domain.KindIOError, "vaultstore.Ensure", err)
	}
	return nil
}

func (s *Store) patchesDir() string        { return filepath.Join(s.dataDir, patchesDirName) }
func (s *Store) basePath() string          { return filepath.Join(s.dataDir, baseFileName) }
func (s *Store) baseNoncePath() string     { return filepath.Join(s.dataDir, baseNonceFileName) }
func (s *Store) stateHashPath() string     { return filepath.Join(s.dataDir, stateHashFileName) }
func (s *Store) patchPath(ref domain.PatchRef) string {
	return filepath.Join(s.patchesDir(), ref.Name()+".patch.aes256gcm.enc")
}
func (s *Store) patchNoncePath(ref domain.PatchRef) string {
	return filepath.Join(s.patchesDir(), ref.Name()+".nonce")
}

// State reports the vault's lifecycle state by inspecting which artifacts
// are present.
func (s *Store) State() (domain.State, error) {
	if _, err := os.Stat(s.basePath()); err != nil {
		if os.IsNotExist(err) {
			return domain.StateAbsent, nil
		}
		return domain.StateAbsent, domain.NewError(domain.KindIOError, "vaultstore.State", err)
	}
	patches, err := s.ListPatches()
	if err != nil {
		return domain.StateAbsent, err
	}
	if len(patches) == 0 {
		return domain.StateBaseOnly, nil
	}
	return domain.StateWithPatches, nil
}

// ReadBase returns the base archive's ciphertext and nonce.
func (s *Store) ReadBase() ([]byte, domain.Nonce, error) {
	ciphertext, err := os.ReadFile(s.basePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.Nonce{}, domain.NewError(domain.KindVaultMissing, "vaultstore.ReadBase", err)
		}
		return nil, domain.Nonce{}, domain.NewError(domain.KindIOError, "vaultstore.ReadBase", err)
	}
	nonce, err := s.readNonceFile(s.baseNoncePath())
	if err != nil {
		return nil, domain.Nonce{}, err
	}
	return ciphertext, nonce, nil
}

// WriteBase writes the base archive's ciphertext and nonce atomically. The
// base is written once, on the vault's first lock, and never rewritten.
func (s *Store) WriteBase(ciphertext []byte, nonce domain.Nonce) error {
	if err := s.Ensure(); err != nil {
		return err
	}
	return writePairAtomic(s.basePath(), ciphertext, s.baseNoncePath(), crypto.FormatNonce(nonce))
}

// ListPatches returns every stored patch ordered by index, verifying I3
// (contiguous 1..N, no gaps) and I4 (every ciphertext has a matching
// nonce file).
func (s *Store) ListPatches() ([]domain.PatchRef, error) {
	entries, err := os.ReadDir(s.patchesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, domain.NewError(domain.KindIOError, "vaultstore.ListPatches", err)
	}

	var indices []int
	for _, e := range entries {
		m := patchFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	refs := make([]domain.PatchRef, 0, len(indices))
	for i, idx := range indices {
		wantIdx := i + 1
		if idx != wantIdx {
			return nil, domain.NewError(domain.KindIOError, "vaultstore.ListPatches", domain.ErrPatchGap)
		}
		ref := domain.PatchRef{Index: idx}
		if _, err := os.Stat(s.patchNoncePath(ref)); err != nil {
			return nil, domain.NewError(domain.KindIOError, "vaultstore.ListPatches", domain.ErrMissingNonce)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// NextPatchIndex returns the index the next appended patch will receive:
// the count of existing patches, plus one.
func (s *Store) NextPatchIndex() (int, error) {
	refs, err := s.ListPatches()
	if err != nil {
		return 0, err
	}
	return len(refs) + 1, nil
}

// ReadPatch returns one patch's ciphertext and nonce.
func (s *Store) ReadPatch(ref domain.PatchRef) ([]byte, domain.Nonce, error) {
	ciphertext, err := os.ReadFile(s.patchPath(ref))
	if err != nil {
		return nil, domain.Nonce{}, domain.NewError(domain.KindIOError, "vaultstore.ReadPatch", err)
	}
	nonce, err := s.readNonceFile(s.patchNoncePath(ref))
	if err != nil {
		return nil, domain.Nonce{}, err
	}
	return ciphertext, nonce, nil
}

// AppendPatch writes a new patch's ciphertext and nonce at the next index
// (spec §4.3, §5). Each file is placed atomically; a crash between the two
// placements can leave the ciphertext without its nonce, which ListPatches
// then reports as ErrMissingNonce (see writePairAtomic).
func (s *Store) AppendPatch(ciphertext []byte, nonce domain.Nonce) (domain.PatchRef, error) {
	if err := s.Ensure(); err != nil {
		return domain.PatchRef{}, err
	}
	idx, err := s.NextPatchIndex()
	if err != nil {
		return domain.PatchRef{}, err
	}
	ref := domain.PatchRef{Index: idx}
	if err := writePairAtomic(s.patchPath(ref), ciphertext, s.patchNoncePath(ref), crypto.FormatNonce(nonce)); err != nil {
		return domain.PatchRef{}, err
	}
	return ref, nil
}

// ReadStateHash returns the vault's current state hash.
func (s *Store) ReadStateHash() (domain.Digest, error) {
	raw, err := os.ReadFile(s.stateHashPath())
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Digest{}, domain.NewError(domain.KindVaultMissing, "vaultstore.ReadStateHash", err)
		}
		return domain.Digest{}, domain.NewError(domain.KindIOError, "vaultstore.ReadStateHash", err)
	}
	d, err := crypto.ParseDigest(string(raw))
	if err != nil {
		return domain.Digest{}, domain.NewError(domain.KindIOError, "vaultstore.ReadStateHash", err)
	}
	return d, nil
}

// WriteStateHash overwrites state.hash. Per spec §5 / §9 open question 2,
// this must be called only after the corresponding base or patch write has
// been durably committed: state.hash is the last thing to change, so a
// crash beforehand leaves the vault pointing at its prior, still-valid
// state rather than at content that was never durably written.
func (s *Store) WriteStateHash(d domain.Digest) error {
	if err := s.Ensure(); err != nil {
		return err
	}
	return writeFileAtomic(s.stateHashPath(), []byte(crypto.FormatDigest(d)), 0o640)
}

// Lock acquires an advisory exclusive lock on state.hash.lock, a file beside
// state.hash, for the duration of a lock/unlock call (spec §5: a hardening
// measure, not a correctness
// guarantee — there is no protocol for multiple writers).
func (s *Store) Lock() (func(), error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	fl := flock.New(s.stateHashPath() + ".lock")
	if err := fl.Lock(); err != nil {
		return nil, domain.NewError(domain.KindIOError, "vaultstore.Lock", err)
	}
	return func() { _ = fl.Unlock() }, nil
}

// Repair returns domain.ErrDanglingPatch when the vault has a base archive
// but no state.hash — the crash window between WriteBase and the first
// WriteStateHash. It never resolves the condition itself. It does not
// replay the log, so a patch appended without a following WriteStateHash
// (the crash window between AppendPatch and WriteStateHash) is not
// detected here; when unlock replays the log (no valid cache), its final
// digest check reports that case as KindReplayMismatch.
func (s *Store) Repair() error {
	state, err := s.State()
	if err != nil {
		return err
	}
	if state == domain.StateAbsent {
		return nil
	}
	if _, err := s.ReadStateHash(); err != nil {
		if domain.IsKind(err, domain.KindVaultMissing) {
			return domain.ErrDanglingPatch
		}
		return err
	}
	return nil
}

func (s *Store) readNonceFile(path string) (domain.Nonce, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Nonce{}, domain.NewError(domain.KindIOError, "vaultstore.readNonceFile", err)
	}
	n, err := crypto.ParseNonce(string(raw))
	if err != nil {
		return domain.Nonce{}, domain.NewError(domain.KindIOError, "vaultstore.readNonceFile", err)
	}
	return n, nil
}

// writeFileAtomic writes content to a temp file beside path, fsyncs it,
// then renames it into place.
func writeFileAtomic(path string, content []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return domain.NewError(domain.KindIOError, "writeFileAtomic", err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return domain.NewError(domain.KindIOError, "writeFileAtomic", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return domain.NewError(domain.KindIOError, "writeFileAtomic", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return domain.NewError(domain.KindIOError, "writeFileAtomic", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return domain.NewError(domain.KindIOError, "writeFileAtomic", err)
	}
	return nil
}

// writePairAtomic writes two related files (a ciphertext and its nonce):
// the ciphertext is staged and fsynced as a temp file first, the nonce
// written the same way second, and only then are both renamed into place
// in the same order. The pair is not atomic: between the two renames a
// crash can leave the ciphertext without its nonce. ListPatches then
// returns ErrMissingNonce (I4) for every later call, so lock and unlock
// fail on the vault and the inconsistency is detected rather than hidden.
func writePairAtomic(path1 string, content1 []byte, path2 string, content2 string) error {
	tmp1 := path1 + ".tmp"
	tmp2 := path2 + ".tmp"

	if err := stageFile(tmp1, content1); err != nil {
		return err
	}
	if err := stageFile(tmp2, []byte(content2)); err != nil {
		_ = os.Remove(tmp1)
		return err
	}

	if err := os.Rename(tmp1, path1); err != nil {
		_ = os.Remove(tmp1)
		_ = os.Remove(tmp2)
		return domain.NewError(domain.KindIOError, "writePairAtomic", err)
	}
	if err := os.Rename(tmp2, path2); err != nil {
		// path1 is now committed without its nonce; I4 will flag this on
		// the next ListPatches rather than have the caller paper over it.
		_ = os.Remove(tmp2)
		return domain.NewError(domain.KindIOError, "writePairAtomic", fmt.Errorf("rename nonce: %w", err))
	}
	return nil
}

func stageFile(tmpPath string, content []byte) error {
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return domain.NewError(domain.KindIOError, "stageFile", err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return domain.NewError(domain.KindIOError, "stageFile", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return domain.NewError(domain.KindIOError, "stageFile", err)
	}
	if err := f.Close(); err != nil {
		return domain.NewError(domain.KindIOError, "stageFile", err)
	}
	return nil
}
