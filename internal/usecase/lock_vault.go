package usecase

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/benjaminpreiss/git-vault/internal/domain"
	"github.com/benjaminpreiss/git-vault/internal/infra/archive"
	"github.com/benjaminpreiss/git-vault/internal/infra/crypto"
)

// LockVaultInput names the vault to lock. Store and Cache are rooted at
// that vault's own data/cache directories; the CLI layer constructs them
// per vault path before calling Execute.
type LockVaultInput struct {
	RepoRoot  string
	VaultPath string // "/"-separated, relative to RepoRoot
	Store     domain.VaultStore
	Cache     domain.Cache
}

// LockVaultOutput reports whether lock actually wrote a new base or patch.
type LockVaultOutput struct {
	Changed    bool
	NewPatch   domain.PatchRef
	WroteBase  bool
	FinalState domain.State
}

// LockVault is the use case implementing spec §4.5 lock(vault_path).
type LockVault struct {
	crypto   domain.CryptoEngine
	digester domain.Digester
	patches  domain.PatchEngine
	keys     domain.KeySource
	log      domain.Logger
}

// NewLockVault wires LockVault's call-invariant collaborators.
func NewLockVault(crypto domain.CryptoEngine, digester domain.Digester, patches domain.PatchEngine, keys domain.KeySource, log domain.Logger) *LockVault {
	return &LockVault{crypto: crypto, digester: digester, patches: patches, keys: keys, log: log}
}

func (uc *LockVault) Execute(_ context.Context, in LockVaultInput) (*LockVaultOutput, error) {
	keyHex, err := uc.keys.MasterKey()
	if err != nil {
		return nil, err
	}
	key, err := crypto.ParseKey(keyHex)
	if err != nil {
		return nil, err
	}
	defer crypto.ZeroKey(&key)

	release, err := in.Store.Lock()
	if err != nil {
		return nil, err
	}
	defer release()

	targetDir := filepath.Join(in.RepoRoot, filepath.FromSlash(in.VaultPath))

	currentHash, err := uc.digester.DigestDir(targetDir)
	if err != nil {
		return nil, err
	}

	state, err := in.Store.State()
	if err != nil {
		return nil, err
	}

	if state == domain.StateAbsent {
		if err := uc.writeBase(targetDir, key, currentHash, in.Store); err != nil {
			return nil, err
		}
		if err := in.Cache.Refresh(targetDir, currentHash); err != nil {
			return nil, err
		}
		uc.log.Info("lock", fmt.Sprintf("created base snapshot for %q", in.VaultPath))
		return &LockVaultOutput{Changed: true, WroteBase: true, FinalState: domain.StateBaseOnly}, nil
	}

	prevHash, err := in.Store.ReadStateHash()
	if err != nil {
		return nil, err
	}
	if currentHash == prevHash {
		uc.log.Info("lock", fmt.Sprintf("%q unchanged, nothing to do", in.VaultPath))
		return &LockVaultOutput{Changed: false, FinalState: state}, nil
	}

	scratch, err := os.MkdirTemp("", "git-vault-prev-*")
	if err != nil {
		return nil, domain.NewError(domain.KindIOError, "LockVault.Execute", err)
	}
	defer os.RemoveAll(scratch)

	if err := replayInto(scratch, key, in.Store, uc.patches, uc.crypto); err != nil {
		return nil, err
	}

	cs, err := uc.patches.Synthesize(scratch, targetDir)
	if err != nil {
		return nil, err
	}
	if cs.Empty() {
		uc.log.Warn("lock", fmt.Sprintf("%q digest changed but synthesized change set is empty", in.VaultPath))
		return &LockVaultOutput{Changed: false, FinalState: state}, nil
	}

	raw, err := uc.patches.Encode(cs)
	if err != nil {
		return nil, err
	}
	nonce, err := uc.crypto.RandomNonce()
	if err != nil {
		return nil, err
	}
	var ciphertext bytes.Buffer
	if err := uc.crypto.Encrypt(&ciphertext, bytes.NewReader(raw), key, nonce); err != nil {
		return nil, err
	}
	ref, err := in.Store.AppendPatch(ciphertext.Bytes(), nonce)
	if err != nil {
		return nil, err
	}

	if err := in.Store.WriteStateHash(currentHash); err != nil {
		return nil, err
	}
	if err := in.Cache.Refresh(targetDir, currentHash); err != nil {
		return nil, err
	}

	uc.log.Info("lock", fmt.Sprintf("%q: appended patch %s (%d records)", in.VaultPath, ref.Name(), len(cs.Records)))
	return &LockVaultOutput{Changed: true, NewPatch: ref, FinalState: domain.StateWithPatches}, nil
}

func (uc *LockVault) writeBase(targetDir string, key [32]byte, hash domain.Digest, store domain.VaultStore) error {
	var packed bytes.Buffer
	if err := archive.Pack(&packed, targetDir); err != nil {
		return err
	}

	nonce, err := uc.crypto.RandomNonce()
	if err != nil {
		return err
	}
	var ciphertext bytes.Buffer
	if err := uc.crypto.Encrypt(&ciphertext, &packed, key, nonce); err != nil {
		return err
	}
	if err := store.WriteBase(ciphertext.Bytes(), nonce); err != nil {
		return err
	}
	return store.WriteStateHash(hash)
}
