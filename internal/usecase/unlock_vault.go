package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/benjaminpreiss/git-vault/internal/domain"
	"github.com/benjaminpreiss/git-vault/internal/infra/crypto"
)

// UnlockVaultInput names the vault to unlock, with its pre-constructed
// store and cache.
type UnlockVaultInput struct {
	RepoRoot  string
	VaultPath string
	Store     domain.VaultStore
	Cache     domain.Cache
}

// UnlockVaultOutput reports how the target was produced.
type UnlockVaultOutput struct {
	FromCache bool
}

// UnlockVault is the use case implementing spec §4.5 unlock(vault_path).
type UnlockVault struct {
	crypto   domain.CryptoEngine
	digester domain.Digester
	patches  domain.PatchEngine
	keys     domain.KeySource
	log      domain.Logger
}

// NewUnlockVault wires UnlockVault's call-invariant collaborators.
func NewUnlockVault(crypto domain.CryptoEngine, digester domain.Digester, patches domain.PatchEngine, keys domain.KeySource, log domain.Logger) *UnlockVault {
	return &UnlockVault{crypto: crypto, digester: digester, patches: patches, keys: keys, log: log}
}

func (uc *UnlockVault) Execute(_ context.Context, in UnlockVaultInput) (*UnlockVaultOutput, error) {
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

	state, err := in.Store.State()
	if err != nil {
		return nil, err
	}
	if state == domain.StateAbsent {
		return nil, domain.NewError(domain.KindVaultMissing, "UnlockVault.Execute", fmt.Errorf("vault %q has no base", in.VaultPath))
	}

	stateHash, err := in.Store.ReadStateHash()
	if err != nil {
		return nil, err
	}

	targetDir := filepath.Join(in.RepoRoot, filepath.FromSlash(in.VaultPath))

	if valid, err := in.Cache.Valid(stateHash); err != nil {
		return nil, err
	} else if valid {
		if err := in.Cache.CopyInto(targetDir); err != nil {
			return nil, err
		}
		uc.log.Info("unlock", fmt.Sprintf("%q served from cache", in.VaultPath))
		return &UnlockVaultOutput{FromCache: true}, nil
	}

	uc.log.Info("unlock", fmt.Sprintf("%q cache invalid or absent, replaying", in.VaultPath))

	if err := os.RemoveAll(targetDir); err != nil {
		return nil, domain.NewError(domain.KindIOError, "UnlockVault.Execute", err)
	}
	if err := os.MkdirAll(targetDir, 0o750); err != nil {
		return nil, domain.NewError(domain.KindIOError, "UnlockVault.Execute", err)
	}

	if err := replayInto(targetDir, key, in.Store, uc.patches, uc.crypto); err != nil {
		return nil, err
	}

	finalHash, err := uc.digester.DigestDir(targetDir)
	if err != nil {
		return nil, err
	}
	if finalHash != stateHash {
		return nil, domain.NewError(domain.KindReplayMismatch, "UnlockVault.Execute", fmt.Errorf("replayed digest does not match state hash for %q", in.VaultPath))
	}

	if err := in.Cache.Refresh(targetDir, finalHash); err != nil {
		return nil, err
	}

	uc.log.Info("unlock", fmt.Sprintf("%q replayed and verified", in.VaultPath))
	return &UnlockVaultOutput{FromCache: false}, nil
}
