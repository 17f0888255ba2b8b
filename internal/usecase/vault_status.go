package usecase

import (
	"context"

	"github.com/benjaminpreiss/git-vault/internal/domain"
)

// VaultStatusInput names the vault to report on. It performs no writes.
type VaultStatusInput struct {
	RepoRoot  string
	VaultPath string
	Store     domain.VaultStore
	Cache     domain.Cache
}

// VaultStatus is the supplemental read-only status reporter: it surfaces a
// vault's lifecycle state, patch count, and cache validity without
// mutating anything (no key is required to answer "is there a base" or
// "how many patches").
type VaultStatus struct{}

// NewVaultStatus returns a ready-to-use VaultStatus.
func NewVaultStatus() *VaultStatus {
	return &VaultStatus{}
}

func (uc *VaultStatus) Execute(_ context.Context, in VaultStatusInput) (*domain.Status, error) {
	state, err := in.Store.State()
	if err != nil {
		return nil, err
	}

	status := &domain.Status{Path: in.VaultPath, State: state}

	if state == domain.StateAbsent {
		return status, nil
	}

	patches, err := in.Store.ListPatches()
	if err != nil {
		return nil, err
	}
	status.PatchCount = len(patches)

	stateHash, err := in.Store.ReadStateHash()
	if err != nil {
		return nil, err
	}

	valid, err := in.Cache.Valid(stateHash)
	if err != nil {
		return nil, err
	}
	status.CacheValid = valid

	present, err := in.Cache.Present()
	if err != nil {
		return nil, err
	}
	status.CachePresent = present

	return status, nil
}
