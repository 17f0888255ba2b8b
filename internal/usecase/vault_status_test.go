package usecase

import (
	"context"
	"testing"

	"github.com/benjaminpreiss/git-vault/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) statusInput() VaultStatusInput {
	return VaultStatusInput{RepoRoot: h.repoRoot, VaultPath: h.vaultPath, Store: h.store, Cache: h.cache}
}

func TestVaultStatus_AbsentVault(t *testing.T) {
	h := newHarness(t)
	status, err := NewVaultStatus().Execute(context.Background(), h.statusInput())
	require.NoError(t, err)
	assert.Equal(t, domain.StateAbsent, status.State)
	assert.Equal(t, 0, status.PatchCount)
	assert.False(t, status.CachePresent)
}

func TestVaultStatus_AfterFirstLock(t *testing.T) {
	h := newHarness(t)
	h.writeFile("a.txt", "hello")
	_, err := h.newLockVault().Execute(context.Background(), h.lockInput())
	require.NoError(t, err)

	status, err := NewVaultStatus().Execute(context.Background(), h.statusInput())
	require.NoError(t, err)
	assert.Equal(t, domain.StateBaseOnly, status.State)
	assert.Equal(t, 0, status.PatchCount)
	assert.True(t, status.CachePresent)
	assert.True(t, status.CacheValid)
}

func TestVaultStatus_CacheValidityTracksLastLockNotTarget(t *testing.T) {
	h := newHarness(t)
	h.writeFile("a.txt", "hello")
	_, err := h.newLockVault().Execute(context.Background(), h.lockInput())
	require.NoError(t, err)

	// Changing the target without locking again doesn't touch the store's
	// state hash or the cache: status reports the cache as still valid
	// against the last committed state, since CacheValid measures that
	// coherence, not whether the target has drifted since.
	h.writeFile("a.txt", "changed after last lock")

	status, err := NewVaultStatus().Execute(context.Background(), h.statusInput())
	require.NoError(t, err)
	assert.True(t, status.CachePresent)
	assert.True(t, status.CacheValid)
}

func TestVaultStatus_PatchCountAfterMultipleLocks(t *testing.T) {
	h := newHarness(t)
	h.writeFile("a.txt", "v1")
	uc := h.newLockVault()
	_, err := uc.Execute(context.Background(), h.lockInput())
	require.NoError(t, err)

	h.writeFile("a.txt", "v2")
	_, err = uc.Execute(context.Background(), h.lockInput())
	require.NoError(t, err)

	h.writeFile("a.txt", "v3")
	_, err = uc.Execute(context.Background(), h.lockInput())
	require.NoError(t, err)

	status, err := NewVaultStatus().Execute(context.Background(), h.statusInput())
	require.NoError(t, err)
	assert.Equal(t, domain.StateWithPatches, status.State)
	assert.Equal(t, 2, status.PatchCount)
}
