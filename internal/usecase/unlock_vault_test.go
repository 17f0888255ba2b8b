package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/benjaminpreiss/git-vault/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnlockVault_MissingVaultIsError(t *testing.T) {
	h := newHarness(t)
	_, err := h.newUnlockVault().Execute(context.Background(), h.unlockInput())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindVaultMissing))
}

func TestUnlockVault_ServesFromCacheWithoutReplay(t *testing.T) {
	h := newHarness(t)
	h.writeFile("a.txt", "hello")
	_, err := h.newLockVault().Execute(context.Background(), h.lockInput())
	require.NoError(t, err)

	// Mutate the target after locking: unlock must restore from cache, not
	// from whatever currently sits in the target directory.
	h.writeFile("a.txt", "tampered")

	out, err := h.newUnlockVault().Execute(context.Background(), h.unlockInput())
	require.NoError(t, err)
	assert.True(t, out.FromCache)
	assert.Equal(t, "hello", h.readFile("a.txt"))
}

func TestUnlockVault_ReplaysWhenCacheMissing(t *testing.T) {
	h := newHarness(t)
	h.writeFile("a.txt", "hello")
	h.writeFile("nested/b.txt", "world")
	_, err := h.newLockVault().Execute(context.Background(), h.lockInput())
	require.NoError(t, err)

	// Drop the cache to force a full replay from base + patches.
	require.NoError(t, os.RemoveAll(filepath.Join(h.repoRoot, ".git-vault", "cache", h.vaultPath)))
	require.NoError(t, os.RemoveAll(h.targetDir))
	require.NoError(t, os.MkdirAll(h.targetDir, 0o750))

	out, err := h.newUnlockVault().Execute(context.Background(), h.unlockInput())
	require.NoError(t, err)
	assert.False(t, out.FromCache)
	assert.Equal(t, "hello", h.readFile("a.txt"))
	assert.Equal(t, "world", h.readFile("nested/b.txt"))
}

func TestUnlockVault_ReplaysAcrossMultiplePatches(t *testing.T) {
	h := newHarness(t)
	h.writeFile("a.txt", "v1")
	uc := h.newLockVault()
	_, err := uc.Execute(context.Background(), h.lockInput())
	require.NoError(t, err)

	h.writeFile("a.txt", "v2")
	_, err = uc.Execute(context.Background(), h.lockInput())
	require.NoError(t, err)

	h.writeFile("a.txt", "v3")
	h.writeFile("c.txt", "created late")
	_, err = uc.Execute(context.Background(), h.lockInput())
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(filepath.Join(h.repoRoot, ".git-vault", "cache", h.vaultPath)))
	require.NoError(t, os.RemoveAll(h.targetDir))
	require.NoError(t, os.MkdirAll(h.targetDir, 0o750))

	out, err := h.newUnlockVault().Execute(context.Background(), h.unlockInput())
	require.NoError(t, err)
	assert.False(t, out.FromCache)
	assert.Equal(t, "v3", h.readFile("a.txt"))
	assert.Equal(t, "created late", h.readFile("c.txt"))
}

func TestUnlockVault_WrongKeySurfacesAuthError(t *testing.T) {
	h := newHarness(t)
	h.writeFile("a.txt", "hello")
	_, err := h.newLockVault().Execute(context.Background(), h.lockInput())
	require.NoError(t, err)

	// Force a replay (skip the cache) and swap in a different, validly
	// formatted key: decrypting the base under the wrong key must fail
	// authentication rather than silently produce garbage plaintext.
	require.NoError(t, os.RemoveAll(filepath.Join(h.repoRoot, ".git-vault", "cache", h.vaultPath)))
	wrongKey := "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	uc := NewUnlockVault(h.crypto, h.digester, h.patches, fixedKeySource{key: wrongKey}, h.log)

	_, err = uc.Execute(context.Background(), h.unlockInput())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindAuthError))
}

func TestUnlockVault_RejectsTamperedCacheAndFallsBackToReplay(t *testing.T) {
	h := newHarness(t)
	h.writeFile("a.txt", "hello")
	_, err := h.newLockVault().Execute(context.Background(), h.lockInput())
	require.NoError(t, err)

	// Corrupt the cache's content directly, bypassing Refresh, so its
	// recorded hash no longer matches a fresh re-digest (I6).
	cacheContentDir := filepath.Join(h.repoRoot, ".git-vault", "cache", h.vaultPath, "content")
	require.NoError(t, os.WriteFile(filepath.Join(cacheContentDir, "a.txt"), []byte("corrupted"), 0o640))

	out, err := h.newUnlockVault().Execute(context.Background(), h.unlockInput())
	require.NoError(t, err)
	assert.False(t, out.FromCache)
	assert.Equal(t, "hello", h.readFile("a.txt"))
}
