package usecase

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/benjaminpreiss/git-vault/internal/domain"
	"github.com/benjaminpreiss/git-vault/internal/infra/cache"
	"github.com/benjaminpreiss/git-vault/internal/infra/crypto"
	"github.com/benjaminpreiss/git-vault/internal/infra/digest"
	"github.com/benjaminpreiss/git-vault/internal/infra/keysource"
	"github.com/benjaminpreiss/git-vault/internal/infra/patchengine"
	"github.com/benjaminpreiss/git-vault/internal/infra/vaultstore"
	"github.com/stretchr/testify/require"
)

const testKey = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

// noopLogger discards every event; usecase tests assert on return values and
// on-disk state, not on log output.
type noopLogger struct{}

func (noopLogger) Info(string, string)  {}
func (noopLogger) Warn(string, string)  {}
func (noopLogger) Error(string, string) {}

// fixedKeySource returns a constant key without touching the filesystem.
type fixedKeySource struct{ key string }

func (f fixedKeySource) MasterKey() (string, error) { return f.key, nil }

// harness wires one vault's worth of collaborators rooted under a fresh
// temp directory, mirroring how the CLI layer would construct them per
// vault path.
type harness struct {
	t         *testing.T
	repoRoot  string
	vaultPath string
	targetDir string
	store     *vaultstore.Store
	cache     *cache.Cache
	crypto    *crypto.Engine
	digester  *digest.Digester
	patches   *patchengine.Engine
	keys      domain.KeySource
	log       domain.Logger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	vaultPath := "secrets"
	targetDir := filepath.Join(root, vaultPath)
	require.NoError(t, os.MkdirAll(targetDir, 0o750))

	cryptoEngine := crypto.New()
	return &harness{
		t:         t,
		repoRoot:  root,
		vaultPath: vaultPath,
		targetDir: targetDir,
		store:     vaultstore.New(filepath.Join(root, ".git-vault", "data", vaultPath)),
		cache:     cache.New(filepath.Join(root, ".git-vault", "cache", vaultPath), digest.New(cryptoEngine)),
		crypto:    cryptoEngine,
		digester:  digest.New(cryptoEngine),
		patches:   patchengine.New(),
		keys:      fixedKeySource{key: testKey},
		log:       noopLogger{},
	}
}

func (h *harness) newLockVault() *LockVault {
	return NewLockVault(h.crypto, h.digester, h.patches, h.keys, h.log)
}

func (h *harness) newUnlockVault() *UnlockVault {
	return NewUnlockVault(h.crypto, h.digester, h.patches, h.keys, h.log)
}

func (h *harness) lockInput() LockVaultInput {
	return LockVaultInput{RepoRoot: h.repoRoot, VaultPath: h.vaultPath, Store: h.store, Cache: h.cache}
}

func (h *harness) unlockInput() UnlockVaultInput {
	return UnlockVaultInput{RepoRoot: h.repoRoot, VaultPath: h.vaultPath, Store: h.store, Cache: h.cache}
}

func (h *harness) writeFile(rel, content string) {
	h.t.Helper()
	dst := filepath.Join(h.targetDir, filepath.FromSlash(rel))
	require.NoError(h.t, os.MkdirAll(filepath.Dir(dst), 0o750))
	require.NoError(h.t, os.WriteFile(dst, []byte(content), 0o640))
}

func (h *harness) removeFile(rel string) {
	h.t.Helper()
	require.NoError(h.t, os.Remove(filepath.Join(h.targetDir, filepath.FromSlash(rel))))
}

func (h *harness) readFile(rel string) string {
	h.t.Helper()
	b, err := os.ReadFile(filepath.Join(h.targetDir, filepath.FromSlash(rel)))
	require.NoError(h.t, err)
	return string(b)
}

// keysourceAtEnvFile builds the real keysource.EnvFileSource over a temp
// .env file, for end-to-end key resolution instead of fixedKeySource. No
// test in this package calls it.
func keysourceAtEnvFile(t *testing.T, key string) domain.KeySource {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ".git-vault.env")
	require.NoError(t, os.WriteFile(path, []byte("GIT_VAULT_MASTER_KEY="+key+"\n"), 0o640))
	return keysource.New(path, "")
}
