// Package app wires the storage engine's collaborators together for the
// CLI, mirroring the teacher's internal/app dependency-injection container.
package app

import (
	"path/filepath"

	"github.com/benjaminpreiss/git-vault/internal/domain"
	"github.com/benjaminpreiss/git-vault/internal/infra/cache"
	"github.com/benjaminpreiss/git-vault/internal/infra/config"
	"github.com/benjaminpreiss/git-vault/internal/infra/crypto"
	"github.com/benjaminpreiss/git-vault/internal/infra/digest"
	"github.com/benjaminpreiss/git-vault/internal/infra/git"
	"github.com/benjaminpreiss/git-vault/internal/infra/keysource"
	"github.com/benjaminpreiss/git-vault/internal/infra/logging"
	"github.com/benjaminpreiss/git-vault/internal/infra/patchengine"
	"github.com/benjaminpreiss/git-vault/internal/infra/vaultstore"
	"github.com/benjaminpreiss/git-vault/internal/usecase"
)

// vaultDirName is the per-repository directory holding every vault's
// ciphertext, cache, and log (R/.git-vault/).
const vaultDirName = ".git-vault"

// Config holds the paths the container resolves everything else from.
type Config struct {
	RepoRoot string
	RootDir  string // RepoRoot/.git-vault
	DataDir  string // RootDir/data
	CacheDir string // RootDir/cache
}

func newConfig(repoRoot string) Config {
	root := filepath.Join(repoRoot, vaultDirName)
	return Config{
		RepoRoot: repoRoot,
		RootDir:  root,
		DataDir:  filepath.Join(root, "data"),
		CacheDir: filepath.Join(root, "cache"),
	}
}

// Container holds every collaborator shared across vaults in one
// repository, plus factories for the per-vault use cases.
type Container struct {
	Config Config

	Crypto   domain.CryptoEngine
	Digester domain.Digester
	Patches  domain.PatchEngine
	Keys     domain.KeySource
	Log      *logging.Logger

	ConfigFile *config.Config
}

// New detects the repository containing dir, loads its vault-list config,
// and wires up every collaborator that does not vary per vault.
func New(dir string) (*Container, error) {
	gitClient, err := git.NewClient(dir)
	if err != nil {
		return nil, err
	}
	cfg := newConfig(gitClient.RepoRoot())

	fileCfg, err := config.Load(cfg.RepoRoot)
	if err != nil {
		return nil, err
	}

	cryptoEngine := crypto.New()
	logger := logging.New(cfg.RootDir, logging.ParseLevel(fileCfg.LogLevel))

	return &Container{
		Config:     cfg,
		Crypto:     cryptoEngine,
		Digester:   digest.New(cryptoEngine),
		Patches:    patchengine.New(),
		Keys:       keysource.NewAtRepoRoot(cfg.RepoRoot),
		Log:        logger,
		ConfigFile: fileCfg,
	}, nil
}

// VaultPaths returns the configured vault paths, in file order.
func (c *Container) VaultPaths() []string {
	paths := make([]string, 0, len(c.ConfigFile.Vaults))
	for _, v := range c.ConfigFile.Vaults {
		paths = append(paths, v.Path)
	}
	return paths
}

// store constructs the VaultStore for one vault path.
func (c *Container) store(vaultPath string) *vaultstore.Store {
	return vaultstore.New(filepath.Join(c.Config.DataDir, filepath.FromSlash(vaultPath)))
}

// cache constructs the Cache for one vault path.
func (c *Container) cache(vaultPath string) *cache.Cache {
	return cache.New(filepath.Join(c.Config.CacheDir, filepath.FromSlash(vaultPath)), c.Digester)
}

// LockVaultUseCase returns a ready-to-use LockVault use case.
func (c *Container) LockVaultUseCase() *usecase.LockVault {
	return usecase.NewLockVault(c.Crypto, c.Digester, c.Patches, c.Keys, c.Log)
}

// UnlockVaultUseCase returns a ready-to-use UnlockVault use case.
func (c *Container) UnlockVaultUseCase() *usecase.UnlockVault {
	return usecase.NewUnlockVault(c.Crypto, c.Digester, c.Patches, c.Keys, c.Log)
}

// VaultStatusUseCase returns a ready-to-use VaultStatus use case.
func (c *Container) VaultStatusUseCase() *usecase.VaultStatus {
	return usecase.NewVaultStatus()
}

// LockInput builds a LockVaultInput for vaultPath, with its own Store and
// Cache wired in.
func (c *Container) LockInput(vaultPath string) usecase.LockVaultInput {
	return usecase.LockVaultInput{
		RepoRoot:  c.Config.RepoRoot,
		VaultPath: vaultPath,
		Store:     c.store(vaultPath),
		Cache:     c.cache(vaultPath),
	}
}

// UnlockInput builds an UnlockVaultInput for vaultPath.
func (c *Container) UnlockInput(vaultPath string) usecase.UnlockVaultInput {
	return usecase.UnlockVaultInput{
		RepoRoot:  c.Config.RepoRoot,
		VaultPath: vaultPath,
		Store:     c.store(vaultPath),
		Cache:     c.cache(vaultPath),
	}
}

// StatusInput builds a VaultStatusInput for vaultPath.
func (c *Container) StatusInput(vaultPath string) usecase.VaultStatusInput {
	return usecase.VaultStatusInput{
		RepoRoot:  c.Config.RepoRoot,
		VaultPath: vaultPath,
		Store:     c.store(vaultPath),
		Cache:     c.cache(vaultPath),
	}
}
