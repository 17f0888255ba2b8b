// Package keysource resolves the vault's 256-bit master key from an env
// file kept outside version control (spec §4.1, §9): the key is never
// embedded in config or committed alongside the vault it protects.
package keysource

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/benjaminpreiss/git-vault/internal/domain"
	"github.com/benjaminpreiss/git-vault/internal/infra/crypto"
	"github.com/joho/godotenv"
)

// DefaultFileName is the env file's name at the repository root.
const DefaultFileName = ".git-vault.env"

// DefaultVarName is the environment variable the key is read under.
const DefaultVarName = "GIT_VAULT_MASTER_KEY"

// EnvFileSource implements domain.KeySource by reading a 64-character
// lowercase-hex key out of a dotenv-style file.
type EnvFileSource struct {
	path    string
	varName string
}

// New returns an EnvFileSource reading varName from path. An empty varName
// defaults to DefaultVarName.
func New(path, varName string) *EnvFileSource {
	if varName == "" {
		varName = DefaultVarName
	}
	return &EnvFileSource{path: path, varName: varName}
}

// NewAtRepoRoot returns an EnvFileSource for the conventional
// <repoRoot>/.git-vault.env file.
func NewAtRepoRoot(repoRoot string) *EnvFileSource {
	return New(filepath.Join(repoRoot, DefaultFileName), DefaultVarName)
}

var _ domain.KeySource = (*EnvFileSource)(nil)

// MasterKey reads and validates the master key. The file is parsed with
// godotenv rather than loaded into the process environment, so a key never
// leaks into the environment of child processes the CLI might spawn.
func (s *EnvFileSource) MasterKey() (string, error) {
	vars, err := godotenv.Read(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.NewError(domain.KindInvalidKey, "keysource.MasterKey", fmt.Errorf("%s not found", s.path))
		}
		return "", domain.NewError(domain.KindInvalidKey, "keysource.MasterKey", err)
	}

	key, ok := vars[s.varName]
	if !ok {
		return "", domain.NewError(domain.KindInvalidKey, "keysource.MasterKey", fmt.Errorf("%s not set in %s", s.varName, s.path))
	}

	if _, err := crypto.ParseKey(key); err != nil {
		return "", err
	}
	return key, nil
}
