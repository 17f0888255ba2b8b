package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsEmptyConfig(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.Vaults)
	assert.Empty(t, cfg.Warnings)
}

func TestLoad_ParsesVaultsAndLog(t *testing.T) {
	root := t.TempDir()
	toml := `
[[vaults]]
path = "secrets"

[[vaults]]
path = "config/prod"

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(toml), 0o640))

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Len(t, cfg.Vaults, 2)
	assert.Equal(t, "secrets", cfg.Vaults[0].Path)
	assert.Equal(t, "config/prod", cfg.Vaults[1].Path)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Empty(t, cfg.Warnings)
}

func TestLoad_WarnsOnUnknownKeys(t *testing.T) {
	root := t.TempDir()
	toml := `
[[vaults]]
path = "secrets"
nickname = "primary"

[bogus]
x = 1
`
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(toml), 0o640))

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Len(t, cfg.Vaults, 1)
	assert.Contains(t, cfg.Warnings, "unknown key in [[vaults]]: nickname")
	assert.Contains(t, cfg.Warnings, "unknown section: bogus")
}

func TestLoad_RejectsMalformedTOML(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("not = valid = toml ["), 0o640))

	_, err := Load(root)
	require.Error(t, err)
}
