package cli

import (
	"errors"

	"github.com/benjaminpreiss/git-vault/internal/app"
)

// errNoContainer is returned when a command that needs a git repository is
// run from outside one.
var errNoContainer = errors.New("not inside a git repository")

// resolveVaultPaths returns the vault paths to operate on: explicit args if
// given, otherwise every vault configured in .git-vault.toml.
func resolveVaultPaths(c *app.Container, args []string) ([]string, error) {
	if c == nil {
		return nil, errNoContainer
	}
	if len(args) > 0 {
		return args, nil
	}
	paths := c.VaultPaths()
	if len(paths) == 0 {
		return nil, errors.New("no vault path given and none configured in .git-vault.toml")
	}
	return paths, nil
}
