// Package cli provides the command-line interface for git-vault.
package cli

import (
	"fmt"

	"github.com/benjaminpreiss/git-vault/internal/app"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command for git-vault. c may be nil when
// the current directory is not inside a git repository, in which case only
// --help/--version work.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:     "git-vault",
		Short:   "Incremental encrypted storage for designated directories of a git repository",
		Version: version,
		// SilenceUsage prevents usage from being printed on errors.
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors; main handles it.
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if c == nil {
				return nil
			}
			for _, w := range c.ConfigFile.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			return nil
		},
	}

	root.AddCommand(
		newLockCommand(c),
		newUnlockCommand(c),
		newStatusCommand(c),
	)

	return root
}
