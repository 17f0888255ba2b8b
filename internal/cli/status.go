package cli

import (
	"fmt"

	"github.com/benjaminpreiss/git-vault/internal/app"
	"github.com/spf13/cobra"
)

// newStatusCommand creates the status command, a read-only report of each
// vault's lifecycle state and cache coherence.
func newStatusCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "status [vault...]",
		Short: "Report each vault's state, patch count, and cache validity",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := resolveVaultPaths(c, args)
			if err != nil {
				return err
			}
			uc := c.VaultStatusUseCase()
			for _, path := range paths {
				st, err := uc.Execute(cmd.Context(), c.StatusInput(path))
				if err != nil {
					return fmt.Errorf("status %q: %w", path, err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s patches=%d cache_present=%t cache_valid=%t\n",
					st.Path, st.State, st.PatchCount, st.CachePresent, st.CacheValid)
			}
			return nil
		},
	}
}
