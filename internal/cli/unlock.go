package cli

import (
	"fmt"

	"github.com/benjaminpreiss/git-vault/internal/app"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// newUnlockCommand creates the unlock command.
func newUnlockCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock [vault...]",
		Short: "Decrypt a vault's base and patch log into its plaintext directory",
		Long: `unlock serves a vault's plaintext from its local cache when the
cache is still coherent with the last locked state, or otherwise replays
the base snapshot and every patch in order and verifies the result before
writing it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := resolveVaultPaths(c, args)
			if err != nil {
				return err
			}
			uc := c.UnlockVaultUseCase()
			for _, path := range paths {
				out, err := uc.Execute(cmd.Context(), c.UnlockInput(path))
				if err != nil {
					log.Error("unlock failed", "vault", path, "err", err)
					return fmt.Errorf("unlock %q: %w", path, err)
				}
				if out.FromCache {
					log.Info("served from cache", "vault", path)
				} else {
					log.Info("replayed and verified", "vault", path)
				}
			}
			return nil
		},
	}
}
