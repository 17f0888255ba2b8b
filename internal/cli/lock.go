package cli

import (
	"fmt"

	"github.com/benjaminpreiss/git-vault/internal/app"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// newLockCommand creates the lock command.
func newLockCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "lock [vault...]",
		Short: "Encrypt a vault's current content into its append-only log",
		Long: `lock synthesizes the change between a vault's last committed state
and its current plaintext, then appends an encrypted patch (or, on first
run, writes the encrypted base snapshot). No vault path is required if
.git-vault.toml lists at least one vault.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := resolveVaultPaths(c, args)
			if err != nil {
				return err
			}
			uc := c.LockVaultUseCase()
			for _, path := range paths {
				out, err := uc.Execute(cmd.Context(), c.LockInput(path))
				if err != nil {
					log.Error("lock failed", "vault", path, "err", err)
					return fmt.Errorf("lock %q: %w", path, err)
				}
				switch {
				case out.WroteBase:
					log.Info("wrote base snapshot", "vault", path)
				case out.Changed:
					log.Info("appended patch", "vault", path, "patch", out.NewPatch.Name())
				default:
					log.Info("unchanged", "vault", path)
				}
			}
			return nil
		},
	}
}
