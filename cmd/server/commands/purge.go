package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/inventory-service/internal/clock"
	"github.com/iliyamo/inventory-service/internal/repository"
)

// purgeCmd is the one-shot form of the revocation sweep
var purgeCmd = &cobra.Command{
	Use:   "purge-revoked",
	Short: "Drop expired entries from the revocation ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(run dbRun) error {
			clk := clock.Real{}
			n, err := repository.NewRevocationRepo(run.db, clk).PurgeExpired(cmd.Context(), clk.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired revocations\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}
