package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/inventory-service/internal/clock"
	"github.com/iliyamo/inventory-service/internal/database"
	"github.com/iliyamo/inventory-service/internal/repository"
	"github.com/iliyamo/inventory-service/internal/seed"
)

// seedCmd loads the demo dataset
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo dataset",
	Long: `Apply pending migrations, then create the demo accounts
(admin@inventory.test and user@inventory.test, password "password"),
six categories and fifteen products. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(run dbRun) error {
			if err := database.Migrate(run.db, run.dialect); err != nil {
				return err
			}
			clk := clock.Real{}
			s := &seed.Seeder{
				Users:      repository.NewUserRepo(run.db, clk),
				Categories: repository.NewCategoryRepo(run.db, clk),
				Products:   repository.NewProductRepo(run.db, clk),
				BcryptCost: run.cfg.BcryptCost,
				Log:        run.log.Named("seed"),
			}
			res, err := s.Run(cmd.Context())
			if err != nil {
				return err
			}
			run.log.Info("seed complete",
				zap.Int("users", res.Users),
				zap.Int("categories", res.Categories),
				zap.Int("products", res.Products),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d categories, %d products\n", res.Users, res.Categories, res.Products)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
