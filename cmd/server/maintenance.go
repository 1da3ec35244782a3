package main

import (
	"fmt"

	"newsboard/internal/db"
	"newsboard/internal/jobs"
	"newsboard/internal/logger"
	"newsboard/internal/services"

	"github.com/spf13/cobra"
)

var seed bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, conn, err := bootstrap()
		if err != nil {
			return err
		}
		if err := db.Migrate(conn); err != nil {
			return err
		}
		if seed {
			return db.SeedCategories(conn)
		}
		return nil
	},
}

var recomputeCmd = &cobra.Command{
	Use:   "recompute-hotness",
	Short: "Recompute hotness scores for every article",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, conn, err := bootstrap()
		if err != nil {
			return err
		}
		count, err := jobs.RunHotnessRecompute(services.NewRankingEngine(conn), recomputeTimeout)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "recomputed %d articles\n", count)
		return nil
	},
}

// recountCmd 按活动记录重算所有用户的 karma
var recountCmd = &cobra.Command{
	Use:   "recount-karma",
	Short: "Rebuild karma scores from the activity log",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, conn, err := bootstrap()
		if err != nil {
			return err
		}
		changed, err := services.NewKarmaLedger(conn).RecalculateAll(cmd.Context())
		if err != nil {
			return err
		}
		logger.Log.WithField("changed", changed).Info("karma 重算完成")
		fmt.Fprintf(cmd.OutOrStdout(), "updated %d users\n", changed)
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&seed, "seed", false, "空库时写入预设分类")
}
