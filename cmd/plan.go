package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/lumenfill/dbfill/internal/config"
	"github.com/lumenfill/dbfill/internal/database"
	"github.com/lumenfill/dbfill/internal/filler"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the insertion order without writing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		adapter := database.NewAdapter(cfg.Database.Provider)
		ctx := cmd.Context()
		if err := adapter.Connect(ctx, cfg.Database.URL()); err != nil {
			return err
		}
		defer adapter.Close()

		order, err := filler.New(cfg, adapter).Plan(ctx)
		if err != nil {
			return err
		}
		if len(order) == 0 {
			color.Yellow("⚠️  No tables found in database")
			return nil
		}

		color.Green("📊 Found %d tables", len(order))
		color.Cyan("📋 Insertion order: %s", strings.Join(order, " → "))
		for _, table := range order {
			fmt.Printf("  %s (%d rows)\n", table, cfg.RowCount(table))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}
