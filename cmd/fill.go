package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/lumenfill/dbfill/internal/config"
	"github.com/lumenfill/dbfill/internal/database"
	"github.com/lumenfill/dbfill/internal/filler"
	"github.com/spf13/cobra"
)

var fillYes bool

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Generate and insert fake rows into every table",
	Long: `Extract the schema, resolve the foreign-key insertion order and fill
each table with generated rows. Row counts and per-column constraints
come from the configuration file; tables without an entry get 50 rows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if !cfg.Database.IsLocal() && !fillYes {
			color.New(color.FgRed, color.Bold).Printf("WARNING: you are about to run autofill on a remote host: %s\n", cfg.Database.Host)
			fmt.Println("This will insert fake data into the target database.")
			if !confirm("Are you sure you want to continue?") {
				fmt.Println("Aborted.")
				return nil
			}
		}

		adapter := database.NewAdapter(cfg.Database.Provider)
		ctx := cmd.Context()
		if err := adapter.Connect(ctx, cfg.Database.URL()); err != nil {
			return err
		}
		defer adapter.Close()

		return filler.New(cfg, adapter).Run(ctx)
	},
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func init() {
	rootCmd.AddCommand(fillCmd)
	fillCmd.Flags().BoolVarP(&fillYes, "yes", "y", false, "skip the confirmation prompt for remote hosts")
}
