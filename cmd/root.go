package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dbfill",
	Short: "Populate a relational database with constraint-aware fake data",
	Long: `dbfill connects to a PostgreSQL, MySQL or SQLite database, reads its
schema from the catalog, works out a foreign-key-safe insertion order
and fills every table with synthetic rows.

Generated data honors nullability, foreign keys, uniqueness and any
per-column value sets or numeric ranges from the configuration file.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initEnv)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "dbfill.config.json", "path to configuration file")
}

func initEnv() {
	// optional; credentials may come from the shell instead
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env.local")
	}
}
