package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const configTemplate = `{
  "database": {
    "provider": "postgresql",
    "host": "localhost",
    "port": 5432,
    "name": "mydb",
    "user": "postgres",
    "password_env": "DBFILL_DB_PASSWORD"
  },
  "tables": [
    {
      "name": "customers",
      "row_count": 100,
      "columns": [
        {"name": "age", "min_value": 18, "max_value": 90},
        {"name": "status", "values": ["active", "closed"]}
      ]
    }
  ]
}
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil {
			return fmt.Errorf("config file %s already exists", cfgFile)
		}
		if err := os.WriteFile(cfgFile, []byte(configTemplate), 0644); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		color.Green("✅ Created %s", cfgFile)
		fmt.Println("Edit the database section, then run: dbfill fill")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
