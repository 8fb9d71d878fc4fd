package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/sqlshield/sqlshield/config"
	"github.com/sqlshield/sqlshield/enhance"
	"github.com/sqlshield/sqlshield/migration"
)

var rollbackWrite bool

func init() {
	rollbackCmd.Flags().BoolVarP(&rollbackWrite, "write", "w", false, "Append the rollback section to the migration file")
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback <migration.sql>",
	Short: "Derive a rollback script for a migration",
	Long: `Derive a rollback script from a migration's forward SQL.

An explicit '-- rollback' section is returned as written. Otherwise the
forward statements are inverted in reverse order; statements with no known
inverse become commented manual-action placeholders.

Examples:
  sqlshield rollback migrations/20240101120000_add_users.sql
  sqlshield rollback migrations/20240101120000_add_users.sql --write
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := rollbackMigration(args[0]); err != nil {
			fmt.Printf("❌ Rollback generation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func rollbackMigration(path string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	file, err := migration.Load(path)
	if err != nil {
		return err
	}

	engine := enhance.NewEngine(enhance.DefaultRegistry().WithoutIDs(cfg.Disabled), nil)
	down := engine.GenerateRollback(file)

	if rollbackWrite && file.Down != "" {
		return fmt.Errorf("%s already has a rollback section", path)
	}

	if file.Down != "" {
		fmt.Println("ℹ️  Using the migration's own rollback section.")
	}

	if !rollbackWrite {
		fmt.Println(down)
		return nil
	}

	rendered := migration.Render(file.Up, down)
	if err := os.WriteFile(path, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("writing migration file: %v", err)
	}
	color.Green("✅ Rollback section written to %s", path)
	return nil
}
