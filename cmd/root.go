package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sqlshield",
	Short: "Safety and performance enhancement for SQL migration scripts",
	Long: `sqlshield inspects migration scripts, flags risky constructs and
rewrites them with safety and performance enhancements.

Examples:

  sqlshield analyze migrations/20240101120000_add_users.sql
  sqlshield enhance migrations/20240101120000_add_users.sql --dry-run
  sqlshield rollback migrations/20240101120000_add_users.sql
  sqlshield detect .
`,
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

var configPath string

// Register subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".sqlshield.yaml", "Tool config file")
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(enhanceCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(initCmd)
}
