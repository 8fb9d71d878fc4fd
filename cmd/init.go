package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/sqlshield/sqlshield/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter .sqlshield.yaml config file",
	Long: `Create a starter configuration file in the current directory.

Examples:
  sqlshield init
`,
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			fmt.Printf("❌ %s already exists!\n", config.DefaultPath)
			return
		}

		content := `# sqlshield configuration
migrations_dir: migrations

# Apply confirmation-gated enhancements without prompting
auto_approve: false

# Enhancement rule ids to skip entirely
disabled: []
#  - transaction-wrapper
#  - concurrent-index
`
		if err := os.WriteFile(config.DefaultPath, []byte(content), 0644); err != nil {
			fmt.Printf("❌ Error creating %s: %v\n", config.DefaultPath, err)
			return
		}
		fmt.Printf("✅ Created %s\n", config.DefaultPath)
		fmt.Println("📝 Edit it to disable rules or enable auto-approve")
		fmt.Println("🚀 Run 'sqlshield analyze <migration.sql>' to get started")
	},
}
