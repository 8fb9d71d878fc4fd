package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/sqlshield/sqlshield/database"
	"github.com/sqlshield/sqlshield/detector"
	"github.com/sqlshield/sqlshield/utils"
)

var checkTimeout time.Duration

func init() {
	checkCmd.Flags().DurationVarP(&checkTimeout, "timeout", "t", 10*time.Second, "Timeout for the connectivity check")
}

var checkCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Check database connectivity for a project",
	Long: `Resolve the project's database connection and verify it.

The connection string is resolved through the ORM detectors' env-file
chain, falling back to DATABASE_URL in the environment. The database is
only pinged; no migration SQL is ever executed.

Examples:
  sqlshield check                  # Check the current directory's project
  sqlshield check --timeout 5s     # Set a custom timeout
`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		if err := checkDatabase(root); err != nil {
			fmt.Printf("❌ Database check failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✅ Database check completed successfully")
	},
}

func checkDatabase(root string) error {
	connStr, source := resolveConnection(root)
	if connStr == "" {
		return fmt.Errorf("no database connection string found (checked ORM config and DATABASE_URL)")
	}
	fmt.Printf("🔌 Using connection from %s\n", source)

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	pool, err := database.Connect(ctx, connStr)
	if err != nil {
		return err
	}
	defer pool.Close()

	var version string
	if err := pool.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query server version: %v", err)
	}
	fmt.Printf("📊 Server: %s\n", version)
	return nil
}

func resolveConnection(root string) (connStr, source string) {
	for _, d := range detector.Detectors() {
		if !d.Detect(root).Found {
			continue
		}
		if db := d.DatabaseConfig(root); db != nil && db.URL != "" {
			return db.URL, db.Source
		}
	}

	utils.LoadEnv()
	if url := utils.DatabaseURL(); url != "" {
		return url, "DATABASE_URL environment variable"
	}
	return "", ""
}
