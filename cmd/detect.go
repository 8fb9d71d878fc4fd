package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/sqlshield/sqlshield/detector"
)

var detectCmd = &cobra.Command{
	Use:   "detect [dir]",
	Short: "Detect the project's ORM and database configuration",
	Long: `Run every ORM detector against a project directory.

Each detector reports a 0-100 confidence built from dependency-manifest
entries, config files, schema files and migration directories, plus the
resolved database connection descriptor when one can be found.

Examples:
  sqlshield detect          # Detect in the current directory
  sqlshield detect ../app   # Detect in another project
`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		detectORM(root)
	},
}

func detectORM(root string) {
	found := 0
	for _, d := range detector.Detectors() {
		result := d.Detect(root)

		if result.Found {
			found++
			color.Green("✅ %s detected (confidence %d/100)", d.Name(), result.Confidence)
		} else {
			fmt.Printf("➖ %s not detected (confidence %d/100)\n", d.Name(), result.Confidence)
		}
		for _, ev := range result.Evidence {
			fmt.Printf("   • %s\n", ev)
		}
		for _, w := range result.Warnings {
			color.Yellow("   ⚠️  %s", w)
		}

		if !result.Found {
			continue
		}
		if cfg := d.ExtractConfig(root); cfg != nil {
			fmt.Printf("   📝 config: %s (dialect %s)\n", cfg.ConfigPath, cfg.Dialect)
		}
		if db := d.DatabaseConfig(root); db != nil {
			url := db.URL
			if url == "" {
				url = "(no connection string)"
			}
			fmt.Printf("   🔌 database: %s %s  [from %s]\n", db.Provider, url, db.Source)
		}
	}

	if found == 0 {
		fmt.Println("➖ No ORM detected.")
	}
}
