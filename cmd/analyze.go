package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/sqlshield/sqlshield/config"
	"github.com/sqlshield/sqlshield/enhance"
	"github.com/sqlshield/sqlshield/migration"
)

var analyzeFormat string

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "text", "Output format (text, json)")
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <migration.sql>",
	Short: "Analyze a migration script without modifying it",
	Long: `Analyze a migration script against the enhancement catalog.

Each applicable rule is reported with its confidence, the risky constructs
it found and a recommendation. Nothing is rewritten.

Examples:
  sqlshield analyze migrations/20240101120000_add_users.sql
  sqlshield analyze --format json migrations/20240101120000_add_users.sql
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := analyzeMigration(args[0]); err != nil {
			fmt.Printf("❌ Analysis failed: %v\n", err)
			os.Exit(1)
		}
	},
}

type ruleReport struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Category   enhance.Category `json:"category"`
	Priority   int              `json:"priority"`
	Confidence float64          `json:"confidence"`
	Impact     enhance.Impact   `json:"impact"`
	Issues     []enhance.Issue  `json:"issues"`
}

func analyzeMigration(path string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	file, err := migration.Load(path)
	if err != nil {
		return err
	}

	engine := enhance.NewEngine(enhance.DefaultRegistry().WithoutIDs(cfg.Disabled), nil)
	applicable := engine.DetectSafetyEnhancements(file)

	var reports []ruleReport
	for _, ma := range applicable {
		e := ma.Module.Enhancement()
		reports = append(reports, ruleReport{
			ID:         e.ID,
			Name:       e.Name,
			Category:   e.Category,
			Priority:   e.Priority,
			Confidence: ma.Analysis.Confidence,
			Impact:     ma.Analysis.Impact,
			Issues:     ma.Analysis.Issues,
		})
	}

	if analyzeFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(reports)
	}
	printAnalysisReport(file, reports)
	return nil
}

func printAnalysisReport(file *migration.File, reports []ruleReport) {
	fmt.Printf("📄 %s\n", file.Name)

	if len(reports) == 0 {
		color.Green("✅ No applicable enhancements found.")
		return
	}

	color.Yellow("⚠️  %d enhancement(s) apply:\n", len(reports))
	issueCount := 0
	for _, r := range reports {
		fmt.Printf("\n[%s] %s  (confidence %.2f, priority %d)\n", r.Category, r.Name, r.Confidence, r.Priority)
		for i, issue := range r.Issues {
			issueCount++
			fmt.Printf("  %d. [%s] %s\n", i+1, issue.Severity, issue.Description)
			if issue.Location != "" {
				fmt.Printf("     line %d: %s\n", issue.Line, issue.Location)
			}
			if issue.Recommendation != "" {
				fmt.Printf("     💡 %s\n", issue.Recommendation)
			}
		}
	}

	fmt.Printf("\n📊 Summary:\n")
	fmt.Printf("  • Applicable rules: %d\n", len(reports))
	fmt.Printf("  • Issues: %d\n", issueCount)
	fmt.Printf("\n💡 Run 'sqlshield enhance %s' to apply the enhancements.\n", file.Path)
}
