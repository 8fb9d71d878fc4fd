package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/sqlshield/sqlshield/config"
	"github.com/sqlshield/sqlshield/enhance"
	"github.com/sqlshield/sqlshield/migration"
)

var (
	enhanceDryRun bool
	enhanceYes    bool
)

func init() {
	enhanceCmd.Flags().BoolVar(&enhanceDryRun, "dry-run", false, "Preview the rewritten script without writing the file")
	enhanceCmd.Flags().BoolVarP(&enhanceYes, "yes", "y", false, "Approve all confirmation-gated enhancements")
}

var enhanceCmd = &cobra.Command{
	Use:   "enhance <migration.sql>",
	Short: "Rewrite a migration script with safety and performance enhancements",
	Long: `Run the full enhancement pipeline over a migration script.

Applicable rules run in order (safety first, then performance), each one
rewriting the output of the previous. Rules that require confirmation
prompt before rewriting unless --yes or auto_approve is set.

Examples:
  sqlshield enhance migrations/20240101120000_add_users.sql
  sqlshield enhance migrations/20240101120000_add_users.sql --dry-run
  sqlshield enhance migrations/20240101120000_add_users.sql --yes
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := enhanceMigration(args[0]); err != nil {
			fmt.Printf("❌ Enhancement failed: %v\n", err)
			os.Exit(1)
		}
	},
}

// promptConfirmer asks the user before each confirmation-gated rewrite.
type promptConfirmer struct{}

func (promptConfirmer) Confirm(e *enhance.Enhancement, a enhance.Analysis) bool {
	fmt.Printf("\n[%s] %s\n", e.Category, e.Name)
	for _, issue := range a.Issues {
		fmt.Printf("  • [%s] %s\n", issue.Severity, issue.Description)
	}

	approve := false
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Apply %s?", e.Name),
		Default: true,
	}
	if err := survey.AskOne(prompt, &approve); err != nil {
		return false
	}
	return approve
}

func enhanceMigration(path string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	file, err := migration.Load(path)
	if err != nil {
		return err
	}

	var confirmer enhance.Confirmer = promptConfirmer{}
	if enhanceYes || cfg.AutoApprove {
		confirmer = enhance.AutoApprove{}
	}

	engine := enhance.NewEngine(enhance.DefaultRegistry().WithoutIDs(cfg.Disabled), confirmer)
	outcome := engine.Enhance(file)

	applied := 0
	for _, res := range outcome.Results {
		if res.Applied {
			applied++
			color.Green("✅ %s", res.Enhancement.Name)
			for _, ch := range res.Changes {
				fmt.Printf("   %s line %d: %s\n", ch.Type, ch.Line, ch.Reason)
			}
		} else {
			fmt.Printf("⏭️  %s (not applied)\n", res.Enhancement.Name)
		}
	}
	for _, w := range outcome.Warnings {
		color.Yellow("⚠️  %s", w)
	}

	if applied == 0 {
		color.Green("✅ Nothing to change.")
		return nil
	}

	if enhanceDryRun {
		fmt.Println("\n================ DRY RUN: Enhanced Migration ================")
		fmt.Println(outcome.Content)
		fmt.Println("=============================================================")
		fmt.Println("(Dry run only. No files were written.)")
		return nil
	}

	rendered := migration.Render(outcome.Content, file.Down)
	if err := os.WriteFile(path, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("writing enhanced migration: %v", err)
	}
	fmt.Printf("✅ Applied %d enhancement(s) to %s\n", applied, path)
	return nil
}
