package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mhalvard/warden/internal/analyze"
	"github.com/mhalvard/warden/internal/config"
	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze command: scan the project and suggest
// policy configuration for warden.yaml.
func NewAnalyzeCmd() *cobra.Command {
	var (
		jsonOutput bool
		apply      bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Scan the project and suggest policy configuration",
		Long: `Analyze scans the project tree, detects its toolchains, and suggests
safe_delete_paths (regeneratable build artifacts) and
allowed_write_directories (conventional source and test directories)
for warden.yaml. With --apply the suggestions are merged into the
policy file; existing entries are kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			projectDir := resolveProjectDir()

			report, err := analyze.Project(projectDir)
			if err != nil {
				return err
			}

			if apply {
				return applySuggestion(cmd, projectDir, report)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			printReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full report as JSON")
	cmd.Flags().BoolVar(&apply, "apply", false, "Merge the suggestions into .claude/warden.yaml")

	return cmd
}

func printReport(cmd *cobra.Command, report *analyze.Report) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Project: %s (%d files)\n", report.ProjectDir, report.TotalFiles)

	if len(report.Frameworks) > 0 {
		names := make([]string, 0, len(report.Frameworks))
		for _, fw := range report.Frameworks {
			names = append(names, fw.Name)
		}
		fmt.Fprintf(out, "Toolchains: %s\n", strings.Join(names, ", "))
	}

	fmt.Fprintf(out, "\nSuggested warden.yaml entries:\n")
	fmt.Fprintf(out, "safe_delete_paths:\n")
	for _, p := range report.Suggestion.SafeDeletePaths {
		fmt.Fprintf(out, "  - %s\n", p)
	}
	fmt.Fprintf(out, "allowed_write_directories:\n")
	for _, d := range report.Suggestion.AllowedWriteDirectories {
		fmt.Fprintf(out, "  - %s\n", d)
	}

	if len(report.Suggestion.Commands) > 0 {
		fmt.Fprintf(out, "\nDetected project commands:\n")
		for _, kind := range []string{"test", "lint", "build"} {
			for _, c := range report.Suggestion.Commands[kind] {
				fmt.Fprintf(out, "  %-5s %s\n", kind+":", c)
			}
		}
	}

	for _, w := range report.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}

	fmt.Fprintf(out, "\nRun 'warden analyze --apply' to merge these into %s\n", config.Path(report.ProjectDir))
}

// applySuggestion merges the suggested values into the policy file.
// Entries the operator already configured are never removed.
func applySuggestion(cmd *cobra.Command, projectDir string, report *analyze.Report) error {
	cfg, err := config.Load(projectDir)
	if err != nil {
		return fmt.Errorf("refusing to overwrite an unreadable policy file: %w", err)
	}

	cfg.SafeDeletePaths = mergeEntries(cfg.SafeDeletePaths, report.Suggestion.SafeDeletePaths)
	cfg.AllowedWriteDirectories = mergeEntries(cfg.AllowedWriteDirectories, report.Suggestion.AllowedWriteDirectories)

	if err := config.Save(projectDir, cfg); err != nil {
		return fmt.Errorf("save policy file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Policy file updated: %s\n", config.Path(projectDir))
	fmt.Fprintf(cmd.OutOrStdout(), "  safe_delete_paths: %d entries\n", len(cfg.SafeDeletePaths))
	fmt.Fprintf(cmd.OutOrStdout(), "  allowed_write_directories: %d entries\n", len(cfg.AllowedWriteDirectories))
	return nil
}

func mergeEntries(existing, suggested []string) []string {
	merged := append([]string{}, existing...)
	for _, s := range suggested {
		found := false
		for _, e := range merged {
			if e == s {
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, s)
		}
	}
	return merged
}
