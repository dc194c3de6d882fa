package commands

import (
	"encoding/json"
	"fmt"

	"github.com/mhalvard/warden/internal/integrity"
	"github.com/spf13/cobra"
)

// NewVerifyCmd creates the verify command: check that the project's hook
// registrations and policy file have not drifted from the template.
func NewVerifyCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify hook registrations and policy file integrity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := integrity.Verify(resolveProjectDir())

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				if report.Passed {
					fmt.Fprintf(out, "All %d integrity checks passed.\n", report.ChecksRun)
				} else {
					fmt.Fprintf(out, "%d integrity warning(s):\n", len(report.Warnings))
					for _, w := range report.Warnings {
						fmt.Fprintf(out, "  - %s\n", w)
					}
				}
			}

			if !report.Passed {
				// Non-zero exit so CI and wrapper scripts can gate on drift.
				cmd.SilenceUsage = true
				return fmt.Errorf("integrity verification failed with %d warning(s)", len(report.Warnings))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")

	return cmd
}
