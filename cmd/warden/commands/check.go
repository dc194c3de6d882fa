package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mhalvard/warden/internal/config"
	"github.com/mhalvard/warden/internal/policy"
	"github.com/spf13/cobra"
)

// NewCheckCmd creates the check command: evaluate a command line against
// the policy without the host in the loop, for debugging rules.
func NewCheckCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check -- <command>",
		Short: "Evaluate a shell command against the policy",
		Long: `Check runs the tiered policy evaluation on a command line and prints
the decision. Useful for testing safe_delete_paths and allowed write
directory entries before a session hits them.

Example:
  warden check -- rm -rf build/ dist/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := strings.Join(args, " ")
			projectDir := resolveProjectDir()

			cfg, err := config.Load(projectDir)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (evaluating with defaults)\n", err)
			}

			decision := policy.Evaluate(command, policy.Config{
				SafeDeletePaths:         cfg.SafeDeletePaths,
				AllowedWriteDirectories: cfg.AllowedWriteDirectories,
				ProjectDir:              projectDir,
			})

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(decision); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Decision: %s\n", decision.Kind)
				fmt.Fprintf(out, "Tier:     %s\n", decision.Tier)
				if decision.Reason != "" {
					fmt.Fprintf(out, "Reason:   %s\n", decision.Reason)
				}
				if decision.Note != "" {
					fmt.Fprintf(out, "Note:     %s\n", decision.Note)
				}
			}

			if decision.Blocking() {
				// Non-zero exit so wrapper scripts can gate on a denial.
				cmd.SilenceUsage = true
				return fmt.Errorf("command denied: %s", decision.Reason)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the decision as JSON")

	return cmd
}
