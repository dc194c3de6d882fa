package commands

import (
	"encoding/json"
	"fmt"

	"github.com/mhalvard/warden/internal/session"
	"github.com/spf13/cobra"
)

// NewSessionCmd creates the session command group for inspecting and
// driving the per-project session state document.
func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage session state",
	}

	cmd.AddCommand(
		newSessionShowCmd(),
		newSessionPrimeCmd(),
		newSessionLogCmd(),
		newSessionSummaryCmd(),
		newSessionConcludeCmd(),
		newSessionResetCmd(),
	)

	return cmd
}

func sessionManager() *session.Manager {
	return session.NewManager(session.NewFileStore(resolveProjectDir()))
}

func newSessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current session state as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := sessionManager().State()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		},
	}
}

func newSessionPrimeCmd() *cobra.Command {
	var domains, docs []string

	cmd := &cobra.Command{
		Use:   "prime",
		Short: "Mark the session primed and clear previous execution data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sessionManager().Prime(domains, docs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session primed (%d domains, %d foundation docs)\n", len(domains), len(docs))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&domains, "domain", nil, "Domain covered by this session (repeatable)")
	cmd.Flags().StringSliceVar(&docs, "doc", nil, "Foundation document consulted (repeatable)")

	return cmd
}

func newSessionLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Append an entry to the execution journal",
	}

	cmd.AddCommand(
		newLogTaskCmd("task-created", "Record a task creation", (*session.Manager).LogTaskCreated),
		newLogTaskCmd("task-started", "Record a task start", func(m *session.Manager, subject, id string) error {
			return m.LogTaskStarted(id, subject)
		}),
		newLogTaskCmd("task-completed", "Record a task completion", func(m *session.Manager, subject, id string) error {
			return m.LogTaskCompleted(id, subject)
		}),
		newLogSubagentCmd(),
		newLogSubagentCompletedCmd(),
		newLogVerificationCmd(),
		newLogFileCmd(),
	)

	return cmd
}

func newLogTaskCmd(use, short string, log func(m *session.Manager, subject, id string) error) *cobra.Command {
	var taskID string

	cmd := &cobra.Command{
		Use:   use + " <subject>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return log(sessionManager(), args[0], taskID)
		},
	}

	cmd.Flags().StringVar(&taskID, "id", "", "Task identifier")

	return cmd
}

func newLogSubagentCmd() *cobra.Command {
	var role, agentType, model, description string

	cmd := &cobra.Command{
		Use:   "subagent",
		Short: "Record a subagent spawn",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sessionManager().LogSubagent(role, agentType, model, description)
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Subagent role (e.g. implementer, adversary)")
	cmd.Flags().StringVar(&agentType, "type", "", "Subagent type")
	cmd.Flags().StringVar(&model, "model", "", "Model the subagent runs on")
	cmd.Flags().StringVar(&description, "description", "", "What the subagent was asked to do")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func newLogSubagentCompletedCmd() *cobra.Command {
	var role, result string

	cmd := &cobra.Command{
		Use:   "subagent-completed",
		Short: "Record a subagent completion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sessionManager().LogSubagentCompleted(role, result)
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Subagent role")
	cmd.Flags().StringVar(&result, "result", "", "One-line result summary")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func newLogVerificationCmd() *cobra.Command {
	var verificationType, details string
	var passed bool

	cmd := &cobra.Command{
		Use:   "verification",
		Short: "Record a verification result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sessionManager().LogVerification(verificationType, passed, details)
		},
	}

	cmd.Flags().StringVar(&verificationType, "type", "", "Verification type (tests, lint, adversarial)")
	cmd.Flags().BoolVar(&passed, "passed", false, "Whether the verification passed")
	cmd.Flags().StringVar(&details, "details", "", "Free-form details")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newLogFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "file <path>",
		Short: "Record a modified file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sessionManager().LogFileModified(args[0])
		},
	}
}

func newSessionSummaryCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the execution summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := sessionManager().Summary()
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}

			out := cmd.OutOrStdout()
			if summary.PrimedAt != nil {
				fmt.Fprintf(out, "Primed at:       %s\n", summary.PrimedAt.Format("2006-01-02 15:04:05 MST"))
			} else {
				fmt.Fprintln(out, "Primed at:       (not primed)")
			}
			fmt.Fprintf(out, "Tasks completed: %d\n", summary.TasksCompleted)
			fmt.Fprintf(out, "Subagents:       %d\n", summary.SubagentsSpawned)
			passed := 0
			for _, v := range summary.Verifications {
				if v.Passed {
					passed++
				}
			}
			fmt.Fprintf(out, "Verifications:   %d (%d passed)\n", len(summary.Verifications), passed)
			fmt.Fprintf(out, "Files modified:  %d\n", len(summary.FilesModified))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the summary as JSON")

	return cmd
}

func newSessionConcludeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conclude",
		Short: "Stamp and archive the session, keeping history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sessionManager().Conclude(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session concluded and archived")
			return nil
		},
	}
}

func newSessionResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Replace the current state with an empty document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sessionManager().Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session state reset")
			return nil
		},
	}
}
