package commands

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mhalvard/warden/internal/audit"
	"github.com/mhalvard/warden/internal/config"
	"github.com/mhalvard/warden/internal/hook"
	"github.com/mhalvard/warden/internal/integrity"
	"github.com/mhalvard/warden/internal/pathscope"
	"github.com/mhalvard/warden/internal/policy"
	"github.com/mhalvard/warden/internal/secrets"
	"github.com/mhalvard/warden/internal/session"
	"github.com/mhalvard/warden/internal/skills"
	"github.com/spf13/cobra"
)

// NewHookCmd creates the hook parent command. The subcommands are called
// by the host at lifecycle events, not by users directly.
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Lifecycle hook handlers invoked by the host",
		Args:  cobra.NoArgs,
	}

	for _, sub := range []*cobra.Command{
		newHookBashCmd(),
		newHookReadCmd(),
		newHookWriteCmd(),
		newHookTrackCmd(),
		newHookSessionInitCmd(),
	} {
		sub.Hidden = true
		cmd.AddCommand(sub)
	}

	return cmd
}

func newHookBashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bash",
		Short: "PreToolUse handler for shell commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHookBash(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newHookReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read",
		Short: "PreToolUse handler for file reads",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHookRead(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newHookWriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write",
		Short: "PreToolUse handler for file writes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHookWrite(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newHookTrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track",
		Short: "PostToolUse handler recording file modifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHookTrack(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newHookSessionInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session-init",
		Short: "SessionStart handler: verify integrity, reset stale state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHookSessionInit(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// hookProjectDir resolves the project root for one hook invocation,
// preferring the host-provided working directory over process cwd.
func hookProjectDir(input hook.Input) string {
	if projectDirFlag != "" {
		return projectDirFlag
	}
	if input.CWD != "" {
		return config.FindProjectRoot(input.CWD)
	}
	return resolveProjectDir()
}

// failClosed answers a malformed payload. A payload we cannot parse may
// carry a write, so the decision is ask, never allow.
func failClosed(out io.Writer, err error) error {
	slog.Warn("malformed hook payload", "error", err)
	return hook.WriteOutput(out, hook.PermissionOutput(policy.Decision{
		Kind:   policy.KindAsk,
		Reason: "hook payload could not be parsed; confirmation required",
	}))
}

func runHookBash(in io.Reader, out io.Writer) error {
	input, err := hook.ReadInput(in)
	if err != nil {
		return failClosed(out, err)
	}

	command := input.ToolInput.Command
	if strings.TrimSpace(command) == "" {
		return hook.WriteOutput(out, hook.PermissionOutput(policy.Decision{Kind: policy.KindAllowSilent}))
	}

	projectDir := hookProjectDir(input)
	cfg, err := config.Load(projectDir)
	if err != nil {
		slog.Warn("policy file unavailable, features degrade to defaults", "error", err)
	}

	decision := policy.Evaluate(command, policy.Config{
		SafeDeletePaths:         cfg.SafeDeletePaths,
		AllowedWriteDirectories: cfg.AllowedWriteDirectories,
		ProjectDir:              projectDir,
	})

	appendAudit(cfg, projectDir, audit.Event{
		Time:          time.Now().UTC(),
		Event:         "bash_command",
		SessionID:     input.SessionID,
		Tool:          input.ToolName,
		CommandDigest: audit.Digest(command),
		Decision:      string(decision.Kind),
		Reason:        decision.Reason,
		Tier:          decision.Tier,
	})

	return hook.WriteOutput(out, hook.PermissionOutput(decision))
}

func runHookRead(in io.Reader, out io.Writer) error {
	input, err := hook.ReadInput(in)
	if err != nil {
		return failClosed(out, err)
	}

	filePath := input.ToolInput.FilePath
	if strings.TrimSpace(filePath) == "" {
		return hook.WriteOutput(out, hook.PermissionOutput(policy.Decision{Kind: policy.KindAllowSilent}))
	}

	projectDir := hookProjectDir(input)
	cfg, _ := config.Load(projectDir)

	decision := policy.Decision{Kind: policy.KindAllowSilent}
	if match, ok := secrets.NewMatcher(cfg.SecretFiles).MatchPath(filePath); ok {
		decision = policy.Decision{
			Kind:   policy.KindDeny,
			Reason: fmt.Sprintf("%s is a protected secret file (%s)", filePath, match.Pattern),
		}
	}

	appendAudit(cfg, projectDir, audit.Event{
		Time:      time.Now().UTC(),
		Event:     "file_read",
		SessionID: input.SessionID,
		Tool:      input.ToolName,
		Path:      filePath,
		Decision:  string(decision.Kind),
		Reason:    decision.Reason,
	})

	return hook.WriteOutput(out, hook.PermissionOutput(decision))
}

func runHookWrite(in io.Reader, out io.Writer) error {
	input, err := hook.ReadInput(in)
	if err != nil {
		return failClosed(out, err)
	}

	filePath := input.ToolInput.FilePath
	if strings.TrimSpace(filePath) == "" {
		return hook.WriteOutput(out, hook.PermissionOutput(policy.Decision{Kind: policy.KindAllowSilent}))
	}

	projectDir := hookProjectDir(input)
	cfg, _ := config.Load(projectDir)

	decision := policy.Decision{Kind: policy.KindAllowSilent}
	if match, ok := secrets.NewMatcher(cfg.SecretFiles).MatchPath(filePath); ok {
		decision = policy.Decision{
			Kind:   policy.KindDeny,
			Reason: fmt.Sprintf("%s is a protected secret file (%s)", filePath, match.Pattern),
		}
	} else if res := pathscope.New(cfg.AllowedWriteDirectories, projectDir).CheckPath(filePath); res.Enabled && !res.Allowed {
		decision = policy.Decision{
			Kind:   policy.KindDeny,
			Reason: fmt.Sprintf("write target outside allowed directories: %s", res.Resolved),
		}
	}

	appendAudit(cfg, projectDir, audit.Event{
		Time:      time.Now().UTC(),
		Event:     "file_write",
		SessionID: input.SessionID,
		Tool:      input.ToolName,
		Path:      filePath,
		Decision:  string(decision.Kind),
		Reason:    decision.Reason,
	})

	return hook.WriteOutput(out, hook.PermissionOutput(decision))
}

func runHookTrack(in io.Reader, out io.Writer) error {
	input, err := hook.ReadInput(in)
	if err != nil {
		// Tracking is advisory; a malformed payload only loses one record.
		slog.Warn("malformed hook payload", "error", err)
		return hook.WriteOutput(out, hook.Output{})
	}

	if filePath := strings.TrimSpace(input.ToolInput.FilePath); filePath != "" {
		manager := session.NewManager(session.NewFileStore(hookProjectDir(input)))
		if err := manager.LogFileModified(filePath); err != nil {
			slog.Warn("failed to record file modification", "path", filePath, "error", err)
		}
	}

	return hook.WriteOutput(out, hook.Output{})
}

func runHookSessionInit(in io.Reader, out io.Writer) error {
	input, err := hook.ReadInput(in)
	if err != nil {
		slog.Warn("malformed hook payload", "error", err)
		return hook.WriteOutput(out, hook.Output{})
	}

	projectDir := hookProjectDir(input)

	var parts []string
	report := integrity.Verify(projectDir)
	if !report.Passed {
		parts = append(parts, "Template integrity warnings:\n- "+strings.Join(report.Warnings, "\n- "))
	}

	manager := session.NewManager(session.NewFileStore(projectDir))
	if st, err := manager.State(); err == nil && st.ConcludedAt != nil {
		// The previous session was concluded and archived; start clean.
		if err := manager.Reset(); err != nil {
			slog.Warn("failed to reset session state", "error", err)
		}
	}

	if summary := skills.NewLoader(projectDir).BuildSkillsSummary(); summary != "" {
		parts = append(parts, summary)
	}

	return hook.WriteOutput(out, hook.ContextOutput(strings.Join(parts, "\n\n")))
}

// appendAudit best-effort appends one audit event. Audit failures are
// logged, never allowed to block a decision.
func appendAudit(cfg *config.Config, projectDir string, event audit.Event) {
	if cfg == nil || !cfg.Audit.Enabled {
		return
	}
	if err := audit.NewWriter(projectDir).Append(event); err != nil {
		slog.Warn("failed to append audit event", "error", err)
	}
}
