package commands

import (
	"os"

	"github.com/mhalvard/warden/internal/config"
	"github.com/spf13/cobra"
)

var (
	logLevelOverride string
	projectDirFlag   string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warden",
		Short: "Warden - guard rails for AI coding assistant hosts",
		Long: `Warden validates tool invocations for AI coding assistant hosts:
tiered shell-command policy checks, secret file protection, directory-scoped
write enforcement, and session state tracking, driven by lifecycle hooks.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveProjectDir())
			if err != nil {
				// A broken policy file must not disable the guard
				// hooks; features degrade to their defaults.
				cfg = config.DefaultConfig()
			}
			return configureLogger(cfg, logLevelOverride)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevelOverride, "log-level", "", "Override log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&projectDirFlag, "project-dir", "", "Project root (default: walk up from cwd for a .claude directory)")

	cmd.AddCommand(
		NewInitCmd(),
		NewHookCmd(),
		NewCheckCmd(),
		NewAnalyzeCmd(),
		NewSessionCmd(),
		NewSkillsCmd(),
		NewVerifyCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// resolveProjectDir honors --project-dir and otherwise discovers the
// project root from the working directory.
func resolveProjectDir() string {
	if projectDirFlag != "" {
		return projectDirFlag
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return config.FindProjectRoot(wd)
}
