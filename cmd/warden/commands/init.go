package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mhalvard/warden/internal/config"
	"github.com/mhalvard/warden/internal/skills"
	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize warden in the current project",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	projectDir := projectDirFlag
	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		projectDir = wd
	}

	configPath := config.Path(projectDir)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Policy file already exists: %s\n", configPath)
		return nil
	}

	dirs := []string{
		filepath.Join(projectDir, ".claude"),
		filepath.Join(projectDir, ".claude", "session"),
		filepath.Join(projectDir, ".claude", "skills"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.SafeDeletePaths = []string{"node_modules", "build/", "dist/", ".cache/"}
	if err := config.Save(projectDir, cfg); err != nil {
		return fmt.Errorf("failed to save policy file: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		if err := skills.EnsureBuiltinSkills(filepath.Join(homeDir, ".warden")); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not install builtin skills: %v\n", err)
		}
	}

	fmt.Printf("Warden initialized!\n")
	fmt.Printf("Policy file: %s\n", configPath)
	fmt.Printf("\nNext steps:\n")
	fmt.Printf("1. Edit %s to set safe_delete_paths and allowed_write_directories\n", configPath)
	fmt.Printf("2. Register the hooks in .claude/settings.json, then run 'warden verify'\n")

	return nil
}
