// Package integrity validates that a project's .claude directory has not
// drifted from the guard-rail template: hook registrations stripped from
// settings.json, over-broad deny rules injected, or the policy file gone
// missing.
package integrity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mhalvard/warden/internal/config"
)

// Report is the outcome of an integrity verification run.
type Report struct {
	Passed    bool     `json:"passed"`
	Warnings  []string `json:"warnings"`
	ChecksRun int      `json:"checks_run"`
}

type settings struct {
	Permissions struct {
		Deny []string `json:"deny"`
	} `json:"permissions"`
	Hooks map[string][]hookRegistration `json:"hooks"`
}

type hookRegistration struct {
	Matcher string `json:"matcher"`
	Hooks   []struct {
		Command string `json:"command"`
	} `json:"hooks"`
}

// Verify runs all checks for the given project root. An empty warning
// list means the template is intact.
func Verify(projectDir string) Report {
	report := Report{ChecksRun: 6}
	warn := func(format string, args ...any) {
		report.Warnings = append(report.Warnings, fmt.Sprintf(format, args...))
	}

	claudeDir := filepath.Join(projectDir, ".claude")
	settingsPath := filepath.Join(claudeDir, "settings.json")

	data, err := os.ReadFile(settingsPath)
	if err != nil {
		warn("CRITICAL: .claude/settings.json is missing")
		report.Passed = false
		return report
	}

	var cfg settings
	if err := json.Unmarshal(data, &cfg); err != nil {
		warn("CRITICAL: .claude/settings.json is invalid JSON: %v", err)
		report.Passed = false
		return report
	}

	// A Read(.env deny rule also blocks safe template files; the read
	// hook already protects real .env files while allowing .env.example.
	for _, rule := range cfg.Permissions.Deny {
		if strings.Contains(rule, "Read(") && strings.Contains(rule, ".env") {
			warn("DRIFT: deny rule %q blocks safe files like .env.example; secret protection belongs to the read hook", rule)
		}
	}

	preMatchers := make(map[string]bool)
	for _, reg := range cfg.Hooks[hookEventPreToolUse] {
		preMatchers[reg.Matcher] = true
	}
	if !preMatchers["Bash"] {
		warn("DRIFT: PreToolUse hook for Bash is missing; the tiered command validation is disabled")
	}
	if !preMatchers["Read"] {
		warn("DRIFT: PreToolUse hook for Read is missing; secret files are readable")
	}

	hasEditWrite := false
	for _, reg := range cfg.Hooks[hookEventPostToolUse] {
		if strings.Contains(reg.Matcher, "Edit") || strings.Contains(reg.Matcher, "Write") {
			hasEditWrite = true
		}
	}
	if !hasEditWrite {
		warn("DRIFT: PostToolUse hook for Edit|Write is missing; file modification tracking is disabled")
	}

	if len(cfg.Hooks[hookEventSessionStart]) == 0 {
		warn("DRIFT: SessionStart hook is missing")
	}

	checkHookCommands(cfg, projectDir, warn)

	if _, err := os.Stat(config.Path(projectDir)); os.IsNotExist(err) {
		warn("MISSING: .claude/%s — safe_delete_paths is unavailable, every deletion will require confirmation", config.FileName)
	}

	report.Passed = len(report.Warnings) == 0
	return report
}

const (
	hookEventPreToolUse   = "PreToolUse"
	hookEventPostToolUse  = "PostToolUse"
	hookEventSessionStart = "SessionStart"
)

// checkHookCommands verifies every referenced hook script exists and, for
// shell scripts, is executable.
func checkHookCommands(cfg settings, projectDir string, warn func(string, ...any)) {
	for event, registrations := range cfg.Hooks {
		for _, reg := range registrations {
			for _, h := range reg.Hooks {
				cmd := strings.ReplaceAll(h.Command, `"$CLAUDE_PROJECT_DIR"`, projectDir)
				cmd = strings.ReplaceAll(cmd, "$CLAUDE_PROJECT_DIR", projectDir)

				scriptPath := firstScriptPath(cmd)
				if scriptPath == "" {
					continue
				}

				info, err := os.Stat(scriptPath)
				if err != nil {
					warn("MISSING: hook script %q referenced in settings.json [%s] does not exist", filepath.Base(scriptPath), event)
					continue
				}
				if strings.HasSuffix(scriptPath, ".sh") && info.Mode().Perm()&0111 == 0 {
					warn("PERMISSIONS: hook script %q is not executable", filepath.Base(scriptPath))
				}
			}
		}
	}
}

// firstScriptPath picks the script-looking token out of a hook command line.
func firstScriptPath(cmd string) string {
	for _, tok := range strings.Fields(cmd) {
		if strings.HasSuffix(tok, ".sh") || strings.HasSuffix(tok, ".py") || strings.Contains(tok, "/hooks/") {
			return strings.Trim(tok, `"'`)
		}
	}
	return ""
}
