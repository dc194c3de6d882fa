package skills

import (
	"os"
	"path/filepath"
)

// DefaultBuiltinSkills returns the built-in workflow skills shipped with
// warden. They drive the prime / execute / conclude session lifecycle.
func DefaultBuiltinSkills() map[string]string {
	return map[string]string{
		"prime": `---
name: prime
description: "Prime the session: analyze the project, read foundation docs, record domains."
---

# Prime

Before substantive work in a fresh session:

1. Identify the project's domains (source, config, tests, docs).
2. Read the foundation documents (README, CONTRIBUTING, architecture notes).
3. Record the result: ` + "`warden session prime --domain <name> --doc <file>`" + `
`,
		"execute": `---
name: execute
description: "Execute planned tasks, journaling progress and verification results."
---

# Execute

While working through tasks:

1. Journal each task: ` + "`warden session log task-created <subject>`" + `
2. Record spawned subagents and their roles.
3. Record verification results (test, lint, adversarial) as they complete:
   ` + "`warden session log verification --type test --passed`" + `
`,
		"conclude": `---
name: conclude
description: "Conclude the session: summarize, verify, archive state to history."
---

# Conclude

At the end of a session:

1. Review the execution summary: ` + "`warden session summary`" + `
2. Confirm verifications passed and modified files are accounted for.
3. Archive: ` + "`warden session conclude`" + `
`,
		"learn": `---
name: learn
description: "Capture durable lessons from this session into project skill notes."
---

# Learn

When a session produced a reusable insight:

1. Check the archived history for recurring patterns: ` + "`warden session show`" + `
2. Write the lesson as a project skill under .claude/skills/<name>/SKILL.md.
3. Keep trigger descriptions precise so the host surfaces it at the right time.
`,
	}
}

// EnsureBuiltinSkills writes default builtin skills into
// <configDir>/builtin-skills when they do not already exist.
func EnsureBuiltinSkills(configDir string) error {
	builtinRoot := filepath.Join(configDir, "builtin-skills")
	if err := os.MkdirAll(builtinRoot, 0755); err != nil {
		return err
	}

	for name, content := range DefaultBuiltinSkills() {
		dir := filepath.Join(builtinRoot, name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}

		path := filepath.Join(dir, "SKILL.md")
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
	}

	return nil
}
