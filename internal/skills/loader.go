package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SkillInfo describes a loaded skill.
type SkillInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Path        string `json:"path"`
	Source      string `json:"source"` // "project" | "global" | "builtin"
}

// Loader discovers and loads skill files.
type Loader struct {
	projectSkills string // <project>/.claude/skills/
	globalSkills  string // ~/.warden/skills/
	builtinSkills string // builtin skills shipped with warden
}

// NewLoader creates a skill loader for the given project root.
func NewLoader(projectDir string) *Loader {
	homeDir, _ := os.UserHomeDir()
	return &Loader{
		projectSkills: filepath.Join(projectDir, ".claude", "skills"),
		globalSkills:  filepath.Join(homeDir, ".warden", "skills"),
		builtinSkills: resolveBuiltinSkillsDir(homeDir),
	}
}

// ListSkills returns all discovered skills (project > global > builtin).
func (l *Loader) ListSkills() []SkillInfo {
	seen := make(map[string]bool)
	var result []SkillInfo

	// Project skills shadow everything else.
	for _, s := range l.scanDir(l.projectSkills, "project") {
		seen[s.Name] = true
		result = append(result, s)
	}

	for _, s := range l.scanDir(l.globalSkills, "global") {
		if !seen[s.Name] {
			seen[s.Name] = true
			result = append(result, s)
		}
	}

	for _, s := range l.scanDir(l.builtinSkills, "builtin") {
		if !seen[s.Name] {
			result = append(result, s)
		}
	}

	return result
}

// LoadSkill reads the content of a skill by name.
func (l *Loader) LoadSkill(name string) (string, error) {
	for _, dir := range []string{l.projectSkills, l.globalSkills, l.builtinSkills} {
		path := filepath.Join(dir, name, "SKILL.md")
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}
	}
	return "", fmt.Errorf("skill not found: %s", name)
}

// BuildSkillsSummary returns a formatted summary of all skills for host
// prompt injection.
func (l *Loader) BuildSkillsSummary() string {
	list := l.ListSkills()
	if len(list) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Available Skills\n\n")
	for _, s := range list {
		sb.WriteString(fmt.Sprintf("- **%s**: %s\n", s.Name, s.Description))
	}
	return sb.String()
}

func (l *Loader) scanDir(dir, source string) []SkillInfo {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var result []SkillInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skillPath := filepath.Join(dir, entry.Name(), "SKILL.md")
		data, err := os.ReadFile(skillPath)
		if err != nil {
			continue
		}

		name, desc := parseSkillFrontmatter(entry.Name(), string(data))
		result = append(result, SkillInfo{
			Name:        name,
			Description: desc,
			Path:        skillPath,
			Source:      source,
		})
	}
	return result
}

type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// parseSkillFrontmatter extracts name and description from the YAML
// frontmatter block. Expected format:
//
//	---
//	name: prime
//	description: "Prime the session with project context"
//	---
func parseSkillFrontmatter(dirName, content string) (name, description string) {
	name = dirName
	description = "(no description)"

	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "---") {
		return
	}

	end := strings.Index(content[3:], "---")
	if end < 0 {
		return
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(content[3:3+end]), &fm); err != nil {
		return
	}
	if strings.TrimSpace(fm.Name) != "" {
		name = strings.TrimSpace(fm.Name)
	}
	if strings.TrimSpace(fm.Description) != "" {
		description = strings.TrimSpace(fm.Description)
	}
	return
}

func resolveBuiltinSkillsDir(homeDir string) string {
	if fromEnv := strings.TrimSpace(os.Getenv("WARDEN_BUILTIN_SKILLS_DIR")); fromEnv != "" {
		return fromEnv
	}

	defaultDir := filepath.Join(homeDir, ".warden", "builtin-skills")
	candidates := []string{defaultDir}

	if exePath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exePath), "skills"))
	}

	for _, dir := range candidates {
		if stat, err := os.Stat(dir); err == nil && stat.IsDir() {
			return dir
		}
	}

	return defaultDir
}
