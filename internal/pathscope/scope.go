// Package pathscope enforces directory-scoped write restrictions.
// The feature is opt-in: an empty allow-list disables every check.
package pathscope

import (
	"path/filepath"
	"strings"
)

// Scope is an immutable, resolved write allow-list.
type Scope struct {
	allowed    []string
	projectDir string
}

// New resolves the configured directory entries against the project root.
// Relative entries are joined to projectDir; every entry is symlink-resolved
// so comparisons happen in canonical space. An empty or all-blank list
// yields a disabled scope.
func New(dirs []string, projectDir string) Scope {
	s := Scope{projectDir: projectDir}
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(projectDir, dir)
		}
		s.allowed = append(s.allowed, Resolve(dir))
	}
	return s
}

// Enabled reports whether directory restrictions are configured.
func (s Scope) Enabled() bool {
	return len(s.allowed) > 0
}

// ResolveTarget canonicalizes a write target extracted from a command.
// Relative targets resolve against the project root, approximating the
// command's working directory.
func (s Scope) ResolveTarget(target string) string {
	if !filepath.IsAbs(target) && s.projectDir != "" {
		target = filepath.Join(s.projectDir, target)
	}
	return Resolve(target)
}

// Allows reports whether a resolved path falls inside any allowed
// directory. A disabled scope allows everything. Matching is
// prefix-with-separator so /src never matches /src-evil.
func (s Scope) Allows(resolved string) bool {
	if !s.Enabled() {
		return true
	}
	resolved = filepath.Clean(resolved)
	for _, allowed := range s.allowed {
		if resolved == allowed || strings.HasPrefix(resolved, allowed+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// CommandResult is the outcome of checking a whole command's write
// targets against the scope.
type CommandResult struct {
	Enabled     bool
	Allowed     bool
	DeniedPaths []string
	Unparseable bool
	Indicators  []string
}

// CheckCommand extracts every write target from a command and checks each
// against the allow-list. A disabled scope allows everything. Unparseable
// writes are reported as not allowed; callers decide how to escalate.
func (s Scope) CheckCommand(command string) CommandResult {
	res := CommandResult{Enabled: s.Enabled(), Allowed: true}
	if !res.Enabled {
		return res
	}

	ex := ExtractWriteTargets(command)
	if ex.Unparseable {
		res.Allowed = false
		res.Unparseable = true
		res.Indicators = ex.Indicators
		return res
	}

	for _, target := range ex.Targets {
		resolved := s.ResolveTarget(target)
		if !s.Allows(resolved) {
			res.DeniedPaths = append(res.DeniedPaths, resolved)
		}
	}
	res.Allowed = len(res.DeniedPaths) == 0
	return res
}

// PathResult is the outcome of checking one explicit path.
type PathResult struct {
	Enabled  bool
	Allowed  bool
	Resolved string
}

// CheckPath resolves one path and checks it against the allow-list.
func (s Scope) CheckPath(path string) PathResult {
	resolved := s.ResolveTarget(path)
	return PathResult{
		Enabled:  s.Enabled(),
		Allowed:  s.Allows(resolved),
		Resolved: resolved,
	}
}

// Resolve canonicalizes a path, following symlinks. Paths that do not
// exist yet are resolved as far as possible: the deepest existing ancestor
// is symlink-resolved and the remainder re-joined.
func Resolve(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	abs = filepath.Clean(abs)

	remainder := ""
	current := abs
	for {
		if resolved, err := filepath.EvalSymlinks(current); err == nil {
			if remainder == "" {
				return resolved
			}
			return filepath.Join(resolved, remainder)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs
		}
		remainder = filepath.Join(filepath.Base(current), remainder)
		current = parent
	}
}
