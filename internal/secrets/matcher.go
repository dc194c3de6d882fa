// Package secrets guards credential files against reads and writes.
// The same matcher backs both directions of the protection.
package secrets

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
)

// builtinPatterns cover common credential file names. User-supplied
// patterns from the policy file extend, never replace, this set.
var builtinPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"dotenv", regexp.MustCompile(`(?i)(?:^|/)\.env(?:\.[^/]+)?$`)},
	{"ssh private key", regexp.MustCompile(`(?:^|/)id_(?:rsa|dsa|ecdsa|ed25519)$`)},
	{"pem key", regexp.MustCompile(`(?i)\.pem$`)},
	{"key file", regexp.MustCompile(`(?i)\.key$`)},
	{"pkcs bundle", regexp.MustCompile(`(?i)\.(?:p12|pfx)$`)},
	{"netrc", regexp.MustCompile(`(?:^|/)\.netrc$`)},
	{"npmrc auth", regexp.MustCompile(`(?:^|/)\.npmrc$`)},
	{"pypirc", regexp.MustCompile(`(?:^|/)\.pypirc$`)},
	{"aws credentials", regexp.MustCompile(`(?:^|/)\.aws/credentials$`)},
	{"gcloud credentials", regexp.MustCompile(`(?i)(?:^|/)(?:application_default_)?credentials\.json$`)},
	{"kube config", regexp.MustCompile(`(?:^|/)\.kube/config$`)},
	{"docker auth", regexp.MustCompile(`(?:^|/)\.docker/config\.json$`)},
	{"secrets yaml", regexp.MustCompile(`(?i)(?:^|/)secrets?\.ya?ml$`)},
	{"token file", regexp.MustCompile(`(?i)(?:^|/)[^/]*(?:_|\.)token$`)},
}

// exemptSuffixes are template files that look like secrets but carry none.
var exemptSuffixes = []string{
	".env.example",
	".env.sample",
	".env.template",
}

// Match describes which pattern identified a path as a secret file.
type Match struct {
	Pattern string
}

// Matcher checks file paths against builtin and configured patterns.
type Matcher struct {
	extra []struct {
		name string
		re   *regexp.Regexp
	}
}

// NewMatcher compiles the user-supplied patterns from the policy file.
// Invalid expressions are skipped with a warning; they never disable the
// builtin protection.
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			slog.Warn("skipping invalid secret_files pattern", "pattern", p, "error", err)
			continue
		}
		m.extra = append(m.extra, struct {
			name string
			re   *regexp.Regexp
		}{name: p, re: re})
	}
	return m
}

// MatchPath reports whether the path names a protected secret file.
func (m *Matcher) MatchPath(path string) (Match, bool) {
	normalized := filepath.ToSlash(strings.TrimSpace(path))
	if normalized == "" {
		return Match{}, false
	}

	for _, suffix := range exemptSuffixes {
		if strings.HasSuffix(normalized, suffix) {
			return Match{}, false
		}
	}

	for _, p := range builtinPatterns {
		if p.re.MatchString(normalized) {
			return Match{Pattern: p.name}, true
		}
	}
	for _, p := range m.extra {
		if p.re.MatchString(normalized) {
			return Match{Pattern: p.name}, true
		}
	}
	return Match{}, false
}
