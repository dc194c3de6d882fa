package secrets

import "testing"

func TestMatchPath_BuiltinPatterns(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"dotenv", ".env"},
		{"dotenv nested", "/home/user/project/.env"},
		{"dotenv production", "config/.env.production"},
		{"ssh key", "/home/user/.ssh/id_rsa"},
		{"ssh ed25519", "/home/user/.ssh/id_ed25519"},
		{"pem", "certs/server.pem"},
		{"key file", "tls/private.key"},
		{"pkcs bundle", "identity.p12"},
		{"netrc", "/home/user/.netrc"},
		{"npmrc", ".npmrc"},
		{"aws credentials", "/home/user/.aws/credentials"},
		{"gcloud adc", ".config/gcloud/application_default_credentials.json"},
		{"kube config", "/home/user/.kube/config"},
		{"docker auth", "/home/user/.docker/config.json"},
		{"secrets yaml", "deploy/secrets.yaml"},
		{"token file", "ci/deploy_token"},
	}

	m := NewMatcher(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, ok := m.MatchPath(tt.path)
			if !ok {
				t.Fatalf("MatchPath(%q) = false, want protected", tt.path)
			}
			if match.Pattern == "" {
				t.Fatal("match must name its pattern")
			}
		})
	}
}

func TestMatchPath_ExemptTemplates(t *testing.T) {
	m := NewMatcher(nil)
	for _, path := range []string{".env.example", "config/.env.sample", ".env.template"} {
		if _, ok := m.MatchPath(path); ok {
			t.Fatalf("MatchPath(%q) matched, template files are exempt", path)
		}
	}
}

func TestMatchPath_OrdinaryFiles(t *testing.T) {
	m := NewMatcher(nil)
	for _, path := range []string{"main.go", "README.md", "environment.ts", "keyboard.go", "docs/token-design.md", ""} {
		if match, ok := m.MatchPath(path); ok {
			t.Fatalf("MatchPath(%q) matched %q, want no match", path, match.Pattern)
		}
	}
}

func TestMatchPath_ConfiguredPatterns(t *testing.T) {
	m := NewMatcher([]string{`(?i)vault\.ya?ml$`})

	if _, ok := m.MatchPath("deploy/vault.yml"); !ok {
		t.Fatal("configured pattern did not match")
	}
	// Builtins still apply alongside configured patterns.
	if _, ok := m.MatchPath(".env"); !ok {
		t.Fatal("builtin pattern lost after configuring extras")
	}
}

func TestNewMatcher_SkipsInvalidPatterns(t *testing.T) {
	m := NewMatcher([]string{`[unclosed`, `valid_pattern$`})

	if _, ok := m.MatchPath("a/valid_pattern"); !ok {
		t.Fatal("valid configured pattern should survive an invalid sibling")
	}
	if _, ok := m.MatchPath(".env"); !ok {
		t.Fatal("builtin protection must survive invalid configured patterns")
	}
}
