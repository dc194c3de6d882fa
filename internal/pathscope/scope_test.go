package pathscope

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScope_Disabled(t *testing.T) {
	s := New(nil, t.TempDir())
	if s.Enabled() {
		t.Fatal("empty allow-list should disable the scope")
	}
	if !s.Allows("/anywhere/at/all") {
		t.Fatal("disabled scope must allow everything")
	}

	s = New([]string{"", "   "}, t.TempDir())
	if s.Enabled() {
		t.Fatal("all-blank allow-list should disable the scope")
	}
}

func TestScope_RelativeEntriesResolveAgainstProject(t *testing.T) {
	projectDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(projectDir, "src"), 0755); err != nil {
		t.Fatal(err)
	}

	s := New([]string{"src"}, projectDir)
	if !s.Enabled() {
		t.Fatal("scope should be enabled")
	}

	inside := s.ResolveTarget("src/main.go")
	if !s.Allows(inside) {
		t.Fatalf("target inside allowed dir rejected: %s", inside)
	}

	outside := s.ResolveTarget("docs/readme.md")
	if s.Allows(outside) {
		t.Fatalf("target outside allowed dir accepted: %s", outside)
	}
}

func TestScope_PrefixRequiresSeparator(t *testing.T) {
	projectDir := t.TempDir()
	allowed := filepath.Join(projectDir, "src")
	if err := os.MkdirAll(allowed, 0755); err != nil {
		t.Fatal(err)
	}

	s := New([]string{allowed}, projectDir)

	if !s.Allows(Resolve(filepath.Join(allowed, "pkg", "file.go"))) {
		t.Fatal("nested path under allowed dir rejected")
	}
	if !s.Allows(Resolve(allowed)) {
		t.Fatal("the allowed dir itself should be allowed")
	}
	if s.Allows(Resolve(filepath.Join(projectDir, "src-evil", "file.go"))) {
		t.Fatal("/src must not match /src-evil")
	}
}

func TestScope_SymlinkEscapeDetected(t *testing.T) {
	projectDir := t.TempDir()
	allowed := filepath.Join(projectDir, "sandbox")
	outside := filepath.Join(projectDir, "outside")
	for _, dir := range []string{allowed, outside} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}

	link := filepath.Join(allowed, "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	s := New([]string{allowed}, projectDir)

	// A path through the symlink resolves outside the allowed tree even
	// though its raw form sits inside it.
	resolved := s.ResolveTarget(filepath.Join(link, "file.txt"))
	if s.Allows(resolved) {
		t.Fatalf("symlink escape allowed: %s", resolved)
	}
}

func TestResolve_NonexistentPathUsesDeepestAncestor(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "does", "not", "exist.txt")

	resolved := Resolve(target)

	wantBase := Resolve(base)
	want := filepath.Join(wantBase, "does", "not", "exist.txt")
	if resolved != want {
		t.Fatalf("Resolve(%s) = %s, want %s", target, resolved, want)
	}
}

func TestCheckCommand(t *testing.T) {
	projectDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(projectDir, "out"), 0755); err != nil {
		t.Fatal(err)
	}
	s := New([]string{"out"}, projectDir)

	res := s.CheckCommand("echo done > out/status.txt")
	if !res.Enabled || !res.Allowed || len(res.DeniedPaths) != 0 {
		t.Fatalf("in-scope write: %+v", res)
	}

	res = s.CheckCommand("echo pwned > /etc/motd")
	if res.Allowed || len(res.DeniedPaths) != 1 {
		t.Fatalf("out-of-scope write: %+v", res)
	}

	res = s.CheckCommand("rsync -a a/ b/")
	if res.Allowed || !res.Unparseable {
		t.Fatalf("unparseable write: %+v", res)
	}

	res = New(nil, projectDir).CheckCommand("echo pwned > /etc/motd")
	if res.Enabled || !res.Allowed {
		t.Fatalf("disabled scope: %+v", res)
	}
}

func TestCheckPath(t *testing.T) {
	projectDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(projectDir, "out"), 0755); err != nil {
		t.Fatal(err)
	}
	s := New([]string{"out"}, projectDir)

	res := s.CheckPath("out/report.txt")
	if !res.Enabled || !res.Allowed {
		t.Fatalf("in-scope path: %+v", res)
	}
	if res.Resolved == "" || !filepath.IsAbs(res.Resolved) {
		t.Fatalf("resolved = %q, want absolute path", res.Resolved)
	}

	res = s.CheckPath("/etc/motd")
	if res.Allowed {
		t.Fatalf("out-of-scope path: %+v", res)
	}
}

func TestExtractWriteTargets(t *testing.T) {
	tests := []struct {
		name        string
		command     string
		wantTargets []string
	}{
		{"redirect", "echo hi > out.txt", []string{"out.txt"}},
		{"append", "echo hi >> log.txt", []string{"log.txt"}},
		{"tee", "make 2>&1 | tee -a build.log", []string{"build.log"}},
		{"cp destination", "cp a.txt b.txt dest/", []string{"dest/"}},
		{"mv destination", "mv old.txt new.txt", []string{"new.txt"}},
		{"mkdir", "mkdir -p out/reports", []string{"out/reports"}},
		{"touch", "touch marker.done", []string{"marker.done"}},
		{"curl output", "curl -sSL https://example.com -o payload.bin", []string{"payload.bin"}},
		{"wget output", "wget https://example.com -O payload.bin", []string{"payload.bin"}},
		{"sed in place", "sed -i 's/a/b/' config.yaml", []string{"config.yaml"}},
		{"dev null skipped", "ls > /dev/null", nil},
		{"variable skipped", "echo hi > $OUT", nil},
		{"no writes", "git status", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := ExtractWriteTargets(tt.command)
			if ex.Unparseable {
				t.Fatalf("ExtractWriteTargets(%q) unexpectedly unparseable: %v", tt.command, ex.Indicators)
			}
			if len(ex.Targets) != len(tt.wantTargets) {
				t.Fatalf("targets = %v, want %v", ex.Targets, tt.wantTargets)
			}
			for i := range ex.Targets {
				if ex.Targets[i] != tt.wantTargets[i] {
					t.Fatalf("targets = %v, want %v", ex.Targets, tt.wantTargets)
				}
			}
		})
	}
}

func TestExtractWriteTargets_UnparseableIndicators(t *testing.T) {
	tests := []struct {
		name    string
		command string
		wantInd string
	}{
		{"python oneliner", `python3 -c "open('x','w')"`, "python -c"},
		{"tar extract dir", "tar -xzf a.tgz -C /opt", "tar -C"},
		{"unzip dest", "unzip a.zip -d /srv", "unzip -d"},
		{"rsync", "rsync -a src/ dst/", "rsync"},
		{"patch", "patch -p1 fix.patch", "patch"},
		{"eval", "eval $CMD", "eval"},
		{"dd", "dd if=a of=b", "dd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := ExtractWriteTargets(tt.command)
			if !ex.Unparseable {
				t.Fatalf("ExtractWriteTargets(%q) should be unparseable", tt.command)
			}
			found := false
			for _, ind := range ex.Indicators {
				if ind == tt.wantInd {
					found = true
				}
			}
			if !found {
				t.Fatalf("indicators = %v, want to include %q", ex.Indicators, tt.wantInd)
			}
		})
	}
}
