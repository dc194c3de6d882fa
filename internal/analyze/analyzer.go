// Package analyze scans a project tree and suggests policy configuration:
// artifact directories worth listing in safe_delete_paths, source and test
// directories worth listing in allowed_write_directories, and the test and
// build commands of the detected toolchains.
package analyze

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Report is the result of a project scan.
type Report struct {
	ProjectDir string         `json:"project_dir"`
	TotalFiles int            `json:"total_files"`
	Languages  map[string]int `json:"languages"`
	Frameworks []Framework    `json:"frameworks"`
	Suggestion Suggestion     `json:"suggestion"`
	Warnings   []string       `json:"warnings,omitempty"`
}

// Framework is a detected toolchain with the indicator files that
// identified it.
type Framework struct {
	Name       string   `json:"name"`
	Confidence float64  `json:"confidence"`
	Indicators []string `json:"indicators"`
}

// Suggestion carries values ready to merge into warden.yaml plus the
// detected project commands.
type Suggestion struct {
	SafeDeletePaths         []string            `json:"safe_delete_paths"`
	AllowedWriteDirectories []string            `json:"allowed_write_directories"`
	Commands                map[string][]string `json:"commands"`
}

// extLanguages maps file extensions to language names for the scan
// summary.
var extLanguages = map[string]string{
	".go":    "go",
	".rs":    "rust",
	".py":    "python",
	".js":    "javascript",
	".mjs":   "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".rb":    "ruby",
	".java":  "java",
	".kt":    "kotlin",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".swift": "swift",
	".sh":    "shell",
	".sql":   "sql",
	".proto": "protobuf",
	".tf":    "terraform",
	".yaml":  "yaml",
	".yml":   "yaml",
	".json":  "json",
	".toml":  "toml",
	".md":    "markdown",
	".html":  "html",
	".css":   "css",
}

// ignoreDirs are never descended into. The artifact subset among them is
// also what the safe-delete suggestion draws from when present.
var ignoreDirs = map[string]bool{
	"node_modules": true, "__pycache__": true, ".git": true, ".svn": true,
	"venv": true, ".venv": true, "build": true, "dist": true, "target": true,
	"out": true, "coverage": true, ".pytest_cache": true, ".mypy_cache": true,
	".ruff_cache": true, ".next": true, ".gradle": true, ".cache": true,
	"vendor": true, "third_party": true,
}

// artifactDirs are regeneratable build outputs and caches; directories
// listed here are suggested for safe_delete_paths when they exist.
var artifactDirs = []string{
	"node_modules", "__pycache__", "build", "dist", "target", "out",
	"coverage", ".pytest_cache", ".mypy_cache", ".ruff_cache", ".next",
	".gradle", ".cache",
}

// writeDirNames are conventional source, test and tooling directories;
// top-level matches are suggested for allowed_write_directories.
var writeDirNames = map[string]bool{
	"src": true, "lib": true, "app": true, "pkg": true, "internal": true,
	"cmd": true, "api": true, "tests": true, "test": true, "spec": true,
	"scripts": true, "tools": true, "docs": true,
}

// frameworkSpec describes one toolchain: the root-level files that
// identify it, the artifact directories it produces, and its commands.
type frameworkSpec struct {
	name       string
	indicators []string
	artifacts  []string
	commands   map[string][]string
}

var frameworkSpecs = []frameworkSpec{
	{
		name:       "go",
		indicators: []string{"go.mod", "go.sum"},
		commands: map[string][]string{
			"test":  {"go test ./..."},
			"lint":  {"go vet ./..."},
			"build": {"go build ./..."},
		},
	},
	{
		name:       "cargo",
		indicators: []string{"Cargo.toml", "Cargo.lock"},
		artifacts:  []string{"target/"},
		commands: map[string][]string{
			"test":  {"cargo test"},
			"lint":  {"cargo clippy"},
			"build": {"cargo build"},
		},
	},
	{
		name:       "node",
		indicators: []string{"package.json", "package-lock.json"},
		artifacts:  []string{"node_modules", "dist/", ".cache/"},
		commands: map[string][]string{
			"test":  {"npm test"},
			"lint":  {"npm run lint"},
			"build": {"npm run build"},
		},
	},
	{
		name:       "nextjs",
		indicators: []string{"next.config.js", "next.config.mjs", "next.config.ts"},
		artifacts:  []string{".next/"},
		commands: map[string][]string{
			"build": {"npm run build"},
		},
	},
	{
		name:       "python",
		indicators: []string{"pyproject.toml", "setup.py", "requirements.txt"},
		artifacts:  []string{"__pycache__", ".pytest_cache", ".mypy_cache"},
		commands: map[string][]string{
			"test": {"pytest"},
		},
	},
	{
		name:       "make",
		indicators: []string{"Makefile", "makefile", "GNUmakefile"},
		commands: map[string][]string{
			"test":  {"make test"},
			"build": {"make"},
		},
	},
	{
		name:       "cmake",
		indicators: []string{"CMakeLists.txt"},
		artifacts:  []string{"build/"},
		commands: map[string][]string{
			"test":  {"ctest"},
			"build": {"cmake --build build"},
		},
	},
	{
		name:       "gradle",
		indicators: []string{"build.gradle", "build.gradle.kts"},
		artifacts:  []string{"build/", ".gradle/"},
		commands: map[string][]string{
			"test":  {"./gradlew test"},
			"build": {"./gradlew build"},
		},
	},
	{
		name:       "maven",
		indicators: []string{"pom.xml"},
		artifacts:  []string{"target/"},
		commands: map[string][]string{
			"test":  {"mvn test"},
			"build": {"mvn package"},
		},
	},
	{
		name:       "docker",
		indicators: []string{"Dockerfile", "docker-compose.yml", "docker-compose.yaml"},
		commands: map[string][]string{
			"build": {"docker build ."},
		},
	},
}

// Project scans projectDir and builds the report. The walk skips hidden
// and artifact directories; artifact directories it encounters are still
// recorded as safe-delete candidates before being skipped.
func Project(projectDir string) (*Report, error) {
	info, err := os.Stat(projectDir)
	if err != nil {
		return nil, fmt.Errorf("stat project dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", projectDir)
	}

	report := &Report{
		ProjectDir: projectDir,
		Languages:  map[string]int{},
	}

	presentArtifacts := map[string]bool{}
	topLevelWriteDirs := map[string]bool{}

	err = filepath.WalkDir(projectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == projectDir {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			rel, relErr := filepath.Rel(projectDir, path)
			if relErr == nil && !strings.Contains(rel, string(filepath.Separator)) {
				if writeDirNames[name] {
					topLevelWriteDirs[name] = true
				}
			}
			if ignoreDirs[name] {
				presentArtifacts[name] = true
				return filepath.SkipDir
			}
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		report.TotalFiles++
		if lang, ok := extLanguages[strings.ToLower(filepath.Ext(name))]; ok {
			report.Languages[lang]++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}

	report.Frameworks = detectFrameworks(projectDir)
	report.Suggestion = buildSuggestion(report.Frameworks, presentArtifacts, topLevelWriteDirs)

	if report.TotalFiles == 0 {
		report.Warnings = append(report.Warnings, "no files found in project")
	}
	if len(report.Frameworks) == 0 {
		report.Warnings = append(report.Warnings, "no toolchain detected; suggestions use directory conventions only")
	}

	return report, nil
}

// detectFrameworks checks each spec's indicator files at the project root.
func detectFrameworks(projectDir string) []Framework {
	var detected []Framework
	for _, spec := range frameworkSpecs {
		var found []string
		for _, indicator := range spec.indicators {
			if _, err := os.Stat(filepath.Join(projectDir, indicator)); err == nil {
				found = append(found, indicator)
			}
		}
		if len(found) == 0 {
			continue
		}
		detected = append(detected, Framework{
			Name:       spec.name,
			Confidence: float64(len(found)) / float64(len(spec.indicators)),
			Indicators: found,
		})
	}
	sort.Slice(detected, func(i, j int) bool {
		if detected[i].Confidence != detected[j].Confidence {
			return detected[i].Confidence > detected[j].Confidence
		}
		return detected[i].Name < detected[j].Name
	})
	return detected
}

func buildSuggestion(frameworks []Framework, presentArtifacts, writeDirs map[string]bool) Suggestion {
	s := Suggestion{Commands: map[string][]string{}}

	safe := map[string]bool{}
	for name := range presentArtifacts {
		for _, artifact := range artifactDirs {
			if name == artifact {
				safe[name] = true
			}
		}
	}
	for _, fw := range frameworks {
		spec := specByName(fw.Name)
		for _, artifact := range spec.artifacts {
			safe[strings.TrimSuffix(artifact, "/")] = true
		}
		for kind, cmds := range spec.commands {
			for _, cmd := range cmds {
				if !contains(s.Commands[kind], cmd) {
					s.Commands[kind] = append(s.Commands[kind], cmd)
				}
			}
		}
	}
	s.SafeDeletePaths = sortedKeys(safe)
	s.AllowedWriteDirectories = sortedKeys(writeDirs)
	return s
}

func specByName(name string) frameworkSpec {
	for _, spec := range frameworkSpecs {
		if spec.name == name {
			return spec
		}
	}
	return frameworkSpec{}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
