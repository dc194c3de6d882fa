package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the project-local policy file, relative to the .claude dir.
const FileName = "warden.yaml"

// Config is the root policy configuration. It is read fresh per
// evaluation; nothing is cached across hook invocations.
type Config struct {
	SafeDeletePaths         []string    `mapstructure:"safe_delete_paths" yaml:"safe_delete_paths"`
	SecretFiles             []string    `mapstructure:"secret_files" yaml:"secret_files"`
	AllowedWriteDirectories []string    `mapstructure:"allowed_write_directories" yaml:"allowed_write_directories"`
	Log                     LogConfig   `mapstructure:"log" yaml:"log"`
	Audit                   AuditConfig `mapstructure:"audit" yaml:"audit"`
}

// LogConfig application logging settings
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file,omitempty"`
}

// AuditConfig decision audit log settings
type AuditConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultConfig returns config with all protection features at their
// opt-in defaults: no safe-delete downgrades, no extra secret patterns,
// directory scoping disabled.
func DefaultConfig() *Config {
	return &Config{
		SafeDeletePaths:         []string{},
		SecretFiles:             []string{},
		AllowedWriteDirectories: []string{},
		Log: LogConfig{
			Level: "info",
		},
		Audit: AuditConfig{
			Enabled: true,
		},
	}
}

// Path returns the policy file path for a project root.
func Path(projectDir string) string {
	return filepath.Join(projectDir, ".claude", FileName)
}

// Load reads the policy file for the given project root. A missing file
// is not an error: every feature degrades to its disabled default. A
// corrupt file degrades the same way so the evaluator never crashes over
// configuration.
func Load(projectDir string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := Path(projectDir)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("WARDEN")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return DefaultConfig(), fmt.Errorf("read policy file: %w", err)
	}

	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.MatchName = func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		}
	}); err != nil {
		return DefaultConfig(), fmt.Errorf("decode policy file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("policy validation failed: %w", err)
	}

	return cfg, nil
}

func normalizeKey(input string) string {
	input = strings.ReplaceAll(input, "_", "")
	input = strings.ReplaceAll(input, "-", "")
	return strings.ToLower(input)
}

// Save writes the config as YAML under <projectDir>/.claude.
func Save(projectDir string, cfg *Config) error {
	configPath := Path(projectDir)

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// Validate checks that the configuration values are acceptable.
func (c *Config) Validate() error {
	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	if level == "" {
		c.Log.Level = "info"
	} else {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[level] {
			return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
		}
		c.Log.Level = level
	}

	for i, dir := range c.AllowedWriteDirectories {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("allowed_write_directories[%d] must not be blank", i)
		}
	}

	return nil
}

// FindProjectRoot walks up from start looking for a .claude directory.
// Falls back to start when none is found.
func FindProjectRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return start
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ".claude")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	root, err := filepath.Abs(start)
	if err != nil {
		return start
	}
	return root
}
