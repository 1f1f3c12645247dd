// Package config provides hierarchical configuration management for debbump using koanf.
// Configuration is loaded with priority: environment variables > project config (.debbump.yml,
// or the file given with --config) > user config (~/.config/debbump/config.yml) > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides. Nested keys use a double
// underscore: DEBBUMP_GIT__BACKEND=gogit sets git.backend.
const EnvPrefix = "DEBBUMP_"

// Values of git.backend and changelog.parser.
const (
	BackendCLI   = "cli"
	BackendGoGit = "gogit"
	ParserDpkg   = "dpkg"
	ParserNative = "native"
)

// Configuration represents the debbump tool configuration
type Configuration struct {
	// Marker must exist in the work dir; it proves debbump runs at the repository root.
	Marker string `koanf:"marker" yaml:"marker" validate:"required"`
	// LinkName is the packaging directory Debian tools expect.
	LinkName string `koanf:"link_name" yaml:"link_name" validate:"required"`
	// TemplateDir is the packaging template LinkName points to.
	TemplateDir string `koanf:"template_dir" yaml:"template_dir" validate:"required"`

	// Flavour is inserted between the upstream version and the commit count
	// of the synthesized version: <upstream>-<flavour><count>-<revision>.
	Flavour string `koanf:"flavour" yaml:"flavour" validate:"required,alphanum"`
	// SummaryPrefix starts the summary bullet, followed by the describe string.
	SummaryPrefix string `koanf:"summary_prefix" yaml:"summary_prefix"`
	Distribution  string `koanf:"distribution" yaml:"distribution" validate:"required"`
	Urgency       string `koanf:"urgency" yaml:"urgency" validate:"oneof=low medium high emergency critical"`

	// Timeout bounds a whole run in seconds; 0 disables it.
	Timeout int `koanf:"timeout" yaml:"timeout" validate:"min=0"`

	Install    InstallConfig    `koanf:"install" yaml:"install"`
	Git        GitConfig        `koanf:"git" yaml:"git"`
	Changelog  ChangelogConfig  `koanf:"changelog" yaml:"changelog"`
	Rules      RulesConfig      `koanf:"rules" yaml:"rules"`
	Maintainer MaintainerConfig `koanf:"maintainer" yaml:"maintainer"`
}

// InstallConfig configures build dependency installation.
type InstallConfig struct {
	Skip     bool     `koanf:"skip" yaml:"skip"`
	Command  string   `koanf:"command" yaml:"command" validate:"required"`
	Packages []string `koanf:"packages" yaml:"packages"`
}

// GitConfig selects how the source repository is read.
type GitConfig struct {
	// Backend is "cli" (git binary) or "gogit" (in-process).
	Backend string `koanf:"backend" yaml:"backend" validate:"oneof=cli gogit"`
	// Abbrev is the hash length used by the gogit backend.
	Abbrev int `koanf:"abbrev" yaml:"abbrev" validate:"min=4,max=40"`
}

// ChangelogConfig selects how the packaging changelog is queried.
type ChangelogConfig struct {
	// Parser is "dpkg" (dpkg-parsechangelog) or "native".
	Parser string `koanf:"parser" yaml:"parser" validate:"oneof=dpkg native"`
}

// RulesConfig names the packaging makefile and its targets.
type RulesConfig struct {
	Path          string `koanf:"path" yaml:"path" validate:"required"`
	ControlTarget string `koanf:"control_target" yaml:"control_target" validate:"required"`
	OrigTarget    string `koanf:"orig_target" yaml:"orig_target" validate:"required"`
}

// MaintainerConfig is the trailer identity used when no commit provides one.
// It falls back to DEBFULLNAME and DEBEMAIL.
type MaintainerConfig struct {
	Name  string `koanf:"name" yaml:"name"`
	Email string `koanf:"email" yaml:"email" validate:"omitempty,email"`
}

// TimeoutDuration returns Timeout as a duration; zero means no timeout.
func (c *Configuration) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// Dir is the work dir holding the project config (default: current directory).
	Dir string
	// ConfigPath is an explicit config file (--config). It replaces the
	// project config and must exist. Files ending in .json use the JSON parser.
	ConfigPath string
	// SkipUserConfig ignores the user-level config file.
	SkipUserConfig bool
}

// Load loads configuration for the project in dir.
func Load(dir string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{Dir: dir})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")

	loadDefaults(k)

	if !opts.SkipUserConfig {
		if err := loadUserConfig(k); err != nil {
			return nil, err
		}
	}

	if err := loadProjectConfig(k, opts); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	return finalizeConfig(k)
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

// loadUserConfig loads ~/.config/debbump/config.yml if present.
func loadUserConfig(k *koanf.Koanf) error {
	path, err := UserConfigPath()
	if err != nil || !fileExists(path) {
		return nil
	}
	if err := loadFile(k, path, "user"); err != nil {
		return fmt.Errorf("loading user config: %w", err)
	}
	return nil
}

// loadProjectConfig loads the explicit --config file, or .debbump.yml in the work dir.
func loadProjectConfig(k *koanf.Koanf, opts LoadOptions) error {
	if opts.ConfigPath != "" {
		if !fileExists(opts.ConfigPath) {
			return &ValidationError{Path: opts.ConfigPath, Message: "config file not found"}
		}
		if err := loadFile(k, opts.ConfigPath, "project"); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	}

	path := ProjectConfigPath(opts.Dir)
	if !fileExists(path) {
		return nil
	}
	if err := loadFile(k, path, "project"); err != nil {
		return fmt.Errorf("loading project config: %w", err)
	}
	return nil
}

// loadFile validates and loads a YAML or JSON config file
func loadFile(k *koanf.Koanf, path, configType string) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
		}
		return nil
	}

	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
	}
	return nil
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// finalizeConfig unmarshals, applies fallbacks and validates.
func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Maintainer.Name == "" {
		cfg.Maintainer.Name = os.Getenv("DEBFULLNAME")
	}
	if cfg.Maintainer.Email == "" {
		cfg.Maintainer.Email = os.Getenv("DEBEMAIL")
	}

	if err := ValidateConfigValues(&cfg, ""); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// listKeys are the keys whose environment values are comma-separated lists.
var listKeys = map[string]bool{
	"install.packages": true,
}

// envValue maps an environment variable to its config key and value.
func envValue(name, value string) (string, interface{}) {
	key := envTransform(name)
	if listKeys[key] {
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return key, items
	}
	return key, value
}

// envTransform converts environment variable names to config keys
// Example: DEBBUMP_GIT__BACKEND -> git.backend
func envTransform(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}
