// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Constants for default paths
const (
	DefaultConfigDir      = ".swarm"
	DefaultConfigFileName = "config.yaml"

	// DefaultMaxAttempts is how many review/fix rounds a phase gets before the
	// orchestration loop is expected to escalate instead of retrying.
	DefaultMaxAttempts = 3
)

// DefaultMakeTargets are the Makefile targets the prerequisite checker
// requires for worktree-based phase execution.
var DefaultMakeTargets = []string{"setup", "build", "test", "worktree", "worktree-remove"}

// PrereqRule is a user-defined prerequisite: a CEL condition evaluated
// against the facts gathered about the repository. The rule passes when the
// condition evaluates to true.
type PrereqRule struct {
	Name      string `yaml:"name"`
	Condition string `yaml:"condition"`
	Message   string `yaml:"message,omitempty"`
}

// Config holds the global application configuration
type Config struct {
	MaxAttempts        int          `yaml:"max_attempts"`
	MakeTargets        []string     `yaml:"make_targets"`
	PrereqRules        []PrereqRule `yaml:"prereq_rules,omitempty"`
	SkipToolchainProbe bool         `yaml:"skip_toolchain_probe"`
}

// NewDefaultConfig creates a default configuration
func NewDefaultConfig() *Config {
	return &Config{
		MaxAttempts: DefaultMaxAttempts,
		MakeTargets: append([]string(nil), DefaultMakeTargets...),
	}
}

// AttemptsExhausted reports whether a phase's attempt counter has reached the
// configured cap, meaning the next rejection should escalate instead of
// entering another fix round.
func (c *Config) AttemptsExhausted(attempts int) bool {
	return c.MaxAttempts > 0 && attempts >= c.MaxAttempts
}

// ExpandPathWithTilde expands ~ to user home directory.
// It respects the SWARM_HOME environment variable for testing purposes.
func ExpandPathWithTilde(path string) string {
	if path == "~" {
		home := getHomeDir()
		if home == "" {
			return path
		}
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home := getHomeDir()
		if home == "" {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// getHomeDir returns the home directory, respecting SWARM_HOME for testing
func getHomeDir() string {
	if swarmHome := os.Getenv("SWARM_HOME"); swarmHome != "" {
		return swarmHome
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

// GlobalConfigFilePath returns the absolute path to the global swarm config
// file. It respects the SWARM_HOME environment variable for testing purposes.
func GlobalConfigFilePath() (string, error) {
	var home string

	if swarmHome := os.Getenv("SWARM_HOME"); swarmHome != "" {
		home = swarmHome
	} else {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not get user home directory: %w", err)
		}
	}

	return filepath.Join(home, DefaultConfigDir, DefaultConfigFileName), nil
}

// LoadConfig loads the application configuration. It starts with default
// settings, then merges settings from the global configuration file if one
// exists. The globalConfigPathOverride parameter allows specifying a custom
// path for the global config file, primarily for testing. If empty, the
// default global config path (e.g., ~/.swarm/config.yaml) is used.
func LoadConfig(globalConfigPathOverride string) (*Config, error) {
	config := NewDefaultConfig()

	var globalConfigPath string
	var err error
	if globalConfigPathOverride != "" {
		globalConfigPath = ExpandPathWithTilde(globalConfigPathOverride)
	} else {
		globalConfigPath, err = GlobalConfigFilePath()
		if err != nil {
			fmt.Printf("Warning: could not determine global config path: %v\n", err)
			globalConfigPath = ""
		}
	}

	globalConfig, err := LoadConfigFile(globalConfigPath)
	if err == nil {
		mergeConfigs(config, globalConfig)
	} else if !os.IsNotExist(err) && globalConfigPath != "" {
		fmt.Printf("Warning: could not load global config file '%s': %v\n", globalConfigPath, err)
	}

	return config, nil
}

// LoadConfigFile loads a configuration from a specific file path
func LoadConfigFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path cannot be empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return config, nil
}

// mergeConfigs merges source config into target config
// Only non-zero values from source override target
func mergeConfigs(target, source *Config) {
	if source.MaxAttempts > 0 {
		target.MaxAttempts = source.MaxAttempts
	}
	if len(source.MakeTargets) > 0 {
		target.MakeTargets = source.MakeTargets
	}
	if len(source.PrereqRules) > 0 {
		target.PrereqRules = source.PrereqRules
	}
	target.SkipToolchainProbe = source.SkipToolchainProbe
}

// SaveConfig saves the configuration to the specified directory (typically
// the user's home, forming ~/.swarm/config.yaml)
func SaveConfig(config *Config, dir string) error {
	configDir := filepath.Join(dir, DefaultConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("error creating config directory '%s': %w", configDir, err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFileName)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file '%s': %w", configPath, err)
	}
	return nil
}
