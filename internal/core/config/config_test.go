// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, DefaultMakeTargets, cfg.MakeTargets)
	assert.Empty(t, cfg.PrereqRules)
	assert.False(t, cfg.SkipToolchainProbe)
}

func TestAttemptsExhausted(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.False(t, cfg.AttemptsExhausted(0))
	assert.False(t, cfg.AttemptsExhausted(DefaultMaxAttempts-1))
	assert.True(t, cfg.AttemptsExhausted(DefaultMaxAttempts))
	assert.True(t, cfg.AttemptsExhausted(DefaultMaxAttempts+1))

	// A zero cap disables the check entirely.
	cfg.MaxAttempts = 0
	assert.False(t, cfg.AttemptsExhausted(100))
}

func TestExpandPathWithTilde(t *testing.T) {
	t.Setenv("SWARM_HOME", "/custom/home")

	assert.Equal(t, "/custom/home", ExpandPathWithTilde("~"))
	assert.Equal(t, filepath.Join("/custom/home", "x", "y"), ExpandPathWithTilde("~/x/y"))
	assert.Equal(t, "/abs/path", ExpandPathWithTilde("/abs/path"))
	assert.Equal(t, "relative", ExpandPathWithTilde("relative"))
}

func TestGlobalConfigFilePathHonorsSwarmHome(t *testing.T) {
	t.Setenv("SWARM_HOME", "/custom/home")

	path, err := GlobalConfigFilePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/custom/home", DefaultConfigDir, DefaultConfigFileName), path)
}

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	t.Setenv("SWARM_HOME", t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, DefaultMakeTargets, cfg.MakeTargets)
}

func TestLoadConfigMergesGlobalFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SWARM_HOME", home)

	content := `max_attempts: 5
prereq_rules:
  - name: git present
    condition: facts.has_git == true
    message: install git
`
	dir := filepath.Join(home, DefaultConfigDir)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFileName), []byte(content), 0644))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxAttempts)
	// Targets absent from the file keep their defaults.
	assert.Equal(t, DefaultMakeTargets, cfg.MakeTargets)
	require.Len(t, cfg.PrereqRules, 1)
	assert.Equal(t, "git present", cfg.PrereqRules[0].Name)
	assert.Equal(t, "install git", cfg.PrereqRules[0].Message)
}

func TestLoadConfigWithOverridePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("skip_toolchain_probe: true\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.SkipToolchainProbe)
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
}

func TestLoadConfigFileErrors(t *testing.T) {
	_, err := LoadConfigFile("")
	assert.Error(t, err)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, os.IsNotExist(err))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(":\t not yaml ["), 0644))
	_, err = LoadConfigFile(bad)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.MaxAttempts = 7
	cfg.SkipToolchainProbe = true

	require.NoError(t, SaveConfig(cfg, dir))

	loaded, err := LoadConfigFile(filepath.Join(dir, DefaultConfigDir, DefaultConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.MaxAttempts)
	assert.True(t, loaded.SkipToolchainProbe)
	assert.Equal(t, DefaultMakeTargets, loaded.MakeTargets)
}

func TestMergeConfigs(t *testing.T) {
	target := NewDefaultConfig()
	source := &Config{MaxAttempts: 10, MakeTargets: []string{"build"}}
	mergeConfigs(target, source)

	assert.Equal(t, 10, target.MaxAttempts)
	assert.Equal(t, []string{"build"}, target.MakeTargets)

	// Zero values in source leave target untouched (except the probe flag,
	// which always follows the source).
	target = NewDefaultConfig()
	mergeConfigs(target, &Config{})
	assert.Equal(t, DefaultMaxAttempts, target.MaxAttempts)
	assert.Equal(t, DefaultMakeTargets, target.MakeTargets)
}
