// SPDX-License-Identifier: Apache-2.0

package prereq_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swarm-oss/swarm/internal/core/config"
	"github.com/swarm-oss/swarm/internal/swarm/prereq"
)

// fakeRunner answers probe commands from canned results without shelling out.
type fakeRunner struct {
	missing map[string]bool
	results map[string]*prereq.CommandResult
}

func (f *fakeRunner) LookPath(name string) bool {
	return !f.missing[name]
}

func (f *fakeRunner) Run(dir string, timeout time.Duration, name string, args ...string) *prereq.CommandResult {
	key := strings.Join(append([]string{name}, args...), " ")
	if res, ok := f.results[key]; ok {
		return res
	}
	return &prereq.CommandResult{}
}

const claudeMD = `# Project

## Stack
Go 1.24, cobra.

## Testing
testify, table tests.

## Code Quality
gofmt, golangci-lint.

## Project Structure
cmd/ and internal/.

## Config
YAML in .swarm/.
`

const makefile = `setup:
	true
build:
	true
test:
	true
worktree:
	true
worktree-remove:
	true
`

const validPlan = `<!-- PHASE:1 -->
## Phase 1: Core
### Branch
` + "`phase-1-core`" + `
### Scope
Core work.
### Files to Create/Modify
- ` + "`src/core.go`" + `
### Acceptance Criteria
- [ ] done
### Tests Required
- [ ] unit
<!-- /PHASE:1 -->
`

// readyProject lays out main/.git, worktrees/, CLAUDE.md, Makefile, and a
// valid plan under a temp dir, returning the plan path.
func readyProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "main", ".git"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "worktrees"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "CLAUDE.md"), []byte(claudeMD), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Makefile"), []byte(makefile), 0644))

	planPath := filepath.Join(root, "plan.md")
	require.NoError(t, os.WriteFile(planPath, []byte(validPlan), 0644))
	return planPath
}

func newChecker(runner prereq.Runner) *prereq.Checker {
	return prereq.NewCheckerWithRunner(config.NewDefaultConfig(), runner)
}

func categoryIssues(t *testing.T, result *prereq.Result, name string) []string {
	t.Helper()
	for _, c := range result.Categories {
		if c.Name == name {
			return c.Issues
		}
	}
	t.Fatalf("category %q not found", name)
	return nil
}

func TestCheckAllPass(t *testing.T) {
	planPath := readyProject(t)
	result := newChecker(&fakeRunner{}).Check(planPath)

	for _, c := range result.Categories {
		assert.Empty(t, c.Issues, "category %s should pass", c.Name)
	}
	assert.True(t, result.Passed())
	assert.NoError(t, result.Err())
}

func TestCheckMissingTools(t *testing.T) {
	planPath := readyProject(t)
	runner := &fakeRunner{missing: map[string]bool{"gh": true, "make": true}}

	result := newChecker(runner).Check(planPath)
	assert.False(t, result.Passed())

	assert.NotEmpty(t, categoryIssues(t, result, "gh CLI"))
	assert.NotEmpty(t, categoryIssues(t, result, "make"))

	// The slow toolchain probe is skipped once anything failed.
	toolchain := categoryIssues(t, result, "Toolchain (make build)")
	require.Len(t, toolchain, 1)
	assert.Contains(t, toolchain[0], "Skipped")

	err := result.Err()
	require.Error(t, err)
	var prereqErr *prereq.Error
	require.True(t, errors.As(err, &prereqErr))
	assert.GreaterOrEqual(t, len(prereqErr.Reasons), 2)
}

func TestCheckUnauthenticatedGh(t *testing.T) {
	planPath := readyProject(t)
	runner := &fakeRunner{results: map[string]*prereq.CommandResult{
		"gh auth status": {Stderr: []byte("You are not logged into any GitHub hosts."), ExitStatus: 1},
	}}

	result := newChecker(runner).Check(planPath)
	issues := categoryIssues(t, result, "gh CLI")
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "gh auth login")
}

func TestCheckMissingLayout(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.md")
	require.NoError(t, os.WriteFile(planPath, []byte(validPlan), 0644))

	result := newChecker(&fakeRunner{}).Check(planPath)
	issues := categoryIssues(t, result, "Directory layout")
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "main/")

	// Layout-dependent checks stay quiet rather than piling on.
	assert.Empty(t, categoryIssues(t, result, "Remote origin"))
	assert.Empty(t, categoryIssues(t, result, "Clean worktree"))
}

func TestCheckDirtyWorktree(t *testing.T) {
	planPath := readyProject(t)
	runner := &fakeRunner{results: map[string]*prereq.CommandResult{
		"git status --porcelain": {Output: []byte(" M src/core.go\n")},
	}}

	result := newChecker(runner).Check(planPath)
	issues := categoryIssues(t, result, "Clean worktree")
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "Uncommitted changes")
}

func TestCheckClaudeMDSections(t *testing.T) {
	planPath := readyProject(t)
	sparse := "# Project\n\n## Stack\nGo.\n"
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(planPath), "CLAUDE.md"), []byte(sparse), 0644))

	result := newChecker(&fakeRunner{}).Check(planPath)
	issues := categoryIssues(t, result, "CLAUDE.md")
	assert.Contains(t, strings.Join(issues, "\n"), "Testing conventions")
	assert.Contains(t, strings.Join(issues, "\n"), "Project structure")
}

func TestCheckMakefileTargets(t *testing.T) {
	planPath := readyProject(t)
	partial := "setup:\n\ttrue\nbuild:\n\ttrue\ntest:\n\ttrue\n"
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(planPath), "Makefile"), []byte(partial), 0644))

	result := newChecker(&fakeRunner{}).Check(planPath)
	issues := categoryIssues(t, result, "Makefile")
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "worktree")
	assert.Contains(t, issues[0], "worktree-remove")
}

func TestCheckPlanFileCycle(t *testing.T) {
	planPath := readyProject(t)
	cyclic := strings.ReplaceAll(validPlan, "<!-- PHASE:1 -->", "<!-- PHASE:1 DEPENDS:1 -->")
	require.NoError(t, os.WriteFile(planPath, []byte(cyclic), 0644))

	result := newChecker(&fakeRunner{}).Check(planPath)
	issues := categoryIssues(t, result, "Plan file")
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "dependency cycle detected")
}

func TestCheckCustomRules(t *testing.T) {
	planPath := readyProject(t)
	cfg := config.NewDefaultConfig()
	cfg.PrereqRules = []config.PrereqRule{
		{Name: "git present", Condition: `facts.has_git == true`},
		{Name: "never", Condition: `facts.has_main_dir == false`, Message: "main dir should not exist"},
		{Name: "broken", Condition: `facts.`},
	}

	checker := prereq.NewCheckerWithRunner(cfg, &fakeRunner{})
	result := checker.Check(planPath)
	issues := categoryIssues(t, result, "Custom rules")
	require.Len(t, issues, 2)
	assert.Contains(t, issues[0], "main dir should not exist")
	assert.Contains(t, issues[1], `rule "broken"`)
}

func TestCheckSkipToolchainProbe(t *testing.T) {
	planPath := readyProject(t)
	cfg := config.NewDefaultConfig()
	cfg.SkipToolchainProbe = true

	// A failing make build must not matter when the probe is disabled.
	runner := &fakeRunner{results: map[string]*prereq.CommandResult{
		"make build": {Stderr: []byte("compile error"), ExitStatus: 2},
	}}
	result := prereq.NewCheckerWithRunner(cfg, runner).Check(planPath)
	assert.True(t, result.Passed())
}

func TestCheckToolchainFailure(t *testing.T) {
	planPath := readyProject(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(filepath.Dir(planPath), "main", "Makefile"), []byte(makefile), 0644))

	runner := &fakeRunner{results: map[string]*prereq.CommandResult{
		"make build": {Stderr: []byte("pkg.go:1: syntax error"), ExitStatus: 2},
	}}
	result := newChecker(runner).Check(planPath)
	issues := categoryIssues(t, result, "Toolchain (make build)")
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "`make build` failed")
	assert.Contains(t, issues[0], "syntax error")
}
