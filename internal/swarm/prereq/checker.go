// SPDX-License-Identifier: Apache-2.0

// Package prereq validates that the environment around a plan file is ready
// for phased execution: required CLI tools, the main/ + worktrees/ directory
// layout, project configuration documents, and the plan file itself. The
// scheduler consumes only the pass/fail outcome; none of this logic leaks
// into graph or scheduling code.
package prereq

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/swarm-oss/swarm/internal/core/config"
	"github.com/swarm-oss/swarm/internal/swarm/graph"
	"github.com/swarm-oss/swarm/internal/swarm/plan"
)

// claudeMDSections are the headings CLAUDE.md must cover for phase workers to
// be effective. Each entry pairs a heading regex with a human-readable label.
var claudeMDSections = []struct {
	Pattern *regexp.Regexp
	Label   string
}{
	{regexp.MustCompile(`(?i)##?\s*(tech\s*)?stack|##?\s*tools|##?\s*frameworks`), "Stack (tools, frameworks, versions)"},
	{regexp.MustCompile(`(?i)##?\s*test`), "Testing conventions"},
	{regexp.MustCompile(`(?i)##?\s*(code\s*quality|lint|format)`), "Code quality standards"},
	{regexp.MustCompile(`(?i)##?\s*project\s*structure`), "Project structure"},
	{regexp.MustCompile(`(?i)##?\s*config|##?\s*env`), "Config management"},
}

const (
	probeTimeout     = 10 * time.Second
	toolchainTimeout = 2 * time.Minute
)

// Error carries the full list of failure reasons from a prerequisite run.
type Error struct {
	Reasons []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("prerequisite check failed: %s", strings.Join(e.Reasons, "; "))
}

// Category is one named group of prerequisite checks and its issues. An empty
// issue list means the category passed.
type Category struct {
	Name   string
	Issues []string
}

// Result is the outcome of a full prerequisite run.
type Result struct {
	Categories []Category
}

// Passed reports whether every category came back clean.
func (r *Result) Passed() bool {
	for _, c := range r.Categories {
		if len(c.Issues) > 0 {
			return false
		}
	}
	return true
}

// Err returns an *Error carrying all failure reasons, or nil when the run
// passed.
func (r *Result) Err() error {
	var reasons []string
	for _, c := range r.Categories {
		for _, issue := range c.Issues {
			reasons = append(reasons, fmt.Sprintf("%s: %s", c.Name, issue))
		}
	}
	if len(reasons) == 0 {
		return nil
	}
	return &Error{Reasons: reasons}
}

// Checker runs prerequisite validation around one plan file.
type Checker struct {
	cfg    *config.Config
	runner Runner
}

// NewChecker creates a prerequisite checker with the default command runner
func NewChecker(cfg *config.Config) *Checker {
	return &Checker{cfg: cfg, runner: NewRunner()}
}

// NewCheckerWithRunner creates a checker with an injected runner, for tests
func NewCheckerWithRunner(cfg *config.Config, runner Runner) *Checker {
	return &Checker{cfg: cfg, runner: runner}
}

// Check runs every prerequisite category against the plan file. The toolchain
// probe runs last and is skipped when any earlier category failed.
func (c *Checker) Check(planPath string) *Result {
	result := &Result{}
	add := func(name string, issues []string) {
		result.Categories = append(result.Categories, Category{Name: name, Issues: issues})
	}

	// CLI tools
	add("gh CLI", c.checkGhCLI())
	add("make", c.checkMakeCLI())
	add("Git worktree", c.checkGitWorktree())

	// Directory structure & git state
	add("Directory layout", c.checkDirectoryStructure(planPath))
	add("Remote origin", c.checkRemoteOrigin(planPath))
	add("Clean worktree", c.checkCleanWorktree(planPath))

	// Project config
	add("CLAUDE.md", c.checkClaudeMD(planPath))
	add("Makefile", c.checkMakefile(planPath))

	// Plan file structure
	add("Plan file", c.checkPlanFile(planPath))

	// Custom rules from config
	if len(c.cfg.PrereqRules) > 0 {
		add("Custom rules", c.checkCustomRules(planPath))
	}

	// Toolchain probe is the slowest check; skip it when anything above failed.
	if !result.Passed() {
		add("Toolchain (make build)", []string{"Skipped — fix above issues first"})
	} else if c.cfg.SkipToolchainProbe {
		add("Toolchain (make build)", nil)
	} else {
		add("Toolchain (make build)", c.checkToolchain(planPath))
	}

	return result
}

func (c *Checker) checkGhCLI() []string {
	if !c.runner.LookPath("gh") {
		return []string{"gh (GitHub CLI) not found in PATH. Install: https://cli.github.com/"}
	}
	if res := c.runner.Run("", probeTimeout, "gh", "auth", "status"); !res.Ok() {
		return []string{fmt.Sprintf("gh not authenticated: %s. Run `gh auth login`.", strings.TrimSpace(string(res.Stderr)))}
	}
	return nil
}

func (c *Checker) checkMakeCLI() []string {
	if !c.runner.LookPath("make") {
		return []string{"make not found in PATH"}
	}
	return nil
}

func (c *Checker) checkGitWorktree() []string {
	if !c.runner.LookPath("git") {
		return []string{"git not found in PATH"}
	}
	if res := c.runner.Run("", probeTimeout, "git", "worktree", "list"); !res.Ok() {
		return []string{fmt.Sprintf("git worktree not available: %s", strings.TrimSpace(string(res.Stderr)))}
	}
	return nil
}

// projectRoot walks up from the plan file looking for the directory holding
// the main/ checkout. Returns "" when no candidate matches.
func projectRoot(planPath string) string {
	dir := filepath.Dir(planPath)
	for _, candidate := range []string{dir, filepath.Dir(dir), filepath.Dir(filepath.Dir(dir))} {
		if info, err := os.Stat(filepath.Join(candidate, "main")); err == nil && info.IsDir() {
			return candidate
		}
	}
	return ""
}

// mainDir returns the main/ checkout for the plan, or "" when the layout is
// missing (checkDirectoryStructure reports that case).
func mainDir(planPath string) string {
	root := projectRoot(planPath)
	if root == "" {
		return ""
	}
	return filepath.Join(root, "main")
}

func (c *Checker) checkDirectoryStructure(planPath string) []string {
	root := projectRoot(planPath)
	if root == "" {
		return []string{
			"Directory 'main/' not found. Swarm expects a worktree layout: " +
				"project-root/main/ (primary checkout) and project-root/worktrees/.",
		}
	}

	var issues []string
	main := filepath.Join(root, "main")
	if _, err := os.Stat(filepath.Join(main, ".git")); err != nil {
		issues = append(issues, fmt.Sprintf("'%s' exists but is not a git repository (no .git found)", main))
	}

	worktrees := filepath.Join(root, "worktrees")
	if info, err := os.Stat(worktrees); err != nil || !info.IsDir() {
		issues = append(issues, fmt.Sprintf("Directory 'worktrees/' not found at %s. Create it with: mkdir -p %s", root, worktrees))
	}
	return issues
}

func (c *Checker) checkRemoteOrigin(planPath string) []string {
	dir := mainDir(planPath)
	if dir == "" {
		return nil // checkDirectoryStructure reports the missing layout
	}
	if res := c.runner.Run(dir, probeTimeout, "git", "remote", "get-url", "origin"); !res.Ok() {
		return []string{"No remote 'origin' configured. Swarm needs a remote to push branches and create PRs."}
	}
	return nil
}

func (c *Checker) checkCleanWorktree(planPath string) []string {
	dir := mainDir(planPath)
	if dir == "" {
		return nil
	}
	res := c.runner.Run(dir, probeTimeout, "git", "status", "--porcelain")
	if res.Ok() && len(strings.TrimSpace(string(res.Output))) > 0 {
		return []string{fmt.Sprintf("Uncommitted changes in %s. Commit or stash before running swarm.", dir)}
	}
	return nil
}

// findNear looks for a file near the plan: same directory, its parent, or the
// parent's main/ subdirectory.
func findNear(planPath, name string) string {
	dir := filepath.Dir(planPath)
	candidates := []string{
		filepath.Join(dir, name),
		filepath.Join(filepath.Dir(dir), name),
		filepath.Join(filepath.Dir(dir), "main", name),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func (c *Checker) checkClaudeMD(planPath string) []string {
	path := findNear(planPath, "CLAUDE.md")
	if path == "" {
		return []string{"CLAUDE.md not found. Create one with project standards before running swarm."}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("could not read %s: %v", path, err)}
	}

	var issues []string
	for _, section := range claudeMDSections {
		if !section.Pattern.Match(data) {
			issues = append(issues, fmt.Sprintf("CLAUDE.md missing section: %s", section.Label))
		}
	}
	return issues
}

func (c *Checker) checkMakefile(planPath string) []string {
	path := findNear(planPath, "Makefile")
	if path == "" {
		return []string{"Makefile not found. Add one with the required targets: " + strings.Join(c.cfg.MakeTargets, ", ")}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("could not read %s: %v", path, err)}
	}

	var missing []string
	for _, target := range c.cfg.MakeTargets {
		pattern := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(target) + `\s*:`)
		if !pattern.Match(data) {
			missing = append(missing, target)
		}
	}
	if len(missing) > 0 {
		return []string{fmt.Sprintf("Makefile missing required targets: %s", strings.Join(missing, ", "))}
	}
	return nil
}

// checkPlanFile validates the plan structurally without aborting the run:
// parse, dependency graph, cycle detection.
func (c *Checker) checkPlanFile(planPath string) []string {
	parsed, err := plan.ParseFile(planPath)
	if err != nil {
		return []string{err.Error()}
	}
	if err := graph.DetectCycle(graph.Build(parsed)); err != nil {
		return []string{err.Error()}
	}
	return nil
}

func (c *Checker) checkToolchain(planPath string) []string {
	dir := mainDir(planPath)
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(filepath.Join(dir, "Makefile")); err != nil {
		return nil // checkMakefile reports the missing Makefile
	}

	res := c.runner.Run(dir, toolchainTimeout, "make", "build")
	if !res.Ok() {
		lines := strings.Split(strings.TrimSpace(string(res.Stderr)), "\n")
		if len(lines) > 5 {
			lines = lines[len(lines)-5:]
		}
		return []string{fmt.Sprintf("`make build` failed in %s:\n%s", dir, strings.Join(lines, "\n"))}
	}
	return nil
}

// checkCustomRules evaluates user-configured CEL conditions against the
// gathered facts.
func (c *Checker) checkCustomRules(planPath string) []string {
	evaluator, err := NewEvaluator()
	if err != nil {
		return []string{fmt.Sprintf("could not create rule evaluator: %v", err)}
	}

	facts := c.gatherFacts(planPath)
	var issues []string
	for _, rule := range c.cfg.PrereqRules {
		ok, err := evaluator.Evaluate(rule.Condition, facts)
		if err != nil {
			issues = append(issues, fmt.Sprintf("rule %q: %v", rule.Name, err))
			continue
		}
		if !ok {
			message := rule.Message
			if message == "" {
				message = fmt.Sprintf("condition %q not satisfied", rule.Condition)
			}
			issues = append(issues, fmt.Sprintf("rule %q failed: %s", rule.Name, message))
		}
	}
	return issues
}

// gatherFacts builds the facts map custom rules are evaluated against.
func (c *Checker) gatherFacts(planPath string) map[string]interface{} {
	root := projectRoot(planPath)
	dir := mainDir(planPath)

	gitClean := false
	if dir != "" {
		res := c.runner.Run(dir, probeTimeout, "git", "status", "--porcelain")
		gitClean = res.Ok() && len(strings.TrimSpace(string(res.Output))) == 0
	}

	return map[string]interface{}{
		"has_git":       c.runner.LookPath("git"),
		"has_gh":        c.runner.LookPath("gh"),
		"has_make":      c.runner.LookPath("make"),
		"has_main_dir":  dir != "",
		"has_makefile":  findNear(planPath, "Makefile") != "",
		"has_claude_md": findNear(planPath, "CLAUDE.md") != "",
		"git_clean":     gitClean,
		"project_root":  root,
		"plan_file":     planPath,
	}
}
