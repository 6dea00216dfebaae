// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/swarm-oss/swarm/internal/core/format"
	"github.com/swarm-oss/swarm/internal/swarm"
	"github.com/swarm-oss/swarm/internal/swarm/prereq"
	"github.com/swarm-oss/swarm/internal/swarm/status"
)

func getParseCmd() *cobra.Command {
	parseCmd := &cobra.Command{
		Use:   "parse [plan-file]",
		Short: "Validate a plan and print its execution groups",
		Long: `Parse validates the plan document, derives the dependency graph (explicit
DEPENDS plus implicit file-overlap edges), rejects cycles, and prints the
computed execution groups as JSON. The status file is created next to the
plan on first run and preserved afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planPath, err := resolvePlanPath(args[0])
			if err != nil {
				return err
			}

			plan, graph, err := swarm.Validate(planPath)
			if err != nil {
				return err
			}

			store, err := status.Open(plan)
			if err != nil {
				return err
			}

			sched, err := swarm.ComputeSchedule(graph, store)
			if err != nil {
				return err
			}

			if err := store.Init(sched.Labels); err != nil {
				return fmt.Errorf("error initializing status file: %w", err)
			}

			// Record the branch the worktrees will fork from, once.
			if store.BaseBranch() == nil {
				if branch := currentBranch(planPath); branch != "" {
					if err := store.SetBaseBranch(branch); err != nil {
						return err
					}
				}
			}

			result := swarm.BuildParseResult(plan, graph, sched, store)
			out, err := format.FormatData(result, false)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}

	return parseCmd
}

// currentBranch asks git for the checked-out branch of the main/ directory
// near the plan, falling back to the plan's own directory. Empty when git is
// unavailable; the base branch then stays unset until a later parse.
func currentBranch(planPath string) string {
	runner := prereq.NewRunner()
	if !runner.LookPath("git") {
		return ""
	}

	dir := filepath.Dir(planPath)
	for _, candidate := range []string{dir, filepath.Dir(dir), filepath.Dir(filepath.Dir(dir))} {
		main := filepath.Join(candidate, "main")
		if res := runner.Run(main, 10*time.Second, "git", "branch", "--show-current"); res.Ok() {
			return strings.TrimSpace(string(res.Output))
		}
	}
	if res := runner.Run(dir, 10*time.Second, "git", "branch", "--show-current"); res.Ok() {
		return strings.TrimSpace(string(res.Output))
	}
	return ""
}
