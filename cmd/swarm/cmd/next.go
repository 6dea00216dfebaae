// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/swarm-oss/swarm/internal/core/format"
	"github.com/swarm-oss/swarm/internal/swarm"
	"github.com/swarm-oss/swarm/internal/swarm/graph"
	"github.com/swarm-oss/swarm/internal/swarm/plan"
	"github.com/swarm-oss/swarm/internal/swarm/status"
)

func getNextCmd() *cobra.Command {
	nextCmd := &cobra.Command{
		Use:   "next [plan-file]",
		Short: "Show phases ready to start (all dependencies DONE)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planPath, err := resolvePlanPath(args[0])
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")

			parsed, err := plan.ParseFile(planPath)
			if err != nil {
				return err
			}
			g := graph.Build(parsed)

			store, err := status.Open(parsed)
			if err != nil {
				return err
			}
			if !store.Exists() {
				return fmt.Errorf("no status file found for %s; run `swarm parse` first", planPath)
			}

			ready := swarm.ReadyPhases(parsed, g, store)

			if asJSON {
				type readyPhase struct {
					ID     int    `json:"id"`
					Name   string `json:"name"`
					Branch string `json:"branch"`
				}
				out := make([]readyPhase, 0, len(ready))
				for _, p := range ready {
					out = append(out, readyPhase{ID: p.ID, Name: p.Name, Branch: p.Branch})
				}
				formatted, err := format.FormatData(out, false)
				if err != nil {
					return err
				}
				fmt.Println(formatted)
				return nil
			}

			if len(ready) == 0 {
				fmt.Println("No phases ready to start.")
				return nil
			}
			fmt.Println("Phases ready to start:")
			for _, p := range ready {
				fmt.Printf("  Phase %d: %s (branch: %s)\n", p.ID, p.Name, p.Branch)
			}
			return nil
		},
	}

	nextCmd.Flags().Bool("json", false, "Output as JSON only")

	return nextCmd
}
