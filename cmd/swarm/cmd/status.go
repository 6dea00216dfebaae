// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/swarm-oss/swarm/internal/swarm/plan"
	"github.com/swarm-oss/swarm/internal/swarm/status"
)

func getStatusCmd() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status [plan-file]",
		Short: "Display current state of all phases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planPath, err := resolvePlanPath(args[0])
			if err != nil {
				return err
			}

			parsed, err := plan.ParseFile(planPath)
			if err != nil {
				return err
			}

			store, err := status.Open(parsed)
			if err != nil {
				return err
			}
			if !store.Exists() {
				return fmt.Errorf("no status file found for %s; run `swarm parse` first", planPath)
			}

			fmt.Printf("Plan: %s\n", planPath)
			base := "(not set)"
			if b := store.BaseBranch(); b != nil {
				base = *b
			}
			fmt.Printf("Base branch: %s\n\n", base)

			fmt.Printf("%-8s %-14s %-8s %-10s %-6s\n", "Phase", "Status", "PR", "Attempts", "Group")
			fmt.Println("--------------------------------------------------")
			for _, id := range store.PhaseIDs() {
				record, err := store.Record(id)
				if err != nil {
					return err
				}
				pr := "-"
				if record.PR != nil {
					pr = *record.PR
				}
				group := "-"
				if record.Group != nil {
					group = *record.Group
				}
				fmt.Printf("%-8d %-14s %-8s %-10d %-6s\n", id, record.Status, pr, record.Attempts, group)
			}
			return nil
		},
	}

	return statusCmd
}
