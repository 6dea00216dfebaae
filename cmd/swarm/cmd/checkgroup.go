// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/swarm-oss/swarm/internal/core/format"
	"github.com/swarm-oss/swarm/internal/swarm/plan"
	"github.com/swarm-oss/swarm/internal/swarm/status"
)

func getCheckGroupCmd() *cobra.Command {
	checkGroupCmd := &cobra.Command{
		Use:   "check-group [plan-file]",
		Short: "Show parallel groups whose phases are all APPROVED",
		Long: `Check-group lists the parallel execution groups where every member phase
has passed review (APPROVED), meaning the group is ready for integration
review as a unit.`,
		Args: cobra.ExactArgs(1),
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

			store, err := status.Open(parsed)
			if err != nil {
				return err
			}
			if !store.Exists() {
				return fmt.Errorf("no status file found for %s; run `swarm parse` first", planPath)
			}

			groups := store.ApprovedGroups()

			if asJSON {
				formatted, err := format.FormatData(map[string]interface{}{"groups": groups}, false)
				if err != nil {
					return err
				}
				fmt.Println(formatted)
				return nil
			}

			if len(groups) == 0 {
				fmt.Println("No parallel groups ready for integration review.")
				return nil
			}
			fmt.Println("Parallel groups ready for integration review:")
			for _, g := range groups {
				ids := make([]string, 0, len(g.Members))
				for _, m := range g.Members {
					ids = append(ids, fmt.Sprintf("%d", m.ID))
				}
				fmt.Printf("  Group %s: Phases %s\n", g.Label, strings.Join(ids, ", "))
			}
			return nil
		},
	}

	checkGroupCmd.Flags().Bool("json", false, "Output as JSON only")

	return checkGroupCmd
}
