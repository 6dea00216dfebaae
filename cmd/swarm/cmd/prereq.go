// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/swarm-oss/swarm/internal/swarm/prereq"
)

func getPrereqCmd() *cobra.Command {
	prereqCmd := &cobra.Command{
		Use:   "prereq [plan-file]",
		Short: "Check all prerequisites before running swarm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planPath, err := resolvePlanPath(args[0])
			if err != nil {
				return err
			}

			checker := prereq.NewChecker(cfg)
			result := checker.Check(planPath)

			for _, category := range result.Categories {
				if len(category.Issues) > 0 {
					fmt.Printf("FAIL  %s:\n", category.Name)
					for _, issue := range category.Issues {
						fmt.Printf("        %s\n", issue)
					}
				} else {
					fmt.Printf("OK    %s\n", category.Name)
				}
			}

			if err := result.Err(); err != nil {
				fmt.Println("\nPrerequisite check FAILED. Fix the issues above before running swarm.")
				return err
			}
			fmt.Println("\nAll prerequisites OK.")
			return nil
		},
	}

	return prereqCmd
}
