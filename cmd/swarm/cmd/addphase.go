// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/swarm-oss/swarm/internal/swarm/plan"
	"github.com/swarm-oss/swarm/internal/swarm/status"
)

func getAddPhaseCmd() *cobra.Command {
	addPhaseCmd := &cobra.Command{
		Use:   "add-phase [plan-file]",
		Short: "Add a synthetic phase for integration fixes",
		Long: `Add-phase registers a phase that exists only in the status file, used for
integration-fix work discovered after planning. The phase starts PENDING and
depends on the given existing phases.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planPath, err := resolvePlanPath(args[0])
			if err != nil {
				return err
			}

			phaseID, _ := cmd.Flags().GetInt("id")
			depends, _ := cmd.Flags().GetIntSlice("depends")
			branch, _ := cmd.Flags().GetString("branch")

			if phaseID < 1 {
				return fmt.Errorf("phase id must be a positive integer, got %d", phaseID)
			}
			if err := plan.ValidateBranchName(branch); err != nil {
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

			if err := store.AddSynthetic(phaseID, branch, depends); err != nil {
				return err
			}

			fmt.Printf("Added synthetic phase %d depending on %v\n", phaseID, depends)
			return nil
		},
	}

	addPhaseCmd.Flags().Int("id", 0, "Phase id for the synthetic phase")
	addPhaseCmd.Flags().IntSlice("depends", nil, "Phase ids this phase depends on")
	addPhaseCmd.Flags().String("branch", "", "Branch name for this phase")
	_ = addPhaseCmd.MarkFlagRequired("id")
	_ = addPhaseCmd.MarkFlagRequired("depends")
	_ = addPhaseCmd.MarkFlagRequired("branch")

	return addPhaseCmd
}
