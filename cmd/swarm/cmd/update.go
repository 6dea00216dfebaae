// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/swarm-oss/swarm/internal/core/models"
	"github.com/swarm-oss/swarm/internal/swarm/plan"
	"github.com/swarm-oss/swarm/internal/swarm/status"
)

func getUpdateCmd() *cobra.Command {
	updateCmd := &cobra.Command{
		Use:   "update [plan-file]",
		Short: "Update phase status in the status file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planPath, err := resolvePlanPath(args[0])
			if err != nil {
				return err
			}

			phases, _ := cmd.Flags().GetIntSlice("phase")
			statusFlag, _ := cmd.Flags().GetString("status")
			prs, _ := cmd.Flags().GetStringSlice("pr")
			attempts, _ := cmd.Flags().GetInt("attempts")
			attemptsSet := cmd.Flags().Changed("attempts")

			newStatus, err := models.ParseStatus(statusFlag)
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

			for i, phaseID := range phases {
				var pr *string
				if i < len(prs) && prs[i] != "" {
					pr = &prs[i]
				}
				if err := store.Set(phaseID, newStatus, pr); err != nil {
					return err
				}
				if attemptsSet {
					if err := store.SetAttempts(phaseID, attempts); err != nil {
						return err
					}
				}

				record, err := store.Record(phaseID)
				if err != nil {
					return err
				}
				if !record.Status.IsTerminal() && cfg.AttemptsExhausted(record.Attempts) {
					fmt.Printf("Warning: phase %d has used %d of %d attempts; escalate instead of retrying\n",
						phaseID, record.Attempts, cfg.MaxAttempts)
				}
			}

			fmt.Printf("Updated phase(s) %v to %s\n", phases, newStatus)
			return nil
		},
	}

	updateCmd.Flags().IntSlice("phase", nil, "Phase id(s) to update")
	updateCmd.Flags().String("status", "", "New status")
	updateCmd.Flags().StringSlice("pr", nil, "PR reference(s), matched positionally to --phase")
	updateCmd.Flags().Int("attempts", 0, "Override the attempt counter")
	_ = updateCmd.MarkFlagRequired("phase")
	_ = updateCmd.MarkFlagRequired("status")

	return updateCmd
}
