// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/swarm-oss/swarm/internal/core/config"
	"github.com/swarm-oss/swarm/internal/core/models"
	"github.com/swarm-oss/swarm/internal/swarm/prereq"
	"github.com/swarm-oss/swarm/internal/swarm/status"
	"github.com/swarm-oss/swarm/internal/version"
)

// Exit codes for the command surface.
const (
	ExitOK           = 0
	ExitValidation   = 1 // parse or cycle failure, and any other error
	ExitPrereq       = 2 // prerequisite check failed
	ExitUnknownPhase = 3 // unknown phase id or invalid status write
)

var (
	cfg            *config.Config
	configPathFlag string
)

// Create the root command
var rootCmd = &cobra.Command{
	Use:   "swarm",
	Short: "Swarm - Phased Plan Execution Coordinator",
	Long: `Swarm validates phased implementation plans, derives their dependency
graph, computes parallel-safe execution groups, and tracks per-phase review
status across restarts.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version.Version, version.Commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPathFlag)
		if err != nil {
			return fmt.Errorf("error loading configuration: %w", err)
		}
		return nil
	},
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return ExitOK
}

// exitCode maps the engine's error taxonomy to the documented exit codes.
func exitCode(err error) int {
	var unknownPhase *status.UnknownPhaseError
	var invalidStatus *models.InvalidStatusError
	if errors.As(err, &unknownPhase) || errors.As(err, &invalidStatus) {
		return ExitUnknownPhase
	}
	var prereqErr *prereq.Error
	if errors.As(err, &prereqErr) {
		return ExitPrereq
	}
	return ExitValidation
}

// resolvePlanPath makes the plan path absolute and verifies it exists.
func resolvePlanPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("error resolving plan path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("plan file not found: %s", abs)
	}
	return abs, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Path to config file (default ~/.swarm/config.yaml)")

	rootCmd.AddCommand(getParseCmd())
	rootCmd.AddCommand(getUpdateCmd())
	rootCmd.AddCommand(getPrereqCmd())
	rootCmd.AddCommand(getStatusCmd())
	rootCmd.AddCommand(getNextCmd())
	rootCmd.AddCommand(getCheckGroupCmd())
	rootCmd.AddCommand(getAddPhaseCmd())
}
