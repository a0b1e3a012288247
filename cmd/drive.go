// File: cmd/drive.go
package cmd

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/voidreach/screenpilot/internal/loop"
	"github.com/voidreach/screenpilot/internal/observability"
	"github.com/voidreach/screenpilot/internal/service"
)

// newDriveCmd creates and configures the `drive` command.
func newDriveCmd() *cobra.Command {
	driveCmd := &cobra.Command{
		Use:   "drive [instruction...]",
		Short: "Runs one vision-guided control loop for an arbitrary instruction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := observability.GetLogger()
			instruction := strings.Join(args, " ")

			stack, err := service.NewStack(ctx, appCfg, logger)
			if err != nil {
				return err
			}
			defer stack.Close()

			result := stack.Loop.Run(ctx, instruction)

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if result.State != loop.StateCompleted {
				return fmt.Errorf("run ended %s after %d attempts: %s", result.State, result.Attempts, result.Reasoning)
			}
			return nil
		},
	}
	return driveCmd
}
