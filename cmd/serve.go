// File: cmd/serve.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/voidreach/screenpilot/internal/mcpserver"
	"github.com/voidreach/screenpilot/internal/observability"
	"github.com/voidreach/screenpilot/internal/service"
)

// newServeCmd creates and configures the `serve` command.
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Exposes the control loop as an MCP tool over stdio",
		Long: `Starts an MCP server on stdin/stdout with a single desktop_control
tool. Callers supply a natural-language instruction; the tool either
runs a full guided loop or, with capture_only, returns the model's next
decision for the current screen without acting on it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			stack, err := service.NewStack(cmd.Context(), appCfg, logger)
			if err != nil {
				return err
			}
			defer stack.Close()

			srv := mcpserver.NewServer(stack.Loop, stack.Engine, stack.Capturer, stack.Store, Version, logger)
			logger.Info("Serving MCP on stdio")
			return srv.ServeStdio()
		},
	}
	return serveCmd
}
