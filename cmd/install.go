// File: cmd/install.go
package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voidreach/screenpilot/api/schemas"
	"github.com/voidreach/screenpilot/internal/acquire"
	"github.com/voidreach/screenpilot/internal/observability"
	"github.com/voidreach/screenpilot/internal/service"
)

// newInstallCmd creates and configures the `install` command.
func newInstallCmd() *cobra.Command {
	var (
		bundleID     string
		appName      string
		artifactURL  string
		artifactPath string
		launch       bool
	)

	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Runs a guided installation session for an application",
		Long: `Detects whether the application is installed; if not, acquires its
disk image, mounts it, and drives the installer to completion through
the vision-guided control loop. The mount is released when the session
ends, whatever the outcome.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := observability.GetLogger()

			if artifactURL == "" && artifactPath == "" {
				return fmt.Errorf("one of --artifact-url or --artifact-path is required")
			}

			stack, err := service.NewStack(ctx, appCfg, logger)
			if err != nil {
				return err
			}
			defer stack.Close()

			var source acquire.Source
			if artifactPath != "" {
				source = acquire.NewLocalSource(artifactPath)
			} else {
				source = acquire.NewHTTPSource(artifactURL, 10*time.Minute, logger)
			}

			manager := stack.NewSessionManager(source, appCfg.Lifecycle, logger)
			desc := schemas.AppDescriptor{BundleID: bundleID, Name: appName}

			if launch {
				if err := manager.EnsureRunning(ctx, desc); err != nil {
					return err
				}
			} else if err := manager.EnsureInstalled(ctx, desc); err != nil {
				return err
			}

			logger.Info("Application is installed", zap.String("bundle_id", bundleID))
			return nil
		},
	}

	installCmd.Flags().StringVar(&bundleID, "bundle-id", "", "reverse-DNS bundle identifier, e.g. com.acme.app")
	installCmd.Flags().StringVar(&appName, "name", "", "human-readable application name used in the install instruction")
	installCmd.Flags().StringVar(&artifactURL, "artifact-url", "", "HTTP(S) URL of the disk image to install from")
	installCmd.Flags().StringVar(&artifactPath, "artifact-path", "", "local path of a pre-downloaded disk image")
	installCmd.Flags().BoolVar(&launch, "launch", false, "launch the application after installation")
	_ = installCmd.MarkFlagRequired("bundle-id")
	_ = installCmd.MarkFlagRequired("name")

	return installCmd
}
