// File: internal/lifecycle/detect.go
package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/voidreach/screenpilot/api/schemas"
)

// Platform answers whether an application is installed and launches it.
type Platform interface {
	IsInstalled(ctx context.Context, desc schemas.AppDescriptor) (bool, error)
	Launch(ctx context.Context, desc schemas.AppDescriptor) error
}

// DarwinPlatform detects applications through Spotlight metadata and
// launches them by bundle identifier.
type DarwinPlatform struct {
	run    commandRunner
	logger *zap.Logger
}

// NewDarwinPlatform builds the macOS platform adapter.
func NewDarwinPlatform(logger *zap.Logger) *DarwinPlatform {
	return &DarwinPlatform{run: runHostCommand, logger: logger.Named("lifecycle.platform")}
}

// IsInstalled queries Spotlight for the bundle identifier. An empty
// reply means the app is not present.
func (p *DarwinPlatform) IsInstalled(ctx context.Context, desc schemas.AppDescriptor) (bool, error) {
	// Bundle IDs are reverse-DNS; quotes would corrupt the query string.
	if strings.ContainsAny(desc.BundleID, `'"`) {
		return false, fmt.Errorf("bundle id %q contains quote characters", desc.BundleID)
	}

	out, err := p.run(ctx, "mdfind", fmt.Sprintf("kMDItemCFBundleIdentifier == '%s'", desc.BundleID))
	if err != nil {
		return false, fmt.Errorf("mdfind query for %q: %w", desc.BundleID, err)
	}

	installed := strings.TrimSpace(string(out)) != ""
	p.logger.Debug("Detection query finished",
		zap.String("bundle_id", desc.BundleID),
		zap.Bool("installed", installed),
	)
	return installed, nil
}

// Launch opens the application by bundle identifier.
func (p *DarwinPlatform) Launch(ctx context.Context, desc schemas.AppDescriptor) error {
	out, err := p.run(ctx, "open", "-b", desc.BundleID)
	if err != nil {
		return fmt.Errorf("launch %q: %w (output: %s)", desc.BundleID, err, strings.TrimSpace(string(out)))
	}
	p.logger.Info("Application launched", zap.String("bundle_id", desc.BundleID))
	return nil
}
