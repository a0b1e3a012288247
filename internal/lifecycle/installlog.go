// File: internal/lifecycle/installlog.go
package lifecycle

import (
	"context"
	"io"
	"strings"

	"github.com/hpcloud/tail"
	"go.uber.org/zap"

	"github.com/voidreach/screenpilot/api/schemas"
)

// installLogWatcher tails the system installer log during a guided
// session and surfaces lines that mention the target application.
// It is diagnostics only; nothing here feeds back into control flow.
type installLogWatcher struct {
	path   string
	logger *zap.Logger
}

func newInstallLogWatcher(path string, logger *zap.Logger) *installLogWatcher {
	return &installLogWatcher{path: path, logger: logger.Named("lifecycle.installlog")}
}

// watch follows the log until the context is cancelled. A missing or
// unreadable log file is reported once and ends the watch quietly.
func (w *installLogWatcher) watch(ctx context.Context, desc schemas.AppDescriptor) error {
	t, err := tail.TailFile(w.path, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: &tail.SeekInfo{Whence: io.SeekEnd},
		Logger:   tail.DiscardingLogger,
	})
	if err != nil {
		w.logger.Warn("Install log unavailable", zap.String("path", w.path), zap.Error(err))
		return nil
	}
	defer func() {
		t.Cleanup()
		_ = t.Stop()
	}()

	needles := relevantNeedles(desc)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				w.logger.Debug("Install log read error", zap.Error(line.Err))
				continue
			}
			if matchesApp(line.Text, needles) {
				w.logger.Info("Installer activity", zap.String("line", line.Text))
			}
		}
	}
}

func relevantNeedles(desc schemas.AppDescriptor) []string {
	var needles []string
	if desc.BundleID != "" {
		needles = append(needles, strings.ToLower(desc.BundleID))
	}
	if desc.Name != "" {
		needles = append(needles, strings.ToLower(desc.Name))
	}
	return needles
}

func matchesApp(line string, needles []string) bool {
	lower := strings.ToLower(line)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
