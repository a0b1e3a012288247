// File: internal/capture/store.go
package capture

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	homedir "github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

// Store persists shots under a process-wide screenshot directory so callers
// can inspect what the decision engine saw.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates the screenshot directory if needed. An empty dir selects
// ~/.screenpilot/screenshots.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".screenpilot", "screenshots")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &IOError{Path: dir, Err: err}
	}
	return &Store{dir: dir, logger: logger.Named("capture_store")}, nil
}

// Dir returns the screenshot directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the shot under a collision-resistant timestamped name and
// returns the resulting path.
func (s *Store) Save(shot Shot) (string, error) {
	name := fmt.Sprintf("screen-%s-%s.png",
		shot.TakenAt.UTC().Format("20060102T150405.000"),
		uuid.NewString()[:8])
	return s.SaveTo(shot, filepath.Join(s.dir, name))
}

// SaveTo writes the shot to an explicit caller-chosen path.
func (s *Store) SaveTo(shot Shot, path string) (string, error) {
	if err := os.WriteFile(path, shot.PNG, 0o644); err != nil {
		return "", &IOError{Path: path, Err: err}
	}
	s.logger.Debug("capture persisted", zap.String("path", path), zap.Int("bytes", len(shot.PNG)))
	return path, nil
}
