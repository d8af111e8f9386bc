package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// MarkerName is the deferred-deletion marker file, written as a
// sibling of the index directory.
const MarkerName = "delete_index.marker"

// ErrIndexLocked reports that the index directory could not be removed
// at startup, typically because another process still holds it.
var ErrIndexLocked = errors.New("index directory is locked")

// StartupAction is the outcome of resolving the deletion marker at
// process start.
type StartupAction int

const (
	StartupNoAction StartupAction = iota
	StartupDeleted
	StartupLocked
)

func markerPath(indexPath string) string {
	return filepath.Join(filepath.Dir(indexPath), MarkerName)
}

// MarkForDeletion durably records the intent to delete the index. The
// removal itself happens at the next process start, before the index
// is opened.
func MarkForDeletion(indexPath string) error {
	if indexPath == "" {
		indexPath = DefaultIndexPath
	}
	if err := os.WriteFile(markerPath(indexPath), []byte("delete"), 0o644); err != nil {
		return fmt.Errorf("failed to mark index for deletion: %w", err)
	}
	return nil
}

// Lifecycle resolves the deferred-deletion protocol for an index
// directory. ResolveStartup must run before any index is opened.
type Lifecycle struct {
	indexPath string
	removeAll func(string) error
}

func NewLifecycle(indexPath string) *Lifecycle {
	if indexPath == "" {
		indexPath = DefaultIndexPath
	}
	return &Lifecycle{
		indexPath: indexPath,
		removeAll: os.RemoveAll,
	}
}

// ResolveStartup consumes the deletion marker if present. The marker
// is removed even when deletion fails, so a locked index surfaces one
// explicit error instead of retrying on every start.
func (l *Lifecycle) ResolveStartup() (StartupAction, error) {
	marker := markerPath(l.indexPath)
	if _, err := os.Stat(marker); err != nil {
		if os.IsNotExist(err) {
			return StartupNoAction, nil
		}
		return StartupNoAction, fmt.Errorf("failed to check deletion marker: %w", err)
	}

	var removeErr error
	if _, err := os.Stat(l.indexPath); err == nil {
		removeErr = l.removeAll(l.indexPath)
	}

	_ = os.Remove(marker)

	if removeErr != nil {
		return StartupLocked, fmt.Errorf("%w: please delete the %q directory by hand and restart: %v",
			ErrIndexLocked, l.indexPath, removeErr)
	}
	return StartupDeleted, nil
}
