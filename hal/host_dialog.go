package hal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// hostDialog answers file prompts without UI: saves go to the last path or
// to the save directory, opens pick the newest design in the save directory.
type hostDialog struct {
	mu  sync.Mutex
	dir string
}

func (d *hostDialog) PickSave(current string) (string, error) {
	if current != "" {
		return current, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dir, nil
}

func (d *hostDialog) PickOpen() (string, error) {
	d.mu.Lock()
	dir := d.dir
	d.mu.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("open dialog: %w", err)
	}
	var best string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "icednano") || filepath.Ext(name) != ".json" {
			continue
		}
		// Names embed a sortable timestamp.
		if name > best {
			best = name
		}
	}
	if best == "" {
		return "", fmt.Errorf("open dialog: no designs in %s: %w", dir, ErrCancelled)
	}
	return filepath.Join(dir, best), nil
}
