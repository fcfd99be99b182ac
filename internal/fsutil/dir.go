// Package fsutil holds small filesystem helpers shared by the batch tools.
package fsutil

import (
	"fmt"
	"os"
)

// EnsureDir creates dir and any missing parents. An existing directory is not
// an error; an existing non-directory is.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
