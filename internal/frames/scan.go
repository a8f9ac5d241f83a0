// Package frames turns a directory of image files into decoded,
// panel-sized pixel grids.
package frames

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoFrames is returned when the directory yields no usable entries.
// A missing or unreadable directory degrades to the same error.
var ErrNoFrames = errors.New("no frames found")

// List returns the files in dir (non-recursive) whose extension matches ext
// case-insensitively, sorted in strictly ascending lexicographic order.
func List(dir, ext string) ([]string, error) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoFrames)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoFrames)
	}
	sort.Strings(paths)
	return paths, nil
}
