// Package output places finished artifacts on disk.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath returns where an artifact named defaultName should go.
// An empty target means the current directory; an existing directory or a
// target ending in a separator receives defaultName. Otherwise target is the
// file path, completed with ext when it has no such suffix.
func ResolvePath(target, defaultName, ext string) string {
	if strings.TrimSpace(target) == "" {
		return defaultName
	}
	if strings.HasSuffix(target, string(os.PathSeparator)) || strings.HasSuffix(target, "/") {
		return filepath.Join(target, defaultName)
	}
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return filepath.Join(target, defaultName)
	}
	if ext != "" && !strings.HasSuffix(strings.ToLower(target), strings.ToLower(ext)) {
		return target + ext
	}
	return target
}

// WriteFile writes data to path atomically: readers see either the previous
// file or the complete new one.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}

	f, err := Create(path)
	if err != nil {
		return err
	}
	defer f.Abort()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return f.Commit()
}
