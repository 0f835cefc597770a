package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirEmitter saves exports as files in Dir.
type DirEmitter struct {
	Dir string
}

// Path returns where Emit writes name.
func (e *DirEmitter) Path(name string) string {
	dir := e.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, filepath.Base(name))
}

// Emit implements browser.FileEmitter. An existing file of the same name is
// replaced.
func (e *DirEmitter) Emit(ctx context.Context, name, contentType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := e.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
