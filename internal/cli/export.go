package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/runnerr0/tabsnap/internal/config"
	"github.com/runnerr0/tabsnap/internal/export"
)

type exportJSON struct {
	Format      string `json:"format"`
	Path        string `json:"path"`
	Bytes       int    `json:"bytes"`
	ContentType string `json:"content_type"`
}

// Execute implements the go-flags Commander interface for ExportCommand.
func (c *ExportCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := commandContext()
	defer cancel()

	return c.executeWithComposer(ctx, s.composer, s.cfg)
}

// executeWithComposer runs the export against a provided composer (for testing).
func (c *ExportCommand) executeWithComposer(ctx context.Context, comp *export.Composer, cfg *config.Config) error {
	name := c.Format
	if name == "" {
		name = cfg.Export.DefaultFormat
	}
	f, err := export.ParseFormat(name)
	if err != nil {
		return err
	}

	dir := c.OutputDir
	if dir == "" {
		dir = cfg.Export.OutputDir
	}
	dir, err = config.ExpandPath(dir)
	if err != nil {
		return err
	}
	em := &export.DirEmitter{Dir: dir}

	art, err := comp.ExportTo(ctx, f, em)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	path := em.Path(art.Filename)

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(exportJSON{
			Format:      f.String(),
			Path:        path,
			Bytes:       len(art.Data),
			ContentType: art.ContentType,
		}); err != nil {
			return err
		}
	} else {
		fmt.Printf("Exported %s (%s)\n", path, humanize.Bytes(uint64(len(art.Data))))
	}

	if c.Open {
		if err := openFile(path); err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
	}
	return nil
}
