package ingest

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/invoiceguard/invoiceguard/constants"
)

// WalkDirectory walks root and hands every matching invoice file to proc,
// skipping hidden entries when asked. Per-file failures are counted, not
// fatal; the walk keeps going.
func WalkDirectory(ctx context.Context, root string, skipHidden bool, proc Processor) (DirStats, error) {
	var stats DirStats

	if strings.TrimSpace(root) == "" {
		return stats, errors.New("root path is required")
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		stats.Scanned++
		if walkErr != nil {
			stats.Failed++
			return nil
		}
		if skipHidden && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !constants.IsAllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		if err := proc(ctx, Job{SourcePath: path}); err != nil {
			stats.Failed++
			return nil
		}
		stats.Succeeded++
		return nil
	})
	return stats, err
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
