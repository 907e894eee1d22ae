package spool

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cmkops/hostkeeper/internal/safety"
)

// Prune deletes every immediate subdirectory of root whose modification time
// is older than maxAge. Deletion is best-effort: per-directory failures are
// logged and skipped, never aborting the pass. It returns the number of
// directories removed.
//
// Prune must only run after registration and activation have completed, so a
// container cannot be reclaimed before it had a chance to be registered in
// the same run.
func Prune(root string, maxAge time.Duration, logger *slog.Logger) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrNoSpool, root)
		}
		return 0, fmt.Errorf("reading spool root: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logger.Warn("cannot stat spool directory, skipping", "container", entry.Name(), "error", err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		dir, err := safety.JoinUnder(root, entry.Name())
		if err != nil {
			logger.Warn("refusing to prune suspicious spool entry", "container", entry.Name(), "error", err)
			continue
		}

		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to prune spool directory", "container", entry.Name(), "error", err)
			continue
		}

		logger.Info("pruned stale spool directory", "container", entry.Name(), "age", time.Since(info.ModTime()).Round(time.Minute))
		removed++
	}

	return removed, nil
}
