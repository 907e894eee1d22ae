// Package spool reads and maintains the piggyback spool: one directory per
// observed container, each holding one file per parent host that forwarded
// data for it.
package spool

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cmkops/hostkeeper/internal/safety"
)

// ErrNoSpool is returned by Scan when the spool root does not exist. A
// missing spool means the agent is misconfigured, so the whole run aborts.
var ErrNoSpool = errors.New("spool root does not exist")

// Container is one container observed in the spool.
type Container struct {
	// ID is the spool subdirectory name, unique per run.
	ID string

	// ParentHost is the name of the first regular file found directly
	// inside the container's directory, empty if the directory holds none.
	// Additional files are ignored: a container has exactly one parent.
	ParentHost string

	// ModTime is the directory's modification time, used by retention.
	ModTime time.Time
}

// HasParent reports whether the container resolved a parent host. Containers
// without one cannot be registered and are skipped.
func (c Container) HasParent() bool {
	return c.ParentHost != ""
}

// Scan enumerates the immediate subdirectories of root, one Container each,
// in filesystem enumeration order. Order is not stable across runs and
// callers must not depend on it. Only a missing or unreadable root is fatal;
// a container directory that cannot be read is logged and skipped, and the
// scan continues.
func Scan(root string, logger *slog.Logger) ([]Container, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoSpool, root)
		}
		return nil, fmt.Errorf("reading spool root: %w", err)
	}

	var containers []Container
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		id := entry.Name()
		dir, err := safety.JoinUnder(root, id)
		if err != nil {
			logger.Warn("skipping suspicious spool entry", "container", id, "error", err)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logger.Warn("cannot stat spool directory, skipping", "container", id, "error", err)
			continue
		}

		parent, err := firstRegularFile(dir)
		if err != nil {
			logger.Warn("cannot read spool directory, skipping", "container", id, "error", err)
			continue
		}

		containers = append(containers, Container{
			ID:         id,
			ParentHost: parent,
			ModTime:    info.ModTime(),
		})
	}

	return containers, nil
}

// firstRegularFile returns the name of the first regular file directly
// inside dir, or "" if there is none.
func firstRegularFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			return entry.Name(), nil
		}
	}
	return "", nil
}
