package safety

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CleanEntryName validates a single directory-entry name, rejecting anything
// that is not a plain path component. Spool entry and folder names pass
// through here before they are joined onto a root.
func CleanEntryName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("entry name is empty")
	}

	clean := filepath.Clean(name)
	if clean != name || clean == "." || clean == ".." ||
		strings.ContainsRune(clean, filepath.Separator) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid entry name: %q", name)
	}
	return clean, nil
}

// JoinUnder joins a validated entry name under root and verifies the result
// stays inside root.
func JoinUnder(root, name string) (string, error) {
	clean, err := CleanEntryName(name)
	if err != nil {
		return "", err
	}
	return EnsureUnderRoot(root, filepath.Join(root, clean))
}

// EnsureUnderRoot verifies candidate resolves under root and returns
// an absolute normalized path.
func EnsureUnderRoot(root, candidate string) (string, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	candAbs, err := filepath.Abs(candidate)
	if err != nil {
		return "", fmt.Errorf("resolve candidate: %w", err)
	}

	rel, err := filepath.Rel(rootAbs, candAbs)
	if err != nil {
		return "", fmt.Errorf("compare paths: %w", err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes root: %q", candidate)
	}
	return candAbs, nil
}
