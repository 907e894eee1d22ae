// Package wato maintains the generated configuration the monitoring server
// reads: the folder metadata descriptor and the hosts artifact holding the
// auto-created container hosts.
package wato

import (
	"fmt"
	"os"
	"path/filepath"
)

// descriptorName is the metadata file the server expects inside each
// configuration folder.
const descriptorName = ".wato"

// EnsureFolder creates the folder directory if absent and writes the default
// metadata descriptor on first creation: empty attributes, unlocked, zero
// hosts, titled after the folder. An existing descriptor is never touched;
// the server owns it once it exists.
func EnsureFolder(dir, title string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating folder directory: %w", err)
	}

	path := filepath.Join(dir, descriptorName)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking folder descriptor: %w", err)
	}

	// The server parses this as a Python literal.
	descriptor := fmt.Sprintf("{'attributes': {}, 'lock': False, 'num_hosts': 0, 'title': '%s'}\n", title)
	if err := os.WriteFile(path, []byte(descriptor), 0644); err != nil {
		return fmt.Errorf("writing folder descriptor: %w", err)
	}
	return nil
}
