package wato

import (
	"fmt"
	"os"
	"strings"

	"github.com/cmkops/hostkeeper/internal/spool"
)

// WriteHosts rebuilds the hosts artifact at path from the current scan. The
// file is truncated and rewritten on every call: it is a projection of the
// spool, not an accumulating log, and its prior content is never consulted.
//
// Each container with a resolved parent produces a host declaration (tagged
// no-agent, no-ip, placed in folder) and a parent association. Duplicate ids
// within this scan, and containers without a parent, are skipped and
// counted. Returns the registered and skipped counts.
func WriteHosts(path string, containers []spool.Container, folder string) (registered, skipped int, err error) {
	var b strings.Builder
	b.WriteString("# Generated by hostkeeper. Do not edit: rewritten on every run.\n\n")

	written := make(map[string]bool)

	for _, c := range containers {
		if !c.HasParent() {
			skipped++
			continue
		}
		if written[c.ID] {
			skipped++
			continue
		}

		fmt.Fprintf(&b, "all_hosts += [%q]\n", c.ID+"|no-agent|no-ip|/wato/"+folder+"/")
		fmt.Fprintf(&b, "parents += [(%q, [%q])]\n\n", c.ParentHost, c.ID)

		written[c.ID] = true
		registered++
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return 0, 0, fmt.Errorf("writing hosts artifact: %w", err)
	}
	return registered, skipped, nil
}
