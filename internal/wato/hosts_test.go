package wato

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cmkops/hostkeeper/internal/spool"
)

func TestWriteHosts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.mk")
	containers := []spool.Container{
		{ID: "containerA", ParentHost: "hostX"},
		{ID: "containerB"}, // empty spool directory, no parent
	}

	registered, skipped, err := WriteHosts(path, containers, "auto_containers")
	if err != nil {
		t.Fatalf("WriteHosts() failed: %v", err)
	}
	if registered != 1 || skipped != 1 {
		t.Errorf("counts = (%d registered, %d skipped), want (1, 1)", registered, skipped)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	got := string(data)

	if !strings.Contains(got, `all_hosts += ["containerA|no-agent|no-ip|/wato/auto_containers/"]`) {
		t.Errorf("artifact missing host declaration, got:\n%s", got)
	}
	if !strings.Contains(got, `parents += [("hostX", ["containerA"])]`) {
		t.Errorf("artifact missing parent association, got:\n%s", got)
	}
	if strings.Contains(got, "containerB") {
		t.Errorf("parentless container written to artifact:\n%s", got)
	}
}

func TestWriteHostsSkipsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.mk")
	containers := []spool.Container{
		{ID: "containerA", ParentHost: "hostX"},
		{ID: "containerA", ParentHost: "hostY"},
	}

	registered, skipped, err := WriteHosts(path, containers, "auto_containers")
	if err != nil {
		t.Fatalf("WriteHosts() failed: %v", err)
	}
	if registered != 1 || skipped != 1 {
		t.Errorf("counts = (%d registered, %d skipped), want (1, 1)", registered, skipped)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if n := strings.Count(string(data), "containerA|"); n != 1 {
		t.Errorf("containerA declared %d times, want 1", n)
	}
	// First occurrence wins.
	if !strings.Contains(string(data), `("hostX", ["containerA"])`) {
		t.Errorf("first-seen parent not kept:\n%s", string(data))
	}
}

func TestWriteHostsTruncatesPriorContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.mk")

	first := []spool.Container{
		{ID: "containerA", ParentHost: "hostX"},
		{ID: "containerGone", ParentHost: "hostX"},
	}
	if _, _, err := WriteHosts(path, first, "auto_containers"); err != nil {
		t.Fatalf("first WriteHosts() failed: %v", err)
	}

	// containerGone left the spool; the rebuild must not keep it.
	second := []spool.Container{{ID: "containerA", ParentHost: "hostX"}}
	if _, _, err := WriteHosts(path, second, "auto_containers"); err != nil {
		t.Fatalf("second WriteHosts() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if strings.Contains(string(data), "containerGone") {
		t.Errorf("vanished container survived rebuild:\n%s", string(data))
	}
}

func TestWriteHostsIdempotentByteForByte(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.mk")
	containers := []spool.Container{
		{ID: "containerA", ParentHost: "hostX"},
		{ID: "containerB", ParentHost: "hostY"},
	}

	if _, _, err := WriteHosts(path, containers, "auto_containers"); err != nil {
		t.Fatalf("first WriteHosts() failed: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}

	registered, skipped, err := WriteHosts(path, containers, "auto_containers")
	if err != nil {
		t.Fatalf("second WriteHosts() failed: %v", err)
	}
	if registered != 2 || skipped != 0 {
		t.Errorf("second pass counts = (%d, %d), want (2, 0)", registered, skipped)
	}

	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("re-reading artifact: %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("artifact not byte-identical across identical scans")
	}
}

func TestWriteHostsEmptyScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.mk")

	registered, skipped, err := WriteHosts(path, nil, "auto_containers")
	if err != nil {
		t.Fatalf("WriteHosts() failed: %v", err)
	}
	if registered != 0 || skipped != 0 {
		t.Errorf("counts = (%d, %d), want (0, 0)", registered, skipped)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("artifact not written for empty scan: %v", err)
	}
	if !strings.Contains(string(data), "Generated by hostkeeper") {
		t.Errorf("artifact header missing:\n%s", string(data))
	}
}
