package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostkeeper.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("lock token missing after Acquire: %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("lock token still present after Release")
	}
}

func TestAcquireContended(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostkeeper.lock")

	first, err := Acquire(path)
	if err != nil {
		t.Fatalf("first Acquire() failed: %v", err)
	}
	defer first.Release()

	_, err = Acquire(path)
	if !errors.Is(err, ErrAlreadyLocked) {
		t.Fatalf("second Acquire() = %v, want ErrAlreadyLocked", err)
	}
}

func TestReacquireAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostkeeper.lock")

	first, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}

	second, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() after Release() failed: %v", err)
	}
	second.Release()
}

func TestReleaseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostkeeper.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("first Release() failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("second Release() failed: %v", err)
	}
}

func TestReleaseMissingToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostkeeper.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}

	// Someone removed the token out from under us; Release must not fail.
	if err := os.Remove(path); err != nil {
		t.Fatalf("removing token: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release() after external removal failed: %v", err)
	}
}

func TestAcquireCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "hostkeeper.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() with missing parent dir failed: %v", err)
	}
	lock.Release()
}
