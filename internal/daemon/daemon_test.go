package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func usePIDFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run", "serve.pid")
	orig := PIDFile
	PIDFile = func() string { return path }
	t.Cleanup(func() { PIDFile = orig })
	return path
}

func TestPIDLifecycle(t *testing.T) {
	usePIDFile(t)

	if _, err := ReadPID(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning before writing, got %v", err)
	}

	if err := WritePID(); err != nil {
		t.Fatalf("WritePID failed: %v", err)
	}

	pid, err := ReadPID()
	if err != nil {
		t.Fatalf("ReadPID failed: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("pid = %d, want %d", pid, os.Getpid())
	}

	running, pid, started := IsRunning()
	if !running || pid != os.Getpid() {
		t.Errorf("IsRunning() = %v, %d; want true, %d", running, pid, os.Getpid())
	}
	if started.IsZero() {
		t.Error("start time should come from the PID file")
	}

	if err := RemovePID(); err != nil {
		t.Fatalf("RemovePID failed: %v", err)
	}
	if err := RemovePID(); err != nil {
		t.Errorf("removing a missing PID file should not fail: %v", err)
	}
	if running, _, _ := IsRunning(); running {
		t.Error("IsRunning should be false after RemovePID")
	}
}

func TestInvalidPIDFile(t *testing.T) {
	path := usePIDFile(t)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not-a-pid\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadPID(); err == nil || errors.Is(err, ErrNotRunning) {
		t.Errorf("expected a parse error, got %v", err)
	}
}

func TestStopWhenNotRunning(t *testing.T) {
	usePIDFile(t)
	if err := Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() = %v, want ErrNotRunning", err)
	}
}
