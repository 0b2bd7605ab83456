package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/ndaify-go/internal/telemetry/logger"
)

func TestNewWatcher_NonexistentDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "nope", "cli.yaml"))
	if err == nil {
		t.Error("NewWatcher() should fail when the directory does not exist")
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "cli.yaml"), WithWatcherLogger(logger.NewNop()))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.StartAsync()
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWatcher_FileChange(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "cli.yaml")
	if err := os.WriteFile(configFile, []byte("log:\n  level: info\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(configFile, WithDebounce(20*time.Millisecond), WithWatcherLogger(logger.NewNop()))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	changed := make(chan string, 10)
	w.OnChange(func(path string) { changed <- path })
	w.StartAsync()
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "history"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(configFile, []byte("log:\n  level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case path := <-changed:
		if path != filepath.Clean(configFile) {
			t.Errorf("callback path = %q, want %q", path, configFile)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnChange() callback was not triggered within timeout")
	}
}
