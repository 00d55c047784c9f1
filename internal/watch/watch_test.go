// Tests for the file watcher: event delivery for edits and atomic
// replacement, filtering of unrelated files, close semantics, and the
// polling fallback. Exercises [New], [Watcher.Events], [Watcher.Close]
// and [Watcher.Polling].
package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitEvent(t *testing.T, w *Watcher, timeout time.Duration) bool {
	t.Helper()
	select {
	case <-w.Events():
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestNew_NoFiles(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Fatal("expected error for empty file list")
	}
}

func TestWatcher_Write(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sharecard.toml")
	if err := os.WriteFile(path, []byte("version = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New([]string{path}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("version = 1\n# edited\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !waitEvent(t, w, 5*time.Second) {
		t.Fatal("no event after write")
	}
}

func TestWatcher_RenameOver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sharecard.toml")
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := New([]string{path}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	tmp := filepath.Join(dir, "sharecard.toml.tmp")
	if err := os.WriteFile(tmp, []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Drain the event for the temp file's directory entry, if any.
	time.Sleep(50 * time.Millisecond)
	select {
	case <-w.Events():
	default:
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	if !waitEvent(t, w, 5*time.Second) {
		t.Fatal("no event after rename over watched file")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a non-event")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "sharecard.toml")
	w, err := New([]string{path}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()
	if w.Polling() {
		t.Skip("polling mode has no per-event filtering to test")
	}

	if err := os.WriteFile(filepath.Join(dir, "share-insight.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if waitEvent(t, w, 300*time.Millisecond) {
		t.Error("event for an unwatched file")
	}
}

func TestWatcher_Polling(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "font.ttf")

	w, err := newWatcher([]string{path}, 20*time.Millisecond, nil, true)
	if err != nil {
		t.Fatalf("newWatcher: %v", err)
	}
	defer w.Close()
	if !w.Polling() {
		t.Fatal("Polling() = false for a forced polling watcher")
	}

	// Creation counts as a change.
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !waitEvent(t, w, 2*time.Second) {
		t.Fatal("no event after file creation")
	}

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	if !waitEvent(t, w, 2*time.Second) {
		t.Fatal("no event after modification time advanced")
	}
}

func TestWatcher_PollingSeesImmediateEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sharecard.toml")
	if err := os.WriteFile(path, []byte("version = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatal(err)
	}

	w, err := newWatcher([]string{path}, 20*time.Millisecond, nil, true)
	if err != nil {
		t.Fatalf("newWatcher: %v", err)
	}
	defer w.Close()

	// The edit lands before the polling goroutine has necessarily run.
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		t.Fatal(err)
	}
	if !waitEvent(t, w, 2*time.Second) {
		t.Fatal("edit made right after the watcher started was not signalled")
	}
}

func TestWatcher_CloseIdempotent(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "sharecard.toml")}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
