package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_DetectsChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tower.toml")
	if err := os.WriteFile(path, []byte(tower), 0o644); err != nil {
		t.Fatalf("failed to create project file: %v", err)
	}

	w, err := NewWatcher(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte(tower+"\n"), 0o644); err != nil {
		t.Fatalf("failed to update project file: %v", err)
	}

	select {
	case change := <-w.Changes:
		if change.Kind != ChangeModified {
			t.Errorf("expected ChangeModified, got %d", change.Kind)
		}
		if change.Path != w.Path {
			t.Errorf("expected path %q, got %q", w.Path, change.Path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestWatcher_CoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tower.toml")
	if err := os.WriteFile(path, []byte(tower), 0o644); err != nil {
		t.Fatalf("failed to create project file: %v", err)
	}

	w, err := NewWatcher(path, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte(tower), 0o644); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	select {
	case <-w.Changes:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
	select {
	case change := <-w.Changes:
		t.Errorf("burst produced a second event: %+v", change)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tower.toml")
	if err := os.WriteFile(path, []byte(tower), 0o644); err != nil {
		t.Fatalf("failed to create project file: %v", err)
	}

	w, err := NewWatcher(path, 0)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	select {
	case change := <-w.Changes:
		t.Errorf("unexpected change event: %+v", change)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_DetectsRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tower.toml")
	if err := os.WriteFile(path, []byte(tower), 0o644); err != nil {
		t.Fatalf("failed to create project file: %v", err)
	}

	w, err := NewWatcher(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	select {
	case change := <-w.Changes:
		if change.Kind != ChangeRemoved {
			t.Errorf("expected ChangeRemoved, got %d", change.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for removal event")
	}
}

func TestWatcher_StopWithUnreadChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tower.toml")
	if err := os.WriteFile(path, []byte(tower), 0o644); err != nil {
		t.Fatalf("failed to create project file: %v", err)
	}

	w, err := NewWatcher(path, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Fill the buffer so the next notification has nowhere to go.
	for len(w.changes) < cap(w.changes) {
		w.changes <- Change{Kind: ChangeModified, Path: w.Path}
	}
	if err := os.WriteFile(path, []byte(tower+"\n"), 0o644); err != nil {
		t.Fatalf("failed to update project file: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on a full Changes buffer")
	}
}
