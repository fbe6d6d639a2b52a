package sourcewatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherFiresOnTrackedFileChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "main.gts")
	if err := os.WriteFile(file, []byte("console.log(1);"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := New()
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	if err := w.Track(file); err != nil {
		t.Fatalf("track: %v", err)
	}

	fired := make(chan struct{}, 1)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = w.Run(stop, func() { fired <- struct{}{} })
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if err := os.WriteFile(file, []byte("console.log(2);"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("onChange never fired for a tracked file change")
	}

	close(stop)
	<-done
}

func TestWatcherIgnoresUntrackedSibling(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "main.gts")
	sibling := filepath.Join(dir, "scratch.txt")
	if err := os.WriteFile(tracked, []byte("console.log(1);"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(sibling, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := New()
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()
	if err := w.Track(tracked); err != nil {
		t.Fatalf("track: %v", err)
	}

	fired := make(chan struct{}, 1)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = w.Run(stop, func() { fired <- struct{}{} })
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if err := os.WriteFile(sibling, []byte("y"), 0o644); err != nil {
		t.Fatalf("rewrite sibling: %v", err)
	}

	select {
	case <-fired:
		t.Fatal("onChange fired for an untracked sibling file")
	case <-time.After(400 * time.Millisecond):
	}

	close(stop)
	<-done
}
