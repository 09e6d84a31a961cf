package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/tocgen/internal/toc"
)

func TestWatcher_UpdatesChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	writeFile(t, path, "# Start\n")

	results := make(chan FileResult, 16)
	r := &Runner{Options: toc.DefaultOptions(), Mode: ModeWrite}
	w, err := NewWatcher(r, []string{dir}, func(res FileResult) { results <- res })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	if err := os.WriteFile(path, []byte("# Start\n## Added\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for updated := false; !updated; {
		select {
		case res := <-results:
			updated = res.Status == StatusUpdated
		case <-deadline:
			t.Fatal("timed out waiting for watcher to update the file")
		}
	}
	if got := mustRead(t, path); !strings.Contains(got, "- [Added](#added)") {
		t.Errorf("expected updated TOC, got %q", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error from Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "keep.md")
	writeFile(t, md, "# Keep\n")

	r := &Runner{Options: toc.DefaultOptions(), Mode: ModeWrite}
	w, err := NewWatcher(r, []string{md}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.wanted(filepath.Join(dir, "other.md")) {
		t.Error("expected only the named file to be watched")
	}
	if !w.wanted(md) {
		t.Error("expected named file to be watched")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
