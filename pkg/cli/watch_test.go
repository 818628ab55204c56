package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/githubnext/sqlresult/pkg/config"
	"github.com/githubnext/sqlresult/pkg/provider"
)

// syncBuffer is a bytes.Buffer safe for the watcher's timer goroutine
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// waitFor polls the buffer until it contains want or the deadline passes
func waitFor(t *testing.T, buf *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), want) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %q, output:\n%s", want, buf.String())
}

func TestWatchResultFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{"q.sql": testSQL})
	resultPath := filepath.Join(dir, "q.result")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- WatchResultFiles(ctx, &out, config.Default(), dir, false)
	}()

	waitFor(t, &out, "Watching for file changes")

	if err := os.WriteFile(resultPath, []byte(testResult), 0644); err != nil {
		t.Fatalf("Failed to write result file: %v", err)
	}
	waitFor(t, &out, "3 records, 0 degraded")

	if err := os.WriteFile(resultPath, []byte(degradedResult), 0644); err != nil {
		t.Fatalf("Failed to rewrite result file: %v", err)
	}
	waitFor(t, &out, "1 records, 1 degraded")

	if err := os.Remove(resultPath); err != nil {
		t.Fatalf("Failed to remove result file: %v", err)
	}
	waitFor(t, &out, "Removed")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected a clean stop, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watcher did not stop after cancellation")
	}
}

func TestWatchResultFilesIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- WatchResultFiles(ctx, &out, config.Default(), dir, false)
	}()
	waitFor(t, &out, "Watching for file changes")

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	time.Sleep(500 * time.Millisecond)
	if strings.Contains(out.String(), "Reloaded") {
		t.Errorf("Expected unrelated files to be ignored, got:\n%s", out.String())
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Expected a clean stop, got %v", err)
	}
}

func TestWatchResultFilesRequiresDirectory(t *testing.T) {
	dir := writeFiles(t, map[string]string{"q.sql": testSQL})
	var out syncBuffer

	if err := WatchResultFiles(context.Background(), &out, config.Default(), filepath.Join(dir, "q.sql"), false); err == nil {
		t.Error("Expected an error when watching a file")
	}
	if err := WatchResultFiles(context.Background(), &out, config.Default(), filepath.Join(dir, "missing"), false); err == nil {
		t.Error("Expected an error for a missing directory")
	}
}

// gatedWriter blocks every write until release is closed
type gatedWriter struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	writes  atomic.Int32
}

func (g *gatedWriter) Write(p []byte) (int, error) {
	g.once.Do(func() { close(g.started) })
	<-g.release
	g.writes.Add(1)
	return len(p), nil
}

func newTestWatcher(w io.Writer) *resultWatcher {
	return &resultWatcher{
		provider:      provider.New(config.Default()),
		log:           zap.NewNop(),
		out:           w,
		modifiedFiles: make(map[string]struct{}),
	}
}

func TestResultWatcherStopWaitsForFlush(t *testing.T) {
	dir := writeFiles(t, map[string]string{"q.sql": testSQL, "q.result": testResult})
	out := &gatedWriter{started: make(chan struct{}), release: make(chan struct{})}
	rw := newTestWatcher(out)

	rw.schedule(filepath.Join(dir, "q.result"), time.Hour)
	go rw.flush()
	select {
	case <-out.started:
	case <-time.After(5 * time.Second):
		t.Fatal("Flush never wrote its summary")
	}

	stopped := make(chan struct{})
	go func() {
		rw.stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stop returned while a flush was still writing")
	case <-time.After(100 * time.Millisecond):
	}

	close(out.release)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not return after the flush finished")
	}
	if got := out.writes.Load(); got != 1 {
		t.Errorf("Expected one summary write, got %d", got)
	}
}

func TestResultWatcherIgnoresWorkAfterStop(t *testing.T) {
	dir := writeFiles(t, map[string]string{"q.sql": testSQL, "q.result": testResult})
	var out syncBuffer
	rw := newTestWatcher(&out)

	rw.schedule(filepath.Join(dir, "q.result"), time.Hour)
	rw.stop()
	rw.flush()
	rw.schedule(filepath.Join(dir, "q.result"), time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	if out.String() != "" {
		t.Errorf("Expected no output after stop, got:\n%s", out.String())
	}
}
