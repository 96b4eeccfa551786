// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modgraph/modgraph/internal/testutil"
)

// syncBuffer is a bytes.Buffer safe for the watcher's callback goroutine.
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

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestPlan_WatchReplansOnChange(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	app, err := NewApp(Dependencies{
		Stdout:    stdout,
		Stderr:    stderr,
		WorkDir:   work,
		ConfigDir: filepath.Join(work, ".user"),
	})
	if err != nil {
		t.Fatal(err)
	}

	testutil.WriteFile(t, filepath.Join(work, "Source", "Core", "Core.build.json"), `{}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		root := NewRootCommand(app)
		root.SetArgs([]string{"plan", "--watch", "--format", "dot", "Source"})
		done <- root.ExecuteContext(ctx)
	}()

	if !waitFor(t, 5*time.Second, func() bool { return strings.Contains(stderr.String(), "Watching for changes") }) {
		t.Fatalf("watcher did not start; stderr:\n%s", stderr.String())
	}
	if got := strings.Count(stdout.String(), "digraph"); got != 1 {
		t.Fatalf("initial plan count = %d, want 1", got)
	}

	engine := filepath.Join(work, "Source", "Core", "Engine.build.json")
	if err := os.WriteFile(engine, []byte(`{"public_dependencies": ["Core"]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 5*time.Second, func() bool { return strings.Contains(stdout.String(), `"Engine" -> "Core";`) }) {
		t.Fatalf("no re-plan after change; stdout:\n%s\nstderr:\n%s", stdout.String(), stderr.String())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch exited with %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
