package watch

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/sowilo/internal/contentservice"
	"github.com/starford/sowilo/internal/resolver"
	"github.com/starford/sowilo/internal/sse"
	"github.com/starford/sowilo/internal/store"
	"github.com/starford/sowilo/internal/testutil"
)

func TestWatch_InvalidatesSnapshotOnChange(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "first.md",
		testutil.Doc(t, map[string]any{"title": "First"}, "Body."))

	// A long TTL makes invalidation observable: without the watcher the
	// second snapshot would be the stale cached one.
	st, err := store.New([]store.Source{{
		Name:     "blog",
		Resolver: resolver.Config{Root: root},
	}}, time.Hour, testutil.Logger())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	svc := contentservice.NewService(st, nil)

	broker := sse.NewBroker()
	defer broker.Close()
	events := broker.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, svc, broker, testutil.Logger()) }()

	// Prime the cache, give the watcher a moment to register the root.
	if _, err := st.Snapshot("blog"); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	testutil.WriteFile(t, root, "second.md",
		testutil.Doc(t, map[string]any{"title": "Second"}, "More."))

	select {
	case msg, ok := <-events:
		if !ok {
			t.Fatal("event channel closed")
		}
		if !strings.Contains(string(msg), "content.changed") {
			t.Errorf("msg = %q, want content.changed", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change event within deadline")
	}

	snap, err := st.Snapshot("blog")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Records) != 2 {
		t.Errorf("records = %d, want 2 after invalidation", len(snap.Records))
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop on cancel")
	}
}

func TestWatch_PicksUpNewDirectories(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "first.md",
		testutil.Doc(t, map[string]any{"title": "First"}, "Body."))

	st, err := store.New([]store.Source{{
		Name:     "blog",
		Resolver: resolver.Config{Root: root},
	}}, time.Hour, testutil.Logger())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	svc := contentservice.NewService(st, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, svc, nil, testutil.Logger()) //nolint:errcheck

	if _, err := st.Snapshot("blog"); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	// Create a directory, wait for it to join the watch set, then write
	// a file inside it.
	testutil.WriteFile(t, root, "guides/setup.md",
		testutil.Doc(t, map[string]any{"title": "Setup"}, "Guide."))

	deadline := time.Now().Add(5 * time.Second)
	for {
		snap, err := st.Snapshot("blog")
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if len(snap.Records) == 2 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("records = %d, want 2", len(snap.Records))
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestSourceFor(t *testing.T) {
	blogRoot := filepath.Join("/tmp", "content", "blog")
	roots := map[string]string{"blog": blogRoot}

	if got := sourceFor(roots, filepath.Join(blogRoot, "post.md")); got != "blog" {
		t.Errorf("got %q, want blog", got)
	}
	if got := sourceFor(roots, blogRoot); got != "blog" {
		t.Errorf("got %q, want blog for the root itself", got)
	}
	// A sibling sharing the prefix string is not inside the root.
	if got := sourceFor(roots, blogRoot+"-archive/post.md"); got != "" {
		t.Errorf("got %q, want no match", got)
	}
}
