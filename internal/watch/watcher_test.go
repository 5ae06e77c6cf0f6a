package watch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type feedSource struct {
	mu    sync.Mutex
	items []string
	err   error
}

func (f *feedSource) fetch(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *feedSource) set(items []string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items, f.err = items, err
}

func collectChanges(t *testing.T, src *feedSource) (*Subscription, chan []string) {
	t.Helper()
	changes := make(chan []string, 16)
	sub := Changes(context.Background(), 5*time.Millisecond, src.fetch,
		func(snapshot []string) { changes <- snapshot }, nil)
	t.Cleanup(sub.Cancel)
	return sub, changes
}

func waitChange(t *testing.T, changes chan []string) []string {
	t.Helper()
	select {
	case snapshot := <-changes:
		return snapshot
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change")
		return nil
	}
}

func TestChangesFiresOnFirstFetch(t *testing.T) {
	src := &feedSource{items: []string{"a"}}
	_, changes := collectChanges(t, src)

	got := waitChange(t, changes)
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("first snapshot: %v", got)
	}
}

func TestChangesFiresOnlyOnDifference(t *testing.T) {
	src := &feedSource{items: []string{"a"}}
	_, changes := collectChanges(t, src)
	waitChange(t, changes)

	// Unchanged snapshots stay quiet.
	select {
	case snapshot := <-changes:
		t.Fatalf("unexpected change for identical snapshot: %v", snapshot)
	case <-time.After(30 * time.Millisecond):
	}

	src.set([]string{"a", "b"}, nil)
	got := waitChange(t, changes)
	if len(got) != 2 {
		t.Errorf("updated snapshot: %v", got)
	}
}

func TestChangesSurvivesFetchErrors(t *testing.T) {
	src := &feedSource{err: errors.New("store down")}
	_, changes := collectChanges(t, src)

	select {
	case snapshot := <-changes:
		t.Fatalf("unexpected change while fetch fails: %v", snapshot)
	case <-time.After(30 * time.Millisecond):
	}

	src.set([]string{"a"}, nil)
	got := waitChange(t, changes)
	if len(got) != 1 {
		t.Errorf("snapshot after recovery: %v", got)
	}
}

func TestCancelStopsFeed(t *testing.T) {
	src := &feedSource{items: []string{"a"}}
	sub, changes := collectChanges(t, src)
	waitChange(t, changes)

	sub.Cancel()
	select {
	case <-sub.Done():
	default:
		t.Fatal("Done must be closed after Cancel returns")
	}

	// Safe to call again.
	sub.Cancel()
}
