package notify

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestPermissionStore(t *testing.T) *PermissionStore {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewPermissionStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestPermissionStoreDefaultsToUnknown(t *testing.T) {
	store := newTestPermissionStore(t)

	status, err := store.Get(context.Background(), "pat-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if status != PermissionUnknown {
		t.Errorf("got %q, want unknown", status)
	}

	granted, err := store.Granted(context.Background(), "pat-1")
	if err != nil {
		t.Fatalf("granted: %v", err)
	}
	if granted {
		t.Error("unreported permission must not allow planning")
	}
}

func TestPermissionStoreSetAndGet(t *testing.T) {
	store := newTestPermissionStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "pat-1", PermissionGranted); err != nil {
		t.Fatalf("set granted: %v", err)
	}
	granted, err := store.Granted(ctx, "pat-1")
	if err != nil {
		t.Fatalf("granted: %v", err)
	}
	if !granted {
		t.Error("expected granted")
	}

	if err := store.Set(ctx, "pat-1", PermissionDenied); err != nil {
		t.Fatalf("set denied: %v", err)
	}
	granted, err = store.Granted(ctx, "pat-1")
	if err != nil {
		t.Fatalf("granted after deny: %v", err)
	}
	if granted {
		t.Error("denied permission must block planning")
	}
}

func TestPermissionStoreRejectsInvalidStatus(t *testing.T) {
	store := newTestPermissionStore(t)

	if err := store.Set(context.Background(), "pat-1", PermissionStatus("maybe")); err == nil {
		t.Error("expected error for invalid status")
	}
	if err := store.Set(context.Background(), "pat-1", PermissionUnknown); err == nil {
		t.Error("unknown is not a registrable status")
	}
}

func TestValidPermissionStatus(t *testing.T) {
	if !ValidPermissionStatus(PermissionGranted) || !ValidPermissionStatus(PermissionDenied) {
		t.Error("granted and denied must validate")
	}
	if ValidPermissionStatus(PermissionUnknown) || ValidPermissionStatus("yes") {
		t.Error("unknown and arbitrary strings must not validate")
	}
}
