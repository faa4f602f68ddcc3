package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tablestakes/internal/core/domain"
)

func openTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	return store, &now
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestPutGetOverwrite(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	key := domain.SessionKey("ABC123")

	if _, err := store.Get(ctx, key); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Put(ctx, key, []byte(`{"v":1}`), time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, key, []byte(`{"v":2}`), time.Hour); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Errorf("expected full overwrite, got %s", got)
	}
}

func TestExpiry(t *testing.T) {
	store, now := openTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "session:AAAAAA", []byte(`{}`), time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "session:BBBBBB", []byte(`{}`), 3*time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	*now = now.Add(2 * time.Hour)
	if _, err := store.Get(ctx, "session:AAAAAA"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expired snapshot must read as absent, got %v", err)
	}

	n, err := store.DeleteExpired(ctx, *now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 expired row, got %d", n)
	}
	if _, err := store.Get(ctx, "session:BBBBBB"); err != nil {
		t.Errorf("live snapshot removed: %v", err)
	}
}

func TestList(t *testing.T) {
	store, now := openTestStore(t)
	ctx := context.Background()
	stamp := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

	for i, code := range []string{"AAAAAA", "BBBBBB", "CCCCCC"} {
		payload := []byte(`{"code":"` + code + `","lastUpdate":"` + stamp.Format(time.RFC3339) + `"}`)
		if err := store.Put(ctx, domain.SessionKey(code), payload, time.Hour); err != nil {
			t.Fatalf("put %s: %v", code, err)
		}
		if i < 2 {
			*now = now.Add(time.Minute)
		}
	}

	infos, total, err := store.List(ctx, 0, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(infos) != 2 {
		t.Fatalf("expected 2 of 3, got %d of %d", len(infos), total)
	}
	if infos[0].Code != "CCCCCC" || infos[1].Code != "BBBBBB" {
		t.Errorf("expected newest first, got %s, %s", infos[0].Code, infos[1].Code)
	}
	if infos[0].LastUpdate == nil || !infos[0].LastUpdate.Equal(stamp) {
		t.Errorf("expected lastUpdate %v, got %v", stamp, infos[0].LastUpdate)
	}

	rest, _, err := store.List(ctx, 2, 2)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(rest) != 1 || rest[0].Code != "AAAAAA" {
		t.Errorf("unexpected second page %+v", rest)
	}
}

func TestPing(t *testing.T) {
	store, _ := openTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
