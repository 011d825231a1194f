package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRevoker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewMemoryRevoker()
	r.now = func() time.Time { return clock }

	if err := r.Revoke(ctx, "live", clock.Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := r.Revoke(ctx, "stale", clock.Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	if ok, _ := r.IsRevoked(ctx, "live"); !ok {
		t.Fatalf("IsRevoked(live) = false, want true")
	}
	if ok, _ := r.IsRevoked(ctx, "stale"); ok {
		t.Fatalf("IsRevoked(stale) = true, want false")
	}
	if ok, _ := r.IsRevoked(ctx, "unknown"); ok {
		t.Fatalf("IsRevoked(unknown) = true, want false")
	}

	clock = clock.Add(2 * time.Hour)
	if ok, _ := r.IsRevoked(ctx, "live"); ok {
		t.Fatalf("IsRevoked(after expiry) = true, want false")
	}
}
