package identity

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStateStore_TakeConsumes(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	if err := store.Put(ctx, "state-1", "/dashboard", time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}

	returnTo, ok, err := store.Take(ctx, "state-1")
	if err != nil || !ok {
		t.Fatalf("Take = (%q, %v, %v), want hit", returnTo, ok, err)
	}
	if returnTo != "/dashboard" {
		t.Errorf("returnTo = %q, want /dashboard", returnTo)
	}

	if _, ok, _ := store.Take(ctx, "state-1"); ok {
		t.Error("a state token must be single-use")
	}
}

func TestMemoryStateStore_Expired(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	if err := store.Put(ctx, "state-1", "/", -time.Second); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, _ := store.Take(ctx, "state-1"); ok {
		t.Error("expired state should read as missing")
	}
}

func TestMemoryStateStore_Missing(t *testing.T) {
	store := NewMemoryStateStore()
	if _, ok, err := store.Take(context.Background(), "nope"); ok || err != nil {
		t.Errorf("Take on missing state = (%v, %v), want (false, nil)", ok, err)
	}
}
