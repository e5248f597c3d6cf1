package memory

import (
	"context"
	"testing"
	"time"

	"trivia-showdown/internal/domain"
)

func TestSoloScoreStoreOrderingAndPrune(t *testing.T) {
	ctx := context.Background()
	store := NewSoloScoreStore()
	now := time.Now()

	_ = store.Add(ctx, domain.SoloScore{Name: "Kelly", Score: 500, DurationMs: 9000, CreatedAt: now})
	_ = store.Add(ctx, domain.SoloScore{Name: "Ryan", Score: 500, DurationMs: 7000, CreatedAt: now})
	_ = store.Add(ctx, domain.SoloScore{Name: "Toby", Score: 100, DurationMs: 1000, CreatedAt: now.Add(-10 * 24 * time.Hour)})

	top, err := store.Top(ctx, 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].Name != "Ryan" || top[1].Name != "Kelly" {
		t.Fatalf("unexpected order: %+v", top)
	}

	removed, err := store.DeleteBefore(ctx, now.Add(-7*24*time.Hour))
	if err != nil || removed != 1 {
		t.Fatalf("expected 1 pruned, got %d (%v)", removed, err)
	}

	_ = store.Clear(ctx)
	if top, _ := store.Top(ctx, 10); len(top) != 0 {
		t.Fatalf("expected empty after clear, got %d", len(top))
	}
}
