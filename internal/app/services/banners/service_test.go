package banners

import (
	"context"
	"testing"

	"github.com/linkcart/affiliate_backend/internal/app/storage/memory"
)

func TestLifecycle(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	b, err := svc.Create(ctx, Input{Title: "Summer Sale", ImageURL: "https://cdn.example.com/sale.png"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !b.Active {
		t.Fatal("banners must default to active")
	}

	inactive := false
	if _, err := svc.Create(ctx, Input{Title: "Draft", ImageURL: "https://cdn.example.com/draft.png", Active: &inactive}); err != nil {
		t.Fatalf("create inactive: %v", err)
	}

	active, err := svc.List(ctx, true)
	if err != nil || len(active) != 1 {
		t.Fatalf("active list: %v len=%d", err, len(active))
	}
	all, err := svc.List(ctx, false)
	if err != nil || len(all) != 2 {
		t.Fatalf("full list: %v len=%d", err, len(all))
	}

	if err := svc.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, b.ID); err == nil {
		t.Fatal("deleted banner still readable")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, Input{Title: "", ImageURL: "https://cdn.example.com/x.png"}); err == nil {
		t.Fatal("empty title accepted")
	}
	if _, err := svc.Create(ctx, Input{Title: "X", ImageURL: ""}); err == nil {
		t.Fatal("empty image url accepted")
	}
}
