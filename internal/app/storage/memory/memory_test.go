package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/linkcart/affiliate_backend/internal/app/domain/account"
	"github.com/linkcart/affiliate_backend/internal/app/domain/category"
	"github.com/linkcart/affiliate_backend/internal/app/domain/click"
	"github.com/linkcart/affiliate_backend/internal/app/domain/ledger"
	"github.com/linkcart/affiliate_backend/internal/app/storage"
)

func TestCategoryLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	rule, err := s.CreateCategory(ctx, category.Rule{
		Name:        "Electronics",
		SearchIndex: "Electronics",
		Percent:     4,
		Keywords:    []string{"gadget"},
		Active:      true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rule.ID == "" || rule.CreatedAt.IsZero() {
		t.Fatalf("id/timestamps not assigned: %+v", rule)
	}

	if _, err := s.CreateCategory(ctx, category.Rule{Name: "electronics", Percent: 1}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate name should conflict, got %v", err)
	}

	rule.Percent = 5
	updated, err := s.UpdateCategory(ctx, rule)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Percent != 5 {
		t.Fatalf("percent = %d", updated.Percent)
	}

	if err := s.DeleteCategory(ctx, rule.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetCategory(ctx, rule.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestFindCategoryByText(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.CreateCategory(ctx, category.Rule{
		Name:        "Home & Kitchen",
		SearchIndex: "HomeAndKitchen",
		Percent:     3,
		Keywords:    []string{"cookware", "utensils"},
		Active:      true,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, text := range []string{"home & kitchen", "HOMEANDKITCHEN", "Cookware"} {
		if _, found, err := s.FindCategoryByText(ctx, text); err != nil || !found {
			t.Fatalf("FindCategoryByText(%q): found=%v err=%v", text, found, err)
		}
	}
	if _, found, err := s.FindCategoryByText(ctx, "automotive"); err != nil || found {
		t.Fatalf("unexpected match: found=%v err=%v", found, err)
	}
}

func TestUserUniquenessAndLookup(t *testing.T) {
	s := New()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, account.User{
		Email:        "a@example.com",
		Name:         "A",
		Role:         account.RoleAgent,
		ReferralCode: "CODE1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.CreateUser(ctx, account.User{Email: "a@example.com", ReferralCode: "CODE2"}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate email should conflict, got %v", err)
	}
	if _, err := s.CreateUser(ctx, account.User{Email: "b@example.com", ReferralCode: "CODE1"}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate referral code should conflict, got %v", err)
	}

	byEmail, err := s.GetUserByEmail(ctx, "a@example.com")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("lookup by email: %v %+v", err, byEmail)
	}
	byCode, err := s.GetUserByReferralCode(ctx, "CODE1")
	if err != nil || byCode.ID != u.ID {
		t.Fatalf("lookup by code: %v %+v", err, byCode)
	}
}

func TestIncrementEarningsAndDebit(t *testing.T) {
	s := New()
	ctx := context.Background()
	u, err := s.CreateUser(ctx, account.User{Email: "agent@example.com", ReferralCode: "X1", Role: account.RoleAgent})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.IncrementEarnings(ctx, u.ID, 30); err != nil {
		t.Fatalf("increment: %v", err)
	}
	got, _ := s.GetUser(ctx, u.ID)
	if got.Balance != 30 || got.TotalEarnings != 30 {
		t.Fatalf("balance/earnings = %v/%v", got.Balance, got.TotalEarnings)
	}

	if err := s.DebitBalance(ctx, u.ID, 20); err != nil {
		t.Fatalf("debit: %v", err)
	}
	got, _ = s.GetUser(ctx, u.ID)
	if got.Balance != 10 {
		t.Fatalf("balance = %v", got.Balance)
	}
	if got.TotalEarnings != 30 {
		t.Fatalf("debit must not touch lifetime earnings: %v", got.TotalEarnings)
	}

	if err := s.DebitBalance(ctx, u.ID, 100); !errors.Is(err, storage.ErrInsufficientBalance) {
		t.Fatalf("overdraw should fail, got %v", err)
	}
}

func TestIncrementEarnings_Concurrent(t *testing.T) {
	s := New()
	ctx := context.Background()
	u, err := s.CreateUser(ctx, account.User{Email: "c@example.com", ReferralCode: "X2"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.IncrementEarnings(ctx, u.ID, 1); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := s.GetUser(ctx, u.ID)
	if got.Balance != 50 {
		t.Fatalf("lost increments: balance = %v", got.Balance)
	}
}

func TestTransactionTransitions(t *testing.T) {
	s := New()
	ctx := context.Background()

	tx, err := s.CreateTransaction(ctx, ledger.Transaction{
		AgentID: "agent-1",
		Type:    ledger.TypeEarnings,
		Amount:  10,
		Status:  ledger.StatusPending,
		RefID:   "click-1",
		RefKind: ledger.RefClick,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	byRef, found, err := s.GetTransactionByRef(ctx, ledger.RefClick, "click-1")
	if err != nil || !found || byRef.ID != tx.ID {
		t.Fatalf("lookup by ref: %v found=%v", err, found)
	}

	adjusted, err := s.UpdateTransactionAmount(ctx, tx.ID, 15)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if adjusted.Amount != 15 {
		t.Fatalf("amount = %v", adjusted.Amount)
	}

	completed, err := s.TransitionTransaction(ctx, tx.ID, ledger.StatusPending, ledger.StatusCompleted)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if completed.Status != ledger.StatusCompleted {
		t.Fatalf("status = %s", completed.Status)
	}

	if _, err := s.TransitionTransaction(ctx, tx.ID, ledger.StatusPending, ledger.StatusCompleted); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("second transition should conflict, got %v", err)
	}
	if _, err := s.UpdateTransactionAmount(ctx, tx.ID, 1); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("amount change on completed should conflict, got %v", err)
	}
}

func TestClickAgentFilter(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, agent := range []string{"a1", "a1", "a2", ""} {
		if _, err := s.CreateClick(ctx, click.Record{ASIN: "B0", ProductName: "p", AgentID: agent}); err != nil {
			t.Fatalf("create click: %v", err)
		}
	}

	all, err := s.ListClicks(ctx, "")
	if err != nil || len(all) != 4 {
		t.Fatalf("all clicks: %v len=%d", err, len(all))
	}
	a1, err := s.ListClicks(ctx, "a1")
	if err != nil || len(a1) != 2 {
		t.Fatalf("agent filter: %v len=%d", err, len(a1))
	}
}
