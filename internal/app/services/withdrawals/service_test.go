package withdrawals

import (
	"context"
	"testing"

	"github.com/linkcart/affiliate_backend/internal/app/domain/account"
	"github.com/linkcart/affiliate_backend/internal/app/domain/ledger"
	"github.com/linkcart/affiliate_backend/internal/app/domain/withdrawal"
	"github.com/linkcart/affiliate_backend/internal/app/storage/memory"
	"github.com/linkcart/affiliate_backend/internal/errors"
)

func newTestService(t *testing.T) (*Service, *memory.Store, account.User) {
	t.Helper()
	store := memory.New()
	agent, err := store.CreateUser(context.Background(), account.User{
		Email:        "agent@example.com",
		Name:         "Agent",
		Role:         account.RoleAgent,
		ReferralCode: "AGENT001",
	})
	if err != nil {
		t.Fatalf("create agent: %v", err)
	}
	if err := store.IncrementEarnings(context.Background(), agent.ID, 100); err != nil {
		t.Fatalf("fund agent: %v", err)
	}
	return New(store, store, store, nil), store, agent
}

func TestCreate(t *testing.T) {
	svc, store, agent := newTestService(t)
	ctx := context.Background()

	req, err := svc.Create(ctx, agent.ID, Input{Amount: 40, Method: "bank_transfer"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.Status != withdrawal.StatusPending {
		t.Fatalf("status = %s", req.Status)
	}
	if req.TransactionID == "" {
		t.Fatal("no payout transaction linked")
	}

	tx, err := store.GetTransaction(ctx, req.TransactionID)
	if err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if tx.Type != ledger.TypePayout || tx.Status != ledger.StatusPending || tx.Amount != 40 {
		t.Fatalf("transaction = %+v", tx)
	}
	if tx.RefKind != ledger.RefWithdrawal || tx.RefID != req.ID {
		t.Fatalf("transaction ref = %s/%s", tx.RefKind, tx.RefID)
	}

	// The balance is only reserved, not debited.
	u, _ := store.GetUser(ctx, agent.ID)
	if u.Balance != 100 {
		t.Fatalf("balance = %v", u.Balance)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, store, agent := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, agent.ID, Input{Amount: 0, Method: "bank_transfer"}); err == nil {
		t.Fatal("zero amount accepted")
	}
	if _, err := svc.Create(ctx, agent.ID, Input{Amount: 10, Method: " "}); err == nil {
		t.Fatal("empty method accepted")
	}
	if _, err := svc.Create(ctx, agent.ID, Input{Amount: 500, Method: "bank_transfer"}); err == nil {
		t.Fatal("amount above balance accepted")
	}

	plain, err := store.CreateUser(ctx, account.User{Email: "user@example.com", ReferralCode: "USER0001", Role: account.RoleUser})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, err = svc.Create(ctx, plain.ID, Input{Amount: 10, Method: "bank_transfer"})
	se := errors.GetServiceError(err)
	if se == nil || se.Code != errors.CodeForbidden {
		t.Fatalf("expected forbidden for non-agent, got %v", err)
	}
}

func TestApprove(t *testing.T) {
	svc, store, agent := newTestService(t)
	ctx := context.Background()

	req, err := svc.Create(ctx, agent.ID, Input{Amount: 40, Method: "bank_transfer"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	approved, err := svc.Approve(ctx, req.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != withdrawal.StatusApproved {
		t.Fatalf("status = %s", approved.Status)
	}

	u, _ := store.GetUser(ctx, agent.ID)
	if u.Balance != 60 {
		t.Fatalf("balance = %v", u.Balance)
	}
	tx, _ := store.GetTransaction(ctx, req.TransactionID)
	if tx.Status != ledger.StatusCompleted {
		t.Fatalf("transaction status = %s", tx.Status)
	}

	// A second approval must not debit again.
	_, err = svc.Approve(ctx, req.ID)
	se := errors.GetServiceError(err)
	if se == nil || se.Code != errors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	u, _ = store.GetUser(ctx, agent.ID)
	if u.Balance != 60 {
		t.Fatalf("balance after double approve = %v", u.Balance)
	}
}

func TestApprove_BalanceDrained(t *testing.T) {
	svc, store, agent := newTestService(t)
	ctx := context.Background()

	req, err := svc.Create(ctx, agent.ID, Input{Amount: 80, Method: "bank_transfer"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// The balance drops between request and approval.
	if err := store.DebitBalance(ctx, agent.ID, 50); err != nil {
		t.Fatalf("debit: %v", err)
	}

	_, err = svc.Approve(ctx, req.ID)
	se := errors.GetServiceError(err)
	if se == nil || se.Code != errors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Nothing may be left half applied.
	got, _ := svc.Get(ctx, req.ID)
	if got.Status != withdrawal.StatusRejected {
		t.Fatalf("request status = %s", got.Status)
	}
	tx, _ := store.GetTransaction(ctx, req.TransactionID)
	if tx.Status != ledger.StatusFailed {
		t.Fatalf("transaction status = %s", tx.Status)
	}
	u, _ := store.GetUser(ctx, agent.ID)
	if u.Balance != 50 {
		t.Fatalf("balance = %v", u.Balance)
	}
}

func TestReject(t *testing.T) {
	svc, store, agent := newTestService(t)
	ctx := context.Background()

	req, err := svc.Create(ctx, agent.ID, Input{Amount: 40, Method: "paypal"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rejected, err := svc.Reject(ctx, req.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != withdrawal.StatusRejected {
		t.Fatalf("status = %s", rejected.Status)
	}
	tx, _ := store.GetTransaction(ctx, req.TransactionID)
	if tx.Status != ledger.StatusFailed {
		t.Fatalf("transaction status = %s", tx.Status)
	}
	u, _ := store.GetUser(ctx, agent.ID)
	if u.Balance != 100 {
		t.Fatalf("balance = %v", u.Balance)
	}

	if _, err := svc.Reject(ctx, req.ID); err == nil {
		t.Fatal("double reject accepted")
	}
}

func TestListByAgent(t *testing.T) {
	svc, store, agent := newTestService(t)
	ctx := context.Background()

	other, err := store.CreateUser(ctx, account.User{Email: "other@example.com", ReferralCode: "OTHER001", Role: account.RoleAgent})
	if err != nil {
		t.Fatalf("create other: %v", err)
	}
	if err := store.IncrementEarnings(ctx, other.ID, 50); err != nil {
		t.Fatalf("fund other: %v", err)
	}

	if _, err := svc.Create(ctx, agent.ID, Input{Amount: 10, Method: "paypal"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, other.ID, Input{Amount: 20, Method: "paypal"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := svc.List(ctx, agent.ID)
	if err != nil || len(mine) != 1 {
		t.Fatalf("list mine: %v len=%d", err, len(mine))
	}
	all, err := svc.List(ctx, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("list all: %v len=%d", err, len(all))
	}
}
