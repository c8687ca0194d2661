package storage

import (
	"context"

	"github.com/linkcart/affiliate_backend/internal/app/domain/account"
	"github.com/linkcart/affiliate_backend/internal/app/domain/banner"
	"github.com/linkcart/affiliate_backend/internal/app/domain/category"
	"github.com/linkcart/affiliate_backend/internal/app/domain/click"
	"github.com/linkcart/affiliate_backend/internal/app/domain/ledger"
	"github.com/linkcart/affiliate_backend/internal/app/domain/withdrawal"
)

// CategoryStore persists category rules.
type CategoryStore interface {
	CreateCategory(ctx context.Context, rule category.Rule) (category.Rule, error)
	UpdateCategory(ctx context.Context, rule category.Rule) (category.Rule, error)
	GetCategory(ctx context.Context, id string) (category.Rule, error)
	DeleteCategory(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]category.Rule, error)
	ListActiveCategories(ctx context.Context) ([]category.Rule, error)

	// FindCategoryByText matches a rule by canonical name, search index or
	// any keyword, case-insensitively. The bool reports whether a rule
	// matched; no match is not an error.
	FindCategoryByText(ctx context.Context, text string) (category.Rule, bool, error)
}

// UserStore persists storefront accounts and agent balances.
type UserStore interface {
	CreateUser(ctx context.Context, u account.User) (account.User, error)
	UpdateUser(ctx context.Context, u account.User) (account.User, error)
	GetUser(ctx context.Context, id string) (account.User, error)
	GetUserByEmail(ctx context.Context, email string) (account.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (account.User, error)
	ListUsers(ctx context.Context) ([]account.User, error)

	// IncrementEarnings atomically adds amount to both the agent's balance
	// and lifetime earnings.
	IncrementEarnings(ctx context.Context, id string, amount float64) error

	// DebitBalance atomically subtracts amount from the agent's balance,
	// failing when the balance would go negative.
	DebitBalance(ctx context.Context, id string, amount float64) error
}

// ClickStore persists product click records.
type ClickStore interface {
	CreateClick(ctx context.Context, rec click.Record) (click.Record, error)
	GetClick(ctx context.Context, id string) (click.Record, error)
	ListClicks(ctx context.Context, agentID string) ([]click.Record, error)

	// UpdateClickRate overwrites the resolved commission rate. This is the
	// only mutation permitted on a click record.
	UpdateClickRate(ctx context.Context, id string, rate float64) (click.Record, error)
}

// TransactionStore persists commission ledger entries.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error)
	GetTransaction(ctx context.Context, id string) (ledger.Transaction, error)
	GetTransactionByRef(ctx context.Context, kind ledger.RefKind, refID string) (ledger.Transaction, bool, error)
	ListTransactions(ctx context.Context, agentID string) ([]ledger.Transaction, error)
	ListPendingTransactions(ctx context.Context) ([]ledger.Transaction, error)

	// UpdateTransactionAmount overwrites the amount of a transaction that is
	// still pending.
	UpdateTransactionAmount(ctx context.Context, id string, amount float64) (ledger.Transaction, error)

	// TransitionTransaction moves a transaction from one status to another
	// atomically. It fails when the transaction is not currently in from,
	// preventing double application of balance credits.
	TransitionTransaction(ctx context.Context, id string, from, to ledger.Status) (ledger.Transaction, error)
}

// BannerStore persists storefront banners.
type BannerStore interface {
	CreateBanner(ctx context.Context, b banner.Banner) (banner.Banner, error)
	UpdateBanner(ctx context.Context, b banner.Banner) (banner.Banner, error)
	GetBanner(ctx context.Context, id string) (banner.Banner, error)
	DeleteBanner(ctx context.Context, id string) error
	ListBanners(ctx context.Context, activeOnly bool) ([]banner.Banner, error)
}

// WithdrawalStore persists agent payout requests.
type WithdrawalStore interface {
	CreateWithdrawal(ctx context.Context, req withdrawal.Request) (withdrawal.Request, error)
	UpdateWithdrawal(ctx context.Context, req withdrawal.Request) (withdrawal.Request, error)
	GetWithdrawal(ctx context.Context, id string) (withdrawal.Request, error)
	ListWithdrawals(ctx context.Context, agentID string) ([]withdrawal.Request, error)
}
