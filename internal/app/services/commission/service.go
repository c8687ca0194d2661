package commission

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"strings"

	"github.com/linkcart/affiliate_backend/internal/app/domain/account"
	"github.com/linkcart/affiliate_backend/internal/app/domain/click"
	"github.com/linkcart/affiliate_backend/internal/app/domain/ledger"
	"github.com/linkcart/affiliate_backend/internal/app/metrics"
	"github.com/linkcart/affiliate_backend/internal/app/storage"
	"github.com/linkcart/affiliate_backend/internal/errors"
	"github.com/linkcart/affiliate_backend/pkg/logger"
)

// Principal is the authenticated actor behind a request, if any. Click
// tracking accepts guests, so callers may pass nil.
type Principal struct {
	UserID string
	Role   account.Role
}

// ClickInput is a raw product click as reported by the storefront.
type ClickInput struct {
	ASIN         string  `json:"asin"`
	ProductName  string  `json:"product_name"`
	Category     string  `json:"category,omitempty"`
	Price        float64 `json:"price"`
	ReferralCode string  `json:"referral_code,omitempty"`
}

// Override is the result of an administrative commission-rate override.
type Override struct {
	Click     click.Record `json:"click"`
	NewAmount float64      `json:"new_amount"`
}

// Service attributes product clicks to agents and maintains the commission
// ledger.
type Service struct {
	resolver     *Resolver
	users        storage.UserStore
	clicks       storage.ClickStore
	transactions storage.TransactionStore
	log          *logger.Logger
}

// New constructs the commission engine over its collaborator stores.
func New(categories storage.CategoryStore, users storage.UserStore, clicks storage.ClickStore, transactions storage.TransactionStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("commission")
	}
	return &Service{
		resolver:     NewResolver(categories, log),
		users:        users,
		clicks:       clicks,
		transactions: transactions,
		log:          log,
	}
}

// roundAmount rounds a commission amount to cents.
func roundAmount(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// TrackClick records a product click, resolves its category and commission
// rate, attributes it to an agent and opens a pending ledger transaction
// when one is due. Recording the click must never be blocked by attribution
// or category lookups failing; those degrade with a log line.
func (s *Service) TrackClick(ctx context.Context, input ClickInput, principal *Principal) (click.Record, error) {
	asin := strings.TrimSpace(input.ASIN)
	name := strings.TrimSpace(input.ProductName)
	if asin == "" {
		return click.Record{}, errors.Validation("asin is required")
	}
	if name == "" {
		return click.Record{}, errors.Validation("product_name is required")
	}

	res := s.resolver.Resolve(ctx, input.Category, name)
	agentID, userID := s.attributeAgent(ctx, input, principal)

	rec := click.Record{
		ASIN:           asin,
		ProductName:    name,
		InputCategory:  strings.TrimSpace(input.Category),
		Price:          input.Price,
		Category:       res.Category,
		CommissionRate: res.Fraction,
		AgentID:        agentID,
		UserID:         userID,
	}
	rec, err := s.clicks.CreateClick(ctx, rec)
	if err != nil {
		return click.Record{}, errors.Internal("record click", err)
	}
	metrics.RecordClickTracked(res.Source, agentID != "")

	if agentID != "" && input.Price > 0 {
		if amount := roundAmount(input.Price * res.Fraction); amount > 0 {
			s.openTransaction(ctx, rec, amount)
		}
	}

	s.log.WithField("click_id", rec.ID).
		WithField("category", rec.Category).
		WithField("source", res.Source).
		WithField("agent_id", agentID).
		Debug("click tracked")
	return rec, nil
}

// openTransaction opens the pending ledger entry for an attributed click. A
// failure here must not fail the click itself.
func (s *Service) openTransaction(ctx context.Context, rec click.Record, amount float64) {
	tx := ledger.Transaction{
		AgentID:     rec.AgentID,
		Type:        ledger.TypeEarnings,
		Amount:      amount,
		Status:      ledger.StatusPending,
		Description: fmt.Sprintf("Commission for %q (%s)", rec.ProductName, rec.ASIN),
		RefID:       rec.ID,
		RefKind:     ledger.RefClick,
	}
	if _, err := s.transactions.CreateTransaction(ctx, tx); err != nil {
		s.log.WithError(err).WithField("click_id", rec.ID).Error("open commission transaction failed")
		return
	}
	metrics.RecordTransactionOpened()
}

// attributeAgent applies the attribution precedence chain: self-attribution
// for agents and admins, then the supplied referral code, then the user's
// permanent stored referrer. Failures degrade to no attribution.
func (s *Service) attributeAgent(ctx context.Context, input ClickInput, principal *Principal) (agentID, userID string) {
	var actor *account.User
	if principal != nil && principal.UserID != "" {
		userID = principal.UserID
		u, err := s.users.GetUser(ctx, principal.UserID)
		if err != nil {
			s.log.WithError(err).WithField("user_id", principal.UserID).Warn("attribution user lookup failed")
		} else {
			actor = &u
		}
	}

	// An agent clicking through their own link gets the credit.
	if actor != nil && actor.CanSelfAttribute() {
		return actor.ID, userID
	}

	if code := strings.TrimSpace(input.ReferralCode); code != "" {
		if agent, err := s.users.GetUserByReferralCode(ctx, code); err == nil && agent.CanSelfAttribute() {
			return agent.ID, userID
		} else if err != nil {
			s.log.WithField("referral_code", code).Debug("referral code did not resolve to an agent")
		}
	}

	if actor != nil && actor.ReferrerID != "" {
		if referrer, err := s.users.GetUser(ctx, actor.ReferrerID); err == nil && referrer.CanSelfAttribute() {
			return referrer.ID, userID
		}
	}

	return "", userID
}

// OverrideCommission overwrites a click's commission rate and retroactively
// adjusts its linked transaction. Only clicks whose transaction is still
// pending, or absent, may be overridden.
func (s *Service) OverrideCommission(ctx context.Context, clickID string, newRatePercent float64) (Override, error) {
	if newRatePercent < 0 || newRatePercent > 100 {
		return Override{}, errors.Validation("rate percent must be between 0 and 100")
	}

	rec, err := s.clicks.GetClick(ctx, clickID)
	if err != nil {
		return Override{}, translateStoreErr(err, "click")
	}

	tx, found, err := s.transactions.GetTransactionByRef(ctx, ledger.RefClick, clickID)
	if err != nil {
		return Override{}, errors.Internal("look up linked transaction", err)
	}
	if found && tx.Status != ledger.StatusPending {
		return Override{}, errors.Conflict("linked transaction already processed")
	}

	fraction := newRatePercent / 100
	rec, err = s.clicks.UpdateClickRate(ctx, clickID, fraction)
	if err != nil {
		return Override{}, translateStoreErr(err, "click")
	}
	amount := roundAmount(rec.Price * fraction)

	switch {
	case found && amount > 0:
		if _, err := s.transactions.UpdateTransactionAmount(ctx, tx.ID, amount); err != nil {
			return Override{}, translateStoreErr(err, "transaction")
		}
	case found:
		// A zero amount fails the transaction rather than deleting it, so
		// the ledger keeps its history.
		if _, err := s.transactions.UpdateTransactionAmount(ctx, tx.ID, 0); err != nil {
			return Override{}, translateStoreErr(err, "transaction")
		}
		if _, err := s.transactions.TransitionTransaction(ctx, tx.ID, ledger.StatusPending, ledger.StatusFailed); err != nil {
			return Override{}, translateStoreErr(err, "transaction")
		}
	case amount > 0 && rec.AgentID != "":
		s.openTransaction(ctx, rec, amount)
	}

	return Override{Click: rec, NewAmount: amount}, nil
}

// guardCreditable rejects transaction types this service must not settle.
// Payout transactions belong to a withdrawal request; settling one here would
// complete the ledger entry without debiting the agent and strand the linked
// withdrawal in pending.
func (s *Service) guardCreditable(ctx context.Context, txID string) error {
	tx, err := s.transactions.GetTransaction(ctx, txID)
	if err != nil {
		return translateStoreErr(err, "transaction")
	}
	if tx.Type == ledger.TypePayout {
		return errors.Conflict("payout transactions are settled through their withdrawal request")
	}
	return nil
}

// ApproveTransaction completes a pending earnings or adjustment transaction
// and credits the agent's balance and lifetime earnings. Approving anything
// not pending is a conflict and mutates no balance; payout transactions must
// be approved through the withdrawals service.
func (s *Service) ApproveTransaction(ctx context.Context, txID string) (ledger.Transaction, error) {
	if err := s.guardCreditable(ctx, txID); err != nil {
		return ledger.Transaction{}, err
	}
	tx, err := s.transactions.TransitionTransaction(ctx, txID, ledger.StatusPending, ledger.StatusCompleted)
	if err != nil {
		return ledger.Transaction{}, translateStoreErr(err, "transaction")
	}

	if err := s.users.IncrementEarnings(ctx, tx.AgentID, tx.Amount); err != nil {
		// The transition already happened; surface loudly rather than
		// silently double-crediting on retry.
		s.log.WithError(err).WithField("transaction_id", tx.ID).Error("credit agent balance failed")
		return ledger.Transaction{}, errors.Internal("credit agent balance", err)
	}

	s.log.WithField("transaction_id", tx.ID).
		WithField("agent_id", tx.AgentID).
		WithField("amount", tx.Amount).
		Info("commission transaction approved")
	return tx, nil
}

// RejectTransaction fails a pending earnings or adjustment transaction
// without touching balances. Payout transactions are rejected through their
// withdrawal request.
func (s *Service) RejectTransaction(ctx context.Context, txID string) (ledger.Transaction, error) {
	if err := s.guardCreditable(ctx, txID); err != nil {
		return ledger.Transaction{}, err
	}
	tx, err := s.transactions.TransitionTransaction(ctx, txID, ledger.StatusPending, ledger.StatusFailed)
	if err != nil {
		return ledger.Transaction{}, translateStoreErr(err, "transaction")
	}
	return tx, nil
}

// GetClick returns one click record.
func (s *Service) GetClick(ctx context.Context, id string) (click.Record, error) {
	rec, err := s.clicks.GetClick(ctx, id)
	if err != nil {
		return click.Record{}, translateStoreErr(err, "click")
	}
	return rec, nil
}

// ListClicks lists click records, optionally filtered by agent.
func (s *Service) ListClicks(ctx context.Context, agentID string) ([]click.Record, error) {
	return s.clicks.ListClicks(ctx, agentID)
}

// ListTransactions lists ledger entries, optionally filtered by agent.
func (s *Service) ListTransactions(ctx context.Context, agentID string) ([]ledger.Transaction, error) {
	return s.transactions.ListTransactions(ctx, agentID)
}

// ListPendingTransactions lists entries awaiting administrative review.
func (s *Service) ListPendingTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	return s.transactions.ListPendingTransactions(ctx)
}

// translateStoreErr maps storage sentinels into the service error taxonomy.
func translateStoreErr(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, storage.ErrNotFound):
		return errors.NotFound(resource)
	case stderrors.Is(err, storage.ErrConflict):
		return errors.Conflict(resource + " already processed")
	default:
		return errors.Internal("storage failure", err)
	}
}
