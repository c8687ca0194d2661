// Package withdrawals manages agent payout requests. Each request is backed
// by a pending payout transaction in the commission ledger; approving the
// request completes that transaction and debits the agent's balance.
package withdrawals

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/linkcart/affiliate_backend/internal/app/domain/ledger"
	"github.com/linkcart/affiliate_backend/internal/app/domain/withdrawal"
	"github.com/linkcart/affiliate_backend/internal/app/storage"
	"github.com/linkcart/affiliate_backend/internal/errors"
	"github.com/linkcart/affiliate_backend/pkg/logger"
)

// Input is a new payout request from an agent.
type Input struct {
	Amount  float64 `json:"amount"`
	Method  string  `json:"method"`
	Details string  `json:"details,omitempty"`
}

// Service handles the payout request lifecycle.
type Service struct {
	withdrawals  storage.WithdrawalStore
	users        storage.UserStore
	transactions storage.TransactionStore
	log          *logger.Logger
}

func New(withdrawals storage.WithdrawalStore, users storage.UserStore, transactions storage.TransactionStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("withdrawals")
	}
	return &Service{
		withdrawals:  withdrawals,
		users:        users,
		transactions: transactions,
		log:          log,
	}
}

// Create opens a payout request. The agent's balance must cover the amount
// at request time; it is only debited at approval.
func (s *Service) Create(ctx context.Context, agentID string, in Input) (withdrawal.Request, error) {
	if in.Amount <= 0 {
		return withdrawal.Request{}, errors.Validation("amount must be positive")
	}
	method := strings.TrimSpace(in.Method)
	if method == "" {
		return withdrawal.Request{}, errors.Validation("method is required")
	}

	agent, err := s.users.GetUser(ctx, agentID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return withdrawal.Request{}, errors.NotFound("agent")
		}
		return withdrawal.Request{}, errors.Internal("load agent", err)
	}
	if !agent.CanSelfAttribute() {
		return withdrawal.Request{}, errors.Forbidden("only agents can request withdrawals")
	}
	if agent.Balance < in.Amount {
		return withdrawal.Request{}, errors.Validation(
			fmt.Sprintf("insufficient balance: have %.2f, requested %.2f", agent.Balance, in.Amount))
	}

	req := withdrawal.Request{
		AgentID: agentID,
		Amount:  in.Amount,
		Method:  method,
		Details: strings.TrimSpace(in.Details),
		Status:  withdrawal.StatusPending,
	}
	req, err = s.withdrawals.CreateWithdrawal(ctx, req)
	if err != nil {
		return withdrawal.Request{}, errors.Internal("create withdrawal", err)
	}

	tx := ledger.Transaction{
		AgentID:     agentID,
		Type:        ledger.TypePayout,
		Amount:      in.Amount,
		Status:      ledger.StatusPending,
		Description: fmt.Sprintf("Withdrawal via %s", method),
		RefID:       req.ID,
		RefKind:     ledger.RefWithdrawal,
	}
	tx, err = s.transactions.CreateTransaction(ctx, tx)
	if err != nil {
		return withdrawal.Request{}, errors.Internal("create payout transaction", err)
	}
	req.TransactionID = tx.ID
	if req, err = s.withdrawals.UpdateWithdrawal(ctx, req); err != nil {
		return withdrawal.Request{}, errors.Internal("link payout transaction", err)
	}

	s.log.WithField("withdrawal_id", req.ID).
		WithField("agent_id", agentID).
		WithField("amount", in.Amount).
		Info("withdrawal requested")
	return req, nil
}

// Approve completes a pending request, debiting the agent's balance. The
// transaction transition is the atomicity guard; a concurrent approval of
// the same request loses the transition and reports a conflict.
func (s *Service) Approve(ctx context.Context, id string) (withdrawal.Request, error) {
	req, err := s.get(ctx, id)
	if err != nil {
		return withdrawal.Request{}, err
	}
	if req.Status != withdrawal.StatusPending {
		return withdrawal.Request{}, errors.Conflict("withdrawal already processed")
	}

	if _, err := s.transactions.TransitionTransaction(ctx, req.TransactionID, ledger.StatusPending, ledger.StatusCompleted); err != nil {
		return withdrawal.Request{}, translateStoreErr(err)
	}

	if err := s.users.DebitBalance(ctx, req.AgentID, req.Amount); err != nil {
		// The balance no longer covers the payout. Fail the transaction and
		// reject the request so nothing is left half applied.
		if _, terr := s.transactions.TransitionTransaction(ctx, req.TransactionID, ledger.StatusCompleted, ledger.StatusFailed); terr != nil {
			s.log.WithError(terr).WithField("withdrawal_id", req.ID).Error("revert payout transaction failed")
		}
		req.Status = withdrawal.StatusRejected
		if _, uerr := s.withdrawals.UpdateWithdrawal(ctx, req); uerr != nil {
			s.log.WithError(uerr).WithField("withdrawal_id", req.ID).Error("mark withdrawal rejected failed")
		}
		if stderrors.Is(err, storage.ErrInsufficientBalance) {
			return withdrawal.Request{}, errors.Conflict("balance no longer covers this withdrawal")
		}
		return withdrawal.Request{}, errors.Internal("debit agent balance", err)
	}

	req.Status = withdrawal.StatusApproved
	req, err = s.withdrawals.UpdateWithdrawal(ctx, req)
	if err != nil {
		return withdrawal.Request{}, errors.Internal("mark withdrawal approved", err)
	}
	s.log.WithField("withdrawal_id", req.ID).WithField("amount", req.Amount).Info("withdrawal approved")
	return req, nil
}

// Reject fails a pending request without touching the agent's balance.
func (s *Service) Reject(ctx context.Context, id string) (withdrawal.Request, error) {
	req, err := s.get(ctx, id)
	if err != nil {
		return withdrawal.Request{}, err
	}
	if req.Status != withdrawal.StatusPending {
		return withdrawal.Request{}, errors.Conflict("withdrawal already processed")
	}

	if _, err := s.transactions.TransitionTransaction(ctx, req.TransactionID, ledger.StatusPending, ledger.StatusFailed); err != nil {
		return withdrawal.Request{}, translateStoreErr(err)
	}

	req.Status = withdrawal.StatusRejected
	req, err = s.withdrawals.UpdateWithdrawal(ctx, req)
	if err != nil {
		return withdrawal.Request{}, errors.Internal("mark withdrawal rejected", err)
	}
	return req, nil
}

// Get returns one request.
func (s *Service) Get(ctx context.Context, id string) (withdrawal.Request, error) {
	return s.get(ctx, id)
}

// List returns requests, optionally filtered by agent.
func (s *Service) List(ctx context.Context, agentID string) ([]withdrawal.Request, error) {
	return s.withdrawals.ListWithdrawals(ctx, agentID)
}

func (s *Service) get(ctx context.Context, id string) (withdrawal.Request, error) {
	req, err := s.withdrawals.GetWithdrawal(ctx, id)
	if err != nil {
		return withdrawal.Request{}, translateStoreErr(err)
	}
	return req, nil
}

func translateStoreErr(err error) error {
	switch {
	case stderrors.Is(err, storage.ErrNotFound):
		return errors.NotFound("withdrawal")
	case stderrors.Is(err, storage.ErrConflict):
		return errors.Conflict("withdrawal already processed")
	case stderrors.Is(err, storage.ErrInsufficientBalance):
		return errors.Conflict("insufficient balance")
	default:
		return errors.Internal("withdrawal storage", err)
	}
}
