// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/linkcart/affiliate_backend/internal/app/domain/account"
	"github.com/linkcart/affiliate_backend/internal/app/domain/banner"
	"github.com/linkcart/affiliate_backend/internal/app/domain/category"
	"github.com/linkcart/affiliate_backend/internal/app/domain/click"
	"github.com/linkcart/affiliate_backend/internal/app/domain/ledger"
	"github.com/linkcart/affiliate_backend/internal/app/domain/withdrawal"
	"github.com/linkcart/affiliate_backend/internal/app/storage"
)

// Store is an in-memory implementation of all storage interfaces.
type Store struct {
	mu             sync.RWMutex
	nextID         int64
	categories     map[string]category.Rule
	users          map[string]account.User
	usersByEmail   map[string]string
	usersByCode    map[string]string
	clicks         map[string]click.Record
	transactions   map[string]ledger.Transaction
	banners        map[string]banner.Banner
	withdrawals    map[string]withdrawal.Request
	categoryByName map[string]string
}

var _ storage.CategoryStore = (*Store)(nil)
var _ storage.UserStore = (*Store)(nil)
var _ storage.ClickStore = (*Store)(nil)
var _ storage.TransactionStore = (*Store)(nil)
var _ storage.BannerStore = (*Store)(nil)
var _ storage.WithdrawalStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:         1,
		categories:     make(map[string]category.Rule),
		users:          make(map[string]account.User),
		usersByEmail:   make(map[string]string),
		usersByCode:    make(map[string]string),
		clicks:         make(map[string]click.Record),
		transactions:   make(map[string]ledger.Transaction),
		banners:        make(map[string]banner.Banner),
		withdrawals:    make(map[string]withdrawal.Request),
		categoryByName: make(map[string]string),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// CategoryStore implementation ------------------------------------------------

func (s *Store) CreateCategory(_ context.Context, rule category.Rule) (category.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nameKey := strings.ToLower(strings.TrimSpace(rule.Name))
	if nameKey == "" {
		return category.Rule{}, fmt.Errorf("category name is required")
	}
	if _, exists := s.categoryByName[nameKey]; exists {
		return category.Rule{}, fmt.Errorf("category %q: %w", rule.Name, storage.ErrConflict)
	}
	if rule.ID == "" {
		rule.ID = s.nextIDLocked()
	} else if _, exists := s.categories[rule.ID]; exists {
		return category.Rule{}, fmt.Errorf("category id %s: %w", rule.ID, storage.ErrConflict)
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	s.categories[rule.ID] = rule
	s.categoryByName[nameKey] = rule.ID
	return rule, nil
}

func (s *Store) UpdateCategory(_ context.Context, rule category.Rule) (category.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[rule.ID]
	if !ok {
		return category.Rule{}, storage.ErrNotFound
	}
	newKey := strings.ToLower(strings.TrimSpace(rule.Name))
	oldKey := strings.ToLower(strings.TrimSpace(existing.Name))
	if newKey != oldKey {
		if _, exists := s.categoryByName[newKey]; exists {
			return category.Rule{}, fmt.Errorf("category %q: %w", rule.Name, storage.ErrConflict)
		}
		delete(s.categoryByName, oldKey)
		s.categoryByName[newKey] = rule.ID
	}
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now().UTC()
	s.categories[rule.ID] = rule
	return rule, nil
}

func (s *Store) GetCategory(_ context.Context, id string) (category.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := s.categories[id]
	if !ok {
		return category.Rule{}, storage.ErrNotFound
	}
	return rule, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, ok := s.categories[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.categories, id)
	delete(s.categoryByName, strings.ToLower(strings.TrimSpace(rule.Name)))
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]category.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortRules(s.categories, false), nil
}

func (s *Store) ListActiveCategories(_ context.Context) ([]category.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortRules(s.categories, true), nil
}

func sortRules(m map[string]category.Rule, activeOnly bool) []category.Rule {
	out := make([]category.Rule, 0, len(m))
	for _, rule := range m {
		if activeOnly && !rule.Active {
			continue
		}
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Store) FindCategoryByText(_ context.Context, text string) (category.Rule, bool, error) {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return category.Rule{}, false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rule := range sortRules(s.categories, false) {
		if strings.EqualFold(rule.Name, needle) || strings.EqualFold(rule.SearchIndex, needle) {
			return rule, true, nil
		}
		for _, kw := range rule.Keywords {
			if strings.EqualFold(strings.TrimSpace(kw), needle) {
				return rule, true, nil
			}
		}
	}
	return category.Rule{}, false, nil
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u account.User) (account.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	emailKey := strings.ToLower(strings.TrimSpace(u.Email))
	if emailKey == "" {
		return account.User{}, fmt.Errorf("email is required")
	}
	if _, exists := s.usersByEmail[emailKey]; exists {
		return account.User{}, fmt.Errorf("email %s: %w", u.Email, storage.ErrConflict)
	}
	if u.ReferralCode != "" {
		if _, exists := s.usersByCode[u.ReferralCode]; exists {
			return account.User{}, fmt.Errorf("referral code %s: %w", u.ReferralCode, storage.ErrConflict)
		}
	}
	if u.ID == "" {
		u.ID = s.nextIDLocked()
	} else if _, exists := s.users[u.ID]; exists {
		return account.User{}, fmt.Errorf("user id %s: %w", u.ID, storage.ErrConflict)
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = u
	s.usersByEmail[emailKey] = u.ID
	if u.ReferralCode != "" {
		s.usersByCode[u.ReferralCode] = u.ID
	}
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u account.User) (account.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return account.User{}, storage.ErrNotFound
	}
	newEmail := strings.ToLower(strings.TrimSpace(u.Email))
	oldEmail := strings.ToLower(strings.TrimSpace(existing.Email))
	if newEmail != oldEmail {
		if _, exists := s.usersByEmail[newEmail]; exists {
			return account.User{}, fmt.Errorf("email %s: %w", u.Email, storage.ErrConflict)
		}
		delete(s.usersByEmail, oldEmail)
		s.usersByEmail[newEmail] = u.ID
	}
	if u.ReferralCode != existing.ReferralCode {
		if u.ReferralCode != "" {
			if _, exists := s.usersByCode[u.ReferralCode]; exists {
				return account.User{}, fmt.Errorf("referral code %s: %w", u.ReferralCode, storage.ErrConflict)
			}
			s.usersByCode[u.ReferralCode] = u.ID
		}
		if existing.ReferralCode != "" {
			delete(s.usersByCode, existing.ReferralCode)
		}
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return account.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return account.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) GetUserByReferralCode(_ context.Context, code string) (account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByCode[strings.TrimSpace(code)]
	if !ok {
		return account.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) ListUsers(_ context.Context) ([]account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]account.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) IncrementEarnings(_ context.Context, id string, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.Balance += amount
	u.TotalEarnings += amount
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

func (s *Store) DebitBalance(_ context.Context, id string, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	if u.Balance < amount {
		return storage.ErrInsufficientBalance
	}
	u.Balance -= amount
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

// ClickStore implementation ---------------------------------------------------

func (s *Store) CreateClick(_ context.Context, rec click.Record) (click.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = s.nextIDLocked()
	} else if _, exists := s.clicks[rec.ID]; exists {
		return click.Record{}, fmt.Errorf("click id %s: %w", rec.ID, storage.ErrConflict)
	}
	rec.CreatedAt = time.Now().UTC()
	s.clicks[rec.ID] = rec
	return rec, nil
}

func (s *Store) GetClick(_ context.Context, id string) (click.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.clicks[id]
	if !ok {
		return click.Record{}, storage.ErrNotFound
	}
	return rec, nil
}

func (s *Store) ListClicks(_ context.Context, agentID string) ([]click.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]click.Record, 0, len(s.clicks))
	for _, rec := range s.clicks {
		if agentID != "" && rec.AgentID != agentID {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateClickRate(_ context.Context, id string, rate float64) (click.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.clicks[id]
	if !ok {
		return click.Record{}, storage.ErrNotFound
	}
	rec.CommissionRate = rate
	s.clicks[id] = rec
	return rec, nil
}

// TransactionStore implementation ---------------------------------------------

func (s *Store) CreateTransaction(_ context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == "" {
		tx.ID = s.nextIDLocked()
	} else if _, exists := s.transactions[tx.ID]; exists {
		return ledger.Transaction{}, fmt.Errorf("transaction id %s: %w", tx.ID, storage.ErrConflict)
	}
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	s.transactions[tx.ID] = tx
	return tx, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return ledger.Transaction{}, storage.ErrNotFound
	}
	return tx, nil
}

func (s *Store) GetTransactionByRef(_ context.Context, kind ledger.RefKind, refID string) (ledger.Transaction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tx := range s.transactions {
		if tx.RefKind == kind && tx.RefID == refID {
			return tx, true, nil
		}
	}
	return ledger.Transaction{}, false, nil
}

func (s *Store) ListTransactions(_ context.Context, agentID string) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ledger.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if agentID != "" && tx.AgentID != agentID {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListPendingTransactions(_ context.Context) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ledger.Transaction
	for _, tx := range s.transactions {
		if tx.Status == ledger.StatusPending {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateTransactionAmount(_ context.Context, id string, amount float64) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return ledger.Transaction{}, storage.ErrNotFound
	}
	if tx.Status != ledger.StatusPending {
		return ledger.Transaction{}, fmt.Errorf("transaction %s is %s: %w", id, tx.Status, storage.ErrConflict)
	}
	tx.Amount = amount
	tx.UpdatedAt = time.Now().UTC()
	s.transactions[id] = tx
	return tx, nil
}

func (s *Store) TransitionTransaction(_ context.Context, id string, from, to ledger.Status) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return ledger.Transaction{}, storage.ErrNotFound
	}
	if tx.Status != from {
		return ledger.Transaction{}, fmt.Errorf("transaction %s is %s, not %s: %w", id, tx.Status, from, storage.ErrConflict)
	}
	tx.Status = to
	tx.UpdatedAt = time.Now().UTC()
	s.transactions[id] = tx
	return tx, nil
}

// BannerStore implementation ----------------------------------------------------

func (s *Store) CreateBanner(_ context.Context, b banner.Banner) (banner.Banner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = s.nextIDLocked()
	} else if _, exists := s.banners[b.ID]; exists {
		return banner.Banner{}, fmt.Errorf("banner id %s: %w", b.ID, storage.ErrConflict)
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	s.banners[b.ID] = b
	return b, nil
}

func (s *Store) UpdateBanner(_ context.Context, b banner.Banner) (banner.Banner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.banners[b.ID]
	if !ok {
		return banner.Banner{}, storage.ErrNotFound
	}
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	s.banners[b.ID] = b
	return b, nil
}

func (s *Store) GetBanner(_ context.Context, id string) (banner.Banner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.banners[id]
	if !ok {
		return banner.Banner{}, storage.ErrNotFound
	}
	return b, nil
}

func (s *Store) DeleteBanner(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.banners[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.banners, id)
	return nil
}

func (s *Store) ListBanners(_ context.Context, activeOnly bool) ([]banner.Banner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]banner.Banner, 0, len(s.banners))
	for _, b := range s.banners {
		if activeOnly && !b.Active {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// WithdrawalStore implementation ------------------------------------------------

func (s *Store) CreateWithdrawal(_ context.Context, req withdrawal.Request) (withdrawal.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.ID == "" {
		req.ID = s.nextIDLocked()
	} else if _, exists := s.withdrawals[req.ID]; exists {
		return withdrawal.Request{}, fmt.Errorf("withdrawal id %s: %w", req.ID, storage.ErrConflict)
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	s.withdrawals[req.ID] = req
	return req, nil
}

func (s *Store) UpdateWithdrawal(_ context.Context, req withdrawal.Request) (withdrawal.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.withdrawals[req.ID]
	if !ok {
		return withdrawal.Request{}, storage.ErrNotFound
	}
	req.CreatedAt = existing.CreatedAt
	req.UpdatedAt = time.Now().UTC()
	s.withdrawals[req.ID] = req
	return req, nil
}

func (s *Store) GetWithdrawal(_ context.Context, id string) (withdrawal.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.withdrawals[id]
	if !ok {
		return withdrawal.Request{}, storage.ErrNotFound
	}
	return req, nil
}

func (s *Store) ListWithdrawals(_ context.Context, agentID string) ([]withdrawal.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]withdrawal.Request, 0, len(s.withdrawals))
	for _, req := range s.withdrawals {
		if agentID != "" && req.AgentID != agentID {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
