// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/linkcart/affiliate_backend/internal/app/domain/account"
	"github.com/linkcart/affiliate_backend/internal/app/domain/banner"
	"github.com/linkcart/affiliate_backend/internal/app/domain/category"
	"github.com/linkcart/affiliate_backend/internal/app/domain/click"
	"github.com/linkcart/affiliate_backend/internal/app/domain/ledger"
	"github.com/linkcart/affiliate_backend/internal/app/domain/withdrawal"
	"github.com/linkcart/affiliate_backend/internal/app/storage"
)

// Store implements the storage interfaces on a *sql.DB.
type Store struct {
	db *sql.DB
}

var _ storage.CategoryStore = (*Store)(nil)
var _ storage.UserStore = (*Store)(nil)
var _ storage.ClickStore = (*Store)(nil)
var _ storage.TransactionStore = (*Store)(nil)
var _ storage.BannerStore = (*Store)(nil)
var _ storage.WithdrawalStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// translateErr maps driver errors to storage sentinels.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return storage.ErrConflict
	}
	return err
}

// --- CategoryStore -----------------------------------------------------------

func (s *Store) CreateCategory(ctx context.Context, rule category.Rule) (category.Rule, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, search_index, percent, keywords, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rule.ID, rule.Name, rule.SearchIndex, rule.Percent, pq.Array(rule.Keywords), rule.Active, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return category.Rule{}, translateErr(err)
	}
	return rule, nil
}

func (s *Store) UpdateCategory(ctx context.Context, rule category.Rule) (category.Rule, error) {
	rule.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET name = $2, search_index = $3, percent = $4, keywords = $5, active = $6, updated_at = $7
		WHERE id = $1
	`, rule.ID, rule.Name, rule.SearchIndex, rule.Percent, pq.Array(rule.Keywords), rule.Active, rule.UpdatedAt)
	if err != nil {
		return category.Rule{}, translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return category.Rule{}, storage.ErrNotFound
	}
	return s.GetCategory(ctx, rule.ID)
}

func (s *Store) GetCategory(ctx context.Context, id string) (category.Rule, error) {
	return s.scanCategory(s.db.QueryRowContext(ctx, `
		SELECT id, name, search_index, percent, keywords, active, created_at, updated_at
		FROM categories WHERE id = $1
	`, id))
}

func (s *Store) scanCategory(row *sql.Row) (category.Rule, error) {
	var rule category.Rule
	var keywords pq.StringArray
	err := row.Scan(&rule.ID, &rule.Name, &rule.SearchIndex, &rule.Percent, &keywords, &rule.Active, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return category.Rule{}, translateErr(err)
	}
	rule.Keywords = []string(keywords)
	return rule, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]category.Rule, error) {
	return s.queryCategories(ctx, `
		SELECT id, name, search_index, percent, keywords, active, created_at, updated_at
		FROM categories ORDER BY name
	`)
}

func (s *Store) ListActiveCategories(ctx context.Context) ([]category.Rule, error) {
	return s.queryCategories(ctx, `
		SELECT id, name, search_index, percent, keywords, active, created_at, updated_at
		FROM categories WHERE active ORDER BY name
	`)
}

func (s *Store) queryCategories(ctx context.Context, query string, args ...interface{}) ([]category.Rule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var out []category.Rule
	for rows.Next() {
		var rule category.Rule
		var keywords pq.StringArray
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.SearchIndex, &rule.Percent, &keywords, &rule.Active, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, err
		}
		rule.Keywords = []string(keywords)
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (s *Store) FindCategoryByText(ctx context.Context, text string) (category.Rule, bool, error) {
	rule, err := s.scanCategory(s.db.QueryRowContext(ctx, `
		SELECT id, name, search_index, percent, keywords, active, created_at, updated_at
		FROM categories
		WHERE lower(name) = lower($1)
		   OR lower(search_index) = lower($1)
		   OR EXISTS (
			SELECT 1 FROM unnest(keywords) AS kw WHERE lower(trim(kw)) = lower(trim($1))
		   )
		ORDER BY name
		LIMIT 1
	`, text))
	if errors.Is(err, storage.ErrNotFound) {
		return category.Rule{}, false, nil
	}
	if err != nil {
		return category.Rule{}, false, err
	}
	return rule, true, nil
}

// --- UserStore ----------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u account.User) (account.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, referral_code, referrer_id, balance, total_earnings, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, $11)
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.ReferralCode, u.ReferrerID, u.Balance, u.TotalEarnings, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return account.User{}, translateErr(err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u account.User) (account.User, error) {
	u.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET email = lower($2), password_hash = $3, name = $4, role = $5,
		    referral_code = NULLIF($6, ''), referrer_id = NULLIF($7, ''), updated_at = $8
		WHERE id = $1
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.ReferralCode, u.ReferrerID, u.UpdatedAt)
	if err != nil {
		return account.User{}, translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return account.User{}, storage.ErrNotFound
	}
	return s.GetUser(ctx, u.ID)
}

const userColumns = `id, email, password_hash, name, role,
	COALESCE(referral_code, ''), COALESCE(referrer_id, ''), balance, total_earnings, created_at, updated_at`

func (s *Store) scanUser(row *sql.Row) (account.User, error) {
	var u account.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role,
		&u.ReferralCode, &u.ReferrerID, &u.Balance, &u.TotalEarnings, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return account.User{}, translateErr(err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (account.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (account.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = lower($1)`, email))
}

func (s *Store) GetUserByReferralCode(ctx context.Context, code string) (account.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code))
}

func (s *Store) ListUsers(ctx context.Context) ([]account.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var out []account.User
	for rows.Next() {
		var u account.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role,
			&u.ReferralCode, &u.ReferrerID, &u.Balance, &u.TotalEarnings, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) IncrementEarnings(ctx context.Context, id string, amount float64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET balance = balance + $2, total_earnings = total_earnings + $2, updated_at = now()
		WHERE id = $1
	`, id, amount)
	if err != nil {
		return translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DebitBalance(ctx context.Context, id string, amount float64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET balance = balance - $2, updated_at = now()
		WHERE id = $1 AND balance >= $2
	`, id, amount)
	if err != nil {
		return translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, err := s.GetUser(ctx, id); err != nil {
			return err
		}
		return storage.ErrInsufficientBalance
	}
	return nil
}

// --- ClickStore -----------------------------------------------------------------

func (s *Store) CreateClick(ctx context.Context, rec click.Record) (click.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clicks (id, asin, product_name, input_category, price, category, commission_rate, agent_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), $10)
	`, rec.ID, rec.ASIN, rec.ProductName, rec.InputCategory, rec.Price, rec.Category, rec.CommissionRate, rec.AgentID, rec.UserID, rec.CreatedAt)
	if err != nil {
		return click.Record{}, translateErr(err)
	}
	return rec, nil
}

const clickColumns = `id, asin, product_name, COALESCE(input_category, ''), price, category,
	commission_rate, COALESCE(agent_id, ''), COALESCE(user_id, ''), created_at`

func (s *Store) GetClick(ctx context.Context, id string) (click.Record, error) {
	var rec click.Record
	err := s.db.QueryRowContext(ctx, `SELECT `+clickColumns+` FROM clicks WHERE id = $1`, id).
		Scan(&rec.ID, &rec.ASIN, &rec.ProductName, &rec.InputCategory, &rec.Price, &rec.Category,
			&rec.CommissionRate, &rec.AgentID, &rec.UserID, &rec.CreatedAt)
	if err != nil {
		return click.Record{}, translateErr(err)
	}
	return rec, nil
}

func (s *Store) ListClicks(ctx context.Context, agentID string) ([]click.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+clickColumns+` FROM clicks
		WHERE $1 = '' OR agent_id = $1
		ORDER BY created_at
	`, agentID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var out []click.Record
	for rows.Next() {
		var rec click.Record
		if err := rows.Scan(&rec.ID, &rec.ASIN, &rec.ProductName, &rec.InputCategory, &rec.Price, &rec.Category,
			&rec.CommissionRate, &rec.AgentID, &rec.UserID, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) UpdateClickRate(ctx context.Context, id string, rate float64) (click.Record, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE clicks SET commission_rate = $2 WHERE id = $1`, id, rate)
	if err != nil {
		return click.Record{}, translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return click.Record{}, storage.ErrNotFound
	}
	return s.GetClick(ctx, id)
}

// --- TransactionStore -------------------------------------------------------------

func (s *Store) CreateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, agent_id, type, amount, status, description, ref_id, ref_kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10)
	`, tx.ID, tx.AgentID, tx.Type, tx.Amount, tx.Status, tx.Description, tx.RefID, string(tx.RefKind), tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		return ledger.Transaction{}, translateErr(err)
	}
	return tx, nil
}

const txColumns = `id, agent_id, type, amount, status, COALESCE(description, ''),
	COALESCE(ref_id, ''), COALESCE(ref_kind, ''), created_at, updated_at`

func scanTx(scanner interface {
	Scan(dest ...interface{}) error
}) (ledger.Transaction, error) {
	var tx ledger.Transaction
	err := scanner.Scan(&tx.ID, &tx.AgentID, &tx.Type, &tx.Amount, &tx.Status, &tx.Description,
		&tx.RefID, &tx.RefKind, &tx.CreatedAt, &tx.UpdatedAt)
	return tx, err
}

func (s *Store) GetTransaction(ctx context.Context, id string) (ledger.Transaction, error) {
	tx, err := scanTx(s.db.QueryRowContext(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		return ledger.Transaction{}, translateErr(err)
	}
	return tx, nil
}

func (s *Store) GetTransactionByRef(ctx context.Context, kind ledger.RefKind, refID string) (ledger.Transaction, bool, error) {
	tx, err := scanTx(s.db.QueryRowContext(ctx, `
		SELECT `+txColumns+` FROM transactions WHERE ref_kind = $1 AND ref_id = $2
		ORDER BY created_at DESC LIMIT 1
	`, string(kind), refID))
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Transaction{}, false, nil
	}
	if err != nil {
		return ledger.Transaction{}, false, translateErr(err)
	}
	return tx, true, nil
}

func (s *Store) ListTransactions(ctx context.Context, agentID string) ([]ledger.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE $1 = '' OR agent_id = $1
		ORDER BY created_at
	`, agentID)
}

func (s *Store) ListPendingTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+txColumns+` FROM transactions WHERE status = 'pending' ORDER BY created_at
	`)
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		tx, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTransactionAmount(ctx context.Context, id string, amount float64) (ledger.Transaction, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET amount = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, amount)
	if err != nil {
		return ledger.Transaction{}, translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, err := s.GetTransaction(ctx, id); err != nil {
			return ledger.Transaction{}, err
		}
		return ledger.Transaction{}, storage.ErrConflict
	}
	return s.GetTransaction(ctx, id)
}

func (s *Store) TransitionTransaction(ctx context.Context, id string, from, to ledger.Status) (ledger.Transaction, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to))
	if err != nil {
		return ledger.Transaction{}, translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, err := s.GetTransaction(ctx, id); err != nil {
			return ledger.Transaction{}, err
		}
		return ledger.Transaction{}, storage.ErrConflict
	}
	return s.GetTransaction(ctx, id)
}

// --- BannerStore ---------------------------------------------------------------

func (s *Store) CreateBanner(ctx context.Context, b banner.Banner) (banner.Banner, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO banners (id, title, image_url, target_url, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, b.ID, b.Title, b.ImageURL, b.TargetURL, b.Active, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return banner.Banner{}, translateErr(err)
	}
	return b, nil
}

func (s *Store) UpdateBanner(ctx context.Context, b banner.Banner) (banner.Banner, error) {
	b.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE banners SET title = $2, image_url = $3, target_url = $4, active = $5, updated_at = $6
		WHERE id = $1
	`, b.ID, b.Title, b.ImageURL, b.TargetURL, b.Active, b.UpdatedAt)
	if err != nil {
		return banner.Banner{}, translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return banner.Banner{}, storage.ErrNotFound
	}
	return s.GetBanner(ctx, b.ID)
}

func (s *Store) GetBanner(ctx context.Context, id string) (banner.Banner, error) {
	var b banner.Banner
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, image_url, COALESCE(target_url, ''), active, created_at, updated_at
		FROM banners WHERE id = $1
	`, id).Scan(&b.ID, &b.Title, &b.ImageURL, &b.TargetURL, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return banner.Banner{}, translateErr(err)
	}
	return b, nil
}

func (s *Store) DeleteBanner(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		return translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListBanners(ctx context.Context, activeOnly bool) ([]banner.Banner, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, image_url, COALESCE(target_url, ''), active, created_at, updated_at
		FROM banners
		WHERE NOT $1 OR active
		ORDER BY created_at
	`, activeOnly)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var out []banner.Banner
	for rows.Next() {
		var b banner.Banner
		if err := rows.Scan(&b.ID, &b.Title, &b.ImageURL, &b.TargetURL, &b.Active, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// --- WithdrawalStore -------------------------------------------------------------

func (s *Store) CreateWithdrawal(ctx context.Context, req withdrawal.Request) (withdrawal.Request, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO withdrawals (id, agent_id, amount, method, details, status, transaction_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9)
	`, req.ID, req.AgentID, req.Amount, req.Method, req.Details, req.Status, req.TransactionID, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return withdrawal.Request{}, translateErr(err)
	}
	return req, nil
}

func (s *Store) UpdateWithdrawal(ctx context.Context, req withdrawal.Request) (withdrawal.Request, error) {
	req.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE withdrawals SET amount = $2, method = $3, details = $4, status = $5,
			transaction_id = NULLIF($6, ''), updated_at = $7
		WHERE id = $1
	`, req.ID, req.Amount, req.Method, req.Details, req.Status, req.TransactionID, req.UpdatedAt)
	if err != nil {
		return withdrawal.Request{}, translateErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return withdrawal.Request{}, storage.ErrNotFound
	}
	return s.GetWithdrawal(ctx, req.ID)
}

func (s *Store) GetWithdrawal(ctx context.Context, id string) (withdrawal.Request, error) {
	var req withdrawal.Request
	err := s.db.QueryRowContext(ctx, `
		SELECT id, agent_id, amount, method, COALESCE(details, ''), status, COALESCE(transaction_id, ''), created_at, updated_at
		FROM withdrawals WHERE id = $1
	`, id).Scan(&req.ID, &req.AgentID, &req.Amount, &req.Method, &req.Details, &req.Status, &req.TransactionID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return withdrawal.Request{}, translateErr(err)
	}
	return req, nil
}

func (s *Store) ListWithdrawals(ctx context.Context, agentID string) ([]withdrawal.Request, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent_id, amount, method, COALESCE(details, ''), status, COALESCE(transaction_id, ''), created_at, updated_at
		FROM withdrawals
		WHERE $1 = '' OR agent_id = $1
		ORDER BY created_at
	`, agentID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var out []withdrawal.Request
	for rows.Next() {
		var req withdrawal.Request
		if err := rows.Scan(&req.ID, &req.AgentID, &req.Amount, &req.Method, &req.Details, &req.Status, &req.TransactionID, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
