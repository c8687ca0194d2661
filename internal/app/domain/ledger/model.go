package ledger

import "time"

// Type discriminates what a transaction represents.
type Type string

const (
	TypeEarnings   Type = "earnings"
	TypePayout     Type = "payout"
	TypeAdjustment Type = "adjustment"
)

// Status is the transaction lifecycle state. Only pending transactions may
// transition; completed and failed are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// RefKind discriminates what a transaction back-references.
type RefKind string

const (
	RefClick      RefKind = "click"
	RefWithdrawal RefKind = "withdrawal"
)

// Transaction is a commission ledger entry. The originating click or
// withdrawal is referenced by id plus discriminator, never embedded.
type Transaction struct {
	ID          string    `json:"id"`
	AgentID     string    `json:"agent_id"`
	Type        Type      `json:"type"`
	Amount      float64   `json:"amount"`
	Status      Status    `json:"status"`
	Description string    `json:"description,omitempty"`
	RefID       string    `json:"ref_id,omitempty"`
	RefKind     RefKind   `json:"ref_kind,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
