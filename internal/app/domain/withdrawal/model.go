package withdrawal

import "time"

// Status is the withdrawal request lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request is an agent's request to pay out accumulated balance. The linked
// ledger transaction is referenced by id.
type Request struct {
	ID            string    `json:"id"`
	AgentID       string    `json:"agent_id"`
	Amount        float64   `json:"amount"`
	Method        string    `json:"method"`
	Details       string    `json:"details,omitempty"`
	Status        Status    `json:"status"`
	TransactionID string    `json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
