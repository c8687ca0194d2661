package click

import "time"

// Record captures a single tracked product click. Records are immutable after
// creation except for administrative override of CommissionRate.
type Record struct {
	ID             string    `json:"id"`
	ASIN           string    `json:"asin"`
	ProductName    string    `json:"product_name"`
	InputCategory  string    `json:"input_category,omitempty"`
	Price          float64   `json:"price"`
	Category       string    `json:"category"`
	CommissionRate float64   `json:"commission_rate"`
	AgentID        string    `json:"agent_id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Uncategorized is the canonical category assigned when no rule matches.
const Uncategorized = "Uncategorized"
