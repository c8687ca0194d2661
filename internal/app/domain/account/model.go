package account

import "time"

// Role is the coarse permission level attached to a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// User represents a storefront account. Agents additionally carry a referral
// code and a running commission balance.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	ReferralCode  string    `json:"referral_code,omitempty"`
	ReferrerID    string    `json:"referrer_id,omitempty"`
	Balance       float64   `json:"balance"`
	TotalEarnings float64   `json:"total_earnings"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CanSelfAttribute reports whether a click by this user credits the user
// directly. Agents and admins earn commission on their own link traffic.
func (u User) CanSelfAttribute() bool {
	return u.Role == RoleAgent || u.Role == RoleAdmin
}
