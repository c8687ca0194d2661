package category

import "time"

// Rule is an administratively managed category with its commission rate and
// the free-text keywords used to match incoming clicks.
type Rule struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	SearchIndex string    `json:"search_index"`
	Percent     int       `json:"percent"`
	Keywords    []string  `json:"keywords,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Fraction converts the stored whole-number percent into the commission
// fraction applied to prices.
func (r Rule) Fraction() float64 {
	if r.Percent <= 0 {
		return 0
	}
	return float64(r.Percent) / 100
}
