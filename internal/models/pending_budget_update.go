package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingUpdateTTL is how long a confirmation link stays valid.
const PendingUpdateTTL = 30 * time.Minute

// PendingBudgetUpdate is a proposed change to a Budget's amount that takes
// effect only once the emailed token is confirmed.
type PendingBudgetUpdate struct {
	Base
	UserID         string          `gorm:"type:uuid;not null;index" json:"user_id"`
	BudgetID       string          `gorm:"type:uuid;not null;index" json:"budget_id"`
	ProposedAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"proposed_amount"`
	Token          string          `gorm:"size:64;uniqueIndex;not null" json:"-"`
	IsConfirmed    bool            `gorm:"not null;default:false" json:"is_confirmed"`

	Budget *Budget `gorm:"foreignKey:BudgetID" json:"budget,omitempty"`
}

// ExpiresAt returns the instant after which the token can no longer be confirmed.
func (p *PendingBudgetUpdate) ExpiresAt() time.Time {
	return p.CreatedAt.Add(PendingUpdateTTL)
}

// IsExpired reports whether now is past the confirmation window.
func (p *PendingBudgetUpdate) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt())
}
