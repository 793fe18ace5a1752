package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a user's spending cap for one expense category in one month.
// Month always holds the first day of the month at 00:00 UTC.
type Budget struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;uniqueIndex:idx_budgets_user_category_month" json:"user_id"`
	CategoryID string          `gorm:"type:uuid;not null;uniqueIndex:idx_budgets_user_category_month" json:"category_id"`
	Month      time.Time       `gorm:"type:date;not null;uniqueIndex:idx_budgets_user_category_month" json:"month"`
	Amount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// MonthlyBudget is a user's overall spending cap for one month across all
// categories. It is reported alongside analytics and never enforced.
type MonthlyBudget struct {
	Base
	UserID string          `gorm:"type:uuid;not null;uniqueIndex:idx_monthly_budgets_user_month" json:"user_id"`
	Month  time.Time       `gorm:"type:date;not null;uniqueIndex:idx_monthly_budgets_user_month" json:"month"`
	Amount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
}
