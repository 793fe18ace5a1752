package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is money spent by a user in an expense category.
type Expense struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;index:idx_expenses_user_category_date" json:"user_id"`
	CategoryID string          `gorm:"type:uuid;not null;index:idx_expenses_user_category_date" json:"category_id"`
	Title      string          `gorm:"not null" json:"title"`
	Amount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Date       time.Time       `gorm:"type:date;not null;index:idx_expenses_user_category_date" json:"date"`
	Notes      string          `json:"notes"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// Income is money received by a user. The category is optional.
type Income struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;index:idx_incomes_user_date" json:"user_id"`
	CategoryID *string         `gorm:"type:uuid" json:"category_id,omitempty"`
	Title      string          `gorm:"not null" json:"title"`
	Amount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Date       time.Time       `gorm:"type:date;not null;index:idx_incomes_user_date" json:"date"`
	Notes      string          `json:"notes"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
