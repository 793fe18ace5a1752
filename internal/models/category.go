package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category groups expenses or incomes for a user. Budgets may only
// reference expense categories.
type Category struct {
	Base
	UserID string       `gorm:"type:uuid;not null;uniqueIndex:idx_categories_user_name_type" json:"user_id"`
	Name   string       `gorm:"not null;uniqueIndex:idx_categories_user_name_type" json:"name"`
	Type   CategoryType `gorm:"not null;uniqueIndex:idx_categories_user_name_type" json:"type"`
}
