package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tally/internal/models"
	"tally/internal/money"
	"tally/internal/period"
)

// Aggregate queries over the ledger and budget tables. Every sum is computed
// by the database over the NUMERIC columns and rounded after the scan.

// scanSum runs a single COALESCE(SUM(...)) query.
func scanSum(query *gorm.DB) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := query.Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return money.Round(total), nil
}

// inMonth restricts column to [month, next month).
func inMonth(db *gorm.DB, column string, month time.Time) *gorm.DB {
	start := period.StartOfMonth(month)
	return db.Where(column+" >= ? AND "+column+" < ?", start, period.NextMonth(start))
}

// sumExpenses totals a user's expenses in month, for one category when
// categoryID is not empty.
func sumExpenses(db *gorm.DB, userID, categoryID string, month time.Time) (decimal.Decimal, error) {
	q := db.Model(&models.Expense{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID)
	if categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}
	return scanSum(inMonth(q, "date", month))
}

// sumIncomes totals a user's incomes in month.
func sumIncomes(db *gorm.DB, userID string, month time.Time) (decimal.Decimal, error) {
	q := db.Model(&models.Income{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID)
	return scanSum(inMonth(q, "date", month))
}

// sumBudgets totals a user's category budgets for month.
func sumBudgets(db *gorm.DB, userID string, month time.Time) (decimal.Decimal, error) {
	q := db.Model(&models.Budget{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND month = ?", userID, period.StartOfMonth(month))
	return scanSum(q)
}

type categoryTotalRow struct {
	CategoryID string
	Name       string
	Total      decimal.Decimal
}

// expenseTotalsByCategory returns the non-empty expense totals for month,
// largest first.
func expenseTotalsByCategory(db *gorm.DB, userID string, month time.Time) ([]categoryTotalRow, error) {
	q := db.Table("expenses").
		Select("expenses.category_id AS category_id, categories.name AS name, COALESCE(SUM(expenses.amount), 0) AS total").
		Joins("JOIN categories ON categories.id = expenses.category_id").
		Where("expenses.user_id = ?", userID)

	var rows []categoryTotalRow
	if err := inMonth(q, "expenses.date", month).
		Group("expenses.category_id, categories.name").
		Order("total DESC, categories.name ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Total = money.Round(rows[i].Total)
	}
	return rows, nil
}

// spentByCategory indexes expenseTotalsByCategory by category ID.
func spentByCategory(db *gorm.DB, userID string, month time.Time) (map[string]decimal.Decimal, error) {
	rows, err := expenseTotalsByCategory(db, userID, month)
	if err != nil {
		return nil, err
	}
	spent := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		spent[r.CategoryID] = r.Total
	}
	return spent, nil
}
