package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/money"
	"tally/internal/notify"
	"tally/internal/period"
)

// alertService emails a user when an expense pushes a budget past its
// near-limit threshold or over its amount.
type alertService struct {
	db       *gorm.DB
	notifier notify.Notifier
}

// NewAlertService creates a new AlertServicer.
func NewAlertService(db *gorm.DB, notifier notify.Notifier) AlertServicer {
	return &alertService{db: db, notifier: notifier}
}

// AlertOnExpenseCreate compares the month's spending in the expense's
// category with its budget and sends at most one alert. It never fails the
// caller; problems are logged.
func (s *alertService) AlertOnExpenseCreate(expense *models.Expense) {
	log := logger.Get().With("expense_id", expense.ID, "user_id", expense.UserID)
	month := period.StartOfMonth(expense.Date)

	var budget models.Budget
	err := s.db.Preload("Category").
		Where("user_id = ? AND category_id = ? AND month = ?", expense.UserID, expense.CategoryID, month).
		First(&budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return
	}
	if err != nil {
		log.Errorw("failed to load budget for alert", "error", err)
		return
	}

	spent, err := sumExpenses(s.db, expense.UserID, expense.CategoryID, month)
	if err != nil {
		log.Errorw("failed to sum expenses for alert", "error", err)
		return
	}

	overspent := spent.GreaterThan(budget.Amount)
	if !overspent && !money.NearLimit(spent, budget.Amount) {
		return
	}

	var user models.User
	if err := s.db.Where("id = ?", expense.UserID).First(&user).Error; err != nil {
		log.Errorw("failed to load user for alert", "error", err)
		return
	}

	categoryName := ""
	if budget.Category != nil {
		categoryName = budget.Category.Name
	}

	msg, err := notify.BudgetAlertEmail{
		To:        user.Email,
		Name:      user.DisplayName(),
		Category:  categoryName,
		Month:     period.Name(month),
		Spent:     spent.StringFixed(money.Places),
		Amount:    budget.Amount.StringFixed(money.Places),
		Overspent: overspent,
	}.Message()
	if err != nil {
		log.Errorw("failed to render budget alert", "error", err)
		return
	}

	s.notifier.Notify(context.Background(), msg)
}
