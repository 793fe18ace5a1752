package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/money"
	"tally/internal/pagination"
	"tally/internal/period"
)

// ledgerService stores expenses and incomes.
type ledgerService struct {
	db     *gorm.DB
	alerts AlertServicer
	now    func() time.Time
}

// NewLedgerService creates a new LedgerServicer. Every stored expense is
// passed to alerts once it is committed.
func NewLedgerService(db *gorm.DB, alerts AlertServicer) LedgerServicer {
	return &ledgerService{db: db, alerts: alerts, now: time.Now}
}

// CreateExpense records an expense in one of the user's expense categories.
// A zero date means today.
func (s *ledgerService) CreateExpense(userID, categoryID, title string, amount decimal.Decimal, date time.Time, notes string) (*models.Expense, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title is required")
	}
	if !amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	category, err := findCategory(s.db, userID, categoryID)
	if err != nil {
		return nil, err
	}
	if category.Type != models.CategoryTypeExpense {
		return nil, apperrors.ErrCategoryNotExpense
	}

	expense := &models.Expense{
		UserID:     userID,
		CategoryID: categoryID,
		Title:      title,
		Amount:     money.Round(amount),
		Date:       s.day(date),
		Notes:      notes,
	}
	if err := s.db.Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	expense.Category = category

	s.alerts.AlertOnExpenseCreate(expense)

	return expense, nil
}

// GetUserExpenses lists expenses newest first.
func (s *ledgerService) GetUserExpenses(userID string, filter LedgerFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	base := s.filtered(s.db.Model(&models.Expense{}), userID, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := base.Preload("Category").
		Order("date DESC, created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// DeleteExpense removes one of the user's expenses.
func (s *ledgerService) DeleteExpense(userID, expenseID string) error {
	res := s.db.Where("id = ? AND user_id = ?", expenseID, userID).Delete(&models.Expense{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrExpenseNotFound
	}
	return nil
}

// CreateIncome records an income, optionally in one of the user's income
// categories. A zero date means today.
func (s *ledgerService) CreateIncome(userID string, categoryID *string, title string, amount decimal.Decimal, date time.Time, notes string) (*models.Income, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title is required")
	}
	if !amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	var category *models.Category
	if categoryID != nil && *categoryID != "" {
		c, err := findCategory(s.db, userID, *categoryID)
		if err != nil {
			return nil, err
		}
		if c.Type != models.CategoryTypeIncome {
			return nil, apperrors.ErrCategoryNotIncome
		}
		category = c
	} else {
		categoryID = nil
	}

	income := &models.Income{
		UserID:     userID,
		CategoryID: categoryID,
		Title:      title,
		Amount:     money.Round(amount),
		Date:       s.day(date),
		Notes:      notes,
	}
	if err := s.db.Create(income).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	income.Category = category

	return income, nil
}

// GetUserIncomes lists incomes newest first.
func (s *ledgerService) GetUserIncomes(userID string, filter LedgerFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Income], error) {
	page.Defaults()

	base := s.filtered(s.db.Model(&models.Income{}), userID, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var incomes []models.Income
	if err := base.Preload("Category").
		Order("date DESC, created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&incomes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(incomes, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// DeleteIncome removes one of the user's incomes.
func (s *ledgerService) DeleteIncome(userID, incomeID string) error {
	var income models.Income
	if err := s.db.Where("id = ? AND user_id = ?", incomeID, userID).First(&income).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrIncomeNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Delete(&income).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *ledgerService) filtered(q *gorm.DB, userID string, filter LedgerFilter) *gorm.DB {
	q = q.Where("user_id = ?", userID)
	if filter.Month != nil {
		q = inMonth(q, "date", *filter.Month)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	return q
}

func (s *ledgerService) day(date time.Time) time.Time {
	if date.IsZero() {
		return period.Day(s.now())
	}
	return period.Day(date)
}
