package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/money"
	"tally/internal/pagination"
	"tally/internal/period"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db    *gorm.DB
	audit AuditServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, audit AuditServicer) BudgetServicer {
	return &budgetService{db: db, audit: audit}
}

// CreateBudget creates a budget for an expense category in the month
// containing month.
func (s *budgetService) CreateBudget(userID, categoryID string, month time.Time, amount decimal.Decimal) (*models.Budget, error) {
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

	month = period.StartOfMonth(month)

	var count int64
	if err := s.db.Model(&models.Budget{}).
		Where("user_id = ? AND category_id = ? AND month = ?", userID, categoryID, month).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateBudget
	}

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Month:      month,
		Amount:     money.Round(amount),
		Category:   category,
	}
	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Log(userID, AuditCreateBudget, "budget", budget.ID, "", map[string]interface{}{
		"category_id": categoryID,
		"month":       month.Format(period.MonthLayout),
		"amount":      budget.Amount.StringFixed(money.Places),
	})

	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets for the user, newest
// month first.
func (s *budgetService) GetUserBudgets(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").
		Order("month DESC, created_at ASC").
		Scopes(pagination.Paginate(page)).
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// GetBudgetsByMonth returns every budget the user set for month.
func (s *budgetService) GetBudgetsByMonth(userID string, month time.Time) ([]models.Budget, error) {
	budgets := []models.Budget{}
	if err := s.db.Preload("Category").
		Where("user_id = ? AND month = ?", userID, period.StartOfMonth(month)).
		Order("created_at ASC, id ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// DeleteBudget removes a budget together with its pending updates.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("budget_id = ?", budget.ID).Delete(&models.PendingBudgetUpdate{}).Error; err != nil {
			return err
		}
		return tx.Delete(budget).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Log(userID, AuditDeleteBudget, "budget", budget.ID, "", nil)
	return nil
}
