package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/money"
	"tally/internal/period"
)

// monthlyBudgetService handles the overall monthly caps.
type monthlyBudgetService struct {
	db *gorm.DB
}

// NewMonthlyBudgetService creates a new MonthlyBudgetServicer.
func NewMonthlyBudgetService(db *gorm.DB) MonthlyBudgetServicer {
	return &monthlyBudgetService{db: db}
}

// CreateMonthlyBudget sets the cap for the month containing month.
func (s *monthlyBudgetService) CreateMonthlyBudget(userID string, month time.Time, amount decimal.Decimal) (*models.MonthlyBudget, error) {
	if !amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	month = period.StartOfMonth(month)

	var count int64
	if err := s.db.Model(&models.MonthlyBudget{}).
		Where("user_id = ? AND month = ?", userID, month).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateMonthlyBudget
	}

	mb := &models.MonthlyBudget{
		UserID: userID,
		Month:  month,
		Amount: money.Round(amount),
	}
	if err := s.db.Create(mb).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return mb, nil
}

// GetMonthlyBudgets lists the user's caps, newest first, optionally for one month.
func (s *monthlyBudgetService) GetMonthlyBudgets(userID string, month *time.Time) ([]models.MonthlyBudget, error) {
	q := s.db.Where("user_id = ?", userID)
	if month != nil {
		q = q.Where("month = ?", period.StartOfMonth(*month))
	}

	caps := []models.MonthlyBudget{}
	if err := q.Order("month DESC").Find(&caps).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return caps, nil
}

// UpdateMonthlyBudget changes a cap's amount directly.
func (s *monthlyBudgetService) UpdateMonthlyBudget(userID, monthlyBudgetID string, amount decimal.Decimal) (*models.MonthlyBudget, error) {
	if !amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	mb, err := s.get(userID, monthlyBudgetID)
	if err != nil {
		return nil, err
	}

	amount = money.Round(amount)
	if err := s.db.Model(mb).Update("amount", amount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	mb.Amount = amount
	return mb, nil
}

// DeleteMonthlyBudget removes a cap.
func (s *monthlyBudgetService) DeleteMonthlyBudget(userID, monthlyBudgetID string) error {
	mb, err := s.get(userID, monthlyBudgetID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(mb).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *monthlyBudgetService) get(userID, monthlyBudgetID string) (*models.MonthlyBudget, error) {
	var mb models.MonthlyBudget
	if err := s.db.Where("id = ? AND user_id = ?", monthlyBudgetID, userID).First(&mb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMonthlyBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &mb, nil
}

// monthlyCap returns the user's cap for month, or nil when none is set.
func monthlyCap(db *gorm.DB, userID string, month time.Time) (*decimal.Decimal, error) {
	var mb models.MonthlyBudget
	err := db.Where("user_id = ? AND month = ?", userID, period.StartOfMonth(month)).First(&mb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	amount := money.Round(mb.Amount)
	return &amount, nil
}
