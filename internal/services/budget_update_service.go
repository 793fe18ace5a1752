package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/money"
	"tally/internal/notify"
	"tally/internal/period"
)

// tokenBytes is the amount of randomness in a confirmation token. The hex
// encoding is twice as long.
const tokenBytes = 32

// budgetUpdateService runs the pending budget update state machine. Budget
// amounts are only ever written by Confirm.
type budgetUpdateService struct {
	db       *gorm.DB
	notifier notify.Notifier
	audit    AuditServicer
	baseURL  string
	now      func() time.Time
}

// NewBudgetUpdateService creates a new BudgetUpdateServicer. baseURL is the
// public origin used to build the emailed confirm and reject links.
func NewBudgetUpdateService(db *gorm.DB, notifier notify.Notifier, audit AuditServicer, baseURL string) BudgetUpdateServicer {
	return &budgetUpdateService{
		db:       db,
		notifier: notifier,
		audit:    audit,
		baseURL:  baseURL,
		now:      time.Now,
	}
}

// ProposeUpdate records a pending change to the budget's amount and emails
// the owner a confirmation link. The budget itself is not modified.
func (s *budgetUpdateService) ProposeUpdate(userID, budgetID string, amount decimal.Decimal, ipAddress string) (*models.PendingBudgetUpdate, error) {
	if !amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	token, err := newToken()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	pending := &models.PendingBudgetUpdate{
		Base:           models.Base{CreatedAt: s.now().UTC()},
		UserID:         userID,
		BudgetID:       budget.ID,
		ProposedAmount: money.Round(amount),
		Token:          token,
	}
	if err := s.db.Create(pending).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.sendConfirmation(&user, &budget, pending)

	s.audit.Log(userID, AuditProposeBudgetUpdate, "budget", budget.ID, ipAddress, map[string]interface{}{
		"pending_update_id": pending.ID,
		"from":              budget.Amount.StringFixed(money.Places),
		"to":                pending.ProposedAmount.StringFixed(money.Places),
	})

	return pending, nil
}

func (s *budgetUpdateService) sendConfirmation(user *models.User, budget *models.Budget, pending *models.PendingBudgetUpdate) {
	categoryName := ""
	if budget.Category != nil {
		categoryName = budget.Category.Name
	}

	msg, err := notify.BudgetUpdateEmail{
		To:             user.Email,
		Name:           user.DisplayName(),
		Category:       categoryName,
		Month:          period.Name(budget.Month),
		ProposedAmount: pending.ProposedAmount.StringFixed(money.Places),
		ConfirmURL:     s.actionURL("confirm", pending.Token),
		RejectURL:      s.actionURL("reject", pending.Token),
	}.Message()
	if err != nil {
		logger.Get().Errorw("failed to render budget update email",
			"pending_update_id", pending.ID,
			"error", err,
		)
		return
	}

	s.notifier.Notify(context.Background(), msg)
}

func (s *budgetUpdateService) actionURL(action, token string) string {
	return fmt.Sprintf("%s/api/v1/budget-updates/%s/%s", s.baseURL, action, token)
}

// Confirm applies the pending update identified by token. Confirming twice
// succeeds without touching the budget again. An expired update is deleted
// and reported as expired.
func (s *budgetUpdateService) Confirm(token, ipAddress string) (*UpdateOutcome, error) {
	pending, err := s.findByToken(token)
	if err != nil {
		return nil, err
	}

	if pending.IsConfirmed {
		return &UpdateOutcome{Status: UpdateStatusAlreadyConfirmed, BudgetID: pending.BudgetID, Amount: pending.ProposedAmount}, nil
	}

	if pending.IsExpired(s.now()) {
		if err := s.db.Delete(pending).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil, apperrors.ErrPendingUpdateExpired
	}

	applied := true
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// The guard on is_confirmed serialises concurrent confirms of one token.
		res := tx.Model(&models.PendingBudgetUpdate{}).
			Where("id = ? AND is_confirmed = ?", pending.ID, false).
			Update("is_confirmed", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Either a concurrent confirm won, or the row was removed by a
			// reject or a sibling's confirm.
			var confirmed int64
			if err := tx.Model(&models.PendingBudgetUpdate{}).
				Where("id = ? AND is_confirmed = ?", pending.ID, true).
				Count(&confirmed).Error; err != nil {
				return err
			}
			if confirmed == 0 {
				return apperrors.ErrPendingUpdateNotFound
			}
			applied = false
			return nil
		}

		res = tx.Model(&models.Budget{}).
			Where("id = ?", pending.BudgetID).
			Update("amount", pending.ProposedAmount)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrBudgetNotFound
		}

		return tx.Where("budget_id = ? AND id <> ? AND is_confirmed = ?", pending.BudgetID, pending.ID, false).
			Delete(&models.PendingBudgetUpdate{}).Error
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrBudgetNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		if errors.Is(err, apperrors.ErrPendingUpdateNotFound) {
			return nil, apperrors.ErrPendingUpdateNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !applied {
		return &UpdateOutcome{Status: UpdateStatusAlreadyConfirmed, BudgetID: pending.BudgetID, Amount: pending.ProposedAmount}, nil
	}

	s.audit.Log(pending.UserID, AuditConfirmBudgetUpdate, "budget", pending.BudgetID, ipAddress, map[string]interface{}{
		"pending_update_id": pending.ID,
		"amount":            pending.ProposedAmount.StringFixed(money.Places),
	})

	return &UpdateOutcome{Status: UpdateStatusConfirmed, BudgetID: pending.BudgetID, Amount: pending.ProposedAmount}, nil
}

// Reject deletes the pending update identified by token. A confirmed update
// keeps its applied amount; the rejection is recorded in the audit log.
func (s *budgetUpdateService) Reject(token, ipAddress string) (*UpdateOutcome, error) {
	pending, err := s.findByToken(token)
	if err != nil {
		return nil, err
	}

	res := s.db.Delete(pending)
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrPendingUpdateNotFound
	}

	action := AuditRejectBudgetUpdate
	if pending.IsConfirmed {
		action = AuditRejectAppliedBudgetUpdate
	}
	s.audit.Log(pending.UserID, action, "budget", pending.BudgetID, ipAddress, map[string]interface{}{
		"pending_update_id": pending.ID,
		"amount":            pending.ProposedAmount.StringFixed(money.Places),
		"was_confirmed":     pending.IsConfirmed,
	})

	return &UpdateOutcome{Status: UpdateStatusRejected, BudgetID: pending.BudgetID, Amount: pending.ProposedAmount}, nil
}

func (s *budgetUpdateService) findByToken(token string) (*models.PendingBudgetUpdate, error) {
	if len(token) != 2*tokenBytes {
		return nil, apperrors.ErrPendingUpdateNotFound
	}

	var pending models.PendingBudgetUpdate
	if err := s.db.Where("token = ?", token).First(&pending).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPendingUpdateNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &pending, nil
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
