package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "tally/internal/errors"
	"tally/internal/period"
	"tally/internal/services"
)

// MonthlyBudgetHandler handles overall monthly spending caps.
type MonthlyBudgetHandler struct {
	monthlyBudgetService services.MonthlyBudgetServicer
}

// NewMonthlyBudgetHandler creates a new MonthlyBudgetHandler.
func NewMonthlyBudgetHandler(monthlyBudgetService services.MonthlyBudgetServicer) *MonthlyBudgetHandler {
	return &MonthlyBudgetHandler{monthlyBudgetService: monthlyBudgetService}
}

// CreateMonthlyBudgetRequest represents the payload for a new monthly cap.
type CreateMonthlyBudgetRequest struct {
	Month  string           `json:"month" binding:"required,year_month" example:"2025-04"`
	Amount *decimal.Decimal `json:"amount" binding:"required" swaggertype:"number"`
}

// UpdateMonthlyBudgetRequest represents the payload for changing a monthly cap.
type UpdateMonthlyBudgetRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required" swaggertype:"number"`
}

// CreateMonthlyBudget handles the creation of a monthly cap.
// @Summary     Create a monthly budget
// @Tags        monthly-budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateMonthlyBudgetRequest true "Monthly cap"
// @Success     201 {object} models.MonthlyBudget "Monthly budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Monthly budget already exists"
// @Router      /budgets/monthly [post]
func (h *MonthlyBudgetHandler) CreateMonthlyBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateMonthlyBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	month, err := period.ParseMonth(req.Month)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidMonth)
		return
	}

	mb, err := h.monthlyBudgetService.CreateMonthlyBudget(userID, month, *req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"monthly_budget": mb})
}

// GetMonthlyBudgets lists monthly caps, optionally for a single month.
// @Summary     Get monthly budgets
// @Tags        monthly-budgets
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month (YYYY-MM)"
// @Success     200 {array}  models.MonthlyBudget "Monthly budgets"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets/monthly [get]
func (h *MonthlyBudgetHandler) GetMonthlyBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, err := parseMonthFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	caps, err := h.monthlyBudgetService.GetMonthlyBudgets(userID, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, caps)
}

// UpdateMonthlyBudget changes the amount of a monthly cap.
// @Summary     Update a monthly budget
// @Tags        monthly-budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                     true "Monthly budget ID"
// @Param       request body UpdateMonthlyBudgetRequest true "New amount"
// @Success     200 {object} models.MonthlyBudget "Updated monthly budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Monthly budget not found"
// @Router      /budgets/monthly/{id} [put]
func (h *MonthlyBudgetHandler) UpdateMonthlyBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateMonthlyBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	mb, err := h.monthlyBudgetService.UpdateMonthlyBudget(userID, id, *req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"monthly_budget": mb})
}

// DeleteMonthlyBudget removes a monthly cap.
// @Summary     Delete a monthly budget
// @Tags        monthly-budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Monthly budget ID"
// @Success     200 {object} MessageResponse "Monthly budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Monthly budget not found"
// @Router      /budgets/monthly/{id} [delete]
func (h *MonthlyBudgetHandler) DeleteMonthlyBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.monthlyBudgetService.DeleteMonthlyBudget(userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Monthly budget deleted successfully"})
}
