package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tally/internal/errors"
	"tally/internal/period"
	"tally/internal/services"
)

// AnalyticsHandler serves the read-only spending reports.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServicer
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService services.AnalyticsServicer) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// MonthSummary compares every budget of a month with its spending.
// @Summary     Budget summary for a month
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       month query string true "Month (YYYY-MM)"
// @Success     200 {array}  services.BudgetSummary "Per-budget summary"
// @Failure     400 {object} ErrorResponse "Missing or invalid month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/summary [get]
func (h *AnalyticsHandler) MonthSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, err := parseMonthQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.analyticsService.MonthSummary(userID, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ExportMonthSummary streams the month summary as an xlsx workbook.
// @Summary     Export budget summary
// @Tags        analytics
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       month query string true "Month (YYYY-MM)"
// @Success     200 {file}   file "Workbook"
// @Failure     400 {object} ErrorResponse "Missing or invalid month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/summary/export [get]
func (h *AnalyticsHandler) ExportMonthSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, err := parseMonthQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.analyticsService.MonthSummary(userID, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	f, err := summaryWorkbook(month, summary)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("budget-summary-%s.xlsx", month.Format(period.MonthLayout))
	c.Header("Content-Type", xlsxMIME)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

// Analytics returns the dashboard roll-up for a month.
// @Summary     Budget analytics
// @Description Totals, savings, monthly cap and the three categories furthest over budget. Defaults to the current month.
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month (YYYY-MM)"
// @Success     200 {object} services.Analytics "Analytics"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/analytics [get]
func (h *AnalyticsHandler) Analytics(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, err := parseOptionalMonthQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	analytics, err := h.analyticsService.Analytics(userID, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

// CategorySummary totals expenses per category for a month.
// @Summary     Expenses by category
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month (YYYY-MM), defaults to the current month"
// @Success     200 {array}  services.CategoryTotal "Totals, largest first"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /expenses/summary-by-category [get]
func (h *AnalyticsHandler) CategorySummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, err := parseOptionalMonthQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.analyticsService.CategorySummary(userID, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, totals)
}

// MonthlyTrend returns total expenses for the last six months.
// @Summary     Monthly expense trend
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  services.MonthTotal "Six months, oldest first"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /expenses/monthly-summary [get]
func (h *AnalyticsHandler) MonthlyTrend(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	trend, err := h.analyticsService.MonthlyTrend(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, trend)
}

// IncomeVsExpense returns income and expense totals for the last six months.
// @Summary     Income against expense trend
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  services.IncomeExpensePoint "Six months, oldest first"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /expenses/summary/income-vs-expense [get]
func (h *AnalyticsHandler) IncomeVsExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	trend, err := h.analyticsService.IncomeVsExpenseTrend(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, trend)
}

// IncomeSummary totals income for a month.
// @Summary     Income summary
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month (YYYY-MM), defaults to the current month"
// @Success     200 {object} services.IncomeSummary "Income total"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /incomes/summary [get]
func (h *AnalyticsHandler) IncomeSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, err := parseOptionalMonthQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.analyticsService.IncomeSummary(userID, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
