package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tally/internal/services"
)

// BudgetUpdateHandler resolves pending budget updates from emailed links.
// Its routes are public: possession of the token is the authorisation.
type BudgetUpdateHandler struct {
	updateService services.BudgetUpdateServicer
}

// NewBudgetUpdateHandler creates a new BudgetUpdateHandler.
func NewBudgetUpdateHandler(updateService services.BudgetUpdateServicer) *BudgetUpdateHandler {
	return &BudgetUpdateHandler{updateService: updateService}
}

// UpdateOutcomeResponse reports how a confirmation link was resolved.
type UpdateOutcomeResponse struct {
	Message string                `json:"message"`
	Status  services.UpdateStatus `json:"status"`
}

var outcomeMessages = map[services.UpdateStatus]string{
	services.UpdateStatusConfirmed:        "Budget update confirmed",
	services.UpdateStatusAlreadyConfirmed: "Budget update was already confirmed",
	services.UpdateStatusRejected:         "Budget update rejected",
}

// Confirm applies a pending budget update.
// @Summary     Confirm a budget update
// @Tags        budget-updates
// @Produce     json
// @Param       token path string true "Confirmation token"
// @Success     200 {object} UpdateOutcomeResponse "Update applied or already applied"
// @Failure     400 {object} ErrorResponse "Link expired"
// @Failure     404 {object} ErrorResponse "Unknown token"
// @Failure     429 {object} ErrorResponse "Too many requests"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-updates/confirm/{token} [get]
func (h *BudgetUpdateHandler) Confirm(c *gin.Context) {
	outcome, err := h.updateService.Confirm(c.Param("token"), c.ClientIP())
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.respond(c, outcome)
}

// Reject discards a pending budget update.
// @Summary     Reject a budget update
// @Tags        budget-updates
// @Produce     json
// @Param       token path string true "Confirmation token"
// @Success     200 {object} UpdateOutcomeResponse "Update discarded"
// @Failure     404 {object} ErrorResponse "Unknown token"
// @Failure     429 {object} ErrorResponse "Too many requests"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-updates/reject/{token} [get]
func (h *BudgetUpdateHandler) Reject(c *gin.Context) {
	outcome, err := h.updateService.Reject(c.Param("token"), c.ClientIP())
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.respond(c, outcome)
}

func (h *BudgetUpdateHandler) respond(c *gin.Context, outcome *services.UpdateOutcome) {
	c.JSON(http.StatusOK, UpdateOutcomeResponse{
		Message: outcomeMessages[outcome.Status],
		Status:  outcome.Status,
	})
}
