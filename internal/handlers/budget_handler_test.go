package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/services"
)

const testBudgetID = "0190a8c2-7a4e-7b1c-9f00-0000000000b1"

// --- mock budget services ---

type mockBudgetService struct {
	createBudgetFn      func(userID, categoryID string, month time.Time, amount decimal.Decimal) (*models.Budget, error)
	getUserBudgetsFn    func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	getBudgetByIDFn     func(userID, budgetID string) (*models.Budget, error)
	getBudgetsByMonthFn func(userID string, month time.Time) ([]models.Budget, error)
	deleteBudgetFn      func(userID, budgetID string) error
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

func (m *mockBudgetService) CreateBudget(userID, categoryID string, month time.Time, amount decimal.Decimal) (*models.Budget, error) {
	if m.createBudgetFn != nil {
		return m.createBudgetFn(userID, categoryID, month, amount)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) GetUserBudgets(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	if m.getUserBudgetsFn != nil {
		return m.getUserBudgetsFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.Budget{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockBudgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	if m.getBudgetByIDFn != nil {
		return m.getBudgetByIDFn(userID, budgetID)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) GetBudgetsByMonth(userID string, month time.Time) ([]models.Budget, error) {
	if m.getBudgetsByMonthFn != nil {
		return m.getBudgetsByMonthFn(userID, month)
	}
	return []models.Budget{}, nil
}

func (m *mockBudgetService) DeleteBudget(userID, budgetID string) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(userID, budgetID)
	}
	return nil
}

type mockBudgetUpdateService struct {
	proposeUpdateFn func(userID, budgetID string, amount decimal.Decimal, ipAddress string) (*models.PendingBudgetUpdate, error)
	confirmFn       func(token, ipAddress string) (*services.UpdateOutcome, error)
	rejectFn        func(token, ipAddress string) (*services.UpdateOutcome, error)
}

var _ services.BudgetUpdateServicer = (*mockBudgetUpdateService)(nil)

func (m *mockBudgetUpdateService) ProposeUpdate(userID, budgetID string, amount decimal.Decimal, ipAddress string) (*models.PendingBudgetUpdate, error) {
	if m.proposeUpdateFn != nil {
		return m.proposeUpdateFn(userID, budgetID, amount, ipAddress)
	}
	return &models.PendingBudgetUpdate{}, nil
}

func (m *mockBudgetUpdateService) Confirm(token, ipAddress string) (*services.UpdateOutcome, error) {
	if m.confirmFn != nil {
		return m.confirmFn(token, ipAddress)
	}
	return &services.UpdateOutcome{Status: services.UpdateStatusConfirmed}, nil
}

func (m *mockBudgetUpdateService) Reject(token, ipAddress string) (*services.UpdateOutcome, error) {
	if m.rejectFn != nil {
		return m.rejectFn(token, ipAddress)
	}
	return &services.UpdateOutcome{Status: services.UpdateStatusRejected}, nil
}

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/budgets", handler.CreateBudget)
	auth.GET("/budgets", handler.GetBudgets)
	auth.GET("/budgets/by-month", handler.GetBudgetsByMonth)
	auth.GET("/budgets/:id", handler.GetBudget)
	auth.PUT("/budgets/:id", handler.ProposeUpdate)
	auth.PATCH("/budgets/:id", handler.ProposeUpdate)
	auth.DELETE("/budgets/:id", handler.DeleteBudget)
	return r
}

func TestBudgetHandler_CreateBudget(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var gotMonth time.Time
		var gotAmount decimal.Decimal
		budgetSvc := &mockBudgetService{
			createBudgetFn: func(userID, categoryID string, month time.Time, amount decimal.Decimal) (*models.Budget, error) {
				gotMonth, gotAmount = month, amount
				return &models.Budget{
					Base:       models.Base{ID: testBudgetID},
					UserID:     userID,
					CategoryID: categoryID,
					Month:      month,
					Amount:     amount,
				}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockBudgetUpdateService{}))

		rec := doRequest(r, "POST", "/budgets",
			`{"category_id":"`+testCategoryID+`","month":"2025-04","amount":1000.50}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !gotMonth.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected April 2025, got %s", gotMonth)
		}
		if !gotAmount.Equal(decimal.RequireFromString("1000.50")) {
			t.Errorf("expected 1000.50, got %s", gotAmount)
		}
		budget := parseJSON(t, rec)["budget"].(map[string]interface{})
		if budget["id"] != testBudgetID {
			t.Errorf("expected id %s, got %v", testBudgetID, budget["id"])
		}
	})

	t.Run("returns 400 on malformed month", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockBudgetUpdateService{}))

		rec := doRequest(r, "POST", "/budgets",
			`{"category_id":"`+testCategoryID+`","month":"April","amount":100}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on missing amount", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockBudgetUpdateService{}))

		rec := doRequest(r, "POST", "/budgets", `{"category_id":"`+testCategoryID+`","month":"2025-04"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			createBudgetFn: func(_, _ string, _ time.Time, _ decimal.Decimal) (*models.Budget, error) {
				return nil, apperrors.ErrDuplicateBudget
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockBudgetUpdateService{}))

		rec := doRequest(r, "POST", "/budgets",
			`{"category_id":"`+testCategoryID+`","month":"2025-04","amount":100}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_BUDGET")
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockBudgetUpdateService{})
		r := gin.New()
		r.POST("/budgets", handler.CreateBudget)

		rec := doRequest(r, "POST", "/budgets", `{}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_GetBudgetsByMonth(t *testing.T) {
	t.Run("returns 200 with budgets", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			getBudgetsByMonthFn: func(_ string, month time.Time) ([]models.Budget, error) {
				return []models.Budget{{Base: models.Base{ID: testBudgetID}, Month: month}}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockBudgetUpdateService{}))

		rec := doRequest(r, "GET", "/budgets/by-month?month=2025-04", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 without month", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockBudgetUpdateService{}))

		rec := doRequest(r, "GET", "/budgets/by-month", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_MONTH")
	})

	t.Run("returns 400 on bad month", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockBudgetUpdateService{}))

		rec := doRequest(r, "GET", "/budgets/by-month?month=2025-13", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_MONTH")
	})
}

func TestBudgetHandler_GetBudget(t *testing.T) {
	t.Run("returns 404 when not found", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			getBudgetByIDFn: func(_, _ string) (*models.Budget, error) {
				return nil, apperrors.ErrBudgetNotFound
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockBudgetUpdateService{}))

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid ID", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockBudgetUpdateService{}))

		rec := doRequest(r, "GET", "/budgets/abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_ProposeUpdate(t *testing.T) {
	t.Run("returns 202 with token", func(t *testing.T) {
		var gotUser, gotBudget string
		var gotAmount decimal.Decimal
		updateSvc := &mockBudgetUpdateService{
			proposeUpdateFn: func(userID, budgetID string, amount decimal.Decimal, _ string) (*models.PendingBudgetUpdate, error) {
				gotUser, gotBudget, gotAmount = userID, budgetID, amount
				return &models.PendingBudgetUpdate{Token: "abc123", BudgetID: budgetID, ProposedAmount: amount}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, updateSvc))

		rec := doRequest(r, "PUT", "/budgets/"+testBudgetID, `{"amount":750}`)

		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["token"] != "abc123" {
			t.Errorf("expected token abc123, got %v", result["token"])
		}
		if result["message"] == "" {
			t.Error("expected a message")
		}
		if gotUser != testUserID || gotBudget != testBudgetID {
			t.Errorf("unexpected ids: user %s budget %s", gotUser, gotBudget)
		}
		if !gotAmount.Equal(decimal.NewFromInt(750)) {
			t.Errorf("expected 750, got %s", gotAmount)
		}
	})

	t.Run("accepts patch", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockBudgetUpdateService{}))

		rec := doRequest(r, "PATCH", "/budgets/"+testBudgetID, `{"amount":"12.34"}`)

		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on missing amount", func(t *testing.T) {
		called := false
		updateSvc := &mockBudgetUpdateService{
			proposeUpdateFn: func(_, _ string, _ decimal.Decimal, _ string) (*models.PendingBudgetUpdate, error) {
				called = true
				return &models.PendingBudgetUpdate{}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, updateSvc))

		rec := doRequest(r, "PUT", "/budgets/"+testBudgetID, `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		if called {
			t.Error("service must not be called without an amount")
		}
	})

	t.Run("returns 400 on non-positive amount", func(t *testing.T) {
		updateSvc := &mockBudgetUpdateService{
			proposeUpdateFn: func(_, _ string, _ decimal.Decimal, _ string) (*models.PendingBudgetUpdate, error) {
				return nil, apperrors.ErrInvalidAmount
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, updateSvc))

		rec := doRequest(r, "PUT", "/budgets/"+testBudgetID, `{"amount":-5}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_AMOUNT")
	})

	t.Run("returns 404 for a budget owned by someone else", func(t *testing.T) {
		updateSvc := &mockBudgetUpdateService{
			proposeUpdateFn: func(_, _ string, _ decimal.Decimal, _ string) (*models.PendingBudgetUpdate, error) {
				return nil, apperrors.ErrBudgetNotFound
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, updateSvc))

		rec := doRequest(r, "PUT", "/budgets/"+testBudgetID, `{"amount":10}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_DeleteBudget(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		var deleted string
		budgetSvc := &mockBudgetService{
			deleteBudgetFn: func(_, budgetID string) error {
				deleted = budgetID
				return nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockBudgetUpdateService{}))

		rec := doRequest(r, "DELETE", "/budgets/"+testBudgetID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if deleted != testBudgetID {
			t.Errorf("expected %s deleted, got %s", testBudgetID, deleted)
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			deleteBudgetFn: func(_, _ string) error { return apperrors.ErrBudgetNotFound },
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockBudgetUpdateService{}))

		rec := doRequest(r, "DELETE", "/budgets/"+testBudgetID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
