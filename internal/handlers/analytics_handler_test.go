package handlers

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"tally/internal/services"
)

// --- mock analytics service ---

type mockAnalyticsService struct {
	monthSummaryFn    func(userID string, month time.Time) ([]services.BudgetSummary, error)
	analyticsFn       func(userID string, month time.Time) (*services.Analytics, error)
	categorySummaryFn func(userID string, month time.Time) ([]services.CategoryTotal, error)
	monthlyTrendFn    func(userID string) ([]services.MonthTotal, error)
	incomeVsExpenseFn func(userID string) ([]services.IncomeExpensePoint, error)
	incomeSummaryFn   func(userID string, month time.Time) (*services.IncomeSummary, error)
}

var _ services.AnalyticsServicer = (*mockAnalyticsService)(nil)

func (m *mockAnalyticsService) MonthSummary(userID string, month time.Time) ([]services.BudgetSummary, error) {
	if m.monthSummaryFn != nil {
		return m.monthSummaryFn(userID, month)
	}
	return []services.BudgetSummary{}, nil
}

func (m *mockAnalyticsService) Analytics(userID string, month time.Time) (*services.Analytics, error) {
	if m.analyticsFn != nil {
		return m.analyticsFn(userID, month)
	}
	return &services.Analytics{}, nil
}

func (m *mockAnalyticsService) CategorySummary(userID string, month time.Time) ([]services.CategoryTotal, error) {
	if m.categorySummaryFn != nil {
		return m.categorySummaryFn(userID, month)
	}
	return []services.CategoryTotal{}, nil
}

func (m *mockAnalyticsService) MonthlyTrend(userID string) ([]services.MonthTotal, error) {
	if m.monthlyTrendFn != nil {
		return m.monthlyTrendFn(userID)
	}
	return []services.MonthTotal{}, nil
}

func (m *mockAnalyticsService) IncomeVsExpenseTrend(userID string) ([]services.IncomeExpensePoint, error) {
	if m.incomeVsExpenseFn != nil {
		return m.incomeVsExpenseFn(userID)
	}
	return []services.IncomeExpensePoint{}, nil
}

func (m *mockAnalyticsService) IncomeSummary(userID string, month time.Time) (*services.IncomeSummary, error) {
	if m.incomeSummaryFn != nil {
		return m.incomeSummaryFn(userID, month)
	}
	return &services.IncomeSummary{}, nil
}

func setupAnalyticsRouter(handler *AnalyticsHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/budgets/summary", handler.MonthSummary)
	auth.GET("/budgets/summary/export", handler.ExportMonthSummary)
	auth.GET("/budgets/analytics", handler.Analytics)
	auth.GET("/expenses/summary-by-category", handler.CategorySummary)
	auth.GET("/expenses/monthly-summary", handler.MonthlyTrend)
	auth.GET("/expenses/summary/income-vs-expense", handler.IncomeVsExpense)
	auth.GET("/incomes/summary", handler.IncomeSummary)
	return r
}

var aprilSummary = []services.BudgetSummary{
	{
		Category: "Food", Budget: 1000, Spent: 850, Remaining: 150, PercentageUsed: 85, Status: services.BudgetStatusNearLimit,
		BudgetAmount: decimal.RequireFromString("1000.00"), SpentAmount: decimal.RequireFromString("850.00"),
	},
	{
		Category: "Rent", Budget: 500.10, Spent: 600.20, Remaining: -100.10, PercentageUsed: 120.02, Status: services.BudgetStatusOverBudget,
		BudgetAmount: decimal.RequireFromString("500.10"), SpentAmount: decimal.RequireFromString("600.20"),
	},
}

func TestAnalyticsHandler_MonthSummary(t *testing.T) {
	t.Run("returns 200 with summary", func(t *testing.T) {
		var gotMonth time.Time
		svc := &mockAnalyticsService{
			monthSummaryFn: func(_ string, month time.Time) ([]services.BudgetSummary, error) {
				gotMonth = month
				return aprilSummary, nil
			},
		}
		r := setupAnalyticsRouter(NewAnalyticsHandler(svc))

		rec := doRequest(r, "GET", "/budgets/summary?month=2025-04", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotMonth.Month() != time.April || gotMonth.Year() != 2025 {
			t.Errorf("expected April 2025, got %s", gotMonth)
		}
	})

	t.Run("returns 400 without month", func(t *testing.T) {
		r := setupAnalyticsRouter(NewAnalyticsHandler(&mockAnalyticsService{}))

		rec := doRequest(r, "GET", "/budgets/summary", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_MONTH")
	})
}

func TestAnalyticsHandler_ExportMonthSummary(t *testing.T) {
	svc := &mockAnalyticsService{
		monthSummaryFn: func(_ string, _ time.Time) ([]services.BudgetSummary, error) {
			return aprilSummary, nil
		},
	}
	r := setupAnalyticsRouter(NewAnalyticsHandler(svc))

	rec := doRequest(r, "GET", "/budgets/summary/export?month=2025-04", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != xlsxMIME {
		t.Errorf("expected xlsx content type, got %s", ct)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a workbook: %v", err)
	}
	defer f.Close()

	cells := map[string]string{
		"A1": "Category",
		"A2": "Food",
		"F3": "over_budget",
		"A4": "Total Apr 2025",
		"B4": "1500.1",
		"C4": "1450.2",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue(summarySheet, cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", cell, err)
		}
		if got != want {
			t.Errorf("%s: expected %q, got %q", cell, want, got)
		}
	}
}

func TestAnalyticsHandler_Analytics(t *testing.T) {
	t.Run("defaults to the current month", func(t *testing.T) {
		var gotMonth time.Time
		svc := &mockAnalyticsService{
			analyticsFn: func(_ string, month time.Time) (*services.Analytics, error) {
				gotMonth = month
				return &services.Analytics{Month: month.Format("2006-01")}, nil
			},
		}
		r := setupAnalyticsRouter(NewAnalyticsHandler(svc))

		rec := doRequest(r, "GET", "/budgets/analytics", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		now := time.Now().UTC()
		if gotMonth.Year() != now.Year() || gotMonth.Month() != now.Month() || gotMonth.Day() != 1 {
			t.Errorf("expected first of current month, got %s", gotMonth)
		}
	})

	t.Run("returns 400 on bad month", func(t *testing.T) {
		r := setupAnalyticsRouter(NewAnalyticsHandler(&mockAnalyticsService{}))

		rec := doRequest(r, "GET", "/budgets/analytics?month=04-2025", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAnalyticsHandler_Trends(t *testing.T) {
	svc := &mockAnalyticsService{
		monthlyTrendFn: func(_ string) ([]services.MonthTotal, error) {
			return make([]services.MonthTotal, 6), nil
		},
		incomeVsExpenseFn: func(_ string) ([]services.IncomeExpensePoint, error) {
			return make([]services.IncomeExpensePoint, 6), nil
		},
	}
	r := setupAnalyticsRouter(NewAnalyticsHandler(svc))

	tests := []struct {
		name string
		path string
	}{
		{"monthly trend", "/expenses/monthly-summary"},
		{"income vs expense", "/expenses/summary/income-vs-expense"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(r, "GET", tt.path, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
		})
	}
}
