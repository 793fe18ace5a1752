package services

import (
	"testing"
	"time"

	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/testutil"
)

func TestCreateBudget(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, NewAuditService(db))
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		budget, err := svc.CreateBudget(user.ID, cat.ID, time.Date(2025, 4, 17, 9, 0, 0, 0, time.UTC), testutil.Amount("500.555"))
		testutil.AssertNoError(t, err)

		if budget.ID == "" {
			t.Fatal("expected budget ID to be set")
		}
		if !budget.Month.Equal(april) {
			t.Errorf("expected month normalised to %s, got %s", april, budget.Month)
		}
		if budget.Amount.String() != "500.56" {
			t.Errorf("expected amount rounded to 500.56, got %s", budget.Amount)
		}

		var audits int64
		db.Model(&models.AuditLog{}).Where("action = ? AND resource_id = ?", AuditCreateBudget, budget.ID).Count(&audits)
		if audits != 1 {
			t.Errorf("expected 1 audit entry, got %d", audits)
		}
	})

	t.Run("duplicate_category_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, NewAuditService(db))
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		_, err := svc.CreateBudget(user.ID, cat.ID, april, testutil.Amount("100"))
		testutil.AssertNoError(t, err)

		_, err = svc.CreateBudget(user.ID, cat.ID, april.AddDate(0, 0, 10), testutil.Amount("200"))
		testutil.AssertAppError(t, err, "DUPLICATE_BUDGET")

		_, err = svc.CreateBudget(user.ID, cat.ID, april.AddDate(0, 1, 0), testutil.Amount("200"))
		testutil.AssertNoError(t, err)
	})

	t.Run("income_category_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, NewAuditService(db))
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)

		_, err := svc.CreateBudget(user.ID, cat.ID, april, testutil.Amount("100"))
		testutil.AssertAppError(t, err, "CATEGORY_NOT_EXPENSE")
	})

	t.Run("non_positive_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, NewAuditService(db))
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		_, err := svc.CreateBudget(user.ID, cat.ID, april, testutil.Amount("0"))
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("wrong_user_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, NewAuditService(db))
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user2.ID, models.CategoryTypeExpense)

		_, err := svc.CreateBudget(user1.ID, cat.ID, april, testutil.Amount("100"))
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestGetUserBudgets(t *testing.T) {
	t.Run("returns_user_budgets_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, NewAuditService(db))
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		cat1 := testutil.CreateTestCategory(t, db, user1.ID, models.CategoryTypeExpense)
		cat2 := testutil.CreateTestCategory(t, db, user2.ID, models.CategoryTypeExpense)

		testutil.CreateTestBudget(t, db, user1.ID, cat1.ID, april, "100")
		testutil.CreateTestBudget(t, db, user1.ID, cat1.ID, april.AddDate(0, 1, 0), "100")
		testutil.CreateTestBudget(t, db, user2.ID, cat2.ID, april, "100")

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetUserBudgets(user1.ID, page)
		testutil.AssertNoError(t, err)

		if result.TotalItems != 2 {
			t.Errorf("expected 2 budgets, got %d", result.TotalItems)
		}
		if len(result.Data) == 2 && !result.Data[0].Month.After(result.Data[1].Month) {
			t.Error("expected newest month first")
		}
	})

	t.Run("pagination", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, NewAuditService(db))
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		for i := 0; i < 5; i++ {
			testutil.CreateTestBudget(t, db, user.ID, cat.ID, april.AddDate(0, i, 0), "100")
		}

		page := pagination.PageRequest{Page: 1, PageSize: 2}
		result, err := svc.GetUserBudgets(user.ID, page)
		testutil.AssertNoError(t, err)

		if result.TotalItems != 5 {
			t.Errorf("expected 5 total items, got %d", result.TotalItems)
		}
		if result.TotalPages != 3 {
			t.Errorf("expected 3 total pages, got %d", result.TotalPages)
		}
		if len(result.Data) != 2 {
			t.Errorf("expected 2 items on page, got %d", len(result.Data))
		}
	})
}

func TestGetBudgetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db, NewAuditService(db))
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	budget := testutil.CreateTestBudget(t, db, user.ID, cat.ID, april, "100")

	t.Run("found_with_category", func(t *testing.T) {
		found, err := svc.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if found.Category == nil || found.Category.ID != cat.ID {
			t.Error("expected category to be preloaded")
		}
	})

	t.Run("wrong_user", func(t *testing.T) {
		_, err := svc.GetBudgetByID(other.ID, budget.ID)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestGetBudgetsByMonth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db, NewAuditService(db))
	user := testutil.CreateTestUser(t, db)
	food := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	rent := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	testutil.CreateTestBudget(t, db, user.ID, food.ID, april, "100")
	testutil.CreateTestBudget(t, db, user.ID, rent.ID, april, "900")
	testutil.CreateTestBudget(t, db, user.ID, food.ID, april.AddDate(0, 1, 0), "100")

	budgets, err := svc.GetBudgetsByMonth(user.ID, april)
	testutil.AssertNoError(t, err)
	if len(budgets) != 2 {
		t.Errorf("expected 2 budgets in April, got %d", len(budgets))
	}

	empty, err := svc.GetBudgetsByMonth(user.ID, april.AddDate(1, 0, 0))
	testutil.AssertNoError(t, err)
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", empty)
	}
}

func TestDeleteBudget(t *testing.T) {
	t.Run("cascades_pending_updates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, NewAuditService(db))
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, cat.ID, april, "100")
		testutil.CreateTestPendingUpdate(t, db, budget, "150", time.Now())

		testutil.AssertNoError(t, svc.DeleteBudget(user.ID, budget.ID))

		var budgets, pending int64
		db.Model(&models.Budget{}).Count(&budgets)
		db.Model(&models.PendingBudgetUpdate{}).Count(&pending)
		if budgets != 0 || pending != 0 {
			t.Errorf("expected budget and pending updates removed, got %d budgets and %d pending", budgets, pending)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, NewAuditService(db))
		user := testutil.CreateTestUser(t, db)

		err := svc.DeleteBudget(user.ID, "0192f0c4-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}
