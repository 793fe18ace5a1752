package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tally/internal/models"
	"tally/internal/period"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Amount parses a decimal literal such as "850.00".
func Amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:     email,
		Password:  string(hash),
		FirstName: "Test",
		IsActive:  true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return CreateTestCategoryNamed(t, db, userID, fmt.Sprintf("Test Category %d", nextID()), categoryType)
}

// CreateTestCategoryNamed creates a category with the given name and type.
func CreateTestCategoryNamed(t *testing.T, db *gorm.DB, userID, name string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   name,
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestBudget creates a budget for the category in the month containing month.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, categoryID string, month time.Time, amount string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Month:      period.StartOfMonth(month),
		Amount:     Amount(amount),
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestMonthlyBudget creates an overall cap for the month containing month.
func CreateTestMonthlyBudget(t *testing.T, db *gorm.DB, userID string, month time.Time, amount string) *models.MonthlyBudget {
	t.Helper()

	mb := &models.MonthlyBudget{
		UserID: userID,
		Month:  period.StartOfMonth(month),
		Amount: Amount(amount),
	}
	if err := db.Create(mb).Error; err != nil {
		t.Fatalf("failed to create test monthly budget: %v", err)
	}
	return mb
}

// CreateTestExpense records an expense on the given day.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID, categoryID, amount string, date time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:     userID,
		CategoryID: categoryID,
		Title:      fmt.Sprintf("Test Expense %d", nextID()),
		Amount:     Amount(amount),
		Date:       period.Day(date),
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestIncome records an uncategorised income on the given day.
func CreateTestIncome(t *testing.T, db *gorm.DB, userID, amount string, date time.Time) *models.Income {
	t.Helper()

	income := &models.Income{
		UserID: userID,
		Title:  fmt.Sprintf("Test Income %d", nextID()),
		Amount: Amount(amount),
		Date:   period.Day(date),
	}
	if err := db.Create(income).Error; err != nil {
		t.Fatalf("failed to create test income: %v", err)
	}
	return income
}

// CreateTestPendingUpdate stores a pending update for budget created at createdAt.
func CreateTestPendingUpdate(t *testing.T, db *gorm.DB, budget *models.Budget, amount string, createdAt time.Time) *models.PendingBudgetUpdate {
	t.Helper()

	pending := &models.PendingBudgetUpdate{
		Base:           models.Base{CreatedAt: createdAt},
		UserID:         budget.UserID,
		BudgetID:       budget.ID,
		ProposedAmount: Amount(amount),
		Token:          fmt.Sprintf("%064d", nextID()),
	}
	if err := db.Create(pending).Error; err != nil {
		t.Fatalf("failed to create test pending update: %v", err)
	}
	return pending
}
