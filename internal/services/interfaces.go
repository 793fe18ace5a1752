package services

import (
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/models"
	"tally/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType) (*models.Category, error)
	GetUserCategories(userID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
}

// BudgetServicer defines the contract for per-category budget storage.
// Amounts change only through BudgetUpdateServicer.
type BudgetServicer interface {
	CreateBudget(userID, categoryID string, month time.Time, amount decimal.Decimal) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	GetBudgetsByMonth(userID string, month time.Time) ([]models.Budget, error)
	DeleteBudget(userID, budgetID string) error
}

// MonthlyBudgetServicer defines the contract for overall monthly caps.
type MonthlyBudgetServicer interface {
	CreateMonthlyBudget(userID string, month time.Time, amount decimal.Decimal) (*models.MonthlyBudget, error)
	GetMonthlyBudgets(userID string, month *time.Time) ([]models.MonthlyBudget, error)
	UpdateMonthlyBudget(userID, monthlyBudgetID string, amount decimal.Decimal) (*models.MonthlyBudget, error)
	DeleteMonthlyBudget(userID, monthlyBudgetID string) error
}

// UpdateStatus is the outcome of resolving a pending budget update.
type UpdateStatus string

const (
	UpdateStatusConfirmed        UpdateStatus = "confirmed"
	UpdateStatusAlreadyConfirmed UpdateStatus = "already_confirmed"
	UpdateStatusRejected         UpdateStatus = "rejected"
)

// UpdateOutcome describes what Confirm or Reject did.
type UpdateOutcome struct {
	Status   UpdateStatus    `json:"status"`
	BudgetID string          `json:"budget_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// BudgetUpdateServicer governs the propose, confirm and reject lifecycle of
// pending budget updates. Confirm and Reject are authorised by the token alone.
type BudgetUpdateServicer interface {
	ProposeUpdate(userID, budgetID string, amount decimal.Decimal, ipAddress string) (*models.PendingBudgetUpdate, error)
	Confirm(token, ipAddress string) (*UpdateOutcome, error)
	Reject(token, ipAddress string) (*UpdateOutcome, error)
}

// BudgetStatus classifies spending against a budget.
type BudgetStatus string

const (
	BudgetStatusPerfectMatch BudgetStatus = "perfect_match"
	BudgetStatusOverBudget   BudgetStatus = "over_budget"
	BudgetStatusNearLimit    BudgetStatus = "near_limit"
	BudgetStatusUnderBudget  BudgetStatus = "under_budget"
)

// BudgetSummary compares one budget with what was spent against it.
type BudgetSummary struct {
	BudgetID       string       `json:"budget_id"`
	CategoryID     string       `json:"category_id"`
	Category       string       `json:"category"`
	Month          string       `json:"month"`
	Budget         float64      `json:"budget"`
	Spent          float64      `json:"spent"`
	Remaining      float64      `json:"remaining"`
	PercentageUsed float64      `json:"percentage_used"`
	Status         BudgetStatus `json:"status"`

	// Exact amounts behind Budget and Spent, for callers that keep totalling.
	BudgetAmount decimal.Decimal `json:"-"`
	SpentAmount  decimal.Decimal `json:"-"`
}

// OverBudgetCategory is a category whose spending passed its budget.
type OverBudgetCategory struct {
	Category string  `json:"category"`
	Budget   float64 `json:"budget"`
	Spent    float64 `json:"spent"`
	Excess   float64 `json:"excess"`
}

// Analytics is the dashboard roll-up for one month.
type Analytics struct {
	Month                   string               `json:"month"`
	TotalBudget             float64              `json:"total_budget"`
	TotalSpent              float64              `json:"total_spent"`
	TotalIncome             float64              `json:"total_income"`
	Savings                 float64              `json:"savings"`
	MonthlyCap              *float64             `json:"monthly_cap"`
	TopOverBudgetCategories []OverBudgetCategory `json:"top_over_budget_categories"`
}

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	CategoryID string  `json:"category_id"`
	Category   string  `json:"category"`
	Total      float64 `json:"total"`
}

// MonthTotal is one point of the monthly expense trend.
type MonthTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// IncomeExpensePoint is one point of the income against expense trend.
type IncomeExpensePoint struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// IncomeSummary is the income received in one month.
type IncomeSummary struct {
	Month       string  `json:"month"`
	TotalIncome float64 `json:"total_income"`
}

// AnalyticsServicer defines the read-only spend against budget reports.
type AnalyticsServicer interface {
	MonthSummary(userID string, month time.Time) ([]BudgetSummary, error)
	Analytics(userID string, month time.Time) (*Analytics, error)
	CategorySummary(userID string, month time.Time) ([]CategoryTotal, error)
	MonthlyTrend(userID string) ([]MonthTotal, error)
	IncomeVsExpenseTrend(userID string) ([]IncomeExpensePoint, error)
	IncomeSummary(userID string, month time.Time) (*IncomeSummary, error)
}

// AlertServicer checks a newly stored expense against its budget.
type AlertServicer interface {
	AlertOnExpenseCreate(expense *models.Expense)
}

// LedgerFilter holds optional filters for listing expenses and incomes.
type LedgerFilter struct {
	Month      *time.Time
	CategoryID *string
}

// LedgerServicer defines the contract for expense and income records.
type LedgerServicer interface {
	CreateExpense(userID, categoryID, title string, amount decimal.Decimal, date time.Time, notes string) (*models.Expense, error)
	GetUserExpenses(userID string, filter LedgerFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	DeleteExpense(userID, expenseID string) error
	CreateIncome(userID string, categoryID *string, title string, amount decimal.Decimal, date time.Time, notes string) (*models.Income, error)
	GetUserIncomes(userID string, filter LedgerFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Income], error)
	DeleteIncome(userID, incomeID string) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
