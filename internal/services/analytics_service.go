package services

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/money"
	"tally/internal/period"
)

// topOverBudget is how many over-budget categories Analytics reports.
const topOverBudget = 3

// analyticsService computes spend against budget reports. It never writes.
type analyticsService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(db *gorm.DB) AnalyticsServicer {
	return &analyticsService{db: db, now: time.Now}
}

// classify picks the status band for spent against amount. The checks run in
// a fixed order so exactly one band applies.
func classify(spent, amount decimal.Decimal) BudgetStatus {
	switch {
	case spent.Equal(amount):
		return BudgetStatusPerfectMatch
	case spent.GreaterThan(amount):
		return BudgetStatusOverBudget
	case money.NearLimit(spent, amount):
		return BudgetStatusNearLimit
	default:
		return BudgetStatusUnderBudget
	}
}

// MonthSummary reports each of the month's budgets with its spending.
func (s *analyticsService) MonthSummary(userID string, month time.Time) ([]BudgetSummary, error) {
	month = period.StartOfMonth(month)

	budgets, err := s.budgetsFor(userID, month)
	if err != nil {
		return nil, err
	}
	spent, err := spentByCategory(s.db, userID, month)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summaries := make([]BudgetSummary, 0, len(budgets))
	for _, b := range budgets {
		amount := money.Round(b.Amount)
		used := spent[b.CategoryID]

		summary := BudgetSummary{
			BudgetID:       b.ID,
			CategoryID:     b.CategoryID,
			Month:          month.Format(period.MonthLayout),
			Budget:         money.Float(amount),
			Spent:          money.Float(used),
			Remaining:      money.Float(amount.Sub(used)),
			PercentageUsed: money.Float(money.Percentage(used, amount)),
			Status:         classify(used, amount),
			BudgetAmount:   amount,
			SpentAmount:    money.Round(used),
		}
		if b.Category != nil {
			summary.Category = b.Category.Name
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Analytics rolls up the month's budgets, spending and income.
func (s *analyticsService) Analytics(userID string, month time.Time) (*Analytics, error) {
	month = period.StartOfMonth(month)

	totalBudget, err := sumBudgets(s.db, userID, month)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	totalSpent, err := sumExpenses(s.db, userID, "", month)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	totalIncome, err := sumIncomes(s.db, userID, month)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	capAmount, err := monthlyCap(s.db, userID, month)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	over, err := s.overBudget(userID, month)
	if err != nil {
		return nil, err
	}

	result := &Analytics{
		Month:                   month.Format(period.MonthLayout),
		TotalBudget:             money.Float(totalBudget),
		TotalSpent:              money.Float(totalSpent),
		TotalIncome:             money.Float(totalIncome),
		Savings:                 money.Float(totalIncome.Sub(totalSpent)),
		TopOverBudgetCategories: over,
	}
	if capAmount != nil {
		c := money.Float(*capAmount)
		result.MonthlyCap = &c
	}
	return result, nil
}

// overBudget returns the categories that exceeded their budget, largest
// excess first. Equal excesses keep budget creation order.
func (s *analyticsService) overBudget(userID string, month time.Time) ([]OverBudgetCategory, error) {
	budgets, err := s.budgetsFor(userID, month)
	if err != nil {
		return nil, err
	}
	spent, err := spentByCategory(s.db, userID, month)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	type entry struct {
		name          string
		amount, spent decimal.Decimal
		excess        decimal.Decimal
	}
	var entries []entry
	for _, b := range budgets {
		used := spent[b.CategoryID]
		if !used.GreaterThan(b.Amount) {
			continue
		}
		e := entry{amount: b.Amount, spent: used, excess: used.Sub(b.Amount)}
		if b.Category != nil {
			e.name = b.Category.Name
		}
		entries = append(entries, e)
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		return b.excess.Cmp(a.excess)
	})
	if len(entries) > topOverBudget {
		entries = entries[:topOverBudget]
	}

	result := make([]OverBudgetCategory, 0, len(entries))
	for _, e := range entries {
		result = append(result, OverBudgetCategory{
			Category: e.name,
			Budget:   money.Float(e.amount),
			Spent:    money.Float(e.spent),
			Excess:   money.Float(e.excess),
		})
	}
	return result, nil
}

// CategorySummary totals the month's expenses per category.
func (s *analyticsService) CategorySummary(userID string, month time.Time) ([]CategoryTotal, error) {
	rows, err := expenseTotalsByCategory(s.db, userID, month)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := make([]CategoryTotal, 0, len(rows))
	for _, r := range rows {
		totals = append(totals, CategoryTotal{
			CategoryID: r.CategoryID,
			Category:   r.Name,
			Total:      money.Float(r.Total),
		})
	}
	return totals, nil
}

// MonthlyTrend totals expenses for each of the trailing six months, oldest
// first. Months without expenses report zero.
func (s *analyticsService) MonthlyTrend(userID string) ([]MonthTotal, error) {
	months := period.Trailing(s.now(), period.TrendMonths)

	trend := make([]MonthTotal, 0, len(months))
	for _, m := range months {
		total, err := sumExpenses(s.db, userID, "", m)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		trend = append(trend, MonthTotal{Month: period.Label(m), Total: money.Float(total)})
	}

	sortByLabel(trend, func(p MonthTotal) string { return p.Month })
	return trend, nil
}

// IncomeVsExpenseTrend totals incomes and expenses for each of the trailing
// six months, oldest first.
func (s *analyticsService) IncomeVsExpenseTrend(userID string) ([]IncomeExpensePoint, error) {
	months := period.Trailing(s.now(), period.TrendMonths)

	trend := make([]IncomeExpensePoint, 0, len(months))
	for _, m := range months {
		income, err := sumIncomes(s.db, userID, m)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		expense, err := sumExpenses(s.db, userID, "", m)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		trend = append(trend, IncomeExpensePoint{
			Month:   period.Label(m),
			Income:  money.Float(income),
			Expense: money.Float(expense),
		})
	}

	sortByLabel(trend, func(p IncomeExpensePoint) string { return p.Month })
	return trend, nil
}

// IncomeSummary totals the month's income.
func (s *analyticsService) IncomeSummary(userID string, month time.Time) (*IncomeSummary, error) {
	month = period.StartOfMonth(month)
	total, err := sumIncomes(s.db, userID, month)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &IncomeSummary{Month: month.Format(period.MonthLayout), TotalIncome: money.Float(total)}, nil
}

func (s *analyticsService) budgetsFor(userID string, month time.Time) ([]models.Budget, error) {
	var budgets []models.Budget
	if err := s.db.Preload("Category").
		Where("user_id = ? AND month = ?", userID, month).
		Order("created_at ASC, id ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// sortByLabel orders trend points chronologically by parsing their "Jan 2006"
// labels. Labels are produced by period.Label, so parsing cannot fail.
func sortByLabel[T any](points []T, label func(T) string) {
	slices.SortStableFunc(points, func(a, b T) int {
		ta, _ := period.ParseLabel(label(a))
		tb, _ := period.ParseLabel(label(b))
		return ta.Compare(tb)
	})
}
