package core

import "github.com/shopspring/decimal"

// PeriodSummary holds the income and expense totals of the viewed period.
type PeriodSummary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Balance is income minus expense.
func (p PeriodSummary) Balance() decimal.Decimal {
	return p.Income.Sub(p.Expense)
}

// TrendPoint is one bucket of a trend series.
type TrendPoint struct {
	Label   string          `json:"label"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// CategorySlice is the total of one category with its chart color.
type CategorySlice struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
	Color Color           `json:"color"`
}

// Report is everything the dashboard needs for one view.
type Report struct {
	View              ViewState       `json:"view"`
	Summary           PeriodSummary   `json:"summary"`
	Balance           decimal.Decimal `json:"balance"`
	Years             []int           `json:"years"`
	MonthlyTrend      []TrendPoint    `json:"monthly_trend"`
	YearlyTrend       []TrendPoint    `json:"yearly_trend"`
	ExpenseCategories []CategorySlice `json:"expense_categories"`
	IncomeCategories  []CategorySlice `json:"income_categories"`
	AvgMonthlyIncome  decimal.Decimal `json:"avg_monthly_income"`
	AvgMonthlyExpense decimal.Decimal `json:"avg_monthly_expense"`
	SavingsRate       decimal.Decimal `json:"savings_rate"`
}

// Trend is the series shown for the current view mode.
func (r Report) Trend() []TrendPoint {
	if r.View.Mode == ModeTotal {
		return r.YearlyTrend
	}
	return r.MonthlyTrend
}
