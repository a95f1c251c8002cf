// Package report turns loaded transaction lists into the dashboard
// aggregates: period totals, trend series, category breakdowns and the
// derived averages and savings rate.
//
// Every function is pure. The current time is passed in so that results
// only depend on their arguments.
package report

import (
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"budgetly/internal/core"
)

var (
	monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	hundred     = decimal.NewFromInt(100)
)

// Summary totals income and expense over the viewed period. In monthly mode
// on the current year the period is the current month, otherwise it is the
// whole selected year.
func Summary(expenses, income []core.Transaction, view core.ViewState, now time.Time) core.PeriodSummary {
	match := func(t core.Transaction) bool { return t.Date.Year() == view.SelectedYear }
	if view.IsCurrentMonth(now) {
		month := int(now.Month())
		match = func(t core.Transaction) bool {
			return t.Date.Year() == view.SelectedYear && t.Date.Month() == month
		}
	}
	return core.PeriodSummary{
		Income:  sumWhere(income, match),
		Expense: sumWhere(expenses, match),
	}
}

// AvailableYears lists the distinct years present in either list plus the
// current year, newest first.
func AvailableYears(expenses, income []core.Transaction, now time.Time) []int {
	years := []int{now.Year()}
	for _, list := range [][]core.Transaction{expenses, income} {
		for _, t := range list {
			if !slices.Contains(years, t.Date.Year()) {
				years = append(years, t.Date.Year())
			}
		}
	}
	slices.Sort(years)
	slices.Reverse(years)
	return years
}

// MonthlyTrend has one point per month of the current year, from January
// through the current month.
func MonthlyTrend(expenses, income []core.Transaction, now time.Time) []core.TrendPoint {
	year, current := now.Year(), int(now.Month())
	points := make([]core.TrendPoint, 0, current)
	for month := 1; month <= current; month++ {
		match := func(t core.Transaction) bool {
			return t.Date.Year() == year && t.Date.Month() == month
		}
		points = append(points, core.TrendPoint{
			Label:   monthLabels[month-1],
			Income:  sumWhere(income, match),
			Expense: sumWhere(expenses, match),
		})
	}
	return points
}

// YearlyTrend has one point per year, in the order given.
func YearlyTrend(expenses, income []core.Transaction, years []int) []core.TrendPoint {
	points := make([]core.TrendPoint, 0, len(years))
	for _, year := range years {
		match := func(t core.Transaction) bool { return t.Date.Year() == year }
		points = append(points, core.TrendPoint{
			Label:   strconv.Itoa(year),
			Income:  sumWhere(income, match),
			Expense: sumWhere(expenses, match),
		})
	}
	return points
}

// CategoryBreakdown groups txs by category. Slices appear in the order their
// category first occurs in txs.
func CategoryBreakdown(kind core.Kind, txs []core.Transaction) []core.CategorySlice {
	out := make([]core.CategorySlice, 0)
	index := make(map[string]int)
	for _, t := range txs {
		i, ok := index[t.Category]
		if !ok {
			index[t.Category] = len(out)
			out = append(out, core.CategorySlice{
				Name:  t.Category,
				Total: t.Amount,
				Color: core.CategoryColor(kind, t.Category),
			})
			continue
		}
		out[i].Total = out[i].Total.Add(t.Amount)
	}
	return out
}

// MonthlyAverage divides the sum of all amounts by the number of months in
// the monthly series. The divisor is never below one.
func MonthlyAverage(txs []core.Transaction, months int) decimal.Decimal {
	return core.Sum(txs).Div(decimal.NewFromInt(int64(max(months, 1))))
}

// SavingsRate is the share of average income left after average expense,
// as a percentage with one decimal. It is zero when there is no income.
func SavingsRate(avgIncome, avgExpense decimal.Decimal) decimal.Decimal {
	if avgIncome.IsZero() {
		return decimal.Zero
	}
	return avgIncome.Sub(avgExpense).Div(avgIncome).Mul(hundred).Round(1)
}

// Build assembles the full report for view.
func Build(expenses, income []core.Transaction, view core.ViewState, now time.Time) core.Report {
	years := AvailableYears(expenses, income, now)
	monthly := MonthlyTrend(expenses, income, now)
	summary := Summary(expenses, income, view, now)
	avgIncome := MonthlyAverage(income, len(monthly))
	avgExpense := MonthlyAverage(expenses, len(monthly))

	return core.Report{
		View:              view,
		Summary:           summary,
		Balance:           summary.Balance(),
		Years:             years,
		MonthlyTrend:      monthly,
		YearlyTrend:       YearlyTrend(expenses, income, years),
		ExpenseCategories: CategoryBreakdown(core.KindExpense, expenses),
		IncomeCategories:  CategoryBreakdown(core.KindIncome, income),
		AvgMonthlyIncome:  avgIncome.Round(2),
		AvgMonthlyExpense: avgExpense.Round(2),
		SavingsRate:       SavingsRate(avgIncome, avgExpense),
	}
}

func sumWhere(txs []core.Transaction, match func(core.Transaction) bool) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if match(t) {
			total = total.Add(t.Amount)
		}
	}
	return total
}
