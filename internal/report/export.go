package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"budgetly/internal/core"
)

const (
	sheetSummary      = "Summary"
	sheetTrend        = "Trend"
	sheetCategories   = "Categories"
	sheetTransactions = "Transactions"

	// excelize built-in format #,##0.00
	numFmtAmount = 4
)

// WriteWorkbook renders rep and the underlying transactions as an .xlsx
// workbook into w.
func WriteWorkbook(w io.Writer, rep core.Report, expenses, income []core.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetTrend, sheetCategories, sheetTransactions} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#374151"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	amount, err := f.NewStyle(&excelize.Style{
		NumFmt:    numFmtAmount,
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}

	x := &sheetWriter{f: f, header: header, amount: amount}
	x.summary(rep)
	x.trend(rep)
	x.categories(rep)
	x.transactions(expenses, income)
	if x.err != nil {
		return x.err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetWriter keeps the first cell error so the sheet builders stay linear.
type sheetWriter struct {
	f      *excelize.File
	header int
	amount int
	err    error
}

func (x *sheetWriter) set(sheet string, col, row int, v any) {
	if x.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		x.err = err
		return
	}
	if d, ok := v.(decimal.Decimal); ok {
		v = d.InexactFloat64()
		if err := x.f.SetCellStyle(sheet, cell, cell, x.amount); err != nil {
			x.err = err
			return
		}
	}
	if err := x.f.SetCellValue(sheet, cell, v); err != nil {
		x.err = fmt.Errorf("%s!%s: %w", sheet, cell, err)
	}
}

func (x *sheetWriter) headerRow(sheet string, titles ...string) {
	for i, t := range titles {
		x.set(sheet, i+1, 1, t)
	}
	if x.err != nil {
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(titles), 1)
	x.err = x.f.SetCellStyle(sheet, "A1", last, x.header)
}

func (x *sheetWriter) summary(rep core.Report) {
	x.headerRow(sheetSummary, "Metric", "Value")
	period := strconv.Itoa(rep.View.SelectedYear)
	if rep.View.Mode == core.ModeMonthly {
		period += " (current month)"
	}
	rows := []struct {
		label string
		value any
	}{
		{"Period", period},
		{"Income", rep.Summary.Income},
		{"Expense", rep.Summary.Expense},
		{"Balance", rep.Balance},
		{"Avg monthly income", rep.AvgMonthlyIncome},
		{"Avg monthly expense", rep.AvgMonthlyExpense},
		{"Savings rate %", rep.SavingsRate.InexactFloat64()},
	}
	for i, r := range rows {
		x.set(sheetSummary, 1, i+2, r.label)
		x.set(sheetSummary, 2, i+2, r.value)
	}
	if x.err == nil {
		x.err = x.f.SetColWidth(sheetSummary, "A", "B", 22)
	}
}

func (x *sheetWriter) trend(rep core.Report) {
	x.headerRow(sheetTrend, "Period", "Income", "Expense")
	for i, p := range rep.Trend() {
		x.set(sheetTrend, 1, i+2, p.Label)
		x.set(sheetTrend, 2, i+2, p.Income)
		x.set(sheetTrend, 3, i+2, p.Expense)
	}
}

func (x *sheetWriter) categories(rep core.Report) {
	x.headerRow(sheetCategories, "Kind", "Category", "Total", "Color")
	row := 2
	for _, group := range []struct {
		kind   core.Kind
		slices []core.CategorySlice
	}{
		{core.KindExpense, rep.ExpenseCategories},
		{core.KindIncome, rep.IncomeCategories},
	} {
		for _, s := range group.slices {
			x.set(sheetCategories, 1, row, string(group.kind))
			x.set(sheetCategories, 2, row, s.Name)
			x.set(sheetCategories, 3, row, s.Total)
			x.set(sheetCategories, 4, row, string(s.Color))
			row++
		}
	}
}

func (x *sheetWriter) transactions(expenses, income []core.Transaction) {
	x.headerRow(sheetTransactions, "Date", "Kind", "Title", "Category", "Amount", "Description")
	row := 2
	for _, list := range [][]core.Transaction{expenses, income} {
		for _, t := range list {
			x.set(sheetTransactions, 1, row, t.Date.String())
			x.set(sheetTransactions, 2, row, string(t.Kind))
			x.set(sheetTransactions, 3, row, t.Title)
			x.set(sheetTransactions, 4, row, t.Category)
			x.set(sheetTransactions, 5, row, t.Amount)
			x.set(sheetTransactions, 6, row, t.Description)
			row++
		}
	}
	if x.err == nil {
		x.err = x.f.SetColWidth(sheetTransactions, "C", "C", 28)
	}
}
