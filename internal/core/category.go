package core

// ExpenseCategory is one of the fixed expense categories.
type ExpenseCategory string

// IncomeCategory is one of the fixed income categories.
type IncomeCategory string

// Color is a hex color used by charts.
type Color string

const (
	Food          ExpenseCategory = "Food"
	Transport     ExpenseCategory = "Transport"
	Shopping      ExpenseCategory = "Shopping"
	Utilities     ExpenseCategory = "Utilities"
	Entertainment ExpenseCategory = "Entertainment"
	Healthcare    ExpenseCategory = "Healthcare"
	ExpenseOther  ExpenseCategory = "Other"
)

const (
	Salary      IncomeCategory = "Salary"
	Freelance   IncomeCategory = "Freelance"
	Business    IncomeCategory = "Business"
	Investment  IncomeCategory = "Investment"
	Gift        IncomeCategory = "Gift"
	IncomeOther IncomeCategory = "Other"
)

const (
	ColorGreen  Color = "#10b981"
	ColorBlue   Color = "#3b82f6"
	ColorAmber  Color = "#f59e0b"
	ColorRed    Color = "#ef4444"
	ColorViolet Color = "#8b5cf6"
	ColorPink   Color = "#ec4899"
	ColorGray   Color = "#6b7280"
)

var (
	ExpenseCategories = []ExpenseCategory{Food, Transport, Shopping, Utilities, Entertainment, Healthcare, ExpenseOther}
	IncomeCategories  = []IncomeCategory{Salary, Freelance, Business, Investment, Gift, IncomeOther}
)

func (c ExpenseCategory) Color() Color {
	switch c {
	case Food:
		return ColorGreen
	case Transport:
		return ColorBlue
	case Shopping:
		return ColorAmber
	case Utilities:
		return ColorRed
	case Entertainment:
		return ColorViolet
	case Healthcare:
		return ColorPink
	default:
		return ColorGray
	}
}

func (c ExpenseCategory) Valid() bool {
	for _, v := range ExpenseCategories {
		if v == c {
			return true
		}
	}
	return false
}

func (c IncomeCategory) Color() Color {
	switch c {
	case Salary:
		return ColorGreen
	case Freelance:
		return ColorBlue
	case Business:
		return ColorAmber
	case Investment:
		return ColorRed
	case Gift:
		return ColorViolet
	default:
		return ColorGray
	}
}

func (c IncomeCategory) Valid() bool {
	for _, v := range IncomeCategories {
		if v == c {
			return true
		}
	}
	return false
}

// CategoryColor looks up the chart color of a category name for a kind.
// Unknown names map to gray.
func CategoryColor(kind Kind, name string) Color {
	switch kind {
	case KindExpense:
		return ExpenseCategory(name).Color()
	case KindIncome:
		return IncomeCategory(name).Color()
	default:
		return ColorGray
	}
}

func ValidCategory(kind Kind, name string) bool {
	switch kind {
	case KindExpense:
		return ExpenseCategory(name).Valid()
	case KindIncome:
		return IncomeCategory(name).Valid()
	default:
		return false
	}
}

// Categories lists the category names of a kind in display order.
func Categories(kind Kind) []string {
	var out []string
	switch kind {
	case KindExpense:
		for _, c := range ExpenseCategories {
			out = append(out, string(c))
		}
	case KindIncome:
		for _, c := range IncomeCategories {
			out = append(out, string(c))
		}
	}
	return out
}

// DefaultCategory is the category preselected in a new form.
func DefaultCategory(kind Kind) string {
	if kind == KindIncome {
		return string(Salary)
	}
	return string(Food)
}
