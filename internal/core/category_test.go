package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryColor(t *testing.T) {
	cases := []struct {
		kind Kind
		name string
		want Color
	}{
		{KindExpense, "Food", "#10b981"},
		{KindExpense, "Transport", "#3b82f6"},
		{KindExpense, "Shopping", "#f59e0b"},
		{KindExpense, "Utilities", "#ef4444"},
		{KindExpense, "Entertainment", "#8b5cf6"},
		{KindExpense, "Healthcare", "#ec4899"},
		{KindExpense, "Other", "#6b7280"},
		{KindExpense, "Travel", "#6b7280"},
		{KindIncome, "Salary", "#10b981"},
		{KindIncome, "Freelance", "#3b82f6"},
		{KindIncome, "Business", "#f59e0b"},
		{KindIncome, "Investment", "#ef4444"},
		{KindIncome, "Gift", "#8b5cf6"},
		{KindIncome, "Other", "#6b7280"},
		{KindIncome, "Lottery", "#6b7280"},
		{"", "Food", "#6b7280"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CategoryColor(tc.kind, tc.name), "%s/%s", tc.kind, tc.name)
	}
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{"Food", "Transport", "Shopping", "Utilities", "Entertainment", "Healthcare", "Other"}, Categories(KindExpense))
	assert.Equal(t, []string{"Salary", "Freelance", "Business", "Investment", "Gift", "Other"}, Categories(KindIncome))
	assert.True(t, ValidCategory(KindIncome, "Gift"))
	assert.False(t, ValidCategory(KindIncome, "Food"))
	assert.Equal(t, "Food", DefaultCategory(KindExpense))
	assert.Equal(t, "Salary", DefaultCategory(KindIncome))
}
