package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok {
			assert.NoError(t, err, "case %d", i)
		} else {
			assert.ErrorIs(t, err, ErrInvalidDate, "case %d", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, 2, d.Month())
	assert.Equal(t, 29, d.Day())
	assert.Equal(t, "2024-02-29", d.String())

	_, err = ParseDate("29/02/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2025, 3, 7))
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-07"`, string(b))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-07"`), &d))
	assert.True(t, d.Equal(NewDate(2025, 3, 7).Time))

	assert.Error(t, json.Unmarshal([]byte(`"March 7"`), &d))
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"expense":  KindExpense,
		"Expenses": KindExpense,
		"income":   KindIncome,
		" incomes": KindIncome,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseKind("transfer")
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		UserID:   uuid.New(),
		Kind:     KindExpense,
		Title:    "Groceries",
		Amount:   decimal.RequireFromString("12.50"),
		Category: string(Food),
		Date:     NewDate(2025, 1, 1),
	}
	require.NoError(t, good.Validate())

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"no kind", func(tx *Transaction) { tx.Kind = "" }, ErrInvalidKind},
		{"no user", func(tx *Transaction) { tx.UserID = uuid.Nil }, ErrMissingUser},
		{"blank title", func(tx *Transaction) { tx.Title = "   " }, ErrEmptyTitle},
		{"long title", func(tx *Transaction) { tx.Title = strings.Repeat("x", 201) }, ErrTitleTooLong},
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-3) }, ErrInvalidAmount},
		{"income category on expense", func(tx *Transaction) { tx.Category = string(Salary) }, ErrInvalidCategory},
		{"long description", func(tx *Transaction) { tx.Description = strings.Repeat("d", 1001) }, ErrDescTooLong},
		{"no date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := good
			tc.mutate(&tx)
			assert.ErrorIs(t, tx.Validate(), tc.want)
		})
	}
}

func TestProfileValidate(t *testing.T) {
	p := Profile{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	require.NoError(t, p.Validate())
	assert.Equal(t, "Ada Lovelace", p.DisplayName())

	p.Email = "ada@localhost"
	assert.ErrorIs(t, p.Validate(), ErrInvalidEmail)

	p = Profile{Email: "ada@example.com"}
	assert.ErrorIs(t, p.Validate(), ErrEmptyName)
}

func TestValidatePasswordChange(t *testing.T) {
	assert.NoError(t, ValidatePasswordChange("correct horse", "correct horse"))
	assert.ErrorIs(t, ValidatePasswordChange("abcdefgh", "abcdefgi"), ErrPasswordMismatch)
	assert.ErrorIs(t, ValidatePasswordChange("short", "short"), ErrPasswordTooShort)
}

func TestValidatePasswordLength(t *testing.T) {
	assert.NoError(t, ValidatePassword(strings.Repeat("a", MaxPasswordBytes)))
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("a", MaxPasswordBytes+1)), ErrPasswordTooLong)
	// multi-byte runes count by byte
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("é", 37)), ErrPasswordTooLong)
}

func TestSessionActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := Session{ID: uuid.New(), ExpiresAt: now.Add(time.Minute)}
	assert.True(t, s.Active(now))
	assert.False(t, s.Active(now.Add(time.Hour)))
	assert.False(t, Session{ExpiresAt: now.Add(time.Hour)}.Active(now))
}
