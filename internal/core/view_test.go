package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReduce(t *testing.T) {
	now := time.Date(2025, 5, 15, 9, 0, 0, 0, time.UTC)
	initial := InitialView(now)
	assert.Equal(t, ViewState{Mode: ModeMonthly, SelectedYear: 2025}, initial)

	cases := []struct {
		name   string
		state  ViewState
		action Action
		want   ViewState
	}{
		{"total on current year", initial, SetMode(ModeTotal), ViewState{ModeTotal, 2025}},
		{"back to monthly", ViewState{ModeTotal, 2025}, SetMode(ModeMonthly), ViewState{ModeMonthly, 2025}},
		{"past year forces total", initial, SelectYear(2023), ViewState{ModeTotal, 2023}},
		{"monthly refused on past year", ViewState{ModeTotal, 2023}, SetMode(ModeMonthly), ViewState{ModeTotal, 2023}},
		{"current year keeps mode", ViewState{ModeTotal, 2023}, SelectYear(2025), ViewState{ModeTotal, 2025}},
		{"unknown mode ignored", initial, SetMode("weekly"), initial},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Reduce(tc.state, tc.action, now))
		})
	}
}

func TestReduceDoesNotMutate(t *testing.T) {
	now := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)
	s := InitialView(now)
	_ = Reduce(s, SelectYear(2020), now)
	assert.Equal(t, ModeMonthly, s.Mode)
	assert.Equal(t, 2025, s.SelectedYear)
}

func TestParseViewMode(t *testing.T) {
	m, err := ParseViewMode("")
	assert.NoError(t, err)
	assert.Equal(t, ModeMonthly, m)
	m, err = ParseViewMode("TOTAL")
	assert.NoError(t, err)
	assert.Equal(t, ModeTotal, m)
	_, err = ParseViewMode("weekly")
	assert.Error(t, err)
}
