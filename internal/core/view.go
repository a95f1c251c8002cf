package core

import (
	"fmt"
	"strings"
	"time"
)

// ViewMode selects between the current month and a whole year.
type ViewMode string

const (
	ModeMonthly ViewMode = "monthly"
	ModeTotal   ViewMode = "total"
)

// ViewState is the dashboard view selection. It is a value; transitions
// go through Reduce.
type ViewState struct {
	Mode         ViewMode `json:"mode"`
	SelectedYear int      `json:"selected_year"`
}

type actionType int

const (
	actionSetMode actionType = iota + 1
	actionSelectYear
)

// Action is a view transition request.
type Action struct {
	typ  actionType
	mode ViewMode
	year int
}

func SetMode(m ViewMode) Action { return Action{typ: actionSetMode, mode: m} }

func SelectYear(year int) Action { return Action{typ: actionSelectYear, year: year} }

func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeMonthly:
		return ModeMonthly, nil
	case ModeTotal:
		return ModeTotal, nil
	default:
		return "", fmt.Errorf("invalid view mode %q", s)
	}
}

// InitialView is monthly mode on the current year.
func InitialView(now time.Time) ViewState {
	return ViewState{Mode: ModeMonthly, SelectedYear: now.Year()}
}

// Reduce applies a to s. Monthly mode only exists for the current year:
// selecting another year, or asking for monthly mode while another year is
// selected, yields total mode.
func Reduce(s ViewState, a Action, now time.Time) ViewState {
	switch a.typ {
	case actionSetMode:
		if a.mode == ModeMonthly || a.mode == ModeTotal {
			s.Mode = a.mode
		}
	case actionSelectYear:
		s.SelectedYear = a.year
		if a.year != now.Year() {
			s.Mode = ModeTotal
		}
	}
	return s.normalize(now)
}

func (s ViewState) normalize(now time.Time) ViewState {
	if s.SelectedYear == 0 {
		s.SelectedYear = now.Year()
	}
	if s.Mode != ModeTotal && s.Mode != ModeMonthly {
		s.Mode = ModeMonthly
	}
	if s.SelectedYear != now.Year() {
		s.Mode = ModeTotal
	}
	return s
}

// IsCurrentMonth reports whether the state targets the current month only.
func (s ViewState) IsCurrentMonth(now time.Time) bool {
	return s.Mode == ModeMonthly && s.SelectedYear == now.Year()
}
