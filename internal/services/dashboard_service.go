package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"budgetly/internal/core"
	"budgetly/internal/loader"
	"budgetly/internal/report"
)

// DashboardService turns a user's cached snapshot into reports.
type DashboardService struct {
	loader *loader.Loader
	loc    *time.Location
	now    func() time.Time
}

func NewDashboardService(ld *loader.Loader, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{loader: ld, loc: loc, now: time.Now}
}

// Now is the current time in the configured location.
func (s *DashboardService) Now() time.Time {
	return s.now().In(s.loc)
}

// CacheStats reports snapshot cache hits and misses.
func (s *DashboardService) CacheStats() loader.Stats {
	return s.loader.Stats()
}

// Snapshot returns both transaction lists, newest first.
func (s *DashboardService) Snapshot(ctx context.Context, userID uuid.UUID) (loader.Snapshot, error) {
	snap, err := s.loader.Load(ctx, userID)
	if err != nil {
		return loader.Snapshot{}, fmt.Errorf("load transactions: %w", err)
	}
	return snap, nil
}

// Report aggregates the user's snapshot for view.
func (s *DashboardService) Report(ctx context.Context, userID uuid.UUID, view core.ViewState) (core.Report, loader.Snapshot, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return core.Report{}, loader.Snapshot{}, err
	}
	return report.Build(snap.Expenses, snap.Income, view, s.Now()), snap, nil
}

// Export writes the report for view and every transaction as an xlsx
// workbook.
func (s *DashboardService) Export(ctx context.Context, w io.Writer, userID uuid.UUID, view core.ViewState) error {
	rep, snap, err := s.Report(ctx, userID, view)
	if err != nil {
		return err
	}
	if err := report.WriteWorkbook(w, rep, snap.Expenses, snap.Income); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
