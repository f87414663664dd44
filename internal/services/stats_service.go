package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"billing/internal/core"
)

// RecordReader loads full record sets. *storage.SQLiteRepository implements it.
type RecordReader interface {
	ListBills(ctx context.Context) ([]core.Bill, error)
	ListIncome(ctx context.Context) ([]core.IncomeRecord, error)
	ListExpenses(ctx context.Context) ([]core.ExpenseRecord, error)
}

// Report is the payload behind the stats endpoint.
type Report struct {
	core.Stats
	MonthlyData []core.MonthlyTotal `json:"monthly_data"`
}

// Snapshot holds the three record sets.
type Snapshot struct {
	Bills    []core.Bill
	Income   []core.IncomeRecord
	Expenses []core.ExpenseRecord
}

// StatsService computes summaries on demand. Each call reads the record
// sets as committed when it starts.
type StatsService struct {
	reader RecordReader
	now    func() time.Time
	window int
}

func NewStatsService(reader RecordReader, now func() time.Time) *StatsService {
	if now == nil {
		now = time.Now
	}
	return &StatsService{reader: reader, now: now, window: core.DefaultStatsWindow}
}

func (s *StatsService) Stats(ctx context.Context) (Report, error) {
	snap, err := LoadSnapshot(ctx, s.reader)
	if err != nil {
		return Report{}, fmt.Errorf("build stats: %w", err)
	}
	return Report{
		Stats:       core.OverallStats(snap.Income, snap.Expenses, snap.Bills),
		MonthlyData: core.MonthlyBreakdown(snap.Income, snap.Expenses, s.now(), s.window),
	}, nil
}

// LoadSnapshot reads the three record sets concurrently.
func LoadSnapshot(ctx context.Context, reader RecordReader) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Bills, err = reader.ListBills(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Income, err = reader.ListIncome(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Expenses, err = reader.ListExpenses(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
