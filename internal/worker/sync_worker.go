package worker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"billing/internal/amqp"
	"billing/internal/core"
	"billing/internal/export"
	"billing/internal/log"
	"billing/internal/services"
	"billing/internal/sheets"
)

// Tabs maps each record set to the spreadsheet tab that mirrors it.
type Tabs map[core.Category]string

func DefaultTabs() Tabs {
	return Tabs{
		core.CategoryBills:    "Bills",
		core.CategoryIncome:   "Income",
		core.CategoryExpenses: "Expenses",
	}
}

// SyncWorker mirrors record sets from SQLite into a spreadsheet. Each
// change event rewrites the whole tab of its category, so replays and
// out-of-order deliveries converge on the current database state.
type SyncWorker struct {
	reader services.RecordReader
	sheet  sheets.Mirror
	tabs   Tabs
}

func NewSyncWorker(reader services.RecordReader, sheet sheets.Mirror, tabs Tabs) *SyncWorker {
	if tabs == nil {
		tabs = DefaultTabs()
	}
	return &SyncWorker{reader: reader, sheet: sheet, tabs: tabs}
}

// HandleRecordChanged processes one change event from AMQP.
func (w *SyncWorker) HandleRecordChanged(ctx context.Context, msg *amqp.RecordChangedMessage) error {
	slog.InfoContext(ctx, "Processing record change",
		log.FieldCategory, msg.Category,
		log.FieldOperation, msg.Operation,
		"id", msg.ID,
		"queued_for", time.Since(msg.Timestamp).String())
	return w.SyncCategory(ctx, msg.Category)
}

// SyncCategory rewrites the tab of category c.
func (w *SyncWorker) SyncCategory(ctx context.Context, c core.Category) error {
	var (
		table export.Table
		err   error
	)
	switch c {
	case core.CategoryBills:
		var bills []core.Bill
		if bills, err = w.reader.ListBills(ctx); err == nil {
			table = export.BillsTable(bills)
		}
	case core.CategoryIncome:
		var income []core.IncomeRecord
		if income, err = w.reader.ListIncome(ctx); err == nil {
			table = export.IncomeTable(income)
		}
	case core.CategoryExpenses:
		var expenses []core.ExpenseRecord
		if expenses, err = w.reader.ListExpenses(ctx); err == nil {
			table = export.ExpensesTable(expenses)
		}
	default:
		return fmt.Errorf("unknown category %q", c)
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", c, err)
	}
	return w.write(ctx, c, table)
}

// SyncAll rewrites every tab from one read of the database.
func (w *SyncWorker) SyncAll(ctx context.Context) error {
	snap, err := services.LoadSnapshot(ctx, w.reader)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for c, t := range snapshotTables(snap) {
		c, t := c, t
		g.Go(func() error { return w.write(gctx, c, t) })
	}
	return g.Wait()
}

// StartupSyncCheck brings the spreadsheet up to date with anything written
// while the worker was down. Tabs that already match the database are not
// rewritten.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	start := time.Now()
	snap, err := services.LoadSnapshot(ctx, w.reader)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	rewritten := 0
	for c, t := range snapshotTables(snap) {
		tab, ok := w.tabs[c]
		if !ok {
			return fmt.Errorf("no tab configured for %s", c)
		}
		current, err := w.sheet.ReadTable(ctx, tab)
		if err != nil {
			return fmt.Errorf("read %s: %w", tab, err)
		}
		if sameTable(current, t) {
			continue
		}
		if err := w.write(ctx, c, t); err != nil {
			return err
		}
		rewritten++
	}

	slog.InfoContext(ctx, "Startup sync complete",
		log.FieldOperation, log.OpSync,
		"tabs_rewritten", rewritten,
		log.FieldDurationHuman, time.Since(start).String())
	return nil
}

func snapshotTables(snap services.Snapshot) map[core.Category]export.Table {
	return map[core.Category]export.Table{
		core.CategoryBills:    export.BillsTable(snap.Bills),
		core.CategoryIncome:   export.IncomeTable(snap.Income),
		core.CategoryExpenses: export.ExpensesTable(snap.Expenses),
	}
}

// sameTable reports whether current already holds t. Trailing empty cells
// are ignored since spreadsheets do not return them.
func sameTable(current [][]string, t export.Table) bool {
	if len(current) != len(t.Rows)+1 {
		return false
	}
	if !sameRow(current[0], t.Header) {
		return false
	}
	for i, r := range t.Rows {
		if !sameRow(current[i+1], r) {
			return false
		}
	}
	return true
}

func sameRow(a, b []string) bool {
	return slices.Equal(trimEmpty(a), trimEmpty(b))
}

func trimEmpty(r []string) []string {
	for len(r) > 0 && r[len(r)-1] == "" {
		r = r[:len(r)-1]
	}
	return r
}

func (w *SyncWorker) write(ctx context.Context, c core.Category, t export.Table) error {
	tab, ok := w.tabs[c]
	if !ok {
		return fmt.Errorf("no tab configured for %s", c)
	}
	if err := w.sheet.ReplaceTable(ctx, tab, t.Header, t.Rows); err != nil {
		return fmt.Errorf("write %s: %w", tab, err)
	}
	slog.DebugContext(ctx, "Tab rewritten",
		log.FieldOperation, log.OpSync,
		log.FieldCategory, c,
		"tab", tab,
		"rows", len(t.Rows))
	return nil
}
