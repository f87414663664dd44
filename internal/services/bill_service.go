package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"billing/internal/amqp"
	"billing/internal/core"
	"billing/internal/log"
	"billing/internal/storage"
)

type BillStore interface {
	CreateBill(ctx context.Context, prefix string, b core.Bill, followUp storage.BillFollowUp) (core.Bill, error)
	UpdateBill(ctx context.Context, id int64, b core.Bill, followUp storage.BillFollowUp) (core.Bill, error)
	DeleteBill(ctx context.Context, id int64) error
	GetBill(ctx context.Context, id int64) (core.Bill, error)
	ListBills(ctx context.Context) ([]core.Bill, error)
	SearchBills(ctx context.Context, term string) ([]core.Bill, error)
}

type BillOptions struct {
	SerialPrefix string
	// RecordPayments writes advance and final bill payments into income.
	RecordPayments bool
	Now            func() time.Time
}

// BillService derives and persists bills. Writes are serialized so a
// derivation is never persisted on top of a concurrent change.
type BillService struct {
	store BillStore
	opts  BillOptions
	notifier

	mu sync.Mutex
}

func NewBillService(store BillStore, publisher Publisher, opts BillOptions) *BillService {
	if opts.SerialPrefix == "" {
		opts.SerialPrefix = core.DefaultSerialPrefix
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &BillService{
		store:    store,
		opts:     opts,
		notifier: notifier{publisher: publisher},
	}
}

// Create validates in, allocates a serial number and stores the bill.
func (s *BillService) Create(ctx context.Context, in core.BillInput) (core.Bill, error) {
	b, err := core.DeriveBill(in)
	if err != nil {
		return core.Bill{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger := &paymentLedger{opts: s.opts}
	stored, err := s.store.CreateBill(ctx, s.opts.SerialPrefix, b, ledger.entries)
	if err != nil {
		return core.Bill{}, fmt.Errorf("create bill: %w", err)
	}

	slog.InfoContext(ctx, "Bill created",
		"id", stored.ID,
		log.FieldSerialNumber, stored.SerialNumber,
		"payment_status", stored.PaymentStatus)

	s.notify(ctx, core.CategoryBills, amqp.OperationCreate, stored.ID)
	if ledger.recorded > 0 {
		s.notify(ctx, core.CategoryIncome, amqp.OperationCreate, 0)
	}
	return stored, nil
}

// Update re-derives bill id from in. The serial number never changes.
func (s *BillService) Update(ctx context.Context, id int64, in core.BillInput) (core.Bill, error) {
	b, err := core.DeriveBill(in)
	if err != nil {
		return core.Bill{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ledger := &paymentLedger{opts: s.opts}
	stored, err := s.store.UpdateBill(ctx, id, b, ledger.entries)
	if err != nil {
		return core.Bill{}, fmt.Errorf("update bill %d: %w", id, err)
	}

	s.notify(ctx, core.CategoryBills, amqp.OperationUpdate, id)
	if ledger.recorded > 0 {
		s.notify(ctx, core.CategoryIncome, amqp.OperationCreate, 0)
	}
	return stored, nil
}

// Delete removes bill id. Its serial number is not released.
func (s *BillService) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteBill(ctx, id); err != nil {
		return fmt.Errorf("delete bill %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Bill deleted", "id", id)
	s.notify(ctx, core.CategoryBills, amqp.OperationDelete, id)
	return nil
}

func (s *BillService) Get(ctx context.Context, id int64) (core.Bill, error) {
	b, err := s.store.GetBill(ctx, id)
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill %d: %w", id, err)
	}
	return b, nil
}

func (s *BillService) List(ctx context.Context) ([]core.Bill, error) {
	bills, err := s.store.ListBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return bills, nil
}

func (s *BillService) Search(ctx context.Context, term string) ([]core.Bill, error) {
	bills, err := s.store.SearchBills(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search bills: %w", err)
	}
	return bills, nil
}

// paymentLedger turns bill payments into income rows: the advance on
// create, and the outstanding due when an unpaid bill becomes PAID.
type paymentLedger struct {
	opts     BillOptions
	recorded int
}

func (l *paymentLedger) entries(prev *core.Bill, next core.Bill) []core.IncomeRecord {
	if !l.opts.RecordPayments {
		return nil
	}
	var out []core.IncomeRecord
	switch {
	case prev == nil && next.AdvanceAmount.Cents > 0:
		mode := next.AdvancePaymentMode
		out = append(out, core.IncomeRecord{
			Date:        next.OrderDate,
			Description: fmt.Sprintf("Advance from %s (SN: %s)", next.CustomerName, next.SerialNumber),
			Amount:      next.AdvanceAmount,
			PaymentMode: &mode,
		})
	case prev != nil && prev.PaymentStatus != core.PaymentPaid &&
		next.PaymentStatus == core.PaymentPaid && prev.AmountDue.Cents > 0:
		out = append(out, core.IncomeRecord{
			Date:        core.DateOf(l.opts.Now()),
			Description: fmt.Sprintf("Final payment from %s (SN: %s)", next.CustomerName, next.SerialNumber),
			Amount:      prev.AmountDue,
			PaymentMode: next.AmountDuePaymentMode,
		})
	}
	l.recorded += len(out)
	return out
}
