package services

import (
	"context"
	"fmt"

	"billing/internal/amqp"
	"billing/internal/core"
)

type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error)
	UpdateExpense(ctx context.Context, id int64, e core.ExpenseRecord) (core.ExpenseRecord, error)
	DeleteExpense(ctx context.Context, id int64) error
	GetExpense(ctx context.Context, id int64) (core.ExpenseRecord, error)
	ListExpenses(ctx context.Context) ([]core.ExpenseRecord, error)
}

// ExpenseService saves expenses locally and announces each change.
type ExpenseService struct {
	store ExpenseStore
	notifier
}

func NewExpenseService(store ExpenseStore, publisher Publisher) *ExpenseService {
	return &ExpenseService{store: store, notifier: notifier{publisher: publisher}}
}

func (s *ExpenseService) Create(ctx context.Context, in core.ExpenseInput) (core.ExpenseRecord, error) {
	rec, err := core.BuildExpense(in)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	stored, err := s.store.CreateExpense(ctx, rec)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("create expense: %w", err)
	}
	s.notify(ctx, core.CategoryExpenses, amqp.OperationCreate, stored.ID)
	return stored, nil
}

func (s *ExpenseService) Update(ctx context.Context, id int64, in core.ExpenseInput) (core.ExpenseRecord, error) {
	rec, err := core.BuildExpense(in)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	stored, err := s.store.UpdateExpense(ctx, id, rec)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("update expense %d: %w", id, err)
	}
	s.notify(ctx, core.CategoryExpenses, amqp.OperationUpdate, id)
	return stored, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	s.notify(ctx, core.CategoryExpenses, amqp.OperationDelete, id)
	return nil
}

func (s *ExpenseService) Get(ctx context.Context, id int64) (core.ExpenseRecord, error) {
	rec, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return rec, nil
}

func (s *ExpenseService) List(ctx context.Context) ([]core.ExpenseRecord, error) {
	recs, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return recs, nil
}
