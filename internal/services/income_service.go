package services

import (
	"context"
	"fmt"

	"billing/internal/amqp"
	"billing/internal/core"
)

type IncomeStore interface {
	CreateIncome(ctx context.Context, in core.IncomeRecord) (core.IncomeRecord, error)
	UpdateIncome(ctx context.Context, id int64, in core.IncomeRecord) (core.IncomeRecord, error)
	DeleteIncome(ctx context.Context, id int64) error
	GetIncome(ctx context.Context, id int64) (core.IncomeRecord, error)
	ListIncome(ctx context.Context) ([]core.IncomeRecord, error)
}

type IncomeService struct {
	store IncomeStore
	notifier
}

func NewIncomeService(store IncomeStore, publisher Publisher) *IncomeService {
	return &IncomeService{store: store, notifier: notifier{publisher: publisher}}
}

func (s *IncomeService) Create(ctx context.Context, in core.IncomeInput) (core.IncomeRecord, error) {
	rec, err := core.BuildIncome(in)
	if err != nil {
		return core.IncomeRecord{}, err
	}
	stored, err := s.store.CreateIncome(ctx, rec)
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("create income: %w", err)
	}
	s.notify(ctx, core.CategoryIncome, amqp.OperationCreate, stored.ID)
	return stored, nil
}

func (s *IncomeService) Update(ctx context.Context, id int64, in core.IncomeInput) (core.IncomeRecord, error) {
	rec, err := core.BuildIncome(in)
	if err != nil {
		return core.IncomeRecord{}, err
	}
	stored, err := s.store.UpdateIncome(ctx, id, rec)
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("update income %d: %w", id, err)
	}
	s.notify(ctx, core.CategoryIncome, amqp.OperationUpdate, id)
	return stored, nil
}

func (s *IncomeService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteIncome(ctx, id); err != nil {
		return fmt.Errorf("delete income %d: %w", id, err)
	}
	s.notify(ctx, core.CategoryIncome, amqp.OperationDelete, id)
	return nil
}

func (s *IncomeService) Get(ctx context.Context, id int64) (core.IncomeRecord, error) {
	rec, err := s.store.GetIncome(ctx, id)
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("get income %d: %w", id, err)
	}
	return rec, nil
}

func (s *IncomeService) List(ctx context.Context) ([]core.IncomeRecord, error) {
	recs, err := s.store.ListIncome(ctx)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	return recs, nil
}

// SummaryByMode totals income per payment mode.
func (s *IncomeService) SummaryByMode(ctx context.Context) (map[string]core.Money, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return core.IncomeSummaryByMode(recs), nil
}
