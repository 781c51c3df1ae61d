// Package services orchestrates the record store, the aggregation
// functions, and the event publisher behind the HTTP surface.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sabilulmuttaqin/myuang/internal/amqp"
	"github.com/sabilulmuttaqin/myuang/internal/core"
)

// Store is the record-store surface the services depend on.
type Store interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (int64, error)
	UpdateCategory(ctx context.Context, id int64, name, icon, color string) error
	DeleteCategory(ctx context.Context, id int64) error

	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
	ListRecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
	ListAllTransactions(ctx context.Context) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error

	CreateSplitBill(ctx context.Context, bill *core.SplitBill) error
	ListSplitBills(ctx context.Context) ([]core.SplitBill, error)
	GetSplitBill(ctx context.Context, id int64) (*core.SplitBill, error)
	DeleteSplitBill(ctx context.Context, id int64) error
}

// EventPublisher emits record-change events. A nil publisher disables
// events entirely.
type EventPublisher interface {
	PublishRecordChange(ctx context.Context, entity amqp.Entity, action amqp.Action, recordID int64) error
}

// ExpenseService covers categories, transactions, and the derived
// aggregates. Aggregates are recomputed from the stored transaction set on
// every call; nothing derived is persisted.
type ExpenseService struct {
	store  Store
	events EventPublisher
}

func NewExpenseService(store Store, events EventPublisher) *ExpenseService {
	return &ExpenseService{store: store, events: events}
}

func (s *ExpenseService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *ExpenseService) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	id, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	s.publish(ctx, amqp.EntityCategory, amqp.ActionCreated, id)
	return id, nil
}

func (s *ExpenseService) UpdateCategory(ctx context.Context, id int64, name, icon, color string) error {
	return s.store.UpdateCategory(ctx, id, name, icon, color)
}

func (s *ExpenseService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.publish(ctx, amqp.EntityCategory, amqp.ActionDeleted, id)
	return nil
}

// CreateExpense records one expense. The store validates the amount and
// the category reference; the event publish is best-effort.
func (s *ExpenseService) CreateExpense(ctx context.Context, t core.Transaction) (int64, error) {
	id, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}
	s.publish(ctx, amqp.EntityTransaction, amqp.ActionCreated, id)
	return id, nil
}

func (s *ExpenseService) RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	return s.store.ListRecentTransactions(ctx, limit)
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.publish(ctx, amqp.EntityTransaction, amqp.ActionDeleted, id)
	return nil
}

// MonthSummary computes the total and category breakdown for the calendar
// month containing ref. Categories are loaded before the transaction set:
// the breakdown needs them to resolve display names.
func (s *ExpenseService) MonthSummary(ctx context.Context, ref time.Time) (core.RangeSummary, error) {
	cats, txs, err := s.load(ctx)
	if err != nil {
		return core.RangeSummary{}, err
	}

	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	last := first.AddDate(0, 1, -1)
	return core.SummarizeRange(txs, cats, first, last), nil
}

// WeekTotal computes the rolling current-week total: Monday of ref's week
// through now.
func (s *ExpenseService) WeekTotal(ctx context.Context, ref time.Time) (float64, error) {
	txs, err := s.store.ListAllTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("load transactions: %w", err)
	}
	return core.TotalForWeek(txs, ref, time.Now()), nil
}

// RangeSummary computes the total and breakdown over an inclusive day
// range, for the analysis view.
func (s *ExpenseService) RangeSummary(ctx context.Context, start, end time.Time) (core.RangeSummary, error) {
	cats, txs, err := s.load(ctx)
	if err != nil {
		return core.RangeSummary{}, err
	}
	return core.SummarizeRange(txs, cats, start, end), nil
}

// load fetches categories first, then transactions; aggregation depends on
// the categories already being present.
func (s *ExpenseService) load(ctx context.Context) ([]core.Category, []core.Transaction, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load categories: %w", err)
	}
	txs, err := s.store.ListAllTransactions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load transactions: %w", err)
	}
	return cats, txs, nil
}

func (s *ExpenseService) publish(ctx context.Context, entity amqp.Entity, action amqp.Action, id int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishRecordChange(ctx, entity, action, id); err != nil {
		// The record is already safe locally; a lost event is only a
		// degraded collaborator.
		slog.ErrorContext(ctx, "Failed to publish record change",
			"entity", entity, "action", action, "record_id", id, "error", err)
	}
}
