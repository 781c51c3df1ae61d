package services

import (
	"context"
	"fmt"

	"github.com/sabilulmuttaqin/myuang/internal/amqp"
	"github.com/sabilulmuttaqin/myuang/internal/core"
)

// fakeStore is a minimal in-memory Store for service tests.
type fakeStore struct {
	categories   []core.Category
	transactions []core.Transaction
	bills        []core.SplitBill

	nextID  int64
	failOn  string
	deleted []int64
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) fail(op string) error {
	if f.failOn == op {
		return fmt.Errorf("forced %s failure", op)
	}
	return nil
}

func (f *fakeStore) ListCategories(context.Context) ([]core.Category, error) {
	if err := f.fail("ListCategories"); err != nil {
		return nil, err
	}
	return f.categories, nil
}

func (f *fakeStore) CreateCategory(_ context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	c.ID = f.id()
	f.categories = append(f.categories, c)
	return c.ID, nil
}

func (f *fakeStore) UpdateCategory(_ context.Context, id int64, name, icon, color string) error {
	for i := range f.categories {
		if f.categories[i].ID == id {
			f.categories[i].Name = name
			f.categories[i].Icon = icon
			f.categories[i].Color = color
			return nil
		}
	}
	return fmt.Errorf("category %d missing", id)
}

func (f *fakeStore) DeleteCategory(_ context.Context, id int64) error {
	var kept []core.Category
	for _, c := range f.categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	f.categories = kept

	var keptTx []core.Transaction
	for _, t := range f.transactions {
		if t.CategoryID != id {
			keptTx = append(keptTx, t)
		}
	}
	f.transactions = keptTx
	return nil
}

func (f *fakeStore) CreateTransaction(_ context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	found := false
	for _, c := range f.categories {
		if c.ID == t.CategoryID {
			found = true
		}
	}
	if !found {
		return 0, core.ErrCategoryNotFound
	}
	t.ID = f.id()
	f.transactions = append(f.transactions, t)
	return t.ID, nil
}

func (f *fakeStore) ListRecentTransactions(_ context.Context, limit int) ([]core.Transaction, error) {
	if limit <= 0 || limit > len(f.transactions) {
		limit = len(f.transactions)
	}
	return f.transactions[:limit], nil
}

func (f *fakeStore) ListAllTransactions(context.Context) ([]core.Transaction, error) {
	if err := f.fail("ListAllTransactions"); err != nil {
		return nil, err
	}
	return f.transactions, nil
}

func (f *fakeStore) DeleteTransaction(_ context.Context, id int64) error {
	var kept []core.Transaction
	for _, t := range f.transactions {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	f.transactions = kept
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) CreateSplitBill(_ context.Context, bill *core.SplitBill) error {
	if err := f.fail("CreateSplitBill"); err != nil {
		return err
	}
	bill.ID = f.id()
	for i := range bill.Members {
		bill.Members[i].ID = f.id()
		bill.Members[i].SplitBillID = bill.ID
	}
	f.bills = append(f.bills, *bill)
	return nil
}

func (f *fakeStore) ListSplitBills(context.Context) ([]core.SplitBill, error) {
	return f.bills, nil
}

func (f *fakeStore) GetSplitBill(_ context.Context, id int64) (*core.SplitBill, error) {
	for i := range f.bills {
		if f.bills[i].ID == id {
			return &f.bills[i], nil
		}
	}
	return nil, fmt.Errorf("bill %d missing", id)
}

func (f *fakeStore) DeleteSplitBill(_ context.Context, id int64) error {
	var kept []core.SplitBill
	for _, b := range f.bills {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	f.bills = kept
	return nil
}

// fakePublisher records events and optionally fails every publish.
type fakePublisher struct {
	events []amqp.RecordChange
	err    error
}

func (f *fakePublisher) PublishRecordChange(_ context.Context, entity amqp.Entity, action amqp.Action, recordID int64) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, amqp.RecordChange{Entity: entity, Action: action, RecordID: recordID})
	return nil
}
