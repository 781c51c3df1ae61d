package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sabilulmuttaqin/myuang/internal/amqp"
	"github.com/sabilulmuttaqin/myuang/internal/core"
	"github.com/sabilulmuttaqin/myuang/internal/split"
)

// DefaultBillName is used when a bill is saved without a name.
const DefaultBillName = "Split Bill"

// SplitBillService runs the split-bill flow: compute shares from the line
// items the user assembled, persist the bill with its members atomically,
// and optionally record the local user's share as an expense.
type SplitBillService struct {
	store  Store
	events EventPublisher
}

func NewSplitBillService(store Store, events EventPublisher) *SplitBillService {
	return &SplitBillService{store: store, events: events}
}

// BuildBill allocates items across members and assembles the bill record
// ready for saving. Member shares are rounded up to whole currency units
// only here, at the persistence boundary; the allocation itself accumulates
// unrounded values.
func (s *SplitBillService) BuildBill(ctx context.Context, name string, date time.Time, imageURI string, items []core.BillLineItem, members []split.Member) (*core.SplitBill, error) {
	res, err := split.ComputeShares(items, members)
	if err != nil {
		return nil, fmt.Errorf("compute shares: %w", err)
	}

	if res.Unassigned > 0 {
		// Unassigned items are excluded from every share but still count
		// toward the bill total; the caller should surface this.
		slog.WarnContext(ctx, "Split bill has unassigned items",
			"bill_name", name, "unassigned", res.Unassigned)
	}

	if strings.TrimSpace(name) == "" {
		name = DefaultBillName
	}
	if date.IsZero() {
		date = time.Now()
	}

	bill := &core.SplitBill{
		Name:        name,
		Date:        date,
		TotalAmount: res.Total,
		ImageURI:    imageURI,
	}
	for _, m := range members {
		bill.Members = append(bill.Members, core.SplitBillMember{
			Name:        m.Name,
			ShareAmount: split.RoundShare(res.Shares[m.ID]),
			IsMe:        m.IsMe,
		})
	}
	return bill, nil
}

// SaveBill persists the bill and all member shares as one unit.
func (s *SplitBillService) SaveBill(ctx context.Context, bill *core.SplitBill) error {
	if err := s.store.CreateSplitBill(ctx, bill); err != nil {
		return fmt.Errorf("save split bill: %w", err)
	}
	s.publishEvent(ctx, amqp.ActionCreated, bill.ID)
	return nil
}

// ApplyMyShare records the local user's share of the bill as a regular
// expense, dated now and noted with the bill's name. The category is a
// best guess: the first category whose name contains "makan", else the
// first category. Returns the created transaction id, or 0 when the local
// member has no share to record.
func (s *SplitBillService) ApplyMyShare(ctx context.Context, bill *core.SplitBill) (int64, error) {
	var me *core.SplitBillMember
	for i := range bill.Members {
		if bill.Members[i].IsMe {
			me = &bill.Members[i]
			break
		}
	}
	if me == nil || me.ShareAmount <= 0 {
		slog.InfoContext(ctx, "No local share to record for split bill",
			"bill_id", bill.ID, "bill_name", bill.Name)
		return 0, nil
	}

	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("load categories: %w", err)
	}
	if len(cats) == 0 {
		return 0, core.ErrCategoryNotFound
	}

	categoryID := cats[0].ID
	for _, c := range cats {
		if strings.Contains(strings.ToLower(c.Name), "makan") {
			categoryID = c.ID
			break
		}
	}

	id, err := s.store.CreateTransaction(ctx, core.Transaction{
		CategoryID: categoryID,
		Amount:     me.ShareAmount,
		Date:       time.Now(),
		Note:       fmt.Sprintf("Split Bill: %s", bill.Name),
		ImageURI:   bill.ImageURI,
	})
	if err != nil {
		return 0, fmt.Errorf("record my share: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishRecordChange(ctx, amqp.EntityTransaction, amqp.ActionCreated, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish record change",
				"entity", amqp.EntityTransaction, "record_id", id, "error", err)
		}
	}
	return id, nil
}

func (s *SplitBillService) Bills(ctx context.Context) ([]core.SplitBill, error) {
	return s.store.ListSplitBills(ctx)
}

func (s *SplitBillService) Bill(ctx context.Context, id int64) (*core.SplitBill, error) {
	return s.store.GetSplitBill(ctx, id)
}

func (s *SplitBillService) DeleteBill(ctx context.Context, id int64) error {
	if err := s.store.DeleteSplitBill(ctx, id); err != nil {
		return fmt.Errorf("delete split bill: %w", err)
	}
	s.publishEvent(ctx, amqp.ActionDeleted, id)
	return nil
}

func (s *SplitBillService) publishEvent(ctx context.Context, action amqp.Action, id int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishRecordChange(ctx, amqp.EntitySplitBill, action, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record change",
			"entity", amqp.EntitySplitBill, "action", action, "record_id", id, "error", err)
	}
}
