package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sabilulmuttaqin/myuang/internal/amqp"
	"github.com/sabilulmuttaqin/myuang/internal/core"
	"github.com/sabilulmuttaqin/myuang/internal/split"
)

func sampleItems() []core.BillLineItem {
	return []core.BillLineItem{
		{Name: "Nasi Goreng", Amount: 15000, AssignedTo: []string{"a", "b"}},
		{Name: "Es Teh", Amount: 5000, AssignedTo: []string{"a"}},
	}
}

func sampleMembers() []split.Member {
	return []split.Member{
		{ID: "a", Name: "Andi", IsMe: true},
		{ID: "b", Name: "Budi"},
	}
}

func TestBuildBill(t *testing.T) {
	svc := NewSplitBillService(&fakeStore{}, nil)

	bill, err := svc.BuildBill(context.Background(), "Warung", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), "", sampleItems(), sampleMembers())
	if err != nil {
		t.Fatalf("BuildBill: %v", err)
	}

	if bill.TotalAmount != 20000 {
		t.Errorf("TotalAmount = %v, want 20000", bill.TotalAmount)
	}
	if len(bill.Members) != 2 {
		t.Fatalf("got %d members, want 2", len(bill.Members))
	}
	if bill.Members[0].ShareAmount != 12500 {
		t.Errorf("Andi share = %v, want 12500", bill.Members[0].ShareAmount)
	}
	if bill.Members[1].ShareAmount != 7500 {
		t.Errorf("Budi share = %v, want 7500", bill.Members[1].ShareAmount)
	}
	if !bill.Members[0].IsMe || bill.Members[1].IsMe {
		t.Error("IsMe flag not carried over from members")
	}
}

func TestBuildBillDefaults(t *testing.T) {
	svc := NewSplitBillService(&fakeStore{}, nil)

	bill, err := svc.BuildBill(context.Background(), "  ", time.Time{}, "", sampleItems(), sampleMembers())
	if err != nil {
		t.Fatalf("BuildBill: %v", err)
	}
	if bill.Name != DefaultBillName {
		t.Errorf("Name = %q, want %q", bill.Name, DefaultBillName)
	}
	if bill.Date.IsZero() {
		t.Error("expected a default date")
	}
}

func TestBuildBillRoundsSharesUp(t *testing.T) {
	svc := NewSplitBillService(&fakeStore{}, nil)

	items := []core.BillLineItem{
		{Name: "Martabak", Amount: 10000, AssignedTo: []string{"a", "b", "c"}},
	}
	members := []split.Member{
		{ID: "a", Name: "Andi"},
		{ID: "b", Name: "Budi"},
		{ID: "c", Name: "Citra"},
	}

	bill, err := svc.BuildBill(context.Background(), "Malam", time.Now(), "", items, members)
	if err != nil {
		t.Fatalf("BuildBill: %v", err)
	}
	for _, m := range bill.Members {
		if m.ShareAmount != 3334 {
			t.Errorf("%s share = %v, want 3334", m.Name, m.ShareAmount)
		}
	}
}

func TestBuildBillNoMembers(t *testing.T) {
	svc := NewSplitBillService(&fakeStore{}, nil)

	if _, err := svc.BuildBill(context.Background(), "x", time.Now(), "", sampleItems(), nil); err == nil {
		t.Fatal("expected error for empty member list")
	}
}

func TestSaveBillPublishesEvent(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewSplitBillService(store, pub)

	bill := &core.SplitBill{Name: "Warung", Date: time.Now(), TotalAmount: 20000}
	if err := svc.SaveBill(context.Background(), bill); err != nil {
		t.Fatalf("SaveBill: %v", err)
	}
	if bill.ID == 0 {
		t.Error("expected bill id to be assigned")
	}
	if len(pub.events) != 1 {
		t.Fatalf("got %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Entity != amqp.EntitySplitBill || ev.Action != amqp.ActionCreated || ev.RecordID != bill.ID {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestSaveBillStoreError(t *testing.T) {
	store := &fakeStore{failOn: "CreateSplitBill"}
	pub := &fakePublisher{}
	svc := NewSplitBillService(store, pub)

	if err := svc.SaveBill(context.Background(), &core.SplitBill{Name: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if len(pub.events) != 0 {
		t.Errorf("no event should be published on store failure, got %d", len(pub.events))
	}
}

func TestApplyMyShare(t *testing.T) {
	store := &fakeStore{categories: []core.Category{
		{ID: 1, Name: "Transport"},
		{ID: 2, Name: "Makanan & Minuman"},
	}}
	pub := &fakePublisher{}
	svc := NewSplitBillService(store, pub)

	bill := &core.SplitBill{
		ID:   7,
		Name: "Warung Padang",
		Members: []core.SplitBillMember{
			{Name: "Budi", ShareAmount: 7500},
			{Name: "Andi", ShareAmount: 12500, IsMe: true},
		},
	}

	id, err := svc.ApplyMyShare(context.Background(), bill)
	if err != nil {
		t.Fatalf("ApplyMyShare: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a transaction id")
	}
	if len(store.transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(store.transactions))
	}

	tx := store.transactions[0]
	if tx.CategoryID != 2 {
		t.Errorf("CategoryID = %d, want the makan category", tx.CategoryID)
	}
	if tx.Amount != 12500 {
		t.Errorf("Amount = %v, want 12500", tx.Amount)
	}
	if want := "Split Bill: Warung Padang"; tx.Note != want {
		t.Errorf("Note = %q, want %q", tx.Note, want)
	}
	if len(pub.events) != 1 || pub.events[0].Entity != amqp.EntityTransaction {
		t.Errorf("expected one transaction event, got %+v", pub.events)
	}
}

func TestApplyMyShareFallsBackToFirstCategory(t *testing.T) {
	store := &fakeStore{categories: []core.Category{
		{ID: 4, Name: "Transport"},
		{ID: 5, Name: "Hiburan"},
	}}
	svc := NewSplitBillService(store, nil)

	bill := &core.SplitBill{
		Name:    "Bensin",
		Members: []core.SplitBillMember{{Name: "Andi", ShareAmount: 5000, IsMe: true}},
	}
	if _, err := svc.ApplyMyShare(context.Background(), bill); err != nil {
		t.Fatalf("ApplyMyShare: %v", err)
	}
	if store.transactions[0].CategoryID != 4 {
		t.Errorf("CategoryID = %d, want first category", store.transactions[0].CategoryID)
	}
}

func TestApplyMyShareNoLocalMember(t *testing.T) {
	store := &fakeStore{categories: []core.Category{{ID: 1, Name: "Lainnya"}}}
	svc := NewSplitBillService(store, nil)

	bill := &core.SplitBill{
		Name:    "x",
		Members: []core.SplitBillMember{{Name: "Budi", ShareAmount: 7500}},
	}
	id, err := svc.ApplyMyShare(context.Background(), bill)
	if err != nil {
		t.Fatalf("ApplyMyShare: %v", err)
	}
	if id != 0 {
		t.Errorf("id = %d, want 0 when no local member", id)
	}
	if len(store.transactions) != 0 {
		t.Error("no transaction should be recorded")
	}
}

func TestApplyMyShareZeroShare(t *testing.T) {
	store := &fakeStore{categories: []core.Category{{ID: 1, Name: "Lainnya"}}}
	svc := NewSplitBillService(store, nil)

	bill := &core.SplitBill{
		Name:    "x",
		Members: []core.SplitBillMember{{Name: "Andi", ShareAmount: 0, IsMe: true}},
	}
	id, err := svc.ApplyMyShare(context.Background(), bill)
	if err != nil {
		t.Fatalf("ApplyMyShare: %v", err)
	}
	if id != 0 || len(store.transactions) != 0 {
		t.Error("a zero share must not be recorded")
	}
}

func TestApplyMyShareNoCategories(t *testing.T) {
	svc := NewSplitBillService(&fakeStore{}, nil)

	bill := &core.SplitBill{
		Name:    "x",
		Members: []core.SplitBillMember{{Name: "Andi", ShareAmount: 5000, IsMe: true}},
	}
	_, err := svc.ApplyMyShare(context.Background(), bill)
	if !errors.Is(err, core.ErrCategoryNotFound) {
		t.Fatalf("err = %v, want ErrCategoryNotFound", err)
	}
}

func TestApplyMySharePublishFailureStillSucceeds(t *testing.T) {
	store := &fakeStore{categories: []core.Category{{ID: 1, Name: "Makanan & Minuman"}}}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewSplitBillService(store, pub)

	bill := &core.SplitBill{
		Name:    "x",
		Members: []core.SplitBillMember{{Name: "Andi", ShareAmount: 5000, IsMe: true}},
	}
	id, err := svc.ApplyMyShare(context.Background(), bill)
	if err != nil {
		t.Fatalf("ApplyMyShare: %v", err)
	}
	if id == 0 {
		t.Error("transaction must still be recorded when the publish fails")
	}
}

func TestDeleteBillPublishesEvent(t *testing.T) {
	store := &fakeStore{bills: []core.SplitBill{{ID: 3, Name: "x"}}}
	pub := &fakePublisher{}
	svc := NewSplitBillService(store, pub)

	if err := svc.DeleteBill(context.Background(), 3); err != nil {
		t.Fatalf("DeleteBill: %v", err)
	}
	if len(store.bills) != 0 {
		t.Error("bill not removed")
	}
	if len(pub.events) != 1 || pub.events[0].Action != amqp.ActionDeleted {
		t.Errorf("expected one deleted event, got %+v", pub.events)
	}
}

func TestBuildBillUnassignedItemExcluded(t *testing.T) {
	svc := NewSplitBillService(&fakeStore{}, nil)

	items := append(sampleItems(), core.BillLineItem{Name: "Kerupuk", Amount: 3000})
	bill, err := svc.BuildBill(context.Background(), "Warung", time.Now(), "", items, sampleMembers())
	if err != nil {
		t.Fatalf("BuildBill: %v", err)
	}

	if bill.TotalAmount != 23000 {
		t.Errorf("TotalAmount = %v, want 23000", bill.TotalAmount)
	}
	var sum float64
	for _, m := range bill.Members {
		sum += m.ShareAmount
	}
	if sum >= bill.TotalAmount {
		t.Errorf("shares sum %v should stay below total %v with an unassigned item", sum, bill.TotalAmount)
	}
	if !strings.Contains(bill.Name, "Warung") {
		t.Errorf("Name = %q", bill.Name)
	}
}
