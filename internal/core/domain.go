package core

import (
	"errors"
	"strings"
	"time"
)

// DefaultNote is stored when a transaction is created without a note.
const DefaultNote = "No note"

type (
	// Category is a user-defined spending bucket. BudgetLimit is
	// informational only; nothing in the core enforces it.
	Category struct {
		ID          int64
		Name        string
		Icon        string
		Color       string
		BudgetLimit float64
	}

	// Transaction is a single recorded expense. Immutable once created
	// except for deletion; edits happen as delete-and-recreate upstream.
	Transaction struct {
		ID         int64
		CategoryID int64
		Amount     float64
		Date       time.Time
		Note       string
		ImageURI   string
		CreatedAt  time.Time

		// Display fields joined from the category by list queries.
		CategoryName  string
		CategoryIcon  string
		CategoryColor string
	}

	// SplitBill is a shared expense divided among multiple participants.
	// It is created atomically together with its members.
	SplitBill struct {
		ID          int64
		Name        string
		Date        time.Time
		TotalAmount float64
		ImageURI    string
		CreatedAt   time.Time
		Members     []SplitBillMember
	}

	// SplitBillMember is one participant's persisted share of a bill.
	// Exactly one member per bill carries IsMe in normal usage.
	SplitBillMember struct {
		ID          int64
		SplitBillID int64
		Name        string
		ShareAmount float64
		IsMe        bool
	}

	// BillLineItem exists only while a split bill is being built. Its cost
	// is divided evenly across AssignedTo; only the per-member aggregate
	// share survives into SplitBillMember.
	BillLineItem struct {
		Name       string
		Category   string
		Amount     float64
		AssignedTo []string
	}

	// ParsedExpense is a validated candidate record produced by the
	// normalizer from raw external-parser output.
	ParsedExpense struct {
		Name     string
		Category string
		Amount   float64
	}
)

var (
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidCategory  = errors.New("invalid category reference")
	ErrCategoryNotFound = errors.New("category not found")
)

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.CategoryID <= 0 {
		return ErrInvalidCategory
	}
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (b SplitBill) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if b.Date.IsZero() {
		return ErrInvalidDate
	}
	if b.TotalAmount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m SplitBillMember) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if m.ShareAmount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// NoteOrDefault returns the note text, or DefaultNote when it is blank.
func (t Transaction) NoteOrDefault() string {
	if strings.TrimSpace(t.Note) == "" {
		return DefaultNote
	}
	return t.Note
}
