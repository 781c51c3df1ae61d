// Package storage provides the SQLite-backed record store for categories,
// transactions, and split bills. The store holds no derived state;
// aggregates are recomputed from transactions by the core package.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/sabilulmuttaqin/myuang/internal/core"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

const defaultRecentLimit = 20

// SQLiteStore is the single store instance opened once per process. All
// reads and writes serialize through the underlying engine; there is
// exactly one writer context by design.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates the database file if needed, runs all pending migrations,
// and returns a ready store. Foreign keys are enforced on every pooled
// connection via the DSN pragma.
func Open(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ListCategories returns every category. Callers re-sort or group as they
// need; no ordering is promised here.
func (s *SQLiteStore) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, icon, color, budget_limit FROM categories")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		var icon, color sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &icon, &color, &c.BudgetLimit); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Icon = icon.String
		c.Color = color.String
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return cats, nil
}

// CreateCategory inserts a category and returns its assigned id. Duplicate
// names are allowed at this layer; preventing them is a UI concern.
func (s *SQLiteStore) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (name, icon, color, budget_limit) VALUES (?, ?, ?, ?)",
		c.Name, c.Icon, c.Color, c.BudgetLimit)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category insert id: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "id", id, "name", c.Name)
	return id, nil
}

// UpdateCategory replaces a category's display fields. Callers always
// supply the full replacement set.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, id int64, name, icon, color string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, icon = ?, color = ? WHERE id = ?",
		name, icon, color, id)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes the category and every transaction that references
// it, in one transaction. Not reversible.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE category_id = ?", id); err != nil {
		return fmt.Errorf("delete category transactions: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit category delete: %w", err)
	}

	slog.InfoContext(ctx, "Category deleted with its transactions", "id", id)
	return nil
}

// CreateTransaction validates and inserts an expense record. The category
// must exist: the check is explicit here and backed by the schema's foreign
// key, so a dangling reference can never be written.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM categories WHERE id = ?)", t.CategoryID).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check category: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("category %d: %w", t.CategoryID, core.ErrCategoryNotFound)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO transactions (category_id, amount, date, note, image_uri) VALUES (?, ?, ?, ?, ?)",
		t.CategoryID, t.Amount, t.Date.Format(time.RFC3339), t.NoteOrDefault(), nullable(t.ImageURI))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", id, "category_id", t.CategoryID, "amount", t.Amount)
	return id, nil
}

// ListRecentTransactions returns the newest transactions joined with their
// category's display fields. Ordering is date descending with id descending
// as the tie-break, so same-day entries list newest insertion first.
func (s *SQLiteStore) ListRecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.category_id, t.amount, t.date, t.note, t.image_uri, t.created_at,
		       c.name, c.icon, c.color
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		ORDER BY t.date DESC, t.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows, true)
}

// ListAllTransactions returns the complete transaction set for the
// aggregation engine to compute over.
func (s *SQLiteStore) ListAllTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.category_id, t.amount, t.date, t.note, t.image_uri, t.created_at
		FROM transactions t
		ORDER BY t.date DESC, t.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows, false)
}

// DeleteTransaction removes a transaction. Deleting an absent id is a
// no-op, not an error.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// CreateSplitBill inserts the bill and all member shares as one database
// transaction: either the whole bill lands or none of it does. IDs are
// written back into bill and its members.
func (s *SQLiteStore) CreateSplitBill(ctx context.Context, bill *core.SplitBill) error {
	if err := bill.Validate(); err != nil {
		return err
	}
	for _, m := range bill.Members {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("member %q: %w", m.Name, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO split_bills (name, date, total_amount, image_uri) VALUES (?, ?, ?, ?)",
		bill.Name, bill.Date.Format(time.RFC3339), bill.TotalAmount, nullable(bill.ImageURI))
	if err != nil {
		return fmt.Errorf("insert split bill: %w", err)
	}

	billID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("split bill insert id: %w", err)
	}
	bill.ID = billID

	for i := range bill.Members {
		m := &bill.Members[i]
		res, err := tx.ExecContext(ctx,
			"INSERT INTO split_bill_members (split_bill_id, name, share_amount, is_me) VALUES (?, ?, ?, ?)",
			billID, m.Name, m.ShareAmount, boolToInt(m.IsMe))
		if err != nil {
			return fmt.Errorf("insert split bill member: %w", err)
		}
		if m.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("split bill member insert id: %w", err)
		}
		m.SplitBillID = billID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit split bill: %w", err)
	}

	slog.InfoContext(ctx, "Split bill saved",
		"id", billID, "name", bill.Name,
		"total", bill.TotalAmount, "members", len(bill.Members))
	return nil
}

// ListSplitBills returns all bills without their members, newest first.
func (s *SQLiteStore) ListSplitBills(ctx context.Context) ([]core.SplitBill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, date, total_amount, image_uri, created_at
		FROM split_bills
		ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list split bills: %w", err)
	}
	defer rows.Close()

	var bills []core.SplitBill
	for rows.Next() {
		b, err := scanSplitBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate split bills: %w", err)
	}
	return bills, nil
}

// GetSplitBill returns one bill with its members.
func (s *SQLiteStore) GetSplitBill(ctx context.Context, id int64) (*core.SplitBill, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, date, total_amount, image_uri, created_at
		FROM split_bills WHERE id = ?`, id)

	bill, err := scanSplitBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("split bill %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, split_bill_id, name, share_amount, is_me
		FROM split_bill_members WHERE split_bill_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("get split bill members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m core.SplitBillMember
		var isMe int
		if err := rows.Scan(&m.ID, &m.SplitBillID, &m.Name, &m.ShareAmount, &isMe); err != nil {
			return nil, fmt.Errorf("scan split bill member: %w", err)
		}
		m.IsMe = isMe != 0
		bill.Members = append(bill.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate split bill members: %w", err)
	}
	return &bill, nil
}

// DeleteSplitBill removes a bill; its members go with it via the schema's
// cascade. Absent ids are a no-op.
func (s *SQLiteStore) DeleteSplitBill(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM split_bills WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete split bill: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSplitBill(row rowScanner) (core.SplitBill, error) {
	var b core.SplitBill
	var date string
	var imageURI sql.NullString
	var createdAt sql.NullInt64
	if err := row.Scan(&b.ID, &b.Name, &date, &b.TotalAmount, &imageURI, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, err
		}
		return b, fmt.Errorf("scan split bill: %w", err)
	}
	b.Date = parseStoredDate(date)
	b.ImageURI = imageURI.String
	b.CreatedAt = time.Unix(createdAt.Int64, 0)
	return b, nil
}

func scanTransactions(rows *sql.Rows, withCategory bool) ([]core.Transaction, error) {
	var txs []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var date string
		var note, imageURI sql.NullString
		var createdAt sql.NullInt64

		dest := []any{&t.ID, &t.CategoryID, &t.Amount, &date, &note, &imageURI, &createdAt}
		var catIcon, catColor sql.NullString
		if withCategory {
			dest = append(dest, &t.CategoryName, &catIcon, &catColor)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		t.Date = parseStoredDate(date)
		t.Note = note.String
		t.ImageURI = imageURI.String
		t.CreatedAt = time.Unix(createdAt.Int64, 0)
		t.CategoryIcon = catIcon.String
		t.CategoryColor = catColor.String
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// parseStoredDate reads the TEXT date column. Dates are written as RFC 3339
// but a bare date is tolerated for records imported from elsewhere.
func parseStoredDate(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
