package core

import (
	"math"
	"testing"
	"time"
)

func tx(categoryID int64, amount float64, date string) Transaction {
	d, err := time.Parse(time.RFC3339, date)
	if err != nil {
		panic(err)
	}
	return Transaction{CategoryID: categoryID, Amount: amount, Date: d}
}

func TestTotalForMonth(t *testing.T) {
	txs := []Transaction{
		tx(1, 15000, "2024-03-05T10:00:00Z"),
		tx(1, 20000, "2024-03-20T18:30:00Z"),
		tx(2, 5000, "2024-04-01T09:00:00Z"),
	}

	tests := []struct {
		name string
		ref  time.Time
		want float64
	}{
		{
			name: "march picks up both march transactions",
			ref:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			want: 35000,
		},
		{
			name: "april picks up only the april transaction",
			ref:  time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
			want: 5000,
		},
		{
			name: "same month of another year is empty",
			ref:  time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TotalForMonth(txs, tt.ref)
			if got != tt.want {
				t.Errorf("TotalForMonth() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name string
		ref  time.Time
		want time.Time
	}{
		{
			name: "wednesday goes back to monday",
			ref:  time.Date(2024, 3, 13, 15, 30, 0, 0, time.UTC), // Wednesday
			want: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "monday stays on the same day",
			ref:  time.Date(2024, 3, 11, 23, 59, 0, 0, time.UTC),
			want: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday belongs to the week six days earlier",
			ref:  time.Date(2024, 3, 17, 8, 0, 0, 0, time.UTC), // Sunday
			want: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeekStart(tt.ref)
			if !got.Equal(tt.want) {
				t.Errorf("WeekStart(%v) = %v, want %v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestTotalForWeek(t *testing.T) {
	txs := []Transaction{
		tx(1, 10000, "2024-03-11T08:00:00Z"), // Monday of the target week
		tx(1, 7000, "2024-03-13T12:00:00Z"),  // Wednesday
		tx(1, 4000, "2024-03-10T12:00:00Z"),  // previous Sunday, out
		tx(1, 9000, "2024-03-18T12:00:00Z"),  // next Monday, after "now"
	}
	ref := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

	got := TotalForWeek(txs, ref, now)
	if got != 17000 {
		t.Errorf("TotalForWeek() = %v, want 17000", got)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	cats := []Category{
		{ID: 1, Name: "Makanan & Minuman"},
		{ID: 2, Name: "Transport"},
		{ID: 3, Name: "Belanja"},
	}

	t.Run("percentages and sort order", func(t *testing.T) {
		txs := []Transaction{
			tx(2, 25000, "2024-03-01T00:00:00Z"),
			tx(1, 50000, "2024-03-02T00:00:00Z"),
			tx(1, 25000, "2024-03-03T00:00:00Z"),
		}

		rows := CategoryBreakdown(txs, cats)
		if len(rows) != 2 {
			t.Fatalf("got %d rows, want 2", len(rows))
		}
		if rows[0].CategoryID != 1 || rows[0].Total != 75000 || rows[0].Percentage != 75 {
			t.Errorf("row 0 = %+v, want category 1 / 75000 / 75%%", rows[0])
		}
		if rows[1].CategoryID != 2 || rows[1].Total != 25000 || rows[1].Percentage != 25 {
			t.Errorf("row 1 = %+v, want category 2 / 25000 / 25%%", rows[1])
		}
		if rows[0].Name != "Makanan & Minuman" {
			t.Errorf("row 0 name = %q", rows[0].Name)
		}
	})

	t.Run("percentages sum to at most 100", func(t *testing.T) {
		txs := []Transaction{
			tx(1, 100, "2024-03-01T00:00:00Z"),
			tx(2, 100, "2024-03-01T00:00:00Z"),
			tx(3, 100, "2024-03-01T00:00:00Z"),
		}

		sum := 0
		for _, row := range CategoryBreakdown(txs, cats) {
			sum += row.Percentage
		}
		// Three thirds round to 33 each.
		if sum > 100 {
			t.Errorf("percentages sum to %d, want <= 100", sum)
		}
	})

	t.Run("empty set yields empty breakdown", func(t *testing.T) {
		rows := CategoryBreakdown(nil, cats)
		if len(rows) != 0 {
			t.Errorf("got %d rows, want 0", len(rows))
		}
	})

	t.Run("zero grand total yields zero percentages", func(t *testing.T) {
		// Amounts are validated to be positive upstream, but the breakdown
		// itself must never divide by zero.
		rows := CategoryBreakdown([]Transaction{{CategoryID: 1, Amount: 0, Date: time.Now()}}, cats)
		if len(rows) != 1 || rows[0].Percentage != 0 {
			t.Errorf("rows = %+v, want one row at 0%%", rows)
		}
	})
}

func TestFilterByDateRange(t *testing.T) {
	txs := []Transaction{
		tx(1, 1000, "2024-03-01T00:00:00Z"),
		tx(1, 2000, "2024-03-05T23:59:59Z"),
		tx(1, 3000, "2024-03-06T00:00:00Z"),
	}
	start := time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC) // mid-day, start of day applies
	end := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)    // end of day applies

	got := FilterByDateRange(txs, start, end)
	if len(got) != 2 {
		t.Fatalf("got %d transactions, want 2", len(got))
	}
	if got[0].Amount != 1000 || got[1].Amount != 2000 {
		t.Errorf("unexpected filtered set: %+v", got)
	}
}

func TestSummarizeRange(t *testing.T) {
	cats := []Category{{ID: 1, Name: "Makanan & Minuman"}, {ID: 2, Name: "Transport"}}
	txs := []Transaction{
		tx(1, 60000, "2024-03-02T10:00:00Z"),
		tx(2, 40000, "2024-03-03T10:00:00Z"),
		tx(1, 99999, "2024-04-01T10:00:00Z"),
	}

	s := SummarizeRange(txs, cats, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	if math.Abs(s.Total-100000) > 1e-9 {
		t.Errorf("Total = %v, want 100000", s.Total)
	}
	if s.Count != 2 {
		t.Errorf("Count = %d, want 2", s.Count)
	}
	if len(s.Breakdown) != 2 || s.Breakdown[0].Percentage != 60 || s.Breakdown[1].Percentage != 40 {
		t.Errorf("Breakdown = %+v", s.Breakdown)
	}
}
