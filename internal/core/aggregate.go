// Package core holds the domain types and the pure aggregation functions
// computed over them. Aggregates are always re-derived from the transaction
// set; nothing here performs I/O or caches results.
package core

import (
	"math"
	"sort"
	"time"
)

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	CategoryID int64
	Name       string
	Total      float64
	Percentage int // of the grand total, rounded
}

// RangeSummary bundles the figures the analysis view needs for a date range.
type RangeSummary struct {
	Total     float64
	Count     int
	Breakdown []CategoryTotal
}

// TotalForMonth sums the amounts of all transactions whose date falls in the
// same calendar year and month as ref, using the stored date as-is.
func TotalForMonth(txs []Transaction, ref time.Time) float64 {
	var total float64
	for _, t := range txs {
		if t.Date.Year() == ref.Year() && t.Date.Month() == ref.Month() {
			total += t.Amount
		}
	}
	return total
}

// WeekStart returns the Monday of ref's week, truncated to the start of day.
// A Sunday belongs to the week that started six days earlier.
func WeekStart(ref time.Time) time.Time {
	offset := int(ref.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	return day.AddDate(0, 0, -offset)
}

// TotalForWeek sums the amounts of all transactions dated on or after the
// Monday of ref's week through now: a rolling current-week total, not a
// fixed historical window.
func TotalForWeek(txs []Transaction, ref, now time.Time) float64 {
	start := WeekStart(ref)
	var total float64
	for _, t := range txs {
		if !t.Date.Before(start) && !t.Date.After(now) {
			total += t.Amount
		}
	}
	return total
}

// CategoryBreakdown groups txs by category, sums each group, and computes
// each group's rounded percentage of the grand total. The denominator is
// floored at 1 so an empty or zero-total set yields 0% rather than NaN.
// Rows come back sorted by total descending; ties keep first-seen order.
func CategoryBreakdown(txs []Transaction, categories []Category) []CategoryTotal {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	totals := make(map[int64]float64)
	var order []int64
	var grand float64
	for _, t := range txs {
		if _, seen := totals[t.CategoryID]; !seen {
			order = append(order, t.CategoryID)
		}
		totals[t.CategoryID] += t.Amount
		grand += t.Amount
	}

	denom := grand
	if denom < 1 {
		denom = 1
	}

	rows := make([]CategoryTotal, 0, len(order))
	for _, id := range order {
		rows = append(rows, CategoryTotal{
			CategoryID: id,
			Name:       names[id],
			Total:      totals[id],
			Percentage: int(math.Round(totals[id] / denom * 100)),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Total > rows[j].Total })
	return rows
}

// FilterByDateRange keeps transactions dated within [start-of-day(start),
// end-of-day(end)], both ends inclusive.
func FilterByDateRange(txs []Transaction, start, end time.Time) []Transaction {
	lo := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	hi := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), end.Location())

	var out []Transaction
	for _, t := range txs {
		if !t.Date.Before(lo) && !t.Date.After(hi) {
			out = append(out, t)
		}
	}
	return out
}

// SummarizeRange filters txs to the inclusive day range and computes the
// total plus the per-category breakdown in one pass for the analysis view.
func SummarizeRange(txs []Transaction, categories []Category, start, end time.Time) RangeSummary {
	filtered := FilterByDateRange(txs, start, end)
	var total float64
	for _, t := range filtered {
		total += t.Amount
	}
	return RangeSummary{
		Total:     total,
		Count:     len(filtered),
		Breakdown: CategoryBreakdown(filtered, categories),
	}
}
