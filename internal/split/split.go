// Package split implements the split-bill allocation algorithm: dividing
// each line item's cost evenly across the members assigned to it and
// summing every member's share across the bill.
package split

import (
	"fmt"
	"math"

	"github.com/sabilulmuttaqin/myuang/internal/core"
)

// Member is one participant in a bill under construction. ID is a transient
// identifier used in item assignments; it is not persisted.
type Member struct {
	ID   string
	Name string
	IsMe bool
}

// Result is the outcome of allocating a set of line items.
type Result struct {
	// Shares maps member ID to that member's exact (unrounded) total.
	Shares map[string]float64

	// Total is the sum of all item amounts, independent of assignment
	// completeness. It can exceed the sum of shares when items are left
	// unassigned.
	Total float64

	// Unassigned counts items with no assigned member. Their cost is
	// excluded from every share; callers should warn the user.
	Unassigned int
}

// ComputeShares allocates each item's amount evenly across its assigned
// members and accumulates per-member totals. Accumulation is unrounded so
// rounding error cannot compound across items; apply RoundShare only to the
// final figure that is displayed or persisted.
//
// The result is independent of the order of items and members.
func ComputeShares(items []core.BillLineItem, members []Member) (Result, error) {
	if len(members) == 0 {
		return Result{}, fmt.Errorf("must have at least one member")
	}

	res := Result{Shares: make(map[string]float64, len(members))}
	for _, m := range members {
		res.Shares[m.ID] = 0
	}

	for _, item := range items {
		res.Total += item.Amount

		if len(item.AssignedTo) == 0 {
			res.Unassigned++
			continue
		}

		perMember := item.Amount / float64(len(item.AssignedTo))
		for _, id := range item.AssignedTo {
			if _, ok := res.Shares[id]; ok {
				res.Shares[id] += perMember
			}
		}
	}

	return res, nil
}

// RoundShare rounds a computed share up to the nearest whole currency unit,
// the form in which member shares are displayed and persisted.
func RoundShare(share float64) float64 {
	return math.Ceil(share)
}
