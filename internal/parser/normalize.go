// Package parser is the boundary between the core and the external
// LLM-based extraction collaborator. The Gemini client produces raw
// candidate records; nothing from it reaches the record store without
// passing through the normalizer here.
package parser

import (
	"fmt"
	"strings"

	"github.com/sabilulmuttaqin/myuang/internal/core"
)

// FallbackCategory is used when no category exists at all. "Lainnya" is
// the catch-all bucket from the default category set.
const FallbackCategory = "Lainnya"

// Candidate is one raw record as returned by the external parser. All
// fields are untrusted.
type Candidate struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// NormalizeCategory maps a parser-suggested category onto the user's actual
// category set: exact match first, then case-insensitive, then the first
// available category, then the fallback sentinel.
func NormalizeCategory(raw string, available []string) string {
	for _, c := range available {
		if c == raw {
			return c
		}
	}
	for _, c := range available {
		if strings.EqualFold(c, raw) {
			return c
		}
	}
	if len(available) > 0 {
		return available[0]
	}
	return FallbackCategory
}

// Normalize validates and cleans up raw candidates: drops records with an
// empty name or non-positive amount, normalizes categories against the
// available set, and merges duplicates (by trimmed, case-folded name) by
// summing their amounts and suffixing the display name with the count.
// Input order is preserved for the surviving records.
func Normalize(candidates []Candidate, available []string) []core.ParsedExpense {
	type merged struct {
		expense core.ParsedExpense
		count   int
	}

	byName := make(map[string]*merged)
	var order []string

	for _, cand := range candidates {
		name := strings.TrimSpace(cand.Name)
		if name == "" || cand.Amount <= 0 {
			continue
		}

		key := strings.ToLower(name)
		if m, ok := byName[key]; ok {
			m.expense.Amount += cand.Amount
			m.count++
			continue
		}

		byName[key] = &merged{
			expense: core.ParsedExpense{
				Name:     prettifyName(name),
				Category: NormalizeCategory(cand.Category, available),
				Amount:   cand.Amount,
			},
			count: 1,
		}
		order = append(order, key)
	}

	out := make([]core.ParsedExpense, 0, len(order))
	for _, key := range order {
		m := byName[key]
		e := m.expense
		if m.count > 1 {
			e.Name = fmt.Sprintf("%s (x%d)", e.Name, m.count)
		}
		out = append(out, e)
	}
	return out
}

// prettifyName title-cases names that came in all upper or all lower case;
// mixed-case names are assumed intentional and kept.
func prettifyName(name string) string {
	if name != strings.ToUpper(name) && name != strings.ToLower(name) {
		return name
	}

	words := strings.Fields(strings.ToLower(name))
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
