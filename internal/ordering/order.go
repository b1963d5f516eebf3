// Package ordering computes fractional sibling ranks. New or relocated
// siblings get a value between their neighbours so existing rows never need
// renumbering on the common path; a rescale pass reassigns evenly spaced
// values when the scope degenerates.
package ordering

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultStep is the base spacing between sibling ranks and the rank of
	// the first child of an empty scope.
	DefaultStep = 20.0

	// MinGap is the smallest tolerated distance between adjacent sibling
	// ranks before the scope needs a rescale.
	MinGap = 0.1
)

// Sibling is the slice of an item the allocator needs: its id, nullable rank
// and creation time (the tiebreak for equal or missing ranks).
type Sibling struct {
	ID        uuid.UUID
	Order     *float64
	CreatedAt time.Time
}

// Assignment is a new rank for one sibling, produced by Rescale.
type Assignment struct {
	ID    uuid.UUID
	Order float64
}

// NextOrder computes the rank for an item inserted into the scope described
// by siblings. A nil previousID means insert at the head: the result is half
// the current minimum, or DefaultStep for an empty scope, and never zero so
// a future head-insert still has room. With a previousID the result is the
// midpoint between that sibling and the next higher rank, falling back to
// previous + 2*DefaultStep at the tail.
func NextOrder(siblings []Sibling, previousID *uuid.UUID) (float64, error) {
	if previousID == nil {
		min := math.Inf(1)
		for _, s := range siblings {
			if s.Order != nil && *s.Order < min {
				min = *s.Order
			}
		}
		if math.IsInf(min, 1) {
			return DefaultStep, nil
		}
		return min / 2, nil
	}

	var previous *Sibling
	for i := range siblings {
		if siblings[i].ID == *previousID {
			previous = &siblings[i]
			break
		}
	}
	if previous == nil {
		return 0, fmt.Errorf("previous sibling %s not in scope", previousID)
	}
	if previous.Order == nil {
		return 0, fmt.Errorf("previous sibling %s has no order", previousID)
	}

	next := math.Inf(1)
	for _, s := range siblings {
		if s.Order != nil && *s.Order > *previous.Order && *s.Order < next {
			next = *s.Order
		}
	}
	if math.IsInf(next, 1) {
		return *previous.Order + 2*DefaultStep, nil
	}
	return (*previous.Order + next) / 2, nil
}

// NeedsRescale reports whether the scope ordering has degenerated: a missing
// or zero rank, two equal ranks, or adjacent ranks closer than MinGap.
func NeedsRescale(siblings []Sibling) bool {
	orders := make([]float64, 0, len(siblings))
	for _, s := range siblings {
		if s.Order == nil || *s.Order == 0 {
			return true
		}
		orders = append(orders, *s.Order)
	}
	sort.Float64s(orders)
	for i := 1; i < len(orders); i++ {
		if orders[i]-orders[i-1] < MinGap {
			return true
		}
	}
	return false
}

// Rescale reassigns evenly spaced ranks (DefaultStep, 2*DefaultStep, ...)
// preserving the current relative order. Siblings with equal or missing
// ranks are tie-broken by creation time, oldest first. The returned
// assignments must all be applied; a partial write corrupts display order.
func Rescale(siblings []Sibling) []Assignment {
	sorted := make([]Sibling, len(siblings))
	copy(sorted, siblings)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.Order == nil && b.Order == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.Order == nil:
			return false // unranked siblings sink to the end
		case b.Order == nil:
			return true
		case *a.Order != *b.Order:
			return *a.Order < *b.Order
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})

	assignments := make([]Assignment, len(sorted))
	for i, s := range sorted {
		assignments[i] = Assignment{ID: s.ID, Order: DefaultStep * float64(i+1)}
	}
	return assignments
}
