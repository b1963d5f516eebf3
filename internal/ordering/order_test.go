package ordering

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func ptr(f float64) *float64 { return &f }

func sib(id uuid.UUID, order *float64, created time.Time) Sibling {
	return Sibling{ID: id, Order: order, CreatedAt: created}
}

var (
	s1 = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	s2 = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002")
	s3 = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000003")
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNextOrderHead(t *testing.T) {
	tests := []struct {
		name     string
		siblings []Sibling
		want     float64
	}{
		{name: "empty scope gets default step", siblings: nil, want: DefaultStep},
		{
			name:     "half of current minimum",
			siblings: []Sibling{sib(s1, ptr(20), t0), sib(s2, ptr(40), t0)},
			want:     10,
		},
		{
			name:     "stays strictly below a small minimum",
			siblings: []Sibling{sib(s1, ptr(0.5), t0)},
			want:     0.25,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextOrder(tt.siblings, nil)
			if err != nil {
				t.Fatalf("NextOrder error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NextOrder = %v, want %v", got, tt.want)
			}
			// Head insert must be strictly below every existing sibling and
			// never zero, so a later head insert still has room.
			if got == 0 {
				t.Error("head insert produced zero order")
			}
			for _, s := range tt.siblings {
				if s.Order != nil && got >= *s.Order {
					t.Errorf("head order %v not below sibling order %v", got, *s.Order)
				}
			}
		})
	}
}

func TestNextOrderAfterSibling(t *testing.T) {
	siblings := []Sibling{
		sib(s1, ptr(20), t0),
		sib(s2, ptr(40), t0),
		sib(s3, ptr(60), t0),
	}

	tests := []struct {
		name     string
		previous uuid.UUID
		want     float64
	}{
		{name: "midpoint between neighbours", previous: s1, want: 30},
		{name: "tail gets previous plus two steps", previous: s3, want: 60 + 2*DefaultStep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextOrder(siblings, &tt.previous)
			if err != nil {
				t.Fatalf("NextOrder error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NextOrder = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextOrderErrors(t *testing.T) {
	siblings := []Sibling{sib(s1, nil, t0)}

	missing := s3
	if _, err := NextOrder(siblings, &missing); err == nil {
		t.Error("unknown previous sibling: want error")
	}
	if _, err := NextOrder(siblings, &s1); err == nil {
		t.Error("previous sibling without order: want error")
	}
}

func TestNeedsRescale(t *testing.T) {
	tests := []struct {
		name     string
		siblings []Sibling
		want     bool
	}{
		{name: "empty", siblings: nil, want: false},
		{
			name:     "well spaced",
			siblings: []Sibling{sib(s1, ptr(20), t0), sib(s2, ptr(40), t0)},
			want:     false,
		},
		{
			name:     "null order",
			siblings: []Sibling{sib(s1, ptr(20), t0), sib(s2, nil, t0)},
			want:     true,
		},
		{
			name:     "zero order",
			siblings: []Sibling{sib(s1, ptr(0), t0)},
			want:     true,
		},
		{
			name:     "duplicate orders",
			siblings: []Sibling{sib(s1, ptr(20), t0), sib(s2, ptr(20), t0)},
			want:     true,
		},
		{
			name:     "gap below threshold",
			siblings: []Sibling{sib(s1, ptr(20), t0), sib(s2, ptr(20.05), t0)},
			want:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsRescale(tt.siblings); got != tt.want {
				t.Errorf("NeedsRescale = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRescale(t *testing.T) {
	siblings := []Sibling{
		sib(s1, ptr(5), t0.Add(2*time.Hour)),
		sib(s2, ptr(5), t0),              // equal order, older -> comes first
		sib(s3, nil, t0.Add(1*time.Hour)), // unranked -> last
	}

	got := Rescale(siblings)
	if len(got) != 3 {
		t.Fatalf("Rescale returned %d assignments, want 3", len(got))
	}

	wantIDs := []uuid.UUID{s2, s1, s3}
	for i, a := range got {
		if a.ID != wantIDs[i] {
			t.Errorf("position %d = %s, want %s", i, a.ID, wantIDs[i])
		}
		want := DefaultStep * float64(i+1)
		if a.Order != want {
			t.Errorf("order at %d = %v, want %v", i, a.Order, want)
		}
	}

	// No two assignments share a rank and relative order is ascending.
	for i := 1; i < len(got); i++ {
		if got[i].Order <= got[i-1].Order {
			t.Errorf("assignments not strictly increasing at %d", i)
		}
	}
}
