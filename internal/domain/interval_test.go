package domain

import (
	"testing"
	"time"
)

func at(h, m int) time.Time {
	return time.Date(2026, 1, 1, h, m, 0, 0, time.UTC)
}

func span(h1, h2 int) Interval {
	return Interval{Start: at(h1, 0), End: at(h2, 0)}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"touching", span(0, 10), span(10, 20), false},
		{"partial", span(0, 10), span(5, 15), true},
		{"zero width at end", span(0, 10), span(10, 10), false},
		{"zero width inside", span(0, 10), span(5, 5), false},
		{"contained", span(0, 10), span(2, 3), true},
		{"identical", span(9, 12), span(9, 12), true},
		{"disjoint", span(0, 2), span(5, 7), false},
		{"inverted inside", span(0, 10), span(6, 4), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps(a, b) = %v, want %v", got, tt.want)
			}
			// Symmetric for every pair.
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps(b, a) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewIntervalRequiresBothBounds(t *testing.T) {
	s := at(9, 0)
	if _, ok := NewInterval(&s, nil); ok {
		t.Fatal("expected no interval when end is missing")
	}
	if _, ok := NewInterval(nil, &s); ok {
		t.Fatal("expected no interval when start is missing")
	}
}

func TestFindConflict(t *testing.T) {
	candidate := span(9, 12)

	t.Run("terminal trips never conflict", func(t *testing.T) {
		bookings := []Booking{
			{TripID: "a", TripStatus: TripCancelled, Window: span(0, 23)},
			{TripID: "b", TripStatus: TripCompleted, Window: span(9, 12)},
		}
		if b, ok := FindConflict(candidate, bookings, ""); ok {
			t.Fatalf("unexpected conflict with trip %s", b.TripID)
		}
	})

	t.Run("excluded trip is ignored", func(t *testing.T) {
		bookings := []Booking{{TripID: "self", TripStatus: TripAssigned, Window: span(9, 12)}}
		if _, ok := FindConflict(candidate, bookings, "self"); ok {
			t.Fatal("trip conflicted with itself")
		}
	})

	t.Run("zero width inside a booking is free", func(t *testing.T) {
		point := Interval{Start: at(10, 0), End: at(10, 0)}
		bookings := []Booking{{TripID: "a", TripStatus: TripAssigned, Window: span(9, 12)}}
		if b, ok := FindConflict(point, bookings, ""); ok {
			t.Fatalf("unexpected conflict with trip %s", b.TripID)
		}
	})

	t.Run("active overlap is reported", func(t *testing.T) {
		bookings := []Booking{
			{TripID: "early", TripStatus: TripAssigned, Window: span(6, 9)},
			{TripID: "late", TripStatus: TripInTransit, Window: span(11, 13)},
		}
		b, ok := FindConflict(candidate, bookings, "")
		if !ok {
			t.Fatal("expected conflict")
		}
		if b.TripID != "late" {
			t.Fatalf("conflict trip = %q, want %q", b.TripID, "late")
		}
	})
}
