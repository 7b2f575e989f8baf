package domain

import "time"

// Half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval returns the interval for an optional start/end pair.
// ok is false when either bound is missing; unscheduled trips hold no resources.
func NewInterval(start, end *time.Time) (Interval, bool) {
	if start == nil || end == nil {
		return Interval{}, false
	}
	return Interval{Start: *start, End: *end}, true
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching intervals (a.End == b.Start) do not overlap, and an empty or
// inverted interval overlaps nothing.
func Overlaps(a, b Interval) bool {
	if a.Empty() || b.Empty() {
		return false
	}
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// Empty reports whether the interval contains no instant.
func (i Interval) Empty() bool {
	return !i.Start.Before(i.End)
}

// ResourceKind names the fleet axis a booking occupies.
type ResourceKind string

const (
	ResourceVehicle ResourceKind = "vehicle"
	ResourceDriver  ResourceKind = "driver"
)

// Booking is one trip's claim on a vehicle or driver over a window.
type Booking struct {
	TripID     string
	TripStatus TripStatus
	Window     Interval
}

// FindConflict returns the first booking that overlaps candidate.
// The trip being edited and trips that no longer hold resources are ignored.
func FindConflict(candidate Interval, bookings []Booking, excludeTripID string) (Booking, bool) {
	for _, b := range bookings {
		if excludeTripID != "" && b.TripID == excludeTripID {
			continue
		}
		if !b.TripStatus.HoldsResources() {
			continue
		}
		if Overlaps(b.Window, candidate) {
			return b, true
		}
	}
	return Booking{}, false
}
