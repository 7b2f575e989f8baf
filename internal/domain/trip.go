package domain

import (
	"fmt"
	"time"
)

// Trip (manifest) aggregate: one vehicle and driver assignment carrying jobs
// over a scheduled window. Stops and the invoice are looked up by trip id.
type Trip struct {
	ID             string
	TripNumber     string
	TripDate       time.Time
	Status         TripStatus
	VehicleID      string
	DriverID       string
	StartTime      *time.Time
	EndTime        *time.Time
	TimeWindowFrom *time.Time
	TimeWindowTo   *time.Time
	TruckType      string
	NumberOfTrips  int
	Packages       []Package

	CustomerID    string
	PickupAddress string
	DropAddress   string
	HelperName    string
	RequiresPOD   bool
	PODURL        string
	Remarks       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *Trip) HasVehicle() bool { return t.VehicleID != "" }
func (t *Trip) HasDriver() bool  { return t.DriverID != "" }

// Schedule returns the trip's booked window, if both times are set.
func (t *Trip) Schedule() (Interval, bool) {
	return NewInterval(t.StartTime, t.EndTime)
}

// ApplyDerivedStatus runs the automatic Created <-> Assigned rule.
func (t *Trip) ApplyDerivedStatus() {
	t.Status = DerivedStatus(t.Status, t.HasVehicle(), t.HasDriver())
}

// Advance applies an explicit status transition and its timestamp side effects.
// Job cascades are handled by the caller.
func (t *Trip) Advance(target TripStatus, now time.Time) error {
	if !target.IsValid() {
		return fmt.Errorf("%w: trip status %q", ErrInvalidStatus, target)
	}
	if !t.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, t.Status, target)
	}
	if target == TripAssigned && (!t.HasVehicle() || !t.HasDriver()) {
		return fmt.Errorf("%w: %s -> %s requires vehicle and driver", ErrTransitionNotAllowed, t.Status, target)
	}

	switch target {
	case TripStartTrip, TripInTransit:
		if t.StartTime == nil {
			ts := now
			t.StartTime = &ts
		}
	case TripCompleted:
		// EndTime records the actual completion. A scheduled StartTime later
		// than now is kept, so a trip closed early can end before it was due to start.
		ts := now
		t.EndTime = &ts
	}

	t.Status = target
	t.UpdatedAt = now
	return nil
}
