package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseTripStatus(t *testing.T) {
	got, err := ParseTripStatus("  intransit ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != TripInTransit {
		t.Fatalf("status = %q, want %q", got, TripInTransit)
	}

	if _, err := ParseTripStatus("Teleported"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestTripStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from TripStatus
		to   TripStatus
		want bool
	}{
		{TripCreated, TripAssigned, true},
		{TripCreated, TripInTransit, false},
		{TripPlanned, TripAssigned, true},
		{TripAssigned, TripStartTrip, true},
		{TripAssigned, TripInTransit, true},
		{TripAssigned, TripCompleted, false},
		{TripStartTrip, TripStartLoad, true},
		{TripStartLoad, TripCompleteLoad, true},
		{TripStartLoad, TripInTransit, false},
		{TripCompleteLoad, TripInTransit, true},
		{TripInTransit, TripCompleted, true},
		{TripInTransit, TripCancelled, false},
		{TripCompleted, TripCancelled, false},
		{TripCancelled, TripCreated, false},
		{TripAssigned, TripAssigned, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s.CanTransitionTo(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestDerivedStatus(t *testing.T) {
	tests := []struct {
		name            string
		current         TripStatus
		vehicle, driver bool
		want            TripStatus
	}{
		{"created with both resources", TripCreated, true, true, TripAssigned},
		{"created with vehicle only", TripCreated, true, false, TripCreated},
		{"assigned loses driver", TripAssigned, true, false, TripCreated},
		{"assigned loses vehicle", TripAssigned, false, true, TripCreated},
		{"planned is untouched", TripPlanned, true, true, TripPlanned},
		{"in transit is untouched", TripInTransit, false, false, TripInTransit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DerivedStatus(tt.current, tt.vehicle, tt.driver); got != tt.want {
				t.Errorf("DerivedStatus = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTripAdvanceTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)

	trip := &Trip{Status: TripAssigned, VehicleID: "v1", DriverID: "d1"}
	if err := trip.Advance(TripInTransit, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.StartTime == nil || !trip.StartTime.Equal(now) {
		t.Fatalf("StartTime = %v, want %v", trip.StartTime, now)
	}

	later := now.Add(3 * time.Hour)
	if err := trip.Advance(TripCompleted, later); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.EndTime == nil || !trip.EndTime.Equal(later) {
		t.Fatalf("EndTime = %v, want %v", trip.EndTime, later)
	}
	if !trip.StartTime.Equal(now) {
		t.Fatalf("StartTime changed on completion: %v", trip.StartTime)
	}

	if err := trip.Advance(TripCancelled, later); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("err = %v, want ErrTransitionNotAllowed", err)
	}
}

func TestTripAdvanceKeepsExistingStart(t *testing.T) {
	planned := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	now := planned.Add(time.Hour)

	trip := &Trip{Status: TripAssigned, VehicleID: "v1", DriverID: "d1", StartTime: &planned}
	if err := trip.Advance(TripStartTrip, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !trip.StartTime.Equal(planned) {
		t.Fatalf("StartTime = %v, want %v", trip.StartTime, planned)
	}
}

func TestTripCompletedBeforeScheduledStart(t *testing.T) {
	scheduled := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	plannedEnd := scheduled.Add(2 * time.Hour)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	trip := &Trip{Status: TripAssigned, VehicleID: "v1", DriverID: "d1", StartTime: &scheduled, EndTime: &plannedEnd}
	if err := trip.Advance(TripInTransit, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := trip.Advance(TripCompleted, now.Add(time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !trip.StartTime.Equal(scheduled) {
		t.Fatalf("StartTime = %v, want %v", trip.StartTime, scheduled)
	}
	if want := now.Add(time.Hour); !trip.EndTime.Equal(want) {
		t.Fatalf("EndTime = %v, want %v", trip.EndTime, want)
	}
	// A completed trip no longer blocks its vehicle, so the inverted window is inert.
	if trip.Status.HoldsResources() {
		t.Fatal("completed trip still holds resources")
	}
}

func TestTripAdvanceAssignedNeedsResources(t *testing.T) {
	trip := &Trip{Status: TripPlanned, VehicleID: "v1"}
	err := trip.Advance(TripAssigned, time.Now())
	if !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("err = %v, want ErrTransitionNotAllowed", err)
	}
	if trip.Status != TripPlanned {
		t.Fatalf("status = %q, want %q", trip.Status, TripPlanned)
	}
}
