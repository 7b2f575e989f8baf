package domain

import (
	"fmt"
	"strings"
)

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	TripCreated      TripStatus = "Created"
	TripAssigned     TripStatus = "Assigned"
	TripPlanned      TripStatus = "Planned"
	TripStartTrip    TripStatus = "StartTrip"
	TripStartLoad    TripStatus = "StartLoad"
	TripCompleteLoad TripStatus = "CompleteLoad"
	TripInTransit    TripStatus = "InTransit"
	TripCompleted    TripStatus = "Completed"
	TripCancelled    TripStatus = "Cancelled"
)

var tripStatuses = []TripStatus{
	TripCreated,
	TripAssigned,
	TripPlanned,
	TripStartTrip,
	TripStartLoad,
	TripCompleteLoad,
	TripInTransit,
	TripCompleted,
	TripCancelled,
}

// ParseTripStatus maps a status name onto the closed enumeration.
// Matching ignores case and surrounding whitespace.
func ParseTripStatus(name string) (TripStatus, error) {
	n := strings.TrimSpace(name)
	for _, s := range tripStatuses {
		if strings.EqualFold(n, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: trip status %q", ErrInvalidStatus, name)
}

func (s TripStatus) String() string { return string(s) }

func (s TripStatus) IsValid() bool {
	for _, v := range tripStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are accepted.
func (s TripStatus) IsTerminal() bool {
	return s == TripCompleted || s == TripCancelled
}

// HoldsResources reports whether a trip in this status blocks its vehicle and driver.
func (s TripStatus) HoldsResources() bool {
	return !s.IsTerminal()
}

// CanTransitionTo reports whether an explicit status-advance request may move
// a trip from s to target. Resource preconditions are checked by the caller.
func (s TripStatus) CanTransitionTo(target TripStatus) bool {
	switch s {
	case TripCreated:
		return target == TripAssigned || target == TripCancelled
	case TripPlanned:
		return target == TripCreated || target == TripAssigned || target == TripCancelled
	case TripAssigned:
		switch target {
		case TripCreated, TripStartTrip, TripStartLoad, TripInTransit, TripCancelled:
			return true
		}
		return false
	case TripStartTrip:
		return target == TripStartLoad || target == TripInTransit || target == TripCancelled
	case TripStartLoad:
		return target == TripCompleteLoad || target == TripCancelled
	case TripCompleteLoad:
		return target == TripInTransit || target == TripCancelled
	case TripInTransit:
		return target == TripCompleted
	case TripCompleted, TripCancelled:
		return false
	default:
		return false
	}
}

// DerivedStatus applies the automatic assignment rule used on create and update:
// a Created trip with both resources becomes Assigned, and an Assigned trip
// that loses either resource falls back to Created.
func DerivedStatus(current TripStatus, hasVehicle, hasDriver bool) TripStatus {
	switch {
	case current == TripCreated && hasVehicle && hasDriver:
		return TripAssigned
	case current == TripAssigned && (!hasVehicle || !hasDriver):
		return TripCreated
	default:
		return current
	}
}
