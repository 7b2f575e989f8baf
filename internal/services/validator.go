package services

import (
	"context"
	"fmt"
	"manifest-service/internal/domain"
	"manifest-service/internal/ports"
	"strings"
	"time"
)

// TripInput is the create/update payload for a trip.
type TripInput struct {
	TripDate       time.Time
	VehicleID      string
	DriverID       string
	StartTime      *time.Time
	EndTime        *time.Time
	TimeWindowFrom *time.Time
	TimeWindowTo   *time.Time
	TruckType      string
	NumberOfTrips  int
	Packages       []domain.Package

	// Jobs to attach as stops, in visiting order. Nil keeps the current stops on update.
	JobIDs []string

	CustomerID    string
	PickupAddress string
	DropAddress   string
	HelperName    string
	RequiresPOD   bool
	Remarks       string
}

const (
	msgVehicleBooked = "vehicle already booked"
	msgDriverBooked  = "driver already booked"
)

// ValidateTrip checks a trip payload and returns every problem found, in rule order.
//
// Rules are independent; one failure never hides another. Conflict checks run
// only when a resource and both times are present, and ignore excludeTripID so
// an update does not collide with its own booking. The returned error is
// reserved for booking lookups that fail.
func ValidateTrip(
	ctx context.Context,
	in TripInput,
	excludeTripID string,
	bookings ports.BookingReader,
) (domain.ValidationErrors, error) {
	var errs domain.ValidationErrors

	if strings.TrimSpace(in.TruckType) == "" {
		errs.Add("truckType", "truck type is required")
	}

	if in.StartTime != nil && in.EndTime != nil && !in.EndTime.After(*in.StartTime) {
		errs.Add("endTime", "end time must be after start time")
	}

	if in.NumberOfTrips < 1 {
		errs.Add("numberOfTrips", "number of trips must be at least 1")
	}

	if in.TimeWindowFrom != nil && in.TimeWindowTo != nil && !in.TimeWindowTo.After(*in.TimeWindowFrom) {
		errs.Add("timeWindowTo", "time window end must be after time window start")
	}

	for i, p := range in.Packages {
		if p.Quantity <= 0 {
			errs.Add(fmt.Sprintf("packages[%d].quantity", i), fmt.Sprintf("package %d: quantity must be greater than 0", i+1))
		}
		if p.IsPallets() && (p.PalletCount == nil || *p.PalletCount <= 0) {
			errs.Add(fmt.Sprintf("packages[%d].palletCount", i), fmt.Sprintf("package %d: pallet count is required for Pallets", i+1))
		}
	}

	window, scheduled := domain.NewInterval(in.StartTime, in.EndTime)

	// An inverted window was already reported above; checking it for overlap
	// would only add noise.
	if scheduled && window.End.After(window.Start) {
		axes := []struct {
			kind  domain.ResourceKind
			id    string
			field string
			msg   string
		}{
			{domain.ResourceVehicle, in.VehicleID, "vehicleId", msgVehicleBooked},
			{domain.ResourceDriver, in.DriverID, "driverId", msgDriverBooked},
		}

		for _, ax := range axes {
			if ax.id == "" {
				continue
			}
			existing, err := bookings.ListBookings(ctx, ax.kind, ax.id)
			if err != nil {
				return nil, fmt.Errorf("validate trip: list %s bookings for %q: %w", ax.kind, ax.id, err)
			}
			if _, clash := domain.FindConflict(window, existing, excludeTripID); clash {
				errs.Add(ax.field, ax.msg)
			}
		}
	}

	return errs, nil
}

// conflictKinds reports which resource axes a validation list rejected.
func conflictKinds(errs domain.ValidationErrors) []domain.ResourceKind {
	var out []domain.ResourceKind
	for _, e := range errs {
		switch e.Message {
		case msgVehicleBooked:
			out = append(out, domain.ResourceVehicle)
		case msgDriverBooked:
			out = append(out, domain.ResourceDriver)
		}
	}
	return out
}
