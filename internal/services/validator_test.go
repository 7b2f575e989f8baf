package services

import (
	"context"
	"manifest-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookings map[string][]domain.Booking

func (f fakeBookings) ListBookings(_ context.Context, kind domain.ResourceKind, id string) ([]domain.Booking, error) {
	return f[string(kind)+":"+id], nil
}

func TestValidateTrip_ReportsEveryRuleInOrder(t *testing.T) {
	zero := 0
	in := TripInput{
		StartTime:      at(10, 0),
		EndTime:        at(9, 0),
		TimeWindowFrom: at(12, 0),
		TimeWindowTo:   at(12, 0),
		NumberOfTrips:  0,
		Packages: []domain.Package{
			{PackageType: "Carton", Quantity: 0},
			{PackageType: domain.PackageTypePallets, Quantity: 2, PalletCount: &zero},
		},
	}

	errs, err := ValidateTrip(context.Background(), in, "", fakeBookings{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"truck type is required",
		"end time must be after start time",
		"number of trips must be at least 1",
		"time window end must be after time window start",
		"package 1: quantity must be greater than 0",
		"package 2: pallet count is required for Pallets",
	}, errs.Messages())
}

func TestValidateTrip_Conflicts(t *testing.T) {
	bookings := fakeBookings{
		"vehicle:V1": {{TripID: "A", TripStatus: domain.TripAssigned, Window: domain.Interval{Start: *at(9, 0), End: *at(11, 0)}}},
		"driver:D1":  {{TripID: "B", TripStatus: domain.TripInTransit, Window: domain.Interval{Start: *at(10, 0), End: *at(12, 0)}}},
		"driver:D2":  {{TripID: "C", TripStatus: domain.TripCompleted, Window: domain.Interval{Start: *at(10, 0), End: *at(12, 0)}}},
	}

	tests := []struct {
		name    string
		vehicle string
		driver  string
		start   int
		end     int
		exclude string
		want    []string
	}{
		{"touching vehicle window is free", "V1", "", 11, 13, "", nil},
		{"overlapping vehicle", "V1", "", 10, 12, "", []string{msgVehicleBooked}},
		{"overlapping driver", "V9", "D1", 11, 13, "", []string{msgDriverBooked}},
		{"both axes", "V1", "D1", 10, 11, "", []string{msgVehicleBooked, msgDriverBooked}},
		{"completed trip holds nothing", "", "D2", 10, 12, "", nil},
		{"own booking is excluded", "V1", "", 9, 11, "A", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := TripInput{
				VehicleID:     tt.vehicle,
				DriverID:      tt.driver,
				StartTime:     at(tt.start, 0),
				EndTime:       at(tt.end, 0),
				TruckType:     "14FT",
				NumberOfTrips: 1,
			}
			errs, err := ValidateTrip(context.Background(), in, tt.exclude, bookings)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.want, errs.Messages())
		})
	}
}

func TestValidateTrip_UnscheduledSkipsConflicts(t *testing.T) {
	bookings := fakeBookings{
		"vehicle:V1": {{TripID: "A", TripStatus: domain.TripAssigned, Window: domain.Interval{Start: *at(0, 0), End: *at(23, 0)}}},
	}
	in := TripInput{VehicleID: "V1", StartTime: at(10, 0), TruckType: "14FT", NumberOfTrips: 1}

	errs, err := ValidateTrip(context.Background(), in, "", bookings)
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestConflictKinds(t *testing.T) {
	var errs domain.ValidationErrors
	errs.Add("truckType", "truck type is required")
	errs.Add("driverId", msgDriverBooked)

	assert.Equal(t, []domain.ResourceKind{domain.ResourceDriver}, conflictKinds(errs))
}
