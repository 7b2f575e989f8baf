package services

import (
	"manifest-service/internal/adapters/lock"
	"manifest-service/internal/adapters/repositories"
	"manifest-service/internal/config"
	"manifest-service/internal/domain"
	"manifest-service/internal/platform/clock"
	"manifest-service/internal/platform/metrics"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var tripDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

// at returns a pointer to tripDay at hh:mm.
func at(hh, mm int) *time.Time {
	t := tripDay.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
	return &t
}

type fixture struct {
	store    *repositories.MemoryStore
	clock    *clock.FakeClock
	metrics  *metrics.Metrics
	trips    *TripService
	invoices *InvoiceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repositories.NewMemoryStore()
	store.Seed(
		domain.Job{ID: "J1", Status: domain.JobReceived},
		domain.Job{ID: "J2", Status: domain.JobReceived},
		domain.Job{ID: "J3", Status: domain.JobReceived},
	)
	locker := lock.NewMemoryLocker(time.Second)
	clk := clock.Fake(tripDay.Add(7 * time.Hour))
	m := metrics.New(prometheus.NewRegistry())

	return &fixture{
		store:    store,
		clock:    clk,
		metrics:  m,
		trips:    NewTripService(store, locker, clk, nil, m),
		invoices: NewInvoiceService(store, locker, clk, config.DefaultTariff(), m),
	}
}

func baseInput() TripInput {
	return TripInput{
		TripDate:      tripDay,
		VehicleID:     "V1",
		DriverID:      "D1",
		StartTime:     at(9, 0),
		EndTime:       at(11, 0),
		TruckType:     "14FT",
		NumberOfTrips: 1,
	}
}
