package ports

import (
	"context"
	"manifest-service/internal/domain"
	"time"
)

// Port: the transactional boundary around every trip and invoice operation.
// Reads and writes made through one Tx commit or roll back together.
type Store interface {
	// Run fn as a single unit of work. A non-nil error from fn rolls back.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Repositories reachable inside a transaction.
type Tx interface {
	TripRepository
	StopRepository
	JobRepository
	InvoiceRepository
	BookingReader
	SequenceAllocator

	// Take transaction-scoped locks on keys such as "vehicle:<id>".
	// Stores that already serialize transactions may treat this as a no-op.
	LockKeys(ctx context.Context, keys ...string) error
}

// Filter for listing trips. Zero values match everything.
type TripFilter struct {
	Status    domain.TripStatus
	TripDate  *time.Time
	VehicleID string
	DriverID  string
}

type TripRepository interface {
	// Return domain.ErrNotFound when no trip has this id.
	GetTrip(ctx context.Context, id string) (*domain.Trip, error)
	ListTrips(ctx context.Context, filter TripFilter) ([]*domain.Trip, error)
	InsertTrip(ctx context.Context, trip *domain.Trip) error
	UpdateTrip(ctx context.Context, trip *domain.Trip) error
}

type StopRepository interface {
	GetStop(ctx context.Context, id string) (*domain.TripStop, error)
	// Return the trip's stops ordered by sequence.
	ListStops(ctx context.Context, tripID string) ([]domain.TripStop, error)
	ReplaceStops(ctx context.Context, tripID string, stops []domain.TripStop) error
	UpdateStop(ctx context.Context, stop *domain.TripStop) error
	// Return the number of a non-terminal trip, other than excludeTripID, that
	// carries the job; "" when there is none.
	ActiveTripForJob(ctx context.Context, jobID, excludeTripID string) (string, error)
}

type JobRepository interface {
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	InsertJob(ctx context.Context, job *domain.Job) error
	UpdateJob(ctx context.Context, job *domain.Job) error
}

type InvoiceRepository interface {
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)
	// Return domain.ErrNotFound when the trip has no invoice yet.
	GetInvoiceByTrip(ctx context.Context, tripID string) (*domain.Invoice, error)
	// Fail with domain.ErrInvoiceExists when the trip already has one.
	InsertInvoice(ctx context.Context, inv *domain.Invoice) error
	// Overwrite the header and replace all lines.
	UpdateInvoice(ctx context.Context, inv *domain.Invoice) error
}

// Read side of resource booking used by the conflict check.
type BookingReader interface {
	// Return every trip window booked on the resource, including terminal trips;
	// filtering by status is the caller's decision.
	ListBookings(ctx context.Context, kind domain.ResourceKind, resourceID string) ([]domain.Booking, error)
}

// Monotonic counter per (scope, day), allocated inside the inserting transaction.
type SequenceAllocator interface {
	NextSequence(ctx context.Context, scope string, day time.Time) (int, error)
}
