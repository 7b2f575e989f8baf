package repositories

import (
	"context"
	"fmt"
	"manifest-service/internal/domain"
	"manifest-service/internal/ports"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process implementation of ports.Store.
//
// Records live in id-indexed maps (an arena) with secondary indexes for
// trip -> stops, trip -> invoice and trip number. Transactions run one at a
// time against a copy of the state that replaces the original on commit.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	trips          map[string]domain.Trip
	tripNumbers    map[string]string
	stops          map[string]domain.TripStop
	stopsByTrip    map[string][]string
	jobs           map[string]domain.Job
	invoices       map[string]domain.Invoice
	invoiceByTrip  map[string]string
	invoiceNumbers map[string]string
	sequences      map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memState{
		trips:          map[string]domain.Trip{},
		tripNumbers:    map[string]string{},
		stops:          map[string]domain.TripStop{},
		stopsByTrip:    map[string][]string{},
		jobs:           map[string]domain.Job{},
		invoices:       map[string]domain.Invoice{},
		invoiceByTrip:  map[string]string{},
		invoiceNumbers: map[string]string{},
		sequences:      map[string]int{},
	}}
}

func (s *memState) clone() *memState {
	return &memState{
		trips:          maps.Clone(s.trips),
		tripNumbers:    maps.Clone(s.tripNumbers),
		stops:          maps.Clone(s.stops),
		stopsByTrip:    maps.Clone(s.stopsByTrip),
		jobs:           maps.Clone(s.jobs),
		invoices:       maps.Clone(s.invoices),
		invoiceByTrip:  maps.Clone(s.invoiceByTrip),
		invoiceNumbers: maps.Clone(s.invoiceNumbers),
		sequences:      maps.Clone(s.sequences),
	}
}

func (m *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{s: m.state.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.state = tx.s
	return nil
}

// Seed inserts jobs outside any request, for local runs and tests.
func (m *MemoryStore) Seed(jobs ...domain.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range jobs {
		m.state.jobs[j.ID] = j
	}
}

type memTx struct {
	s *memState
}

// Transactions are already serialized by MemoryStore.mu.
func (t *memTx) LockKeys(ctx context.Context, keys ...string) error { return nil }

func (t *memTx) GetTrip(ctx context.Context, id string) (*domain.Trip, error) {
	trip, ok := t.s.trips[id]
	if !ok {
		return nil, fmt.Errorf("trip %q: %w", id, domain.ErrNotFound)
	}
	return copyTrip(trip), nil
}

func (t *memTx) ListTrips(ctx context.Context, f ports.TripFilter) ([]*domain.Trip, error) {
	out := make([]*domain.Trip, 0, len(t.s.trips))
	for _, trip := range t.s.trips {
		if f.Status != "" && trip.Status != f.Status {
			continue
		}
		if f.TripDate != nil && !sameDay(trip.TripDate, *f.TripDate) {
			continue
		}
		if f.VehicleID != "" && trip.VehicleID != f.VehicleID {
			continue
		}
		if f.DriverID != "" && trip.DriverID != f.DriverID {
			continue
		}
		out = append(out, copyTrip(trip))
	}

	slices.SortFunc(out, func(a, b *domain.Trip) int {
		if c := a.TripDate.Compare(b.TripDate); c != 0 {
			return c
		}
		return strings.Compare(a.TripNumber, b.TripNumber)
	})
	return out, nil
}

func (t *memTx) InsertTrip(ctx context.Context, trip *domain.Trip) error {
	if _, ok := t.s.trips[trip.ID]; ok {
		return fmt.Errorf("insert trip: id %q already exists", trip.ID)
	}
	if _, ok := t.s.tripNumbers[trip.TripNumber]; ok {
		return fmt.Errorf("insert trip: trip number %q already exists", trip.TripNumber)
	}
	t.s.trips[trip.ID] = *copyTrip(*trip)
	t.s.tripNumbers[trip.TripNumber] = trip.ID
	return nil
}

func (t *memTx) UpdateTrip(ctx context.Context, trip *domain.Trip) error {
	old, ok := t.s.trips[trip.ID]
	if !ok {
		return fmt.Errorf("trip %q: %w", trip.ID, domain.ErrNotFound)
	}
	if old.TripNumber != trip.TripNumber {
		return fmt.Errorf("update trip: trip number is immutable")
	}
	t.s.trips[trip.ID] = *copyTrip(*trip)
	return nil
}

func (t *memTx) GetStop(ctx context.Context, id string) (*domain.TripStop, error) {
	st, ok := t.s.stops[id]
	if !ok {
		return nil, fmt.Errorf("stop %q: %w", id, domain.ErrNotFound)
	}
	return &st, nil
}

func (t *memTx) ListStops(ctx context.Context, tripID string) ([]domain.TripStop, error) {
	ids := t.s.stopsByTrip[tripID]
	out := make([]domain.TripStop, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.s.stops[id])
	}
	slices.SortFunc(out, func(a, b domain.TripStop) int { return a.SequenceOrder - b.SequenceOrder })
	return out, nil
}

func (t *memTx) ReplaceStops(ctx context.Context, tripID string, stops []domain.TripStop) error {
	if err := checkSequence(stops); err != nil {
		return err
	}
	for _, id := range t.s.stopsByTrip[tripID] {
		delete(t.s.stops, id)
	}
	ids := make([]string, 0, len(stops))
	for _, st := range stops {
		st.TripID = tripID
		t.s.stops[st.ID] = st
		ids = append(ids, st.ID)
	}
	t.s.stopsByTrip[tripID] = ids
	return nil
}

func (t *memTx) UpdateStop(ctx context.Context, stop *domain.TripStop) error {
	if _, ok := t.s.stops[stop.ID]; !ok {
		return fmt.Errorf("stop %q: %w", stop.ID, domain.ErrNotFound)
	}
	t.s.stops[stop.ID] = *stop
	return nil
}

func (t *memTx) ActiveTripForJob(ctx context.Context, jobID, excludeTripID string) (string, error) {
	var numbers []string
	for _, st := range t.s.stops {
		if st.JobID != jobID || st.TripID == excludeTripID {
			continue
		}
		if trip, ok := t.s.trips[st.TripID]; ok && trip.Status.HoldsResources() {
			numbers = append(numbers, trip.TripNumber)
		}
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return slices.Min(numbers), nil
}

func (t *memTx) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	j, ok := t.s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %q: %w", id, domain.ErrNotFound)
	}
	return &j, nil
}

func (t *memTx) InsertJob(ctx context.Context, job *domain.Job) error {
	if _, ok := t.s.jobs[job.ID]; ok {
		return fmt.Errorf("insert job: id %q already exists", job.ID)
	}
	t.s.jobs[job.ID] = *job
	return nil
}

func (t *memTx) UpdateJob(ctx context.Context, job *domain.Job) error {
	if _, ok := t.s.jobs[job.ID]; !ok {
		return fmt.Errorf("job %q: %w", job.ID, domain.ErrNotFound)
	}
	t.s.jobs[job.ID] = *job
	return nil
}

func (t *memTx) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, ok := t.s.invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice %q: %w", id, domain.ErrNotFound)
	}
	return copyInvoice(inv), nil
}

func (t *memTx) GetInvoiceByTrip(ctx context.Context, tripID string) (*domain.Invoice, error) {
	id, ok := t.s.invoiceByTrip[tripID]
	if !ok {
		return nil, fmt.Errorf("invoice for trip %q: %w", tripID, domain.ErrNotFound)
	}
	return t.GetInvoice(ctx, id)
}

func (t *memTx) InsertInvoice(ctx context.Context, inv *domain.Invoice) error {
	if _, ok := t.s.invoiceByTrip[inv.TripID]; ok {
		return fmt.Errorf("trip %q: %w", inv.TripID, domain.ErrInvoiceExists)
	}
	if _, ok := t.s.invoiceNumbers[inv.InvoiceNumber]; ok {
		return fmt.Errorf("insert invoice: number %q already exists", inv.InvoiceNumber)
	}
	t.s.invoices[inv.ID] = *copyInvoice(*inv)
	t.s.invoiceByTrip[inv.TripID] = inv.ID
	t.s.invoiceNumbers[inv.InvoiceNumber] = inv.ID
	return nil
}

func (t *memTx) UpdateInvoice(ctx context.Context, inv *domain.Invoice) error {
	if _, ok := t.s.invoices[inv.ID]; !ok {
		return fmt.Errorf("invoice %q: %w", inv.ID, domain.ErrNotFound)
	}
	t.s.invoices[inv.ID] = *copyInvoice(*inv)
	return nil
}

func (t *memTx) ListBookings(ctx context.Context, kind domain.ResourceKind, resourceID string) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, trip := range t.s.trips {
		if !holdsResource(&trip, kind, resourceID) {
			continue
		}
		if w, ok := trip.Schedule(); ok {
			out = append(out, domain.Booking{TripID: trip.ID, TripStatus: trip.Status, Window: w})
		}
	}
	return out, nil
}

func (t *memTx) NextSequence(ctx context.Context, scope string, day time.Time) (int, error) {
	key := scope + "|" + day.Format("2006-01-02")
	t.s.sequences[key]++
	return t.s.sequences[key], nil
}

func holdsResource(trip *domain.Trip, kind domain.ResourceKind, id string) bool {
	switch kind {
	case domain.ResourceVehicle:
		return trip.VehicleID == id
	case domain.ResourceDriver:
		return trip.DriverID == id
	}
	return false
}

func checkSequence(stops []domain.TripStop) error {
	for i := 1; i < len(stops); i++ {
		if stops[i].SequenceOrder <= stops[i-1].SequenceOrder {
			return fmt.Errorf("stops: sequence order must be strictly increasing (got %d after %d)",
				stops[i].SequenceOrder, stops[i-1].SequenceOrder)
		}
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyTrip(t domain.Trip) *domain.Trip {
	c := t
	c.StartTime = copyTime(t.StartTime)
	c.EndTime = copyTime(t.EndTime)
	c.TimeWindowFrom = copyTime(t.TimeWindowFrom)
	c.TimeWindowTo = copyTime(t.TimeWindowTo)
	c.Packages = make([]domain.Package, len(t.Packages))
	for i, p := range t.Packages {
		c.Packages[i] = p
		if p.Volume != nil {
			v := *p.Volume
			c.Packages[i].Volume = &v
		}
		if p.PalletCount != nil {
			n := *p.PalletCount
			c.Packages[i].PalletCount = &n
		}
	}
	return &c
}

func copyInvoice(inv domain.Invoice) *domain.Invoice {
	c := inv
	c.Lines = slices.Clone(inv.Lines)
	return &c
}
