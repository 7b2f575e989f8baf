package services

import (
	"context"
	"errors"
	"fmt"
	"manifest-service/internal/domain"
	"manifest-service/internal/platform/clock"
	"manifest-service/internal/platform/metrics"
	"manifest-service/internal/platform/obs"
	"manifest-service/internal/ports"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TripView is a trip together with its stops, in sequence order.
type TripView struct {
	Trip  *domain.Trip
	Stops []domain.TripStop
}

// TripService plans trips, edits them and drives their status.
type TripService struct {
	uow     unitOfWork
	store   ports.Store
	clock   clock.Clock
	pod     ports.PODStorage
	metrics *metrics.Metrics
}

func NewTripService(
	store ports.Store,
	locker ports.Locker,
	clk clock.Clock,
	pod ports.PODStorage,
	m *metrics.Metrics,
) *TripService {
	if m == nil {
		m = metrics.Nop()
	}
	return &TripService{
		uow:     unitOfWork{store: store, locker: locker},
		store:   store,
		clock:   clk,
		pod:     pod,
		metrics: m,
	}
}

// CreateTrip validates and stores a new trip. Validation problems come back
// as domain.ValidationErrors and nothing is saved.
func (s *TripService) CreateTrip(ctx context.Context, in TripInput) (_ *TripView, err error) {
	defer obs.Time(ctx, "trips.Create")(&err)

	keys := []string{
		resourceKey(domain.ResourceVehicle, in.VehicleID),
		resourceKey(domain.ResourceDriver, in.DriverID),
	}
	for _, id := range in.JobIDs {
		keys = append(keys, jobKey(id))
	}

	var view *TripView
	err = s.uow.run(ctx, keys, func(ctx context.Context, tx ports.Tx) error {
		verrs, err := ValidateTrip(ctx, in, "", tx)
		if err != nil {
			return err
		}
		if err := checkJobs(ctx, tx, in.JobIDs, "", &verrs); err != nil {
			return err
		}
		if len(verrs) > 0 {
			s.recordRejects("create", verrs)
			return verrs
		}

		now := s.clock.Now()
		trip := &domain.Trip{
			ID:        uuid.NewString(),
			Status:    domain.TripCreated,
			CreatedAt: now,
			UpdatedAt: now,
		}
		applyInput(trip, in)
		if trip.TripDate.IsZero() {
			trip.TripDate = dateOnly(now)
		}
		trip.ApplyDerivedStatus()

		seq, err := tx.NextSequence(ctx, "trip", trip.TripDate)
		if err != nil {
			return fmt.Errorf("allocate trip number: %w", err)
		}
		trip.TripNumber = formatNumber("TRP", trip.TripDate, seq)

		if err := tx.InsertTrip(ctx, trip); err != nil {
			return fmt.Errorf("insert trip: %w", err)
		}

		stops := buildStops(trip.ID, in.JobIDs)
		if err := tx.ReplaceStops(ctx, trip.ID, stops); err != nil {
			return fmt.Errorf("insert stops: %w", err)
		}

		view = &TripView{Trip: trip, Stops: stops}
		return nil
	})
	if err != nil {
		return nil, wrapUnlessValidation("create trip", err)
	}
	return view, nil
}

// UpdateTrip replaces the editable fields of a trip, re-running validation with
// the trip itself excluded from conflict checks.
// The trip number allocated at creation is kept even when tripDate changes.
func (s *TripService) UpdateTrip(ctx context.Context, id string, in TripInput) (_ *TripView, err error) {
	defer obs.Time(ctx, "trips.Update")(&err)

	keys := []string{
		tripKey(id),
		resourceKey(domain.ResourceVehicle, in.VehicleID),
		resourceKey(domain.ResourceDriver, in.DriverID),
	}
	for _, jobID := range in.JobIDs {
		keys = append(keys, jobKey(jobID))
	}

	var view *TripView
	err = s.uow.run(ctx, keys, func(ctx context.Context, tx ports.Tx) error {
		trip, err := tx.GetTrip(ctx, id)
		if err != nil {
			return err
		}
		if trip.Status.IsTerminal() {
			return fmt.Errorf("%w: trip %s is %s", domain.ErrTripNotEditable, trip.TripNumber, trip.Status)
		}

		verrs, err := ValidateTrip(ctx, in, trip.ID, tx)
		if err != nil {
			return err
		}
		if in.JobIDs != nil {
			if !stopsEditable(trip.Status) {
				verrs.Add("jobIds", "stops cannot change once the trip has started")
			}
			if err := checkJobs(ctx, tx, in.JobIDs, trip.ID, &verrs); err != nil {
				return err
			}
		}
		if len(verrs) > 0 {
			s.recordRejects("update", verrs)
			return verrs
		}

		applyInput(trip, in)
		trip.ApplyDerivedStatus()
		trip.UpdatedAt = s.clock.Now()

		if err := tx.UpdateTrip(ctx, trip); err != nil {
			return fmt.Errorf("update trip: %w", err)
		}

		if in.JobIDs != nil {
			if err := tx.ReplaceStops(ctx, trip.ID, buildStops(trip.ID, in.JobIDs)); err != nil {
				return fmt.Errorf("replace stops: %w", err)
			}
		}

		stops, err := tx.ListStops(ctx, trip.ID)
		if err != nil {
			return fmt.Errorf("list stops: %w", err)
		}
		view = &TripView{Trip: trip, Stops: stops}
		return nil
	})
	if err != nil {
		return nil, wrapUnlessValidation("update trip", err)
	}
	return view, nil
}

func (s *TripService) GetTrip(ctx context.Context, id string) (*TripView, error) {
	var view *TripView
	err := s.store.InTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		trip, err := tx.GetTrip(ctx, id)
		if err != nil {
			return err
		}
		stops, err := tx.ListStops(ctx, id)
		if err != nil {
			return err
		}
		view = &TripView{Trip: trip, Stops: stops}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get trip %q: %w", id, err)
	}
	return view, nil
}

func (s *TripService) ListTrips(ctx context.Context, filter ports.TripFilter) ([]*domain.Trip, error) {
	var trips []*domain.Trip
	err := s.store.InTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		trips, err = tx.ListTrips(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return trips, nil
}

// ExternalRequest is the output of the upstream "convert request to trip" collaborator.
type ExternalRequest struct {
	CustomerID    string
	PickupAddress string
	DropAddress   string
	TripDate      time.Time
	TruckType     string
	Weight        float64
	Volume        float64
	Packages      []domain.Package
	Remarks       string
}

// PlanFromRequest turns an external job request into a Received job and a
// Planned trip carrying it. Vehicle and driver are assigned later.
func (s *TripService) PlanFromRequest(ctx context.Context, req ExternalRequest) (_ *TripView, err error) {
	defer obs.Time(ctx, "trips.PlanFromRequest")(&err)

	var view *TripView
	err = s.uow.run(ctx, nil, func(ctx context.Context, tx ports.Tx) error {
		in := TripInput{
			TripDate:      req.TripDate,
			TruckType:     req.TruckType,
			NumberOfTrips: 1,
			Packages:      req.Packages,
			CustomerID:    req.CustomerID,
			PickupAddress: req.PickupAddress,
			DropAddress:   req.DropAddress,
			Remarks:       req.Remarks,
		}

		verrs, err := ValidateTrip(ctx, in, "", tx)
		if err != nil {
			return err
		}
		if strings.TrimSpace(req.PickupAddress) == "" {
			verrs.Add("pickupAddress", "pickup address is required")
		}
		if strings.TrimSpace(req.DropAddress) == "" {
			verrs.Add("dropAddress", "drop address is required")
		}
		if len(verrs) > 0 {
			s.recordRejects("plan", verrs)
			return verrs
		}

		now := s.clock.Now()
		job := &domain.Job{
			ID:            uuid.NewString(),
			Status:        domain.JobReceived,
			Weight:        req.Weight,
			Volume:        req.Volume,
			CustomerRef:   req.CustomerID,
			PickupAddress: req.PickupAddress,
			DropAddress:   req.DropAddress,
		}
		if err := tx.InsertJob(ctx, job); err != nil {
			return fmt.Errorf("insert job: %w", err)
		}

		trip := &domain.Trip{
			ID:        uuid.NewString(),
			Status:    domain.TripPlanned,
			CreatedAt: now,
			UpdatedAt: now,
		}
		in.JobIDs = []string{job.ID}
		applyInput(trip, in)
		if trip.TripDate.IsZero() {
			trip.TripDate = dateOnly(now)
		}

		seq, err := tx.NextSequence(ctx, "trip", trip.TripDate)
		if err != nil {
			return fmt.Errorf("allocate trip number: %w", err)
		}
		trip.TripNumber = formatNumber("TRP", trip.TripDate, seq)

		if err := tx.InsertTrip(ctx, trip); err != nil {
			return fmt.Errorf("insert trip: %w", err)
		}
		stops := buildStops(trip.ID, in.JobIDs)
		if err := tx.ReplaceStops(ctx, trip.ID, stops); err != nil {
			return fmt.Errorf("insert stops: %w", err)
		}

		view = &TripView{Trip: trip, Stops: stops}
		return nil
	})
	if err != nil {
		return nil, wrapUnlessValidation("plan from request", err)
	}
	return view, nil
}

// SetPODURL records where the trip's proof of delivery is stored.
func (s *TripService) SetPODURL(ctx context.Context, tripID, url string) (_ *domain.Trip, err error) {
	defer obs.Time(ctx, "trips.SetPODURL")(&err)

	if strings.TrimSpace(url) == "" {
		var verrs domain.ValidationErrors
		verrs.Add("url", "pod url is required")
		return nil, verrs
	}

	var trip *domain.Trip
	err = s.uow.run(ctx, []string{tripKey(tripID)}, func(ctx context.Context, tx ports.Tx) error {
		var err error
		trip, err = tx.GetTrip(ctx, tripID)
		if err != nil {
			return err
		}
		trip.PODURL = url
		trip.UpdatedAt = s.clock.Now()
		return tx.UpdateTrip(ctx, trip)
	})
	if err != nil {
		return nil, fmt.Errorf("set pod url for trip %q: %w", tripID, err)
	}
	return trip, nil
}

// UploadPOD stores a proof-of-delivery file and links it to the trip.
func (s *TripService) UploadPOD(ctx context.Context, tripID string, data []byte) (*domain.Trip, error) {
	if len(data) == 0 {
		var verrs domain.ValidationErrors
		verrs.Add("file", "pod file is empty")
		return nil, verrs
	}
	if s.pod == nil {
		return nil, errors.New("upload pod: no pod storage configured")
	}

	// Fail before writing a file for a trip that does not exist.
	if _, err := s.GetTrip(ctx, tripID); err != nil {
		return nil, fmt.Errorf("upload pod: %w", err)
	}

	url, err := s.pod.StorePOD(ctx, tripID, data)
	if err != nil {
		return nil, fmt.Errorf("upload pod: store file for trip %q: %w", tripID, err)
	}
	return s.SetPODURL(ctx, tripID, url)
}

func (s *TripService) recordRejects(op string, verrs domain.ValidationErrors) {
	s.metrics.ValidationRejects.WithLabelValues(op).Inc()
	for _, kind := range conflictKinds(verrs) {
		s.metrics.ResourceConflicts.WithLabelValues(string(kind)).Inc()
	}
}

func applyInput(trip *domain.Trip, in TripInput) {
	if !in.TripDate.IsZero() {
		trip.TripDate = dateOnly(in.TripDate)
	}
	trip.VehicleID = in.VehicleID
	trip.DriverID = in.DriverID
	trip.StartTime = in.StartTime
	trip.EndTime = in.EndTime
	trip.TimeWindowFrom = in.TimeWindowFrom
	trip.TimeWindowTo = in.TimeWindowTo
	trip.TruckType = strings.TrimSpace(in.TruckType)
	trip.NumberOfTrips = in.NumberOfTrips
	trip.Packages = append([]domain.Package(nil), in.Packages...)
	trip.CustomerID = in.CustomerID
	trip.PickupAddress = in.PickupAddress
	trip.DropAddress = in.DropAddress
	trip.HelperName = strings.TrimSpace(in.HelperName)
	trip.RequiresPOD = in.RequiresPOD
	trip.Remarks = in.Remarks
}

func buildStops(tripID string, jobIDs []string) []domain.TripStop {
	stops := make([]domain.TripStop, 0, len(jobIDs))
	for i, jobID := range jobIDs {
		stops = append(stops, domain.TripStop{
			ID:            uuid.NewString(),
			TripID:        tripID,
			JobID:         jobID,
			SequenceOrder: i + 1,
			Status:        domain.StopCreated,
		})
	}
	return stops
}

// checkJobs reports unknown, repeated or already carried job ids as validation errors.
func checkJobs(ctx context.Context, tx ports.Tx, jobIDs []string, tripID string, verrs *domain.ValidationErrors) error {
	seen := make(map[string]struct{}, len(jobIDs))
	for i, id := range jobIDs {
		field := fmt.Sprintf("jobIds[%d]", i)
		if _, dup := seen[id]; dup {
			verrs.Add(field, fmt.Sprintf("job %s is listed twice", id))
			continue
		}
		seen[id] = struct{}{}

		if _, err := tx.GetJob(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				verrs.Add(field, fmt.Sprintf("job %s not found", id))
				continue
			}
			return fmt.Errorf("get job %q: %w", id, err)
		}

		holder, err := tx.ActiveTripForJob(ctx, id, tripID)
		if err != nil {
			return err
		}
		if holder != "" {
			verrs.Add(field, fmt.Sprintf("job %s is already on trip %s", id, holder))
		}
	}
	return nil
}

func stopsEditable(s domain.TripStatus) bool {
	return s == domain.TripCreated || s == domain.TripPlanned || s == domain.TripAssigned
}

// wrapUnlessValidation keeps validation lists unwrapped so callers can render them directly.
func wrapUnlessValidation(op string, err error) error {
	if _, ok := domain.AsValidation(err); ok {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
