package services

import (
	"context"
	"fmt"
	"manifest-service/internal/domain"
	"manifest-service/internal/platform/logger"
	"manifest-service/internal/platform/obs"
	"manifest-service/internal/ports"
)

// AdvanceStatus applies an explicit status-advance request naming the target state.
//
// Unknown names fail with domain.ErrInvalidStatus and jumps outside the
// transition graph with domain.ErrTransitionNotAllowed. Entering InTransit
// moves every carried job to InTransit; entering Completed delivers every
// job that is not yet Delivered.
func (s *TripService) AdvanceStatus(ctx context.Context, tripID, statusName string) (_ *TripView, err error) {
	defer obs.Time(ctx, "trips.AdvanceStatus")(&err)

	target, err := domain.ParseTripStatus(statusName)
	if err != nil {
		return nil, err
	}

	var view *TripView
	err = s.uow.run(ctx, []string{tripKey(tripID)}, func(ctx context.Context, tx ports.Tx) error {
		trip, err := tx.GetTrip(ctx, tripID)
		if err != nil {
			return err
		}

		from := trip.Status
		if err := trip.Advance(target, s.clock.Now()); err != nil {
			return err
		}
		if err := tx.UpdateTrip(ctx, trip); err != nil {
			return fmt.Errorf("update trip: %w", err)
		}

		stops, err := tx.ListStops(ctx, trip.ID)
		if err != nil {
			return fmt.Errorf("list stops: %w", err)
		}

		switch target {
		case domain.TripInTransit:
			err = cascadeJobs(ctx, tx, stops, domain.JobInTransit)
		case domain.TripCompleted:
			err = cascadeJobs(ctx, tx, stops, domain.JobDelivered)
		}
		if err != nil {
			return err
		}

		l := logger.FromContext(ctx)
		l.Info().
			Str("trip", trip.TripNumber).
			Str("from", string(from)).
			Str("to", string(target)).
			Int("stops", len(stops)).
			Msg("trip status advanced")

		view = &TripView{Trip: trip, Stops: stops}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("advance trip %q to %s: %w", tripID, target, err)
	}

	s.metrics.TripTransitions.WithLabelValues(string(target)).Inc()
	return view, nil
}

// cascadeJobs moves the job behind every stop forward to target, never backwards.
func cascadeJobs(ctx context.Context, tx ports.Tx, stops []domain.TripStop, target domain.JobStatus) error {
	for _, st := range stops {
		if _, err := advanceJob(ctx, tx, st.JobID, target); err != nil {
			return fmt.Errorf("cascade stop %d: %w", st.SequenceOrder, err)
		}
	}
	return nil
}

func advanceJob(ctx context.Context, tx ports.Tx, jobID string, target domain.JobStatus) (*domain.Job, error) {
	if err := tx.LockKeys(ctx, jobKey(jobID)); err != nil {
		return nil, fmt.Errorf("lock job %q: %w", jobID, err)
	}
	job, err := tx.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job %q: %w", jobID, err)
	}
	if !job.AdvanceTo(target) {
		return job, nil
	}
	if err := tx.UpdateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("update job %q: %w", jobID, err)
	}
	return job, nil
}
