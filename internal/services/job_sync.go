package services

import (
	"context"
	"fmt"
	"manifest-service/internal/domain"
	"manifest-service/internal/platform/obs"
	"manifest-service/internal/ports"
)

// StopSyncResult is the stop and job state after a stop status update.
type StopSyncResult struct {
	Stop *domain.TripStop
	Job  *domain.Job
}

// UpdateStopStatus sets a stop to PickedUp or Delivered and carries the change
// onto its job (PickedUp -> InTransit, Delivered -> Delivered).
//
// Neither the stop nor the job ever moves backwards: a repeated or late update
// leaves both where they are and is not an error.
func (s *TripService) UpdateStopStatus(ctx context.Context, stopID, statusName string) (_ *StopSyncResult, err error) {
	defer obs.Time(ctx, "stops.UpdateStatus")(&err)

	target, err := domain.ParseStopStatus(statusName)
	if err != nil {
		return nil, err
	}
	jobTarget, ok := target.JobTarget()
	if !ok {
		return nil, fmt.Errorf("%w: stop status %q cannot be requested", domain.ErrInvalidStatus, target)
	}

	var res *StopSyncResult
	err = s.uow.run(ctx, []string{stopKey(stopID)}, func(ctx context.Context, tx ports.Tx) error {
		stop, err := tx.GetStop(ctx, stopID)
		if err != nil {
			return err
		}

		if stop.Status.Precedes(target) {
			stop.Status = target
			if err := tx.UpdateStop(ctx, stop); err != nil {
				return fmt.Errorf("update stop: %w", err)
			}
		}

		job, err := advanceJob(ctx, tx, stop.JobID, jobTarget)
		if err != nil {
			return err
		}

		res = &StopSyncResult{Stop: stop, Job: job}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update stop %q to %s: %w", stopID, target, err)
	}
	return res, nil
}
