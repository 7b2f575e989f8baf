package services

import (
	"context"
	"manifest-service/internal/domain"
	"manifest-service/internal/ports"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jobStatus(t *testing.T, f *fixture, id string) domain.JobStatus {
	t.Helper()
	var status domain.JobStatus
	err := f.store.InTx(context.Background(), func(ctx context.Context, tx ports.Tx) error {
		j, err := tx.GetJob(ctx, id)
		if err != nil {
			return err
		}
		status = j.Status
		return nil
	})
	require.NoError(t, err)
	return status
}

func TestAdvanceStatus_CascadesJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := baseInput()
	in.StartTime, in.EndTime = nil, nil
	in.JobIDs = []string{"J1", "J2"}
	view, err := f.trips.CreateTrip(ctx, in)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	view, err = f.trips.AdvanceStatus(ctx, view.Trip.ID, "intransit")
	require.NoError(t, err)
	assert.Equal(t, domain.TripInTransit, view.Trip.Status)
	require.NotNil(t, view.Trip.StartTime)
	assert.Equal(t, f.clock.Now(), *view.Trip.StartTime)
	assert.Equal(t, domain.JobInTransit, jobStatus(t, f, "J1"))
	assert.Equal(t, domain.JobInTransit, jobStatus(t, f, "J2"))

	f.clock.Advance(2 * time.Hour)
	view, err = f.trips.AdvanceStatus(ctx, view.Trip.ID, "Completed")
	require.NoError(t, err)
	require.NotNil(t, view.Trip.EndTime)
	assert.Equal(t, f.clock.Now(), *view.Trip.EndTime)
	assert.Equal(t, domain.JobDelivered, jobStatus(t, f, "J1"))
	assert.Equal(t, domain.JobDelivered, jobStatus(t, f, "J2"))
}

func TestAdvanceStatus_InTransitNeverDowngradesJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := baseInput()
	in.JobIDs = []string{"J1", "J2"}
	view, err := f.trips.CreateTrip(ctx, in)
	require.NoError(t, err)

	_, err = f.trips.UpdateStopStatus(ctx, view.Stops[0].ID, "Delivered")
	require.NoError(t, err)

	_, err = f.trips.AdvanceStatus(ctx, view.Trip.ID, "InTransit")
	require.NoError(t, err)
	assert.Equal(t, domain.JobDelivered, jobStatus(t, f, "J1"))
	assert.Equal(t, domain.JobInTransit, jobStatus(t, f, "J2"))
}

func TestAdvanceStatus_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := baseInput()
	in.DriverID = ""
	view, err := f.trips.CreateTrip(ctx, in)
	require.NoError(t, err)
	require.Equal(t, domain.TripCreated, view.Trip.Status)

	_, err = f.trips.AdvanceStatus(ctx, view.Trip.ID, "Teleported")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.trips.AdvanceStatus(ctx, view.Trip.ID, "Completed")
	assert.ErrorIs(t, err, domain.ErrTransitionNotAllowed)

	_, err = f.trips.AdvanceStatus(ctx, view.Trip.ID, "Assigned")
	assert.ErrorIs(t, err, domain.ErrTransitionNotAllowed)

	_, err = f.trips.AdvanceStatus(ctx, "missing", "Cancelled")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.trips.GetTrip(ctx, view.Trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripCreated, got.Trip.Status)
}

func TestAdvanceStatus_LoadingPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.trips.CreateTrip(ctx, baseInput())
	require.NoError(t, err)

	for _, s := range []string{"StartTrip", "StartLoad", "CompleteLoad", "InTransit", "Completed"} {
		_, err := f.trips.AdvanceStatus(ctx, view.Trip.ID, s)
		require.NoError(t, err, "advance to %s", s)
	}

	got, err := f.trips.GetTrip(ctx, view.Trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripCompleted, got.Trip.Status)
	assert.Equal(t, *at(9, 0), *got.Trip.StartTime)
}
