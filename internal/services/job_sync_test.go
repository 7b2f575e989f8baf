package services

import (
	"context"
	"manifest-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateStopStatus_Monotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := baseInput()
	in.JobIDs = []string{"J1"}
	view, err := f.trips.CreateTrip(ctx, in)
	require.NoError(t, err)
	stopID := view.Stops[0].ID

	res, err := f.trips.UpdateStopStatus(ctx, stopID, "PickedUp")
	require.NoError(t, err)
	assert.Equal(t, domain.StopPickedUp, res.Stop.Status)
	assert.Equal(t, domain.JobInTransit, res.Job.Status)

	res, err = f.trips.UpdateStopStatus(ctx, stopID, "Delivered")
	require.NoError(t, err)
	assert.Equal(t, domain.StopDelivered, res.Stop.Status)
	assert.Equal(t, domain.JobDelivered, res.Job.Status)

	// A late pickup event leaves both where they are.
	res, err = f.trips.UpdateStopStatus(ctx, stopID, "PickedUp")
	require.NoError(t, err)
	assert.Equal(t, domain.StopDelivered, res.Stop.Status)
	assert.Equal(t, domain.JobDelivered, res.Job.Status)
}

func TestUpdateStopStatus_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := baseInput()
	in.JobIDs = []string{"J1"}
	view, err := f.trips.CreateTrip(ctx, in)
	require.NoError(t, err)

	_, err = f.trips.UpdateStopStatus(ctx, view.Stops[0].ID, "Created")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.trips.UpdateStopStatus(ctx, view.Stops[0].ID, "Lost")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.trips.UpdateStopStatus(ctx, "missing", "Delivered")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
