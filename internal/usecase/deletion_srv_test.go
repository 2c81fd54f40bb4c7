package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"court-booking/internal/data/entity"
	"court-booking/internal/dto/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listIDs(t *testing.T, env *testEnv, req request.ListBookingsRequest) []string {
	t.Helper()
	bookings, err := env.svc.Booking.ListBookings(context.Background(), &req)
	require.NoError(t, err)
	ids := make([]string, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
	}
	return ids
}

func TestSoftDelete_WithReason(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t, nil)

	booking, err := env.svc.Deletion.SoftDelete(context.Background(), created.ID, &request.DeleteBookingRequest{
		Reason:  "Wetter schlecht",
		Details: "Regen angesagt",
		Actor:   "Anna",
	})
	require.NoError(t, err)
	assert.True(t, booking.IsDeleted)
	require.NotNil(t, booking.DeletedAt)
	assert.True(t, booking.DeletedAt.Equal(testNow))

	entries := env.store.entries(mustParseID(t, created.ID))
	require.Len(t, entries, 2)
	deleted := entries[1]
	assert.Equal(t, entity.HistoryActionDeleted, deleted.Action)
	assert.Equal(t, "Wetter schlecht", *deleted.DeletionReason)
	assert.Equal(t, "Regen angesagt", *deleted.DeletionDetails)
	assert.Equal(t, "Anna", *deleted.ChangedBy)
}

func TestSoftDelete_WithoutReasonWritesNoHistory(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t, nil)

	_, err := env.svc.Deletion.SoftDelete(context.Background(), created.ID, &request.DeleteBookingRequest{
		Details: "ignored without a reason",
	})
	require.NoError(t, err)

	assert.True(t, env.store.get(mustParseID(t, created.ID)).IsDeleted())
	assert.Equal(t, []entity.HistoryAction{entity.HistoryActionCreated},
		actions(env.store.entries(mustParseID(t, created.ID))))
}

func TestSoftDelete_Visibility(t *testing.T) {
	env := newTestEnv(t)
	kept := env.create(t, nil)
	gone := env.create(t, nil)

	_, err := env.svc.Deletion.SoftDelete(context.Background(), gone.ID, &request.DeleteBookingRequest{})
	require.NoError(t, err)

	assert.Equal(t, []string{kept.ID}, listIDs(t, env, request.ListBookingsRequest{}))
	assert.ElementsMatch(t, []string{kept.ID, gone.ID}, listIDs(t, env, request.ListBookingsRequest{IncludeDeleted: true}))

	// Still readable directly
	booking, err := env.svc.Booking.GetBooking(context.Background(), gone.ID)
	require.NoError(t, err)
	assert.True(t, booking.IsDeleted)
}

func TestSoftDelete_Repeated(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t, nil)

	_, err := env.svc.Deletion.SoftDelete(context.Background(), created.ID, &request.DeleteBookingRequest{})
	require.NoError(t, err)

	env.clock.Advance(time.Hour)

	booking, err := env.svc.Deletion.SoftDelete(context.Background(), created.ID, &request.DeleteBookingRequest{})
	require.NoError(t, err)
	assert.True(t, booking.DeletedAt.Equal(testNow.Add(time.Hour)))
}

func TestSoftDelete_Rejections(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Deletion.SoftDelete(context.Background(), "1b4e28ba-2fa1-11d2-883f-0016d3cca427", &request.DeleteBookingRequest{})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	created := env.create(t, nil)
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}
	_, err = env.svc.Deletion.SoftDelete(context.Background(), created.ID, &request.DeleteBookingRequest{Reason: string(long)})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "reason")
	assert.False(t, env.store.get(mustParseID(t, created.ID)).IsDeleted())
}

func TestPurgeExpired_Boundary(t *testing.T) {
	env := newTestEnv(t)

	deleted46 := testNow.Add(-46 * 24 * time.Hour)
	deleted44 := testNow.Add(-44 * 24 * time.Hour)
	old := env.seed(testNow.Add(-50*24*time.Hour), testNow.Add(-50*24*time.Hour+time.Hour), &deleted46)
	recent := env.seed(testNow.Add(-45*24*time.Hour), testNow.Add(-45*24*time.Hour+time.Hour), &deleted44)
	active := env.seed(testNow.Add(-60*24*time.Hour), testNow.Add(-60*24*time.Hour+time.Hour), nil)

	env.store.history = append(env.store.history, &entity.HistoryEntry{BookingID: old.ID, Action: entity.HistoryActionDeleted})

	result, err := env.svc.Deletion.PurgeExpired(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, int64(1), result.DeletedCount)
	assert.Equal(t, "Deleted 1 bookings older than 45 days", result.Message)

	assert.Nil(t, env.store.get(old.ID))
	assert.Empty(t, env.store.entries(old.ID))
	assert.NotNil(t, env.store.get(recent.ID))
	assert.NotNil(t, env.store.get(active.ID))
}

func TestPurgeExpired_NothingToDo(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, nil)

	result, err := env.svc.Deletion.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Zero(t, result.DeletedCount)
}

func TestPurgeExpired_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.fail(errors.New("connection reset"))

	result, err := env.svc.Deletion.PurgeExpired(context.Background())

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "connection reset")
}
