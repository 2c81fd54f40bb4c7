package usecase

import (
	"context"
	"testing"
	"time"

	"court-booking/internal/data/entity"
	"court-booking/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListHistory_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t, nil)

	env.clock.Advance(time.Minute)
	_, err := claim(env, created.ID, 2, "Ben")
	require.NoError(t, err)

	env.clock.Advance(time.Minute)
	_, err = env.svc.Slot.ReleaseSlot(context.Background(), created.ID, 2, "")
	require.NoError(t, err)

	entries, err := env.svc.History.ListHistory(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, entity.HistoryActionSlotRemoved, entries[0].Action)
	assert.Equal(t, entity.HistoryActionSlotFilled, entries[1].Action)
	assert.Equal(t, entity.HistoryActionCreated, entries[2].Action)
	assert.True(t, entries[0].CreatedAt.After(entries[1].CreatedAt))
}

func TestListHistory_UnknownBooking(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.History.ListHistory(context.Background(), "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestHistory_AppendOnly(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t, nil)
	id := mustParseID(t, created.ID)
	ctx := context.Background()

	seen := map[uuid.UUID]entity.HistoryEntry{}
	check := func(step string) {
		entries := env.store.entries(id)
		assert.GreaterOrEqual(t, len(entries), len(seen), step)
		current := map[uuid.UUID]entity.HistoryEntry{}
		for _, e := range entries {
			current[e.ID] = e
		}
		for entryID, before := range seen {
			after, ok := current[entryID]
			if assert.True(t, ok, "%s: entry %s disappeared", step, entryID) {
				assert.Equal(t, before, after, step)
			}
		}
		seen = current
	}

	cost := 12.0
	steps := []struct {
		name string
		run  func() error
	}{
		{"claim", func() error { _, err := claim(env, created.ID, 2, "Ben"); return err }},
		{"lost claim", func() error { _, _ = claim(env, created.ID, 2, "Cara"); return nil }},
		{"release", func() error { _, err := env.svc.Slot.ReleaseSlot(ctx, created.ID, 2, "Ben"); return err }},
		{"release empty", func() error { _, err := env.svc.Slot.ReleaseSlot(ctx, created.ID, 2, "Ben"); return err }},
		{"edit", func() error {
			_, err := env.svc.Booking.UpdateBooking(ctx, created.ID, &request.UpdateBookingRequest{Cost: &cost})
			return err
		}},
		{"delete", func() error {
			_, err := env.svc.Deletion.SoftDelete(ctx, created.ID, &request.DeleteBookingRequest{Reason: "Zu wenig Teilnehmer"})
			return err
		}},
		{"delete again", func() error {
			_, err := env.svc.Deletion.SoftDelete(ctx, created.ID, &request.DeleteBookingRequest{})
			return err
		}},
	}

	check("create")
	for _, step := range steps {
		env.clock.Advance(time.Second)
		require.NoError(t, step.run(), step.name)
		check(step.name)
	}

	assert.Equal(t, []entity.HistoryAction{
		entity.HistoryActionCreated,
		entity.HistoryActionSlotFilled,
		entity.HistoryActionSlotRemoved,
		entity.HistoryActionUpdated,
		entity.HistoryActionDeleted,
	}, actions(env.store.entries(id)))
}
