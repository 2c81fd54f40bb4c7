package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"court-booking/internal/data/entity"
	"court-booking/internal/data/repository"
	"court-booking/internal/dto/request"
	"court-booking/internal/dto/response"
	"court-booking/pkg/notify"
	"court-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// --- In-memory store ---

// memStore behaves like the SQL repositories: every slot claim is a
// compare-and-set under one lock, and purging cascades to history.
type memStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*entity.Booking
	history  []*entity.HistoryEntry
	failWith error
	// afterFind runs after FindByID has taken its snapshot, outside the lock
	afterFind func()
}

func newMemStore() *memStore {
	return &memStore{bookings: make(map[uuid.UUID]*entity.Booking)}
}

func (s *memStore) repo() *repository.Repository {
	return &repository.Repository{
		Booking: &memBookings{s},
		History: &memHistory{s},
	}
}

func (s *memStore) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *memStore) onFind(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterFind = fn
}

func (s *memStore) put(b *entity.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = cloneBooking(b)
}

func (s *memStore) get(id uuid.UUID) *entity.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bookings[id]; ok {
		return cloneBooking(b)
	}
	return nil
}

func (s *memStore) entries(bookingID uuid.UUID) []entity.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.HistoryEntry
	for _, e := range s.history {
		if e.BookingID == bookingID {
			out = append(out, *e)
		}
	}
	return out
}

func cloneBooking(b *entity.Booking) *entity.Booking {
	c := *b
	if b.DeletedAt != nil {
		at := *b.DeletedAt
		c.DeletedAt = &at
	}
	return &c
}

type memBookings struct{ s *memStore }

func (m *memBookings) Create(ctx context.Context, booking *entity.Booking) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return m.s.failWith
	}
	m.s.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (m *memBookings) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	booking, hook, err := m.findByID(id)
	if hook != nil {
		hook()
	}
	return booking, err
}

func (m *memBookings) findByID(id uuid.UUID) (*entity.Booking, func(), error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return nil, m.s.afterFind, m.s.failWith
	}
	if b, ok := m.s.bookings[id]; ok {
		return cloneBooking(b), m.s.afterFind, nil
	}
	return nil, m.s.afterFind, nil
}

// setSlot writes slot n of b; out of range numbers are ignored.
func setSlot(b *entity.Booking, n int, value *string) {
	switch n {
	case 1:
		b.Slot1 = value
	case 2:
		b.Slot2 = value
	case 3:
		b.Slot3 = value
	case 4:
		b.Slot4 = value
	}
}

// matchesFilter mirrors the WHERE clause of the SQL FindAll.
func matchesFilter(f entity.BookingFilter, b *entity.Booking) bool {
	if !f.IncludeDeleted && b.IsDeleted() {
		return false
	}
	if !f.IncludePast && !b.EndTime.After(f.Now) {
		return false
	}
	return true
}

func (m *memBookings) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return m.FindByID(ctx, id)
}

func (m *memBookings) FindAll(ctx context.Context, filter entity.BookingFilter) ([]*entity.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return nil, m.s.failWith
	}

	var out []*entity.Booking
	for _, b := range m.s.bookings {
		if matchesFilter(filter, b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (m *memBookings) Update(ctx context.Context, id uuid.UUID, changes entity.BookingChanges) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return m.s.failWith
	}

	b, ok := m.s.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s: %w", id, repository.ErrNotFound)
	}
	if changes.Location != nil {
		b.Location = *changes.Location
	}
	if changes.StartTime != nil {
		b.StartTime = *changes.StartTime
	}
	if changes.EndTime != nil {
		b.EndTime = *changes.EndTime
	}
	if changes.Cost != nil {
		b.Cost = *changes.Cost
	}
	return nil
}

func (m *memBookings) ClaimSlot(ctx context.Context, id uuid.UUID, slot int, name string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return false, m.s.failWith
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	b, ok := m.s.bookings[id]
	if !ok || b.IsDeleted() || b.Slot(slot) != nil {
		return false, nil
	}
	setSlot(b, slot, &name)
	return true, nil
}

func (m *memBookings) ReleaseSlot(ctx context.Context, id uuid.UUID, slot int) (*string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return nil, m.s.failWith
	}

	b, ok := m.s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, repository.ErrNotFound)
	}
	prior := b.Slot(slot)
	setSlot(b, slot, nil)
	return prior, nil
}

func (m *memBookings) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return m.s.failWith
	}

	b, ok := m.s.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s: %w", id, repository.ErrNotFound)
	}
	b.DeletedAt = &at
	return nil
}

func (m *memBookings) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return 0, m.s.failWith
	}

	var purged int64
	for id, b := range m.s.bookings {
		if b.DeletedAt != nil && b.DeletedAt.Before(cutoff) {
			delete(m.s.bookings, id)
			purged++
		}
	}

	kept := m.s.history[:0]
	for _, e := range m.s.history {
		if _, ok := m.s.bookings[e.BookingID]; ok {
			kept = append(kept, e)
		}
	}
	m.s.history = kept
	return purged, nil
}

type memHistory struct{ s *memStore }

func (m *memHistory) Create(ctx context.Context, entry *entity.HistoryEntry) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return m.s.failWith
	}
	c := *entry
	m.s.history = append(m.s.history, &c)
	return nil
}

func (m *memHistory) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.HistoryEntry, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return nil, m.s.failWith
	}

	var out []*entity.HistoryEntry
	for i := len(m.s.history) - 1; i >= 0; i-- {
		if e := m.s.history[i]; e.BookingID == bookingID {
			c := *e
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// --- Fixtures ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store    *memStore
	clock    *fakeClock
	notifier *notify.Notifier
	svc      *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := zaptest.NewLogger(t)
	store := newMemStore()
	clock := &fakeClock{now: testNow}
	notifier := notify.NewNotifier(nil, log)
	t.Cleanup(func() { _ = notifier.Close() })

	config := &utils.Config{Booking: utils.BookingConfig{PurgeAfter: DefaultPurgeAfter}}

	return &testEnv{
		store:    store,
		clock:    clock,
		notifier: notifier,
		svc:      NewService(store.repo(), notifier, config, log, clock.Now),
	}
}

func tomorrowAt(hour, minute int) time.Time {
	d := testNow.AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
}

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }

func createRequest() *request.CreateBookingRequest {
	return &request.CreateBookingRequest{
		Location:  string(entity.LocationUniKoln),
		StartTime: tomorrowAt(18, 0),
		EndTime:   tomorrowAt(19, 30),
		CreatedBy: "Anna",
		Cost:      10,
	}
}

func (e *testEnv) create(t *testing.T, mutate func(req *request.CreateBookingRequest)) *response.BookingResponse {
	t.Helper()

	req := createRequest()
	if mutate != nil {
		mutate(req)
	}
	booking, err := e.svc.Booking.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	return booking
}

// seed stores a booking directly, bypassing create-time validation.
func (e *testEnv) seed(start, end time.Time, deletedAt *time.Time) *entity.Booking {
	b := &entity.Booking{
		BaseSoftDelete: entity.BaseSoftDelete{
			ID:        uuid.New(),
			CreatedAt: testNow,
			DeletedAt: deletedAt,
		},
		Location:  entity.LocationPadelboxWeiden,
		StartTime: start,
		EndTime:   end,
		CreatedBy: "Seed",
		Cost:      8,
	}
	e.store.put(b)
	return b
}

func mustParseID(t *testing.T, id string) uuid.UUID {
	t.Helper()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	return parsed
}

func actions(entries []entity.HistoryEntry) []entity.HistoryAction {
	out := make([]entity.HistoryAction, len(entries))
	for i, e := range entries {
		out[i] = e.Action
	}
	return out
}
