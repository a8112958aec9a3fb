package sync

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"roomboard/internal/events"
	"roomboard/internal/models"
	"roomboard/internal/shutdown"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves a scripted booking set or a scripted error.
type fakeSource struct {
	bookings []models.Booking
	err      error
	calls    int
}

func (f *fakeSource) FetchBookings(_ context.Context, _ []int64, _, _ time.Time) ([]models.Booking, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.bookings, nil
}

func newTestScheduler(t *testing.T, source BookingSource, bus *events.EventBus) *Scheduler {
	db := setupTestDB(t)
	logger := zerolog.New(os.Stdout)
	coord := shutdown.NewCoordinator()
	return NewScheduler(source, db, []int64{10, 11}, 10*time.Millisecond, coord, bus, &logger)
}

func collectEvents(bus *events.EventBus, eventType string, into *[]events.SyncEventPayload) {
	bus.Subscribe(eventType, func(e *events.Event) error {
		var payload events.SyncEventPayload
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			return err
		}
		*into = append(*into, payload)
		return nil
	})
}

func TestRunCycleSyncsRemoteIntoStore(t *testing.T) {
	now := time.Now().UTC()
	source := &fakeSource{bookings: []models.Booking{{
		BookingID:  123,
		ResourceID: 10,
		Title:      "t",
		StartTime:  now.Truncate(time.Second),
		EndTime:    now.Add(time.Hour).Truncate(time.Second),
	}}}

	bus := events.NewEventBus()
	var completed []events.SyncEventPayload
	collectEvents(bus, events.EventSyncCompleted, &completed)

	s := newTestScheduler(t, source, bus)
	s.RunCycle(context.Background())

	stored, err := s.db.GetAllBookings(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, int64(123), stored[0].BookingID)

	require.Len(t, completed, 1)
	assert.Equal(t, 1, completed[0].Inserted)
	assert.Equal(t, 0, completed[0].Deleted)
}

func TestRunCycleFetchFailureIsObservedNotFatal(t *testing.T) {
	source := &fakeSource{err: errors.New("connection refused")}

	bus := events.NewEventBus()
	var failed []events.SyncEventPayload
	collectEvents(bus, events.EventSyncFailed, &failed)

	s := newTestScheduler(t, source, bus)
	// must not panic and must not escalate
	s.RunCycle(context.Background())

	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Error, "connection refused")

	stored, err := s.db.GetAllBookings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRunCycleDuplicateRemoteIDFailsCycle(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	dup := models.Booking{BookingID: 1, ResourceID: 10, Title: "a", StartTime: now, EndTime: now.Add(time.Hour)}
	source := &fakeSource{bookings: []models.Booking{dup, dup}}

	bus := events.NewEventBus()
	var failed []events.SyncEventPayload
	collectEvents(bus, events.EventSyncFailed, &failed)

	s := newTestScheduler(t, source, bus)
	s.RunCycle(context.Background())

	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Error, "duplicate booking_id")

	stored, err := s.db.GetAllBookings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored, "a malformed remote set must not be applied")
}

func TestRunCyclePrunesOldBookings(t *testing.T) {
	bus := events.NewEventBus()
	var pruned []events.SyncEventPayload
	collectEvents(bus, events.EventPruneCompleted, &pruned)

	s := newTestScheduler(t, &fakeSource{}, bus)
	// Pinned clock: derived fixtures must not shift with the wall clock,
	// otherwise a run close to midnight moves "yesterday" into today's
	// window.
	s.now = func() time.Time { return time.Date(2021, 3, 26, 23, 30, 0, 0, time.UTC) }

	old := models.Booking{BookingID: 8888, ResourceID: 31, Title: "title",
		StartTime: time.Date(2021, 3, 25, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2021, 3, 25, 11, 0, 0, 0, time.UTC)}
	require.NoError(t, s.db.InsertBooking(context.Background(), old))

	s.RunCycle(context.Background())

	require.Len(t, pruned, 1)
	assert.Equal(t, int64(1), pruned[0].Pruned)

	stored, err := s.db.GetAllBookings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

// triggerSource flips the coordinator mid-fetch, the way a signal arriving
// while a cycle is in flight would.
type triggerSource struct {
	coord    *shutdown.Coordinator
	bookings []models.Booking
}

func (s *triggerSource) FetchBookings(ctx context.Context, _ []int64, _, _ time.Time) ([]models.Booking, error) {
	s.coord.Trigger()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.bookings, nil
}

func TestRunFinishesInFlightCycleAfterShutdown(t *testing.T) {
	db := setupTestDB(t)
	logger := zerolog.New(os.Stdout)
	coord := shutdown.NewCoordinator()

	now := time.Date(2021, 3, 26, 12, 0, 0, 0, time.UTC)
	booking := models.Booking{
		BookingID: 42, ResourceID: 10, Title: "t",
		StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour),
	}
	source := &triggerSource{coord: coord, bookings: []models.Booking{booking}}

	s := NewScheduler(source, db, []int64{10}, time.Hour, coord, events.NewEventBus(), &logger)
	s.now = func() time.Time { return now }

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after shutdown was triggered")
	}

	// The cycle that was in flight when shutdown fired must have run to
	// completion and written its result.
	stored, err := db.GetAllBookings(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, int64(42), stored[0].BookingID)
}

func TestRunStopsOnShutdown(t *testing.T) {
	source := &fakeSource{}
	s := newTestScheduler(t, source, events.NewEventBus())

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	// let at least one cycle run, then trigger shutdown
	time.Sleep(30 * time.Millisecond)
	s.coord.Trigger()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after shutdown was triggered")
	}
	assert.GreaterOrEqual(t, source.calls, 1)
}
