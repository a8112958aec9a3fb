package sync

import (
	"context"
	"time"

	"roomboard/internal/database"
	"roomboard/internal/events"
	"roomboard/internal/metrics"
	"roomboard/internal/models"
	"roomboard/internal/shutdown"
	"roomboard/internal/timetext"

	"github.com/rs/zerolog"
)

// BookingSource fetches the current set of confirmed bookings for a set of
// resources in a date window.
type BookingSource interface {
	FetchBookings(ctx context.Context, resourceIDs []int64, from, to time.Time) ([]models.Booking, error)
}

// Scheduler drives reconciliation and pruning on a fixed interval until the
// coordinator signals shutdown. Errors inside a cycle are logged and
// published, never fatal: the remote source is authoritative and the next
// tick retries naturally, so there is no in-cycle retry either.
type Scheduler struct {
	source      BookingSource
	db          *database.DB
	reconciler  *Reconciler
	resourceIDs []int64
	interval    time.Duration
	coord       *shutdown.Coordinator
	bus         *events.EventBus
	logger      *zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewScheduler(
	source BookingSource,
	db *database.DB,
	resourceIDs []int64,
	interval time.Duration,
	coord *shutdown.Coordinator,
	bus *events.EventBus,
	logger *zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		source:      source,
		db:          db,
		reconciler:  NewReconciler(db, logger),
		resourceIDs: resourceIDs,
		interval:    interval,
		coord:       coord,
		bus:         bus,
		logger:      logger,
		now:         time.Now,
	}
}

// Run loops until the coordinator signals shutdown. Each cycle finishes its
// in-flight work before checking for cancellation; the only suspension point
// sensitive to shutdown is the wait between ticks.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("starting remote -> mirror sync task")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.logger.Debug().Msg("sync cycle starting")
		s.RunCycle(ctx)

		select {
		case <-s.coord.Done():
			s.logger.Debug().Msg("shutting down sync task now")
			return
		case <-ticker.C:
		}
	}
}

// RunCycle performs one fetch/reconcile/prune pass.
func (s *Scheduler) RunCycle(ctx context.Context) {
	s.reconcile(ctx)
	s.prune(ctx)
}

// reconcile fetches one lookahead day from the remote API and applies the
// diff against the stored window. The remote API cannot query finer than a
// calendar day, so the window is [today, today+1d] at date granularity,
// bounded locally as 00:00:00 of today through 23:59:59 of the lookahead
// day.
func (s *Scheduler) reconcile(ctx context.Context) {
	windowStart := s.now().UTC()
	windowEnd := windowStart.AddDate(0, 0, 1)
	payload := events.SyncEventPayload{
		WindowStart: timetext.DayStart(windowStart),
		WindowEnd:   timetext.DayEnd(windowEnd),
	}

	remote, err := s.source.FetchBookings(ctx, s.resourceIDs, windowStart, windowEnd)
	if err != nil {
		s.logger.Warn().Err(err).
			Time("window_start", windowStart).
			Time("window_end", windowEnd).
			Msg("failed to fetch bookings from the remote API, skipping this cycle")
		metrics.IncSyncCycle("fetch_error")
		payload.Error = err.Error()
		_ = s.bus.PublishJSON(events.EventSyncFailed, payload)
		return
	}

	local, err := s.db.GetBookingsInRange(ctx, payload.WindowStart, payload.WindowEnd)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read the stored window, skipping this cycle")
		metrics.IncSyncCycle("reconcile_error")
		payload.Error = err.Error()
		_ = s.bus.PublishJSON(events.EventSyncFailed, payload)
		return
	}

	diff, err := ComputeDiff(remote, local)
	if err != nil {
		s.logger.Warn().Err(err).Msg("remote booking set is malformed, skipping this cycle")
		metrics.IncSyncCycle("reconcile_error")
		payload.Error = err.Error()
		_ = s.bus.PublishJSON(events.EventSyncFailed, payload)
		return
	}

	payload.Inserted = len(diff.ToInsert)
	payload.Deleted = len(diff.ToDelete)
	payload.Updated = len(diff.ToUpdate)

	if err := s.reconciler.Apply(ctx, diff); err != nil {
		// partial application is fine, the next cycle self-heals
		s.logger.Warn().Err(err).Msg("failed to apply the booking diff")
		metrics.IncSyncCycle("reconcile_error")
		payload.Error = err.Error()
		_ = s.bus.PublishJSON(events.EventSyncFailed, payload)
		return
	}

	if diff.Empty() {
		s.logger.Debug().Msg("mirror already up to date")
	} else {
		s.logger.Info().
			Int("inserted", payload.Inserted).
			Int("deleted", payload.Deleted).
			Int("updated", payload.Updated).
			Msg("mirror updated")
	}
	metrics.IncSyncCycle("ok")
	_ = s.bus.PublishJSON(events.EventSyncCompleted, payload)
}

// prune drops bookings that ended before today's midnight. Entries that
// ended earlier today are kept until tomorrow's pass; evicting them now
// would just make the next fetch rewrite them.
func (s *Scheduler) prune(ctx context.Context) {
	midnight := timetext.DayStart(s.now())

	removed, err := s.db.PruneBefore(ctx, midnight)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to prune old bookings")
		_ = s.bus.PublishJSON(events.EventPruneFailed, events.SyncEventPayload{
			WindowStart: midnight,
			Error:       err.Error(),
		})
		return
	}

	metrics.AddPruned(removed)
	if removed == 0 {
		s.logger.Debug().Msg("prune pass removed no bookings")
	} else {
		s.logger.Info().Int64("removed", removed).Msg("pruned old bookings")
	}
	_ = s.bus.PublishJSON(events.EventPruneCompleted, events.SyncEventPayload{
		WindowStart: midnight,
		Pruned:      removed,
	})
}
