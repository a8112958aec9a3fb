// Package sync keeps the local booking mirror consistent with the remote
// booking API.
package sync

import (
	"context"
	"fmt"

	"roomboard/internal/database"
	"roomboard/internal/models"

	"github.com/rs/zerolog"
)

// Diff is the three-way difference between the remote booking set and the
// stored one for the same window. The three sets are disjoint by booking id.
type Diff struct {
	ToInsert []models.Booking
	ToDelete []int64
	ToUpdate []models.Booking
}

// Empty reports whether applying the diff would change nothing.
func (d Diff) Empty() bool {
	return len(d.ToInsert) == 0 && len(d.ToDelete) == 0 && len(d.ToUpdate) == 0
}

// ComputeDiff matches remote and local bookings by booking id.
//   - remote-only ids become inserts
//   - local-only ids become deletes
//   - ids present in both with differing fields become updates
//
// A duplicate booking id inside the remote set is malformed upstream data;
// rather than guessing which entry wins, the diff fails and the cycle is
// skipped.
func ComputeDiff(remote, local []models.Booking) (Diff, error) {
	remoteByID := make(map[int64]models.Booking, len(remote))
	for _, b := range remote {
		if _, ok := remoteByID[b.BookingID]; ok {
			return Diff{}, fmt.Errorf("remote set contains duplicate booking_id %d", b.BookingID)
		}
		remoteByID[b.BookingID] = b
	}

	localByID := make(map[int64]models.Booking, len(local))
	for _, b := range local {
		localByID[b.BookingID] = b
	}

	var diff Diff
	for _, b := range remote {
		stored, ok := localByID[b.BookingID]
		switch {
		case !ok:
			diff.ToInsert = append(diff.ToInsert, b)
		case !stored.Equal(b):
			diff.ToUpdate = append(diff.ToUpdate, b)
		}
	}
	for _, b := range local {
		if _, ok := remoteByID[b.BookingID]; !ok {
			diff.ToDelete = append(diff.ToDelete, b.BookingID)
		}
	}
	return diff, nil
}

// Reconciler applies diffs to the store.
type Reconciler struct {
	db     *database.DB
	logger *zerolog.Logger
}

func NewReconciler(db *database.DB, logger *zerolog.Logger) *Reconciler {
	return &Reconciler{db: db, logger: logger}
}

// Apply writes the diff to the store: inserts, then deletes, then updates.
// The sets are disjoint by key, so the order does not change the final
// state; insert-before-delete avoids a transient gap if a caller ever passes
// overlapping windows.
//
// Each store call is independent and there is no rollback. A failure leaves
// the store partially updated, which the next cycle repairs by re-diffing
// against the remote source of truth.
func (r *Reconciler) Apply(ctx context.Context, diff Diff) error {
	if err := r.db.InsertBookings(ctx, diff.ToInsert); err != nil {
		return fmt.Errorf("apply inserts: %w", err)
	}
	if err := r.db.DeleteBookings(ctx, diff.ToDelete); err != nil {
		return fmt.Errorf("apply deletes: %w", err)
	}
	if err := r.db.UpdateBookings(ctx, diff.ToUpdate); err != nil {
		return fmt.Errorf("apply updates: %w", err)
	}
	return nil
}
