package models

import "time"

// Booking is a single reserved time interval for a room, mirrored from the
// remote booking system. BookingID is the remote system's identifier and the
// reconciliation key; it stays stable when the booking is edited remotely.
type Booking struct {
	BookingID  int64  `json:"booking_id"`
	ResourceID int64  `json:"resource_id"`
	Title      string `json:"title"`
	// ALL DATETIMES ARE UTC.
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Equal reports full structural equality. A booking whose key matches but
// whose other fields differ counts as changed during reconciliation.
func (b Booking) Equal(other Booking) bool {
	return b.BookingID == other.BookingID &&
		b.ResourceID == other.ResourceID &&
		b.Title == other.Title &&
		b.StartTime.Equal(other.StartTime) &&
		b.EndTime.Equal(other.EndTime)
}
