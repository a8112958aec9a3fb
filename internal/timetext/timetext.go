// Package timetext converts between absolute instants and the naive UTC text
// representation used by the sqlite store. Sqlite has no timezone-aware
// column type, so every persisted timestamp is wall-clock text that is
// meaningful only under the system-wide convention that IT IS ALWAYS UTC.
// Writes must go through ToStorage and reads through FromStorage; a non-UTC
// naive value written to the store silently corrupts all later comparisons.
package timetext

import "time"

// Layout is the storage pattern for naive UTC timestamps.
const Layout = "2006-01-02T15:04:05"

// ToStorage formats an instant as naive UTC text at second precision.
// Sub-second precision is dropped; this is a known, accepted lossy step.
func ToStorage(t time.Time) string {
	return t.UTC().Format(Layout)
}

// FromStorage parses naive storage text and tags it UTC. Inverse of
// ToStorage for any UTC instant at second precision.
func FromStorage(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, s, time.UTC)
}

// DayStart truncates an instant to 00:00:00 UTC of its calendar day.
func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayEnd returns 23:59:59 UTC of the instant's calendar day. Together with
// DayStart it bounds the local query window for one sync cycle.
func DayEnd(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 0, time.UTC)
}
