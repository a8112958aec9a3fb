package web

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"roomboard/internal/models"
	"roomboard/internal/timetext"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const overviewCacheKey = "overview"

// BookingView is the JSON shape of a single booking in the overview.
type BookingView struct {
	BookingID int64     `json:"booking_id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// RoomView pairs a configured room with its current and next booking of
// the day. Current is nil when the room is free right now, Next is nil
// when nothing else is scheduled today.
type RoomView struct {
	ResourceID   int64        `json:"resource_id"`
	Name         string       `json:"name"`
	LocationHint string       `json:"location_hint,omitempty"`
	Current      *BookingView `json:"current"`
	Next         *BookingView `json:"next"`
}

// OverviewResponse is the full payload of GET /api/v1/overview.
type OverviewResponse struct {
	GeneratedAt time.Time  `json:"generated_at"`
	Rooms       []RoomView `json:"rooms"`
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx := r.Context()

	var cached OverviewResponse
	if s.cache.Get(ctx, overviewCacheKey, &cached) {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	now := s.now().UTC()
	bookings, err := s.db.GetBookingsInRange(ctx, timetext.DayStart(now), timetext.DayEnd(now))
	if err != nil {
		s.serverError(w, "load bookings for overview", err)
		return
	}

	byResource := make(map[int64][]models.Booking)
	for _, b := range bookings {
		byResource[b.ResourceID] = append(byResource[b.ResourceID], b)
	}

	resp := OverviewResponse{
		GeneratedAt: now,
		Rooms:       make([]RoomView, 0, len(s.cfg.Rooms)),
	}
	for _, room := range s.cfg.Rooms {
		view := RoomView{
			ResourceID:   room.ResourceID,
			Name:         room.Name,
			LocationHint: room.LocationHint,
		}
		list := byResource[room.ResourceID]
		sort.Slice(list, func(i, j int) bool {
			return list[i].StartTime.Before(list[j].StartTime)
		})
		for i := range list {
			b := list[i]
			switch {
			case !b.StartTime.After(now) && !b.EndTime.Before(now):
				if view.Current == nil {
					view.Current = bookingView(b)
				}
			case b.StartTime.After(now):
				if view.Next == nil {
					view.Next = bookingView(b)
				}
			}
			if view.Current != nil && view.Next != nil {
				break
			}
		}
		resp.Rooms = append(resp.Rooms, view)
	}

	s.cache.Set(ctx, overviewCacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

func bookingView(b models.Booking) *BookingView {
	return &BookingView{
		BookingID: b.BookingID,
		Title:     b.Title,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
	}
}

// icsStamp is the UTC timestamp form used in calendar output.
const icsStamp = "20060102T150405Z"

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	bookings, err := s.db.GetAllBookings(r.Context())
	if err != nil {
		s.serverError(w, "load bookings for calendar", err)
		return
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].StartTime.Before(bookings[j].StartTime)
	})

	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("PRODID:-//roomboard//calendar//EN\r\n")
	b.WriteString("CALSCALE:GREGORIAN\r\n")
	stamp := s.now().UTC().Format(icsStamp)
	for _, booking := range bookings {
		room, ok := s.cfg.RoomByResourceID(booking.ResourceID)
		if !ok {
			// A stale row for a room that was removed from config.
			continue
		}
		b.WriteString("BEGIN:VEVENT\r\n")
		fmt.Fprintf(&b, "UID:booking-%d@roomboard\r\n", booking.BookingID)
		fmt.Fprintf(&b, "DTSTAMP:%s\r\n", stamp)
		fmt.Fprintf(&b, "DTSTART:%s\r\n", booking.StartTime.UTC().Format(icsStamp))
		fmt.Fprintf(&b, "DTEND:%s\r\n", booking.EndTime.UTC().Format(icsStamp))
		fmt.Fprintf(&b, "SUMMARY:%s\r\n", icsEscape(booking.Title))
		fmt.Fprintf(&b, "LOCATION:%s\r\n", icsEscape(room.ICSLocation()))
		b.WriteString("END:VEVENT\r\n")
	}
	b.WriteString("END:VCALENDAR\r\n")

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="roomboard.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}

// icsEscape escapes the characters RFC 5545 treats specially in text values.
func icsEscape(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\n", `\n`,
	)
	return r.Replace(s)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	bookings, err := s.db.GetAllBookings(r.Context())
	if err != nil {
		s.serverError(w, "load bookings for export", err)
		return
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].StartTime.Before(bookings[j].StartTime)
	})

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Bookings"
	index, err := f.NewSheet(sheet)
	if err != nil {
		s.serverError(w, "create export sheet", err)
		return
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"Booking ID", "Room", "Title", "Start (UTC)", "End (UTC)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for row, booking := range bookings {
		roomName := fmt.Sprintf("resource %d", booking.ResourceID)
		if room, ok := s.cfg.RoomByResourceID(booking.ResourceID); ok {
			roomName = room.Name
		}
		values := []any{
			booking.BookingID,
			roomName,
			booking.Title,
			booking.StartTime.UTC().Format(timetext.Layout),
			booking.EndTime.UTC().Format(timetext.Layout),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="roomboard.xlsx"`)
	if err := f.Write(w); err != nil {
		s.logger.Error().Err(err).Msg("failed to stream xlsx export")
	}
}

// serverError hides the failure detail behind a correlation id. The id shows
// up in both the response and the log line so a report from a user can be
// matched to the real error.
func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	id := uuid.NewString()
	s.logger.Error().Err(err).Str("error_id", id).Msg(op)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":    "internal server error",
		"error_id": id,
	})
}
