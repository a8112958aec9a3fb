// Package churchtools fetches room bookings from a ChurchTools-style
// booking API over HTTP.
package churchtools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"roomboard/internal/config"
	"roomboard/internal/models"

	"github.com/rs/zerolog"
)

// bookingsResponse mirrors the remote payload shape. Only the fields the
// mirror needs are decoded.
type bookingsResponse struct {
	Data []bookingData `json:"data"`
}

type bookingData struct {
	Base       bookingBase       `json:"base"`
	Calculated bookingCalculated `json:"calculated"`
}

type bookingBase struct {
	// the booking's ID
	ID       int64        `json:"id"`
	Caption  string       `json:"caption"`
	Resource resourceData `json:"resource"`
}

type resourceData struct {
	// the resource's ID
	ID int64 `json:"id"`
}

type bookingCalculated struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Client queries the remote booking API for confirmed bookings.
type Client struct {
	cfg        config.RemoteConfig
	httpClient *http.Client
	logger     *zerolog.Logger
	baseURL    string
}

// NewClient builds a client for the configured remote host.
func NewClient(cfg config.RemoteConfig, logger *zerolog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		baseURL:    fmt.Sprintf("https://%s", cfg.Host),
	}
}

// statusConfirmed is the remote status filter for confirmed bookings.
const statusConfirmed = "2"

// FetchBookings returns the confirmed bookings for the given resources in
// the date range [from, to] (day granularity; the remote API cannot query
// finer than a calendar day).
//
// The remote timestamps arrive as RFC3339 with an offset the API does not
// guarantee; in practice the system returns UTC, and the values are
// normalized to UTC here. This is a documented external assumption.
func (c *Client) FetchBookings(ctx context.Context, resourceIDs []int64, from, to time.Time) ([]models.Booking, error) {
	query := url.Values{}
	for _, id := range resourceIDs {
		query.Add("resource_ids[]", strconv.FormatInt(id, 10))
	}
	query.Set("from", from.UTC().Format("2006-01-02"))
	query.Set("to", to.UTC().Format("2006-01-02"))
	query.Add("status_ids[]", statusConfirmed)

	endpoint := fmt.Sprintf("%s/api/bookings?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Login %s", c.cfg.LoginToken))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to get a response from the booking API")
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to read the booking API response body")
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Int("status", resp.StatusCode).Msg("booking API returned a non-OK status")
		return nil, &ProtocolError{Detail: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var decoded bookingsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.logger.Warn().Err(err).Str("body", string(body)).Msg("failed to parse the booking API response")
		return nil, &ProtocolError{Detail: "undecodable response body", Err: err}
	}

	bookings := make([]models.Booking, 0, len(decoded.Data))
	for _, d := range decoded.Data {
		start, err := parseRemoteTime(d.Calculated.StartDate)
		if err != nil {
			return nil, err
		}
		end, err := parseRemoteTime(d.Calculated.EndDate)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, models.Booking{
			BookingID:  d.Base.ID,
			ResourceID: d.Base.Resource.ID,
			Title:      d.Base.Caption,
			StartTime:  start,
			EndTime:    end,
		})
	}
	return bookings, nil
}

func parseRemoteTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &TimeParseError{Value: value, Err: err}
	}
	return t.UTC(), nil
}
