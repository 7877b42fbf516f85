package beds24

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/httpclient"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/pms"
	"github.com/stayprice/stayprice/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Adapter talks to the Beds24 v2 API. Credentials carry a long-lived
// "token". Units are exposed one NormalizedProperty per room, with the room
// id as the canonical pms id, since rates and bookings are room-scoped.
type Adapter struct {
	client  httpclient.Client
	baseURL string
	token   string
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewFactory returns an adapter factory bound to the configured base URL
func NewFactory(client httpclient.Client, baseURL string, log *logger.Logger) pms.AdapterFactory {
	return func(credentials types.Metadata) (pms.Adapter, error) {
		token := credentials["token"]
		if token == "" {
			return nil, ierr.NewError("missing beds24 token").
				WithHint("The Beds24 integration requires a token credential").
				Mark(ierr.ErrValidation)
		}
		return &Adapter{
			client:  client,
			baseURL: baseURL,
			token:   token,
			// Beds24 enforces a credit budget; stay well under it
			limiter: rate.NewLimiter(rate.Limit(5), 10),
			logger:  log,
		}, nil
	}
}

func (a *Adapter) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrRemoteProvider)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
		}
	}

	resp, err := a.client.Send(ctx, &httpclient.Request{
		Method: method,
		URL:    a.baseURL + path,
		Headers: map[string]string{
			"token":  a.token,
			"Accept": "application/json",
		},
		Body: payload,
	})
	if err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok {
			return nil, ierr.NewError("beds24 request failed").
				WithHintf("Beds24 returned status %d", httpErr.StatusCode).
				WithReportableDetails(map[string]any{
					"status":   httpErr.StatusCode,
					"response": string(httpErr.Response),
				}).
				Mark(ierr.ErrRemoteProvider)
		}
		return nil, ierr.WithError(err).
			WithHint("Beds24 could not be reached").
			Mark(ierr.ErrRemoteProvider)
	}
	return resp.Body, nil
}

// TestConnection validates the token
func (a *Adapter) TestConnection(ctx context.Context) error {
	_, err := a.do(ctx, http.MethodGet, "/authentication/details", nil)
	return err
}

type propertyList struct {
	Data []struct {
		ID        int      `json:"id"`
		Name      string   `json:"name"`
		Address   string   `json:"address"`
		City      string   `json:"city"`
		Country   string   `json:"country"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		RoomTypes []struct {
			ID        int    `json:"id"`
			Name      string `json:"name"`
			MaxPeople int    `json:"maxPeople"`
		} `json:"roomTypes"`
	} `json:"data"`
}

// GetProperties flattens properties and their room types into one entry per
// room
func (a *Adapter) GetProperties(ctx context.Context) ([]pms.NormalizedProperty, error) {
	body, err := a.do(ctx, http.MethodGet, "/properties?includeAllRooms=true", nil)
	if err != nil {
		return nil, err
	}

	var list propertyList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Beds24 returned an unexpected property payload").
			Mark(ierr.ErrRemoteProvider)
	}

	var properties []pms.NormalizedProperty
	for _, p := range list.Data {
		loc := &pms.Location{
			Address:   p.Address,
			City:      p.City,
			Country:   p.Country,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
		}
		for _, room := range p.RoomTypes {
			name := p.Name
			if room.Name != "" && room.Name != p.Name {
				name = p.Name + " - " + room.Name
			}
			properties = append(properties, pms.NormalizedProperty{
				PMSID:    strconv.Itoa(room.ID),
				Name:     name,
				Capacity: room.MaxPeople,
				Location: loc,
			})
		}
	}
	return properties, nil
}

type bookingList struct {
	Data []struct {
		ID        int      `json:"id"`
		RoomID    int      `json:"roomId"`
		Arrival   string   `json:"arrival"`
		Departure string   `json:"departure"`
		Status    string   `json:"status"`
		FirstName string   `json:"firstName"`
		LastName  string   `json:"lastName"`
		Price     *float64 `json:"price"`
		Channel   string   `json:"channel"`
	} `json:"data"`
}

// GetReservations lists bookings overlapping [from, to]
func (a *Adapter) GetReservations(ctx context.Context, from, to string) ([]pms.NormalizedReservation, error) {
	query := url.Values{}
	query.Set("departureFrom", from)
	query.Set("arrivalTo", to)

	body, err := a.do(ctx, http.MethodGet, "/bookings?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var list bookingList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Beds24 returned an unexpected booking payload").
			Mark(ierr.ErrRemoteProvider)
	}

	reservations := make([]pms.NormalizedReservation, 0, len(list.Data))
	for _, b := range list.Data {
		res := pms.NormalizedReservation{
			PMSID:      strconv.Itoa(b.ID),
			PropertyID: strconv.Itoa(b.RoomID),
			StartDate:  b.Arrival,
			EndDate:    b.Departure,
			Status:     normalizeStatus(b.Status),
			Channel:    b.Channel,
			TotalPrice: b.Price,
		}
		if name := joinName(b.FirstName, b.LastName); name != "" {
			res.GuestName = &name
		}
		reservations = append(reservations, res)
	}
	return reservations, nil
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}

func normalizeStatus(status string) string {
	switch status {
	case "cancelled", "black":
		return string(types.BookingStatusCanceled)
	case "request", "inquiry":
		return string(types.BookingStatusPending)
	default:
		return string(types.BookingStatusConfirmed)
	}
}

type bookingWriteResult struct {
	Success bool `json:"success"`
	New     struct {
		ID int `json:"id"`
	} `json:"new"`
	Errors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (a *Adapter) writeBookings(ctx context.Context, payload []map[string]any) ([]bookingWriteResult, error) {
	body, err := a.do(ctx, http.MethodPost, "/bookings", payload)
	if err != nil {
		return nil, err
	}

	var results []bookingWriteResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Beds24 returned an unexpected write payload").
			Mark(ierr.ErrRemoteProvider)
	}
	for _, r := range results {
		if !r.Success && len(r.Errors) > 0 {
			return nil, ierr.NewError("beds24 rejected booking write").
				WithHintf("Beds24 rejected field %s: %s", r.Errors[0].Field, r.Errors[0].Message).
				Mark(ierr.ErrRemoteProvider)
		}
	}
	return results, nil
}

// CreateReservation posts a new booking on the room
func (a *Adapter) CreateReservation(ctx context.Context, pmsPropertyID string, data pms.ReservationData) (*pms.NormalizedReservation, error) {
	roomID, err := strconv.Atoi(pmsPropertyID)
	if err != nil {
		return nil, ierr.NewError("invalid beds24 room id").
			WithHintf("Room id %q is not numeric", pmsPropertyID).
			Mark(ierr.ErrValidation)
	}

	entry := map[string]any{
		"roomId":    roomID,
		"arrival":   data.StartDate,
		"departure": data.EndDate,
		"status":    "confirmed",
	}
	if data.GuestName != nil {
		entry["firstName"] = *data.GuestName
	}
	if data.TotalPrice != nil {
		entry["price"] = *data.TotalPrice
	}

	results, err := a.writeBookings(ctx, []map[string]any{entry})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ierr.NewError("beds24 returned no booking result").
			Mark(ierr.ErrRemoteProvider)
	}

	return &pms.NormalizedReservation{
		PMSID:      strconv.Itoa(results[0].New.ID),
		PropertyID: pmsPropertyID,
		StartDate:  data.StartDate,
		EndDate:    data.EndDate,
		Status:     string(types.BookingStatusConfirmed),
		GuestName:  data.GuestName,
		TotalPrice: data.TotalPrice,
		Channel:    data.Channel,
	}, nil
}

// UpdateReservation modifies an existing booking by id
func (a *Adapter) UpdateReservation(ctx context.Context, pmsReservationID string, data pms.ReservationData) (*pms.NormalizedReservation, error) {
	bookingID, err := strconv.Atoi(pmsReservationID)
	if err != nil {
		return nil, ierr.NewError("invalid beds24 booking id").
			WithHintf("Booking id %q is not numeric", pmsReservationID).
			Mark(ierr.ErrValidation)
	}

	entry := map[string]any{
		"id":        bookingID,
		"arrival":   data.StartDate,
		"departure": data.EndDate,
	}
	if data.GuestName != nil {
		entry["firstName"] = *data.GuestName
	}
	if data.TotalPrice != nil {
		entry["price"] = *data.TotalPrice
	}

	if _, err := a.writeBookings(ctx, []map[string]any{entry}); err != nil {
		return nil, err
	}

	return &pms.NormalizedReservation{
		PMSID:      pmsReservationID,
		StartDate:  data.StartDate,
		EndDate:    data.EndDate,
		Status:     data.Status,
		GuestName:  data.GuestName,
		TotalPrice: data.TotalPrice,
		Channel:    data.Channel,
	}, nil
}

// DeleteReservation cancels a booking; Beds24 has no hard delete
func (a *Adapter) DeleteReservation(ctx context.Context, pmsReservationID string) error {
	bookingID, err := strconv.Atoi(pmsReservationID)
	if err != nil {
		return ierr.NewError("invalid beds24 booking id").
			WithHintf("Booking id %q is not numeric", pmsReservationID).
			Mark(ierr.ErrValidation)
	}

	_, err = a.writeBookings(ctx, []map[string]any{{
		"id":     bookingID,
		"status": "cancelled",
	}})
	return err
}

type calendarEntry struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	Price1  *float64 `json:"price1,omitempty"`
	MinStay *int     `json:"minStay,omitempty"`
	MaxStay *int     `json:"maxStay,omitempty"`
}

type calendarWrite struct {
	RoomID   int             `json:"roomId"`
	Calendar []calendarEntry `json:"calendar"`
}

// UpdatePropertySettings pushes base price and stay rules over the forward
// window via the room calendar
func (a *Adapter) UpdatePropertySettings(ctx context.Context, pmsPropertyID string, settings pms.Settings) error {
	roomID, err := strconv.Atoi(pmsPropertyID)
	if err != nil {
		return ierr.NewError("invalid beds24 room id").
			WithHintf("Room id %q is not numeric", pmsPropertyID).
			Mark(ierr.ErrValidation)
	}

	entry := calendarEntry{
		From: types.FormatDate(types.TodayUTC()),
		To:   types.FormatDate(types.TodayUTC().AddDate(0, 0, types.CalendarDays-1)),
	}
	if settings.BasePrice != nil {
		entry.Price1 = settings.BasePrice
	}
	if settings.MinStay != nil {
		entry.MinStay = settings.MinStay
	}
	if settings.MaxStay != nil {
		entry.MaxStay = settings.MaxStay
	}
	if entry.Price1 == nil && entry.MinStay == nil && entry.MaxStay == nil {
		return nil
	}

	_, err = a.do(ctx, http.MethodPost, "/inventory/rooms/calendar", []calendarWrite{{
		RoomID:   roomID,
		Calendar: []calendarEntry{entry},
	}})
	return err
}

// UpdateRate pushes a single day's price
func (a *Adapter) UpdateRate(ctx context.Context, pmsPropertyID string, date string, price float64) error {
	return a.UpdateBatchRates(ctx, pmsPropertyID, []pms.RateUpdate{{Date: date, Price: price}})
}

// UpdateBatchRates pushes the rates as calendar ranges, one range per run of
// consecutive same-price dates
func (a *Adapter) UpdateBatchRates(ctx context.Context, pmsPropertyID string, updates []pms.RateUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	roomID, err := strconv.Atoi(pmsPropertyID)
	if err != nil {
		return ierr.NewError("invalid beds24 room id").
			WithHintf("Room id %q is not numeric", pmsPropertyID).
			Mark(ierr.ErrValidation)
	}

	runs := pms.CoalesceRates(updates)
	entries := make([]calendarEntry, 0, len(runs))
	for _, run := range runs {
		price := run.Price
		entries = append(entries, calendarEntry{
			From:   run.Dates[0],
			To:     run.Dates[len(run.Dates)-1],
			Price1: &price,
		})
	}

	_, err = a.do(ctx, http.MethodPost, "/inventory/rooms/calendar", []calendarWrite{{
		RoomID:   roomID,
		Calendar: entries,
	}})
	return err
}
