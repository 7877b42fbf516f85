package smoobu

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/httpclient"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/pms"
	"github.com/stayprice/stayprice/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// settingsWindowDays is how far ahead base price and stay rules are pushed.
// Smoobu has no property-level defaults endpoint, so settings are written as
// rate operations over the forward window.
const settingsWindowDays = 180

// Adapter talks to the Smoobu API. Credentials carry a single "api_key".
type Adapter struct {
	client  httpclient.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewFactory returns an adapter factory bound to the configured base URL
func NewFactory(client httpclient.Client, baseURL string, log *logger.Logger) pms.AdapterFactory {
	return func(credentials types.Metadata) (pms.Adapter, error) {
		apiKey := credentials["api_key"]
		if apiKey == "" {
			return nil, ierr.NewError("missing smoobu api key").
				WithHint("The Smoobu integration requires an api_key credential").
				Mark(ierr.ErrValidation)
		}
		return &Adapter{
			client:  client,
			baseURL: baseURL,
			apiKey:  apiKey,
			// Smoobu throttles around 1000 requests per minute
			limiter: rate.NewLimiter(rate.Limit(10), 20),
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
			"Api-Key": a.apiKey,
			"Accept":  "application/json",
		},
		Body: payload,
	})
	if err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok {
			return nil, ierr.NewError("smoobu request failed").
				WithHintf("Smoobu returned status %d", httpErr.StatusCode).
				WithReportableDetails(map[string]any{
					"status":   httpErr.StatusCode,
					"response": string(httpErr.Response),
				}).
				Mark(ierr.ErrRemoteProvider)
		}
		return nil, ierr.WithError(err).
			WithHint("Smoobu could not be reached").
			Mark(ierr.ErrRemoteProvider)
	}
	return resp.Body, nil
}

// TestConnection calls the authenticated user endpoint
func (a *Adapter) TestConnection(ctx context.Context) error {
	_, err := a.do(ctx, http.MethodGet, "/me", nil)
	return err
}

type apartmentList struct {
	Apartments []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"apartments"`
}

type apartmentDetail struct {
	Location struct {
		Street    string `json:"street"`
		City      string `json:"city"`
		Country   string `json:"country"`
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"location"`
	Rooms struct {
		MaxOccupancy int `json:"maxOccupancy"`
	} `json:"rooms"`
}

// GetProperties lists apartments and enriches each with its detail record
func (a *Adapter) GetProperties(ctx context.Context) ([]pms.NormalizedProperty, error) {
	body, err := a.do(ctx, http.MethodGet, "/apartments", nil)
	if err != nil {
		return nil, err
	}

	var list apartmentList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Smoobu returned an unexpected apartment payload").
			Mark(ierr.ErrRemoteProvider)
	}

	properties := make([]pms.NormalizedProperty, 0, len(list.Apartments))
	for _, apt := range list.Apartments {
		prop := pms.NormalizedProperty{
			PMSID: strconv.Itoa(apt.ID),
			Name:  apt.Name,
		}

		detailBody, err := a.do(ctx, http.MethodGet, fmt.Sprintf("/apartments/%d", apt.ID), nil)
		if err == nil {
			var detail apartmentDetail
			if json.Unmarshal(detailBody, &detail) == nil {
				prop.Capacity = detail.Rooms.MaxOccupancy
				loc := &pms.Location{
					Address: detail.Location.Street,
					City:    detail.Location.City,
					Country: detail.Location.Country,
				}
				if lat, err := strconv.ParseFloat(detail.Location.Latitude, 64); err == nil {
					loc.Latitude = &lat
				}
				if lon, err := strconv.ParseFloat(detail.Location.Longitude, 64); err == nil {
					loc.Longitude = &lon
				}
				prop.Location = loc
			}
		} else {
			a.logger.Warnw("failed to fetch smoobu apartment detail", "apartment_id", apt.ID, "error", err)
		}

		properties = append(properties, prop)
	}
	return properties, nil
}

type bookingPage struct {
	PageCount int `json:"page_count"`
	Bookings  []struct {
		ID        int     `json:"id"`
		Arrival   string  `json:"arrival"`
		Departure string  `json:"departure"`
		Type      string  `json:"type"`
		GuestName string  `json:"guest-name"`
		Price     float64 `json:"price"`
		Apartment struct {
			ID int `json:"id"`
		} `json:"apartment"`
		Channel struct {
			Name string `json:"name"`
		} `json:"channel"`
	} `json:"bookings"`
}

// GetReservations pages through bookings overlapping [from, to]
func (a *Adapter) GetReservations(ctx context.Context, from, to string) ([]pms.NormalizedReservation, error) {
	var reservations []pms.NormalizedReservation

	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("from", from)
		query.Set("to", to)
		query.Set("page", strconv.Itoa(page))
		query.Set("pageSize", "100")

		body, err := a.do(ctx, http.MethodGet, "/reservations?"+query.Encode(), nil)
		if err != nil {
			return nil, err
		}

		var result bookingPage
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Smoobu returned an unexpected reservation payload").
				Mark(ierr.ErrRemoteProvider)
		}

		for _, b := range result.Bookings {
			res := pms.NormalizedReservation{
				PMSID:      strconv.Itoa(b.ID),
				PropertyID: strconv.Itoa(b.Apartment.ID),
				StartDate:  b.Arrival,
				EndDate:    b.Departure,
				Status:     normalizeStatus(b.Type),
				Channel:    b.Channel.Name,
			}
			if b.GuestName != "" {
				name := b.GuestName
				res.GuestName = &name
			}
			if b.Price > 0 {
				price := b.Price
				res.TotalPrice = &price
			}
			reservations = append(reservations, res)
		}

		if page >= result.PageCount || len(result.Bookings) == 0 {
			break
		}
	}
	return reservations, nil
}

func normalizeStatus(bookingType string) string {
	if bookingType == "cancellation" {
		return string(types.BookingStatusCanceled)
	}
	return string(types.BookingStatusConfirmed)
}

type reservationResponse struct {
	ID int `json:"id"`
}

// CreateReservation creates a manual booking on the apartment
func (a *Adapter) CreateReservation(ctx context.Context, pmsPropertyID string, data pms.ReservationData) (*pms.NormalizedReservation, error) {
	apartmentID, err := strconv.Atoi(pmsPropertyID)
	if err != nil {
		return nil, ierr.NewError("invalid smoobu apartment id").
			WithHintf("Apartment id %q is not numeric", pmsPropertyID).
			Mark(ierr.ErrValidation)
	}

	payload := map[string]any{
		"apartmentId":   apartmentID,
		"arrivalDate":   data.StartDate,
		"departureDate": data.EndDate,
		"channelId":     channelID(data.Channel),
	}
	if data.GuestName != nil {
		payload["firstName"] = *data.GuestName
	}
	if data.TotalPrice != nil {
		payload["price"] = *data.TotalPrice
	}

	body, err := a.do(ctx, http.MethodPost, "/reservations", payload)
	if err != nil {
		return nil, err
	}

	var created reservationResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Smoobu returned an unexpected creation payload").
			Mark(ierr.ErrRemoteProvider)
	}

	return &pms.NormalizedReservation{
		PMSID:      strconv.Itoa(created.ID),
		PropertyID: pmsPropertyID,
		StartDate:  data.StartDate,
		EndDate:    data.EndDate,
		Status:     string(types.BookingStatusConfirmed),
		GuestName:  data.GuestName,
		TotalPrice: data.TotalPrice,
		Channel:    data.Channel,
	}, nil
}

// UpdateReservation modifies an existing booking
func (a *Adapter) UpdateReservation(ctx context.Context, pmsReservationID string, data pms.ReservationData) (*pms.NormalizedReservation, error) {
	payload := map[string]any{
		"arrivalDate":   data.StartDate,
		"departureDate": data.EndDate,
	}
	if data.GuestName != nil {
		payload["firstName"] = *data.GuestName
	}
	if data.TotalPrice != nil {
		payload["price"] = *data.TotalPrice
	}

	if _, err := a.do(ctx, http.MethodPut, "/reservations/"+pmsReservationID, payload); err != nil {
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

// DeleteReservation cancels a booking
func (a *Adapter) DeleteReservation(ctx context.Context, pmsReservationID string) error {
	_, err := a.do(ctx, http.MethodDelete, "/reservations/"+pmsReservationID, nil)
	return err
}

type rateOperation struct {
	Dates           []string `json:"dates"`
	DailyPrice      *float64 `json:"daily_price,omitempty"`
	MinLengthOfStay *int     `json:"min_length_of_stay,omitempty"`
}

type ratePayload struct {
	Apartments []int           `json:"apartments"`
	Operations []rateOperation `json:"operations"`
}

// UpdatePropertySettings writes base price and stay rules as rate operations
// over the forward window
func (a *Adapter) UpdatePropertySettings(ctx context.Context, pmsPropertyID string, settings pms.Settings) error {
	apartmentID, err := strconv.Atoi(pmsPropertyID)
	if err != nil {
		return ierr.NewError("invalid smoobu apartment id").
			WithHintf("Apartment id %q is not numeric", pmsPropertyID).
			Mark(ierr.ErrValidation)
	}

	op := rateOperation{Dates: forwardWindow(settingsWindowDays)}
	if settings.BasePrice != nil {
		op.DailyPrice = settings.BasePrice
	}
	if settings.MinStay != nil {
		op.MinLengthOfStay = settings.MinStay
	}
	if op.DailyPrice == nil && op.MinLengthOfStay == nil {
		// Nothing Smoobu can represent; floor/ceiling and discounts are
		// enforced locally before rates are pushed
		return nil
	}

	_, err = a.do(ctx, http.MethodPost, "/rates", ratePayload{
		Apartments: []int{apartmentID},
		Operations: []rateOperation{op},
	})
	return err
}

// UpdateRate pushes a single day's price
func (a *Adapter) UpdateRate(ctx context.Context, pmsPropertyID string, date string, price float64) error {
	return a.UpdateBatchRates(ctx, pmsPropertyID, []pms.RateUpdate{{Date: date, Price: price}})
}

// UpdateBatchRates pushes all rates in one call, with same-price dates
// coalesced into a single operation
func (a *Adapter) UpdateBatchRates(ctx context.Context, pmsPropertyID string, updates []pms.RateUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	apartmentID, err := strconv.Atoi(pmsPropertyID)
	if err != nil {
		return ierr.NewError("invalid smoobu apartment id").
			WithHintf("Apartment id %q is not numeric", pmsPropertyID).
			Mark(ierr.ErrValidation)
	}

	runs := pms.CoalesceRates(updates)
	operations := make([]rateOperation, 0, len(runs))
	for _, run := range runs {
		price := run.Price
		operations = append(operations, rateOperation{
			Dates:      run.Dates,
			DailyPrice: &price,
		})
	}

	_, err = a.do(ctx, http.MethodPost, "/rates", ratePayload{
		Apartments: []int{apartmentID},
		Operations: operations,
	})
	return err
}

func forwardWindow(days int) []string {
	dates := make([]string, days)
	start := time.Now().UTC()
	for i := range dates {
		dates[i] = types.FormatDate(start.AddDate(0, 0, i))
	}
	return dates
}

// channelID maps a channel label to Smoobu's channel identifier. Direct
// bookings fall back to the generic "Direct" channel.
func channelID(channel string) int {
	switch channel {
	case "blocked":
		return 13
	default:
		return 70
	}
}
