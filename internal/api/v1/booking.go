package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stayprice/stayprice/internal/api/dto"
	"github.com/stayprice/stayprice/internal/domain/booking"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/service"
	"github.com/stayprice/stayprice/internal/types"
)

type BookingHandler struct {
	service *service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service *service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{service: service, log: log}
}

// @Summary Record a booking
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	b, err := req.ToBooking()
	if err != nil {
		c.Error(err)
		return
	}
	created, err := h.service.Create(c.Request.Context(), b)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary Update a booking
// @Router /bookings/{id} [put]
func (h *BookingHandler) Update(c *gin.Context) {
	var req dto.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	var applyErr error
	updated, err := h.service.Update(c.Request.Context(), c.Param("id"), func(b *booking.Booking) {
		applyErr = req.Apply(b)
	})
	if applyErr != nil {
		c.Error(applyErr)
		return
	}
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary Delete a booking
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary List a property's bookings
// @Router /properties/{id}/bookings [get]
func (h *BookingHandler) ListByProperty(c *gin.Context) {
	bookings, err := h.service.ListByProperty(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// @Summary Occupancy and revenue stats over a window
// @Router /bookings/stats [get]
func (h *BookingHandler) Stats(c *gin.Context) {
	from, err := statsBound(c.Query("from"), types.TruncateToDay(time.Now().UTC()))
	if err != nil {
		c.Error(err)
		return
	}
	to, err := statsBound(c.Query("to"), from.AddDate(0, 1, 0))
	if err != nil {
		c.Error(err)
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), from, to)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func statsBound(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := types.ParseDate(value)
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHint("from and to must be YYYY-MM-DD dates").
			Mark(ierr.ErrValidation)
	}
	return d, nil
}
