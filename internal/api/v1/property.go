package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stayprice/stayprice/internal/api/dto"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/service"
	"github.com/stayprice/stayprice/internal/types"
)

type PropertyHandler struct {
	service *service.PropertyService
	log     *logger.Logger
}

func NewPropertyHandler(service *service.PropertyService, log *logger.Logger) *PropertyHandler {
	return &PropertyHandler{service: service, log: log}
}

// @Summary Create a property
// @Router /properties [post]
func (h *PropertyHandler) Create(c *gin.Context) {
	var req dto.CreatePropertyRequest
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

	prop, err := h.service.Create(c.Request.Context(), req.ToProperty())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, prop)
}

// @Summary List the team's properties
// @Router /properties [get]
func (h *PropertyHandler) List(c *gin.Context) {
	properties, err := h.service.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, properties)
}

// @Summary Get a property
// @Router /properties/{id} [get]
func (h *PropertyHandler) Get(c *gin.Context) {
	prop, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, prop)
}

// @Summary Update the pricing strategy and price ladder
// @Router /properties/{id}/strategy [put]
func (h *PropertyHandler) UpdateStrategy(c *gin.Context) {
	var req dto.UpdateStrategyRequest
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

	prop, err := h.service.UpdateStrategy(c.Request.Context(), c.Param("id"), req.ToUpdate())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, prop)
}

// @Summary Update stay rules and discounts
// @Router /properties/{id}/rules [put]
func (h *PropertyHandler) UpdateRules(c *gin.Context) {
	var req dto.UpdateRulesRequest
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

	prop, err := h.service.UpdateRules(c.Request.Context(), c.Param("id"), req.ToUpdate())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, prop)
}

// @Summary Change the property status
// @Router /properties/{id}/status [put]
func (h *PropertyHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
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

	prop, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, prop)
}

// @Summary Delete a property
// @Router /properties/{id} [delete]
func (h *PropertyHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary Get the pricing calendar
// @Router /properties/{id}/calendar [get]
func (h *PropertyHandler) GetCalendar(c *gin.Context) {
	overrides, err := h.service.GetCalendar(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, overrides)
}

// @Summary Regenerate the pricing calendar now
// @Router /properties/{id}/calendar/generate [post]
func (h *PropertyHandler) GenerateCalendar(c *gin.Context) {
	result, err := h.service.GenerateCalendar(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Pin a manual price on one day
// @Router /properties/{id}/calendar/override [put]
func (h *PropertyHandler) SetOverride(c *gin.Context) {
	var req dto.ManualOverrideRequest
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

	date, err := types.ParseDate(req.Date)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("date must be a YYYY-MM-DD date").
			Mark(ierr.ErrValidation))
		return
	}

	override, err := h.service.SetManualOverride(c.Request.Context(), c.Param("id"), date, req.Price, req.Locked, req.Reason)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, override)
}

// @Summary Get the property audit log
// @Router /properties/{id}/logs [get]
func (h *PropertyHandler) GetLogs(c *gin.Context) {
	logs, err := h.service.GetLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
