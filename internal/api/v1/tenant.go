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

type TenantHandler struct {
	service *service.TenantService
	billing *service.BillingService
	log     *logger.Logger
}

func NewTenantHandler(service *service.TenantService, billing *service.BillingService, log *logger.Logger) *TenantHandler {
	return &TenantHandler{service: service, billing: billing, log: log}
}

// @Summary Get the authenticated account
// @Router /account [get]
func (h *TenantHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	t, err := h.service.GetTenant(ctx, types.GetUserID(ctx))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// @Summary Replace the monthly revenue targets
// @Router /account/revenue-targets [put]
func (h *TenantHandler) UpdateRevenueTargets(c *gin.Context) {
	var req dto.UpdateRevenueTargetsRequest
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

	ctx := c.Request.Context()
	t, err := h.service.UpdateRevenueTargets(ctx, types.GetUserID(ctx), req.Targets)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// @Summary Toggle the nightly auto-pricing run
// @Router /account/auto-pricing [put]
func (h *TenantHandler) UpdateAutoPricing(c *gin.Context) {
	var req dto.UpdateAutoPricingRequest
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

	ctx := c.Request.Context()
	t, err := h.service.UpdateAutoPricing(ctx, types.GetUserID(ctx), req.Enabled, req.Timezone)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// @Summary End the trial immediately and start billing
// @Router /account/end-trial [post]
func (h *TenantHandler) EndTrial(c *gin.Context) {
	ctx := c.Request.Context()
	t, err := h.service.RequireActiveTenant(ctx, types.GetUserID(ctx))
	if err != nil {
		c.Error(err)
		return
	}
	if err := h.billing.EndTrialNow(ctx, t); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, t)
}
