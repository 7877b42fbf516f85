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

type PMSHandler struct {
	service *service.PMSImportService
	log     *logger.Logger
}

func NewPMSHandler(service *service.PMSImportService, log *logger.Logger) *PMSHandler {
	return &PMSHandler{service: service, log: log}
}

// @Summary Connect a PMS account
// @Router /pms/connect [post]
func (h *PMSHandler) Connect(c *gin.Context) {
	var req dto.ConnectPMSRequest
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

	integ, err := h.service.Connect(c.Request.Context(), req.Type, req.Credentials)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, integ)
}

// @Summary Disconnect a PMS account
// @Router /pms/{type} [delete]
func (h *PMSHandler) Disconnect(c *gin.Context) {
	if err := h.service.Disconnect(c.Request.Context(), types.PMSType(c.Param("type"))); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary List connected PMS accounts
// @Router /pms [get]
func (h *PMSHandler) List(c *gin.Context) {
	integrations, err := h.service.ListIntegrations(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, integrations)
}

// @Summary Import remote listings as properties
// @Router /pms/{type}/import [post]
func (h *PMSHandler) Import(c *gin.Context) {
	outcome, err := h.service.ImportProperties(c.Request.Context(), types.PMSType(c.Param("type")))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}
