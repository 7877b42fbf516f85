package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stayprice/stayprice/internal/api/dto"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/service"
)

type GroupHandler struct {
	service *service.GroupService
	log     *logger.Logger
}

func NewGroupHandler(service *service.GroupService, log *logger.Logger) *GroupHandler {
	return &GroupHandler{service: service, log: log}
}

// @Summary Create a property group
// @Router /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var req dto.CreateGroupRequest
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

	g, err := h.service.Create(c.Request.Context(), req.Name, req.SyncPrices)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// @Summary List the tenant's groups
// @Router /groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.service.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// @Summary Add a property to a group
// @Router /groups/{id}/properties [post]
func (h *GroupHandler) AddProperty(c *gin.Context) {
	var req dto.GroupMemberRequest
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

	g, err := h.service.AddProperty(c.Request.Context(), c.Param("id"), req.PropertyID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// @Summary Remove a property from a group
// @Router /groups/{id}/properties/{propertyId} [delete]
func (h *GroupHandler) RemoveProperty(c *gin.Context) {
	g, err := h.service.RemoveProperty(c.Request.Context(), c.Param("id"), c.Param("propertyId"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// @Summary Promote a member to main property
// @Router /groups/{id}/main [put]
func (h *GroupHandler) SetMainProperty(c *gin.Context) {
	var req dto.GroupMemberRequest
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

	g, err := h.service.SetMainProperty(c.Request.Context(), c.Param("id"), req.PropertyID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// @Summary Delete a group, keeping its properties
// @Router /groups/{id} [delete]
func (h *GroupHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
