package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	ierr "github.com/stayprice/stayprice/internal/errors"
	stripeint "github.com/stayprice/stayprice/internal/integration/stripe"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/service"
)

type WebhookHandler struct {
	stripe  *stripeint.Client
	service *service.WebhookService
	log     *logger.Logger
}

func NewWebhookHandler(stripe *stripeint.Client, service *service.WebhookService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{stripe: stripe, service: service, log: log}
}

// HandleStripe verifies the event signature and dispatches it. The route
// is unauthenticated; the signature is the authentication.
// @Router /webhooks/stripe [post]
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Could not read webhook payload").
			Mark(ierr.ErrValidation))
		return
	}

	event, err := h.stripe.ParseWebhookEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.HandleEvent(c.Request.Context(), event); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
