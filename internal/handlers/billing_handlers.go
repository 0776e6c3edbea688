package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/quillcraft-golang/internal/billing"
)

type CheckoutInput struct {
	Interval billing.Interval `json:"interval"`
}

// CreateCheckoutSession starts a Stripe Checkout Session for the authenticated user.
func (h *Handlers) CreateCheckoutSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var input CheckoutInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	user, err := h.Accounts.Me(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	url, err := h.Checkout.CreateCheckoutSession(c.Request.Context(), user, input.Interval)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// CreatePortalSession creates a Stripe Customer Portal session for the authenticated user.
func (h *Handlers) CreatePortalSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	url, err := h.Checkout.CreatePortalSession(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

const maxWebhookBytes = int64(65536)

// StripeWebhook handles Stripe subscription events and updates user plans.
func (h *Handlers) StripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	err = h.Webhooks.Handle(c.Request.Context(), body, c.GetHeader("Stripe-Signature"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case errors.Is(err, billing.ErrInvalidSignature):
		h.Logger.Warn(c.Request.Context(), "stripe webhook rejected", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
	case errors.Is(err, billing.ErrInvalidPayload):
		h.Logger.Warn(c.Request.Context(), "stripe webhook payload invalid", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
	case errors.Is(err, billing.ErrUnknownCustomer):
		// Retrying will not help; acknowledge so Stripe stops redelivering.
		h.Logger.Warn(c.Request.Context(), "stripe webhook for unknown customer", "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	default:
		h.Logger.Error(c.Request.Context(), "stripe webhook failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update subscription"})
	}
}
