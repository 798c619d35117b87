package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/coralpointe/association-portal/internal/services"
	"github.com/coralpointe/association-portal/internal/utils"
)

// Metadata keys the checkout flow stamps on every payment intent.
const (
	stripeMetadataUnitIDKey = "unit_id"
	stripeMetadataFundKey   = "fund"
)

type StripeWebhookController struct {
	webhookSecret  string
	paymentService *services.PaymentService
}

func NewStripeWebhookController(webhookSecret string, ps *services.PaymentService) *StripeWebhookController {
	return &StripeWebhookController{webhookSecret: webhookSecret, paymentService: ps}
}

// WebhookHandler -> POST /api/v1/payments/stripe/webhook
func (c *StripeWebhookController) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	sigHeader := r.Header.Get("Stripe-Signature")
	if sigHeader == "" {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Missing Stripe-Signature header", nil)
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Failed to read webhook body", nil, err)
		return
	}

	event, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		utils.Logger.WithError(err).Error("Stripe webhook signature verification failed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			utils.Logger.WithError(err).Error("Could not parse payment intent in payment_intent.succeeded")
			break
		}
		c.handlePaymentIntentSucceeded(r, &pi)
	case stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err == nil {
			utils.Logger.Warnf("Stripe payment intent %s failed for unit %s", pi.ID, pi.Metadata[stripeMetadataUnitIDKey])
		}
	default:
		utils.Logger.Infof("Unhandled Stripe event type received: %s", event.Type)
	}

	// Always 200 once the signature checked out; Stripe retries anything
	// else and our handlers are idempotent anyway.
	w.WriteHeader(http.StatusOK)
}

func (c *StripeWebhookController) handlePaymentIntentSucceeded(r *http.Request, pi *stripe.PaymentIntent) {
	unitID, err := uuid.Parse(pi.Metadata[stripeMetadataUnitIDKey])
	if err != nil {
		utils.Logger.Errorf("Stripe intent %s carries no usable unit_id metadata", pi.ID)
		return
	}

	fundHint := pi.Metadata[stripeMetadataFundKey]
	if err := c.paymentService.HandleCompletedStripePayment(
		r.Context(), pi.ID, unitID, pi.AmountReceived, fundHint,
	); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to process Stripe intent %s", pi.ID)
	}
}
