package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/coralpointe/association-portal/internal/dtos"
	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/services"
	"github.com/coralpointe/association-portal/internal/utils"
)

type PaymentController struct {
	paymentService *services.PaymentService
}

func NewPaymentController(ps *services.PaymentService) *PaymentController {
	return &PaymentController{paymentService: ps}
}

type recordPaymentResponse struct {
	Payment *models.Payment      `json:"payment"`
	Entries []models.LedgerEntry `json:"entries"`
}

// POST /api/v1/payments
func (c *PaymentController) RecordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dtos.RecordPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}

	unitID, err := uuid.Parse(req.UnitID)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Malformed unit_id", nil, err)
		return
	}

	var targetFund *models.Fund
	if req.TargetFund != "" {
		f := models.Fund(req.TargetFund)
		targetFund = &f
	}

	receivedAt := time.Now().UTC()
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}

	payment, entries, err := c.paymentService.RecordPayment(
		r.Context(), actor, unitID, amount,
		models.PaymentMethod(req.Method), targetFund, req.ExternalRef, receivedAt,
	)
	if err != nil {
		respondServiceError(w, err, "Failed to record payment")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, recordPaymentResponse{Payment: payment, Entries: entries})
}

// GET /api/v1/units/{unitID}/payments
func (c *PaymentController) ListUnitPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	unitID, ok := pathUUID(w, r, "unitID")
	if !ok {
		return
	}

	payments, err := c.paymentService.ListForUnit(r.Context(), actor, unitID)
	if err != nil {
		respondServiceError(w, err, "Failed to list payments")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, payments)
}
