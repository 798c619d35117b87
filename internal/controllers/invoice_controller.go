package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/coralpointe/association-portal/internal/dtos"
	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/services"
	"github.com/coralpointe/association-portal/internal/utils"
)

type InvoiceController struct {
	invoiceService *services.InvoiceService
}

func NewInvoiceController(is *services.InvoiceService) *InvoiceController {
	return &InvoiceController{invoiceService: is}
}

// POST /api/v1/invoices
func (c *InvoiceController) CreateInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dtos.CreateInvoiceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Malformed vendor_id", nil, err)
		return
	}

	inv, err := c.invoiceService.Create(
		r.Context(), actor, vendorID, models.Fund(req.Fund), amount, req.Description, req.DueDate,
	)
	if err != nil {
		respondServiceError(w, err, "Failed to create invoice")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, inv)
}

// POST /api/v1/invoices/{invoiceID}/decision
func (c *InvoiceController) DecideInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	invoiceID, ok := pathUUID(w, r, "invoiceID")
	if !ok {
		return
	}

	var req dtos.DecideInvoiceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	inv, err := c.invoiceService.Decide(r.Context(), actor, invoiceID, req.Approve)
	if err != nil {
		respondServiceError(w, err, "Failed to decide invoice")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, inv)
}

// POST /api/v1/invoices/{invoiceID}/paid
func (c *InvoiceController) MarkInvoicePaidHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	invoiceID, ok := pathUUID(w, r, "invoiceID")
	if !ok {
		return
	}

	inv, err := c.invoiceService.MarkPaid(r.Context(), actor, invoiceID)
	if err != nil {
		respondServiceError(w, err, "Failed to mark invoice paid")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, inv)
}

// GET /api/v1/invoices?status=pending_approval
func (c *InvoiceController) ListInvoicesHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	status := models.InvoiceStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.InvoicePendingApproval
	}

	invoices, err := c.invoiceService.ListByStatus(r.Context(), actor, status)
	if err != nil {
		respondServiceError(w, err, "Failed to list invoices")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, invoices)
}
