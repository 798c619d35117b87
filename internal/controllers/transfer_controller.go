package controllers

import (
	"net/http"

	"github.com/coralpointe/association-portal/internal/dtos"
	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/services"
	"github.com/coralpointe/association-portal/internal/utils"
)

type TransferController struct {
	transferService *services.TransferService
}

func NewTransferController(ts *services.TransferService) *TransferController {
	return &TransferController{transferService: ts}
}

// POST /api/v1/funds/transfer
func (c *TransferController) TransferHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dtos.TransferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}

	if err := c.transferService.Transfer(
		r.Context(), actor, models.Fund(req.FromFund), models.Fund(req.ToFund), amount,
	); err != nil {
		respondServiceError(w, err, "Failed to transfer funds")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{Message: "Transfer completed"})
}

// GET /api/v1/funds/balances
func (c *TransferController) ListBalancesHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	balances, err := c.transferService.ListBalances(r.Context(), actor)
	if err != nil {
		respondServiceError(w, err, "Failed to list fund balances")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, balances)
}
