package controllers

import (
	"net/http"
	"time"

	"github.com/coralpointe/association-portal/internal/dtos"
	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/services"
	"github.com/coralpointe/association-portal/internal/utils"
)

type UnitController struct {
	unitService        *services.UnitService
	delinquencyService *services.DelinquencyService
}

func NewUnitController(us *services.UnitService, ds *services.DelinquencyService) *UnitController {
	return &UnitController{unitService: us, delinquencyService: ds}
}

// GET /api/v1/units
func (c *UnitController) ListUnitsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	units, err := c.unitService.List(r.Context(), actor)
	if err != nil {
		respondServiceError(w, err, "Failed to list units")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, units)
}

// GET /api/v1/units/{unitID}
func (c *UnitController) GetUnitHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	unitID, ok := pathUUID(w, r, "unitID")
	if !ok {
		return
	}

	unit, err := c.unitService.Get(r.Context(), actor, unitID)
	if err != nil {
		respondServiceError(w, err, "Failed to get unit")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, unit)
}

// GET /api/v1/units/{unitID}/ledger
func (c *UnitController) GetLedgerHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	unitID, ok := pathUUID(w, r, "unitID")
	if !ok {
		return
	}

	entries, err := c.unitService.GetLedger(r.Context(), actor, unitID)
	if err != nil {
		respondServiceError(w, err, "Failed to get ledger")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, entries)
}

// POST /api/v1/units/{unitID}/charges
func (c *UnitController) PostChargeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	unitID, ok := pathUUID(w, r, "unitID")
	if !ok {
		return
	}

	var req dtos.PostChargeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}

	effectiveAt := time.Now().UTC()
	if req.EffectiveAt != nil {
		effectiveAt = *req.EffectiveAt
	}

	entry, err := c.unitService.PostCharge(
		r.Context(), actor, unitID,
		models.Fund(req.Fund), models.EntryType(req.EntryType),
		amount, effectiveAt, req.Description,
	)
	if err != nil {
		respondServiceError(w, err, "Failed to post charge")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, entry)
}

// PUT /api/v1/units/{unitID}/attorney-flag
func (c *UnitController) SetAttorneyFlagHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	unitID, ok := pathUUID(w, r, "unitID")
	if !ok {
		return
	}

	var req dtos.AttorneyFlagRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := c.delinquencyService.SetAttorneyFlag(r.Context(), actor, unitID, req.Flagged); err != nil {
		respondServiceError(w, err, "Failed to update attorney flag")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{Message: "Attorney flag updated"})
}
