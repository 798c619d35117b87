package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/coralpointe/association-portal/internal/dtos"
	"github.com/coralpointe/association-portal/internal/services"
	"github.com/coralpointe/association-portal/internal/utils"
)

// AdminController hosts the operational endpoints: the on-demand
// delinquency sweep and the bulk balance import.
type AdminController struct {
	delinquencyService *services.DelinquencyService
	importService      *services.ImportService
}

func NewAdminController(ds *services.DelinquencyService, is *services.ImportService) *AdminController {
	return &AdminController{delinquencyService: ds, importService: is}
}

// POST /api/v1/admin/delinquency/sweep
func (c *AdminController) RunSweepHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := c.delinquencyService.RunSweepAs(r.Context(), actor); err != nil {
		respondServiceError(w, err, "Delinquency sweep failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.SweepResponse{Message: "Sweep completed"})
}

// POST /api/v1/admin/balances/import
func (c *AdminController) ImportBalancesHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dtos.ImportBalancesRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rows := make([]services.BalanceImportRow, 0, len(req.Rows))
	for _, raw := range req.Rows {
		row, err := importRowFromDTO(raw)
		if err != nil {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, err.Error(), nil)
			return
		}
		rows = append(rows, row)
	}

	result, err := c.importService.ImportBalances(r.Context(), actor, rows)
	if err != nil {
		respondServiceError(w, err, "Balance import failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, result)
}

func importRowFromDTO(raw dtos.BalanceImportRowRequest) (services.BalanceImportRow, error) {
	var row services.BalanceImportRow
	var err error

	row.UnitNumber = raw.UnitNumber
	if row.OperatingBalance, err = decimalField(raw.OperatingBalance, "operating_balance"); err != nil {
		return row, err
	}
	if row.SA1Balance, err = decimalField(raw.SA1Balance, "sa1_balance"); err != nil {
		return row, err
	}
	if row.SA2Balance, err = decimalField(raw.SA2Balance, "sa2_balance"); err != nil {
		return row, err
	}
	if row.Reference, err = uuid.Parse(raw.Reference); err != nil {
		return row, err
	}

	row.AsOf = time.Now().UTC()
	if raw.AsOf != nil {
		row.AsOf = *raw.AsOf
	}
	return row, nil
}
