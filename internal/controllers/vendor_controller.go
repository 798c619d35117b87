package controllers

import (
	"net/http"

	"github.com/coralpointe/association-portal/internal/dtos"
	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/services"
	"github.com/coralpointe/association-portal/internal/utils"
)

type VendorController struct {
	vendorService *services.VendorService
}

func NewVendorController(vs *services.VendorService) *VendorController {
	return &VendorController{vendorService: vs}
}

// POST /api/v1/vendors
func (c *VendorController) CreateVendorHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dtos.CreateVendorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	vendor := &models.Vendor{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Category: req.Category,
	}
	if err := c.vendorService.Create(r.Context(), actor, vendor); err != nil {
		respondServiceError(w, err, "Failed to create vendor")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, vendor)
}

// GET /api/v1/vendors?active=true
func (c *VendorController) ListVendorsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	activeOnly := r.URL.Query().Get("active") == "true"
	vendors, err := c.vendorService.List(r.Context(), actor, activeOnly)
	if err != nil {
		respondServiceError(w, err, "Failed to list vendors")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, vendors)
}

// DELETE /api/v1/vendors/{vendorID}
func (c *VendorController) DeactivateVendorHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	vendorID, ok := pathUUID(w, r, "vendorID")
	if !ok {
		return
	}

	if err := c.vendorService.Deactivate(r.Context(), actor, vendorID); err != nil {
		respondServiceError(w, err, "Failed to deactivate vendor")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{Message: "Vendor deactivated"})
}
