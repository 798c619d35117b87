package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/coralpointe/association-portal/internal/authz"
	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/repositories"
)

type VendorService struct {
	matrix     *authz.Matrix
	vendorRepo repositories.VendorRepository
}

func NewVendorService(matrix *authz.Matrix, vendorRepo repositories.VendorRepository) *VendorService {
	return &VendorService{matrix: matrix, vendorRepo: vendorRepo}
}

func (s *VendorService) Create(ctx context.Context, actor authz.Actor, v *models.Vendor) error {
	if err := s.matrix.RequirePermission(actor.Role, authz.PermManageVendors); err != nil {
		return err
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.Active = true
	return s.vendorRepo.Create(ctx, v)
}

func (s *VendorService) List(ctx context.Context, actor authz.Actor, activeOnly bool) ([]*models.Vendor, error) {
	if err := s.matrix.RequirePermission(actor.Role, authz.PermViewAllUnits); err != nil {
		return nil, err
	}
	return s.vendorRepo.List(ctx, activeOnly)
}

func (s *VendorService) Deactivate(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if err := s.matrix.RequirePermission(actor.Role, authz.PermManageVendors); err != nil {
		return err
	}
	return s.vendorRepo.Deactivate(ctx, id)
}
