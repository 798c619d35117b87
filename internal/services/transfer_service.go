package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coralpointe/association-portal/internal/authz"
	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/repositories"
	"github.com/coralpointe/association-portal/internal/utils"
)

// TransferService moves association money between funds. Two independent
// gates apply: the actor's RBAC permission, and the statutory fund
// matrix. The matrix is checked even for super_admin; the reserve to
// operating block has no role-based override.
type TransferService struct {
	matrix    *authz.Matrix
	fundRepo  repositories.FundRepository
	auditRepo repositories.AuditLogRepository
}

func NewTransferService(matrix *authz.Matrix, fundRepo repositories.FundRepository, auditRepo repositories.AuditLogRepository) *TransferService {
	return &TransferService{matrix: matrix, fundRepo: fundRepo, auditRepo: auditRepo}
}

func (s *TransferService) Transfer(ctx context.Context, actor authz.Actor, from, to models.Fund, amount decimal.Decimal) error {
	if err := s.matrix.RequirePermission(actor.Role, authz.PermTransferFunds); err != nil {
		return err
	}
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("transfer %s -> %s: %w", from, to, utils.ErrInvalidFund)
	}
	if from == to {
		return fmt.Errorf("transfer %s -> %s: %w", from, to, utils.ErrInvalidFund)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("transfer amount %s must be positive", amount)
	}
	if !models.IsTransferAllowed(from, to) {
		return fmt.Errorf("transfer %s -> %s is prohibited by FS 718.116: %w", from, to, utils.ErrTransferProhibited)
	}

	if err := s.fundRepo.TransferAtomic(ctx, from, to, amount); err != nil {
		return err
	}

	if err := s.auditRepo.Create(ctx, &models.AuditLog{
		ID:         uuid.New(),
		ActorID:    actor.ID,
		ActorRole:  string(actor.Role),
		Action:     "fund_transfer",
		TargetID:   uuid.Nil,
		TargetType: "fund",
		Details:    fmt.Sprintf("%s %s -> %s", amount.StringFixed(2), from, to),
	}); err != nil {
		utils.Logger.WithError(err).Error("Failed to audit fund transfer")
	}

	utils.Logger.Infof("Fund transfer: %s moved %s from %s to %s", actor.Role, amount.StringFixed(2), from, to)
	return nil
}

// ListBalances returns the association-side fund balances.
func (s *TransferService) ListBalances(ctx context.Context, actor authz.Actor) ([]*models.FundBalance, error) {
	if err := s.matrix.RequirePermission(actor.Role, authz.PermViewAllUnits); err != nil {
		return nil, err
	}
	return s.fundRepo.List(ctx)
}
