package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coralpointe/association-portal/internal/authz"
	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/repositories"
	"github.com/coralpointe/association-portal/internal/utils"
)

// UnitService is the access-checked read/charge surface over units and
// their ledgers. Every call takes the trusted actor explicitly; the
// unit-scope guard runs before anything touches the ledger.
type UnitService struct {
	matrix    *authz.Matrix
	unitRepo  repositories.UnitRepository
	auditRepo repositories.AuditLogRepository
	ledger    *LedgerService
}

func NewUnitService(
	matrix *authz.Matrix,
	unitRepo repositories.UnitRepository,
	auditRepo repositories.AuditLogRepository,
	ledger *LedgerService,
) *UnitService {
	return &UnitService{matrix: matrix, unitRepo: unitRepo, auditRepo: auditRepo, ledger: ledger}
}

func (s *UnitService) List(ctx context.Context, actor authz.Actor) ([]*models.Unit, error) {
	if err := s.matrix.RequirePermission(actor.Role, authz.PermViewAllUnits); err != nil {
		return nil, err
	}
	return s.unitRepo.List(ctx)
}

func (s *UnitService) Get(ctx context.Context, actor authz.Actor, unitID uuid.UUID) (*models.Unit, error) {
	if err := s.matrix.RequireUnitAccess(actor.Role, actor.UnitID, unitID); err != nil {
		return nil, err
	}
	unit, err := s.unitRepo.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, fmt.Errorf("unit %s: %w", unitID, utils.ErrUnitNotFound)
	}
	return unit, nil
}

func (s *UnitService) GetLedger(ctx context.Context, actor authz.Actor, unitID uuid.UUID) ([]*models.LedgerEntry, error) {
	if err := s.matrix.RequireUnitAccess(actor.Role, actor.UnitID, unitID); err != nil {
		return nil, err
	}
	return s.ledger.GetLedger(ctx, unitID)
}

// PostCharge books an assessment, late fee, interest accrual, attorney
// cost or manual adjustment against a unit. Adjustments are audited.
func (s *UnitService) PostCharge(
	ctx context.Context,
	actor authz.Actor,
	unitID uuid.UUID,
	fund models.Fund,
	entryType models.EntryType,
	amount decimal.Decimal,
	effectiveAt time.Time,
	description string,
) (*models.LedgerEntry, error) {
	if err := s.matrix.RequirePermission(actor.Role, authz.PermPostEntries); err != nil {
		return nil, err
	}
	if entryType == models.EntryPayment || entryType == models.EntryCreditBalance {
		return nil, fmt.Errorf("entry type %q is posted by the payment allocator only", entryType)
	}

	entry, err := s.ledger.PostEntry(ctx, unitID, fund, entryType, amount, effectiveAt, description, nil)
	if err != nil {
		return nil, err
	}

	if entryType == models.EntryAdjustment {
		if err := s.auditRepo.Create(ctx, &models.AuditLog{
			ID:         uuid.New(),
			ActorID:    actor.ID,
			ActorRole:  string(actor.Role),
			Action:     "manual_adjustment",
			TargetID:   unitID,
			TargetType: "unit",
			Details:    fmt.Sprintf("%s %s on %s", amount.StringFixed(2), fund, description),
		}); err != nil {
			utils.Logger.WithError(err).Errorf("Failed to audit adjustment on unit %s", unitID)
		}
	}
	return entry, nil
}
