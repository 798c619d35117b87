package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coralpointe/association-portal/internal/authz"
	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/repositories"
	"github.com/coralpointe/association-portal/internal/utils"
)

// PaymentService is the entry point for money coming in: manual
// check/cash entries from the office and completed Stripe payments from
// the webhook. It records the payment, runs the allocator, and credits
// the association-side fund pools with what was absorbed.
type PaymentService struct {
	matrix      *authz.Matrix
	paymentRepo repositories.PaymentRepository
	fundRepo    repositories.FundRepository
	allocator   *AllocationService
}

func NewPaymentService(
	matrix *authz.Matrix,
	paymentRepo repositories.PaymentRepository,
	fundRepo repositories.FundRepository,
	allocator *AllocationService,
) *PaymentService {
	return &PaymentService{
		matrix:      matrix,
		paymentRepo: paymentRepo,
		fundRepo:    fundRepo,
		allocator:   allocator,
	}
}

// RecordPayment books a manually received payment (check, cash, ACH)
// and allocates it immediately.
func (s *PaymentService) RecordPayment(
	ctx context.Context,
	actor authz.Actor,
	unitID uuid.UUID,
	amount decimal.Decimal,
	method models.PaymentMethod,
	targetFund *models.Fund,
	externalRef string,
	receivedAt time.Time,
) (*models.Payment, []models.LedgerEntry, error) {
	if err := s.matrix.RequirePermission(actor.Role, authz.PermRecordPayments); err != nil {
		return nil, nil, err
	}
	if !amount.IsPositive() {
		return nil, nil, fmt.Errorf("payment amount %s must be positive", amount)
	}

	p := &models.Payment{
		ID:          uuid.New(),
		UnitID:      unitID,
		Amount:      amount,
		Method:      method,
		Status:      models.PaymentCompleted,
		TargetFund:  targetFund,
		ExternalRef: externalRef,
		ReceivedAt:  receivedAt,
	}
	if err := s.paymentRepo.Create(ctx, p); err != nil {
		return nil, nil, err
	}

	entries, err := s.allocateAndSettle(ctx, p)
	if err != nil {
		return p, nil, err
	}
	return p, entries, nil
}

// HandleCompletedStripePayment turns a succeeded payment intent into a
// completed, allocated payment. Webhook redelivery is absorbed by the
// external-ref lookup plus the allocator's own idempotence guard.
func (s *PaymentService) HandleCompletedStripePayment(
	ctx context.Context,
	intentID string,
	unitID uuid.UUID,
	amountCents int64,
	fundHint string,
) error {
	if existing, err := s.paymentRepo.GetByExternalRef(ctx, intentID); err != nil {
		return err
	} else if existing != nil {
		utils.Logger.Infof("Stripe intent %s already recorded; skipping", intentID)
		return nil
	}

	var targetFund *models.Fund
	if fundHint != "" {
		f := models.Fund(fundHint)
		if !f.Valid() {
			return fmt.Errorf("stripe metadata fund %q: %w", fundHint, utils.ErrInvalidFund)
		}
		targetFund = &f
	}

	p := &models.Payment{
		ID:          uuid.New(),
		UnitID:      unitID,
		Amount:      decimal.NewFromInt(amountCents).Div(decimal.NewFromInt(100)),
		Method:      models.MethodStripe,
		Status:      models.PaymentCompleted,
		TargetFund:  targetFund,
		ExternalRef: intentID,
		ReceivedAt:  time.Now().UTC(),
	}
	if err := s.paymentRepo.Create(ctx, p); err != nil {
		return err
	}

	_, err := s.allocateAndSettle(ctx, p)
	return err
}

// ListForUnit returns a unit's payments, owner-scoped.
func (s *PaymentService) ListForUnit(ctx context.Context, actor authz.Actor, unitID uuid.UUID) ([]*models.Payment, error) {
	if err := s.matrix.RequireUnitAccess(actor.Role, actor.UnitID, unitID); err != nil {
		return nil, err
	}
	return s.paymentRepo.ListByUnit(ctx, unitID)
}

func (s *PaymentService) allocateAndSettle(ctx context.Context, p *models.Payment) ([]models.LedgerEntry, error) {
	entries, err := s.allocator.Allocate(ctx, p.ID)
	if err != nil {
		// A duplicate allocation means the money is already on the
		// ledger; everything else is a real failure for this payment.
		if errors.Is(err, utils.ErrAlreadyAllocated) {
			return nil, nil
		}
		return nil, err
	}

	// Money the units paid lands in the association's fund pools.
	for _, e := range entries {
		if e.Type != models.EntryPayment {
			continue
		}
		if err := s.fundRepo.Credit(ctx, e.Fund, e.Amount.Neg()); err != nil {
			utils.Logger.WithError(err).Errorf("Failed to credit %s fund for payment %s", e.Fund, p.ID)
		}
	}
	return entries, nil
}
