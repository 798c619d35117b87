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

// InvoiceService runs the vendor-invoice approval workflow. The board
// decides; the decision is audited and the outcome fact handed to the
// notification collaborator.
type InvoiceService struct {
	matrix      *authz.Matrix
	invoiceRepo repositories.InvoiceRepository
	vendorRepo  repositories.VendorRepository
	fundRepo    repositories.FundRepository
	auditRepo   repositories.AuditLogRepository
	ownerRepo   repositories.OwnerRepository
	notifier    Notifier
}

func NewInvoiceService(
	matrix *authz.Matrix,
	invoiceRepo repositories.InvoiceRepository,
	vendorRepo repositories.VendorRepository,
	fundRepo repositories.FundRepository,
	auditRepo repositories.AuditLogRepository,
	ownerRepo repositories.OwnerRepository,
	notifier Notifier,
) *InvoiceService {
	return &InvoiceService{
		matrix:      matrix,
		invoiceRepo: invoiceRepo,
		vendorRepo:  vendorRepo,
		fundRepo:    fundRepo,
		auditRepo:   auditRepo,
		ownerRepo:   ownerRepo,
		notifier:    notifier,
	}
}

func (s *InvoiceService) Create(
	ctx context.Context,
	actor authz.Actor,
	vendorID uuid.UUID,
	fund models.Fund,
	amount decimal.Decimal,
	description string,
	dueDate time.Time,
) (*models.Invoice, error) {
	if err := s.matrix.RequirePermission(actor.Role, authz.PermManageInvoices); err != nil {
		return nil, err
	}
	if !fund.Valid() {
		return nil, fmt.Errorf("invoice fund %q: %w", fund, utils.ErrInvalidFund)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("invoice amount %s must be positive", amount)
	}

	vendor, err := s.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if vendor == nil || !vendor.Active {
		return nil, fmt.Errorf("vendor %s not found or inactive", vendorID)
	}

	inv := &models.Invoice{
		ID:          uuid.New(),
		VendorID:    vendorID,
		Fund:        fund,
		Amount:      amount,
		Description: description,
		Status:      models.InvoicePendingApproval,
		DueDate:     dueDate,
	}
	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Decide approves or rejects a pending invoice.
func (s *InvoiceService) Decide(ctx context.Context, actor authz.Actor, invoiceID uuid.UUID, approve bool) (*models.Invoice, error) {
	if err := s.matrix.RequirePermission(actor.Role, authz.PermApproveInvoices); err != nil {
		return nil, err
	}

	outcome := models.InvoiceRejected
	if approve {
		outcome = models.InvoiceApproved
	}

	var decided *models.Invoice
	err := s.invoiceRepo.UpdateWithRetry(ctx, invoiceID, func(inv *models.Invoice) error {
		if inv.Status != models.InvoicePendingApproval {
			return fmt.Errorf("invoice %s has status %q: %w", invoiceID, inv.Status, utils.ErrInvoiceNotPending)
		}
		now := time.Now().UTC()
		inv.Status = outcome
		inv.DecidedBy = &actor.ID
		inv.DecidedAt = &now
		decided = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.auditRepo.Create(ctx, &models.AuditLog{
		ID:         uuid.New(),
		ActorID:    actor.ID,
		ActorRole:  string(actor.Role),
		Action:     "invoice_" + string(outcome),
		TargetID:   invoiceID,
		TargetType: "invoice",
	}); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to audit invoice decision %s", invoiceID)
	}

	s.dispatchDecision(decided, outcome)
	return decided, nil
}

// MarkPaid records that an approved invoice was paid out of its fund.
func (s *InvoiceService) MarkPaid(ctx context.Context, actor authz.Actor, invoiceID uuid.UUID) (*models.Invoice, error) {
	if err := s.matrix.RequirePermission(actor.Role, authz.PermManageInvoices); err != nil {
		return nil, err
	}

	var paid *models.Invoice
	err := s.invoiceRepo.UpdateWithRetry(ctx, invoiceID, func(inv *models.Invoice) error {
		if inv.Status != models.InvoiceApproved {
			return fmt.Errorf("invoice %s has status %q, want approved", invoiceID, inv.Status)
		}
		inv.Status = models.InvoicePaid
		paid = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.fundRepo.Debit(ctx, paid.Fund, paid.Amount); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to debit %s fund for invoice %s", paid.Fund, invoiceID)
	}
	return paid, nil
}

func (s *InvoiceService) ListByStatus(ctx context.Context, actor authz.Actor, status models.InvoiceStatus) ([]*models.Invoice, error) {
	if err := s.matrix.RequirePermission(actor.Role, authz.PermViewAllUnits); err != nil {
		return nil, err
	}
	return s.invoiceRepo.ListByStatus(ctx, status)
}

func (s *InvoiceService) dispatchDecision(invoice *models.Invoice, outcome models.InvoiceStatus) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		var recipients []*models.Owner
		for _, role := range boardRoles {
			list, err := s.ownerRepo.ListByRole(ctx, role)
			if err != nil {
				utils.Logger.WithError(err).Error("Failed to resolve recipients for invoice decision")
				return
			}
			recipients = append(recipients, list...)
		}
		if err := s.notifier.NotifyInvoiceDecision(ctx, invoice, outcome, recipients); err != nil {
			utils.Logger.WithError(err).Errorf("Failed to deliver invoice decision notice %s", invoice.ID)
		}
	}()
}
