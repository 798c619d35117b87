package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/repositories"
	"github.com/coralpointe/association-portal/internal/utils"
)

// chargePriority is the statutorily mandated application order: accrued
// interest first, then late fees, then attorney costs, then the
// assessments themselves.
var chargePriority = map[models.EntryType]int{
	models.EntryInterest:     0,
	models.EntryLateFee:      1,
	models.EntryAttorneyCost: 2,
	models.EntryAssessment:   3,
	models.EntryAdjustment:   4,
}

var fundPriority = map[models.Fund]int{
	models.FundOperating: 0,
	models.FundSA1:       1,
	models.FundSA2:       2,
}

// AllocationService turns one completed payment into ledger entries.
// Allocation is all-or-nothing: the entries, the balance update and the
// payment's allocated flag commit in a single transaction, and
// re-processing the same payment id is a no-op.
type AllocationService struct {
	unitRepo    repositories.UnitRepository
	entryRepo   repositories.LedgerEntryRepository
	paymentRepo repositories.PaymentRepository
	delinquency *DelinquencyService
}

func NewAllocationService(
	unitRepo repositories.UnitRepository,
	entryRepo repositories.LedgerEntryRepository,
	paymentRepo repositories.PaymentRepository,
	delinquency *DelinquencyService,
) *AllocationService {
	return &AllocationService{
		unitRepo:    unitRepo,
		entryRepo:   entryRepo,
		paymentRepo: paymentRepo,
		delinquency: delinquency,
	}
}

// Allocate distributes the payment across funds and charge categories
// and posts the resulting entries. Returns the entries posted.
func (s *AllocationService) Allocate(ctx context.Context, paymentID uuid.UUID) ([]models.LedgerEntry, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, fmt.Errorf("payment %s not found", paymentID)
	}
	if payment.Status != models.PaymentCompleted {
		return nil, fmt.Errorf("payment %s has status %q: %w", paymentID, payment.Status, utils.ErrPaymentNotCompleted)
	}
	if payment.Allocated {
		return nil, fmt.Errorf("payment %s: %w", paymentID, utils.ErrAlreadyAllocated)
	}
	// Belt and suspenders: the allocated flag is authoritative, but a
	// crashed run may have posted entries without flipping it.
	if exists, err := s.entryRepo.ExistsForReference(ctx, paymentID); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("payment %s: %w", paymentID, utils.ErrAlreadyAllocated)
	}

	var posted []models.LedgerEntry
	for attempt := 0; attempt < ledgerMaxRetries; attempt++ {
		unit, err := s.unitRepo.GetByID(ctx, payment.UnitID)
		if err != nil {
			return nil, err
		}
		if unit == nil {
			return nil, fmt.Errorf("unit %s: %w", payment.UnitID, utils.ErrUnitNotFound)
		}

		entries, err := s.entryRepo.ListByUnit(ctx, payment.UnitID)
		if err != nil {
			return nil, err
		}

		var plan []models.LedgerEntry
		if payment.TargetFund != nil {
			plan, err = directedPlan(unit, payment)
		} else {
			plan, err = autoPlan(unit, entries, payment)
		}
		if err != nil {
			return nil, err
		}

		oldVersion := unit.RowVersion
		for i := range plan {
			applyEntryToUnit(unit, &plan[i])
		}

		tag, err := s.unitRepo.ApplyLedgerIfVersion(ctx, unit, oldVersion, plan, &payment.ID)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 1 {
			posted = plan
			break
		}
		if attempt == ledgerMaxRetries-1 {
			return nil, fmt.Errorf("allocating payment %s: %w", paymentID, utils.ErrRowVersionConflict)
		}
	}

	// Observable side effect: the unit's delinquency status is
	// re-derived from the post-payment balances.
	if err := s.delinquency.ReclassifyUnit(ctx, payment.UnitID); err != nil {
		utils.Logger.WithError(err).Warnf("Post-allocation reclassification failed for unit %s", payment.UnitID)
	}

	return posted, nil
}

// directedPlan handles an explicit target fund: the whole amount goes at
// the named fund, capped at its outstanding balance. Any remainder
// becomes a credit balance, never a negative fund balance.
func directedPlan(unit *models.Unit, payment *models.Payment) ([]models.LedgerEntry, error) {
	fund := *payment.TargetFund
	if !fund.Valid() || fund == models.FundReserve {
		return nil, fmt.Errorf("payment target fund %q: %w", fund, utils.ErrInvalidFund)
	}

	outstanding := unit.FundBalance(fund)
	applied := decimal.Min(payment.Amount, outstanding)

	var plan []models.LedgerEntry
	if applied.IsPositive() {
		plan = append(plan, newPaymentEntry(unit, payment, fund, applied,
			fmt.Sprintf("Payment applied to %s", fund)))
	}
	if excess := payment.Amount.Sub(applied); excess.IsPositive() {
		plan = append(plan, models.LedgerEntry{
			ID:             uuid.New(),
			UnitID:         unit.ID,
			Fund:           fund,
			Type:           models.EntryCreditBalance,
			Amount:         excess,
			EffectiveAt:    payment.ReceivedAt,
			Description:    "Overpayment held as credit balance",
			ReferenceID:    &payment.ID,
			RunningBalance: unit.CreditBalance.Add(excess),
		})
	}
	return plan, nil
}

// autoPlan walks the unit's open charges in statutory priority order,
// interest, late fees, attorney costs, then assessments oldest first,
// funds in OPERATING → SA1 → SA2 order, fully satisfying each bucket
// before moving on. A bucket the money runs out in stays partially paid;
// no credit arises until every open charge is satisfied.
func autoPlan(unit *models.Unit, entries []*models.LedgerEntry, payment *models.Payment) ([]models.LedgerEntry, error) {
	open := OpenCharges(entries)
	sort.SliceStable(open, func(i, j int) bool {
		a, b := open[i].Entry, open[j].Entry
		if chargePriority[a.Type] != chargePriority[b.Type] {
			return chargePriority[a.Type] < chargePriority[b.Type]
		}
		if !a.EffectiveAt.Equal(b.EffectiveAt) {
			return a.EffectiveAt.Before(b.EffectiveAt)
		}
		return fundPriority[a.Fund] < fundPriority[b.Fund]
	})

	remaining := payment.Amount
	perFund := map[models.Fund]decimal.Decimal{}
	var fundOrder []models.Fund
	for _, oc := range open {
		if remaining.IsZero() {
			break
		}
		applied := decimal.Min(remaining, oc.Remaining)
		if _, seen := perFund[oc.Entry.Fund]; !seen {
			fundOrder = append(fundOrder, oc.Entry.Fund)
		}
		perFund[oc.Entry.Fund] = perFund[oc.Entry.Fund].Add(applied)
		remaining = remaining.Sub(applied)
	}

	var plan []models.LedgerEntry
	for _, fund := range fundOrder {
		plan = append(plan, newPaymentEntry(unit, payment, fund, perFund[fund],
			fmt.Sprintf("Payment auto-applied to %s", fund)))
	}
	if remaining.IsPositive() {
		// The fund on a credit_balance entry is informational only:
		// replay applies it to the unit's credit balance, never to a
		// fund. Auto-allocated excess is filed under operating; directed
		// excess keeps its target fund.
		plan = append(plan, models.LedgerEntry{
			ID:             uuid.New(),
			UnitID:         unit.ID,
			Fund:           models.FundOperating,
			Type:           models.EntryCreditBalance,
			Amount:         remaining,
			EffectiveAt:    payment.ReceivedAt,
			Description:    "Overpayment held as credit balance",
			ReferenceID:    &payment.ID,
			RunningBalance: unit.CreditBalance.Add(remaining),
		})
	}
	return plan, nil
}

func newPaymentEntry(unit *models.Unit, payment *models.Payment, fund models.Fund, applied decimal.Decimal, desc string) models.LedgerEntry {
	return models.LedgerEntry{
		ID:             uuid.New(),
		UnitID:         unit.ID,
		Fund:           fund,
		Type:           models.EntryPayment,
		Amount:         applied.Neg(),
		EffectiveAt:    payment.ReceivedAt,
		Description:    desc,
		ReferenceID:    &payment.ID,
		RunningBalance: unit.FundBalance(fund).Sub(applied),
	}
}
