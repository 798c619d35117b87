package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/repositories"
	"github.com/coralpointe/association-portal/internal/utils"
)

const ledgerMaxRetries = 3

// LedgerService maintains the per-unit balance invariants and the
// append-only entry trail. Every mutation is one atomic, version-checked
// write; TotalOwed is recomputed from the per-fund balances on every
// posting and is never independently settable.
type LedgerService struct {
	unitRepo  repositories.UnitRepository
	entryRepo repositories.LedgerEntryRepository
}

func NewLedgerService(unitRepo repositories.UnitRepository, entryRepo repositories.LedgerEntryRepository) *LedgerService {
	return &LedgerService{unitRepo: unitRepo, entryRepo: entryRepo}
}

// PostEntry appends one entry, moves the fund balance by the signed
// amount (charges positive, payments negative) and recomputes TotalOwed.
// Returns the entry with its post-entry running balance.
func (s *LedgerService) PostEntry(
	ctx context.Context,
	unitID uuid.UUID,
	fund models.Fund,
	entryType models.EntryType,
	amount decimal.Decimal,
	effectiveAt time.Time,
	description string,
	referenceID *uuid.UUID,
) (*models.LedgerEntry, error) {
	if !fund.Valid() {
		return nil, fmt.Errorf("fund %q: %w", fund, utils.ErrInvalidFund)
	}

	for attempt := 0; attempt < ledgerMaxRetries; attempt++ {
		unit, err := s.unitRepo.GetByID(ctx, unitID)
		if err != nil {
			return nil, err
		}
		if unit == nil {
			return nil, fmt.Errorf("unit %s: %w", unitID, utils.ErrUnitNotFound)
		}

		entry, err := buildEntry(unit, fund, entryType, amount, effectiveAt, description, referenceID)
		if err != nil {
			return nil, err
		}

		oldVersion := unit.RowVersion
		applyEntryToUnit(unit, entry)

		tag, err := s.unitRepo.ApplyLedgerIfVersion(ctx, unit, oldVersion, []models.LedgerEntry{*entry}, nil)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 1 {
			return entry, nil
		}
		// someone else posted first; re-read and retry
	}
	return nil, fmt.Errorf("posting to unit %s: %w", unitID, utils.ErrRowVersionConflict)
}

// GetLedger returns the unit's entries ordered by effective date
// ascending.
func (s *LedgerService) GetLedger(ctx context.Context, unitID uuid.UUID) ([]*models.LedgerEntry, error) {
	unit, err := s.unitRepo.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, fmt.Errorf("unit %s: %w", unitID, utils.ErrUnitNotFound)
	}
	return s.entryRepo.ListByUnit(ctx, unitID)
}

// buildEntry validates the posting against the unit's current balances
// and stamps the running balance. Charge and payment entries may not
// drive a fund balance below zero; adjustments are exempt (they exist to
// correct mistakes, offsetting entry against offsetting entry).
func buildEntry(
	unit *models.Unit,
	fund models.Fund,
	entryType models.EntryType,
	amount decimal.Decimal,
	effectiveAt time.Time,
	description string,
	referenceID *uuid.UUID,
) (*models.LedgerEntry, error) {
	var running decimal.Decimal
	if entryType == models.EntryCreditBalance {
		running = unit.CreditBalance.Add(amount)
	} else {
		running = unit.FundBalance(fund).Add(amount)
	}

	if running.IsNegative() && entryType != models.EntryAdjustment {
		return nil, fmt.Errorf(
			"%s of %s would take %s balance to %s: %w",
			entryType, amount, fund, running, utils.ErrNegativeCharge,
		)
	}

	return &models.LedgerEntry{
		ID:             uuid.New(),
		UnitID:         unit.ID,
		Fund:           fund,
		Type:           entryType,
		Amount:         amount,
		EffectiveAt:    effectiveAt,
		Description:    description,
		ReferenceID:    referenceID,
		RunningBalance: running,
	}, nil
}

func applyEntryToUnit(unit *models.Unit, e *models.LedgerEntry) {
	if e.Type == models.EntryCreditBalance {
		unit.CreditBalance = unit.CreditBalance.Add(e.Amount)
		return
	}
	unit.SetFundBalance(e.Fund, unit.FundBalance(e.Fund).Add(e.Amount))
}

// ReplayBalances folds a unit's entries from zero, in order, into the
// per-fund balances and credit balance they imply. The stored unit row
// must agree with the replay at all times.
func ReplayBalances(entries []*models.LedgerEntry) (balances map[models.Fund]decimal.Decimal, credit decimal.Decimal) {
	balances = map[models.Fund]decimal.Decimal{
		models.FundOperating: decimal.Zero,
		models.FundSA1:       decimal.Zero,
		models.FundSA2:       decimal.Zero,
	}
	for _, e := range entries {
		if e.Type == models.EntryCreditBalance {
			credit = credit.Add(e.Amount)
			continue
		}
		balances[e.Fund] = balances[e.Fund].Add(e.Amount)
	}
	return balances, credit
}

// OpenCharge is one charge with money still owed against it, produced by
// FIFO-netting a unit's entry log. Both the allocator (what absorbs a
// payment next) and the classifier (how old is the oldest unpaid charge)
// consume this, so the two can never disagree.
type OpenCharge struct {
	Entry     *models.LedgerEntry
	Remaining decimal.Decimal
}

// OpenCharges replays the entry log in date order. Payments and negative
// adjustments consume their fund's open charges oldest-first.
func OpenCharges(entries []*models.LedgerEntry) []OpenCharge {
	var open []OpenCharge
	for _, e := range entries {
		switch {
		case e.Type.IsCharge():
			open = append(open, OpenCharge{Entry: e, Remaining: e.Amount})
		case e.Type == models.EntryCreditBalance:
			// held as prepayment, consumes nothing
		case e.Type == models.EntryAdjustment && e.Amount.IsPositive():
			// positive adjustments (balance imports, corrections) owe
			// money like any charge
			open = append(open, OpenCharge{Entry: e, Remaining: e.Amount})
		default:
			// payment or negative adjustment: reduces open charges in
			// the same fund, oldest first
			credit := e.Amount.Neg()
			if !credit.IsPositive() {
				continue
			}
			for i := range open {
				if open[i].Entry.Fund != e.Fund || open[i].Remaining.IsZero() {
					continue
				}
				applied := decimal.Min(credit, open[i].Remaining)
				open[i].Remaining = open[i].Remaining.Sub(applied)
				credit = credit.Sub(applied)
				if credit.IsZero() {
					break
				}
			}
		}
	}
	out := open[:0]
	for _, oc := range open {
		if oc.Remaining.IsPositive() {
			out = append(out, oc)
		}
	}
	return out
}
