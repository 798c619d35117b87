package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType classifies a balance-affecting event.
type EntryType string

const (
	EntryAssessment   EntryType = "assessment"
	EntryPayment      EntryType = "payment"
	EntryLateFee      EntryType = "late_fee"
	EntryInterest     EntryType = "interest"
	EntryAttorneyCost EntryType = "attorney_cost"
	EntryAdjustment   EntryType = "adjustment"
	// EntryCreditBalance applies to the unit's credit balance instead of a
	// fund balance: the overpaid remainder of a fund-directed payment.
	EntryCreditBalance EntryType = "credit_balance"
)

// IsCharge reports whether the type increases what the unit owes.
func (t EntryType) IsCharge() bool {
	switch t {
	case EntryAssessment, EntryLateFee, EntryInterest, EntryAttorneyCost:
		return true
	}
	return false
}

// LedgerEntry is an immutable record of one balance-affecting event for a
// unit. Charges are positive, payments negative. Corrections are new
// offsetting entries; an entry is never mutated after posting.
type LedgerEntry struct {
	ID          uuid.UUID       `json:"id"`
	UnitID      uuid.UUID       `json:"unit_id"`
	Fund        Fund            `json:"fund"`
	Type        EntryType       `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	EffectiveAt time.Time       `json:"effective_at"`
	Description string          `json:"description"`
	// ReferenceID points at the originating payment or invoice, when any.
	ReferenceID *uuid.UUID `json:"reference_id,omitempty"`
	// RunningBalance is the fund's balance immediately after this entry
	// posted.
	RunningBalance decimal.Decimal `json:"running_balance"`
	CreatedAt      time.Time       `json:"created_at"`
}
