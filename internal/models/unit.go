package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DelinquencyStatus is the aging/escalation bucket a unit sits in.
type DelinquencyStatus string

const (
	StatusCurrent    DelinquencyStatus = "current"
	StatusPending    DelinquencyStatus = "pending"
	Status30To60Days DelinquencyStatus = "30_60_days"
	Status60To90Days DelinquencyStatus = "60_90_days"
	Status90Plus     DelinquencyStatus = "90_plus"
	StatusAttorney   DelinquencyStatus = "attorney"
)

// NoticeType is the escalation action recommended for a status.
type NoticeType string

const (
	NoticeNone             NoticeType = "none"
	Notice30Day            NoticeType = "30_day_notice"
	Notice60Day            NoticeType = "60_day_notice"
	Notice90Day            NoticeType = "90_day_notice"
	NoticeAttorneyReferral NoticeType = "attorney_referral"
)

// PriorityLevel is a severity tag derived from the delinquency status,
// used by the board dashboard to sort collection work.
type PriorityLevel string

const (
	PriorityNone     PriorityLevel = "none"
	PriorityLow      PriorityLevel = "low"
	PriorityMedium   PriorityLevel = "medium"
	PriorityHigh     PriorityLevel = "high"
	PriorityCritical PriorityLevel = "critical"
)

// Unit is one condominium unit with its per-fund receivable balances.
//
// TotalOwed is a materialized view over the per-fund balances: it is
// recomputed by every ledger posting and never set independently.
// CreditBalance holds prepaid money that exceeded a fund-directed
// payment's outstanding balance; it is not part of TotalOwed.
type Unit struct {
	ID               uuid.UUID       `json:"id"`
	UnitNumber       string          `json:"unit_number"`
	OwnerID          *uuid.UUID      `json:"owner_id,omitempty"`
	OperatingBalance decimal.Decimal `json:"operating_balance"`
	SA1Balance       decimal.Decimal `json:"sa1_balance"`
	SA2Balance       decimal.Decimal `json:"sa2_balance"`
	TotalOwed        decimal.Decimal `json:"total_owed"`
	CreditBalance    decimal.Decimal `json:"credit_balance"`

	DelinquencyStatus DelinquencyStatus `json:"delinquency_status"`
	PriorityLevel     PriorityLevel     `json:"priority_level"`
	WithAttorney      bool              `json:"with_attorney"`
	InForeclosure     bool              `json:"in_foreclosure"`
	RedFlag           bool              `json:"red_flag"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Versioned
}

// FundBalance returns the unit's receivable for the given fund. The
// reserve fund is an association-side pool, not a unit receivable, so it
// always reads zero here.
func (u *Unit) FundBalance(f Fund) decimal.Decimal {
	switch f {
	case FundOperating:
		return u.OperatingBalance
	case FundSA1:
		return u.SA1Balance
	case FundSA2:
		return u.SA2Balance
	}
	return decimal.Zero
}

// SetFundBalance assigns the receivable for the given fund and recomputes
// TotalOwed so the sum invariant holds by construction.
func (u *Unit) SetFundBalance(f Fund, amt decimal.Decimal) {
	switch f {
	case FundOperating:
		u.OperatingBalance = amt
	case FundSA1:
		u.SA1Balance = amt
	case FundSA2:
		u.SA2Balance = amt
	}
	u.TotalOwed = u.OperatingBalance.Add(u.SA1Balance).Add(u.SA2Balance)
}
