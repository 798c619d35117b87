package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fund is one of the association's legally segregated pools of money.
// Florida FS 718.116 forbids moving reserve money into operating; the
// matrix below is the single choke point for that rule.
type Fund string

const (
	FundOperating Fund = "OPERATING"
	FundReserve   Fund = "RESERVE"
	FundSA1       Fund = "SA1"
	FundSA2       Fund = "SA2"
)

// AllFunds is the closed fund set, in statutory allocation priority order
// (operating assessments first, then the special assessments in sequence).
// Reserve carries no unit-level receivable and is excluded from allocation.
var AllFunds = []Fund{FundOperating, FundReserve, FundSA1, FundSA2}

// AllocationPriority is the order funds absorb an auto-allocated payment.
var AllocationPriority = []Fund{FundOperating, FundSA1, FundSA2}

func (f Fund) Valid() bool {
	switch f {
	case FundOperating, FundReserve, FundSA1, FundSA2:
		return true
	}
	return false
}

// IsProtected reports whether statute restricts outbound transfers from f.
func (f Fund) IsProtected() bool { return f == FundReserve }

// FundBalance is the association-side pool for one fund (distinct from
// unit receivables): what the association actually holds and spends.
type FundBalance struct {
	Fund      Fund            `json:"fund"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// IsTransferAllowed reports whether money may legally move between the two
// funds. Reserve→Operating is prohibited unconditionally; no role,
// super_admin included, overrides it. Other pairs are currently
// unconstrained by statute.
func IsTransferAllowed(from, to Fund) bool {
	return !(from == FundReserve && to == FundOperating)
}
