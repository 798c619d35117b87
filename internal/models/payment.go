package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodCheck  PaymentMethod = "check"
	MethodStripe PaymentMethod = "stripe"
	MethodACH    PaymentMethod = "ach"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment is a received sum of money. TargetFund, when set, directs the
// whole amount at one fund and bypasses the statutory auto-allocation
// walk. A completed payment causes exactly one allocation pass; Allocated
// is the idempotence guard for webhook redelivery and sweep re-runs.
type Payment struct {
	ID         uuid.UUID       `json:"id"`
	UnitID     uuid.UUID       `json:"unit_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     PaymentMethod   `json:"method"`
	Status     PaymentStatus   `json:"status"`
	TargetFund *Fund           `json:"target_fund,omitempty"`
	// ExternalRef holds the gateway's identifier (Stripe payment intent,
	// check number) for reconciliation.
	ExternalRef string    `json:"external_ref,omitempty"`
	Allocated   bool      `json:"allocated"`
	ReceivedAt  time.Time `json:"received_at"`
	CreatedAt   time.Time `json:"created_at"`
	Versioned
}
