package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceDraft           InvoiceStatus = "draft"
	InvoicePendingApproval InvoiceStatus = "pending_approval"
	InvoiceApproved        InvoiceStatus = "approved"
	InvoiceRejected        InvoiceStatus = "rejected"
	InvoicePaid            InvoiceStatus = "paid"
)

// Invoice is a vendor bill moving through the board approval workflow.
// Approval/rejection is recorded with the acting account for audit.
type Invoice struct {
	ID          uuid.UUID       `json:"id"`
	VendorID    uuid.UUID       `json:"vendor_id"`
	Fund        Fund            `json:"fund"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Status      InvoiceStatus   `json:"status"`
	DueDate     time.Time       `json:"due_date"`
	DecidedBy   *uuid.UUID      `json:"decided_by,omitempty"`
	DecidedAt   *time.Time      `json:"decided_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Versioned
}

// Vendor is a service provider the association pays.
type Vendor struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Category  string    `json:"category,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
