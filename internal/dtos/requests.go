package dtos

import "time"

// Request DTOs. Amounts travel as decimal strings so nothing is ever
// parsed through a float.

type RecordPaymentRequest struct {
	UnitID      string     `json:"unit_id" validate:"required,uuid"`
	Amount      string     `json:"amount" validate:"required"`
	Method      string     `json:"method" validate:"required,oneof=cash check ach"`
	TargetFund  string     `json:"target_fund" validate:"omitempty,oneof=OPERATING SA1 SA2"`
	ExternalRef string     `json:"external_ref" validate:"omitempty,max=128"`
	ReceivedAt  *time.Time `json:"received_at"`
}

type PostChargeRequest struct {
	Fund        string     `json:"fund" validate:"required,oneof=OPERATING RESERVE SA1 SA2"`
	EntryType   string     `json:"entry_type" validate:"required,oneof=assessment late_fee interest attorney_cost adjustment"`
	Amount      string     `json:"amount" validate:"required"`
	Description string     `json:"description" validate:"required,max=512"`
	EffectiveAt *time.Time `json:"effective_at"`
}

type TransferRequest struct {
	FromFund string `json:"from_fund" validate:"required,oneof=OPERATING RESERVE SA1 SA2"`
	ToFund   string `json:"to_fund" validate:"required,oneof=OPERATING RESERVE SA1 SA2"`
	Amount   string `json:"amount" validate:"required"`
}

type CreateInvoiceRequest struct {
	VendorID    string    `json:"vendor_id" validate:"required,uuid"`
	Fund        string    `json:"fund" validate:"required,oneof=OPERATING RESERVE SA1 SA2"`
	Amount      string    `json:"amount" validate:"required"`
	Description string    `json:"description" validate:"required,max=512"`
	DueDate     time.Time `json:"due_date" validate:"required"`
}

type DecideInvoiceRequest struct {
	Approve bool `json:"approve"`
}

type CreateVendorRequest struct {
	Name     string `json:"name" validate:"required,max=256"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,e164"`
	Category string `json:"category" validate:"omitempty,max=128"`
}

type AttorneyFlagRequest struct {
	Flagged bool `json:"flagged"`
}

type BalanceImportRowRequest struct {
	UnitNumber       string     `json:"unit_number" validate:"required,max=32"`
	OperatingBalance string     `json:"operating_balance" validate:"required"`
	SA1Balance       string     `json:"sa1_balance" validate:"required"`
	SA2Balance       string     `json:"sa2_balance" validate:"required"`
	Reference        string     `json:"reference" validate:"required,uuid"`
	AsOf             *time.Time `json:"as_of"`
}

type ImportBalancesRequest struct {
	Rows []BalanceImportRowRequest `json:"rows" validate:"required,min=1,dive"`
}
