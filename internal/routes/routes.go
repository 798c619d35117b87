package routes

const (
	Health = "/health"

	Units             = "/api/v1/units"
	Unit              = "/api/v1/units/{unitID}"
	UnitLedger        = "/api/v1/units/{unitID}/ledger"
	UnitCharges       = "/api/v1/units/{unitID}/charges"
	UnitPayments      = "/api/v1/units/{unitID}/payments"
	UnitAttorneyFlag  = "/api/v1/units/{unitID}/attorney-flag"
	Payments          = "/api/v1/payments"
	PaymentsWebhook   = "/api/v1/payments/stripe/webhook"
	Invoices          = "/api/v1/invoices"
	InvoiceDecision   = "/api/v1/invoices/{invoiceID}/decision"
	InvoicePaid       = "/api/v1/invoices/{invoiceID}/paid"
	Vendors           = "/api/v1/vendors"
	Vendor            = "/api/v1/vendors/{vendorID}"
	FundTransfer      = "/api/v1/funds/transfer"
	FundBalances      = "/api/v1/funds/balances"
	AdminSweep        = "/api/v1/admin/delinquency/sweep"
	AdminImport       = "/api/v1/admin/balances/import"
)
