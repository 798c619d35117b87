package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"

	"github.com/coralpointe/association-portal/internal/models"
)

type InvoiceRepository interface {
	Create(ctx context.Context, inv *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ListByStatus(ctx context.Context, status models.InvoiceStatus) ([]*models.Invoice, error)
	UpdateIfVersion(ctx context.Context, inv *models.Invoice, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Invoice) error) error
}

type invoiceRepo struct {
	*BaseVersionedRepo[*models.Invoice]
	db DB
}

func NewInvoiceRepository(db DB) InvoiceRepository {
	r := &invoiceRepo{db: db}
	r.BaseVersionedRepo = NewBaseRepo(db, baseSelectInvoice()+" WHERE id=$1", scanInvoice)
	return r
}

func (r *invoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	amt, err := decimalToNumeric(inv.Amount)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO invoices (
			id, vendor_id, fund, amount, description, status, due_date,
			decided_by, decided_at, created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, NOW(), NOW(), 1)
	`, inv.ID, inv.VendorID, inv.Fund, amt, inv.Description, inv.Status,
		inv.DueDate, inv.DecidedBy, inv.DecidedAt)
	return err
}

func baseSelectInvoice() string {
	return `
		SELECT id, vendor_id, fund, amount, description, status, due_date,
		decided_by, decided_at, created_at, updated_at, row_version
		FROM invoices`
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *invoiceRepo) ListByStatus(ctx context.Context, status models.InvoiceStatus) ([]*models.Invoice, error) {
	rows, err := r.db.Query(ctx, baseSelectInvoice()+" WHERE status=$1 ORDER BY due_date", status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invoiceRepo) UpdateIfVersion(ctx context.Context, inv *models.Invoice, expected int64) (pgconn.CommandTag, error) {
	amt, err := decimalToNumeric(inv.Amount)
	if err != nil {
		return nil, err
	}
	return r.db.Exec(ctx, `
		UPDATE invoices
		SET vendor_id=$1, fund=$2, amount=$3, description=$4, status=$5,
		    due_date=$6, decided_by=$7, decided_at=$8,
		    updated_at=NOW(), row_version=row_version+1
		WHERE id=$9 AND row_version=$10
	`, inv.VendorID, inv.Fund, amt, inv.Description, inv.Status,
		inv.DueDate, inv.DecidedBy, inv.DecidedAt, inv.ID, expected)
}

func (r *invoiceRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Invoice) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var (
		inv models.Invoice
		amt pgtype.Numeric
	)
	if err := row.Scan(
		&inv.ID, &inv.VendorID, &inv.Fund, &amt, &inv.Description,
		&inv.Status, &inv.DueDate, &inv.DecidedBy, &inv.DecidedAt,
		&inv.CreatedAt, &inv.UpdatedAt, &inv.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var err error
	if inv.Amount, err = numericToDecimal(amt); err != nil {
		return nil, err
	}
	return &inv, nil
}
