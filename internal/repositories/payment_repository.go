package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"

	"github.com/coralpointe/association-portal/internal/models"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetByExternalRef(ctx context.Context, ref string) (*models.Payment, error)
	ListByUnit(ctx context.Context, unitID uuid.UUID) ([]*models.Payment, error)
	ListUnallocatedCompleted(ctx context.Context) ([]*models.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) error
}

type paymentRepo struct {
	db DB
}

func NewPaymentRepository(db DB) PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) Create(ctx context.Context, p *models.Payment) error {
	amt, err := decimalToNumeric(p.Amount)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO payments (
			id, unit_id, amount, method, status, target_fund,
			external_ref, allocated, received_at, created_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,FALSE,$8, NOW(), 1)
	`, p.ID, p.UnitID, amt, p.Method, p.Status, p.TargetFund,
		p.ExternalRef, p.ReceivedAt)
	return err
}

func baseSelectPayment() string {
	return `
		SELECT id, unit_id, amount, method, status, target_fund,
		external_ref, allocated, received_at, created_at, row_version
		FROM payments`
}

func (r *paymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	row := r.db.QueryRow(ctx, baseSelectPayment()+" WHERE id=$1", id)
	return scanPayment(row)
}

func (r *paymentRepo) GetByExternalRef(ctx context.Context, ref string) (*models.Payment, error) {
	row := r.db.QueryRow(ctx, baseSelectPayment()+" WHERE external_ref=$1 LIMIT 1", ref)
	return scanPayment(row)
}

func (r *paymentRepo) ListByUnit(ctx context.Context, unitID uuid.UUID) ([]*models.Payment, error) {
	rows, err := r.db.Query(ctx, baseSelectPayment()+" WHERE unit_id=$1 ORDER BY received_at DESC", unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayments(rows)
}

func (r *paymentRepo) ListUnallocatedCompleted(ctx context.Context) ([]*models.Payment, error) {
	rows, err := r.db.Query(ctx,
		baseSelectPayment()+" WHERE status='completed' AND allocated=FALSE ORDER BY received_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayments(rows)
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) error {
	_, err := r.db.Exec(ctx, `
		UPDATE payments SET status=$1, row_version=row_version+1 WHERE id=$2
	`, status, id)
	return err
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var (
		p          models.Payment
		amt        pgtype.Numeric
		targetFund *models.Fund
	)
	if err := row.Scan(
		&p.ID, &p.UnitID, &amt, &p.Method, &p.Status, &targetFund,
		&p.ExternalRef, &p.Allocated, &p.ReceivedAt, &p.CreatedAt, &p.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	p.TargetFund = targetFund

	var err error
	if p.Amount, err = numericToDecimal(amt); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPayments(rows pgx.Rows) ([]*models.Payment, error) {
	var out []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
