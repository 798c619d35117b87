package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/coralpointe/association-portal/internal/models"
)

type VendorRepository interface {
	Create(ctx context.Context, v *models.Vendor) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Vendor, error)
	Update(ctx context.Context, v *models.Vendor) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type vendorRepo struct {
	db DB
}

func NewVendorRepository(db DB) VendorRepository {
	return &vendorRepo{db: db}
}

func (r *vendorRepo) Create(ctx context.Context, v *models.Vendor) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO vendors (
			id, name, email, phone, category, active, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6, NOW(), NOW())
	`, v.ID, v.Name, v.Email, v.Phone, v.Category, v.Active)
	return err
}

func baseSelectVendor() string {
	return `
		SELECT id, name, email, phone, category, active, created_at, updated_at
		FROM vendors`
}

func (r *vendorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	row := r.db.QueryRow(ctx, baseSelectVendor()+" WHERE id=$1", id)
	return scanVendor(row)
}

func (r *vendorRepo) List(ctx context.Context, activeOnly bool) ([]*models.Vendor, error) {
	q := baseSelectVendor()
	if activeOnly {
		q += " WHERE active"
	}
	rows, err := r.db.Query(ctx, q+" ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *vendorRepo) Update(ctx context.Context, v *models.Vendor) error {
	_, err := r.db.Exec(ctx, `
		UPDATE vendors
		SET name=$1, email=$2, phone=$3, category=$4, active=$5, updated_at=NOW()
		WHERE id=$6
	`, v.Name, v.Email, v.Phone, v.Category, v.Active, v.ID)
	return err
}

func (r *vendorRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE vendors SET active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanVendor(row pgx.Row) (*models.Vendor, error) {
	var v models.Vendor
	if err := row.Scan(
		&v.ID, &v.Name, &v.Email, &v.Phone, &v.Category, &v.Active,
		&v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}
