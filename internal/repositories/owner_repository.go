package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/coralpointe/association-portal/internal/models"
)

type OwnerRepository interface {
	Create(ctx context.Context, o *models.Owner) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Owner, error)
	GetByEmail(ctx context.Context, email string) (*models.Owner, error)
	ListByRole(ctx context.Context, role string) ([]*models.Owner, error)
}

type ownerRepo struct {
	db DB
}

func NewOwnerRepository(db DB) OwnerRepository {
	return &ownerRepo{db: db}
}

func (r *ownerRepo) Create(ctx context.Context, o *models.Owner) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO owners (
			id, unit_id, full_name, email, phone, password_hash, role,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7, NOW(), NOW())
	`, o.ID, o.UnitID, o.FullName, o.Email, o.Phone, o.PasswordHash, o.Role)
	return err
}

func baseSelectOwner() string {
	return `
		SELECT id, unit_id, full_name, email, phone, password_hash, role,
		created_at, updated_at
		FROM owners`
}

func (r *ownerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Owner, error) {
	row := r.db.QueryRow(ctx, baseSelectOwner()+" WHERE id=$1", id)
	return scanOwner(row)
}

func (r *ownerRepo) GetByEmail(ctx context.Context, email string) (*models.Owner, error) {
	row := r.db.QueryRow(ctx, baseSelectOwner()+" WHERE email=$1 LIMIT 1", email)
	return scanOwner(row)
}

// ListByRole is how the notifier resolves board-member recipients.
func (r *ownerRepo) ListByRole(ctx context.Context, role string) ([]*models.Owner, error) {
	rows, err := r.db.Query(ctx, baseSelectOwner()+" WHERE role=$1 ORDER BY full_name", role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Owner
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOwner(row pgx.Row) (*models.Owner, error) {
	var o models.Owner
	if err := row.Scan(
		&o.ID, &o.UnitID, &o.FullName, &o.Email, &o.Phone,
		&o.PasswordHash, &o.Role, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}
