package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"

	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/utils"
)

/* ───────────── public interface ───────────── */

type UnitRepository interface {
	Create(ctx context.Context, u *models.Unit) error
	CreateMany(ctx context.Context, list []models.Unit) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Unit, error)
	GetByUnitNumber(ctx context.Context, number string) (*models.Unit, error)
	List(ctx context.Context) ([]*models.Unit, error)

	UpdateIfVersion(ctx context.Context, u *models.Unit, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Unit) error) error

	// ApplyLedgerIfVersion writes one ledger mutation atomically: the
	// version-checked balance update, the new entries, and (for payment
	// allocations) the payment's allocated flag. The returned tag has
	// zero rows affected when the unit's row_version moved underneath
	// the caller, who should re-read and retry.
	ApplyLedgerIfVersion(
		ctx context.Context,
		u *models.Unit,
		expected int64,
		entries []models.LedgerEntry,
		markPaymentID *uuid.UUID,
	) (pgconn.CommandTag, error)
}

/* ───────────── implementation ───────────── */

type unitRepo struct {
	*BaseVersionedRepo[*models.Unit]
	db DB
}

func NewUnitRepository(db DB) UnitRepository {
	r := &unitRepo{db: db}
	selectStmt := baseSelectUnit() + " WHERE id=$1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, r.scanUnit)
	return r
}

/* ---------- create ---------- */

func (r *unitRepo) Create(ctx context.Context, u *models.Unit) error {
	op, sa1, sa2, total, credit, err := unitNumerics(u)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO units (
			id, unit_number, owner_id,
			operating_balance, sa1_balance, sa2_balance, total_owed, credit_balance,
			delinquency_status, priority_level, with_attorney, in_foreclosure, red_flag,
			created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13, NOW(), NOW(), 1)
	`, u.ID, u.UnitNumber, u.OwnerID,
		op, sa1, sa2, total, credit,
		u.DelinquencyStatus, u.PriorityLevel, u.WithAttorney, u.InForeclosure, u.RedFlag)
	return err
}

func (r *unitRepo) CreateMany(ctx context.Context, list []models.Unit) error {
	for i := range list {
		if err := r.Create(ctx, &list[i]); err != nil {
			return err
		}
	}
	return nil
}

/* ---------- reads ---------- */

func (r *unitRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *unitRepo) GetByUnitNumber(ctx context.Context, number string) (*models.Unit, error) {
	row := r.db.QueryRow(ctx, baseSelectUnit()+" WHERE unit_number=$1 LIMIT 1", number)
	return r.scanUnit(row)
}

func (r *unitRepo) List(ctx context.Context) ([]*models.Unit, error) {
	rows, err := r.db.Query(ctx, baseSelectUnit()+" ORDER BY unit_number")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanUnits(rows)
}

/* ---------- update ---------- */

func (r *unitRepo) UpdateIfVersion(ctx context.Context, u *models.Unit, expected int64) (pgconn.CommandTag, error) {
	return r.updateIfVersion(ctx, r.db, u, expected)
}

func (r *unitRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Unit) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func (r *unitRepo) updateIfVersion(ctx context.Context, db DB, u *models.Unit, expected int64) (pgconn.CommandTag, error) {
	op, sa1, sa2, total, credit, err := unitNumerics(u)
	if err != nil {
		return nil, err
	}
	return db.Exec(ctx, `
		UPDATE units
		SET owner_id=$1,
		    operating_balance=$2, sa1_balance=$3, sa2_balance=$4,
		    total_owed=$5, credit_balance=$6,
		    delinquency_status=$7, priority_level=$8,
		    with_attorney=$9, in_foreclosure=$10, red_flag=$11,
		    updated_at=NOW(), row_version=row_version+1
		WHERE id=$12 AND row_version=$13
	`, u.OwnerID, op, sa1, sa2, total, credit,
		u.DelinquencyStatus, u.PriorityLevel,
		u.WithAttorney, u.InForeclosure, u.RedFlag,
		u.ID, expected)
}

/* ---------- atomic ledger apply ---------- */

// Results are named so the deferred commit can surface its error: a
// failed commit means nothing persisted, and the caller must see that.
func (r *unitRepo) ApplyLedgerIfVersion(
	ctx context.Context,
	u *models.Unit,
	expected int64,
	entries []models.LedgerEntry,
	markPaymentID *uuid.UUID,
) (tag pgconn.CommandTag, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	tag, err = r.updateIfVersion(ctx, tx, u, expected)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		// version conflict; nothing written, caller retries
		return tag, nil
	}

	for i := range entries {
		if err = insertLedgerEntry(ctx, tx, &entries[i]); err != nil {
			return nil, err
		}
	}

	if markPaymentID != nil {
		var pTag pgconn.CommandTag
		pTag, err = tx.Exec(ctx, `
			UPDATE payments
			SET allocated=TRUE, row_version=row_version+1
			WHERE id=$1 AND allocated=FALSE
		`, *markPaymentID)
		if err != nil {
			return nil, err
		}
		if pTag.RowsAffected() == 0 {
			err = utils.ErrAlreadyAllocated
			return nil, err
		}
	}

	return tag, nil
}

/* ---------- internals ---------- */

func baseSelectUnit() string {
	return `
		SELECT id, unit_number, owner_id,
		operating_balance, sa1_balance, sa2_balance, total_owed, credit_balance,
		delinquency_status, priority_level, with_attorney, in_foreclosure, red_flag,
		created_at, updated_at, row_version
		FROM units`
}

func unitNumerics(u *models.Unit) (op, sa1, sa2, total, credit pgtype.Numeric, err error) {
	if op, err = decimalToNumeric(u.OperatingBalance); err != nil {
		return
	}
	if sa1, err = decimalToNumeric(u.SA1Balance); err != nil {
		return
	}
	if sa2, err = decimalToNumeric(u.SA2Balance); err != nil {
		return
	}
	if total, err = decimalToNumeric(u.TotalOwed); err != nil {
		return
	}
	credit, err = decimalToNumeric(u.CreditBalance)
	return
}

func (r *unitRepo) scanUnit(row pgx.Row) (*models.Unit, error) {
	var (
		u                          models.Unit
		op, sa1, sa2, tot, cred    pgtype.Numeric
		ownerID                    *uuid.UUID
		createdAt, updatedAt       time.Time
	)
	if err := row.Scan(
		&u.ID, &u.UnitNumber, &ownerID,
		&op, &sa1, &sa2, &tot, &cred,
		&u.DelinquencyStatus, &u.PriorityLevel,
		&u.WithAttorney, &u.InForeclosure, &u.RedFlag,
		&createdAt, &updatedAt, &u.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	u.OwnerID = ownerID
	u.CreatedAt = createdAt
	u.UpdatedAt = updatedAt

	var err error
	if u.OperatingBalance, err = numericToDecimal(op); err != nil {
		return nil, err
	}
	if u.SA1Balance, err = numericToDecimal(sa1); err != nil {
		return nil, err
	}
	if u.SA2Balance, err = numericToDecimal(sa2); err != nil {
		return nil, err
	}
	if u.TotalOwed, err = numericToDecimal(tot); err != nil {
		return nil, err
	}
	if u.CreditBalance, err = numericToDecimal(cred); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *unitRepo) scanUnits(rows pgx.Rows) ([]*models.Unit, error) {
	var out []*models.Unit
	for rows.Next() {
		u, err := r.scanUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
