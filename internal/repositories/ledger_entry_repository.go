package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"

	"github.com/coralpointe/association-portal/internal/models"
)

type LedgerEntryRepository interface {
	Create(ctx context.Context, e *models.LedgerEntry) error

	// ListByUnit returns the unit's full audit trail ordered by effective
	// date ascending (ties broken by insertion order).
	ListByUnit(ctx context.Context, unitID uuid.UUID) ([]*models.LedgerEntry, error)

	// ExistsForReference reports whether any entry references the given
	// payment/invoice id. This is the allocator's idempotence probe.
	ExistsForReference(ctx context.Context, refID uuid.UUID) (bool, error)
}

type ledgerEntryRepo struct {
	db DB
}

func NewLedgerEntryRepository(db DB) LedgerEntryRepository {
	return &ledgerEntryRepo{db: db}
}

func (r *ledgerEntryRepo) Create(ctx context.Context, e *models.LedgerEntry) error {
	return insertLedgerEntry(ctx, r.db, e)
}

// insertLedgerEntry is shared with unitRepo.ApplyLedgerIfVersion so the
// entries ride inside the balance-update transaction.
func insertLedgerEntry(ctx context.Context, db DB, e *models.LedgerEntry) error {
	amt, err := decimalToNumeric(e.Amount)
	if err != nil {
		return err
	}
	running, err := decimalToNumeric(e.RunningBalance)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `
		INSERT INTO ledger_entries (
			id, unit_id, fund, entry_type, amount, effective_at,
			description, reference_id, running_balance, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, NOW())
	`, e.ID, e.UnitID, e.Fund, e.Type, amt, e.EffectiveAt,
		e.Description, e.ReferenceID, running)
	return err
}

func baseSelectLedgerEntry() string {
	return `
		SELECT id, unit_id, fund, entry_type, amount, effective_at,
		description, reference_id, running_balance, created_at
		FROM ledger_entries`
}

func (r *ledgerEntryRepo) ListByUnit(ctx context.Context, unitID uuid.UUID) ([]*models.LedgerEntry, error) {
	rows, err := r.db.Query(ctx,
		baseSelectLedgerEntry()+" WHERE unit_id=$1 ORDER BY effective_at, created_at", unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ledgerEntryRepo) ExistsForReference(ctx context.Context, refID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM ledger_entries WHERE reference_id=$1)`, refID,
	).Scan(&exists)
	return exists, err
}

func scanLedgerEntry(row pgx.Row) (*models.LedgerEntry, error) {
	var (
		e           models.LedgerEntry
		amt, run    pgtype.Numeric
		refID       *uuid.UUID
		effectiveAt time.Time
	)
	if err := row.Scan(
		&e.ID, &e.UnitID, &e.Fund, &e.Type, &amt, &effectiveAt,
		&e.Description, &refID, &run, &e.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	e.ReferenceID = refID
	e.EffectiveAt = effectiveAt

	var err error
	if e.Amount, err = numericToDecimal(amt); err != nil {
		return nil, err
	}
	if e.RunningBalance, err = numericToDecimal(run); err != nil {
		return nil, err
	}
	return &e, nil
}
