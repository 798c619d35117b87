package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/coralpointe/association-portal/internal/models"
)

// The atomic repository methods must report a failed commit to their
// caller: a commit that errored persisted nothing, and a caller that
// believes it succeeded would go on to credit fund pools and dispatch
// reclassification for a write that never happened.

// stubTx satisfies pgx.Tx via the embedded interface; only the methods
// these tests exercise are overridden.
type stubTx struct {
	pgx.Tx
	commitErr  error
	execErr    error
	rolledBack bool
}

func (t *stubTx) Commit(ctx context.Context) error   { return t.commitErr }
func (t *stubTx) Rollback(ctx context.Context) error { t.rolledBack = true; return nil }

func (t *stubTx) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	if t.execErr != nil {
		return nil, t.execErr
	}
	return pgconn.CommandTag("UPDATE 1"), nil
}

type stubTxDB struct{ tx pgx.Tx }

func (d *stubTxDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (d *stubTxDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query outside transaction")
}

func (d *stubTxDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func (d *stubTxDB) Begin(ctx context.Context) (pgx.Tx, error) { return d.tx, nil }

func TestApplyLedgerSurfacesCommitFailure(t *testing.T) {
	commitErr := errors.New("connection reset during commit")
	tx := &stubTx{commitErr: commitErr}
	repo := NewUnitRepository(&stubTxDB{tx: tx})
	unit := &models.Unit{ID: uuid.New(), UnitNumber: "101"}

	_, err := repo.ApplyLedgerIfVersion(context.Background(), unit, 1, nil, nil)
	require.ErrorIs(t, err, commitErr)
	require.False(t, tx.rolledBack)
}

func TestApplyLedgerCommitSuccessReturnsTag(t *testing.T) {
	tx := &stubTx{}
	repo := NewUnitRepository(&stubTxDB{tx: tx})
	unit := &models.Unit{ID: uuid.New(), UnitNumber: "101"}

	tag, err := repo.ApplyLedgerIfVersion(context.Background(), unit, 1, nil, nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, tag.RowsAffected())
}

func TestApplyLedgerRollsBackOnStatementError(t *testing.T) {
	execErr := errors.New("deadlock detected")
	tx := &stubTx{execErr: execErr, commitErr: errors.New("commit must not run")}
	repo := NewUnitRepository(&stubTxDB{tx: tx})
	unit := &models.Unit{ID: uuid.New(), UnitNumber: "101"}

	_, err := repo.ApplyLedgerIfVersion(context.Background(), unit, 1, nil, nil)
	require.ErrorIs(t, err, execErr)
	require.True(t, tx.rolledBack)
}

func TestTransferAtomicSurfacesCommitFailure(t *testing.T) {
	commitErr := errors.New("connection reset during commit")
	tx := &stubTx{commitErr: commitErr}
	repo := NewFundRepository(&stubTxDB{tx: tx})

	err := repo.TransferAtomic(context.Background(), models.FundOperating, models.FundReserve, decimal.NewFromInt(100))
	require.ErrorIs(t, err, commitErr)
	require.False(t, tx.rolledBack)
}

func TestTransferAtomicRollsBackOnStatementError(t *testing.T) {
	execErr := errors.New("deadlock detected")
	tx := &stubTx{execErr: execErr, commitErr: errors.New("commit must not run")}
	repo := NewFundRepository(&stubTxDB{tx: tx})

	err := repo.TransferAtomic(context.Background(), models.FundOperating, models.FundReserve, decimal.NewFromInt(100))
	require.ErrorIs(t, err, execErr)
	require.True(t, tx.rolledBack)
}
