package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgtype"
	"github.com/shopspring/decimal"

	"github.com/coralpointe/association-portal/internal/models"
)

type FundRepository interface {
	List(ctx context.Context) ([]*models.FundBalance, error)
	GetBalance(ctx context.Context, fund models.Fund) (decimal.Decimal, error)

	// Credit/Debit move association money in or out of one fund.
	Credit(ctx context.Context, fund models.Fund, amount decimal.Decimal) error
	Debit(ctx context.Context, fund models.Fund, amount decimal.Decimal) error

	// TransferAtomic moves money between two funds in one transaction,
	// locking both rows and refusing to overdraw the source. Legality of
	// the pair is the service's concern; arithmetic safety is ours.
	TransferAtomic(ctx context.Context, from, to models.Fund, amount decimal.Decimal) error
}

type fundRepo struct {
	db DB
}

func NewFundRepository(db DB) FundRepository {
	return &fundRepo{db: db}
}

func (r *fundRepo) List(ctx context.Context) ([]*models.FundBalance, error) {
	rows, err := r.db.Query(ctx, `SELECT fund, balance, updated_at FROM fund_balances ORDER BY fund`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.FundBalance
	for rows.Next() {
		var (
			fb  models.FundBalance
			bal pgtype.Numeric
		)
		if err := rows.Scan(&fb.Fund, &bal, &fb.UpdatedAt); err != nil {
			return nil, err
		}
		if fb.Balance, err = numericToDecimal(bal); err != nil {
			return nil, err
		}
		out = append(out, &fb)
	}
	return out, rows.Err()
}

func (r *fundRepo) GetBalance(ctx context.Context, fund models.Fund) (decimal.Decimal, error) {
	var bal pgtype.Numeric
	err := r.db.QueryRow(ctx, `SELECT balance FROM fund_balances WHERE fund=$1`, fund).Scan(&bal)
	if err != nil {
		return decimal.Zero, err
	}
	return numericToDecimal(bal)
}

func (r *fundRepo) Credit(ctx context.Context, fund models.Fund, amount decimal.Decimal) error {
	return r.move(ctx, r.db, fund, amount)
}

func (r *fundRepo) Debit(ctx context.Context, fund models.Fund, amount decimal.Decimal) error {
	return r.move(ctx, r.db, fund, amount.Neg())
}

func (r *fundRepo) move(ctx context.Context, db DB, fund models.Fund, delta decimal.Decimal) error {
	amt, err := decimalToNumeric(delta)
	if err != nil {
		return err
	}
	tag, err := db.Exec(ctx, `
		UPDATE fund_balances
		SET balance = balance + $1, updated_at = NOW()
		WHERE fund = $2 AND balance + $1 >= 0
	`, amt, fund)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fund %s: insufficient balance for %s", fund, delta)
	}
	return nil
}

// The named result lets the deferred commit report its failure.
func (r *fundRepo) TransferAtomic(ctx context.Context, from, to models.Fund, amount decimal.Decimal) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	// Lock both rows in a stable order to avoid deadlock between
	// concurrent transfers.
	first, second := from, to
	if second < first {
		first, second = second, first
	}
	for _, f := range []models.Fund{first, second} {
		if _, err = tx.Exec(ctx, `SELECT 1 FROM fund_balances WHERE fund=$1 FOR UPDATE`, f); err != nil {
			return err
		}
	}

	if err = r.move(ctx, tx, from, amount.Neg()); err != nil {
		return err
	}
	if err = r.move(ctx, tx, to, amount); err != nil {
		return err
	}
	return nil
}
