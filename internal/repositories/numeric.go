package repositories

import (
	"fmt"

	"github.com/jackc/pgtype"
	"github.com/shopspring/decimal"
)

// Money columns are NUMERIC(12,2). pgx v4 decodes them into
// pgtype.Numeric; these helpers bridge to shopspring/decimal so no money
// value ever touches a float.

func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if n.Status != pgtype.Present || n.Int == nil {
		return decimal.Zero, nil
	}
	if n.NaN {
		return decimal.Zero, fmt.Errorf("decode numeric: NaN")
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}

func decimalToNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Set(d.String()); err != nil {
		return n, fmt.Errorf("encode numeric: %w", err)
	}
	return n, nil
}
