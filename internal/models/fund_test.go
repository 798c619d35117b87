package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestIsTransferAllowed(t *testing.T) {
	for _, from := range AllFunds {
		for _, to := range AllFunds {
			got := IsTransferAllowed(from, to)
			if from == FundReserve && to == FundOperating {
				require.False(t, got, "reserve -> operating must be blocked")
			} else {
				require.True(t, got, "%s -> %s should be allowed", from, to)
			}
		}
	}
}

func TestFundValid(t *testing.T) {
	for _, f := range AllFunds {
		require.True(t, f.Valid())
	}
	require.False(t, Fund("PETTY_CASH").Valid())
	require.False(t, Fund("").Valid())
}

func TestAllocationPriorityOrder(t *testing.T) {
	require.Equal(t, []Fund{FundOperating, FundSA1, FundSA2}, AllocationPriority)
}

func TestSetFundBalanceRecomputesTotal(t *testing.T) {
	u := &Unit{}
	u.SetFundBalance(FundOperating, decimal.RequireFromString("578.45"))
	u.SetFundBalance(FundSA1, decimal.RequireFromString("208.00"))
	u.SetFundBalance(FundSA2, decimal.RequireFromString("6856.07"))

	require.True(t, u.TotalOwed.Equal(decimal.RequireFromString("7642.52")))

	u.SetFundBalance(FundOperating, decimal.Zero)
	require.True(t, u.TotalOwed.Equal(decimal.RequireFromString("7064.07")))
}

func TestReserveCarriesNoUnitReceivable(t *testing.T) {
	u := &Unit{}
	u.SetFundBalance(FundReserve, decimal.RequireFromString("100"))
	require.True(t, u.FundBalance(FundReserve).IsZero())
	require.True(t, u.TotalOwed.IsZero())
}
