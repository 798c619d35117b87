package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/utils"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestLedger(t *testing.T) (*LedgerService, *memStore, *models.Unit) {
	t.Helper()
	store := newMemStore()
	unitRepo := &memUnitRepo{s: store}
	entryRepo := &memEntryRepo{s: store}

	unit := &models.Unit{
		ID:                uuid.New(),
		UnitNumber:        "101",
		DelinquencyStatus: models.StatusCurrent,
		PriorityLevel:     models.PriorityNone,
	}
	require.NoError(t, unitRepo.Create(context.Background(), unit))

	return NewLedgerService(unitRepo, entryRepo), store, unit
}

func TestPostEntryMaintainsSumInvariant(t *testing.T) {
	ledger, store, unit := newTestLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := ledger.PostEntry(ctx, unit.ID, models.FundOperating, models.EntryAssessment, d("578.45"), now, "August maintenance", nil)
	require.NoError(t, err)
	_, err = ledger.PostEntry(ctx, unit.ID, models.FundSA1, models.EntryAssessment, d("208.00"), now, "SA1 installment", nil)
	require.NoError(t, err)
	_, err = ledger.PostEntry(ctx, unit.ID, models.FundSA2, models.EntryAssessment, d("6856.07"), now, "SA2 installment", nil)
	require.NoError(t, err)

	got := store.units[unit.ID]
	require.True(t, got.TotalOwed.Equal(d("7642.52")))
	require.True(t, got.OperatingBalance.Equal(d("578.45")))
	require.True(t, got.SA1Balance.Equal(d("208.00")))
	require.True(t, got.SA2Balance.Equal(d("6856.07")))
}

func TestPostEntryRejectsUnknownFund(t *testing.T) {
	ledger, _, unit := newTestLedger(t)

	_, err := ledger.PostEntry(
		context.Background(), unit.ID, models.Fund("SLUSH"), models.EntryAssessment,
		d("10"), time.Now().UTC(), "bogus", nil,
	)
	require.ErrorIs(t, err, utils.ErrInvalidFund)
}

func TestPostEntryRejectsOverdraw(t *testing.T) {
	ledger, store, unit := newTestLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := ledger.PostEntry(ctx, unit.ID, models.FundOperating, models.EntryAssessment, d("100"), now, "charge", nil)
	require.NoError(t, err)

	// A payment bigger than the balance must be refused outright.
	_, err = ledger.PostEntry(ctx, unit.ID, models.FundOperating, models.EntryPayment, d("-150"), now, "too big", nil)
	require.ErrorIs(t, err, utils.ErrNegativeCharge)

	got := store.units[unit.ID]
	require.True(t, got.OperatingBalance.Equal(d("100")), "failed posting must not move the balance")
}

func TestPostEntryUnknownUnit(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	_, err := ledger.PostEntry(
		context.Background(), uuid.New(), models.FundOperating, models.EntryAssessment,
		d("10"), time.Now().UTC(), "orphan", nil,
	)
	require.ErrorIs(t, err, utils.ErrUnitNotFound)
}

func TestReplayMatchesStoredBalances(t *testing.T) {
	ledger, store, unit := newTestLedger(t)
	ctx := context.Background()
	now := time.Now().UTC()

	postings := []struct {
		fund   models.Fund
		typ    models.EntryType
		amount string
	}{
		{models.FundOperating, models.EntryAssessment, "578.45"},
		{models.FundOperating, models.EntryLateFee, "25.00"},
		{models.FundSA1, models.EntryAssessment, "208.00"},
		{models.FundOperating, models.EntryPayment, "-300.00"},
		{models.FundSA1, models.EntryAdjustment, "-8.00"},
	}
	for _, p := range postings {
		_, err := ledger.PostEntry(ctx, unit.ID, p.fund, p.typ, d(p.amount), now, string(p.typ), nil)
		require.NoError(t, err)
		now = now.Add(time.Minute)
	}

	entries, err := ledger.GetLedger(ctx, unit.ID)
	require.NoError(t, err)
	require.Len(t, entries, len(postings))

	balances, credit := ReplayBalances(entries)
	got := store.units[unit.ID]
	require.True(t, balances[models.FundOperating].Equal(got.OperatingBalance))
	require.True(t, balances[models.FundSA1].Equal(got.SA1Balance))
	require.True(t, balances[models.FundSA2].Equal(got.SA2Balance))
	require.True(t, credit.IsZero())

	sum := balances[models.FundOperating].Add(balances[models.FundSA1]).Add(balances[models.FundSA2])
	require.True(t, sum.Equal(got.TotalOwed))
}

func TestOpenChargesFIFONetting(t *testing.T) {
	ledger, _, unit := newTestLedger(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	// Two operating charges a month apart, then a payment that wipes the
	// first and bites into the second.
	_, err := ledger.PostEntry(ctx, unit.ID, models.FundOperating, models.EntryAssessment, d("578.45"), base, "May", nil)
	require.NoError(t, err)
	_, err = ledger.PostEntry(ctx, unit.ID, models.FundOperating, models.EntryAssessment, d("578.45"), base.AddDate(0, 1, 0), "June", nil)
	require.NoError(t, err)
	_, err = ledger.PostEntry(ctx, unit.ID, models.FundOperating, models.EntryPayment, d("-600.00"), base.AddDate(0, 1, 5), "partial", nil)
	require.NoError(t, err)

	entries, err := ledger.GetLedger(ctx, unit.ID)
	require.NoError(t, err)

	open := OpenCharges(entries)
	require.Len(t, open, 1)
	require.Equal(t, "June", open[0].Entry.Description)
	require.True(t, open[0].Remaining.Equal(d("556.90")))
}

func TestOpenChargesIgnoreOtherFunds(t *testing.T) {
	ledger, _, unit := newTestLedger(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := ledger.PostEntry(ctx, unit.ID, models.FundOperating, models.EntryAssessment, d("100"), base, "operating", nil)
	require.NoError(t, err)
	_, err = ledger.PostEntry(ctx, unit.ID, models.FundSA1, models.EntryAssessment, d("100"), base, "sa1", nil)
	require.NoError(t, err)
	// SA1 payment must not consume the operating charge.
	_, err = ledger.PostEntry(ctx, unit.ID, models.FundSA1, models.EntryPayment, d("-100"), base.AddDate(0, 0, 1), "sa1 paid", nil)
	require.NoError(t, err)

	entries, err := ledger.GetLedger(ctx, unit.ID)
	require.NoError(t, err)

	open := OpenCharges(entries)
	require.Len(t, open, 1)
	require.Equal(t, models.FundOperating, open[0].Entry.Fund)
	require.True(t, open[0].Remaining.Equal(d("100")))
}

// The fund stamped on a credit_balance entry is informational: apply
// and replay route the amount to the unit's credit balance, never to
// the named fund.
func TestCreditEntryFundIsInformational(t *testing.T) {
	unit := &models.Unit{ID: uuid.New(), UnitNumber: "101"}
	entry := models.LedgerEntry{
		ID:     uuid.New(),
		UnitID: unit.ID,
		Fund:   models.FundSA2,
		Type:   models.EntryCreditBalance,
		Amount: d("21.55"),
	}

	applyEntryToUnit(unit, &entry)
	require.True(t, unit.SA2Balance.IsZero())
	require.True(t, unit.CreditBalance.Equal(d("21.55")))

	balances, credit := ReplayBalances([]*models.LedgerEntry{&entry})
	require.True(t, balances[models.FundSA2].IsZero())
	require.True(t, credit.Equal(d("21.55")))
}

func TestPositiveAdjustmentsAgeLikeCharges(t *testing.T) {
	ledger, _, unit := newTestLedger(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	// Imported opening balances arrive as positive adjustments and must
	// still show up as open charges.
	_, err := ledger.PostEntry(ctx, unit.ID, models.FundSA2, models.EntryAdjustment, d("6856.07"), base, "Balance import adjustment (SA2)", nil)
	require.NoError(t, err)

	entries, err := ledger.GetLedger(ctx, unit.ID)
	require.NoError(t, err)

	open := OpenCharges(entries)
	require.Len(t, open, 1)
	require.True(t, open[0].Remaining.Equal(d("6856.07")))
}
