package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/coralpointe/association-portal/internal/models"
)

func newBillingFixture(t *testing.T, amount string) (*BillingService, *memStore, []*models.Unit) {
	t.Helper()
	store := newMemStore()
	unitRepo := &memUnitRepo{s: store}
	entryRepo := &memEntryRepo{s: store}
	ledger := NewLedgerService(unitRepo, entryRepo)

	var units []*models.Unit
	for _, number := range []string{"101", "102"} {
		u := &models.Unit{
			ID:                uuid.New(),
			UnitNumber:        number,
			DelinquencyStatus: models.StatusCurrent,
			PriorityLevel:     models.PriorityNone,
		}
		require.NoError(t, unitRepo.Create(context.Background(), u))
		units = append(units, u)
	}
	return NewBillingService(unitRepo, entryRepo, ledger, d(amount)), store, units
}

func TestMonthlyBillingPostsOncePerPeriod(t *testing.T) {
	svc, store, units := newBillingFixture(t, "578.45")
	asOf := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, svc.PostMonthlyAssessments(ctx, asOf))
	require.Len(t, store.entries, 2)
	for _, u := range units {
		require.True(t, store.units[u.ID].OperatingBalance.Equal(d("578.45")))
	}

	// A rerun of the same period is a no-op.
	require.NoError(t, svc.PostMonthlyAssessments(ctx, asOf))
	require.Len(t, store.entries, 2)
	require.True(t, store.units[units[0].ID].OperatingBalance.Equal(d("578.45")))
}

func TestMonthlyBillingDistinctPeriodsAccumulate(t *testing.T) {
	svc, store, units := newBillingFixture(t, "578.45")
	ctx := context.Background()

	require.NoError(t, svc.PostMonthlyAssessments(ctx, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, svc.PostMonthlyAssessments(ctx, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))

	require.True(t, store.units[units[0].ID].OperatingBalance.Equal(d("1156.90")))
}

func TestMonthlyBillingSkipsWhenUnconfigured(t *testing.T) {
	svc, store, _ := newBillingFixture(t, "0")

	require.NoError(t, svc.PostMonthlyAssessments(context.Background(), time.Now().UTC()))
	require.Empty(t, store.entries)
}
