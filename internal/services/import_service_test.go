package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/coralpointe/association-portal/internal/authz"
	"github.com/coralpointe/association-portal/internal/models"
)

func newImportFixture(t *testing.T) (*ImportService, *memStore, *models.Unit) {
	t.Helper()
	store := newMemStore()
	unitRepo := &memUnitRepo{s: store}
	entryRepo := &memEntryRepo{s: store}
	ledger := NewLedgerService(unitRepo, entryRepo)

	unit := &models.Unit{
		ID:                uuid.New(),
		UnitNumber:        "101",
		DelinquencyStatus: models.StatusCurrent,
		PriorityLevel:     models.PriorityNone,
	}
	require.NoError(t, unitRepo.Create(context.Background(), unit))

	return NewImportService(authz.NewMatrix(), unitRepo, entryRepo, ledger), store, unit
}

func TestImportPostsAdjustmentsAndKeepsInvariant(t *testing.T) {
	svc, store, unit := newImportFixture(t)
	actor := authz.Actor{ID: uuid.New(), Role: authz.RoleManagement}

	res, err := svc.ImportBalances(context.Background(), actor, []BalanceImportRow{{
		UnitNumber:       "101",
		OperatingBalance: d("578.45"),
		SA1Balance:       d("208.00"),
		SA2Balance:       d("6856.07"),
		Reference:        uuid.New(),
		AsOf:             time.Now().UTC().AddDate(0, 0, -120),
	}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Posted)
	require.Zero(t, res.Skipped)
	require.Zero(t, res.Failed)

	got := store.units[unit.ID]
	require.True(t, got.TotalOwed.Equal(d("7642.52")))

	// Balances arrived as ledger entries, not direct writes.
	require.Len(t, store.entries, 3)
	for _, e := range store.entries {
		require.Equal(t, models.EntryAdjustment, e.Type)
	}
}

func TestImportSkipsAlreadyPostedRows(t *testing.T) {
	svc, store, _ := newImportFixture(t)
	actor := authz.Actor{ID: uuid.New(), Role: authz.RoleManagement}
	row := BalanceImportRow{
		UnitNumber:       "101",
		OperatingBalance: d("100.00"),
		SA1Balance:       d("0"),
		SA2Balance:       d("0"),
		Reference:        uuid.New(),
		AsOf:             time.Now().UTC(),
	}

	res, err := svc.ImportBalances(context.Background(), actor, []BalanceImportRow{row})
	require.NoError(t, err)
	require.Equal(t, 1, res.Posted)
	entryCount := len(store.entries)

	// Re-running the same batch row is a skip, not a double post.
	res, err = svc.ImportBalances(context.Background(), actor, []BalanceImportRow{row})
	require.NoError(t, err)
	require.Equal(t, 1, res.Skipped)
	require.Equal(t, entryCount, len(store.entries))
}

func TestImportCountsUnknownUnitAsFailure(t *testing.T) {
	svc, _, _ := newImportFixture(t)
	actor := authz.Actor{ID: uuid.New(), Role: authz.RoleManagement}

	res, err := svc.ImportBalances(context.Background(), actor, []BalanceImportRow{{
		UnitNumber: "999",
		Reference:  uuid.New(),
		AsOf:       time.Now().UTC(),
	}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Failed)
}

func TestImportRequiresPermission(t *testing.T) {
	svc, _, _ := newImportFixture(t)
	actor := authz.Actor{ID: uuid.New(), Role: authz.RoleBoardMember}

	_, err := svc.ImportBalances(context.Background(), actor, nil)
	var forbidden *authz.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
}
