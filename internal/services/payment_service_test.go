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

type paymentFixture struct {
	store *memStore
	svc   *PaymentService
	unit  *models.Unit
	alloc *allocFixture
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	alloc := newAllocFixture(t)
	svc := NewPaymentService(
		authz.NewMatrix(), alloc.payments, &memFundRepo{s: alloc.store}, alloc.allocator,
	)
	return &paymentFixture{store: alloc.store, svc: svc, unit: alloc.unit, alloc: alloc}
}

func TestRecordPaymentAllocatesAndSettles(t *testing.T) {
	f := newPaymentFixture(t)
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	f.alloc.charge(t, models.FundOperating, models.EntryAssessment, "578.45", base, "maintenance")

	actor := authz.Actor{ID: uuid.New(), Role: authz.RoleManagement}
	payment, entries, err := f.svc.RecordPayment(
		context.Background(), actor, f.unit.ID, d("578.45"),
		models.MethodCheck, nil, "check #1042", time.Now().UTC(),
	)
	require.NoError(t, err)
	require.NotNil(t, payment)
	require.Len(t, entries, 1)

	// Unit receivable cleared, association operating pool credited.
	require.True(t, f.store.units[f.unit.ID].TotalOwed.IsZero())
	require.True(t, f.store.funds[models.FundOperating].Equal(d("578.45")))
	require.True(t, f.store.payments[payment.ID].Allocated)
}

func TestRecordPaymentRequiresPermission(t *testing.T) {
	f := newPaymentFixture(t)
	actor := authz.Actor{ID: uuid.New(), Role: authz.RoleOwner, UnitID: f.unit.ID}

	_, _, err := f.svc.RecordPayment(
		context.Background(), actor, f.unit.ID, d("100"),
		models.MethodCash, nil, "", time.Now().UTC(),
	)
	var forbidden *authz.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	f := newPaymentFixture(t)
	actor := authz.Actor{ID: uuid.New(), Role: authz.RoleManagement}

	_, _, err := f.svc.RecordPayment(
		context.Background(), actor, f.unit.ID, d("0"),
		models.MethodCash, nil, "", time.Now().UTC(),
	)
	require.Error(t, err)
}

// Webhook redelivery of the same payment intent must not double-post.
func TestStripeRedeliveryIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t)
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	f.alloc.charge(t, models.FundOperating, models.EntryAssessment, "578.45", base, "maintenance")
	ctx := context.Background()

	require.NoError(t, f.svc.HandleCompletedStripePayment(ctx, "pi_123", f.unit.ID, 57845, ""))
	require.True(t, f.store.units[f.unit.ID].TotalOwed.IsZero())
	entryCount := len(f.store.entries)

	// Same intent delivered again.
	require.NoError(t, f.svc.HandleCompletedStripePayment(ctx, "pi_123", f.unit.ID, 57845, ""))
	require.Equal(t, entryCount, len(f.store.entries))
	require.True(t, f.store.units[f.unit.ID].TotalOwed.IsZero())
}

func TestStripePaymentHonorsFundHint(t *testing.T) {
	f := newPaymentFixture(t)
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	f.alloc.charge(t, models.FundOperating, models.EntryAssessment, "578.45", base, "maintenance")
	f.alloc.charge(t, models.FundSA1, models.EntryAssessment, "208.00", base, "sa1")

	// 208.00 directed at SA1 leaves operating untouched.
	require.NoError(t, f.svc.HandleCompletedStripePayment(context.Background(), "pi_456", f.unit.ID, 20800, "SA1"))

	got := f.store.units[f.unit.ID]
	require.True(t, got.SA1Balance.IsZero())
	require.True(t, got.OperatingBalance.Equal(d("578.45")))
}

func TestStripePaymentRejectsBadFundHint(t *testing.T) {
	f := newPaymentFixture(t)
	err := f.svc.HandleCompletedStripePayment(context.Background(), "pi_789", f.unit.ID, 1000, "SLUSH")
	require.Error(t, err)
}

func TestListForUnitScopesOwners(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	owner := authz.Actor{ID: uuid.New(), Role: authz.RoleOwner, UnitID: f.unit.ID}
	_, err := f.svc.ListForUnit(ctx, owner, f.unit.ID)
	require.NoError(t, err)

	stranger := authz.Actor{ID: uuid.New(), Role: authz.RoleOwner, UnitID: uuid.New()}
	_, err = f.svc.ListForUnit(ctx, stranger, f.unit.ID)
	var forbidden *authz.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
}
