package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/shopspring/decimal"

	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/utils"
)

// In-memory repository fakes with the same atomicity semantics as the
// Postgres implementations: version-checked writes, all-or-nothing
// ledger application, and the allocated-flag guard.

type memStore struct {
	mu       sync.Mutex
	units    map[uuid.UUID]models.Unit
	entries  []models.LedgerEntry
	payments map[uuid.UUID]models.Payment
	owners   map[uuid.UUID]models.Owner
	invoices map[uuid.UUID]models.Invoice
	vendors  map[uuid.UUID]models.Vendor
	audits   []models.AuditLog
	funds    map[models.Fund]decimal.Decimal
}

func newMemStore() *memStore {
	return &memStore{
		units:    map[uuid.UUID]models.Unit{},
		payments: map[uuid.UUID]models.Payment{},
		owners:   map[uuid.UUID]models.Owner{},
		invoices: map[uuid.UUID]models.Invoice{},
		vendors:  map[uuid.UUID]models.Vendor{},
		funds: map[models.Fund]decimal.Decimal{
			models.FundOperating: decimal.Zero,
			models.FundReserve:   decimal.Zero,
			models.FundSA1:       decimal.Zero,
			models.FundSA2:       decimal.Zero,
		},
	}
}

const (
	tagUpdated  = "UPDATE 1"
	tagConflict = "UPDATE 0"
)

/* ---------- unit repository ---------- */

type memUnitRepo struct{ s *memStore }

func (r *memUnitRepo) Create(ctx context.Context, u *models.Unit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u.RowVersion = 1
	r.s.units[u.ID] = *u
	return nil
}

func (r *memUnitRepo) CreateMany(ctx context.Context, list []models.Unit) error {
	for i := range list {
		if err := r.Create(ctx, &list[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *memUnitRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.units[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *memUnitRepo) GetByUnitNumber(ctx context.Context, number string) (*models.Unit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.units {
		if u.UnitNumber == number {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memUnitRepo) List(ctx context.Context) ([]*models.Unit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Unit, 0, len(r.s.units))
	for _, u := range r.s.units {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitNumber < out[j].UnitNumber })
	return out, nil
}

func (r *memUnitRepo) UpdateIfVersion(ctx context.Context, u *models.Unit, expected int64) (pgconn.CommandTag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.updateIfVersionLocked(u, expected), nil
}

func (r *memUnitRepo) updateIfVersionLocked(u *models.Unit, expected int64) pgconn.CommandTag {
	stored, ok := r.s.units[u.ID]
	if !ok || stored.RowVersion != expected {
		return pgconn.CommandTag(tagConflict)
	}
	u.RowVersion = expected + 1
	r.s.units[u.ID] = *u
	return pgconn.CommandTag(tagUpdated)
}

func (r *memUnitRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Unit) error) error {
	for attempt := 0; attempt < 5; attempt++ {
		u, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("unit %s: %w", id, utils.ErrUnitNotFound)
		}
		expected := u.RowVersion
		if err := mutate(u); err != nil {
			return err
		}
		tag, err := r.UpdateIfVersion(ctx, u, expected)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			return nil
		}
	}
	return utils.ErrRowVersionConflict
}

func (r *memUnitRepo) ApplyLedgerIfVersion(
	ctx context.Context,
	u *models.Unit,
	expected int64,
	entries []models.LedgerEntry,
	markPaymentID *uuid.UUID,
) (pgconn.CommandTag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if markPaymentID != nil {
		p, ok := r.s.payments[*markPaymentID]
		if !ok || p.Allocated {
			return nil, utils.ErrAlreadyAllocated
		}
	}

	tag := r.updateIfVersionLocked(u, expected)
	if tag.RowsAffected() == 0 {
		return tag, nil
	}

	r.s.entries = append(r.s.entries, entries...)
	if markPaymentID != nil {
		p := r.s.payments[*markPaymentID]
		p.Allocated = true
		r.s.payments[*markPaymentID] = p
	}
	return tag, nil
}

/* ---------- ledger entry repository ---------- */

type memEntryRepo struct{ s *memStore }

func (r *memEntryRepo) Create(ctx context.Context, e *models.LedgerEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.entries = append(r.s.entries, *e)
	return nil
}

func (r *memEntryRepo) ListByUnit(ctx context.Context, unitID uuid.UUID) ([]*models.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.LedgerEntry
	for i := range r.s.entries {
		if r.s.entries[i].UnitID == unitID {
			e := r.s.entries[i]
			out = append(out, &e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EffectiveAt.Before(out[j].EffectiveAt) })
	return out, nil
}

func (r *memEntryRepo) ExistsForReference(ctx context.Context, refID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.entries {
		if r.s.entries[i].ReferenceID != nil && *r.s.entries[i].ReferenceID == refID {
			return true, nil
		}
	}
	return false, nil
}

/* ---------- payment repository ---------- */

type memPaymentRepo struct{ s *memStore }

func (r *memPaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.RowVersion = 1
	r.s.payments[p.ID] = *p
	return nil
}

func (r *memPaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memPaymentRepo) GetByExternalRef(ctx context.Context, ref string) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.ExternalRef == ref {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (r *memPaymentRepo) ListByUnit(ctx context.Context, unitID uuid.UUID) ([]*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Payment
	for _, p := range r.s.payments {
		if p.UnitID == unitID {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r *memPaymentRepo) ListUnallocatedCompleted(ctx context.Context) ([]*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Payment
	for _, p := range r.s.payments {
		if p.Status == models.PaymentCompleted && !p.Allocated {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r *memPaymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return fmt.Errorf("payment %s not found", id)
	}
	p.Status = status
	r.s.payments[id] = p
	return nil
}

/* ---------- owner / audit / fund repositories ---------- */

type memOwnerRepo struct{ s *memStore }

func (r *memOwnerRepo) Create(ctx context.Context, o *models.Owner) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.owners[o.ID] = *o
	return nil
}

func (r *memOwnerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Owner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.owners[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *memOwnerRepo) GetByEmail(ctx context.Context, email string) (*models.Owner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.owners {
		if o.Email == email {
			o := o
			return &o, nil
		}
	}
	return nil, nil
}

func (r *memOwnerRepo) ListByRole(ctx context.Context, role string) ([]*models.Owner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Owner
	for _, o := range r.s.owners {
		if o.Role == role {
			o := o
			out = append(out, &o)
		}
	}
	return out, nil
}

type memAuditRepo struct{ s *memStore }

func (r *memAuditRepo) Create(ctx context.Context, logEntry *models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audits = append(r.s.audits, *logEntry)
	return nil
}

type memInvoiceRepo struct{ s *memStore }

func (r *memInvoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv.RowVersion = 1
	r.s.invoices[inv.ID] = *inv
	return nil
}

func (r *memInvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (r *memInvoiceRepo) ListByStatus(ctx context.Context, status models.InvoiceStatus) ([]*models.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Invoice
	for _, inv := range r.s.invoices {
		if inv.Status == status {
			inv := inv
			out = append(out, &inv)
		}
	}
	return out, nil
}

func (r *memInvoiceRepo) UpdateIfVersion(ctx context.Context, inv *models.Invoice, expected int64) (pgconn.CommandTag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.invoices[inv.ID]
	if !ok || stored.RowVersion != expected {
		return pgconn.CommandTag(tagConflict), nil
	}
	inv.RowVersion = expected + 1
	r.s.invoices[inv.ID] = *inv
	return pgconn.CommandTag(tagUpdated), nil
}

func (r *memInvoiceRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Invoice) error) error {
	for attempt := 0; attempt < 5; attempt++ {
		inv, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if inv == nil {
			return fmt.Errorf("invoice %s not found", id)
		}
		expected := inv.RowVersion
		if err := mutate(inv); err != nil {
			return err
		}
		tag, err := r.UpdateIfVersion(ctx, inv, expected)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			return nil
		}
	}
	return utils.ErrRowVersionConflict
}

type memVendorRepo struct{ s *memStore }

func (r *memVendorRepo) Create(ctx context.Context, v *models.Vendor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.vendors[v.ID] = *v
	return nil
}

func (r *memVendorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vendors[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r *memVendorRepo) List(ctx context.Context, activeOnly bool) ([]*models.Vendor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Vendor
	for _, v := range r.s.vendors {
		if activeOnly && !v.Active {
			continue
		}
		v := v
		out = append(out, &v)
	}
	return out, nil
}

func (r *memVendorRepo) Update(ctx context.Context, v *models.Vendor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.vendors[v.ID] = *v
	return nil
}

func (r *memVendorRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vendors[id]
	if !ok {
		return fmt.Errorf("vendor %s not found", id)
	}
	v.Active = false
	r.s.vendors[id] = v
	return nil
}

type memFundRepo struct{ s *memStore }

func (r *memFundRepo) List(ctx context.Context) ([]*models.FundBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.FundBalance
	for _, f := range models.AllFunds {
		out = append(out, &models.FundBalance{Fund: f, Balance: r.s.funds[f]})
	}
	return out, nil
}

func (r *memFundRepo) GetBalance(ctx context.Context, fund models.Fund) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.funds[fund], nil
}

func (r *memFundRepo) Credit(ctx context.Context, fund models.Fund, amount decimal.Decimal) error {
	return r.move(fund, amount)
}

func (r *memFundRepo) Debit(ctx context.Context, fund models.Fund, amount decimal.Decimal) error {
	return r.move(fund, amount.Neg())
}

func (r *memFundRepo) move(fund models.Fund, delta decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	next := r.s.funds[fund].Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("fund %s: insufficient balance for %s", fund, delta)
	}
	r.s.funds[fund] = next
	return nil
}

func (r *memFundRepo) TransferAtomic(ctx context.Context, from, to models.Fund, amount decimal.Decimal) error {
	if err := r.move(from, amount.Neg()); err != nil {
		return err
	}
	return r.move(to, amount)
}
