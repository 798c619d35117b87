// Package authz holds the static role→permission matrix gating every
// mutating operation in the portal. The matrix is built once at process
// start and injected explicitly; role and unit are always passed as
// arguments, never read from ambient request state.
package authz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSuperAdmin     Role = "super_admin"
	RoleBoardSecretary Role = "board_secretary"
	RoleBoardTreasurer Role = "board_treasurer"
	RoleBoardMember    Role = "board_member"
	RoleManagement     Role = "management"
	RoleOwner          Role = "owner"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleBoardSecretary, RoleBoardTreasurer,
		RoleBoardMember, RoleManagement, RoleOwner:
		return true
	}
	return false
}

type Permission string

const (
	PermViewAllUnits    Permission = "units:view_all"
	PermViewOwnUnit     Permission = "units:view_own"
	PermEditUnits       Permission = "units:edit"
	PermDeleteUnits     Permission = "units:delete"
	PermPostEntries     Permission = "ledger:post"
	PermRecordPayments  Permission = "payments:record"
	PermApproveInvoices Permission = "invoices:approve"
	PermManageInvoices  Permission = "invoices:manage"
	PermManageVendors   Permission = "vendors:manage"
	PermTransferFunds   Permission = "funds:transfer"
	PermRunSweep        Permission = "delinquency:sweep"
	PermSetAttorneyFlag Permission = "delinquency:flag"
	PermImportBalances  Permission = "ledger:import"
)

// ForbiddenError names the missing permissions and the actor's actual
// role so the denial can be audited verbatim. Never retried.
type ForbiddenError struct {
	Role    Role
	Missing []Permission
}

func (e *ForbiddenError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, p := range e.Missing {
		parts[i] = string(p)
	}
	sort.Strings(parts)
	return fmt.Sprintf("role %q lacks permission(s): %s", e.Role, strings.Join(parts, ", "))
}

// Matrix is the immutable role→permission lookup. Build it with
// NewMatrix; there is no mutation API.
type Matrix struct {
	grants map[Role]map[Permission]struct{}
}

// NewMatrix builds the association's permission table. The grants are
// process-wide static configuration, not user-editable at runtime.
func NewMatrix() *Matrix {
	m := &Matrix{grants: make(map[Role]map[Permission]struct{})}

	all := []Permission{
		PermViewAllUnits, PermViewOwnUnit, PermEditUnits, PermDeleteUnits,
		PermPostEntries, PermRecordPayments, PermApproveInvoices,
		PermManageInvoices, PermManageVendors, PermTransferFunds,
		PermRunSweep, PermSetAttorneyFlag, PermImportBalances,
	}
	m.grant(RoleSuperAdmin, all...)

	m.grant(RoleBoardTreasurer,
		PermViewAllUnits, PermViewOwnUnit, PermPostEntries,
		PermRecordPayments, PermApproveInvoices, PermTransferFunds,
		PermSetAttorneyFlag,
	)
	m.grant(RoleBoardSecretary,
		PermViewAllUnits, PermViewOwnUnit, PermApproveInvoices,
	)
	m.grant(RoleBoardMember,
		PermViewAllUnits, PermViewOwnUnit,
	)
	m.grant(RoleManagement,
		PermViewAllUnits, PermViewOwnUnit, PermEditUnits, PermPostEntries,
		PermRecordPayments, PermManageInvoices, PermManageVendors,
		PermRunSweep, PermImportBalances,
	)
	m.grant(RoleOwner,
		PermViewOwnUnit,
	)

	return m
}

func (m *Matrix) grant(r Role, perms ...Permission) {
	set, ok := m.grants[r]
	if !ok {
		set = make(map[Permission]struct{})
		m.grants[r] = set
	}
	for _, p := range perms {
		set[p] = struct{}{}
	}
}

// HasPermission is a pure lookup with no side effects.
func (m *Matrix) HasPermission(role Role, perm Permission) bool {
	set, ok := m.grants[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// RequirePermission fails with *ForbiddenError unless the role holds
// every listed permission (logical AND).
func (m *Matrix) RequirePermission(role Role, perms ...Permission) error {
	var missing []Permission
	for _, p := range perms {
		if !m.HasPermission(role, p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return &ForbiddenError{Role: role, Missing: missing}
	}
	return nil
}

// CanAccessUnit reports whether the actor may touch the requested unit.
// Blanket view-all roles reach any unit; an owner only their own. Applied
// before any ledger read or write reaches the core services.
func (m *Matrix) CanAccessUnit(role Role, userUnitID, requestedUnitID uuid.UUID) bool {
	if m.HasPermission(role, PermViewAllUnits) {
		return true
	}
	if m.HasPermission(role, PermViewOwnUnit) {
		return userUnitID == requestedUnitID
	}
	return false
}

// RequireUnitAccess is the error-returning form of CanAccessUnit.
func (m *Matrix) RequireUnitAccess(role Role, userUnitID, requestedUnitID uuid.UUID) error {
	if m.CanAccessUnit(role, userUnitID, requestedUnitID) {
		return nil
	}
	return &ForbiddenError{Role: role, Missing: []Permission{PermViewAllUnits}}
}

// Actor is the trusted (role, unit) pair handed to the core by the
// authorization boundary after authentication resolved it.
type Actor struct {
	ID     uuid.UUID
	Role   Role
	UnitID uuid.UUID
}
