package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coralpointe/association-portal/internal/authz"
	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/repositories"
	"github.com/coralpointe/association-portal/internal/utils"
)

// Aging thresholds, in days past the oldest unpaid charge's due date.
const (
	pendingCutoff  = 30
	notice30Cutoff = 60
	notice60Cutoff = 90
)

// DelinquencyService derives each unit's delinquency status from its
// aging balances and drives the nightly sweep. Classification is a pure
// function; the sweep persists the result one unit per transaction so a
// mid-sweep failure never rolls back processed units.
type DelinquencyService struct {
	matrix    *authz.Matrix
	unitRepo  repositories.UnitRepository
	entryRepo repositories.LedgerEntryRepository
	auditRepo repositories.AuditLogRepository
	notifier  Notifier
	ownerRepo repositories.OwnerRepository
}

func NewDelinquencyService(
	matrix *authz.Matrix,
	unitRepo repositories.UnitRepository,
	entryRepo repositories.LedgerEntryRepository,
	auditRepo repositories.AuditLogRepository,
	ownerRepo repositories.OwnerRepository,
	notifier Notifier,
) *DelinquencyService {
	return &DelinquencyService{
		matrix:    matrix,
		unitRepo:  unitRepo,
		entryRepo: entryRepo,
		auditRepo: auditRepo,
		ownerRepo: ownerRepo,
		notifier:  notifier,
	}
}

// Classify derives (status, notice) from the unit's balances and entry
// log as of the given date. Pure: no I/O, no mutation, no notices sent.
//
// A zero total forces `current` regardless of history unless the
// attorney or foreclosure flags are set, because a legal process in
// progress survives the balance hitting zero. The attorney status is
// monotonic: aging never demotes it, only an explicit manual clear does.
func Classify(unit *models.Unit, entries []*models.LedgerEntry, asOf time.Time) (models.DelinquencyStatus, models.NoticeType) {
	if unit.WithAttorney || unit.InForeclosure {
		return models.StatusAttorney, models.NoticeAttorneyReferral
	}
	if unit.TotalOwed.IsZero() || unit.TotalOwed.IsNegative() {
		return models.StatusCurrent, models.NoticeNone
	}

	open := OpenCharges(entries)
	if len(open) == 0 {
		return models.StatusCurrent, models.NoticeNone
	}

	oldest := open[0].Entry.EffectiveAt
	for _, oc := range open[1:] {
		if oc.Entry.EffectiveAt.Before(oldest) {
			oldest = oc.Entry.EffectiveAt
		}
	}

	days := int(asOf.Sub(oldest).Hours() / 24)
	status := statusForDays(days)
	return status, RecommendedAction(status)
}

func statusForDays(days int) models.DelinquencyStatus {
	switch {
	case days <= 0:
		return models.StatusCurrent
	case days <= pendingCutoff:
		return models.StatusPending
	case days <= notice30Cutoff:
		return models.Status30To60Days
	case days <= notice60Cutoff:
		return models.Status60To90Days
	default:
		return models.Status90Plus
	}
}

// RecommendedAction maps a status to the escalation notice it calls for.
// Deterministic from status alone.
func RecommendedAction(status models.DelinquencyStatus) models.NoticeType {
	switch status {
	case models.Status30To60Days:
		return models.Notice30Day
	case models.Status60To90Days:
		return models.Notice60Day
	case models.Status90Plus:
		return models.Notice90Day
	case models.StatusAttorney:
		return models.NoticeAttorneyReferral
	default:
		return models.NoticeNone
	}
}

func priorityForStatus(status models.DelinquencyStatus) models.PriorityLevel {
	switch status {
	case models.StatusPending:
		return models.PriorityLow
	case models.Status30To60Days:
		return models.PriorityMedium
	case models.Status60To90Days:
		return models.PriorityHigh
	case models.Status90Plus, models.StatusAttorney:
		return models.PriorityCritical
	default:
		return models.PriorityNone
	}
}

// ReclassifyUnit recomputes one unit's status and persists it only when
// it changed. Re-running on an already-classified unit with unchanged
// inputs writes nothing, which keeps the sweep resumable.
func (s *DelinquencyService) ReclassifyUnit(ctx context.Context, unitID uuid.UUID) error {
	return s.reclassifyAsOf(ctx, unitID, time.Now().UTC())
}

func (s *DelinquencyService) reclassifyAsOf(ctx context.Context, unitID uuid.UUID, asOf time.Time) error {
	unit, err := s.unitRepo.GetByID(ctx, unitID)
	if err != nil {
		return err
	}
	if unit == nil {
		return fmt.Errorf("unit %s: %w", unitID, utils.ErrUnitNotFound)
	}

	entries, err := s.entryRepo.ListByUnit(ctx, unitID)
	if err != nil {
		return err
	}

	status, notice := Classify(unit, entries, asOf)
	priority := priorityForStatus(status)
	if unit.DelinquencyStatus == status && unit.PriorityLevel == priority {
		return nil
	}

	if err := s.unitRepo.UpdateWithRetry(ctx, unitID, func(u *models.Unit) error {
		u.DelinquencyStatus = status
		u.PriorityLevel = priority
		return nil
	}); err != nil {
		return err
	}

	utils.Logger.Infof("Unit %s reclassified %s -> %s", unit.UnitNumber, unit.DelinquencyStatus, status)
	s.dispatchStatusNotice(unit, status, notice)
	return nil
}

// RunNightlySweep iterates every unit. Each unit is its own transaction:
// one unit failing is logged and skipped, the sweep keeps going.
func (s *DelinquencyService) RunNightlySweep(ctx context.Context) error {
	units, err := s.unitRepo.List(ctx)
	if err != nil {
		return err
	}

	asOf := time.Now().UTC()
	var failed int
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.reclassifyAsOf(ctx, u.ID, asOf); err != nil {
			failed++
			utils.Logger.WithError(err).Errorf("Sweep: classification failed for unit %s", u.UnitNumber)
		}
	}

	utils.Logger.Infof("Delinquency sweep finished: %d units, %d failures", len(units), failed)
	if failed > 0 {
		return fmt.Errorf("delinquency sweep: %d of %d units failed", failed, len(units))
	}
	return nil
}

// RunSweepAs is the on-demand form of the nightly sweep, gated on the
// sweep permission. The cron entry point calls RunNightlySweep directly.
func (s *DelinquencyService) RunSweepAs(ctx context.Context, actor authz.Actor) error {
	if err := s.matrix.RequirePermission(actor.Role, authz.PermRunSweep); err != nil {
		return err
	}
	return s.RunNightlySweep(ctx)
}

// SetAttorneyFlag is the manual administrative action that promotes a
// unit to (or clears it from) attorney handling. Audited.
func (s *DelinquencyService) SetAttorneyFlag(ctx context.Context, actor authz.Actor, unitID uuid.UUID, flagged bool) error {
	if err := s.matrix.RequirePermission(actor.Role, authz.PermSetAttorneyFlag); err != nil {
		return err
	}
	if err := s.unitRepo.UpdateWithRetry(ctx, unitID, func(u *models.Unit) error {
		u.WithAttorney = flagged
		if flagged {
			u.DelinquencyStatus = models.StatusAttorney
			u.PriorityLevel = models.PriorityCritical
		}
		return nil
	}); err != nil {
		return err
	}

	action := "attorney_flag_set"
	if !flagged {
		action = "attorney_flag_cleared"
	}
	if err := s.auditRepo.Create(ctx, &models.AuditLog{
		ID:         uuid.New(),
		ActorID:    actor.ID,
		ActorRole:  string(actor.Role),
		Action:     action,
		TargetID:   unitID,
		TargetType: "unit",
	}); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to audit %s for unit %s", action, unitID)
	}

	// Clearing the flag hands the unit back to the aging rule.
	if !flagged {
		return s.ReclassifyUnit(ctx, unitID)
	}
	return nil
}

// dispatchStatusNotice hands the fact to the notification collaborator
// after the transaction committed. Fire-and-forget: delivery failure is
// logged and never propagates to the ledger caller.
func (s *DelinquencyService) dispatchStatusNotice(unit *models.Unit, status models.DelinquencyStatus, notice models.NoticeType) {
	if s.notifier == nil || notice == models.NoticeNone {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		recipients, err := s.boardContacts(ctx)
		if err != nil {
			utils.Logger.WithError(err).Error("Failed to resolve board contacts for delinquency notice")
			return
		}
		if err := s.notifier.NotifyDelinquencyChange(ctx, unit, status, notice, recipients); err != nil {
			utils.Logger.WithError(err).Errorf("Failed to deliver %s notice for unit %s", notice, unit.UnitNumber)
		}
	}()
}

func (s *DelinquencyService) boardContacts(ctx context.Context) ([]*models.Owner, error) {
	var recipients []*models.Owner
	for _, role := range boardRoles {
		list, err := s.ownerRepo.ListByRole(ctx, role)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, list...)
	}
	return recipients, nil
}
