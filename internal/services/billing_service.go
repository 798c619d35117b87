package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/repositories"
	"github.com/coralpointe/association-portal/internal/utils"
)

// BillingService posts the recurring monthly maintenance assessment to
// every unit's operating fund. Each (unit, period) pair gets a
// deterministic reference ID, so a re-run of the cron job skips units
// already billed for that period.
type BillingService struct {
	unitRepo  repositories.UnitRepository
	entryRepo repositories.LedgerEntryRepository
	ledger    *LedgerService
	amount    decimal.Decimal
}

func NewBillingService(
	unitRepo repositories.UnitRepository,
	entryRepo repositories.LedgerEntryRepository,
	ledger *LedgerService,
	monthlyAssessment decimal.Decimal,
) *BillingService {
	return &BillingService{
		unitRepo:  unitRepo,
		entryRepo: entryRepo,
		ledger:    ledger,
		amount:    monthlyAssessment,
	}
}

func assessmentReference(unitID uuid.UUID, period string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("assessment:"+unitID.String()+":"+period))
}

// PostMonthlyAssessments bills every unit for the month containing asOf.
// Per-unit failures are logged and skipped like the delinquency sweep.
func (s *BillingService) PostMonthlyAssessments(ctx context.Context, asOf time.Time) error {
	if !s.amount.IsPositive() {
		utils.Logger.Warn("Monthly assessment amount not configured; skipping billing run")
		return nil
	}

	units, err := s.unitRepo.List(ctx)
	if err != nil {
		return err
	}

	period := asOf.Format("2006-01")
	var posted, skipped, failed int
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		ref := assessmentReference(u.ID, period)

		if done, err := s.entryRepo.ExistsForReference(ctx, ref); err != nil {
			failed++
			utils.Logger.WithError(err).Errorf("Billing: reference check failed for unit %s", u.UnitNumber)
			continue
		} else if done {
			skipped++
			continue
		}

		if _, err := s.ledger.PostEntry(
			ctx, u.ID, models.FundOperating, models.EntryAssessment, s.amount, asOf,
			fmt.Sprintf("Monthly maintenance assessment %s", period), &ref,
		); err != nil {
			failed++
			utils.Logger.WithError(err).Errorf("Billing: assessment failed for unit %s", u.UnitNumber)
			continue
		}
		posted++
	}

	utils.Logger.Infof("Monthly billing %s: %d posted, %d skipped, %d failed", period, posted, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("monthly billing: %d of %d units failed", failed, len(units))
	}
	return nil
}
