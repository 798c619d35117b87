package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coralpointe/association-portal/internal/authz"
	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/repositories"
	"github.com/coralpointe/association-portal/internal/utils"
)

// BalanceImportRow is one parsed row from the onboarding/correction
// spreadsheet. Parsing the file itself is the import collaborator's job;
// this service only sees clean rows.
type BalanceImportRow struct {
	UnitNumber       string
	OperatingBalance decimal.Decimal
	SA1Balance       decimal.Decimal
	SA2Balance       decimal.Decimal
	// Reference identifies the import batch row so a re-run skips rows
	// that already posted.
	Reference uuid.UUID
	AsOf      time.Time
}

// ImportResult summarizes one bulk load.
type ImportResult struct {
	Posted  int `json:"posted"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ImportService bulk-loads initial or corrected balances. Every row
// routes through adjustment entries, never a direct balance write, so
// the replay invariant holds for imported history too.
type ImportService struct {
	matrix    *authz.Matrix
	unitRepo  repositories.UnitRepository
	entryRepo repositories.LedgerEntryRepository
	ledger    *LedgerService
}

func NewImportService(
	matrix *authz.Matrix,
	unitRepo repositories.UnitRepository,
	entryRepo repositories.LedgerEntryRepository,
	ledger *LedgerService,
) *ImportService {
	return &ImportService{matrix: matrix, unitRepo: unitRepo, entryRepo: entryRepo, ledger: ledger}
}

func (s *ImportService) ImportBalances(ctx context.Context, actor authz.Actor, rows []BalanceImportRow) (*ImportResult, error) {
	if err := s.matrix.RequirePermission(actor.Role, authz.PermImportBalances); err != nil {
		return nil, err
	}

	res := &ImportResult{}
	for i := range rows {
		row := &rows[i]
		switch err := s.importRow(ctx, row); {
		case err == nil:
			res.Posted++
		case err == errRowAlreadyImported:
			res.Skipped++
		default:
			res.Failed++
			utils.Logger.WithError(err).Errorf("Import: row for unit %q failed", row.UnitNumber)
		}
	}
	utils.Logger.Infof("Balance import: %d posted, %d skipped, %d failed", res.Posted, res.Skipped, res.Failed)
	return res, nil
}

var errRowAlreadyImported = fmt.Errorf("row already imported")

func (s *ImportService) importRow(ctx context.Context, row *BalanceImportRow) error {
	if done, err := s.entryRepo.ExistsForReference(ctx, row.Reference); err != nil {
		return err
	} else if done {
		return errRowAlreadyImported
	}

	unit, err := s.unitRepo.GetByUnitNumber(ctx, row.UnitNumber)
	if err != nil {
		return err
	}
	if unit == nil {
		return fmt.Errorf("unit %q: %w", row.UnitNumber, utils.ErrUnitNotFound)
	}

	targets := []struct {
		fund models.Fund
		want decimal.Decimal
	}{
		{models.FundOperating, row.OperatingBalance},
		{models.FundSA1, row.SA1Balance},
		{models.FundSA2, row.SA2Balance},
	}

	ref := row.Reference
	for _, t := range targets {
		delta := t.want.Sub(unit.FundBalance(t.fund))
		if delta.IsZero() {
			continue
		}
		if _, err := s.ledger.PostEntry(
			ctx, unit.ID, t.fund, models.EntryAdjustment, delta, row.AsOf,
			fmt.Sprintf("Balance import adjustment (%s)", t.fund), &ref,
		); err != nil {
			return err
		}
	}
	return nil
}
