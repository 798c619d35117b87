package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/repositories"
	"github.com/coralpointe/association-portal/internal/services"
	"github.com/coralpointe/association-portal/internal/utils"
)

// Fixed IDs so re-running the seed is a no-op.
var (
	seedUnit101ID = uuid.MustParse("0b2f5c1e-8d4a-4f7b-9e3c-1a6d8b2c4e01")
	seedUnit102ID = uuid.MustParse("0b2f5c1e-8d4a-4f7b-9e3c-1a6d8b2c4e02")
	seedUnit103ID = uuid.MustParse("0b2f5c1e-8d4a-4f7b-9e3c-1a6d8b2c4e03")

	seedTreasurerID = uuid.MustParse("7c9e1b3a-5d2f-4e8c-a1b6-3f5d7e9c2a01")
	seedSecretaryID = uuid.MustParse("7c9e1b3a-5d2f-4e8c-a1b6-3f5d7e9c2a02")
	seedManagerID   = uuid.MustParse("7c9e1b3a-5d2f-4e8c-a1b6-3f5d7e9c2a03")
	seedOwner101ID  = uuid.MustParse("7c9e1b3a-5d2f-4e8c-a1b6-3f5d7e9c2a04")
)

const seedPassword = "ChangeMe123!"

type seedUnit struct {
	id         uuid.UUID
	unitNumber string
	operating  string
	sa1        string
	sa2        string
	ageDays    int
}

// SeedTestData loads a handful of units with realistic aged balances
// plus one account per role tier. Balances go through the ledger as
// adjustment entries so the replay invariant holds for seeded history.
func SeedTestData(
	ctx context.Context,
	unitRepo repositories.UnitRepository,
	ownerRepo repositories.OwnerRepository,
	ledger *services.LedgerService,
) error {
	units := []seedUnit{
		// Heavily delinquent: aged maintenance plus both special assessments.
		{seedUnit101ID, "101", "578.45", "208.00", "6856.07", 120},
		// Mildly late: one month of maintenance.
		{seedUnit102ID, "102", "578.45", "0", "0", 15},
		// Fully current.
		{seedUnit103ID, "103", "0", "0", "0", 0},
	}

	for _, su := range units {
		if err := seedOneUnit(ctx, unitRepo, ledger, su); err != nil {
			return fmt.Errorf("seed unit %s: %w", su.unitNumber, err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	owners := []*models.Owner{
		{ID: seedTreasurerID, FullName: "Seed Treasurer", Email: "treasurer@seed.local", Role: "board_treasurer"},
		{ID: seedSecretaryID, FullName: "Seed Secretary", Email: "secretary@seed.local", Role: "board_secretary"},
		{ID: seedManagerID, FullName: "Seed Manager", Email: "manager@seed.local", Role: "management"},
		{ID: seedOwner101ID, UnitID: seedUnit101ID, FullName: "Seed Owner 101", Email: "owner101@seed.local", Role: "owner"},
	}
	for _, o := range owners {
		existing, err := ownerRepo.GetByID(ctx, o.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		o.PasswordHash = string(hash)
		if err := ownerRepo.Create(ctx, o); err != nil {
			return err
		}
	}

	utils.Logger.Info("Seeded test units and accounts")
	return nil
}

func seedOneUnit(
	ctx context.Context,
	unitRepo repositories.UnitRepository,
	ledger *services.LedgerService,
	su seedUnit,
) error {
	existing, err := unitRepo.GetByID(ctx, su.id)
	if err != nil {
		return err
	}
	if existing != nil {
		// Already seeded on a previous run.
		return nil
	}

	unit := &models.Unit{
		ID:                su.id,
		UnitNumber:        su.unitNumber,
		DelinquencyStatus: models.StatusCurrent,
		PriorityLevel:     models.PriorityNone,
	}
	if err := unitRepo.Create(ctx, unit); err != nil {
		return err
	}

	asOf := time.Now().UTC().AddDate(0, 0, -su.ageDays)
	targets := []struct {
		fund   models.Fund
		amount string
	}{
		{models.FundOperating, su.operating},
		{models.FundSA1, su.sa1},
		{models.FundSA2, su.sa2},
	}
	for _, t := range targets {
		amount, err := decimal.NewFromString(t.amount)
		if err != nil {
			return err
		}
		if amount.IsZero() {
			continue
		}
		ref := uuid.NewSHA1(uuid.NameSpaceOID, []byte("seed:"+su.id.String()+":"+string(t.fund)))
		if _, err := ledger.PostEntry(
			ctx, su.id, t.fund, models.EntryAdjustment, amount, asOf,
			fmt.Sprintf("Seeded opening balance (%s)", t.fund), &ref,
		); err != nil {
			return err
		}
	}
	return nil
}
