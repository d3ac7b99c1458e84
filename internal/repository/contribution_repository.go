package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ContributionRepository handles per-contributor totals of the Postgres ledger
type ContributionRepository struct{}

// NewContributionRepository creates a new contribution repository
func NewContributionRepository() *ContributionRepository {
	return &ContributionRepository{}
}

// GetContribution returns the amount contributor has put into a campaign, zero if none
func (r *ContributionRepository) GetContribution(db DBExecutor, campaignID uint64, contributor string) (decimal.Decimal, error) {
	query := `
		SELECT amount
		FROM contributions
		WHERE campaign_id = $1 AND contributor = $2
	`

	var amount decimal.Decimal
	if err := db.Get(&amount, query, campaignID, contributor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("failed to get contribution: %w", err)
	}
	return amount, nil
}

// AddContribution increases a contributor's total, creating the row on first contribution
func (r *ContributionRepository) AddContribution(db DBExecutor, campaignID uint64, contributor string, value decimal.Decimal) error {
	query := `
		INSERT INTO contributions (campaign_id, contributor, amount, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (campaign_id, contributor)
		DO UPDATE SET amount = contributions.amount + EXCLUDED.amount, updated_at = EXCLUDED.updated_at
	`

	if _, err := db.Exec(query, campaignID, contributor, value, time.Now()); err != nil {
		return fmt.Errorf("failed to add contribution: %w", err)
	}
	return nil
}

// ClearContribution zeroes a contributor's total after a refund
func (r *ContributionRepository) ClearContribution(db DBExecutor, campaignID uint64, contributor string) error {
	query := `
		UPDATE contributions
		SET amount = 0, updated_at = $1
		WHERE campaign_id = $2 AND contributor = $3
	`

	if _, err := db.Exec(query, time.Now(), campaignID, contributor); err != nil {
		return fmt.Errorf("failed to clear contribution: %w", err)
	}
	return nil
}
