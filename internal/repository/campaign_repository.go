package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kkkkikiki/flowfund/internal/model"
)

// ErrCampaignNotFound is returned when no campaign row matches the id.
var ErrCampaignNotFound = errors.New("campaign not found")

// DBExecutor interface for database operations (can be *sqlx.DB or *sqlx.Tx)
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
}

const campaignColumns = `id, owner, title, description, target_amount, current_amount, deadline, status, is_verified`

// CampaignRepository handles campaign rows of the Postgres ledger
type CampaignRepository struct{}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository() *CampaignRepository {
	return &CampaignRepository{}
}

// LockCampaigns blocks other id allocations until the transaction ends.
// Readers are not blocked.
func (r *CampaignRepository) LockCampaigns(db DBExecutor) error {
	if _, err := db.Exec(`LOCK TABLE campaigns IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("failed to lock campaigns: %w", err)
	}
	return nil
}

// NextCampaignID returns the id the next campaign must take. Ids are dense,
// so the next one is always count+1. Call it under LockCampaigns.
func (r *CampaignRepository) NextCampaignID(db DBExecutor) (uint64, error) {
	var id uint64
	if err := db.Get(&id, `SELECT COALESCE(MAX(id), 0) + 1 FROM campaigns`); err != nil {
		return 0, fmt.Errorf("failed to allocate campaign id: %w", err)
	}
	return id, nil
}

// CreateCampaign inserts a campaign under the id already set on it
func (r *CampaignRepository) CreateCampaign(db DBExecutor, campaign *model.Snapshot) error {
	query := `
		INSERT INTO campaigns (id, owner, title, description, target_amount, current_amount, deadline, status, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`

	_, err := db.Exec(query,
		campaign.ID, campaign.Owner, campaign.Title, campaign.Description,
		campaign.TargetAmount, campaign.CurrentAmount, campaign.Deadline,
		campaign.Status, campaign.IsVerified, time.Now())
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

// GetCampaign retrieves a campaign by ID
func (r *CampaignRepository) GetCampaign(db DBExecutor, id uint64) (model.Snapshot, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	return r.getOne(db, query, id)
}

// GetCampaignForUpdate retrieves a campaign and locks its row until the transaction ends
func (r *CampaignRepository) GetCampaignForUpdate(db DBExecutor, id uint64) (model.Snapshot, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1 FOR UPDATE`
	return r.getOne(db, query, id)
}

func (r *CampaignRepository) getOne(db DBExecutor, query string, id uint64) (model.Snapshot, error) {
	var campaign model.Snapshot
	if err := db.Get(&campaign, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Snapshot{}, ErrCampaignNotFound
		}
		return model.Snapshot{}, fmt.Errorf("failed to get campaign: %w", err)
	}
	return campaign, nil
}

// CountCampaigns returns the number of campaigns ever created
func (r *CampaignRepository) CountCampaigns(db DBExecutor) (uint64, error) {
	var count uint64
	if err := db.Get(&count, `SELECT COUNT(*) FROM campaigns`); err != nil {
		return 0, fmt.Errorf("failed to count campaigns: %w", err)
	}
	return count, nil
}

// SaveState writes the mutable ledger fields of a campaign
func (r *CampaignRepository) SaveState(db DBExecutor, campaign model.Snapshot) error {
	query := `
		UPDATE campaigns
		SET current_amount = $1, status = $2, is_verified = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := db.Exec(query, campaign.CurrentAmount, campaign.Status, campaign.IsVerified, time.Now(), campaign.ID)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCampaignNotFound
	}

	return nil
}
