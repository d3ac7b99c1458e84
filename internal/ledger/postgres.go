package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/kkkkikiki/flowfund/internal/model"
	"github.com/kkkkikiki/flowfund/internal/repository"
)

const adminSettingKey = "admin"

// Postgres is a funding ledger whose state lives in Postgres. Every write
// runs the contract rules inside a transaction holding the campaign row lock.
type Postgres struct {
	db           *sqlx.DB
	now          func() time.Time
	campaignRepo *repository.CampaignRepository
	contribRepo  *repository.ContributionRepository
	settingsRepo *repository.SettingsRepository
}

// NewPostgres creates a Postgres-backed ledger. When admin is non-empty it is
// recorded as the administrator unless one is already stored.
func NewPostgres(ctx context.Context, db *sqlx.DB, admin string) (*Postgres, error) {
	p := &Postgres{
		db:           db,
		now:          time.Now,
		campaignRepo: repository.NewCampaignRepository(),
		contribRepo:  repository.NewContributionRepository(),
		settingsRepo: repository.NewSettingsRepository(),
	}

	if admin != "" {
		if err := p.settingsRepo.SetIfAbsent(p.db, adminSettingKey, normalizeIdentity(admin)); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *Postgres) TotalCampaigns(ctx context.Context) (uint64, error) {
	return p.campaignRepo.CountCampaigns(p.db)
}

func (p *Postgres) CampaignDetails(ctx context.Context, id uint64) (model.Snapshot, error) {
	c, err := p.campaignRepo.GetCampaign(p.db, id)
	if err != nil {
		return model.Snapshot{}, translate(err)
	}
	if err := c.Validate(); err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	return c, nil
}

func (p *Postgres) UserContribution(ctx context.Context, id uint64, identity string) (decimal.Decimal, error) {
	return p.contribRepo.GetContribution(p.db, id, normalizeIdentity(identity))
}

func (p *Postgres) Admin(ctx context.Context) (string, error) {
	return p.settingsRepo.Get(p.db, adminSettingKey)
}

func (p *Postgres) CreateFunding(ctx context.Context, from, title, description string, target decimal.Decimal, durationDays uint64) (uint64, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Ids must stay 1..count with no gaps, so allocation is serialised
	// instead of drawn from a sequence.
	if err := p.campaignRepo.LockCampaigns(tx); err != nil {
		return 0, err
	}
	id, err := p.campaignRepo.NextCampaignID(tx)
	if err != nil {
		return 0, err
	}

	c, err := newCampaign(id, from, title, description, target, durationDays, p.now())
	if err != nil {
		return 0, err
	}
	if err := p.campaignRepo.CreateCampaign(tx, &c); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return c.ID, nil
}

func (p *Postgres) Contribute(ctx context.Context, from string, id uint64, value decimal.Decimal) error {
	return p.inTx(ctx, id, func(tx *sqlx.Tx, c model.Snapshot) (model.Snapshot, error) {
		next, err := applyContribute(c, value, p.now())
		if err != nil {
			return c, err
		}
		if err := p.contribRepo.AddContribution(tx, id, normalizeIdentity(from), value.Floor()); err != nil {
			return c, err
		}
		return next, nil
	})
}

func (p *Postgres) WithdrawFunds(ctx context.Context, from string, id uint64) error {
	return p.inTx(ctx, id, func(_ *sqlx.Tx, c model.Snapshot) (model.Snapshot, error) {
		return applyWithdraw(c, from)
	})
}

func (p *Postgres) ClaimRefund(ctx context.Context, from string, id uint64) error {
	who := normalizeIdentity(from)
	return p.inTx(ctx, id, func(tx *sqlx.Tx, c model.Snapshot) (model.Snapshot, error) {
		contribution, err := p.contribRepo.GetContribution(tx, id, who)
		if err != nil {
			return c, err
		}
		next, err := applyRefund(c, contribution, p.now())
		if err != nil {
			return c, err
		}
		if err := p.contribRepo.ClearContribution(tx, id, who); err != nil {
			return c, err
		}
		return next, nil
	})
}

func (p *Postgres) VerifyFunding(ctx context.Context, from string, id uint64) error {
	admin, err := p.Admin(ctx)
	if err != nil {
		return err
	}
	return p.inTx(ctx, id, func(_ *sqlx.Tx, c model.Snapshot) (model.Snapshot, error) {
		return applyVerify(c, from, admin)
	})
}

func (p *Postgres) CancelCampaign(ctx context.Context, from string, id uint64) error {
	admin, err := p.Admin(ctx)
	if err != nil {
		return err
	}
	return p.inTx(ctx, id, func(_ *sqlx.Tx, c model.Snapshot) (model.Snapshot, error) {
		return applyCancel(c, from, admin)
	})
}

// inTx locks the campaign row, applies fn and persists the successor state.
// A rule violation rolls the transaction back.
func (p *Postgres) inTx(ctx context.Context, id uint64, fn func(*sqlx.Tx, model.Snapshot) (model.Snapshot, error)) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	c, err := p.campaignRepo.GetCampaignForUpdate(tx, id)
	if err != nil {
		return translate(err)
	}

	next, err := fn(tx, c)
	if err != nil {
		return err
	}

	if err := p.campaignRepo.SaveState(tx, next); err != nil {
		return translate(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, repository.ErrCampaignNotFound) {
		return ErrCampaignNotFound
	}
	return err
}
