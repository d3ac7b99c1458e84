// Package ledger defines the external funding ledger the engine reads from
// and forwards action requests to, along with the backends that implement it.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kkkkikiki/flowfund/internal/model"
)

// Reader is the read side of the funding ledger.
type Reader interface {
	TotalCampaigns(ctx context.Context) (uint64, error)
	CampaignDetails(ctx context.Context, id uint64) (model.Snapshot, error)
	UserContribution(ctx context.Context, id uint64, identity string) (decimal.Decimal, error)
	Admin(ctx context.Context) (string, error)
}

// Writer submits state-changing requests to the ledger on behalf of from.
// Each method corresponds to one lifecycle action.
type Writer interface {
	CreateFunding(ctx context.Context, from, title, description string, target decimal.Decimal, durationDays uint64) (uint64, error)
	Contribute(ctx context.Context, from string, id uint64, value decimal.Decimal) error
	WithdrawFunds(ctx context.Context, from string, id uint64) error
	ClaimRefund(ctx context.Context, from string, id uint64) error
	VerifyFunding(ctx context.Context, from string, id uint64) error
	CancelCampaign(ctx context.Context, from string, id uint64) error
}

// Ledger is a backend that can both read and write.
type Ledger interface {
	Reader
	Writer
}
