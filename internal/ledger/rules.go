package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kkkkikiki/flowfund/internal/model"
)

const (
	secondsPerDay   = 86400
	maxDurationDays = 3650
)

// The functions below are the funding contract's transition rules. Each takes
// the current snapshot and returns the successor; the input is never modified.

func normalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

func sameIdentity(a, b string) bool {
	return a != "" && normalizeIdentity(a) == normalizeIdentity(b)
}

func newCampaign(id uint64, owner, title, description string, target decimal.Decimal, durationDays uint64, now time.Time) (model.Snapshot, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" {
		return model.Snapshot{}, ErrInvalidAmount
	}
	if !target.IsPositive() || durationDays == 0 || durationDays > maxDurationDays {
		return model.Snapshot{}, ErrInvalidAmount
	}
	if normalizeIdentity(owner) == "" {
		return model.Snapshot{}, ErrUnauthorized
	}

	return model.Snapshot{
		ID:            id,
		Owner:         normalizeIdentity(owner),
		Title:         title,
		Description:   description,
		TargetAmount:  target.Floor(),
		CurrentAmount: decimal.Zero,
		Deadline:      now.Unix() + int64(durationDays)*secondsPerDay,
		Status:        model.StatusPending,
	}, nil
}

func applyVerify(c model.Snapshot, from, admin string) (model.Snapshot, error) {
	if !sameIdentity(from, admin) {
		return c, ErrUnauthorized
	}
	if c.Status != model.StatusPending {
		return c, ErrFundingNotActive
	}
	c.Status = model.StatusActive
	c.IsVerified = true
	return c, nil
}

func applyContribute(c model.Snapshot, value decimal.Decimal, now time.Time) (model.Snapshot, error) {
	switch {
	case c.Status == model.StatusPending:
		return c, ErrFundingNotVerified
	case c.Status != model.StatusActive:
		return c, ErrFundingNotActive
	case c.Expired(now):
		return c, ErrFundingExpired
	case !value.Floor().IsPositive():
		return c, ErrInvalidAmount
	}
	c.CurrentAmount = c.CurrentAmount.Add(value.Floor())
	return c, nil
}

func applyWithdraw(c model.Snapshot, from string) (model.Snapshot, error) {
	if !sameIdentity(from, c.Owner) {
		return c, ErrUnauthorized
	}
	if c.Status != model.StatusActive {
		return c, ErrFundingNotActive
	}
	if !c.TargetReached() {
		return c, ErrFundingTargetNotReached
	}
	c.Status = model.StatusSuccessful
	return c, nil
}

// applyRefund settles a refund of contribution. The caller zeroes the
// contributor's record when it succeeds.
func applyRefund(c model.Snapshot, contribution decimal.Decimal, now time.Time) (model.Snapshot, error) {
	switch c.Status {
	case model.StatusCancelled, model.StatusFailed:
	case model.StatusActive:
		if !c.Expired(now) {
			return c, ErrFundingStillActive
		}
		if c.TargetReached() {
			return c, ErrFundingNotActive
		}
		c.Status = model.StatusFailed
	default:
		return c, ErrFundingNotActive
	}

	if !contribution.IsPositive() {
		return c, ErrInvalidAmount
	}

	c.CurrentAmount = c.CurrentAmount.Sub(contribution)
	if c.CurrentAmount.IsNegative() {
		c.CurrentAmount = decimal.Zero
	}
	return c, nil
}

func applyCancel(c model.Snapshot, from, admin string) (model.Snapshot, error) {
	if !sameIdentity(from, admin) {
		return c, ErrUnauthorized
	}
	if c.Status != model.StatusPending && c.Status != model.StatusActive {
		return c, ErrFundingNotActive
	}
	c.Status = model.StatusCancelled
	return c, nil
}
