package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FundingStatus is the lifecycle stage of a campaign as recorded on the ledger.
// Transitions are owned by the ledger; this package only names them.
type FundingStatus uint8

const (
	StatusPending FundingStatus = iota
	StatusActive
	StatusSuccessful
	StatusFailed
	StatusCancelled
)

// ParseStatus converts the ledger's integer encoding into a FundingStatus.
// Values outside the known enumeration are rejected so a new ledger status
// surfaces as a decoding failure instead of a silently inert campaign.
func ParseStatus(v uint8) (FundingStatus, error) {
	s := FundingStatus(v)
	if !s.Valid() {
		return 0, fmt.Errorf("unknown funding status %d", v)
	}
	return s, nil
}

// Valid reports whether s is one of the five known statuses.
func (s FundingStatus) Valid() bool {
	return s <= StatusCancelled
}

// Terminal reports whether no further transition is possible from s.
func (s FundingStatus) Terminal() bool {
	return s == StatusSuccessful || s == StatusFailed || s == StatusCancelled
}

func (s FundingStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusActive:
		return "Active"
	case StatusSuccessful:
		return "Successful"
	case StatusFailed:
		return "Failed"
	case StatusCancelled:
		return "Cancelled"
	}
	return fmt.Sprintf("FundingStatus(%d)", uint8(s))
}

// Snapshot is a point-in-time copy of one campaign's ledger fields.
// Amounts are integers in the ledger's smallest unit (10^-18 of the display unit).
// Deadline is a unix timestamp in seconds.
type Snapshot struct {
	ID            uint64          `db:"id" json:"id"`
	Owner         string          `db:"owner" json:"owner"`
	Title         string          `db:"title" json:"title"`
	Description   string          `db:"description" json:"description"`
	TargetAmount  decimal.Decimal `db:"target_amount" json:"target_amount"`
	CurrentAmount decimal.Decimal `db:"current_amount" json:"current_amount"`
	Deadline      int64           `db:"deadline" json:"deadline"`
	Status        FundingStatus   `db:"status" json:"status"`
	IsVerified    bool            `db:"is_verified" json:"is_verified"`
}

// Validate checks the invariants a ledger-observed snapshot must satisfy.
func (s Snapshot) Validate() error {
	if s.ID == 0 {
		return fmt.Errorf("campaign id must be positive")
	}
	if !s.Status.Valid() {
		return fmt.Errorf("campaign %d: unknown funding status %d", s.ID, uint8(s.Status))
	}
	if !s.TargetAmount.IsPositive() {
		return fmt.Errorf("campaign %d: target amount must be positive", s.ID)
	}
	if s.CurrentAmount.IsNegative() {
		return fmt.Errorf("campaign %d: current amount must not be negative", s.ID)
	}
	return nil
}

// DeadlineTime returns the deadline as a time.Time.
func (s Snapshot) DeadlineTime() time.Time {
	return time.Unix(s.Deadline, 0)
}

// Expired reports whether the deadline is at or before now.
func (s Snapshot) Expired(now time.Time) bool {
	return s.Deadline <= now.Unix()
}

// TargetReached reports whether contributions cover the target.
func (s Snapshot) TargetReached() bool {
	return s.CurrentAmount.GreaterThanOrEqual(s.TargetAmount)
}

// Contribution is the amount one identity has contributed to one campaign.
type Contribution struct {
	CampaignID  uint64          `db:"campaign_id" json:"campaign_id"`
	Contributor string          `db:"contributor" json:"contributor"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
}
