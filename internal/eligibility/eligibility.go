// Package eligibility decides which lifecycle actions a viewer may request
// for a campaign snapshot at a given time.
//
// Every predicate is conservative: when the ledger could reject an action,
// the action is reported as not eligible.
package eligibility

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kkkkikiki/flowfund/internal/model"
)

var (
	hundred     = decimal.NewFromInt(100)
	maxProgress = decimal.NewFromInt(math.MaxInt64)
)

// Input is everything Evaluate looks at. Viewer is empty when no wallet is
// connected. Contribution is nil when the viewer's contribution is unknown.
type Input struct {
	Snapshot     model.Snapshot
	Viewer       string
	Privileged   bool
	Contribution *decimal.Decimal
	Now          time.Time
}

// Eligibility holds the independently computed action flags. Several flags
// may be true at once.
//
// CanRefund does not look at the viewer's contribution; HasContribution is
// the separate guard a refund request must also pass.
type Eligibility struct {
	Progress        int64
	IsOwner         bool
	CanContribute   bool
	CanWithdraw     bool
	CanRefund       bool
	CanVerify       bool
	CanCancel       bool
	HasContribution bool
}

// Evaluate computes the eligibility of every action. It never fails and has
// no side effects; results must not be cached across changes of Now, viewer
// or snapshot.
func Evaluate(in Input) Eligibility {
	s := in.Snapshot
	now := in.Now.Unix()
	hasViewer := in.Viewer != ""

	e := Eligibility{
		Progress:        Progress(s.CurrentAmount, s.TargetAmount),
		IsOwner:         IsOwner(in.Viewer, s.Owner),
		HasContribution: HasRefundableContribution(in.Contribution),
	}

	switch s.Status {
	case model.StatusPending:
		e.CanVerify = in.Privileged
		e.CanCancel = in.Privileged
	case model.StatusActive:
		open := s.Deadline > now
		e.CanContribute = open
		e.CanWithdraw = e.IsOwner && s.TargetReached()
		e.CanRefund = !open && !s.TargetReached()
		e.CanCancel = in.Privileged
	case model.StatusCancelled:
		e.CanRefund = hasViewer
	case model.StatusSuccessful, model.StatusFailed:
	default:
		panic(fmt.Sprintf("eligibility: unhandled funding status %d", uint8(s.Status)))
	}

	return e
}

// Progress returns floor(current*100/target), or 0 when target is not positive.
// Ratios beyond int64 are clamped to math.MaxInt64.
func Progress(current, target decimal.Decimal) int64 {
	if !target.IsPositive() {
		return 0
	}
	q, _ := current.Mul(hundred).QuoRem(target, 0)
	if q.GreaterThan(maxProgress) {
		return math.MaxInt64
	}
	return q.IntPart()
}

// IsOwner compares identities case-insensitively. An absent viewer owns nothing.
func IsOwner(viewer, owner string) bool {
	return viewer != "" && strings.EqualFold(viewer, owner)
}

// IsPrivileged reports whether viewer is the ledger's administrator.
func IsPrivileged(viewer, admin string) bool {
	return viewer != "" && admin != "" && strings.EqualFold(viewer, admin)
}

// HasRefundableContribution is the call-site guard paired with CanRefund:
// a refund is only worth requesting when the viewer has something to get back.
func HasRefundableContribution(contribution *decimal.Decimal) bool {
	return contribution != nil && contribution.IsPositive()
}

// RefundVisible combines the two refund checks. They stay separate
// predicates so each can change independently.
func (e Eligibility) RefundVisible() bool {
	return e.CanRefund && e.HasContribution
}
