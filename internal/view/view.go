// Package view joins a snapshot with its display values and the viewer's
// action eligibility.
package view

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kkkkikiki/flowfund/internal/codec"
	"github.com/kkkkikiki/flowfund/internal/eligibility"
	"github.com/kkkkikiki/flowfund/internal/model"
)

// Viewer is the identity looking at a campaign. Identity is empty when no
// wallet is connected.
type Viewer struct {
	Identity   string
	Privileged bool
}

// NewViewer resolves privilege by comparing identity with the ledger admin.
func NewViewer(identity, admin string) Viewer {
	return Viewer{Identity: identity, Privileged: eligibility.IsPrivileged(identity, admin)}
}

// Display holds presentation-ready values.
type Display struct {
	TargetAmount       string
	CurrentAmount      string
	Progress           int64
	TimeRemaining      string
	Owner              string
	Status             string
	IsOwner            bool
	ViewerContribution string // empty when unknown
}

// Record is one enriched campaign.
type Record struct {
	Snapshot    model.Snapshot
	Display     Display
	Eligibility eligibility.Eligibility
}

// Enrich computes the record for one snapshot at now. contribution may be nil.
func Enrich(s model.Snapshot, viewer Viewer, contribution *decimal.Decimal, now time.Time) Record {
	e := eligibility.Evaluate(eligibility.Input{
		Snapshot:     s,
		Viewer:       viewer.Identity,
		Privileged:   viewer.Privileged,
		Contribution: contribution,
		Now:          now,
	})

	d := Display{
		TargetAmount:  codec.DisplayAmount(s.TargetAmount),
		CurrentAmount: codec.DisplayAmount(s.CurrentAmount),
		Progress:      e.Progress,
		TimeRemaining: codec.TimeRemaining(s.Deadline, now),
		Owner:         codec.FormatIdentity(s.Owner),
		Status:        codec.StatusName(s.Status),
		IsOwner:       e.IsOwner,
	}
	if contribution != nil {
		d.ViewerContribution = codec.DisplayAmount(*contribution)
	}

	return Record{Snapshot: s, Display: d, Eligibility: e}
}

// EnrichAll enriches a list without per-campaign contributions.
func EnrichAll(snapshots []model.Snapshot, viewer Viewer, now time.Time) []Record {
	out := make([]Record, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, Enrich(s, viewer, nil, now))
	}
	return out
}
