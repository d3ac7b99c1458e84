package aggregator

import (
	"fmt"

	"github.com/kkkkikiki/flowfund/internal/model"
)

// Stage selects campaigns by lifecycle stage.
type Stage string

const (
	StageActive     Stage = "active"
	StageSuccessful Stage = "successful"
	StageFailed     Stage = "failed" // failed or cancelled
	StageAll        Stage = "all"
)

// ParseStage validates a stage filter received from outside the process.
func ParseStage(s string) (Stage, error) {
	switch st := Stage(s); st {
	case StageActive, StageSuccessful, StageFailed, StageAll:
		return st, nil
	}
	return "", fmt.Errorf("unknown stage filter %q", s)
}

// Matches reports whether a campaign in status belongs to the stage.
func (st Stage) Matches(status model.FundingStatus) bool {
	switch st {
	case StageActive:
		return status == model.StatusActive
	case StageSuccessful:
		return status == model.StatusSuccessful
	case StageFailed:
		return status == model.StatusFailed || status == model.StatusCancelled
	case StageAll:
		return true
	}
	panic(fmt.Sprintf("aggregator: unknown stage %q", string(st)))
}

// FilterByStage returns the snapshots in stage, preserving order. The input
// slice is not modified.
func FilterByStage(snapshots []model.Snapshot, stage Stage) []model.Snapshot {
	out := make([]model.Snapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if stage.Matches(s.Status) {
			out = append(out, s)
		}
	}
	return out
}
