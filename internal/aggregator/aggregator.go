// Package aggregator assembles campaign snapshots fetched from the ledger
// into ordered, deduplicated collections.
package aggregator

import (
	"cmp"
	"context"
	"slices"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kkkkikiki/flowfund/internal/metrics"
	"github.com/kkkkikiki/flowfund/internal/model"
)

// FetchFunc reads one campaign snapshot from the ledger.
type FetchFunc func(ctx context.Context, id uint64) (model.Snapshot, error)

// Aggregator fetches snapshots for a list of campaign ids.
type Aggregator struct {
	logger      *zap.Logger
	concurrency int
}

// New creates an Aggregator that runs at most concurrency fetches at once
// during Rebuild. Values below 1 mean sequential fetching.
func New(logger *zap.Logger, concurrency int) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{logger: logger, concurrency: concurrency}
}

// CampaignIDs lists the identifiers the ledger has allocated: 1 through total.
func CampaignIDs(total uint64) []uint64 {
	ids := make([]uint64, 0, total)
	for id := uint64(1); id <= total; id++ {
		ids = append(ids, id)
	}
	return ids
}

type fetched struct {
	snapshot model.Snapshot
	seq      int64
	ok       bool
}

// Rebuild fetches every id and returns the snapshots sorted by deadline,
// furthest first, ties kept in id-sequence order. Ids whose fetch fails are
// logged and left out. Duplicate ids collapse to the most recently fetched
// snapshot. The only error returned is the context's.
func (a *Aggregator) Rebuild(ctx context.Context, ids []uint64, fetch FetchFunc) ([]model.Snapshot, error) {
	results := make([]fetched, len(ids))
	var seq atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := fetch(gctx, id)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				a.skip("rebuild", id, err)
				return nil
			}
			results[i] = fetched{snapshot: s, seq: seq.Add(1), ok: true}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := dedupe(results)
	slices.SortStableFunc(out, func(x, y model.Snapshot) int {
		return cmp.Compare(y.Deadline, x.Deadline)
	})
	return out, nil
}

// CollectPending fetches ids one at a time and keeps the Pending campaigns,
// in id-sequence order. Failed fetches are logged and skipped.
func (a *Aggregator) CollectPending(ctx context.Context, ids []uint64, fetch FetchFunc) ([]model.Snapshot, error) {
	pending := make([]model.Snapshot, 0)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := fetch(ctx, id)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			a.skip("pending", id, err)
			continue
		}
		if s.Status == model.StatusPending {
			pending = append(pending, s)
		}
	}
	return pending, nil
}

func (a *Aggregator) skip(scan string, id uint64, err error) {
	a.logger.Warn("skipping campaign snapshot",
		zap.String("scan", scan),
		zap.Uint64("campaign_id", id),
		zap.Error(err))
	metrics.RecordFetchFailure(scan)
}

func dedupe(results []fetched) []model.Snapshot {
	out := make([]model.Snapshot, 0, len(results))
	seqs := make([]int64, 0, len(results))
	index := make(map[uint64]int, len(results))

	for _, r := range results {
		if !r.ok {
			continue
		}
		if j, dup := index[r.snapshot.ID]; dup {
			if r.seq > seqs[j] {
				out[j] = r.snapshot
				seqs[j] = r.seq
			}
			continue
		}
		index[r.snapshot.ID] = len(out)
		out = append(out, r.snapshot)
		seqs = append(seqs, r.seq)
	}
	return out
}
