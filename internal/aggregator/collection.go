package aggregator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kkkkikiki/flowfund/internal/ledger"
	"github.com/kkkkikiki/flowfund/internal/metrics"
	"github.com/kkkkikiki/flowfund/internal/model"
)

// Collection owns the current campaign list. The list is replaced as a whole
// on every Refresh and never patched in place; slices it hands out must be
// treated as read-only.
type Collection struct {
	reader  ledger.Reader
	agg     *Aggregator
	logger  *zap.Logger
	current atomic.Pointer[generation]
	started atomic.Uint64
	group   singleflight.Group
}

// generation is one rebuilt list tagged with the order its rebuild started in.
type generation struct {
	seq       uint64
	snapshots []model.Snapshot
}

// NewCollection creates an empty collection fed from reader.
func NewCollection(reader ledger.Reader, agg *Aggregator, logger *zap.Logger) *Collection {
	return &Collection{reader: reader, agg: agg, logger: logger}
}

// Refresh rebuilds the collection from the ledger and swaps it in. Every call
// reads the ledger itself, so a refresh issued after a write always observes
// that write. A rebuild that started earlier than the stored one is returned
// to its caller but never stored. On error the previous collection stays in
// place.
func (c *Collection) Refresh(ctx context.Context) ([]model.Snapshot, error) {
	seq := c.started.Add(1)
	start := time.Now()

	total, err := c.reader.TotalCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count campaigns: %w", err)
	}

	snapshots, err := c.agg.Rebuild(ctx, CampaignIDs(total), c.reader.CampaignDetails)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild campaigns: %w", err)
	}

	stored := c.store(&generation{seq: seq, snapshots: snapshots})
	metrics.RecordRebuild(time.Since(start).Seconds(), len(snapshots))
	c.logger.Debug("campaign collection rebuilt",
		zap.Uint64("total", total),
		zap.Int("fetched", len(snapshots)),
		zap.Bool("stored", stored),
		zap.Duration("took", time.Since(start)))
	return snapshots, nil
}

// store swaps next in unless a rebuild that started later is already stored.
func (c *Collection) store(next *generation) bool {
	for {
		cur := c.current.Load()
		if cur != nil && cur.seq > next.seq {
			return false
		}
		if c.current.CompareAndSwap(cur, next) {
			return true
		}
	}
}

// Snapshots returns the current collection. Concurrent callers that find it
// empty share one initial build.
func (c *Collection) Snapshots(ctx context.Context) ([]model.Snapshot, error) {
	if g := c.current.Load(); g != nil {
		return g.snapshots, nil
	}
	v, err, _ := c.group.Do("initial", func() (interface{}, error) {
		return c.Refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Snapshot), nil
}

// Run refreshes the collection immediately and then every interval until
// ctx is done.
func (c *Collection) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
			c.logger.Error("campaign collection refresh failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
