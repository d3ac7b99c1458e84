package aggregator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kkkkikiki/flowfund/internal/ledger"
	"github.com/kkkkikiki/flowfund/internal/model"
)

const (
	admin = "0xAD00000000000000000000000000000000000001"
	owner = "0x0000000000000000000000000000000000000A11"
)

type brokenCounter struct {
	*ledger.Memory
	broken bool
}

func (b *brokenCounter) TotalCampaigns(ctx context.Context) (uint64, error) {
	if b.broken {
		return 0, errors.New("node unreachable")
	}
	return b.Memory.TotalCampaigns(ctx)
}

func newCollection(t *testing.T) (*Collection, *brokenCounter) {
	t.Helper()
	m := ledger.NewMemory(admin)
	reader := &brokenCounter{Memory: m}
	return NewCollection(reader, New(zaptest.NewLogger(t), 2), zaptest.NewLogger(t)), reader
}

func create(t *testing.T, m *ledger.Memory, days uint64) uint64 {
	t.Helper()
	id, err := m.CreateFunding(context.Background(), owner, "title", "description", decimal.NewFromInt(10), days)
	require.NoError(t, err)
	return id
}

func TestCollection_SnapshotsBuildsOnFirstUse(t *testing.T) {
	c, reader := newCollection(t)
	create(t, reader.Memory, 1)
	create(t, reader.Memory, 5)

	got, err := c.Snapshots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 1}, ids(got))
}

func TestCollection_RefreshReplacesWholeCollection(t *testing.T) {
	c, reader := newCollection(t)
	ctx := context.Background()
	id := create(t, reader.Memory, 3)

	before, err := c.Refresh(ctx)
	require.NoError(t, err)
	require.NoError(t, reader.VerifyFunding(ctx, admin, id))
	create(t, reader.Memory, 1)

	stale, err := c.Snapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, stale, 1, "no rebuild yet")

	after, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.Len(t, after, 2)
	assert.Equal(t, "Pending", before[0].Status.String(), "earlier slices are never patched")
	assert.Equal(t, "Active", after[0].Status.String())
}

func TestCollection_FailedRefreshKeepsPreviousState(t *testing.T) {
	c, reader := newCollection(t)
	ctx := context.Background()
	create(t, reader.Memory, 3)

	_, err := c.Refresh(ctx)
	require.NoError(t, err)

	reader.broken = true
	_, err = c.Refresh(ctx)
	assert.Error(t, err)

	got, err := c.Snapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCollection_Run(t *testing.T) {
	c, reader := newCollection(t)
	create(t, reader.Memory, 3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		p := c.current.Load()
		return p != nil && len(p.snapshots) == 1
	}, time.Second, 5*time.Millisecond)

	create(t, reader.Memory, 4)
	assert.Eventually(t, func() bool {
		p := c.current.Load()
		return p != nil && len(p.snapshots) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

// stalledReader reads the first snapshot normally, then holds it back until
// released, so the rebuild that made the read finishes with old state.
type stalledReader struct {
	*ledger.Memory
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (r *stalledReader) CampaignDetails(ctx context.Context, id uint64) (model.Snapshot, error) {
	s, err := r.Memory.CampaignDetails(ctx, id)
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.read)
		<-r.release
	}
	return s, err
}

func TestCollection_RefreshAfterWriteIsNotMergedIntoEarlierRebuild(t *testing.T) {
	ctx := context.Background()
	m := ledger.NewMemory(admin)
	id := create(t, m, 3)

	reader := &stalledReader{Memory: m, read: make(chan struct{}), release: make(chan struct{})}
	c := NewCollection(reader, New(zaptest.NewLogger(t), 2), zaptest.NewLogger(t))

	type result struct {
		snapshots []model.Snapshot
		err       error
	}
	earlier := make(chan result, 1)
	go func() {
		s, err := c.Refresh(ctx)
		earlier <- result{s, err}
	}()
	<-reader.read

	require.NoError(t, m.VerifyFunding(ctx, admin, id))

	after, err := c.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, model.StatusActive, after[0].Status)

	close(reader.release)
	old := <-earlier
	require.NoError(t, old.err)
	assert.Equal(t, model.StatusPending, old.snapshots[0].Status)

	got, err := c.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.StatusActive, got[0].Status, "an older rebuild must not replace a newer one")
}

func TestCollection_RefreshIgnoresOtherCallersCancellation(t *testing.T) {
	ctx := context.Background()
	m := ledger.NewMemory(admin)
	create(t, m, 3)

	reader := &stalledReader{Memory: m, read: make(chan struct{}), release: make(chan struct{})}
	c := NewCollection(reader, New(zaptest.NewLogger(t), 2), zaptest.NewLogger(t))

	cancelled, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		c.Refresh(cancelled)
		close(done)
	}()
	<-reader.read
	cancel()

	got, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	close(reader.release)
	<-done
}
