package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkkkikiki/flowfund/internal/model"
)

const (
	testAdmin   = "0xAD00000000000000000000000000000000000001"
	testOwner   = "0x0000000000000000000000000000000000000A11"
	testBacker  = "0x0000000000000000000000000000000000000B22"
	testBacker2 = "0x0000000000000000000000000000000000000C33"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLedger(t *testing.T) (*Memory, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	return NewMemory(testAdmin, WithClock(clock.Now)), clock
}

func createActive(t *testing.T, m *Memory, target int64, days uint64) uint64 {
	t.Helper()
	ctx := context.Background()
	id, err := m.CreateFunding(ctx, testOwner, "Solar roof", "Panels for the school", decimal.NewFromInt(target), days)
	require.NoError(t, err)
	require.NoError(t, m.VerifyFunding(ctx, testAdmin, id))
	return id
}

func TestMemory_CreateFunding(t *testing.T) {
	m, clock := newTestLedger(t)
	ctx := context.Background()

	id, err := m.CreateFunding(ctx, testOwner, "Title", "Description", decimal.NewFromInt(100), 30)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	s, err := m.CampaignDetails(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, s.Status)
	assert.Equal(t, clock.now.Unix()+30*86400, s.Deadline)
	assert.True(t, s.CurrentAmount.IsZero())
	assert.False(t, s.IsVerified)
	assert.Equal(t, "0x0000000000000000000000000000000000000a11", s.Owner)

	total, err := m.TotalCampaigns(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
}

func TestMemory_CreateFundingRejectsInvalidInput(t *testing.T) {
	m, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := m.CreateFunding(ctx, testOwner, " ", "d", decimal.NewFromInt(1), 1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = m.CreateFunding(ctx, testOwner, "t", "d", decimal.Zero, 1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = m.CreateFunding(ctx, testOwner, "t", "d", decimal.NewFromInt(1), 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	total, err := m.TotalCampaigns(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestMemory_VerifyFunding(t *testing.T) {
	m, _ := newTestLedger(t)
	ctx := context.Background()
	id, err := m.CreateFunding(ctx, testOwner, "t", "d", decimal.NewFromInt(10), 1)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Contribute(ctx, testBacker, id, decimal.NewFromInt(1)), ErrFundingNotVerified)
	assert.ErrorIs(t, m.VerifyFunding(ctx, testOwner, id), ErrUnauthorized)
	require.NoError(t, m.VerifyFunding(ctx, "0xad00000000000000000000000000000000000001", id))
	assert.ErrorIs(t, m.VerifyFunding(ctx, testAdmin, id), ErrFundingNotActive)

	s, err := m.CampaignDetails(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, s.Status)
	assert.True(t, s.IsVerified)
}

func TestMemory_SuccessfulCampaign(t *testing.T) {
	m, _ := newTestLedger(t)
	ctx := context.Background()
	id := createActive(t, m, 10, 7)

	assert.ErrorIs(t, m.Contribute(ctx, testBacker, id, decimal.Zero), ErrInvalidAmount)
	require.NoError(t, m.Contribute(ctx, testBacker, id, decimal.NewFromInt(4)))
	assert.ErrorIs(t, m.WithdrawFunds(ctx, testOwner, id), ErrFundingTargetNotReached)
	require.NoError(t, m.Contribute(ctx, testBacker2, id, decimal.NewFromInt(6)))

	assert.ErrorIs(t, m.WithdrawFunds(ctx, testBacker, id), ErrUnauthorized)
	require.NoError(t, m.WithdrawFunds(ctx, testOwner, id))

	s, err := m.CampaignDetails(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccessful, s.Status)
	assert.Equal(t, "10", s.CurrentAmount.String())

	assert.ErrorIs(t, m.Contribute(ctx, testBacker, id, decimal.NewFromInt(1)), ErrFundingNotActive)
	assert.ErrorIs(t, m.ClaimRefund(ctx, testBacker, id), ErrFundingNotActive)
}

func TestMemory_FailedCampaignRefund(t *testing.T) {
	m, clock := newTestLedger(t)
	ctx := context.Background()
	id := createActive(t, m, 10, 1)

	require.NoError(t, m.Contribute(ctx, testBacker, id, decimal.NewFromInt(3)))
	require.NoError(t, m.Contribute(ctx, testBacker, id, decimal.NewFromInt(2)))
	assert.ErrorIs(t, m.ClaimRefund(ctx, testBacker, id), ErrFundingStillActive)

	clock.Advance(25 * time.Hour)
	assert.ErrorIs(t, m.Contribute(ctx, testBacker, id, decimal.NewFromInt(1)), ErrFundingExpired)
	assert.ErrorIs(t, m.ClaimRefund(ctx, testBacker2, id), ErrInvalidAmount)

	contribution, err := m.UserContribution(ctx, id, testBacker)
	require.NoError(t, err)
	assert.Equal(t, "5", contribution.String())

	require.NoError(t, m.ClaimRefund(ctx, testBacker, id))

	s, err := m.CampaignDetails(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, s.Status)
	assert.True(t, s.CurrentAmount.IsZero())

	contribution, err = m.UserContribution(ctx, id, testBacker)
	require.NoError(t, err)
	assert.True(t, contribution.IsZero())
	assert.ErrorIs(t, m.ClaimRefund(ctx, testBacker, id), ErrInvalidAmount)
}

func TestMemory_CancelledCampaignRefund(t *testing.T) {
	m, _ := newTestLedger(t)
	ctx := context.Background()
	id := createActive(t, m, 10, 30)

	require.NoError(t, m.Contribute(ctx, testBacker, id, decimal.NewFromInt(4)))
	assert.ErrorIs(t, m.CancelCampaign(ctx, testOwner, id), ErrUnauthorized)
	require.NoError(t, m.CancelCampaign(ctx, testAdmin, id))
	assert.ErrorIs(t, m.CancelCampaign(ctx, testAdmin, id), ErrFundingNotActive)

	require.NoError(t, m.ClaimRefund(ctx, testBacker, id))

	s, err := m.CampaignDetails(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, s.Status)
	assert.True(t, s.CurrentAmount.IsZero())
}

func TestMemory_UnknownCampaign(t *testing.T) {
	m, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := m.CampaignDetails(ctx, 1)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
	_, err = m.CampaignDetails(ctx, 0)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
	assert.ErrorIs(t, m.WithdrawFunds(ctx, testOwner, 3), ErrCampaignNotFound)
}

func TestMemory_Seed(t *testing.T) {
	m, _ := newTestLedger(t)
	ctx := context.Background()

	m.Seed(model.Snapshot{ID: 1, Owner: testOwner, TargetAmount: decimal.NewFromInt(5), Status: model.StatusSuccessful})
	s, err := m.CampaignDetails(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccessful, s.Status)

	admin, err := m.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0xad00000000000000000000000000000000000001", admin)
}

func TestMemory_ContextCancelled(t *testing.T) {
	m, _ := newTestLedger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.TotalCampaigns(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
