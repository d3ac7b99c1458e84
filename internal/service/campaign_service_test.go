package service

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/kkkkikiki/flowfund/internal/aggregator"
	"github.com/kkkkikiki/flowfund/internal/api"
	"github.com/kkkkikiki/flowfund/internal/inflight"
	"github.com/kkkkikiki/flowfund/internal/ledger"
)

const (
	admin  = "0xAD00000000000000000000000000000000000001"
	owner  = "0x0000000000000000000000000000000000000A11"
	backer = "0x0000000000000000000000000000000000000B22"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	server *CampaignServer
	ledger *ledger.Memory
	guard  *inflight.Memory
	clock  *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithWriter(t, nil)
}

// newFixtureWithWriter lets a test intercept writes. A nil writer uses the
// memory ledger directly.
func newFixtureWithWriter(t *testing.T, wrap func(*ledger.Memory) ledger.Writer) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	mem := ledger.NewMemory(admin, ledger.WithClock(c.Now))

	var writer ledger.Writer = mem
	if wrap != nil {
		writer = wrap(mem)
	}

	agg := aggregator.New(logger, 2)
	guard := inflight.NewMemory()
	srv, err := NewCampaignServer(mem, writer, agg, aggregator.NewCollection(mem, agg, logger), guard, logger, WithClock(c.Now))
	require.NoError(t, err)

	return &fixture{server: srv, ledger: mem, guard: guard, clock: c}
}

func eth(n string) decimal.Decimal {
	return decimal.RequireFromString(n).Shift(18)
}

// activeCampaign creates and verifies a campaign directly on the ledger.
func (f *fixture) activeCampaign(t *testing.T, target string, days uint64) uint64 {
	t.Helper()
	ctx := context.Background()
	id, err := f.ledger.CreateFunding(ctx, owner, "Solar roof", "Panels for the school", eth(target), days)
	require.NoError(t, err)
	require.NoError(t, f.ledger.VerifyFunding(ctx, admin, id))
	return id
}

func (f *fixture) list(t *testing.T, viewer, filter string, refresh bool) []api.Campaign {
	t.Helper()
	res, err := f.server.ListCampaigns(context.Background(), connect.NewRequest(&api.ListCampaignsRequest{
		Viewer: viewer, Filter: filter, Refresh: refresh,
	}))
	require.NoError(t, err)
	return res.Msg.Campaigns
}

func TestListCampaigns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	short := f.activeCampaign(t, "1", 1)
	long := f.activeCampaign(t, "2", 10)
	cancelled := f.activeCampaign(t, "3", 5)
	require.NoError(t, f.ledger.CancelCampaign(ctx, admin, cancelled))

	all := f.list(t, "", "", true)
	require.Len(t, all, 3)
	assert.Equal(t, []uint64{long, cancelled, short}, []uint64{all[0].ID, all[1].ID, all[2].ID})

	active := f.list(t, owner, "active", false)
	require.Len(t, active, 2)
	assert.True(t, active[0].Display.IsOwner)
	assert.True(t, active[0].Eligibility.CanContribute)
	assert.Equal(t, "2.0000", active[0].Display.TargetAmount)
	assert.Equal(t, "2000000000000000000", active[0].TargetAmount)
	assert.Equal(t, "in 10 days", active[0].Display.TimeRemaining)
	assert.Equal(t, "0x0000...0a11", active[0].OwnerShort)

	failed := f.list(t, admin, "failed", false)
	require.Len(t, failed, 1)
	assert.Equal(t, cancelled, failed[0].ID)
	assert.Equal(t, "Cancelled", failed[0].Display.Status)
	assert.True(t, failed[0].Eligibility.CanRefund)
	assert.False(t, failed[0].Eligibility.CanClaimRefund, "list views carry no contribution")
	assert.Empty(t, failed[0].ViewerContribution)
}

func TestListCampaigns_UnknownFilter(t *testing.T) {
	f := newFixture(t)

	_, err := f.server.ListCampaigns(context.Background(), connect.NewRequest(&api.ListCampaignsRequest{Filter: "archived"}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestListCampaigns_ServesCachedCollection(t *testing.T) {
	f := newFixture(t)
	f.activeCampaign(t, "1", 3)
	require.Len(t, f.list(t, "", "", false), 1)

	f.activeCampaign(t, "1", 3)
	assert.Len(t, f.list(t, "", "", false), 1)
	assert.Len(t, f.list(t, "", "", true), 2)
}

func TestListPendingCampaigns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.activeCampaign(t, "1", 3)
	pendingID, err := f.ledger.CreateFunding(ctx, owner, "Well", "Clean water", eth("5"), 7)
	require.NoError(t, err)

	_, err = f.server.ListPendingCampaigns(ctx, connect.NewRequest(&api.ListPendingCampaignsRequest{Viewer: owner}))
	require.Error(t, err)
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	res, err := f.server.ListPendingCampaigns(ctx, connect.NewRequest(&api.ListPendingCampaignsRequest{Viewer: admin}))
	require.NoError(t, err)
	require.Len(t, res.Msg.Campaigns, 1)
	assert.Equal(t, pendingID, res.Msg.Campaigns[0].ID)
	assert.True(t, res.Msg.Campaigns[0].Eligibility.CanVerify)
	assert.True(t, res.Msg.Campaigns[0].Eligibility.CanCancel)
}

func TestGetCampaign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.activeCampaign(t, "2", 1)
	require.NoError(t, f.ledger.Contribute(ctx, backer, id, eth("0.5")))

	res, err := f.server.GetCampaign(ctx, connect.NewRequest(&api.GetCampaignRequest{ID: id, Viewer: backer}))
	require.NoError(t, err)
	c := res.Msg.Campaign
	assert.Equal(t, "0.5000", c.ViewerContribution)
	assert.Equal(t, int64(25), c.Display.Progress)
	assert.True(t, c.Eligibility.CanContribute)
	assert.False(t, c.Eligibility.CanClaimRefund)

	f.clock.Advance(48 * time.Hour)

	res, err = f.server.GetCampaign(ctx, connect.NewRequest(&api.GetCampaignRequest{ID: id, Viewer: backer}))
	require.NoError(t, err)
	c = res.Msg.Campaign
	assert.Equal(t, "Expired", c.Display.TimeRemaining)
	assert.False(t, c.Eligibility.CanContribute)
	assert.True(t, c.Eligibility.CanRefund)
	assert.True(t, c.Eligibility.CanClaimRefund)

	res, err = f.server.GetCampaign(ctx, connect.NewRequest(&api.GetCampaignRequest{ID: id, Viewer: owner}))
	require.NoError(t, err)
	assert.True(t, res.Msg.Campaign.Eligibility.CanRefund)
	assert.False(t, res.Msg.Campaign.Eligibility.CanClaimRefund)
	assert.Equal(t, "0.0000", res.Msg.Campaign.ViewerContribution)
}

func TestGetCampaign_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.server.GetCampaign(ctx, connect.NewRequest(&api.GetCampaignRequest{}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = f.server.GetCampaign(ctx, connect.NewRequest(&api.GetCampaignRequest{ID: 42}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestGetLedgerInfo(t *testing.T) {
	f := newFixture(t)
	f.activeCampaign(t, "1", 1)

	res, err := f.server.GetLedgerInfo(context.Background(), connect.NewRequest(&emptypb.Empty{}))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Msg.TotalCampaigns)
	assert.NotEmpty(t, res.Msg.Admin)
}

func TestConnectRoundTrip(t *testing.T) {
	f := newFixture(t)
	id := f.activeCampaign(t, "1", 3)

	path, handler := api.NewCampaignServiceHandler(f.server)
	assert.Equal(t, "/flowfund.v1.CampaignService/", path)

	ts := httptest.NewServer(handler)
	defer ts.Close()

	client := api.NewCampaignServiceClient(ts.Client(), ts.URL)
	ctx := context.Background()

	info, err := client.GetLedgerInfo(ctx, connect.NewRequest(&emptypb.Empty{}))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.Msg.TotalCampaigns)

	action, err := client.Contribute(ctx, connect.NewRequest(&api.ContributeRequest{Viewer: backer, CampaignID: id, Amount: "0.25"}))
	require.NoError(t, err)
	assert.True(t, action.Msg.Success)
	assert.Equal(t, "Contribution successful!", action.Msg.Message)

	list, err := client.ListCampaigns(ctx, connect.NewRequest(&api.ListCampaignsRequest{Viewer: backer}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Campaigns, 1)
	assert.Equal(t, "0.2500", list.Msg.Campaigns[0].Display.CurrentAmount)

	_, err = client.ListCampaigns(ctx, connect.NewRequest(&api.ListCampaignsRequest{Filter: "bogus"}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}
