package api

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
)

// CampaignServiceClient is a client for flowfund.v1.CampaignService.
type CampaignServiceClient struct {
	listCampaigns        *connect.Client[ListCampaignsRequest, ListCampaignsResponse]
	listPendingCampaigns *connect.Client[ListPendingCampaignsRequest, ListCampaignsResponse]
	getCampaign          *connect.Client[GetCampaignRequest, GetCampaignResponse]
	getLedgerInfo        *connect.Client[emptypb.Empty, LedgerInfo]
	createCampaign       *connect.Client[CreateCampaignRequest, ActionResponse]
	contribute           *connect.Client[ContributeRequest, ActionResponse]
	withdrawFunds        *connect.Client[CampaignActionRequest, ActionResponse]
	claimRefund          *connect.Client[CampaignActionRequest, ActionResponse]
	verifyCampaign       *connect.Client[CampaignActionRequest, ActionResponse]
	cancelCampaign       *connect.Client[CampaignActionRequest, ActionResponse]
}

// NewCampaignServiceClient constructs a client for the service at baseURL,
// e.g. http://localhost:8080. Requests are JSON encoded.
func NewCampaignServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *CampaignServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)

	return &CampaignServiceClient{
		listCampaigns:        connect.NewClient[ListCampaignsRequest, ListCampaignsResponse](httpClient, baseURL+CampaignServiceListCampaignsProcedure, opts...),
		listPendingCampaigns: connect.NewClient[ListPendingCampaignsRequest, ListCampaignsResponse](httpClient, baseURL+CampaignServiceListPendingCampaignsProcedure, opts...),
		getCampaign:          connect.NewClient[GetCampaignRequest, GetCampaignResponse](httpClient, baseURL+CampaignServiceGetCampaignProcedure, opts...),
		getLedgerInfo:        connect.NewClient[emptypb.Empty, LedgerInfo](httpClient, baseURL+CampaignServiceGetLedgerInfoProcedure, opts...),
		createCampaign:       connect.NewClient[CreateCampaignRequest, ActionResponse](httpClient, baseURL+CampaignServiceCreateCampaignProcedure, opts...),
		contribute:           connect.NewClient[ContributeRequest, ActionResponse](httpClient, baseURL+CampaignServiceContributeProcedure, opts...),
		withdrawFunds:        connect.NewClient[CampaignActionRequest, ActionResponse](httpClient, baseURL+CampaignServiceWithdrawFundsProcedure, opts...),
		claimRefund:          connect.NewClient[CampaignActionRequest, ActionResponse](httpClient, baseURL+CampaignServiceClaimRefundProcedure, opts...),
		verifyCampaign:       connect.NewClient[CampaignActionRequest, ActionResponse](httpClient, baseURL+CampaignServiceVerifyCampaignProcedure, opts...),
		cancelCampaign:       connect.NewClient[CampaignActionRequest, ActionResponse](httpClient, baseURL+CampaignServiceCancelCampaignProcedure, opts...),
	}
}

func (c *CampaignServiceClient) ListCampaigns(ctx context.Context, req *connect.Request[ListCampaignsRequest]) (*connect.Response[ListCampaignsResponse], error) {
	return c.listCampaigns.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) ListPendingCampaigns(ctx context.Context, req *connect.Request[ListPendingCampaignsRequest]) (*connect.Response[ListCampaignsResponse], error) {
	return c.listPendingCampaigns.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) GetCampaign(ctx context.Context, req *connect.Request[GetCampaignRequest]) (*connect.Response[GetCampaignResponse], error) {
	return c.getCampaign.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) GetLedgerInfo(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[LedgerInfo], error) {
	return c.getLedgerInfo.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) CreateCampaign(ctx context.Context, req *connect.Request[CreateCampaignRequest]) (*connect.Response[ActionResponse], error) {
	return c.createCampaign.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) Contribute(ctx context.Context, req *connect.Request[ContributeRequest]) (*connect.Response[ActionResponse], error) {
	return c.contribute.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) WithdrawFunds(ctx context.Context, req *connect.Request[CampaignActionRequest]) (*connect.Response[ActionResponse], error) {
	return c.withdrawFunds.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) ClaimRefund(ctx context.Context, req *connect.Request[CampaignActionRequest]) (*connect.Response[ActionResponse], error) {
	return c.claimRefund.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) VerifyCampaign(ctx context.Context, req *connect.Request[CampaignActionRequest]) (*connect.Response[ActionResponse], error) {
	return c.verifyCampaign.CallUnary(ctx, req)
}

func (c *CampaignServiceClient) CancelCampaign(ctx context.Context, req *connect.Request[CampaignActionRequest]) (*connect.Response[ActionResponse], error) {
	return c.cancelCampaign.CallUnary(ctx, req)
}
