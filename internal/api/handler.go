package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
)

// CampaignServiceName is the fully-qualified name of the CampaignService.
const CampaignServiceName = "flowfund.v1.CampaignService"

// Procedure paths for each CampaignService RPC.
const (
	CampaignServiceListCampaignsProcedure        = "/flowfund.v1.CampaignService/ListCampaigns"
	CampaignServiceListPendingCampaignsProcedure = "/flowfund.v1.CampaignService/ListPendingCampaigns"
	CampaignServiceGetCampaignProcedure          = "/flowfund.v1.CampaignService/GetCampaign"
	CampaignServiceGetLedgerInfoProcedure        = "/flowfund.v1.CampaignService/GetLedgerInfo"
	CampaignServiceCreateCampaignProcedure       = "/flowfund.v1.CampaignService/CreateCampaign"
	CampaignServiceContributeProcedure           = "/flowfund.v1.CampaignService/Contribute"
	CampaignServiceWithdrawFundsProcedure        = "/flowfund.v1.CampaignService/WithdrawFunds"
	CampaignServiceClaimRefundProcedure          = "/flowfund.v1.CampaignService/ClaimRefund"
	CampaignServiceVerifyCampaignProcedure       = "/flowfund.v1.CampaignService/VerifyCampaign"
	CampaignServiceCancelCampaignProcedure       = "/flowfund.v1.CampaignService/CancelCampaign"
)

// CampaignServiceHandler is implemented by the campaign service.
type CampaignServiceHandler interface {
	ListCampaigns(context.Context, *connect.Request[ListCampaignsRequest]) (*connect.Response[ListCampaignsResponse], error)
	ListPendingCampaigns(context.Context, *connect.Request[ListPendingCampaignsRequest]) (*connect.Response[ListCampaignsResponse], error)
	GetCampaign(context.Context, *connect.Request[GetCampaignRequest]) (*connect.Response[GetCampaignResponse], error)
	GetLedgerInfo(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[LedgerInfo], error)
	CreateCampaign(context.Context, *connect.Request[CreateCampaignRequest]) (*connect.Response[ActionResponse], error)
	Contribute(context.Context, *connect.Request[ContributeRequest]) (*connect.Response[ActionResponse], error)
	WithdrawFunds(context.Context, *connect.Request[CampaignActionRequest]) (*connect.Response[ActionResponse], error)
	ClaimRefund(context.Context, *connect.Request[CampaignActionRequest]) (*connect.Response[ActionResponse], error)
	VerifyCampaign(context.Context, *connect.Request[CampaignActionRequest]) (*connect.Response[ActionResponse], error)
	CancelCampaign(context.Context, *connect.Request[CampaignActionRequest]) (*connect.Response[ActionResponse], error)
}

// NewCampaignServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewCampaignServiceHandler(svc CampaignServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	handlers := map[string]http.Handler{
		CampaignServiceListCampaignsProcedure:        connect.NewUnaryHandler(CampaignServiceListCampaignsProcedure, svc.ListCampaigns, opts...),
		CampaignServiceListPendingCampaignsProcedure: connect.NewUnaryHandler(CampaignServiceListPendingCampaignsProcedure, svc.ListPendingCampaigns, opts...),
		CampaignServiceGetCampaignProcedure:          connect.NewUnaryHandler(CampaignServiceGetCampaignProcedure, svc.GetCampaign, opts...),
		CampaignServiceGetLedgerInfoProcedure:        connect.NewUnaryHandler(CampaignServiceGetLedgerInfoProcedure, svc.GetLedgerInfo, opts...),
		CampaignServiceCreateCampaignProcedure:       connect.NewUnaryHandler(CampaignServiceCreateCampaignProcedure, svc.CreateCampaign, opts...),
		CampaignServiceContributeProcedure:           connect.NewUnaryHandler(CampaignServiceContributeProcedure, svc.Contribute, opts...),
		CampaignServiceWithdrawFundsProcedure:        connect.NewUnaryHandler(CampaignServiceWithdrawFundsProcedure, svc.WithdrawFunds, opts...),
		CampaignServiceClaimRefundProcedure:          connect.NewUnaryHandler(CampaignServiceClaimRefundProcedure, svc.ClaimRefund, opts...),
		CampaignServiceVerifyCampaignProcedure:       connect.NewUnaryHandler(CampaignServiceVerifyCampaignProcedure, svc.VerifyCampaign, opts...),
		CampaignServiceCancelCampaignProcedure:       connect.NewUnaryHandler(CampaignServiceCancelCampaignProcedure, svc.CancelCampaign, opts...),
	}

	return "/" + CampaignServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
