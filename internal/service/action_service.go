package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kkkkikiki/flowfund/internal/api"
	"github.com/kkkkikiki/flowfund/internal/eligibility"
	"github.com/kkkkikiki/flowfund/internal/inflight"
	"github.com/kkkkikiki/flowfund/internal/ledger"
	"github.com/kkkkikiki/flowfund/internal/metrics"
)

// Action names, used for in-flight keys and metric labels
const (
	actionCreate     = "create"
	actionContribute = "contribute"
	actionWithdraw   = "withdraw"
	actionRefund     = "refund"
	actionVerify     = "verify"
	actionCancel     = "cancel"
)

const (
	msgConnectWallet = "Please connect your wallet first."
	msgInProgress    = "This action is already in progress."
)

// action describes one write request. allowed is nil for actions that do
// not target an existing campaign.
type action struct {
	name     string
	id       uint64
	viewer   string
	allowed  func(eligibility.Eligibility) bool
	refusal  string
	submit   func(ctx context.Context, from string) (uint64, error)
	success  string
	validate func() string
}

// CreateCampaign submits a new campaign for admin verification
func (s *CampaignServer) CreateCampaign(
	ctx context.Context,
	req *connect.Request[api.CreateCampaignRequest],
) (*connect.Response[api.ActionResponse], error) {
	in, invalid, err := validateCreate(s.validate, req.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return s.perform(ctx, action{
		name:     actionCreate,
		viewer:   req.Msg.Viewer,
		validate: func() string { return invalid },
		submit: func(ctx context.Context, from string) (uint64, error) {
			return s.writer.CreateFunding(ctx, from, in.Title, in.Description, in.Target, uint64(in.DurationDays))
		},
		success: "Campaign created. It will be active after admin verification.",
	})
}

// Contribute adds the viewer's contribution to an active campaign
func (s *CampaignServer) Contribute(
	ctx context.Context,
	req *connect.Request[api.ContributeRequest],
) (*connect.Response[api.ActionResponse], error) {
	if req.Msg.CampaignID == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("campaign id is required"))
	}
	amount, invalid := contributionAmount(req.Msg.Amount)

	return s.perform(ctx, action{
		name:     actionContribute,
		id:       req.Msg.CampaignID,
		viewer:   req.Msg.Viewer,
		validate: func() string { return invalid },
		allowed:  func(e eligibility.Eligibility) bool { return e.CanContribute },
		refusal:  "This campaign is not accepting contributions.",
		submit: func(ctx context.Context, from string) (uint64, error) {
			return req.Msg.CampaignID, s.writer.Contribute(ctx, from, req.Msg.CampaignID, amount)
		},
		success: "Contribution successful!",
	})
}

// WithdrawFunds releases a funded campaign's balance to its owner
func (s *CampaignServer) WithdrawFunds(
	ctx context.Context,
	req *connect.Request[api.CampaignActionRequest],
) (*connect.Response[api.ActionResponse], error) {
	return s.campaignAction(ctx, req.Msg, action{
		name:    actionWithdraw,
		allowed: func(e eligibility.Eligibility) bool { return e.CanWithdraw },
		refusal: "Funds cannot be withdrawn from this campaign.",
		success: "Funds withdrawn successfully!",
	}, s.writer.WithdrawFunds)
}

// ClaimRefund returns the viewer's contribution to a failed or cancelled campaign
func (s *CampaignServer) ClaimRefund(
	ctx context.Context,
	req *connect.Request[api.CampaignActionRequest],
) (*connect.Response[api.ActionResponse], error) {
	return s.campaignAction(ctx, req.Msg, action{
		name:    actionRefund,
		allowed: eligibility.Eligibility.RefundVisible,
		refusal: "No refund is available for this campaign.",
		success: "Refund claimed successfully!",
	}, s.writer.ClaimRefund)
}

// VerifyCampaign activates a pending campaign
func (s *CampaignServer) VerifyCampaign(
	ctx context.Context,
	req *connect.Request[api.CampaignActionRequest],
) (*connect.Response[api.ActionResponse], error) {
	return s.campaignAction(ctx, req.Msg, action{
		name:    actionVerify,
		allowed: func(e eligibility.Eligibility) bool { return e.CanVerify },
		refusal: "This campaign cannot be verified.",
		success: "Campaign verified successfully!",
	}, s.writer.VerifyFunding)
}

// CancelCampaign cancels a pending or active campaign
func (s *CampaignServer) CancelCampaign(
	ctx context.Context,
	req *connect.Request[api.CampaignActionRequest],
) (*connect.Response[api.ActionResponse], error) {
	return s.campaignAction(ctx, req.Msg, action{
		name:    actionCancel,
		allowed: func(e eligibility.Eligibility) bool { return e.CanCancel },
		refusal: "This campaign cannot be cancelled.",
		success: "Campaign cancelled successfully!",
	}, s.writer.CancelCampaign)
}

func (s *CampaignServer) campaignAction(
	ctx context.Context,
	msg *api.CampaignActionRequest,
	a action,
	write func(ctx context.Context, from string, id uint64) error,
) (*connect.Response[api.ActionResponse], error) {
	if msg.CampaignID == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("campaign id is required"))
	}

	a.id = msg.CampaignID
	a.viewer = msg.Viewer
	a.submit = func(ctx context.Context, from string) (uint64, error) {
		return msg.CampaignID, write(ctx, from, msg.CampaignID)
	}
	return s.perform(ctx, a)
}

// perform runs one write action: local checks, the in-flight guard, the
// ledger call and a collection refresh. Outcomes the viewer can act on are
// reported in the response; only infrastructure failures are RPC errors.
func (s *CampaignServer) perform(ctx context.Context, a action) (*connect.Response[api.ActionResponse], error) {
	start := time.Now()
	requestID := uuid.NewString()
	logger := s.logger.With(
		zap.String("action", a.name),
		zap.Uint64("campaign_id", a.id),
		zap.String("request_id", requestID))

	respond := func(status string, success bool, message string, id uint64) (*connect.Response[api.ActionResponse], error) {
		metrics.RecordActionDuration(a.name, status, time.Since(start).Seconds())
		return connect.NewResponse(&api.ActionResponse{
			Success:    success,
			Message:    message,
			CampaignID: id,
			RequestID:  requestID,
		}), nil
	}

	if a.viewer == "" {
		return respond("invalid", false, msgConnectWallet, a.id)
	}
	if a.validate != nil {
		if msg := a.validate(); msg != "" {
			return respond("invalid", false, msg, a.id)
		}
	}

	if a.allowed != nil {
		viewer, err := s.viewer(ctx, a.viewer)
		if err != nil {
			return nil, err
		}
		record, err := s.load(ctx, a.id, viewer)
		if err != nil {
			return nil, err
		}
		if !a.allowed(record.Eligibility) {
			return respond("ineligible", false, a.refusal, a.id)
		}
	}

	release, err := s.guard.Acquire(ctx, inflight.Key(a.name, a.id, a.viewer))
	if errors.Is(err, inflight.ErrBusy) {
		return respond("busy", false, msgInProgress, a.id)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, fmt.Errorf("failed to acquire in-flight guard: %w", err))
	}
	defer release()

	id, err := a.submit(ctx, a.viewer)

	// The ledger may have changed even when the request failed.
	if _, rerr := s.collection.Refresh(ctx); rerr != nil {
		logger.Warn("campaign collection refresh after action failed", zap.Error(rerr))
	}

	if err != nil {
		logger.Info("action rejected", zap.Error(err), zap.Bool("revert", ledger.IsRevert(err)))
		return respond("rejected", false, ledger.Describe(err), a.id)
	}

	logger.Info("action succeeded", zap.Uint64("result_id", id))
	return respond("success", true, a.success, id)
}
