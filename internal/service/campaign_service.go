package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/kkkkikiki/flowfund/internal/aggregator"
	"github.com/kkkkikiki/flowfund/internal/api"
	"github.com/kkkkikiki/flowfund/internal/codec"
	"github.com/kkkkikiki/flowfund/internal/inflight"
	"github.com/kkkkikiki/flowfund/internal/ledger"
	"github.com/kkkkikiki/flowfund/internal/view"
)

// CampaignServer implements the campaign service
type CampaignServer struct {
	reader     ledger.Reader
	writer     ledger.Writer
	agg        *aggregator.Aggregator
	collection *aggregator.Collection
	guard      inflight.Guard
	validate   *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a CampaignServer
type Option func(*CampaignServer)

// WithClock overrides the time source used for eligibility
func WithClock(now func() time.Time) Option {
	return func(s *CampaignServer) { s.now = now }
}

// NewCampaignServer creates a new CampaignServer instance
func NewCampaignServer(
	reader ledger.Reader,
	writer ledger.Writer,
	agg *aggregator.Aggregator,
	collection *aggregator.Collection,
	guard inflight.Guard,
	logger *zap.Logger,
	opts ...Option,
) (*CampaignServer, error) {
	validate, err := newValidator()
	if err != nil {
		return nil, err
	}

	s := &CampaignServer{
		reader:     reader,
		writer:     writer,
		agg:        agg,
		collection: collection,
		guard:      guard,
		validate:   validate,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

var _ api.CampaignServiceHandler = (*CampaignServer)(nil)

// ListCampaigns returns the current collection filtered by stage
func (s *CampaignServer) ListCampaigns(
	ctx context.Context,
	req *connect.Request[api.ListCampaignsRequest],
) (*connect.Response[api.ListCampaignsResponse], error) {
	filter := req.Msg.Filter
	if filter == "" {
		filter = string(aggregator.StageAll)
	}
	stage, err := aggregator.ParseStage(filter)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	viewer, err := s.viewer(ctx, req.Msg.Viewer)
	if err != nil {
		return nil, err
	}

	snapshots := s.collection.Snapshots
	if req.Msg.Refresh {
		snapshots = s.collection.Refresh
	}
	all, err := snapshots(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, fmt.Errorf("failed to load campaigns: %w", err))
	}

	records := view.EnrichAll(aggregator.FilterByStage(all, stage), viewer, s.now())
	return connect.NewResponse(&api.ListCampaignsResponse{Campaigns: toCampaigns(records)}), nil
}

// ListPendingCampaigns returns campaigns awaiting verification. Only the
// ledger admin may see the queue.
func (s *CampaignServer) ListPendingCampaigns(
	ctx context.Context,
	req *connect.Request[api.ListPendingCampaignsRequest],
) (*connect.Response[api.ListCampaignsResponse], error) {
	viewer, err := s.viewer(ctx, req.Msg.Viewer)
	if err != nil {
		return nil, err
	}
	if !viewer.Privileged {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("pending campaigns are visible to the admin only"))
	}

	total, err := s.reader.TotalCampaigns(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, fmt.Errorf("failed to count campaigns: %w", err))
	}

	pending, err := s.agg.CollectPending(ctx, aggregator.CampaignIDs(total), s.reader.CampaignDetails)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, fmt.Errorf("failed to collect pending campaigns: %w", err))
	}

	records := view.EnrichAll(pending, viewer, s.now())
	return connect.NewResponse(&api.ListCampaignsResponse{Campaigns: toCampaigns(records)}), nil
}

// GetCampaign returns one freshly read campaign with the viewer's contribution
func (s *CampaignServer) GetCampaign(
	ctx context.Context,
	req *connect.Request[api.GetCampaignRequest],
) (*connect.Response[api.GetCampaignResponse], error) {
	if req.Msg.ID == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("campaign id is required"))
	}

	viewer, err := s.viewer(ctx, req.Msg.Viewer)
	if err != nil {
		return nil, err
	}

	record, err := s.load(ctx, req.Msg.ID, viewer)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&api.GetCampaignResponse{Campaign: toCampaign(record)}), nil
}

// GetLedgerInfo returns the ledger admin and campaign count
func (s *CampaignServer) GetLedgerInfo(
	ctx context.Context,
	_ *connect.Request[emptypb.Empty],
) (*connect.Response[api.LedgerInfo], error) {
	admin, err := s.reader.Admin(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, fmt.Errorf("failed to read admin: %w", err))
	}
	total, err := s.reader.TotalCampaigns(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, fmt.Errorf("failed to count campaigns: %w", err))
	}

	return connect.NewResponse(&api.LedgerInfo{Admin: admin, TotalCampaigns: total}), nil
}

// viewer resolves the identity's privilege. Anonymous viewers skip the
// admin lookup.
func (s *CampaignServer) viewer(ctx context.Context, identity string) (view.Viewer, error) {
	if identity == "" {
		return view.Viewer{}, nil
	}
	admin, err := s.reader.Admin(ctx)
	if err != nil {
		return view.Viewer{}, connect.NewError(connect.CodeUnavailable, fmt.Errorf("failed to read admin: %w", err))
	}
	return view.NewViewer(identity, admin), nil
}

// load reads a fresh snapshot and, for a connected viewer, their
// contribution, and enriches them at the current time.
func (s *CampaignServer) load(ctx context.Context, id uint64, viewer view.Viewer) (view.Record, error) {
	snapshot, err := s.reader.CampaignDetails(ctx, id)
	if err != nil {
		if errors.Is(err, ledger.ErrCampaignNotFound) {
			return view.Record{}, connect.NewError(connect.CodeNotFound, err)
		}
		return view.Record{}, connect.NewError(connect.CodeUnavailable, fmt.Errorf("failed to read campaign %d: %w", id, err))
	}

	if viewer.Identity == "" {
		return view.Enrich(snapshot, viewer, nil, s.now()), nil
	}

	contribution, err := s.reader.UserContribution(ctx, id, viewer.Identity)
	if err != nil {
		return view.Record{}, connect.NewError(connect.CodeUnavailable, fmt.Errorf("failed to read contribution to campaign %d: %w", id, err))
	}
	return view.Enrich(snapshot, viewer, &contribution, s.now()), nil
}

func toCampaigns(records []view.Record) []api.Campaign {
	out := make([]api.Campaign, 0, len(records))
	for _, r := range records {
		out = append(out, toCampaign(r))
	}
	return out
}

func toCampaign(r view.Record) api.Campaign {
	s, d, e := r.Snapshot, r.Display, r.Eligibility
	return api.Campaign{
		ID:            s.ID,
		Owner:         s.Owner,
		OwnerShort:    d.Owner,
		Title:         s.Title,
		Description:   s.Description,
		TargetAmount:  codec.RawString(s.TargetAmount),
		CurrentAmount: codec.RawString(s.CurrentAmount),
		Deadline:      s.Deadline,
		Status:        uint8(s.Status),
		IsVerified:    s.IsVerified,
		Display: api.Display{
			TargetAmount:  d.TargetAmount,
			CurrentAmount: d.CurrentAmount,
			Progress:      d.Progress,
			TimeRemaining: d.TimeRemaining,
			Status:        d.Status,
			IsOwner:       d.IsOwner,
		},
		Eligibility: api.Eligibility{
			CanContribute:  e.CanContribute,
			CanWithdraw:    e.CanWithdraw,
			CanRefund:      e.CanRefund,
			CanVerify:      e.CanVerify,
			CanCancel:      e.CanCancel,
			CanClaimRefund: e.RefundVisible(),
		},
		ViewerContribution: d.ViewerContribution,
	}
}
