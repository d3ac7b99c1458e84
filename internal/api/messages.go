// Package api defines the flowfund.v1.CampaignService wire messages and the
// Connect handler and client that carry them.
package api

// Campaign is one enriched campaign as seen by a viewer. Raw amounts are
// decimal strings in the ledger's smallest unit.
type Campaign struct {
	ID                 uint64      `json:"id"`
	Owner              string      `json:"owner"`
	OwnerShort         string      `json:"owner_short"`
	Title              string      `json:"title"`
	Description        string      `json:"description"`
	TargetAmount       string      `json:"target_amount"`
	CurrentAmount      string      `json:"current_amount"`
	Deadline           int64       `json:"deadline"`
	Status             uint8       `json:"status"`
	IsVerified         bool        `json:"is_verified"`
	Display            Display     `json:"display"`
	Eligibility        Eligibility `json:"eligibility"`
	ViewerContribution string      `json:"viewer_contribution,omitempty"`
}

// Display carries presentation-ready values.
type Display struct {
	TargetAmount  string `json:"target_amount"`
	CurrentAmount string `json:"current_amount"`
	Progress      int64  `json:"progress"`
	TimeRemaining string `json:"time_remaining"`
	Status        string `json:"status"`
	IsOwner       bool   `json:"is_owner"`
}

// Eligibility lists the actions the viewer may attempt.
type Eligibility struct {
	CanContribute  bool `json:"can_contribute"`
	CanWithdraw    bool `json:"can_withdraw"`
	CanRefund      bool `json:"can_refund"`
	CanVerify      bool `json:"can_verify"`
	CanCancel      bool `json:"can_cancel"`
	CanClaimRefund bool `json:"can_claim_refund"`
}

type ListCampaignsRequest struct {
	Viewer  string `json:"viewer,omitempty"`
	Filter  string `json:"filter,omitempty"`
	Refresh bool   `json:"refresh,omitempty"`
}

type ListCampaignsResponse struct {
	Campaigns []Campaign `json:"campaigns"`
}

type ListPendingCampaignsRequest struct {
	Viewer string `json:"viewer"`
}

type GetCampaignRequest struct {
	ID     uint64 `json:"id"`
	Viewer string `json:"viewer,omitempty"`
}

type GetCampaignResponse struct {
	Campaign Campaign `json:"campaign"`
}

type LedgerInfo struct {
	Admin          string `json:"admin"`
	TotalCampaigns uint64 `json:"total_campaigns"`
}

// CreateCampaignRequest takes the target as a display-unit decimal string.
// DurationDays defaults to 30 when omitted.
type CreateCampaignRequest struct {
	Viewer       string `json:"viewer"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	TargetAmount string `json:"target_amount"`
	DurationDays *int64 `json:"duration_days,omitempty"`
}

// ContributeRequest takes the amount as a display-unit decimal string.
type ContributeRequest struct {
	Viewer     string `json:"viewer"`
	CampaignID uint64 `json:"campaign_id"`
	Amount     string `json:"amount"`
}

// CampaignActionRequest is shared by withdraw, refund, verify and cancel.
type CampaignActionRequest struct {
	Viewer     string `json:"viewer"`
	CampaignID uint64 `json:"campaign_id"`
}

// ActionResponse reports the outcome of a write action. A refused or
// rejected action is not an RPC error; Message says why.
type ActionResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	CampaignID uint64 `json:"campaign_id,omitempty"`
	RequestID  string `json:"request_id"`
}
