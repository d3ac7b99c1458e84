package ledger

import (
	"errors"
	"strings"
)

// RevertError is a ledger rejection carrying the contract's reason name.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	return "execution reverted: " + e.Reason
}

// Contract revert reasons.
var (
	ErrFundingNotVerified      = &RevertError{Reason: "FundingNotVerified"}
	ErrFundingNotActive        = &RevertError{Reason: "FundingNotActive"}
	ErrFundingExpired          = &RevertError{Reason: "FundingExpired"}
	ErrInvalidAmount           = &RevertError{Reason: "InvalidAmount"}
	ErrUnauthorized            = &RevertError{Reason: "Unauthorized"}
	ErrFundingTargetNotReached = &RevertError{Reason: "FundingTargetNotReached"}
	ErrFundingStillActive      = &RevertError{Reason: "FundingStillActive"}
)

var (
	// ErrUserRejected is returned when the signer declines a transaction.
	ErrUserRejected = errors.New("user rejected transaction")
	// ErrCampaignNotFound is returned for identifiers the ledger never allocated.
	ErrCampaignNotFound = errors.New("campaign not found")
	// ErrMalformedSnapshot wraps snapshots that violate the campaign
	// invariants, including statuses outside the known enumeration.
	ErrMalformedSnapshot = errors.New("malformed campaign snapshot")
)

const (
	fallbackMessage  = "An error occurred. Please try again."
	maxRawMessageLen = 100
)

var knownReasons = []struct {
	match   string
	message string
}{
	{"FundingNotVerified", "This campaign has not been verified by admin yet."},
	{"FundingNotActive", "This campaign is not active."},
	{"FundingExpired", "This campaign has expired."},
	{"InvalidAmount", "Invalid amount provided."},
	{"Unauthorized", "You are not authorized to perform this action."},
	{"FundingTargetNotReached", "Funding target has not been reached yet."},
	{"FundingStillActive", "This campaign is still active."},
	{"user rejected transaction", "Transaction was rejected by the user."},
}

// Describe turns a ledger write failure into a message fit for display.
// Known revert reasons are matched anywhere in the error text; anything else
// is shown as the first 100 characters of the raw message.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	if msg == "" {
		return fallbackMessage
	}

	for _, r := range knownReasons {
		if strings.Contains(msg, r.match) {
			return r.message
		}
	}

	runes := []rune(msg)
	if len(runes) > maxRawMessageLen {
		return string(runes[:maxRawMessageLen])
	}
	return msg
}

// IsRevert reports whether err is a ledger rejection rather than a transport failure.
func IsRevert(err error) bool {
	var revert *RevertError
	return errors.As(err, &revert) || errors.Is(err, ErrUserRejected)
}
