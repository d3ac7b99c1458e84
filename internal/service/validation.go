package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/kkkkikiki/flowfund/internal/api"
	"github.com/kkkkikiki/flowfund/internal/codec"
)

const defaultDurationDays = 30

// createInput is a create request after trimming and amount conversion.
// Field order is the order failures are reported in.
type createInput struct {
	Title        string          `validate:"required"`
	Description  string          `validate:"required"`
	Target       decimal.Decimal `validate:"positive_decimal"`
	DurationDays int64           `validate:"gt=0"`
}

var createMessages = map[string]string{
	"Title":        "Title is required",
	"Description":  "Description is required",
	"Target":       "Target amount must be greater than 0",
	"DurationDays": "Duration must be greater than 0 days",
}

const msgEmptyContribution = "Please enter an amount to contribute."

func newValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.RegisterValidation("positive_decimal", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		return ok && d.IsPositive()
	}); err != nil {
		return nil, fmt.Errorf("failed to register 'positive_decimal': %w", err)
	}

	return v, nil
}

// validateCreate converts and checks a create request. It returns the
// message for the first failing field, or "" when the input is valid.
func validateCreate(v *validator.Validate, msg *api.CreateCampaignRequest) (createInput, string, error) {
	in := createInput{
		Title:        strings.TrimSpace(msg.Title),
		Description:  strings.TrimSpace(msg.Description),
		Target:       codec.RawAmount(msg.TargetAmount),
		DurationDays: defaultDurationDays,
	}
	if msg.DurationDays != nil {
		in.DurationDays = *msg.DurationDays
	}

	err := v.Struct(in)
	if err == nil {
		return in, "", nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		if m, ok := createMessages[fieldErrs[0].Field()]; ok {
			return in, m, nil
		}
	}
	return in, "", fmt.Errorf("failed to validate create request: %w", err)
}

// contributionAmount converts a display-unit amount. Anything that does not
// convert to a positive raw amount is refused before reaching the ledger.
func contributionAmount(amount string) (decimal.Decimal, string) {
	raw := codec.RawAmount(amount)
	if !raw.IsPositive() {
		return raw, msgEmptyContribution
	}
	return raw, ""
}
