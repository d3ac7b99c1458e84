package codec

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkkkikiki/flowfund/internal/model"
)

func raw(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestDisplayAmount(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"one and a half", "1500000000000000000", "1.5000"},
		{"zero", "0", "0.0000"},
		{"truncates", "1999990000000000000", "1.9999"},
		{"below display precision", "99999999999999", "0.0000"},
		{"uint256 max", "115792089237316195423570985008687907853269984665640564039457584007913129639935",
			"115792089237316195423570985008687907853269984665640564039457.5840"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayAmount(raw(t, tt.raw)))
		})
	}
}

func TestRawAmount(t *testing.T) {
	assert.Equal(t, "1500000000000000000", RawString(RawAmount("1.5")))
	assert.Equal(t, "10000000000000000", RawString(RawAmount(" 0.01 ")))
	assert.True(t, RawAmount("").IsZero())
	assert.True(t, RawAmount("   ").IsZero())
	assert.True(t, RawAmount("abc").IsZero())
	assert.True(t, RawAmount("0.0000000000000000001").IsZero(), "below the smallest unit floors to zero")
}

func TestRawAmount_RoundTrip(t *testing.T) {
	unit := decimal.New(1, Decimals-DisplayPlaces)
	for _, s := range []string{
		"0",
		"1",
		"1500000000000000000",
		"123456789012345678901",
		"99999999999999",
		"100000000000000",
		"7000000000000000001",
	} {
		v := raw(t, s)
		back := RawAmount(DisplayAmount(v))
		diff := v.Sub(back)
		assert.False(t, diff.IsNegative(), "value %s: round trip must not exceed original", s)
		assert.True(t, diff.LessThan(unit), "value %s: round trip lost %s", s, diff)
	}
}

func TestParseRaw(t *testing.T) {
	d, err := ParseRaw("42")
	require.NoError(t, err)
	assert.Equal(t, "42", RawString(d))

	_, err = ParseRaw("forty-two")
	assert.Error(t, err)
}

func TestTimeRemaining(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	at := func(d time.Duration) int64 { return now.Add(d).Unix() }
	day := 24 * time.Hour

	tests := []struct {
		deadline int64
		want     string
	}{
		{now.Unix(), ExpiredLabel},
		{now.Unix() - 1, ExpiredLabel},
		{at(30 * time.Second), "in less than a minute"},
		{at(5 * time.Minute), "in 5 minutes"},
		{at(3 * time.Hour), "in about 3 hours"},
		{at(36 * time.Hour), "in 1 day"},
		{at(3 * day), "in 3 days"},
		{at(45 * day), "in about 1 month"},
		{at(90 * day), "in 3 months"},
		{at(400 * day), "in about 1 year"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeRemaining(tt.deadline, now))
	}
}

func TestFormatIdentity(t *testing.T) {
	assert.Equal(t, "0x1234...5678", FormatIdentity("0x1234567890abcdef1234567890abcdef12345678"))
	assert.Equal(t, "0x12", FormatIdentity("0x12"))
}

func TestStatusName(t *testing.T) {
	assert.Equal(t, "Active", StatusName(model.StatusActive))
	assert.Equal(t, "Failed", StatusName(model.StatusFailed))
}
