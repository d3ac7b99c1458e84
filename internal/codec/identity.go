package codec

import "github.com/kkkkikiki/flowfund/internal/model"

// FormatIdentity shortens a ledger address to its first six and last four
// characters. Ledger identities are fixed-length; shorter input is returned
// unchanged.
func FormatIdentity(address string) string {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// StatusName is the display name of a funding status.
func StatusName(s model.FundingStatus) string {
	return s.String()
}
