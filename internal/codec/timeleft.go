package codec

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// ExpiredLabel is shown once a deadline has passed.
const ExpiredLabel = "Expired"

var remainingMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "in less than a minute", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "in 1 minute", DivBy: time.Minute},
	{D: 45 * time.Minute, Format: "in %d minutes", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "in about 1 hour", DivBy: time.Hour},
	{D: humanize.Day, Format: "in about %d hours", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "in 1 day", DivBy: humanize.Day},
	{D: humanize.Month, Format: "in %d days", DivBy: humanize.Day},
	{D: 2 * humanize.Month, Format: "in about 1 month", DivBy: humanize.Month},
	{D: humanize.Year, Format: "in %d months", DivBy: humanize.Month},
	{D: 2 * humanize.Year, Format: "in about 1 year", DivBy: humanize.Year},
	{D: math.MaxInt64, Format: "in about %d years", DivBy: humanize.Year},
}

// TimeRemaining labels the time left until deadline (unix seconds) as seen
// from now. Deadlines at or before now are labelled ExpiredLabel.
func TimeRemaining(deadline int64, now time.Time) string {
	if deadline <= now.Unix() {
		return ExpiredLabel
	}
	return humanize.CustomRelTime(now, time.Unix(deadline, 0), "", "", remainingMagnitudes)
}
