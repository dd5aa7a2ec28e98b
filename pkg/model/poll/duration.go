package poll

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize/english"
	"github.com/pkg/errors"
)

const (
	// DefaultDurationSeconds is used for unknown duration names.
	DefaultDurationSeconds = 7 * 24 * 60 * 60
)

// ErrInvalidDuration is returned for durations that are not positive.
var ErrInvalidDuration = errors.New("invalid duration")

var namedDurations = map[string]int64{
	"30seconds": 30,
	"1day":      24 * 60 * 60,
	"3days":     3 * 24 * 60 * 60,
	"7days":     7 * 24 * 60 * 60,
	"14days":    14 * 24 * 60 * 60,
	"30days":    30 * 24 * 60 * 60,
}

// DurationToSeconds converts a duration option ("7days") or a plain number of seconds ("3600") to seconds.
// An empty duration is 0, unknown names fall back to seven days.
func DurationToSeconds(duration string) int64 {
	if duration == "" {
		return 0
	}
	if seconds, err := strconv.ParseInt(duration, 10, 64); err == nil {
		return seconds
	}
	if seconds, exists := namedDurations[duration]; exists {
		return seconds
	}
	return DefaultDurationSeconds
}

// ParseDuration converts a duration option to a time.Duration.
func ParseDuration(duration string) time.Duration {
	return time.Duration(DurationToSeconds(duration)) * time.Second
}

// SecondsToDurationText renders seconds in the largest whole unit ("90" -> "1 minute").
func SecondsToDurationText(seconds int64) (string, error) {
	switch {
	case seconds <= 0:
		return "", errors.Wrapf(ErrInvalidDuration, "%d seconds", seconds)
	case seconds < 60:
		return english.Plural(int(seconds), "second", ""), nil
	case seconds < 60*60:
		return english.Plural(int(seconds/60), "minute", ""), nil
	case seconds < 24*60*60:
		return english.Plural(int(seconds/(60*60)), "hour", ""), nil
	default:
		return english.Plural(int(seconds/(24*60*60)), "day", ""), nil
	}
}
