package poll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDurationToSeconds(t *testing.T) {
	require.EqualValues(t, 30, DurationToSeconds("30seconds"))
	require.EqualValues(t, 86400, DurationToSeconds("1day"))
	require.EqualValues(t, 259200, DurationToSeconds("3days"))
	require.EqualValues(t, 604800, DurationToSeconds("7days"))
	require.EqualValues(t, 1209600, DurationToSeconds("14days"))
	require.EqualValues(t, 2592000, DurationToSeconds("30days"))
	require.EqualValues(t, 3600, DurationToSeconds("3600"))
	require.EqualValues(t, 0, DurationToSeconds(""))
	require.EqualValues(t, DefaultDurationSeconds, DurationToSeconds("fortnight"))

	require.Equal(t, 24*time.Hour, ParseDuration("1day"))
}

func TestSecondsToDurationText(t *testing.T) {
	for seconds, expected := range map[int64]string{
		1:       "1 second",
		30:      "30 seconds",
		90:      "1 minute",
		3600:    "1 hour",
		7200:    "2 hours",
		86400:   "1 day",
		604800:  "7 days",
		2592000: "30 days",
	} {
		text, err := SecondsToDurationText(seconds)
		require.NoError(t, err)
		require.Equal(t, expected, text)
	}

	_, err := SecondsToDurationText(0)
	require.ErrorIs(t, err, ErrInvalidDuration)
	_, err = SecondsToDurationText(-5)
	require.ErrorIs(t, err, ErrInvalidDuration)
}

func TestDurationRoundTrip(t *testing.T) {
	for name := range namedDurations {
		text, err := SecondsToDurationText(DurationToSeconds(name))
		require.NoError(t, err)
		require.NotEmpty(t, text)
	}

	text, err := SecondsToDurationText(DurationToSeconds("30seconds"))
	require.NoError(t, err)
	require.Equal(t, "30 seconds", text)
}
