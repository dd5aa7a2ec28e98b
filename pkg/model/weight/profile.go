package weight

import (
	"time"
)

const (
	// MinWeight is the lower bound of every profile value.
	MinWeight = 0.1
	// MaxWeight is the upper bound of every profile value.
	MaxWeight = 3.0
	// DefaultWeight is used for identities without a profile.
	DefaultWeight = 1.0
	// MaxHistoryEntries is the amount of updates kept per profile value.
	MaxHistoryEntries = 20
)

// HistoryEntry records one update of a profile value.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Delta     float64   `json:"delta"`
	Value     float64   `json:"value"`
}

// Reputation grows when an identity votes for options that end up winning.
type Reputation struct {
	Value        float64         `json:"value"`
	Outcomes     int             `json:"outcomes"`
	MatchedVotes int             `json:"matchedVotes"`
	History      []*HistoryEntry `json:"history"`
}

// Activity reflects how often and how recently an identity takes part.
type Activity struct {
	Value      float64         `json:"value"`
	LoginCount int             `json:"loginCount"`
	VoteCount  int             `json:"voteCount"`
	LastLogin  time.Time       `json:"lastLogin"`
	History    []*HistoryEntry `json:"history"`
}

// Contribution reflects the proposals of an identity.
type Contribution struct {
	Value         float64         `json:"value"`
	ProposalCount int             `json:"proposalCount"`
	AcceptedCount int             `json:"acceptedCount"`
	History       []*HistoryEntry `json:"history"`
}

// Profile holds the three weight values of an identity.
type Profile struct {
	Reputation   float64 `json:"reputation"`
	Activity     float64 `json:"activity"`
	Contribution float64 `json:"contribution"`
}

func clamp(value float64) float64 {
	switch {
	case value < MinWeight:
		return MinWeight
	case value > MaxWeight:
		return MaxWeight
	default:
		return value
	}
}

// appendHistory adds an entry and drops the oldest ones above MaxHistoryEntries.
func appendHistory(history []*HistoryEntry, entry *HistoryEntry) []*HistoryEntry {
	history = append(history, entry)
	if overflow := len(history) - MaxHistoryEntries; overflow > 0 {
		history = append([]*HistoryEntry(nil), history[overflow:]...)
	}
	return history
}

func compactHistory(history []*HistoryEntry) []*HistoryEntry {
	compacted := history[:0]
	for _, entry := range history {
		if entry != nil {
			compacted = append(compacted, entry)
		}
	}
	return compacted
}
