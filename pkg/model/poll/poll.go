package poll

import (
	"time"
)

// Option is a choice of a poll with its raw vote count.
type Option struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// Poll is a set of options users vote on until the end date.
type Poll struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Options []*Option `json:"options"`
	EndDate time.Time `json:"endDate"`
	// Voters holds every identity that voted, in voting order.
	Voters []string `json:"voters"`
	// Ballots maps a voter to the index of the chosen option.
	Ballots map[string]int `json:"ballots,omitempty"`

	IsParameterPoll   bool   `json:"isParameterPoll"`
	ParameterCategory string `json:"parameterCategory,omitempty"`
	ParameterName     string `json:"parameterName,omitempty"`
	Executed          bool   `json:"executed"`
	ProposalID        string `json:"proposalId,omitempty"`

	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasVoted tells whether the identity already voted on the poll.
func (p *Poll) HasVoted(identity string) bool {
	if _, exists := p.Ballots[identity]; exists {
		return true
	}
	for _, voter := range p.Voters {
		if voter == identity {
			return true
		}
	}
	return false
}

// HasEnded tells whether the poll no longer accepts votes.
func (p *Poll) HasEnded(now time.Time) bool {
	return !now.Before(p.EndDate)
}

// IsActive tells whether the poll accepts votes and was not executed yet.
func (p *Poll) IsActive(now time.Time) bool {
	return !p.HasEnded(now) && !p.Executed
}

// Governs tells whether the poll decides the given parameter.
func (p *Poll) Governs(category string, name string) bool {
	return p.IsParameterPoll && p.ParameterCategory == category && p.ParameterName == name
}

// TotalVotes returns the sum of the raw vote counts.
func (p *Poll) TotalVotes() int {
	total := 0
	for _, option := range p.Options {
		total += option.Votes
	}
	return total
}

// Counts returns the raw vote counts per option.
func (p *Poll) Counts() []float64 {
	counts := make([]float64, len(p.Options))
	for i, option := range p.Options {
		counts[i] = float64(option.Votes)
	}
	return counts
}

// Clone returns a deep copy of the poll.
func (p *Poll) Clone() *Poll {
	c := *p
	c.Options = make([]*Option, 0, len(p.Options))
	for _, option := range p.Options {
		if option == nil {
			continue
		}
		o := *option
		c.Options = append(c.Options, &o)
	}
	c.Voters = append([]string(nil), p.Voters...)
	if p.Ballots != nil {
		c.Ballots = make(map[string]int, len(p.Ballots))
		for voter, index := range p.Ballots {
			c.Ballots[voter] = index
		}
	}
	return &c
}

// Vote is a single vote cast on a poll.
type Vote struct {
	PollID      string
	OptionIndex int
	Voter       string
	Timestamp   time.Time
}
