package proposal

import (
	"time"
)

// Status is the lifecycle state of a proposal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVoting   Status = "voting"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// IsTerminal tells whether the status can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Proposal is a suggestion to put a parameter to the vote.
// Once approved by enough admins it is backed by a parameter poll.
type Proposal struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Param       string    `json:"param"`
	Description string    `json:"description,omitempty"`
	Options     []string  `json:"options"`
	Creator     string    `json:"creator"`
	CreatedAt   time.Time `json:"createdAt"`

	Status       Status `json:"status"`
	Approvals    int    `json:"approvals"`
	Rejections   int    `json:"rejections"`
	MinApprovals int    `json:"minApprovals"`

	// PollID is the poll deciding the proposal, set once voting started.
	PollID     string    `json:"pollId,omitempty"`
	ResolvedAt time.Time `json:"resolvedAt,omitempty"`
}

func (p *Proposal) clone() *Proposal {
	c := *p
	c.Options = append([]string(nil), p.Options...)
	return &c
}
