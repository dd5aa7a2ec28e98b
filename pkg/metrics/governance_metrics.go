package metrics

import (
	"go.uber.org/atomic"
)

// GovernanceMetrics defines governance metrics over the entire runtime of the node.
type GovernanceMetrics struct {
	// The number of accepted votes.
	Votes atomic.Uint32
	// The number of created polls.
	PollsCreated atomic.Uint32
	// The number of parameter values committed by polls.
	ParametersApplied atomic.Uint32
	// The number of resolution passes over all polls.
	ResolutionPasses atomic.Uint32
	// The number of submitted proposals.
	ProposalsSubmitted atomic.Uint32
}
