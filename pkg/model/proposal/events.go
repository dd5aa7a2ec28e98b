package proposal

import (
	"github.com/iotaledger/hive.go/events"
)

// ProposalCaller is used to signal a proposal related event.
func ProposalCaller(handler interface{}, params ...interface{}) {
	handler.(func(*Proposal))(params[0].(*Proposal))
}

// StateChangedCaller is used to signal a status transition together with the previous status.
func StateChangedCaller(handler interface{}, params ...interface{}) {
	handler.(func(*Proposal, Status))(params[0].(*Proposal), params[1].(Status))
}

type Events struct {
	ProposalSubmitted    *events.Event
	ProposalStateChanged *events.Event
}

func newEvents() *Events {
	return &Events{
		ProposalSubmitted:    events.NewEvent(ProposalCaller),
		ProposalStateChanged: events.NewEvent(StateChangedCaller),
	}
}
