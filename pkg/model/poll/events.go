package poll

import (
	"github.com/iotaledger/hive.go/events"
)

// PollCaller is used to signal a poll related event.
func PollCaller(handler interface{}, params ...interface{}) {
	handler.(func(*Poll))(params[0].(*Poll))
}

// VoteCaller is used to signal a vote together with the poll after the vote.
func VoteCaller(handler interface{}, params ...interface{}) {
	handler.(func(*Vote, *Poll))(params[0].(*Vote), params[1].(*Poll))
}

type Events struct {
	PollCreated   *events.Event
	PollDeleted   *events.Event
	PollExecuted  *events.Event
	VoteSubmitted *events.Event
	// PollsReplaced is triggered after the whole store was replaced.
	PollsReplaced *events.Event
}

func newEvents() *Events {
	return &Events{
		PollCreated:   events.NewEvent(PollCaller),
		PollDeleted:   events.NewEvent(PollCaller),
		PollExecuted:  events.NewEvent(PollCaller),
		VoteSubmitted: events.NewEvent(VoteCaller),
		PollsReplaced: events.NewEvent(events.VoidCaller),
	}
}
