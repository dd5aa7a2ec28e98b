package governance

import (
	"github.com/gohornet/agora/pkg/model/consensus"
	"github.com/gohornet/agora/pkg/model/poll"
	"github.com/iotaledger/hive.go/events"
)

// ResultCaller is used to signal a changed poll result.
func ResultCaller(handler interface{}, params ...interface{}) {
	handler.(func(*poll.Poll, *consensus.Result))(params[0].(*poll.Poll), params[1].(*consensus.Result))
}

type Events struct {
	// ResultsChanged is triggered whenever the evaluation of a poll differs from the previous one.
	ResultsChanged *events.Event
}

func newEvents() *Events {
	return &Events{
		ResultsChanged: events.NewEvent(ResultCaller),
	}
}
