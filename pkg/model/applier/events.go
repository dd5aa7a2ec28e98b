package applier

import (
	"time"

	"github.com/iotaledger/hive.go/events"
)

// Change describes a committed change of a parameter value.
type Change struct {
	Category  string
	Name      string
	OldValue  string
	NewValue  string
	PollID    string
	PollTitle string
}

// Preview describes a temporarily applied parameter value.
type Preview struct {
	Category  string    `json:"category"`
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	Original  string    `json:"original"`
	PollID    string    `json:"pollId,omitempty"`
	StartedAt time.Time `json:"startedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ChangeCaller is used to signal a committed parameter change.
func ChangeCaller(handler interface{}, params ...interface{}) {
	handler.(func(*Change))(params[0].(*Change))
}

// PreviewCaller is used to signal a preview state change.
func PreviewCaller(handler interface{}, params ...interface{}) {
	handler.(func(*Preview))(params[0].(*Preview))
}

// CategoryCaller is used to signal the values of a category.
func CategoryCaller(handler interface{}, params ...interface{}) {
	handler.(func(string, map[string]string))(params[0].(string), params[1].(map[string]string))
}

type Events struct {
	ParameterChanged *events.Event
	// CategoryApplied is triggered for categories without a registered hook.
	CategoryApplied *events.Event
	PreviewStarted  *events.Event
	PreviewEnded    *events.Event
}

func newEvents() *Events {
	return &Events{
		ParameterChanged: events.NewEvent(ChangeCaller),
		CategoryApplied:  events.NewEvent(CategoryCaller),
		PreviewStarted:   events.NewEvent(PreviewCaller),
		PreviewEnded:     events.NewEvent(PreviewCaller),
	}
}
