package tabsync

import (
	"encoding/json"
	"time"

	"github.com/iotaledger/hive.go/events"
)

const (
	// KeyParameters carries the current values of the parameter registry.
	KeyParameters = "parameters"
	// KeyPolls carries the whole poll store.
	KeyPolls = "polls"
)

// Message is a state update published by one replica.
type Message struct {
	Origin    string          `json:"origin"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// MessageCaller is used to signal a published message.
func MessageCaller(handler interface{}, params ...interface{}) {
	handler.(func(*Message))(params[0].(*Message))
}

// Bus delivers published messages to every subscriber, the publisher included.
type Bus struct {
	published *events.Event
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		published: events.NewEvent(MessageCaller),
	}
}

// Publish delivers the message synchronously.
func (b *Bus) Publish(msg *Message) {
	b.published.Trigger(msg)
}

// Subscribe registers a handler for all messages. The returned function removes it again.
func (b *Bus) Subscribe(handler func(msg *Message)) func() {
	closure := events.NewClosure(handler)
	b.published.Attach(closure)
	return func() {
		b.published.Detach(closure)
	}
}
