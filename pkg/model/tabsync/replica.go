package tabsync

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gohornet/agora/pkg/model/applier"
	"github.com/gohornet/agora/pkg/model/parameter"
	"github.com/gohornet/agora/pkg/model/poll"
	"github.com/gohornet/agora/pkg/utils"
	"github.com/iotaledger/hive.go/events"
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/syncutils"
)

var (
	// ErrUnknownKey is returned for messages with a key no replica handles.
	ErrUnknownKey = errors.New("unknown sync key")
)

// Options define options for the Replica.
type Options struct {
	logger *logger.Logger
	clock  func() time.Time
	origin string
}

// Option is a function setting a Replica option.
type Option func(opts *Options)

// applies the given Option.
func (o *Options) apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

var defaultOptions = []Option{
	WithLogger(nil),
	WithClock(time.Now),
}

// WithLogger enables logging within the replica.
func WithLogger(logger *logger.Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithClock sets the time source for message timestamps.
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.clock = clock
	}
}

// WithOrigin sets the identity of the replica. A random one is used by default.
func WithOrigin(origin string) Option {
	return func(opts *Options) {
		opts.origin = origin
	}
}

// Replica keeps the local registry and poll store in sync with the other replicas on a bus.
// Foreign state replaces the local one, the newest message per key wins.
type Replica struct {
	// lock used to serialize incoming messages.
	syncutils.Mutex
	*utils.WrappedLogger

	origin   string
	clock    func() time.Time
	bus      *Bus
	registry *parameter.Registry
	polls    *poll.Store
	applier  *applier.Applier

	// newest applied or published message timestamp per key.
	lastApplied     map[string]time.Time
	lastAppliedLock syncutils.Mutex

	unsubscribe func()
	detach      func()
}

// NewReplica creates a replica. It does not publish or receive until Start is called.
func NewReplica(bus *Bus, registry *parameter.Registry, polls *poll.Store, a *applier.Applier, opts ...Option) *Replica {
	options := &Options{}
	options.apply(defaultOptions...)
	options.apply(opts...)

	if options.origin == "" {
		options.origin = uuid.New().String()
	}

	return &Replica{
		WrappedLogger: utils.NewWrappedLogger(options.logger),
		origin:        options.origin,
		clock:         options.clock,
		bus:           bus,
		registry:      registry,
		polls:         polls,
		applier:       a,
		lastApplied:   make(map[string]time.Time),
	}
}

// Origin returns the identity of the replica.
func (r *Replica) Origin() string {
	return r.origin
}

// Start subscribes to the bus and publishes local changes.
func (r *Replica) Start() {
	r.unsubscribe = r.bus.Subscribe(r.handle)

	onParameterChanged := events.NewClosure(func(_ *applier.Change) { r.PublishParameters() })
	onPollChanged := events.NewClosure(func(_ *poll.Poll) { r.PublishPolls() })
	onVote := events.NewClosure(func(_ *poll.Vote, _ *poll.Poll) { r.PublishPolls() })

	r.applier.Events.ParameterChanged.Attach(onParameterChanged)
	r.polls.Events.PollCreated.Attach(onPollChanged)
	r.polls.Events.PollDeleted.Attach(onPollChanged)
	r.polls.Events.PollExecuted.Attach(onPollChanged)
	r.polls.Events.VoteSubmitted.Attach(onVote)

	r.detach = func() {
		r.applier.Events.ParameterChanged.Detach(onParameterChanged)
		r.polls.Events.PollCreated.Detach(onPollChanged)
		r.polls.Events.PollDeleted.Detach(onPollChanged)
		r.polls.Events.PollExecuted.Detach(onPollChanged)
		r.polls.Events.VoteSubmitted.Detach(onVote)
	}
}

// Stop detaches the replica from the bus and the local events.
func (r *Replica) Stop() {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
	if r.detach != nil {
		r.detach()
		r.detach = nil
	}
}

func (r *Replica) message(key string, v interface{}) (*Message, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to encode %s", key)
	}

	return &Message{
		Origin:    r.origin,
		Key:       key,
		Payload:   payload,
		Timestamp: r.clock(),
	}, nil
}

func (r *Replica) publish(key string, v interface{}) {
	msg, err := r.message(key, v)
	if err != nil {
		r.LogErrorf("%s", err)
		return
	}

	r.stamp(msg.Key, msg.Timestamp)
	r.bus.Publish(msg)
}

// stamp records the timestamp of the newest state of the key.
func (r *Replica) stamp(key string, ts time.Time) {
	r.lastAppliedLock.Lock()
	defer r.lastAppliedLock.Unlock()

	r.lastApplied[key] = ts
}

func (r *Replica) isOutdated(msg *Message) bool {
	r.lastAppliedLock.Lock()
	defer r.lastAppliedLock.Unlock()

	last, exists := r.lastApplied[msg.Key]
	return exists && msg.Timestamp.Before(last)
}

// State returns the messages describing the committed state of the replica without publishing them.
func (r *Replica) State() ([]*Message, error) {
	parameters, err := r.message(KeyParameters, r.applier.CommittedSnapshot())
	if err != nil {
		return nil, err
	}

	polls, err := r.message(KeyPolls, r.polls.Polls())
	if err != nil {
		return nil, err
	}

	return []*Message{parameters, polls}, nil
}

func (r *Replica) PublishParameters() {
	r.publish(KeyParameters, r.applier.CommittedSnapshot())
}

// PublishPolls publishes the whole poll store.
func (r *Replica) PublishPolls() {
	r.publish(KeyPolls, r.polls.Polls())
}

func (r *Replica) handle(msg *Message) {
	if msg == nil || msg.Origin == r.origin {
		return
	}

	if err := r.Receive(msg); err != nil {
		r.LogWarnf("dropping sync message from %s: %s", msg.Origin, err)
	}
}

// Receive applies a foreign message to the local state.
// Messages older than the last applied or published one of the same key are ignored.
func (r *Replica) Receive(msg *Message) error {
	r.Lock()
	defer r.Unlock()

	if r.isOutdated(msg) {
		return nil
	}

	switch msg.Key {
	case KeyParameters:
		snapshot := make(parameter.Snapshot)
		if err := json.Unmarshal(msg.Payload, &snapshot); err != nil {
			return errors.Wrapf(err, "malformed %s payload", msg.Key)
		}

		// a running preview would restore a stale original later on
		r.applier.CancelPreview()

		if changed := r.registry.Merge(snapshot); len(changed) > 0 {
			if err := r.registry.Persist(); err != nil {
				r.LogErrorf("unable to persist parameters: %s", err)
			}
			r.LogDebugf("merged %d parameters from %s", len(changed), msg.Origin)
		}
		r.applier.ApplyAll()

	case KeyPolls:
		var polls []*poll.Poll
		if err := json.Unmarshal(msg.Payload, &polls); err != nil {
			return errors.Wrapf(err, "malformed %s payload", msg.Key)
		}
		r.polls.ReplaceAll(polls)
		r.applier.ApplyAll()

	default:
		return errors.Wrapf(ErrUnknownKey, "%q", msg.Key)
	}

	r.stamp(msg.Key, msg.Timestamp)
	return nil
}
