package governance

import (
	"time"

	"github.com/pkg/errors"

	"github.com/gohornet/agora/pkg/metrics"
	"github.com/gohornet/agora/pkg/model/applier"
	"github.com/gohornet/agora/pkg/model/consensus"
	"github.com/gohornet/agora/pkg/model/history"
	"github.com/gohornet/agora/pkg/model/parameter"
	"github.com/gohornet/agora/pkg/model/poll"
	"github.com/gohornet/agora/pkg/model/proposal"
	"github.com/gohornet/agora/pkg/model/tabsync"
	"github.com/gohornet/agora/pkg/model/weight"
	"github.com/gohornet/agora/pkg/utils"
	"github.com/iotaledger/hive.go/events"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/syncutils"
)

const (
	// AnonymousIdentityPrefix prefixes the identities handed out to anonymous voters.
	AnonymousIdentityPrefix = "anonymous-"
)

var (
	// ErrTooManyPolls is returned if a creator exceeds the amount of running polls allowed per user.
	ErrTooManyPolls = errors.New("too many running polls")
)

// Options define options for the Engine.
type Options struct {
	logger               *logger.Logger
	clock                func() time.Time
	metrics              *metrics.GovernanceMetrics
	weightedTally        bool
	previewDuration      time.Duration
	historyMaxSize       int
	admins               []string
	minApprovals         int
	proposalPollDuration time.Duration
	bus                  *tabsync.Bus
	origin               string
}

// Option is a function setting an Engine option.
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
	WithMetrics(nil),
	WithWeightedTally(false),
	WithPreviewDuration(applier.DefaultPreviewDuration),
	WithHistoryMaxSize(history.DefaultMaxSize),
	WithAdmins(proposal.DefaultAdmins),
	WithMinApprovals(proposal.DefaultMinApprovals),
	WithProposalPollDuration(proposal.DefaultPollDuration),
}

// WithLogger enables logging within the engine and its components.
func WithLogger(logger *logger.Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithClock sets the time source of the engine and its components.
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.clock = clock
	}
}

// WithMetrics sets the counters the engine updates. Nil uses counters of its own.
func WithMetrics(m *metrics.GovernanceMetrics) Option {
	return func(opts *Options) {
		opts.metrics = m
	}
}

// WithWeightedTally lets the voter weights decide polls instead of the raw vote counts.
func WithWeightedTally(weighted bool) Option {
	return func(opts *Options) {
		opts.weightedTally = weighted
	}
}

// WithPreviewDuration sets how long a live result preview stays applied.
func WithPreviewDuration(duration time.Duration) Option {
	return func(opts *Options) {
		opts.previewDuration = duration
	}
}

// WithHistoryMaxSize sets the amount of change records kept.
func WithHistoryMaxSize(maxSize int) Option {
	return func(opts *Options) {
		opts.historyMaxSize = maxSize
	}
}

// WithAdmins sets the identities allowed to review proposals.
func WithAdmins(admins []string) Option {
	return func(opts *Options) {
		opts.admins = admins
	}
}

// WithMinApprovals sets the amount of reviews that decide a proposal.
func WithMinApprovals(minApprovals int) Option {
	return func(opts *Options) {
		opts.minApprovals = minApprovals
	}
}

// WithProposalPollDuration sets how long the poll of an approved proposal runs.
func WithProposalPollDuration(duration time.Duration) Option {
	return func(opts *Options) {
		opts.proposalPollDuration = duration
	}
}

// WithBus connects the engine to a shared sync bus.
func WithBus(bus *tabsync.Bus) Option {
	return func(opts *Options) {
		opts.bus = bus
	}
}

// WithOrigin sets the sync identity of the engine.
func WithOrigin(origin string) Option {
	return func(opts *Options) {
		opts.origin = origin
	}
}

// Engine is the application context of the parameter democracy.
// It owns every component and runs the resolution pipeline that turns poll results into parameter values.
type Engine struct {
	// pipelineLock serializes resolution passes, a vote and a ticker pass never interleave.
	pipelineLock syncutils.Mutex
	*utils.WrappedLogger

	clock   func() time.Time
	metrics *metrics.GovernanceMetrics

	registry  *parameter.Registry
	polls     *poll.Store
	weights   *weight.Calculator
	resolver  *consensus.Resolver
	ledger    *history.Ledger
	applier   *applier.Applier
	proposals *proposal.Manager
	bus       *tabsync.Bus
	replica   *tabsync.Replica

	// lastResults holds the fingerprint of the last result per poll.
	lastResults map[string]string

	onProposalSubmitted    *events.Closure
	onProposalStateChanged *events.Closure

	Events *Events
}

// NewEngine creates the engine and all its components on top of the given store.
func NewEngine(store kvstore.KVStore, opts ...Option) (*Engine, error) {
	options := &Options{}
	options.apply(defaultOptions...)
	options.apply(opts...)

	if options.metrics == nil {
		options.metrics = &metrics.GovernanceMetrics{}
	}

	e := &Engine{
		WrappedLogger: utils.NewWrappedLogger(options.logger),
		clock:         options.clock,
		metrics:       options.metrics,
		lastResults:   make(map[string]string),
		Events:        newEvents(),
	}

	registry, err := parameter.NewRegistry(store, parameter.WithLogger(e.LoggerNamed("Registry")))
	if err != nil {
		return nil, errors.WithMessage(err, "unable to create parameter registry")
	}
	e.registry = registry

	e.polls = poll.NewStore(store,
		poll.WithLogger(e.LoggerNamed("Polls")),
		poll.WithClock(options.clock),
	)
	e.weights = weight.NewCalculator(store,
		weight.WithLogger(e.LoggerNamed("Weights")),
		weight.WithClock(options.clock),
	)

	mode := consensus.TallyRaw
	if options.weightedTally {
		mode = consensus.TallyWeighted
	}
	e.resolver = consensus.NewResolver(mode, e.weights.Weight)

	e.ledger = history.NewLedger(store,
		history.WithLogger(e.LoggerNamed("History")),
		history.WithClock(options.clock),
		history.WithMaxSize(options.historyMaxSize),
	)
	e.applier = applier.New(e.registry, e.polls, e.ledger,
		applier.WithLogger(e.LoggerNamed("Applier")),
		applier.WithClock(options.clock),
		applier.WithPreviewDuration(options.previewDuration),
	)
	e.proposals = proposal.NewManager(store, e.polls, e.registry,
		proposal.WithLogger(e.LoggerNamed("Proposals")),
		proposal.WithClock(options.clock),
		proposal.WithAdmins(options.admins),
		proposal.WithMinApprovals(options.minApprovals),
		proposal.WithPollDuration(options.proposalPollDuration),
	)

	e.bus = options.bus
	if e.bus == nil {
		e.bus = tabsync.NewBus()
	}
	e.replica = tabsync.NewReplica(e.bus, e.registry, e.polls, e.applier,
		tabsync.WithLogger(e.LoggerNamed("TabSync")),
		tabsync.WithClock(options.clock),
		tabsync.WithOrigin(options.origin),
	)

	e.attachEvents()
	e.replica.Start()
	e.applier.ApplyAll()

	return e, nil
}

func (e *Engine) attachEvents() {
	e.onProposalSubmitted = events.NewClosure(func(p *proposal.Proposal) {
		e.metrics.ProposalsSubmitted.Inc()
		e.weights.RecordProposal(p.Creator)
	})
	e.onProposalStateChanged = events.NewClosure(func(p *proposal.Proposal, _ proposal.Status) {
		if p.Status == proposal.StatusAccepted {
			e.weights.RecordProposalAccepted(p.Creator)
		}
	})

	e.proposals.Events.ProposalSubmitted.Attach(e.onProposalSubmitted)
	e.proposals.Events.ProposalStateChanged.Attach(e.onProposalStateChanged)
}

// Shutdown stops the sync replica and reverts a running preview.
func (e *Engine) Shutdown() {
	e.proposals.Events.ProposalSubmitted.Detach(e.onProposalSubmitted)
	e.proposals.Events.ProposalStateChanged.Detach(e.onProposalStateChanged)
	e.replica.Stop()
	e.applier.Shutdown()
}

func (e *Engine) Registry() *parameter.Registry {
	return e.registry
}

func (e *Engine) Polls() *poll.Store {
	return e.polls
}

func (e *Engine) Weights() *weight.Calculator {
	return e.weights
}

func (e *Engine) Ledger() *history.Ledger {
	return e.ledger
}

func (e *Engine) Applier() *applier.Applier {
	return e.applier
}

func (e *Engine) Proposals() *proposal.Manager {
	return e.proposals
}

func (e *Engine) Bus() *tabsync.Bus {
	return e.bus
}

func (e *Engine) Replica() *tabsync.Replica {
	return e.replica
}

func (e *Engine) Metrics() *metrics.GovernanceMetrics {
	return e.metrics
}

// Now returns the current time of the engine clock.
func (e *Engine) Now() time.Time {
	return e.clock()
}
