package proposal

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gohornet/agora/pkg/model/consensus"
	"github.com/gohornet/agora/pkg/model/parameter"
	"github.com/gohornet/agora/pkg/model/poll"
	"github.com/gohornet/agora/pkg/model/storage"
	"github.com/gohornet/agora/pkg/utils"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/syncutils"
)

const (
	DefaultMinApprovals = 3
	DefaultPollDuration = 7 * 24 * time.Hour

	// PollTitlePrefix prefixes the title of polls backing a proposal.
	PollTitlePrefix = "Proposal: "

	minOptionsPerProposal = 2
)

var (
	// DefaultAdmins are the identities allowed to approve or reject proposals.
	DefaultAdmins = []string{"admin", "demo"}
)

var (
	// ErrUnauthorized is returned if an identity is not allowed to review proposals.
	ErrUnauthorized = errors.New("only admins can review proposals")
	// ErrProposalNotFound is returned if a proposal is unknown.
	ErrProposalNotFound = errors.New("proposal not found")
	// ErrProposalNotPending is returned if a proposal was already reviewed.
	ErrProposalNotPending = errors.New("proposal is not pending")
	// ErrInvalidProposal is returned if a proposal is incomplete.
	ErrInvalidProposal = errors.New("invalid proposal")
)

// Options define options for the Manager.
type Options struct {
	logger       *logger.Logger
	clock        func() time.Time
	admins       []string
	minApprovals int
	pollDuration time.Duration
}

// Option is a function setting a Manager option.
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
	WithAdmins(DefaultAdmins),
	WithMinApprovals(DefaultMinApprovals),
	WithPollDuration(DefaultPollDuration),
}

// WithLogger enables logging within the manager.
func WithLogger(logger *logger.Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithClock sets the time source of the manager.
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.clock = clock
	}
}

// WithAdmins sets the identities allowed to review proposals.
func WithAdmins(admins []string) Option {
	return func(opts *Options) {
		opts.admins = admins
	}
}

// WithMinApprovals sets the amount of approvals or rejections that decide a review.
func WithMinApprovals(minApprovals int) Option {
	return func(opts *Options) {
		opts.minApprovals = minApprovals
	}
}

// WithPollDuration sets how long the poll backing an approved proposal runs.
func WithPollDuration(duration time.Duration) Option {
	return func(opts *Options) {
		opts.pollDuration = duration
	}
}

// Manager runs proposals from submission through review and voting to their outcome.
type Manager struct {
	// lock used to secure the proposals.
	syncutils.RWMutex
	*utils.WrappedLogger

	slot     *storage.Slot
	polls    *poll.Store
	registry *parameter.Registry

	clock        func() time.Time
	admins       map[string]struct{}
	minApprovals int
	pollDuration time.Duration

	// proposals in submission order.
	proposals []*Proposal

	Events *Events
}

// NewManager creates a manager and loads the persisted proposals.
func NewManager(store kvstore.KVStore, polls *poll.Store, registry *parameter.Registry, opts ...Option) *Manager {
	options := &Options{}
	options.apply(defaultOptions...)
	options.apply(opts...)

	if options.minApprovals < 1 {
		options.minApprovals = DefaultMinApprovals
	}

	admins := make(map[string]struct{}, len(options.admins))
	for _, admin := range options.admins {
		admins[admin] = struct{}{}
	}

	m := &Manager{
		WrappedLogger: utils.NewWrappedLogger(options.logger),
		slot:          storage.NewSlot(store, storage.StorePrefixProposals, "proposals"),
		polls:         polls,
		registry:      registry,
		clock:         options.clock,
		admins:        admins,
		minApprovals:  options.minApprovals,
		pollDuration:  options.pollDuration,
		Events:        newEvents(),
	}
	m.load()

	return m
}

func (m *Manager) load() {
	var proposals []*Proposal
	if _, err := m.slot.Load(&proposals); err != nil {
		m.LogWarnf("unable to load proposals: %s", err)
		return
	}

	for _, p := range proposals {
		if p == nil || p.ID == "" {
			continue
		}
		m.proposals = append(m.proposals, p)

		if p.Status == StatusVoting || p.Status == StatusAccepted {
			if err := m.ensureParameter(p); err != nil {
				m.LogWarnf("%s", err)
			}
		}
	}
}

func (m *Manager) persist() {
	if err := m.slot.Store(m.proposals); err != nil {
		m.LogErrorf("unable to persist proposals: %s", err)
	}
}

// IsAdmin tells whether the identity may review proposals.
func (m *Manager) IsAdmin(identity string) bool {
	_, exists := m.admins[identity]
	return exists
}

// MinApprovals returns the amount of approvals a new proposal needs.
func (m *Manager) MinApprovals() int {
	return m.minApprovals
}

func (m *Manager) proposal(id string) (*Proposal, error) {
	for _, p := range m.proposals {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, errors.Wrapf(ErrProposalNotFound, "id %s", id)
}

// Proposal returns a copy of the proposal with the given ID.
func (m *Manager) Proposal(id string) (*Proposal, error) {
	m.RLock()
	defer m.RUnlock()

	p, err := m.proposal(id)
	if err != nil {
		return nil, err
	}
	return p.clone(), nil
}

// Proposals returns copies of all proposals in submission order.
func (m *Manager) Proposals() []*Proposal {
	m.RLock()
	defer m.RUnlock()

	proposals := make([]*Proposal, len(m.proposals))
	for i, p := range m.proposals {
		proposals[i] = p.clone()
	}
	return proposals
}

// ProposalsByCreator returns copies of the proposals submitted by the identity.
func (m *Manager) ProposalsByCreator(creator string) []*Proposal {
	m.RLock()
	defer m.RUnlock()

	var proposals []*Proposal
	for _, p := range m.proposals {
		if p.Creator == creator {
			proposals = append(proposals, p.clone())
		}
	}
	return proposals
}

// Submit adds a new pending proposal.
func (m *Manager) Submit(title string, category string, param string, description string, options []string, creator string) (*Proposal, error) {
	if creator == "" {
		return nil, poll.ErrLoginRequired
	}

	title = strings.TrimSpace(title)
	category = strings.TrimSpace(category)
	param = strings.TrimSpace(param)
	if title == "" || category == "" || param == "" {
		return nil, errors.Wrap(ErrInvalidProposal, "title, category and parameter are required")
	}

	cleaned := make([]string, 0, len(options))
	for _, option := range options {
		if option = strings.TrimSpace(option); option != "" {
			cleaned = append(cleaned, option)
		}
	}
	if len(cleaned) < minOptionsPerProposal {
		return nil, errors.Wrapf(ErrInvalidProposal, "at least %d options are required", minOptionsPerProposal)
	}

	p := &Proposal{
		ID:           uuid.New().String(),
		Title:        title,
		Category:     category,
		Param:        param,
		Description:  description,
		Options:      cleaned,
		Creator:      creator,
		CreatedAt:    m.clock(),
		Status:       StatusPending,
		MinApprovals: m.minApprovals,
	}

	m.Lock()
	m.proposals = append(m.proposals, p)
	m.persist()
	submitted := p.clone()
	m.Unlock()

	m.LogInfof("proposal %s submitted by %s: %q (%s)", submitted.ID, creator, title, parameter.Key(category, param))
	m.Events.ProposalSubmitted.Trigger(submitted)
	return submitted, nil
}

// Approve counts an approval. Once the proposal has enough approvals voting starts.
// Every call counts, also repeated ones of the same admin.
func (m *Manager) Approve(id string, identity string) (*Proposal, error) {
	return m.review(id, identity, true)
}

// Reject counts a rejection. Once the proposal has enough rejections it is rejected.
func (m *Manager) Reject(id string, identity string) (*Proposal, error) {
	return m.review(id, identity, false)
}

func (m *Manager) review(id string, identity string, approve bool) (*Proposal, error) {
	if !m.IsAdmin(identity) {
		return nil, errors.Wrapf(ErrUnauthorized, "identity %q", identity)
	}

	m.Lock()

	p, err := m.proposal(id)
	if err != nil {
		m.Unlock()
		return nil, err
	}
	if p.Status != StatusPending {
		m.Unlock()
		return nil, errors.Wrapf(ErrProposalNotPending, "proposal %s is %s", id, p.Status)
	}

	previous := p.Status
	if approve {
		p.Approvals++
		if p.Approvals >= p.MinApprovals {
			if err := m.startVoting(p); err != nil {
				p.Approvals--
				m.Unlock()
				return nil, err
			}
		}
	} else {
		p.Rejections++
		if p.Rejections >= p.MinApprovals {
			p.Status = StatusRejected
			p.ResolvedAt = m.clock()
		}
	}
	m.persist()
	reviewed := p.clone()
	m.Unlock()

	if reviewed.Status != previous {
		m.LogInfof("proposal %s: %s -> %s", reviewed.ID, previous, reviewed.Status)
		m.Events.ProposalStateChanged.Trigger(reviewed, previous)
	}
	return reviewed, nil
}

// ensureParameter registers the parameter a proposal introduces.
func (m *Manager) ensureParameter(p *Proposal) error {
	if m.registry.Has(p.Category, p.Param) {
		return nil
	}

	if err := m.registry.Register(&parameter.Parameter{
		Category:    p.Category,
		Name:        p.Param,
		Options:     p.Options,
		Description: p.Description,
		DisplayName: p.Title,
	}); err != nil && !errors.Is(err, parameter.ErrParameterExists) {
		return errors.WithMessagef(err, "unable to register parameter of proposal %s", p.ID)
	}
	return nil
}

// startVoting links the proposal to a parameter poll. The manager must be locked.
// A poll already created for the proposal, or a running poll on the same parameter, is reused.
func (m *Manager) startVoting(p *Proposal) error {
	if err := m.ensureParameter(p); err != nil {
		return err
	}

	for _, existing := range m.polls.Polls() {
		if existing.ProposalID == p.ID {
			p.PollID = existing.ID
			p.Status = StatusVoting
			return nil
		}
	}

	if existing, found := m.polls.ActiveParameterPoll(p.Category, p.Param); found {
		p.PollID = existing.ID
		p.Status = StatusVoting
		return nil
	}

	options := make([]*poll.Option, len(p.Options))
	for i, text := range p.Options {
		options[i] = &poll.Option{Text: text}
	}

	created, err := m.polls.Add(&poll.Poll{
		Title:             PollTitlePrefix + p.Title,
		Options:           options,
		EndDate:           m.clock().Add(m.pollDuration),
		IsParameterPoll:   true,
		ParameterCategory: p.Category,
		ParameterName:     p.Param,
		ProposalID:        p.ID,
		CreatedBy:         p.Creator,
	})
	if err != nil {
		return errors.WithMessagef(err, "unable to create poll for proposal %s", p.ID)
	}

	p.PollID = created.ID
	p.Status = StatusVoting
	return nil
}

// HandleResultsChanged decides the proposal voting on the poll once the poll ended.
// A proposal is accepted if the result reached consensus, ties and empty polls reject it.
// It returns the decided proposal, or false if no proposal was decided.
func (m *Manager) HandleResultsChanged(p *poll.Poll, result *consensus.Result, now time.Time) (*Proposal, bool) {
	if !p.HasEnded(now) {
		return nil, false
	}

	m.Lock()

	var decided *Proposal
	for _, candidate := range m.proposals {
		if candidate.Status == StatusVoting && candidate.PollID == p.ID {
			decided = candidate
			break
		}
	}
	if decided == nil {
		m.Unlock()
		return nil, false
	}

	previous := decided.Status
	decided.Status = StatusRejected
	if result != nil && result.HasLeader() && result.ConsensusReached {
		decided.Status = StatusAccepted
	}
	decided.ResolvedAt = now
	m.persist()
	resolved := decided.clone()
	m.Unlock()

	m.LogInfof("proposal %s: %s -> %s", resolved.ID, previous, resolved.Status)
	m.Events.ProposalStateChanged.Trigger(resolved, previous)
	return resolved, true
}
