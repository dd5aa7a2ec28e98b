package weight

import (
	"math"
	"time"

	"github.com/gohornet/agora/pkg/model/storage"
	"github.com/gohornet/agora/pkg/utils"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/syncutils"
)

const (
	recentLoginBonus   = 0.5
	recentLoginWindow  = 24 * time.Hour
	earlierLoginBonus  = 0.2
	earlierLoginWindow = 72 * time.Hour
	votesForFullBonus  = 10.0
	maxVoteBonus       = 1.0

	proposalsForFullBonus = 5.0
	maxProposalBonus      = 0.5
	acceptedProposalBonus = 0.2

	consistencyFactor = 0.1
	acceptanceFactor  = 0.2
)

// Options define options for the Calculator.
type Options struct {
	logger *logger.Logger
	clock  func() time.Time
}

// Option is a function setting a Calculator option.
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

// WithLogger enables logging within the calculator.
func WithLogger(logger *logger.Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithClock sets the time source of the profile updates.
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.clock = clock
	}
}

// Calculator computes the influence of voters and keeps their weight profiles up to date.
type Calculator struct {
	syncutils.RWMutex
	*utils.WrappedLogger

	clock func() time.Time

	reputationSlot   *storage.Slot
	activitySlot     *storage.Slot
	contributionSlot *storage.Slot

	reputation   map[string]*Reputation
	activity     map[string]*Activity
	contribution map[string]*Contribution
}

// NewCalculator creates a calculator and loads the persisted profiles.
func NewCalculator(store kvstore.KVStore, opts ...Option) *Calculator {
	options := &Options{}
	options.apply(defaultOptions...)
	options.apply(opts...)

	c := &Calculator{
		WrappedLogger:    utils.NewWrappedLogger(options.logger),
		clock:            options.clock,
		reputationSlot:   storage.NewSlot(store, storage.StorePrefixReputation, "reputation"),
		activitySlot:     storage.NewSlot(store, storage.StorePrefixActivity, "activity"),
		contributionSlot: storage.NewSlot(store, storage.StorePrefixContribution, "contribution"),
		reputation:       make(map[string]*Reputation),
		activity:         make(map[string]*Activity),
		contribution:     make(map[string]*Contribution),
	}

	c.loadSlot(c.reputationSlot, &c.reputation, func() { c.reputation = make(map[string]*Reputation) })
	c.loadSlot(c.activitySlot, &c.activity, func() { c.activity = make(map[string]*Activity) })
	c.loadSlot(c.contributionSlot, &c.contribution, func() { c.contribution = make(map[string]*Contribution) })

	// a stored "null" decodes into a nil map
	if c.reputation == nil {
		c.reputation = make(map[string]*Reputation)
	}
	if c.activity == nil {
		c.activity = make(map[string]*Activity)
	}
	if c.contribution == nil {
		c.contribution = make(map[string]*Contribution)
	}
	c.sanitize()

	return c
}

// sanitize drops empty profiles and clamps the values of the loaded ones.
func (c *Calculator) sanitize() {
	for identity, r := range c.reputation {
		if r == nil {
			delete(c.reputation, identity)
			continue
		}
		r.Value = clamp(r.Value)
		r.History = compactHistory(r.History)
	}
	for identity, a := range c.activity {
		if a == nil {
			delete(c.activity, identity)
			continue
		}
		a.Value = clamp(a.Value)
		a.History = compactHistory(a.History)
	}
	for identity, co := range c.contribution {
		if co == nil {
			delete(c.contribution, identity)
			continue
		}
		co.Value = clamp(co.Value)
		co.History = compactHistory(co.History)
	}
}

func (c *Calculator) loadSlot(slot *storage.Slot, target interface{}, reset func()) {
	if _, err := slot.Load(target); err != nil {
		c.LogWarnf("unable to load weight profiles, starting empty: %s", err)
		reset()
	}
}

func (c *Calculator) persist(slot *storage.Slot, v interface{}) {
	if err := slot.Store(v); err != nil {
		c.LogErrorf("unable to persist weight profiles: %s", err)
	}
}

// Weight returns the influence of an identity under the given scheme.
// Quadratic weighting happens when the vote is cast, so it weighs 1.0 here.
func (c *Calculator) Weight(identity string, scheme Scheme) float64 {
	c.RLock()
	defer c.RUnlock()

	switch scheme {
	case SchemeActivity:
		if a, exists := c.activity[identity]; exists {
			return a.Value
		}
	case SchemeContribution:
		if co, exists := c.contribution[identity]; exists {
			return co.Value
		}
	case SchemeReputation:
		if r, exists := c.reputation[identity]; exists {
			return r.Value
		}
	}
	return DefaultWeight
}

// Profile returns the weight values of an identity.
func (c *Calculator) Profile(identity string) *Profile {
	return &Profile{
		Reputation:   c.Weight(identity, SchemeReputation),
		Activity:     c.Weight(identity, SchemeActivity),
		Contribution: c.Weight(identity, SchemeContribution),
	}
}

func (c *Calculator) activityOf(identity string) *Activity {
	a, exists := c.activity[identity]
	if !exists {
		a = &Activity{Value: DefaultWeight}
		c.activity[identity] = a
	}
	return a
}

func (c *Calculator) contributionOf(identity string) *Contribution {
	co, exists := c.contribution[identity]
	if !exists {
		co = &Contribution{Value: DefaultWeight}
		c.contribution[identity] = co
	}
	return co
}

func (c *Calculator) reputationOf(identity string) *Reputation {
	r, exists := c.reputation[identity]
	if !exists {
		r = &Reputation{Value: DefaultWeight}
		c.reputation[identity] = r
	}
	return r
}

// RecordLogin updates the activity of an identity after a login.
func (c *Calculator) RecordLogin(identity string) float64 {
	c.Lock()
	defer c.Unlock()

	now := c.clock()
	a := c.activityOf(identity)
	a.LoginCount++
	a.LastLogin = now

	value := c.updateActivity(a, now)
	c.persist(c.activitySlot, c.activity)
	return value
}

// RecordVote updates the activity of an identity after a vote.
func (c *Calculator) RecordVote(identity string) float64 {
	c.Lock()
	defer c.Unlock()

	now := c.clock()
	a := c.activityOf(identity)
	a.VoteCount++

	value := c.updateActivity(a, now)
	c.persist(c.activitySlot, c.activity)
	return value
}

func (c *Calculator) updateActivity(a *Activity, now time.Time) float64 {
	value := DefaultWeight

	if !a.LastLogin.IsZero() {
		switch since := now.Sub(a.LastLogin); {
		case since < recentLoginWindow:
			value += recentLoginBonus
		case since < earlierLoginWindow:
			value += earlierLoginBonus
		}
	}
	value += math.Min(maxVoteBonus, float64(a.VoteCount)/votesForFullBonus)

	value = clamp(value)
	a.History = appendHistory(a.History, &HistoryEntry{Timestamp: now, Delta: value - a.Value, Value: value})
	a.Value = value
	return value
}

// RecordProposal updates the contribution of an identity after it submitted a proposal.
func (c *Calculator) RecordProposal(identity string) float64 {
	c.Lock()
	defer c.Unlock()

	co := c.contributionOf(identity)
	co.ProposalCount++

	value := c.updateContribution(co)
	c.persist(c.contributionSlot, c.contribution)
	return value
}

// RecordProposalAccepted updates the contribution of an identity after one of its proposals was accepted.
func (c *Calculator) RecordProposalAccepted(identity string) float64 {
	c.Lock()
	defer c.Unlock()

	co := c.contributionOf(identity)
	co.AcceptedCount++
	if co.AcceptedCount > co.ProposalCount {
		co.ProposalCount = co.AcceptedCount
	}

	value := c.updateContribution(co)
	c.persist(c.contributionSlot, c.contribution)
	return value
}

func (c *Calculator) updateContribution(co *Contribution) float64 {
	value := DefaultWeight
	value += math.Min(maxProposalBonus, float64(co.ProposalCount)/proposalsForFullBonus)
	value += float64(co.AcceptedCount) * acceptedProposalBonus

	value = clamp(value)
	co.History = appendHistory(co.History, &HistoryEntry{Timestamp: c.clock(), Delta: value - co.Value, Value: value})
	co.Value = value
	return value
}

// RecordOutcome updates the reputation of an identity after a poll it voted on was decided.
// matched tells whether the identity voted for the winning option.
func (c *Calculator) RecordOutcome(identity string, matched bool) float64 {
	c.Lock()
	defer c.Unlock()

	r := c.reputationOf(identity)
	r.Outcomes++
	if matched {
		r.MatchedVotes++
	}

	consistencyRate := 0.5
	if r.Outcomes > 0 {
		consistencyRate = float64(r.MatchedVotes) / float64(r.Outcomes)
	}

	acceptanceRate := 0.0
	if co, exists := c.contribution[identity]; exists && co.ProposalCount > 0 {
		acceptanceRate = float64(co.AcceptedCount) / float64(co.ProposalCount)
	}

	delta := (consistencyRate-0.5)*consistencyFactor + acceptanceRate*acceptanceFactor
	value := clamp(r.Value + delta)

	r.History = appendHistory(r.History, &HistoryEntry{Timestamp: c.clock(), Delta: delta, Value: value})
	r.Value = value
	c.persist(c.reputationSlot, c.reputation)
	return value
}

// ReputationOf returns a copy of the reputation record of an identity.
func (c *Calculator) ReputationOf(identity string) (*Reputation, bool) {
	c.RLock()
	defer c.RUnlock()

	r, exists := c.reputation[identity]
	if !exists {
		return nil, false
	}
	cp := *r
	cp.History = append([]*HistoryEntry(nil), r.History...)
	return &cp, true
}

// ActivityOf returns a copy of the activity record of an identity.
func (c *Calculator) ActivityOf(identity string) (*Activity, bool) {
	c.RLock()
	defer c.RUnlock()

	a, exists := c.activity[identity]
	if !exists {
		return nil, false
	}
	cp := *a
	cp.History = append([]*HistoryEntry(nil), a.History...)
	return &cp, true
}

// ContributionOf returns a copy of the contribution record of an identity.
func (c *Calculator) ContributionOf(identity string) (*Contribution, bool) {
	c.RLock()
	defer c.RUnlock()

	co, exists := c.contribution[identity]
	if !exists {
		return nil, false
	}
	cp := *co
	cp.History = append([]*HistoryEntry(nil), co.History...)
	return &cp, true
}
