package poll

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gohornet/agora/pkg/model/storage"
	"github.com/gohornet/agora/pkg/utils"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/syncutils"
)

var (
	ErrPollNotFound  = errors.New("poll not found")
	ErrInvalidPoll   = errors.New("invalid poll")
	ErrPollEnded     = errors.New("poll has ended")
	ErrPollExecuted  = errors.New("poll was already executed")
	ErrInvalidOption = errors.New("invalid option")
	ErrAlreadyVoted  = errors.New("identity already voted on this poll")
	ErrLoginRequired = errors.New("an identity is required to vote")
	ErrDuplicatePoll = errors.New("poll already exists")
)

const (
	minOptionsPerPoll = 2
)

// Options define options for the Store.
type Options struct {
	logger *logger.Logger
	clock  func() time.Time
}

// StoreOption is a function setting a Store option.
type StoreOption func(opts *Options)

// applies the given StoreOption.
func (o *Options) apply(opts ...StoreOption) {
	for _, opt := range opts {
		opt(o)
	}
}

var defaultOptions = []StoreOption{
	WithLogger(nil),
	WithClock(time.Now),
}

// WithLogger enables logging within the store.
func WithLogger(logger *logger.Logger) StoreOption {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithClock sets the time source used to decide whether polls have ended.
func WithClock(clock func() time.Time) StoreOption {
	return func(opts *Options) {
		opts.clock = clock
	}
}

// Store is the ordered collection of all polls.
// Vote submission is the only mutation path meant for users.
type Store struct {
	// lock used to secure the state of the store.
	syncutils.RWMutex
	*utils.WrappedLogger

	slot  *storage.Slot
	clock func() time.Time

	polls []*Poll
	byID  map[string]*Poll

	Events *Events
}

// NewStore creates a poll store and loads the persisted polls.
func NewStore(store kvstore.KVStore, opts ...StoreOption) *Store {
	options := &Options{}
	options.apply(defaultOptions...)
	options.apply(opts...)

	s := &Store{
		WrappedLogger: utils.NewWrappedLogger(options.logger),
		slot:          storage.NewSlot(store, storage.StorePrefixPolls, "polls"),
		clock:         options.clock,
		byID:          make(map[string]*Poll),
		Events:        newEvents(),
	}
	s.load()

	return s
}

func (s *Store) load() {
	var polls []*Poll
	found, err := s.slot.Load(&polls)
	if err != nil {
		s.LogWarnf("unable to load polls, starting empty: %s", err)
		return
	}
	if !found {
		return
	}
	s.setPolls(polls)
}

// setPolls replaces the content of the store, dropping invalid and duplicate entries.
func (s *Store) setPolls(polls []*Poll) {
	s.polls = make([]*Poll, 0, len(polls))
	s.byID = make(map[string]*Poll, len(polls))

	for _, p := range polls {
		if p == nil || p.ID == "" {
			continue
		}
		if _, exists := s.byID[p.ID]; exists {
			continue
		}
		normalize(p)
		s.polls = append(s.polls, p)
		s.byID[p.ID] = p
	}
}

func normalize(p *Poll) {
	options := p.Options[:0]
	for _, option := range p.Options {
		if option == nil {
			continue
		}
		if option.Votes < 0 {
			option.Votes = 0
		}
		options = append(options, option)
	}
	p.Options = options

	if p.Ballots == nil {
		p.Ballots = make(map[string]int)
	}
}

// persist writes the store. Write failures are logged, the in-memory state stays authoritative.
func (s *Store) persist() {
	if err := s.slot.Store(s.polls); err != nil {
		s.LogErrorf("unable to persist polls: %s", err)
	}
}

// Add stores a new poll. Missing IDs and creation times are filled in.
func (s *Store) Add(p *Poll) (*Poll, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, errors.Wrap(ErrInvalidPoll, "title is required")
	}
	if len(p.Options) < minOptionsPerPoll {
		return nil, errors.Wrapf(ErrInvalidPoll, "at least %d options are required", minOptionsPerPoll)
	}
	if p.IsParameterPoll && (p.ParameterCategory == "" || p.ParameterName == "") {
		return nil, errors.Wrap(ErrInvalidPoll, "parameter polls need a category and a name")
	}

	p = p.Clone()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.clock()
	}
	normalize(p)

	s.Lock()
	if _, exists := s.byID[p.ID]; exists {
		s.Unlock()
		return nil, errors.Wrapf(ErrDuplicatePoll, "id %s", p.ID)
	}
	s.polls = append(s.polls, p)
	s.byID[p.ID] = p
	s.persist()
	created := p.Clone()
	s.Unlock()

	s.Events.PollCreated.Trigger(created)
	return created, nil
}

// Poll returns a copy of the poll with the given ID.
func (s *Store) Poll(id string) (*Poll, error) {
	s.RLock()
	defer s.RUnlock()

	p, exists := s.byID[id]
	if !exists {
		return nil, errors.Wrapf(ErrPollNotFound, "id %s", id)
	}
	return p.Clone(), nil
}

// Polls returns copies of all polls in creation order.
func (s *Store) Polls() []*Poll {
	return s.filter(func(*Poll) bool { return true })
}

func (s *Store) filter(keep func(p *Poll) bool) []*Poll {
	s.RLock()
	defer s.RUnlock()

	polls := make([]*Poll, 0, len(s.polls))
	for _, p := range s.polls {
		if keep(p) {
			polls = append(polls, p.Clone())
		}
	}
	return polls
}

// PendingParameterPolls returns all parameter polls that were not executed yet, including ended ones.
func (s *Store) PendingParameterPolls() []*Poll {
	return s.filter(func(p *Poll) bool { return p.IsParameterPoll && !p.Executed })
}

// ActiveParameterPoll returns the running, not executed poll governing the parameter.
func (s *Store) ActiveParameterPoll(category string, name string) (*Poll, bool) {
	now := s.clock()
	polls := s.filter(func(p *Poll) bool { return p.Governs(category, name) && p.IsActive(now) })
	if len(polls) == 0 {
		return nil, false
	}
	return polls[0], true
}

// CountActiveByCreator returns the amount of running polls created by the identity.
func (s *Store) CountActiveByCreator(creator string) int {
	now := s.clock()
	return len(s.filter(func(p *Poll) bool { return p.CreatedBy == creator && p.IsActive(now) }))
}

// FindByTitle returns the first poll whose title equals or contains the given title.
func (s *Store) FindByTitle(title string) (*Poll, error) {
	polls := s.filter(func(p *Poll) bool { return p.Title == title || strings.Contains(p.Title, title) })
	if len(polls) == 0 || title == "" {
		return nil, errors.Wrapf(ErrPollNotFound, "title %q", title)
	}
	return polls[0], nil
}

// SubmitVote casts the vote of an identity on an option.
// It returns the poll after the vote. Rejected votes leave the store untouched.
func (s *Store) SubmitVote(pollID string, optionIndex int, voter string) (*Poll, error) {
	if voter == "" {
		return nil, ErrLoginRequired
	}

	s.Lock()

	p, exists := s.byID[pollID]
	if !exists {
		s.Unlock()
		return nil, errors.Wrapf(ErrPollNotFound, "id %s", pollID)
	}

	now := s.clock()
	if p.HasEnded(now) {
		s.Unlock()
		return nil, errors.Wrapf(ErrPollEnded, "poll %q ended at %s", p.Title, p.EndDate.Format(time.RFC3339))
	}
	if optionIndex < 0 || optionIndex >= len(p.Options) {
		s.Unlock()
		return nil, errors.Wrapf(ErrInvalidOption, "option %d of poll %q", optionIndex, p.Title)
	}
	if p.HasVoted(voter) {
		s.Unlock()
		return nil, errors.Wrapf(ErrAlreadyVoted, "poll %q", p.Title)
	}

	p.Options[optionIndex].Votes++
	p.Voters = append(p.Voters, voter)
	p.Ballots[voter] = optionIndex
	s.persist()

	vote := &Vote{
		PollID:      pollID,
		OptionIndex: optionIndex,
		Voter:       voter,
		Timestamp:   now,
	}
	updated := p.Clone()
	s.Unlock()

	s.Events.VoteSubmitted.Trigger(vote, updated)
	return updated, nil
}

// MarkExecuted sets the terminal executed flag of a poll.
// It returns false if the poll was executed before.
func (s *Store) MarkExecuted(pollID string) (bool, error) {
	s.Lock()

	p, exists := s.byID[pollID]
	if !exists {
		s.Unlock()
		return false, errors.Wrapf(ErrPollNotFound, "id %s", pollID)
	}
	if p.Executed {
		s.Unlock()
		return false, nil
	}

	p.Executed = true
	s.persist()
	executed := p.Clone()
	s.Unlock()

	s.Events.PollExecuted.Trigger(executed)
	return true, nil
}

// Delete removes a poll.
func (s *Store) Delete(pollID string) error {
	s.Lock()

	p, exists := s.byID[pollID]
	if !exists {
		s.Unlock()
		return errors.Wrapf(ErrPollNotFound, "id %s", pollID)
	}

	for i, candidate := range s.polls {
		if candidate.ID == pollID {
			s.polls = append(s.polls[:i], s.polls[i+1:]...)
			break
		}
	}
	delete(s.byID, pollID)
	s.persist()
	s.Unlock()

	s.LogInfof("deleted poll %s (%q)", p.ID, p.Title)
	s.Events.PollDeleted.Trigger(p)
	return nil
}

// ReplaceAll replaces every poll in the store.
func (s *Store) ReplaceAll(polls []*Poll) {
	cloned := make([]*Poll, 0, len(polls))
	for _, p := range polls {
		if p != nil {
			cloned = append(cloned, p.Clone())
		}
	}

	s.Lock()
	s.setPolls(cloned)
	s.persist()
	s.Unlock()

	s.Events.PollsReplaced.Trigger()
}
