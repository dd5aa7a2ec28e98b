package governance

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gohornet/agora/pkg/model/consensus"
	"github.com/gohornet/agora/pkg/model/history"
	"github.com/gohornet/agora/pkg/model/poll"
)

const (
	// ParameterPollTitlePrefix prefixes the title of polls created for a parameter.
	ParameterPollTitlePrefix = "Parameter poll: "
)

// SubmitVote casts a vote and resolves the poll right away.
// An empty identity votes anonymously if anonymous voting is enabled.
// It returns the poll after the vote together with its result.
func (e *Engine) SubmitVote(pollID string, optionIndex int, identity string) (*poll.Poll, *consensus.Result, error) {
	if identity == "" {
		if !e.AnonymousVotingEnabled() {
			return nil, nil, poll.ErrLoginRequired
		}
		identity = AnonymousIdentityPrefix + uuid.New().String()
	}

	if _, err := e.polls.SubmitVote(pollID, optionIndex, identity); err != nil {
		return nil, nil, err
	}
	e.metrics.Votes.Inc()
	e.weights.RecordVote(identity)

	e.pipelineLock.Lock()
	defer e.pipelineLock.Unlock()

	// other passes may have run since the vote
	p, err := e.polls.Poll(pollID)
	if err != nil {
		return nil, nil, err
	}
	result, _ := e.resolve(p, e.clock(), true)

	if p, err = e.polls.Poll(pollID); err != nil {
		return nil, nil, err
	}
	return p, result, nil
}

func (e *Engine) checkPollLimit(creator string) error {
	if creator == "" {
		return nil
	}

	limit, limited := e.MaxPollsPerUser()
	if !limited {
		return nil
	}
	if running := e.polls.CountActiveByCreator(creator); running >= limit {
		return errors.Wrapf(ErrTooManyPolls, "%s has %d running polls, the limit is %d", creator, running, limit)
	}
	return nil
}

func (e *Engine) endDate(endDate *time.Time) time.Time {
	if endDate != nil && !endDate.IsZero() {
		return *endDate
	}
	return e.clock().Add(e.DefaultPollDuration())
}

// CreateParameterPoll opens a poll deciding a parameter.
// Without option labels the labels of all parameter options are used. Without end date the poll
// runs for the default poll duration. A running poll on the same parameter is returned instead of a new one.
func (e *Engine) CreateParameterPoll(category string, name string, optionLabels []string, endDate *time.Time, creator string) (*poll.Poll, error) {
	if _, err := e.registry.Parameter(category, name); err != nil {
		return nil, err
	}

	if existing, found := e.polls.ActiveParameterPoll(category, name); found {
		return existing, nil
	}

	if err := e.checkPollLimit(creator); err != nil {
		return nil, err
	}

	if len(optionLabels) == 0 {
		labels, err := e.registry.OptionLabels(category, name)
		if err != nil {
			return nil, err
		}
		optionLabels = labels
	}

	options := make([]*poll.Option, len(optionLabels))
	for i, label := range optionLabels {
		options[i] = &poll.Option{Text: label}
	}

	p, err := e.polls.Add(&poll.Poll{
		Title:             ParameterPollTitlePrefix + e.registry.DisplayName(name),
		Options:           options,
		EndDate:           e.endDate(endDate),
		IsParameterPoll:   true,
		ParameterCategory: category,
		ParameterName:     name,
		CreatedBy:         creator,
	})
	if err != nil {
		return nil, err
	}

	e.metrics.PollsCreated.Inc()
	e.LogInfof("created parameter poll %q until %s", p.Title, p.EndDate.Format(time.RFC3339))
	return p, nil
}

// CreatePoll opens a poll that does not govern a parameter.
func (e *Engine) CreatePoll(title string, optionTexts []string, endDate *time.Time, creator string) (*poll.Poll, error) {
	if err := e.checkPollLimit(creator); err != nil {
		return nil, err
	}

	options := make([]*poll.Option, len(optionTexts))
	for i, text := range optionTexts {
		options[i] = &poll.Option{Text: text}
	}

	p, err := e.polls.Add(&poll.Poll{
		Title:     title,
		Options:   options,
		EndDate:   e.endDate(endDate),
		CreatedBy: creator,
	})
	if err != nil {
		return nil, err
	}

	e.metrics.PollsCreated.Inc()
	return p, nil
}

// DeletePoll removes a poll.
func (e *Engine) DeletePoll(pollID string) error {
	return e.polls.Delete(pollID)
}

// FindPollByTitle returns the first poll whose title contains the given one.
func (e *Engine) FindPollByTitle(title string) (*poll.Poll, error) {
	return e.polls.FindByTitle(title)
}

// RecordLogin registers a login of the identity and returns its activity weight.
func (e *Engine) RecordLogin(identity string) (float64, error) {
	if identity == "" {
		return 0, poll.ErrLoginRequired
	}
	return e.weights.RecordLogin(identity), nil
}

// ChangeHistory returns the recorded parameter changes, newest first.
func (e *Engine) ChangeHistory() []*history.ChangeRecord {
	return e.ledger.List()
}

// ClearChangeHistory removes all recorded parameter changes.
func (e *Engine) ClearChangeHistory() {
	e.ledger.Clear()
}
