package governance

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/gohornet/agora/pkg/model/applier"
	"github.com/gohornet/agora/pkg/model/consensus"
	"github.com/gohornet/agora/pkg/model/poll"
)

// ResolvePoll evaluates a poll with the weight scheme and consensus algorithm currently in place.
// It does not change any state.
func (e *Engine) ResolvePoll(p *poll.Poll) *consensus.Result {
	return e.resolver.Resolve(p, e.Scheme(), e.Algorithm())
}

// ResolveAll runs one resolution pass over every poll and returns the amount of committed parameters.
func (e *Engine) ResolveAll() int {
	e.pipelineLock.Lock()
	defer e.pipelineLock.Unlock()

	e.metrics.ResolutionPasses.Inc()
	e.applier.ExpirePreview()

	now := e.clock()
	polls := e.polls.Polls()

	seen := make(map[string]struct{}, len(polls))
	committed := 0
	for _, p := range polls {
		seen[p.ID] = struct{}{}
		if _, applied := e.resolve(p, now, false); applied {
			committed++
		}
	}

	for id := range e.lastResults {
		if _, exists := seen[id]; !exists {
			delete(e.lastResults, id)
		}
	}

	return committed
}

// resolve evaluates one poll and acts on the result. The pipeline must be locked.
// voted is set if the pass was caused by a vote on the poll.
func (e *Engine) resolve(p *poll.Poll, now time.Time, voted bool) (*consensus.Result, bool) {
	result := e.ResolvePoll(p)
	e.publishResult(p, result)

	if decided, ok := e.proposals.HandleResultsChanged(p, result, now); ok {
		e.LogInfof("proposal %q %s", decided.Title, decided.Status)
	}

	if !p.IsParameterPoll || p.Executed {
		return result, false
	}

	if !result.HasLeader() {
		// the vote took the lead away from the previewed option
		if voted && e.applier.CancelPollPreview(p.ID) {
			e.LogDebugf("poll %s lost its leader, preview reverted", p.ID)
		}
		return result, false
	}

	if result.ConsensusReached && e.ExecutionPolicy().ready(p, now) {
		return result, e.commit(p, result, p.HasEnded(now))
	}

	if voted && !p.HasEnded(now) && e.LiveResultsEnabled() {
		e.previewLeader(p, result)
	}
	return result, false
}

// publishResult triggers ResultsChanged if the result differs from the last one of the poll.
func (e *Engine) publishResult(p *poll.Poll, result *consensus.Result) {
	fingerprint := fmt.Sprintf("%v|%s|%s|%t", result.Counts, result.Algorithm, result.Scheme, p.Executed)
	if e.lastResults[p.ID] == fingerprint {
		return
	}
	e.lastResults[p.ID] = fingerprint
	e.Events.ResultsChanged.Trigger(p, result)
}

// committedValue returns the value of the parameter ignoring a running preview.
func (e *Engine) committedValue(category string, name string) string {
	return e.applier.CommittedSnapshot()[category][name]
}

// commit applies the leader of a decided poll.
// An ended poll whose leader is the current value already is marked executed without a change record.
func (e *Engine) commit(p *poll.Poll, result *consensus.Result, ended bool) bool {
	applied, err := e.applier.Apply(p, result)
	if err != nil {
		e.LogWarnf("unable to apply poll %s: %s", p.ID, err)
		return false
	}
	if applied {
		e.metrics.ParametersApplied.Inc()
		e.rewardVoters(p, result)
		return true
	}

	if !ended {
		return false
	}

	value, ok := e.applier.TargetValue(p, result)
	if !ok || e.committedValue(p.ParameterCategory, p.ParameterName) != value {
		return false
	}

	marked, err := e.polls.MarkExecuted(p.ID)
	if err != nil {
		e.LogWarnf("unable to mark poll %s executed: %s", p.ID, err)
		return false
	}
	if marked {
		e.LogInfof("poll %q confirmed %s without a change", p.Title, value)
		e.rewardVoters(p, result)
	}
	return false
}

// rewardVoters updates the reputation of everyone who voted on the poll.
func (e *Engine) rewardVoters(p *poll.Poll, result *consensus.Result) {
	for voter, index := range p.Ballots {
		e.weights.RecordOutcome(voter, index == result.LeadingIndex)
	}
}

// previewLeader temporarily applies the leading value of a running poll.
func (e *Engine) previewLeader(p *poll.Poll, result *consensus.Result) {
	value, ok := e.applier.TargetValue(p, result)
	if !ok || e.committedValue(p.ParameterCategory, p.ParameterName) == value {
		return
	}

	if _, err := e.applier.Preview(p.ParameterCategory, p.ParameterName, value, p.ID); err != nil {
		e.LogDebugf("no live preview for poll %s: %s", p.ID, err)
	}
}

// ExecutePoll commits the leader of a parameter poll regardless of the execution policy.
// It returns false if the poll has no single leader or the value did not change.
func (e *Engine) ExecutePoll(pollID string) (bool, error) {
	e.pipelineLock.Lock()
	defer e.pipelineLock.Unlock()

	p, err := e.polls.Poll(pollID)
	if err != nil {
		return false, err
	}
	if !p.IsParameterPoll {
		return false, errors.Wrapf(applier.ErrNotParameterPoll, "poll %s", pollID)
	}
	if p.Executed {
		return false, errors.Wrapf(poll.ErrPollExecuted, "poll %s", pollID)
	}

	result := e.ResolvePoll(p)
	if !result.HasLeader() {
		e.applier.CancelPollPreview(p.ID)
		return false, nil
	}
	return e.commit(p, result, true), nil
}

// PreviewOption temporarily applies the value an option of a parameter poll stands for.
func (e *Engine) PreviewOption(pollID string, optionIndex int) (*applier.Preview, error) {
	p, err := e.polls.Poll(pollID)
	if err != nil {
		return nil, err
	}
	if !p.IsParameterPoll {
		return nil, errors.Wrapf(applier.ErrNotParameterPoll, "poll %s", pollID)
	}
	if optionIndex < 0 || optionIndex >= len(p.Options) {
		return nil, errors.Wrapf(poll.ErrInvalidOption, "option %d of poll %q", optionIndex, p.Title)
	}

	value := e.registry.ValueFromLabel(p.ParameterName, p.Options[optionIndex].Text)
	return e.applier.Preview(p.ParameterCategory, p.ParameterName, value, p.ID)
}
