package governance

import (
	"strconv"
	"time"

	"github.com/gohornet/agora/pkg/model/consensus"
	"github.com/gohornet/agora/pkg/model/parameter"
	"github.com/gohornet/agora/pkg/model/poll"
	"github.com/gohornet/agora/pkg/model/weight"
)

// ExecutionPolicy decides when the pipeline commits a decided poll.
type ExecutionPolicy struct {
	// Manual polls are only committed by ExecutePoll.
	Manual bool
	// Delay after the end of the poll. Zero commits as soon as consensus is reached.
	Delay time.Duration
}

var executeDelays = map[string]time.Duration{
	parameter.ValueImmediate: 0,
	"1hour":                  time.Hour,
	"1day":                   24 * time.Hour,
}

func (e *Engine) setting(category string, name string, def string) string {
	return e.registry.CurrentOrDefault(category, name, def)
}

// Scheme returns the weight scheme the voting system currently uses.
func (e *Engine) Scheme() weight.Scheme {
	scheme, err := weight.ParseScheme(e.setting(parameter.CategoryVotingSystem, parameter.NameWeightSystem, string(weight.SchemeEqual)))
	if err != nil {
		e.LogWarnf("%s, using %s", err, weight.SchemeEqual)
		return weight.SchemeEqual
	}
	return scheme
}

// Algorithm returns the consensus algorithm the voting system currently uses.
func (e *Engine) Algorithm() consensus.Algorithm {
	algorithm, err := consensus.ParseAlgorithm(e.setting(parameter.CategoryVotingSystem, parameter.NameConsensusAlgorithm, string(consensus.AlgorithmMajority)))
	if err != nil {
		e.LogWarnf("%s, using %s", err, consensus.AlgorithmMajority)
		return consensus.AlgorithmMajority
	}
	return algorithm
}

// LiveResultsEnabled tells whether running polls preview their leading value.
func (e *Engine) LiveResultsEnabled() bool {
	return e.setting(parameter.CategoryFeatures, parameter.NameLiveResults, parameter.ValueEnabled) == parameter.ValueEnabled
}

// AnonymousVotingEnabled tells whether votes without an identity are accepted.
func (e *Engine) AnonymousVotingEnabled() bool {
	return e.setting(parameter.CategoryFeatures, parameter.NameAnonymousVoting, parameter.ValueDisabled) == parameter.ValueEnabled
}

// ExecutionPolicy returns when decided polls are committed.
func (e *Engine) ExecutionPolicy() ExecutionPolicy {
	value := e.setting(parameter.CategorySystem, parameter.NameAutoExecuteDelay, parameter.ValueImmediate)
	if value == parameter.ValueManual {
		return ExecutionPolicy{Manual: true}
	}

	delay, exists := executeDelays[value]
	if !exists {
		e.LogWarnf("unknown auto execute delay %q, executing immediately", value)
	}
	return ExecutionPolicy{Delay: delay}
}

// ready tells whether the policy allows committing the poll.
func (ep ExecutionPolicy) ready(p *poll.Poll, now time.Time) bool {
	if ep.Manual {
		return false
	}
	if ep.Delay == 0 {
		return true
	}
	return !now.Before(p.EndDate.Add(ep.Delay))
}

// MaxPollsPerUser returns the amount of running polls a creator may have. False means unlimited.
func (e *Engine) MaxPollsPerUser() (int, bool) {
	value := e.setting(parameter.CategorySystem, parameter.NameMaxPollsPerUser, parameter.ValueUnlimited)
	if value == parameter.ValueUnlimited {
		return 0, false
	}

	limit, err := strconv.Atoi(value)
	if err != nil || limit < 1 {
		e.LogWarnf("invalid max polls per user %q, not limiting", value)
		return 0, false
	}
	return limit, true
}

// DefaultPollDuration returns how long a poll runs if no end date is given.
func (e *Engine) DefaultPollDuration() time.Duration {
	duration := poll.ParseDuration(e.setting(parameter.CategorySystem, parameter.NameDefaultPollDuration, ""))
	if duration <= 0 {
		return poll.DefaultDurationSeconds * time.Second
	}
	return duration
}
