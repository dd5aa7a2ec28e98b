package governance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gohornet/agora/pkg/governance"
	"github.com/gohornet/agora/pkg/governance/test"
	"github.com/gohornet/agora/pkg/model/consensus"
	"github.com/gohornet/agora/pkg/model/parameter"
	"github.com/gohornet/agora/pkg/model/poll"
	"github.com/gohornet/agora/pkg/model/proposal"
	"github.com/gohornet/agora/pkg/model/weight"
	"github.com/iotaledger/hive.go/events"
)

const delta = 1e-9

func voters(prefix string, count int) []string {
	names := make([]string, count)
	for i := range names {
		names[i] = prefix + string(rune('a'+i))
	}
	return names
}

func TestColorSchemeScenario(t *testing.T) {
	env := test.NewGovernanceTestEnv(t)
	env.SetParameter(parameter.CategorySystem, parameter.NameAutoExecuteDelay, "1hour")
	env.SetParameter(parameter.CategoryFeatures, parameter.NameLiveResults, parameter.ValueDisabled)

	p := env.ParameterPoll(parameter.CategoryUI, parameter.NameColorScheme, time.Hour, "Blue", "Green")
	require.Equal(t, governance.ParameterPollTitlePrefix+"Color Scheme", p.Title)

	env.Vote(p.ID, 0, voters("blue-", 3)...)
	_, result := env.Vote(p.ID, 1, voters("green-", 7)...)
	require.Equal(t, "Green", result.LeadingOption)
	require.True(t, result.ConsensusReached)

	// decided polls wait for the end date plus the delay
	require.Equal(t, "blue", env.Current(parameter.CategoryUI, parameter.NameColorScheme))
	env.Advance(90 * time.Minute)
	require.Equal(t, 0, env.Engine().ResolveAll())
	require.Equal(t, "blue", env.Current(parameter.CategoryUI, parameter.NameColorScheme))

	env.Advance(time.Hour)
	require.Equal(t, 1, env.Engine().ResolveAll())
	require.Equal(t, "green", env.Current(parameter.CategoryUI, parameter.NameColorScheme))

	records := env.Engine().ChangeHistory()
	require.Len(t, records, 1)
	require.Equal(t, "blue", records[0].OldValue)
	require.Equal(t, "green", records[0].NewValue)
	require.Equal(t, p.Title, records[0].PollTitle)
	require.True(t, env.Poll(p.ID).Executed)

	// further passes do nothing
	require.Equal(t, 0, env.Engine().ResolveAll())
	require.Len(t, env.Engine().ChangeHistory(), 1)

	// winners gained reputation, the others lost some
	require.Greater(t, env.Engine().Weights().Weight("green-a", weight.SchemeReputation), weight.DefaultWeight)
	require.Less(t, env.Engine().Weights().Weight("blue-a", weight.SchemeReputation), weight.DefaultWeight)

	env.Restart()
	require.Equal(t, "green", env.Current(parameter.CategoryUI, parameter.NameColorScheme))
	require.Len(t, env.Engine().ChangeHistory(), 1)
	require.True(t, env.Poll(p.ID).Executed)
	require.Equal(t, 0, env.Engine().ResolveAll())
}

func TestImmediateExecution(t *testing.T) {
	env := test.NewGovernanceTestEnv(t)

	changed := 0
	closure := events.NewClosure(func(*poll.Poll, *consensus.Result) { changed++ })
	env.Engine().Events.ResultsChanged.Attach(closure)
	defer env.Engine().Events.ResultsChanged.Detach(closure)

	p := env.ParameterPoll(parameter.CategoryUI, parameter.NameLayout, 24*time.Hour)
	require.Equal(t, []string{"Standard", "Compact", "Wide", "Minimal"}, optionTexts(p))

	// the leader is the current value, nothing to commit yet
	p, _ = env.Vote(p.ID, 0, "alice")
	require.False(t, p.Executed)

	p, _ = env.Vote(p.ID, 2, "bob", "carol")
	require.True(t, p.Executed)
	require.Equal(t, "wide", env.Current(parameter.CategoryUI, parameter.NameLayout))
	require.Equal(t, 3, changed)

	// executed polls still take votes but never apply again
	p, _ = env.Vote(p.ID, 1, "dave", "erin", "frank")
	require.Equal(t, "wide", env.Current(parameter.CategoryUI, parameter.NameLayout))
	require.Len(t, env.Engine().ChangeHistory(), 1)

	_, _, err := env.Engine().SubmitVote(p.ID, 1, "alice")
	require.ErrorIs(t, err, poll.ErrAlreadyVoted)
	_, _, err = env.Engine().SubmitVote(p.ID, 7, "zoe")
	require.ErrorIs(t, err, poll.ErrInvalidOption)

	env.Advance(24 * time.Hour)
	_, _, err = env.Engine().SubmitVote(p.ID, 1, "zoe")
	require.ErrorIs(t, err, poll.ErrPollEnded)

	require.EqualValues(t, 6, env.Engine().Metrics().Votes.Load())
	require.EqualValues(t, 1, env.Engine().Metrics().ParametersApplied.Load())
}

func optionTexts(p *poll.Poll) []string {
	texts := make([]string, len(p.Options))
	for i, option := range p.Options {
		texts[i] = option.Text
	}
	return texts
}

func TestTieNeverApplies(t *testing.T) {
	env := test.NewGovernanceTestEnv(t)
	env.SetParameter(parameter.CategorySystem, parameter.NameAutoExecuteDelay, parameter.ValueManual)

	p := env.ParameterPoll(parameter.CategoryUI, parameter.NameFontSize, time.Hour, "Small", "Large")
	env.Vote(p.ID, 0, "alice")
	preview, previewing := env.Engine().Applier().ActivePreview()
	require.True(t, previewing)
	require.Equal(t, "small", preview.Value)

	// the tying vote reverts the preview of the former leader
	_, result := env.Vote(p.ID, 1, "bob")
	require.True(t, result.IsTie)
	_, previewing = env.Engine().Applier().ActivePreview()
	require.False(t, previewing)
	require.Equal(t, "medium", env.Current(parameter.CategoryUI, parameter.NameFontSize))

	env.SetParameter(parameter.CategorySystem, parameter.NameAutoExecuteDelay, parameter.ValueImmediate)
	env.Advance(2 * time.Hour)
	require.Equal(t, 0, env.Engine().ResolveAll())

	applied, err := env.Engine().ExecutePoll(p.ID)
	require.NoError(t, err)
	require.False(t, applied)

	require.Equal(t, "medium", env.Current(parameter.CategoryUI, parameter.NameFontSize))
	require.False(t, env.Poll(p.ID).Executed)
	require.Empty(t, env.Engine().ChangeHistory())
}

func TestSupermajorityThreshold(t *testing.T) {
	env := test.NewGovernanceTestEnv(t)
	env.SetParameter(parameter.CategoryVotingSystem, parameter.NameConsensusAlgorithm, string(consensus.AlgorithmSupermajority))
	env.SetParameter(parameter.CategorySystem, parameter.NameAutoExecuteDelay, "1hour")

	undecided := env.ParameterPoll(parameter.CategoryUI, parameter.NameColorScheme, time.Hour, "Blue", "Green")
	env.Vote(undecided.ID, 1, "a", "b")
	_, result := env.Vote(undecided.ID, 0, "c")
	require.Equal(t, "Green", result.LeadingOption)
	require.False(t, result.ConsensusReached)

	decided := env.ParameterPoll(parameter.CategoryUI, parameter.NameFontSize, time.Hour, "Medium", "Large")
	env.Vote(decided.ID, 1, "a", "b", "c")
	env.Vote(decided.ID, 0, "d")

	env.Advance(3 * time.Hour)
	require.Equal(t, 1, env.Engine().ResolveAll())

	require.Equal(t, "blue", env.Current(parameter.CategoryUI, parameter.NameColorScheme))
	require.Equal(t, "large", env.Current(parameter.CategoryUI, parameter.NameFontSize))
	require.False(t, env.Poll(undecided.ID).Executed)
}

func TestManualExecution(t *testing.T) {
	env := test.NewGovernanceTestEnv(t)
	env.SetParameter(parameter.CategorySystem, parameter.NameAutoExecuteDelay, parameter.ValueManual)
	env.SetParameter(parameter.CategoryFeatures, parameter.NameLiveResults, parameter.ValueDisabled)

	p := env.ParameterPoll(parameter.CategoryAds, "frequency", time.Hour, "Low", "High")
	env.Vote(p.ID, 0, "alice", "bob")

	env.Advance(2 * time.Hour)
	require.Equal(t, 0, env.Engine().ResolveAll())
	require.Equal(t, "moderate", env.Current(parameter.CategoryAds, "frequency"))

	applied, err := env.Engine().ExecutePoll(p.ID)
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, "low", env.Current(parameter.CategoryAds, "frequency"))

	_, err = env.Engine().ExecutePoll(p.ID)
	require.ErrorIs(t, err, poll.ErrPollExecuted)
	_, err = env.Engine().ExecutePoll("unknown")
	require.ErrorIs(t, err, poll.ErrPollNotFound)
}

func TestEndedPollConfirmsCurrentValue(t *testing.T) {
	env := test.NewGovernanceTestEnv(t)
	env.SetParameter(parameter.CategorySystem, parameter.NameAutoExecuteDelay, "1hour")

	p := env.ParameterPoll(parameter.CategoryUI, parameter.NameColorScheme, time.Hour, "Blue", "Green")
	env.Vote(p.ID, 0, "alice", "bob")

	env.Advance(3 * time.Hour)
	require.Equal(t, 0, env.Engine().ResolveAll())
	require.True(t, env.Poll(p.ID).Executed)
	require.Empty(t, env.Engine().ChangeHistory())
	require.Greater(t, env.Engine().Weights().Weight("alice", weight.SchemeReputation), weight.DefaultWeight)
}

func TestLiveResultsPreview(t *testing.T) {
	env := test.NewGovernanceTestEnv(t)
	env.SetParameter(parameter.CategorySystem, parameter.NameAutoExecuteDelay, parameter.ValueManual)

	p := env.ParameterPoll(parameter.CategoryUI, parameter.NameColorScheme, time.Hour, "Blue", "Purple")
	env.Vote(p.ID, 1, "alice")

	preview, previewing := env.Engine().Applier().ActivePreview()
	require.True(t, previewing)
	require.Equal(t, "purple", preview.Value)
	require.Equal(t, p.ID, preview.PollID)
	require.Equal(t, "purple", env.Current(parameter.CategoryUI, parameter.NameColorScheme))

	require.Eventually(t, func() bool {
		_, previewing := env.Engine().Applier().ActivePreview()
		return !previewing
	}, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, "blue", env.Current(parameter.CategoryUI, parameter.NameColorScheme))
	require.False(t, env.Poll(p.ID).Executed)

	preview, err := env.Engine().PreviewOption(p.ID, 1)
	require.NoError(t, err)
	require.Equal(t, "purple", preview.Value)
	_, err = env.Engine().PreviewOption(p.ID, 5)
	require.ErrorIs(t, err, poll.ErrInvalidOption)
}

func TestPreviewEndsOnEngineClock(t *testing.T) {
	env := test.NewGovernanceTestEnv(t, governance.WithPreviewDuration(time.Hour))
	env.SetParameter(parameter.CategorySystem, parameter.NameAutoExecuteDelay, parameter.ValueManual)

	p := env.ParameterPoll(parameter.CategoryUI, parameter.NameLayout, 3*time.Hour, "Standard", "Wide")
	env.Vote(p.ID, 1, "alice")
	require.Equal(t, "wide", env.Current(parameter.CategoryUI, parameter.NameLayout))

	env.Advance(30 * time.Minute)
	env.Engine().ResolveAll()
	_, previewing := env.Engine().Applier().ActivePreview()
	require.True(t, previewing)

	env.Advance(time.Hour)
	env.Engine().ResolveAll()
	_, previewing = env.Engine().Applier().ActivePreview()
	require.False(t, previewing)
	require.Equal(t, "standard", env.Current(parameter.CategoryUI, parameter.NameLayout))
}

func TestAnonymousVoting(t *testing.T) {
	env := test.NewGovernanceTestEnv(t)

	p, err := env.Engine().CreatePoll("Lunch", []string{"Pizza", "Sushi"}, nil, "alice")
	require.NoError(t, err)
	require.Equal(t, test.GenesisTime.Add(7*24*time.Hour), p.EndDate)

	_, _, err = env.Engine().SubmitVote(p.ID, 0, "")
	require.ErrorIs(t, err, poll.ErrLoginRequired)

	env.SetParameter(parameter.CategoryFeatures, parameter.NameAnonymousVoting, parameter.ValueEnabled)
	_, _, err = env.Engine().SubmitVote(p.ID, 0, "")
	require.NoError(t, err)
	p, _, err = env.Engine().SubmitVote(p.ID, 0, "")
	require.NoError(t, err)

	require.Equal(t, 2, p.Options[0].Votes)
	require.Len(t, p.Voters, 2)
	require.Contains(t, p.Voters[0], governance.AnonymousIdentityPrefix)
	require.NotEqual(t, p.Voters[0], p.Voters[1])
}

func TestCreateParameterPoll(t *testing.T) {
	env := test.NewGovernanceTestEnv(t)
	env.SetParameter(parameter.CategorySystem, parameter.NameDefaultPollDuration, "3days")
	env.SetParameter(parameter.CategorySystem, parameter.NameMaxPollsPerUser, "3")

	_, err := env.Engine().CreateParameterPoll(parameter.CategoryUI, "unknown", nil, nil, "alice")
	require.ErrorIs(t, err, parameter.ErrParameterNotFound)

	p, err := env.Engine().CreateParameterPoll(parameter.CategoryUI, parameter.NameColorScheme, nil, nil, "alice")
	require.NoError(t, err)
	require.Equal(t, test.GenesisTime.Add(3*24*time.Hour), p.EndDate)
	require.Len(t, p.Options, 5)
	require.Zero(t, p.TotalVotes())

	// a running poll on the same parameter is reused
	again, err := env.Engine().CreateParameterPoll(parameter.CategoryUI, parameter.NameColorScheme, []string{"Dark", "Blue"}, nil, "bob")
	require.NoError(t, err)
	require.Equal(t, p.ID, again.ID)

	for _, title := range []string{"first", "second"} {
		_, err := env.Engine().CreatePoll(title, []string{"yes", "no"}, nil, "alice")
		require.NoError(t, err)
	}
	_, err = env.Engine().CreatePoll("third", []string{"yes", "no"}, nil, "alice")
	require.ErrorIs(t, err, governance.ErrTooManyPolls)
	_, err = env.Engine().CreateParameterPoll(parameter.CategoryUI, parameter.NameLayout, nil, nil, "alice")
	require.ErrorIs(t, err, governance.ErrTooManyPolls)

	found, err := env.Engine().FindPollByTitle("Color")
	require.NoError(t, err)
	require.Equal(t, p.ID, found.ID)

	require.NoError(t, env.Engine().DeletePoll(p.ID))
	_, err = env.Engine().FindPollByTitle("Color")
	require.ErrorIs(t, err, poll.ErrPollNotFound)
	require.ErrorIs(t, env.Engine().DeletePoll(p.ID), poll.ErrPollNotFound)

	// ended polls no longer count against the limit
	env.Advance(4 * 24 * time.Hour)
	_, err = env.Engine().CreatePoll("fourth", []string{"yes", "no"}, nil, "alice")
	require.NoError(t, err)
}

func TestProposalLifecycle(t *testing.T) {
	env := test.NewGovernanceTestEnv(t)
	proposals := env.Engine().Proposals()

	pr, err := proposals.Submit("Banner position", "custom", "banner", "where the banner goes", []string{"Top", "Bottom"}, "carol")
	require.NoError(t, err)
	require.InDelta(t, 1.2, env.Engine().Weights().Weight("carol", weight.SchemeContribution), delta)

	for i := 0; i < proposal.DefaultMinApprovals; i++ {
		pr, err = proposals.Approve(pr.ID, "admin")
		require.NoError(t, err)
	}
	require.Equal(t, proposal.StatusVoting, pr.Status)
	require.Equal(t, "Top", env.Current("custom", "banner"))

	p := env.Poll(pr.PollID)
	require.Equal(t, proposal.PollTitlePrefix+"Banner position", p.Title)

	p, _ = env.Vote(p.ID, 1, "alice")
	require.True(t, p.Executed)
	require.Equal(t, "Bottom", env.Current("custom", "banner"))

	env.Advance(proposal.DefaultPollDuration)
	env.Engine().ResolveAll()

	pr, err = proposals.Proposal(pr.ID)
	require.NoError(t, err)
	require.Equal(t, proposal.StatusAccepted, pr.Status)
	require.InDelta(t, 1.4, env.Engine().Weights().Weight("carol", weight.SchemeContribution), delta)

	env.Restart()
	require.Equal(t, "Bottom", env.Current("custom", "banner"))
}

func TestWeightedTally(t *testing.T) {
	env := test.NewGovernanceTestEnv(t, governance.WithWeightedTally(true))
	env.SetParameter(parameter.CategoryVotingSystem, parameter.NameWeightSystem, string(weight.SchemeActivity))
	env.SetParameter(parameter.CategorySystem, parameter.NameAutoExecuteDelay, parameter.ValueManual)

	_, err := env.Engine().RecordLogin("alice")
	require.NoError(t, err)
	_, err = env.Engine().RecordLogin("")
	require.ErrorIs(t, err, poll.ErrLoginRequired)

	p := env.ParameterPoll(parameter.CategoryUI, parameter.NameColorScheme, time.Hour, "Blue", "Green")
	env.Vote(p.ID, 1, "alice")
	_, result := env.Vote(p.ID, 0, "bob")

	require.False(t, result.IsTie)
	require.Equal(t, "Green", result.LeadingOption)
	require.InDelta(t, 1.6, result.LeadingVotes, delta)
	require.Equal(t, weight.SchemeActivity, result.Scheme)

	applied, err := env.Engine().ExecutePoll(p.ID)
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, "green", env.Current(parameter.CategoryUI, parameter.NameColorScheme))
}

func TestEnginesSyncOverBus(t *testing.T) {
	first := test.NewGovernanceTestEnv(t)
	second := test.NewGovernanceTestEnv(t, governance.WithBus(first.Engine().Bus()))

	p := first.ParameterPoll(parameter.CategoryUI, parameter.NameColorScheme, time.Hour, "Blue", "Orange")
	require.Equal(t, p.Title, second.Poll(p.ID).Title)

	first.Vote(p.ID, 1, "alice")
	require.Equal(t, "orange", first.Current(parameter.CategoryUI, parameter.NameColorScheme))
	require.Equal(t, "orange", second.Current(parameter.CategoryUI, parameter.NameColorScheme))
	require.True(t, second.Poll(p.ID).Executed)
}
