package consensus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gohornet/agora/pkg/model/poll"
	"github.com/gohornet/agora/pkg/model/weight"
)

func pollWithVotes(votes ...int) *poll.Poll {
	p := &poll.Poll{Title: "test", Ballots: map[string]int{}}
	for i, v := range votes {
		p.Options = append(p.Options, &poll.Option{Text: string(rune('A' + i)), Votes: v})
	}
	return p
}

func TestResolveTie(t *testing.T) {
	result := Resolve(pollWithVotes(5, 5), weight.SchemeEqual, AlgorithmMajority)
	require.True(t, result.IsTie)
	require.False(t, result.HasLeader())
	require.False(t, result.ConsensusReached)
	require.Empty(t, result.LeadingOption)
	require.InDelta(t, 50.0, result.LeadingPercentage, 1e-9)

	// a tie for the lead is a tie even with a third, lower option
	result = Resolve(pollWithVotes(3, 5, 5), weight.SchemeEqual, AlgorithmMajority)
	require.True(t, result.IsTie)
}

func TestResolveNoVotes(t *testing.T) {
	result := Resolve(pollWithVotes(0, 0, 0), weight.SchemeEqual, AlgorithmMajority)
	require.False(t, result.IsTie)
	require.False(t, result.HasLeader())
	require.False(t, result.ConsensusReached)
	require.Zero(t, result.TotalVotes)
}

func TestResolveMajority(t *testing.T) {
	result := Resolve(pollWithVotes(3, 7), weight.SchemeEqual, AlgorithmMajority)
	require.True(t, result.HasLeader())
	require.Equal(t, 1, result.LeadingIndex)
	require.Equal(t, "B", result.LeadingOption)
	require.True(t, result.ConsensusReached)
	require.InDelta(t, 70.0, result.LeadingPercentage, 1e-9)
	require.Equal(t, 10.0, result.TotalVotes)

	// a plurality is enough
	result = Resolve(pollWithVotes(4, 3, 3), weight.SchemeEqual, AlgorithmMajority)
	require.True(t, result.ConsensusReached)
	require.Equal(t, 0, result.LeadingIndex)
}

func TestResolveThresholds(t *testing.T) {
	p := pollWithVotes(67, 33)
	require.True(t, Resolve(p, weight.SchemeEqual, AlgorithmSupermajority).ConsensusReached)
	require.False(t, Resolve(p, weight.SchemeEqual, AlgorithmConsensus).ConsensusReached)

	p = pollWithVotes(66, 34)
	require.False(t, Resolve(p, weight.SchemeEqual, AlgorithmSupermajority).ConsensusReached)

	p = pollWithVotes(81, 19)
	require.True(t, Resolve(p, weight.SchemeEqual, AlgorithmConsensus).ConsensusReached)

	// the thresholds are exclusive
	p = pollWithVotes(80, 20)
	require.False(t, Resolve(p, weight.SchemeEqual, AlgorithmConsensus).ConsensusReached)
}

func TestResolveDegradedAlgorithms(t *testing.T) {
	p := pollWithVotes(4, 3, 3)
	for _, algorithm := range []Algorithm{AlgorithmRanked, AlgorithmQuadratic} {
		result := Resolve(p, weight.SchemeEqual, algorithm)
		require.True(t, result.ConsensusReached)
		require.Equal(t, algorithm, result.Algorithm)
	}
}

func TestResolveDoesNotMutate(t *testing.T) {
	p := pollWithVotes(3, 7)
	before := p.Clone()

	Resolve(p, weight.SchemeReputation, AlgorithmConsensus)
	NewResolver(TallyWeighted, func(string, weight.Scheme) float64 { return 2 }).Resolve(p, weight.SchemeReputation, AlgorithmConsensus)

	require.Equal(t, before, p)
}

func TestResolveWeighted(t *testing.T) {
	p := pollWithVotes(2, 1)
	p.Ballots = map[string]int{"alice": 0, "bob": 0, "carol": 1}

	weights := map[string]float64{"alice": 0.5, "bob": 0.5, "carol": 3.0}
	resolver := NewResolver(TallyWeighted, func(identity string, scheme weight.Scheme) float64 {
		if scheme == weight.SchemeEqual {
			return 1
		}
		return weights[identity]
	})
	require.Equal(t, TallyWeighted, resolver.Mode())

	result := resolver.Resolve(p, weight.SchemeReputation, AlgorithmMajority)
	require.Equal(t, 1, result.LeadingIndex)
	require.Equal(t, []float64{1.0, 3.0}, result.Counts)
	require.Equal(t, weight.SchemeReputation, result.Scheme)

	// raw counts are unchanged and still lead the other way
	require.Equal(t, 0, Resolve(p, weight.SchemeReputation, AlgorithmMajority).LeadingIndex)

	// with equal weights both modes agree
	require.Equal(t, 0, resolver.Resolve(p, weight.SchemeEqual, AlgorithmMajority).LeadingIndex)

	// votes without ballots count with the default weight
	p.Options[1].Votes = 3
	result = resolver.Resolve(p, weight.SchemeReputation, AlgorithmMajority)
	require.Equal(t, []float64{1.0, 5.0}, result.Counts)
}

func TestParseAlgorithm(t *testing.T) {
	algorithm, err := ParseAlgorithm("SuperMajority")
	require.NoError(t, err)
	require.Equal(t, AlgorithmSupermajority, algorithm)

	_, err = ParseAlgorithm("dictatorship")
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
}
