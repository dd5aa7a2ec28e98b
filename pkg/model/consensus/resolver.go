package consensus

import (
	"github.com/gohornet/agora/pkg/model/poll"
	"github.com/gohornet/agora/pkg/model/weight"
)

// NoLeader is the LeadingIndex of a result without a leading option.
const NoLeader = -1

// Result is the evaluation of a poll at one point in time.
type Result struct {
	// LeadingIndex is the option index of the leader, or NoLeader.
	LeadingIndex  int       `json:"leadingIndex"`
	LeadingOption string    `json:"leadingOption,omitempty"`
	LeadingVotes  float64   `json:"leadingVotes"`
	TotalVotes    float64   `json:"totalVotes"`
	Counts        []float64 `json:"counts"`
	IsTie         bool      `json:"isTie"`
	// ConsensusReached tells whether the leader passes the threshold of Algorithm.
	ConsensusReached bool `json:"consensusReached"`
	// LeadingPercentage is the share of the leader in percent.
	LeadingPercentage float64       `json:"leadingPercentage"`
	Algorithm         Algorithm     `json:"algorithm"`
	Scheme            weight.Scheme `json:"scheme"`
}

// HasLeader tells whether a single option leads.
func (r *Result) HasLeader() bool {
	return r.LeadingIndex != NoLeader
}

// Evaluate finds the leader of the given effective vote counts and checks the threshold.
// Several options sharing a positive maximum are a tie, all-zero counts have no leader.
func Evaluate(counts []float64, algorithm Algorithm) *Result {
	result := &Result{
		LeadingIndex: NoLeader,
		Counts:       append([]float64(nil), counts...),
		Algorithm:    algorithm,
	}

	leaders := 0
	for i, count := range counts {
		result.TotalVotes += count

		switch {
		case count > result.LeadingVotes:
			result.LeadingVotes = count
			result.LeadingIndex = i
			leaders = 1
		case count == result.LeadingVotes && count > 0:
			leaders++
		}
	}

	if result.LeadingVotes <= 0 {
		result.LeadingIndex = NoLeader
		return result
	}

	share := result.LeadingVotes / result.TotalVotes
	result.LeadingPercentage = share * 100

	if leaders > 1 {
		result.IsTie = true
		result.LeadingIndex = NoLeader
		return result
	}

	result.ConsensusReached = algorithm.reached(share)
	return result
}

// TallyMode selects which vote counts the resolver evaluates.
type TallyMode int

const (
	// TallyRaw evaluates the stored vote counts.
	TallyRaw TallyMode = iota
	// TallyWeighted sums the weight of every voter per option.
	TallyWeighted
)

// WeightFunc returns the influence of an identity under a scheme.
type WeightFunc func(identity string, scheme weight.Scheme) float64

// Resolver evaluates polls. It never modifies them.
type Resolver struct {
	mode   TallyMode
	weight WeightFunc
}

// NewResolver creates a resolver. The weight function is only used for TallyWeighted.
func NewResolver(mode TallyMode, weightFunc WeightFunc) *Resolver {
	if weightFunc == nil {
		weightFunc = func(string, weight.Scheme) float64 { return weight.DefaultWeight }
	}
	return &Resolver{mode: mode, weight: weightFunc}
}

// Mode returns the tally mode of the resolver.
func (r *Resolver) Mode() TallyMode {
	return r.mode
}

// Resolve evaluates the poll with the weight scheme and consensus algorithm.
func (r *Resolver) Resolve(p *poll.Poll, scheme weight.Scheme, algorithm Algorithm) *Result {
	var counts []float64
	switch r.mode {
	case TallyWeighted:
		counts = r.weightedCounts(p, scheme)
	default:
		counts = p.Counts()
	}

	result := Evaluate(counts, algorithm)
	result.Scheme = scheme
	if result.HasLeader() {
		result.LeadingOption = p.Options[result.LeadingIndex].Text
	}
	return result
}

// weightedCounts sums the voter weights per option.
// Votes without a recorded ballot weigh 1.0 each.
func (r *Resolver) weightedCounts(p *poll.Poll, scheme weight.Scheme) []float64 {
	counts := make([]float64, len(p.Options))
	ballots := make([]int, len(p.Options))

	for voter, index := range p.Ballots {
		if index < 0 || index >= len(counts) {
			continue
		}
		counts[index] += r.weight(voter, scheme)
		ballots[index]++
	}

	for i, option := range p.Options {
		if unrecorded := option.Votes - ballots[i]; unrecorded > 0 {
			counts[i] += float64(unrecorded) * weight.DefaultWeight
		}
	}
	return counts
}

// Resolve evaluates the raw vote counts of a poll.
func Resolve(p *poll.Poll, scheme weight.Scheme, algorithm Algorithm) *Result {
	return NewResolver(TallyRaw, nil).Resolve(p, scheme, algorithm)
}
