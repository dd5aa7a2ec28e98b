package consensus

import (
	"strings"

	"github.com/pkg/errors"
)

// Algorithm is the threshold rule deciding whether the leading option wins officially.
type Algorithm string

const (
	AlgorithmMajority      Algorithm = "majority"
	AlgorithmSupermajority Algorithm = "supermajority"
	AlgorithmConsensus     Algorithm = "consensus"
	// AlgorithmRanked is evaluated like AlgorithmMajority, there is no ranked-choice tally.
	AlgorithmRanked Algorithm = "ranked"
	// AlgorithmQuadratic is evaluated like AlgorithmMajority, there is no quadratic tally.
	AlgorithmQuadratic Algorithm = "quadratic"
)

const (
	SupermajorityThreshold = 2.0 / 3.0
	ConsensusThreshold     = 4.0 / 5.0
)

// ErrUnknownAlgorithm is returned for consensus algorithm names that are not supported.
var ErrUnknownAlgorithm = errors.New("unknown consensus algorithm")

// Algorithms returns all supported consensus algorithms.
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmMajority, AlgorithmSupermajority, AlgorithmConsensus, AlgorithmRanked, AlgorithmQuadratic}
}

// ParseAlgorithm parses a consensus algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	algorithm := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	for _, a := range Algorithms() {
		if a == algorithm {
			return a, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownAlgorithm, "%q", name)
}

// reached tells whether a leader with the given share of the votes wins under the algorithm.
func (a Algorithm) reached(share float64) bool {
	switch a {
	case AlgorithmSupermajority:
		return share > SupermajorityThreshold
	case AlgorithmConsensus:
		return share > ConsensusThreshold
	default:
		return true
	}
}
