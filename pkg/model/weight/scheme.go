package weight

import (
	"strings"

	"github.com/pkg/errors"
)

// Scheme is the method used to compute the influence of a voter.
type Scheme string

const (
	SchemeEqual        Scheme = "equal"
	SchemeActivity     Scheme = "activity"
	SchemeContribution Scheme = "contribution"
	SchemeReputation   Scheme = "reputation"
	SchemeQuadratic    Scheme = "quadratic"
)

// ErrUnknownScheme is returned for weight scheme names that are not supported.
var ErrUnknownScheme = errors.New("unknown weight scheme")

// Schemes returns all supported weight schemes.
func Schemes() []Scheme {
	return []Scheme{SchemeEqual, SchemeActivity, SchemeContribution, SchemeReputation, SchemeQuadratic}
}

// ParseScheme parses a weight scheme name.
func ParseScheme(name string) (Scheme, error) {
	scheme := Scheme(strings.ToLower(strings.TrimSpace(name)))
	for _, s := range Schemes() {
		if s == scheme {
			return s, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownScheme, "%q", name)
}
