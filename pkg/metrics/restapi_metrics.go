package metrics

import (
	"go.uber.org/atomic"
)

// RestAPIMetrics defines REST API metrics over the entire runtime of the node.
type RestAPIMetrics struct {
	// The total number of HTTP request errors.
	HTTPRequestErrorCounter atomic.Uint32
	// The number of votes refused by the rate limiter.
	RateLimitedVotes atomic.Uint32
}
