package prometheus

import (
	echoprometheus "github.com/labstack/echo-contrib/prometheus"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	restapiHTTPErrorCount   prometheus.Gauge
	restapiRateLimitedVotes prometheus.Gauge
)

func configureRestAPI() {
	restapiHTTPErrorCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "agora",
			Subsystem: "restapi",
			Name:      "http_request_errors",
			Help:      "The amount of encountered HTTP request errors.",
		},
	)

	restapiRateLimitedVotes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "agora",
			Subsystem: "restapi",
			Name:      "rate_limited_votes",
			Help:      "The amount of votes refused by the rate limiter.",
		},
	)

	registry.MustRegister(restapiHTTPErrorCount)
	registry.MustRegister(restapiRateLimitedVotes)

	addCollect(collectRestAPI)

	if deps.Echo != nil {
		p := echoprometheus.NewPrometheus("agora_restapi", nil)
		for _, m := range p.MetricsList {
			registry.MustRegister(m.MetricCollector)
		}
		deps.Echo.Use(p.HandlerFunc)
	}
}

func collectRestAPI() {
	restapiHTTPErrorCount.Set(float64(deps.RestAPIMetrics.HTTPRequestErrorCounter.Load()))
	restapiRateLimitedVotes.Set(float64(deps.RestAPIMetrics.RateLimitedVotes.Load()))
}
