package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	governanceVotes              prometheus.Gauge
	governancePollsCreated       prometheus.Gauge
	governanceParametersApplied  prometheus.Gauge
	governanceResolutionPasses   prometheus.Gauge
	governanceProposalsSubmitted prometheus.Gauge
	governancePolls              *prometheus.GaugeVec
	governanceChangeRecords      prometheus.Gauge
	governancePreviewActive      prometheus.Gauge
)

func newGovernanceGauge(name string, help string) prometheus.Gauge {
	gauge := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "agora",
			Subsystem: "governance",
			Name:      name,
			Help:      help,
		},
	)
	registry.MustRegister(gauge)
	return gauge
}

func configureGovernance() {
	governanceVotes = newGovernanceGauge("votes", "The amount of accepted votes.")
	governancePollsCreated = newGovernanceGauge("polls_created", "The amount of created polls.")
	governanceParametersApplied = newGovernanceGauge("parameters_applied", "The amount of parameter values committed by polls.")
	governanceResolutionPasses = newGovernanceGauge("resolution_passes", "The amount of resolution passes over all polls.")
	governanceProposalsSubmitted = newGovernanceGauge("proposals_submitted", "The amount of submitted proposals.")
	governanceChangeRecords = newGovernanceGauge("change_records", "The amount of records in the change history.")
	governancePreviewActive = newGovernanceGauge("preview_active", "Whether a parameter preview is applied.")

	governancePolls = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "agora",
			Subsystem: "governance",
			Name:      "polls",
			Help:      "The amount of stored polls by state.",
		},
		[]string{"state"},
	)
	registry.MustRegister(governancePolls)

	addCollect(collectGovernance)
}

func collectGovernance() {
	m := deps.Engine.Metrics()
	governanceVotes.Set(float64(m.Votes.Load()))
	governancePollsCreated.Set(float64(m.PollsCreated.Load()))
	governanceParametersApplied.Set(float64(m.ParametersApplied.Load()))
	governanceResolutionPasses.Set(float64(m.ResolutionPasses.Load()))
	governanceProposalsSubmitted.Set(float64(m.ProposalsSubmitted.Load()))

	now := deps.Engine.Now()
	var active, ended, executed int
	for _, p := range deps.Engine.Polls().Polls() {
		switch {
		case p.Executed:
			executed++
		case p.IsActive(now):
			active++
		default:
			ended++
		}
	}
	governancePolls.WithLabelValues("active").Set(float64(active))
	governancePolls.WithLabelValues("ended").Set(float64(ended))
	governancePolls.WithLabelValues("executed").Set(float64(executed))

	governanceChangeRecords.Set(float64(len(deps.Engine.ChangeHistory())))

	governancePreviewActive.Set(0)
	if _, active := deps.Engine.Applier().ActivePreview(); active {
		governancePreviewActive.Set(1)
	}
}
