package prometheus

import (
	flag "github.com/spf13/pflag"

	"github.com/gohornet/agora/pkg/node"
)

const (
	// the bind address on which the Prometheus exporter listens on.
	CfgPrometheusBindAddress = "prometheus.bindAddress"
	// include database metrics.
	CfgPrometheusDatabase = "prometheus.databaseMetrics"
	// include governance metrics.
	CfgPrometheusGovernance = "prometheus.governanceMetrics"
	// include restAPI metrics.
	CfgPrometheusRestAPI = "prometheus.restAPIMetrics"
	// include go metrics.
	CfgPrometheusGoMetrics = "prometheus.goMetrics"
	// include process metrics.
	CfgPrometheusProcessMetrics = "prometheus.processMetrics"
	// include promhttp metrics.
	CfgPrometheusPromhttpMetrics = "prometheus.promhttpMetrics"
)

var params = &node.PluginParams{
	Params: map[string]*flag.FlagSet{
		"appConfig": func() *flag.FlagSet {
			fs := flag.NewFlagSet("", flag.ContinueOnError)
			fs.String(CfgPrometheusBindAddress, "localhost:9312", "the bind address on which the Prometheus exporter listens on")
			fs.Bool(CfgPrometheusDatabase, true, "include database metrics")
			fs.Bool(CfgPrometheusGovernance, true, "include governance metrics")
			fs.Bool(CfgPrometheusRestAPI, true, "include restAPI metrics")
			fs.Bool(CfgPrometheusGoMetrics, false, "include go metrics")
			fs.Bool(CfgPrometheusProcessMetrics, false, "include process metrics")
			fs.Bool(CfgPrometheusPromhttpMetrics, false, "include promhttp metrics")
			return fs
		}(),
	},
	Masked: nil,
}
