package governance

import (
	"time"

	flag "github.com/spf13/pflag"

	"github.com/gohornet/agora/pkg/model/applier"
	"github.com/gohornet/agora/pkg/model/history"
	"github.com/gohornet/agora/pkg/model/proposal"
	"github.com/gohornet/agora/pkg/node"
)

const (
	// the interval in which all polls are resolved
	CfgGovernanceResolutionInterval = "governance.resolutionInterval"
	// how long a live result preview stays applied
	CfgGovernancePreviewDuration = "governance.previewDuration"
	// the amount of change records kept in the history
	CfgGovernanceHistoryMaxSize = "governance.historyMaxSize"
	// the amount of reviews that decide a proposal
	CfgGovernanceMinApprovals = "governance.minApprovals"
	// the identities allowed to review proposals
	CfgGovernanceAdmins = "governance.admins"
	// whether the voter weights decide polls instead of the raw vote counts
	CfgGovernanceWeightedTally = "governance.weightedTally"
	// how long the poll of an approved proposal runs
	CfgGovernanceDefaultPollDuration = "governance.defaultPollDuration"
	// the interval in which the governance status is logged, 0 disables the report
	CfgGovernanceStatusInterval = "governance.statusInterval"
)

var params = &node.PluginParams{
	Params: map[string]*flag.FlagSet{
		"appConfig": func() *flag.FlagSet {
			fs := flag.NewFlagSet("", flag.ContinueOnError)
			fs.Duration(CfgGovernanceResolutionInterval, 5*time.Second, "the interval in which all polls are resolved")
			fs.Duration(CfgGovernancePreviewDuration, applier.DefaultPreviewDuration, "how long a live result preview stays applied")
			fs.Int(CfgGovernanceHistoryMaxSize, history.DefaultMaxSize, "the amount of change records kept in the history")
			fs.Int(CfgGovernanceMinApprovals, proposal.DefaultMinApprovals, "the amount of reviews that decide a proposal")
			fs.StringSlice(CfgGovernanceAdmins, proposal.DefaultAdmins, "the identities allowed to review proposals")
			fs.Bool(CfgGovernanceWeightedTally, false, "whether the voter weights decide polls instead of the raw vote counts")
			fs.Duration(CfgGovernanceDefaultPollDuration, proposal.DefaultPollDuration, "how long the poll of an approved proposal runs")
			fs.Duration(CfgGovernanceStatusInterval, time.Minute, "the interval in which the governance status is logged, 0 disables the report")
			return fs
		}(),
	},
	Masked: nil,
}
