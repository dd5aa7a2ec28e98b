package restapi

import (
	flag "github.com/spf13/pflag"

	"github.com/gohornet/agora/pkg/node"
)

const (
	// the bind address on which the REST API listens on
	CfgRestAPIBindAddress = "restAPI.bindAddress"
	// the maximum number of characters that the body of an API call may contain
	CfgRestAPILimitsMaxBodyLength = "restAPI.limits.maxBodyLength"
	// the amount of votes a single client may submit per minute
	CfgRestAPIVotesPerMinute = "restAPI.votesPerMinute"
	// the amount of votes a single client may submit at once
	CfgRestAPIVotesBurst = "restAPI.votesBurst"
	// whether the debug logging for requests should be enabled
	CfgRestAPIDebugRequestLoggerEnabled = "restAPI.debugRequestLoggerEnabled"
)

var params = &node.PluginParams{
	Params: map[string]*flag.FlagSet{
		"appConfig": func() *flag.FlagSet {
			fs := flag.NewFlagSet("", flag.ContinueOnError)
			fs.String(CfgRestAPIBindAddress, "0.0.0.0:8080", "the bind address on which the REST API listens on")
			fs.String(CfgRestAPILimitsMaxBodyLength, "1M", "the maximum number of characters that the body of an API call may contain")
			fs.Int(CfgRestAPIVotesPerMinute, 30, "the amount of votes a single client may submit per minute")
			fs.Int(CfgRestAPIVotesBurst, 5, "the amount of votes a single client may submit at once")
			fs.Bool(CfgRestAPIDebugRequestLoggerEnabled, false, "whether the debug logging for requests should be enabled")
			return fs
		}(),
	},
	Masked: nil,
}
