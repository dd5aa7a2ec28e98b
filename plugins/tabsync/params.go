package tabsync

import (
	"time"

	flag "github.com/spf13/pflag"

	"github.com/gohornet/agora/pkg/node"
)

const (
	// the REST API route websocket peers connect to
	CfgTabSyncRoute = "tabsync.route"
	// the time allowed to write a message to a peer
	CfgTabSyncWriteTimeout = "tabsync.writeTimeout"
)

var params = &node.PluginParams{
	Params: map[string]*flag.FlagSet{
		"appConfig": func() *flag.FlagSet {
			fs := flag.NewFlagSet("", flag.ContinueOnError)
			fs.String(CfgTabSyncRoute, "/api/governance/v1/sync", "the REST API route websocket peers connect to")
			fs.Duration(CfgTabSyncWriteTimeout, 10*time.Second, "the time allowed to write a message to a peer")
			return fs
		}(),
	},
	Masked: nil,
}
