package main

import (
	"github.com/gohornet/agora/core/app"
	"github.com/gohornet/agora/core/database"
	"github.com/gohornet/agora/core/governance"
	"github.com/gohornet/agora/core/gracefulshutdown"
	"github.com/gohornet/agora/pkg/node"
	governanceapi "github.com/gohornet/agora/plugins/governance"
	"github.com/gohornet/agora/plugins/prometheus"
	"github.com/gohornet/agora/plugins/restapi"
	"github.com/gohornet/agora/plugins/tabsync"
)

func main() {
	node.Run(
		node.WithInitPlugin(app.InitPlugin),
		node.WithCorePlugins([]*node.CorePlugin{
			gracefulshutdown.CorePlugin,
			database.CorePlugin,
			governance.CorePlugin,
		}...),
		node.WithPlugins([]*node.Plugin{
			restapi.Plugin,
			governanceapi.Plugin,
			tabsync.Plugin,
			prometheus.Plugin,
		}...),
	)
}
