package tabsync

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/dig"

	"github.com/gohornet/agora/pkg/governance"
	"github.com/gohornet/agora/pkg/node"
	"github.com/gohornet/agora/pkg/shutdown"
	"github.com/iotaledger/hive.go/configuration"
)

func init() {
	Plugin = &node.Plugin{
		Status: node.StatusEnabled,
		Pluggable: node.Pluggable{
			Name:      "TabSync",
			DepsFunc:  func(cDeps dependencies) { deps = cDeps },
			Params:    params,
			Configure: configure,
			Run:       run,
		},
	}
}

var (
	Plugin *node.Plugin
	deps   dependencies

	hub *Hub
)

type dependencies struct {
	dig.In
	AppConfig *configuration.Configuration `name:"appConfig"`
	Engine    *governance.Engine
	Echo      *echo.Echo
}

func configure() {
	hub = NewHub(Plugin.Logger(), deps.Engine.Bus(), deps.Engine.Replica().State, deps.AppConfig.Duration(CfgTabSyncWriteTimeout))

	deps.Echo.GET(deps.AppConfig.String(CfgTabSyncRoute), echo.WrapHandler(hub))
}

func run() {
	if err := Plugin.Daemon().BackgroundWorker("TabSync hub", func(ctx context.Context) {
		Plugin.LogInfof("Starting TabSync hub on %s ... done", deps.AppConfig.String(CfgTabSyncRoute))
		hub.Run(ctx)
		Plugin.LogInfo("Stopping TabSync hub ... done")
	}, shutdown.PriorityTabSync); err != nil {
		Plugin.LogPanicf("failed to start worker: %s", err)
	}
}
