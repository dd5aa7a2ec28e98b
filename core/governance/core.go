package governance

import (
	"context"

	"go.uber.org/dig"

	"github.com/gohornet/agora/pkg/governance"
	"github.com/gohornet/agora/pkg/metrics"
	"github.com/gohornet/agora/pkg/model/tabsync"
	"github.com/gohornet/agora/pkg/node"
	"github.com/gohornet/agora/pkg/shutdown"
	"github.com/iotaledger/hive.go/configuration"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/timeutil"
)

func init() {
	CorePlugin = &node.CorePlugin{
		Pluggable: node.Pluggable{
			Name:      "Governance",
			DepsFunc:  func(cDeps dependencies) { deps = cDeps },
			Params:    params,
			Provide:   provide,
			Configure: configure,
			Run:       run,
		},
	}
}

var (
	CorePlugin *node.CorePlugin
	deps       dependencies
)

type dependencies struct {
	dig.In
	AppConfig *configuration.Configuration `name:"appConfig"`
	Engine    *governance.Engine
}

func provide(c *dig.Container) {

	if err := c.Provide(func() *metrics.GovernanceMetrics {
		return &metrics.GovernanceMetrics{}
	}); err != nil {
		CorePlugin.LogPanic(err)
	}

	if err := c.Provide(tabsync.NewBus); err != nil {
		CorePlugin.LogPanic(err)
	}

	type engineDeps struct {
		dig.In
		AppConfig         *configuration.Configuration `name:"appConfig"`
		Store             kvstore.KVStore
		GovernanceMetrics *metrics.GovernanceMetrics
		Bus               *tabsync.Bus
	}

	if err := c.Provide(func(deps engineDeps) *governance.Engine {
		engine, err := governance.NewEngine(deps.Store,
			governance.WithLogger(CorePlugin.Logger()),
			governance.WithMetrics(deps.GovernanceMetrics),
			governance.WithBus(deps.Bus),
			governance.WithWeightedTally(deps.AppConfig.Bool(CfgGovernanceWeightedTally)),
			governance.WithPreviewDuration(deps.AppConfig.Duration(CfgGovernancePreviewDuration)),
			governance.WithHistoryMaxSize(deps.AppConfig.Int(CfgGovernanceHistoryMaxSize)),
			governance.WithAdmins(deps.AppConfig.Strings(CfgGovernanceAdmins)),
			governance.WithMinApprovals(deps.AppConfig.Int(CfgGovernanceMinApprovals)),
			governance.WithProposalPollDuration(deps.AppConfig.Duration(CfgGovernanceDefaultPollDuration)),
		)
		if err != nil {
			CorePlugin.LogPanicf("unable to create governance engine: %s", err)
		}
		return engine
	}); err != nil {
		CorePlugin.LogPanic(err)
	}
}

func configure() {
	parameters := 0
	for _, category := range deps.Engine.Registry().Categories() {
		parameters += len(deps.Engine.Registry().Parameters(category))
	}
	CorePlugin.LogInfof("Loaded %d parameters and %d polls", parameters, len(deps.Engine.Polls().Polls()))
}

func run() {

	if err := CorePlugin.Daemon().BackgroundWorker("Governance", func(ctx context.Context) {
		<-ctx.Done()
		CorePlugin.LogInfo("Stopping governance engine ...")
		deps.Engine.Shutdown()
		CorePlugin.LogInfo("Stopping governance engine ... done")
	}, shutdown.PriorityGovernance); err != nil {
		CorePlugin.LogPanicf("failed to start worker: %s", err)
	}

	if err := CorePlugin.Daemon().BackgroundWorker("Resolution ticker", func(ctx context.Context) {
		CorePlugin.LogInfo("Starting resolution ticker ... done")

		ticker := timeutil.NewTicker(func() {
			if resolved := deps.Engine.ResolveAll(); resolved > 0 {
				CorePlugin.LogDebugf("resolved %d polls", resolved)
			}
		}, deps.AppConfig.Duration(CfgGovernanceResolutionInterval), ctx)
		ticker.WaitForGracefulShutdown()

		CorePlugin.LogInfo("Stopping resolution ticker ... done")
	}, shutdown.PriorityResolutionTicker); err != nil {
		CorePlugin.LogPanicf("failed to start worker: %s", err)
	}

	statusInterval := deps.AppConfig.Duration(CfgGovernanceStatusInterval)
	if statusInterval <= 0 {
		return
	}

	if err := CorePlugin.Daemon().BackgroundWorker("Governance status reporter", func(ctx context.Context) {
		ticker := timeutil.NewTicker(printStatus, statusInterval, ctx)
		ticker.WaitForGracefulShutdown()
	}, shutdown.PriorityStatusReport); err != nil {
		CorePlugin.LogPanicf("failed to start worker: %s", err)
	}
}

func printStatus() {
	now := deps.Engine.Now()

	active := 0
	polls := deps.Engine.Polls().Polls()
	for _, p := range polls {
		if p.IsActive(now) {
			active++
		}
	}

	m := deps.Engine.Metrics()
	CorePlugin.LogInfof("polls: %d (active %d), votes: %d, applied: %d, proposals: %d, changes: %d",
		len(polls), active, m.Votes.Load(), m.ParametersApplied.Load(), len(deps.Engine.Proposals().Proposals()), len(deps.Engine.ChangeHistory()))
}
