package database

import (
	"context"

	"github.com/dustin/go-humanize"
	"go.uber.org/dig"

	"github.com/gohornet/agora/pkg/database"
	"github.com/gohornet/agora/pkg/metrics"
	"github.com/gohornet/agora/pkg/model/storage"
	"github.com/gohornet/agora/pkg/node"
	"github.com/gohornet/agora/pkg/shutdown"
	"github.com/iotaledger/hive.go/configuration"
	"github.com/iotaledger/hive.go/kvstore"
)

func init() {
	CorePlugin = &node.CorePlugin{
		Pluggable: node.Pluggable{
			Name:      "Database",
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
	Database      *database.Database
	HealthTracker *storage.StoreHealthTracker
}

func provide(c *dig.Container) {

	if err := c.Provide(func() *metrics.DatabaseMetrics {
		return &metrics.DatabaseMetrics{}
	}); err != nil {
		CorePlugin.LogPanic(err)
	}

	type databaseDeps struct {
		dig.In
		AppConfig       *configuration.Configuration `name:"appConfig"`
		DatabaseMetrics *metrics.DatabaseMetrics
	}

	if err := c.Provide(func(deps databaseDeps) *database.Database {
		engine, err := database.EngineFromString(deps.AppConfig.String(CfgDatabaseEngine))
		if err != nil {
			CorePlugin.LogPanic(err)
		}

		CorePlugin.LogInfof("Opening %s database ...", engine)

		db, err := database.Open(deps.AppConfig.String(CfgDatabasePath), true, deps.DatabaseMetrics, engine)
		if err != nil {
			CorePlugin.LogPanicf("opening database failed: %s", err)
		}

		return db
	}); err != nil {
		CorePlugin.LogPanic(err)
	}

	if err := c.Provide(func(db *database.Database) kvstore.KVStore {
		return db.KVStore()
	}); err != nil {
		CorePlugin.LogPanic(err)
	}

	if err := c.Provide(func(store kvstore.KVStore) *storage.StoreHealthTracker {
		healthTracker, err := storage.NewStoreHealthTracker(store)
		if err != nil {
			CorePlugin.LogPanic(err)
		}
		return healthTracker
	}); err != nil {
		CorePlugin.LogPanic(err)
	}
}

func configure() {

	correctVersion, err := deps.HealthTracker.CheckCorrectDatabaseVersion()
	if err != nil {
		CorePlugin.LogPanic(err)
	}
	if !correctVersion {
		CorePlugin.LogPanic("database version mismatch. The database scheme was updated. Please delete the database folder and start again.")
	}

	corrupted, err := deps.HealthTracker.IsCorrupted()
	if err != nil {
		CorePlugin.LogPanic(err)
	}
	if corrupted {
		CorePlugin.LogWarn("database was not shut down cleanly, values that can not be decoded are replaced by defaults")
	}

	// the store stays marked until it is closed cleanly
	if err := deps.HealthTracker.MarkCorrupted(); err != nil {
		CorePlugin.LogPanic(err)
	}

	if size, err := deps.Database.Size(); err == nil && deps.Database.Engine() == database.EnginePebble {
		CorePlugin.LogInfof("database size: %s", humanize.Bytes(uint64(size)))
	}
}

func run() {
	if err := CorePlugin.Daemon().BackgroundWorker("Close database", func(ctx context.Context) {
		<-ctx.Done()

		if err := deps.HealthTracker.MarkHealthy(); err != nil {
			CorePlugin.LogWarnf("marking database healthy failed: %s", err)
		}

		CorePlugin.LogInfo("Syncing database to disk ...")
		if err := deps.Database.Close(); err != nil {
			CorePlugin.LogErrorf("closing database failed: %s", err)
		}
		CorePlugin.LogInfo("Syncing database to disk ... done")
	}, shutdown.PriorityCloseDatabase); err != nil {
		CorePlugin.LogPanicf("failed to start worker: %s", err)
	}
}
