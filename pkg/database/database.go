package database

import (
	"github.com/gohornet/agora/pkg/metrics"
	"github.com/gohornet/agora/pkg/utils"
	"github.com/iotaledger/hive.go/kvstore"
)

type Engine string

const (
	EngineUnknown Engine = "unknown"
	EnginePebble  Engine = "pebble"
	EngineMapDB   Engine = "mapdb"
)

// Database holds the underlying KVStore and database specific functions.
type Database struct {
	path    string
	store   kvstore.KVStore
	engine  Engine
	metrics *metrics.DatabaseMetrics
}

// New creates a new Database instance.
func New(path string, kvStore kvstore.KVStore, engine Engine, databaseMetrics *metrics.DatabaseMetrics) *Database {
	return &Database{
		path:    path,
		store:   kvStore,
		engine:  engine,
		metrics: databaseMetrics,
	}
}

// KVStore returns the underlying KVStore.
func (db *Database) KVStore() kvstore.KVStore {
	return db.store
}

// Engine returns the engine of the database.
func (db *Database) Engine() Engine {
	return db.engine
}

// Metrics returns the compaction metrics of the database.
func (db *Database) Metrics() *metrics.DatabaseMetrics {
	return db.metrics
}

// CompactionSupported returns whether the database engine supports compaction.
func (db *Database) CompactionSupported() bool {
	return db.engine == EnginePebble
}

// CompactionRunning returns whether a compaction is running.
func (db *Database) CompactionRunning() bool {
	return db.metrics.CompactionRunning.Load()
}

// Size returns the size of the database folder in bytes.
// In-memory databases report zero.
func (db *Database) Size() (int64, error) {
	if db.path == "" {
		return 0, nil
	}
	return utils.FolderSize(db.path)
}

// Close flushes and closes the underlying KVStore.
func (db *Database) Close() error {
	if err := db.store.Flush(); err != nil {
		return err
	}
	return db.store.Close()
}
