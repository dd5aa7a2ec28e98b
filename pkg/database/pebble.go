package database

import (
	pebbleDB "github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"

	"github.com/gohornet/agora/pkg/metrics"
	"github.com/iotaledger/hive.go/kvstore/pebble"
)

// newCompactionEventListener returns a pebble event listener that tracks compactions.
func newCompactionEventListener(databaseMetrics *metrics.DatabaseMetrics) *pebbleDB.EventListener {
	return &pebbleDB.EventListener{
		CompactionBegin: func(info pebbleDB.CompactionInfo) {
			databaseMetrics.CompactionCount.Inc()
			databaseMetrics.CompactionRunning.Store(true)
		},
		CompactionEnd: func(info pebbleDB.CompactionInfo) {
			databaseMetrics.CompactionRunning.Store(false)
		},
	}
}

// NewPebbleDB creates a new pebble DB instance.
// The cache and memtables are sized for the small governance state.
func NewPebbleDB(directory string, eventListener *pebbleDB.EventListener, verbose bool) (*pebbleDB.DB, error) {
	cache := pebbleDB.NewCache(64 << 20) // 64 MB
	defer cache.Unref()

	opts := &pebbleDB.Options{
		Cache:                       cache,
		L0CompactionThreshold:       2,
		L0StopWritesThreshold:       1000,
		LBaseMaxBytes:               16 << 20, // 16 MB
		Levels:                      make([]pebbleDB.LevelOptions, 7),
		MaxConcurrentCompactions:    1,
		MaxOpenFiles:                1024,
		MemTableSize:                8 << 20,
		MemTableStopWritesThreshold: 4,
	}

	for i := 0; i < len(opts.Levels); i++ {
		l := &opts.Levels[i]
		l.BlockSize = 32 << 10       // 32 KB
		l.IndexBlockSize = 256 << 10 // 256 KB
		l.FilterPolicy = bloom.FilterPolicy(10)
		l.FilterType = pebbleDB.TableFilter
		if i > 0 {
			l.TargetFileSize = opts.Levels[i-1].TargetFileSize * 2
		}
		l.EnsureDefaults()
	}
	opts.Levels[6].FilterPolicy = nil

	opts.EnsureDefaults()

	if verbose {
		listener := pebbleDB.MakeLoggingEventListener(nil)
		listener.TableDeleted = nil
		listener.TableIngested = nil
		listener.WALCreated = nil
		listener.WALDeleted = nil
		if eventListener != nil {
			listener.CompactionBegin = eventListener.CompactionBegin
			listener.CompactionEnd = eventListener.CompactionEnd
		}
		opts.EventListener = listener
	} else if eventListener != nil {
		opts.EventListener = *eventListener
	}

	return pebble.CreateDB(directory, opts)
}
