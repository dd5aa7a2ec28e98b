package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/gohornet/agora/pkg/metrics"
	"github.com/gohornet/agora/pkg/utils"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/kvstore/mapdb"
	"github.com/iotaledger/hive.go/kvstore/pebble"
)

const (
	dbInfoFileName = "dbinfo"
)

type databaseInfo struct {
	Engine string `toml:"databaseEngine"`
}

// EngineFromString parses a string and returns an engine.
// Returns an error if the engine is unknown.
func EngineFromString(engineStr string) (Engine, error) {

	engine := Engine(strings.ToLower(engineStr))

	switch engine {
	case EnginePebble:
	case EngineMapDB:
	default:
		return EngineUnknown, fmt.Errorf("unknown database engine: %s, supported engines: pebble/mapdb", engineStr)
	}

	return engine, nil
}

// CheckEngine checks if the correct database engine is used.
// This function stores a so called "database info file" in the database folder or
// checks if an existing "database info file" contains the correct engine.
// Otherwise the files in the database folder are not compatible.
func CheckEngine(dbPath string, createDatabaseIfNotExists bool, dbEngine ...Engine) (Engine, error) {

	if len(dbEngine) > 0 && dbEngine[0] == EngineMapDB {
		// no need to create or access a "database info file" in case of mapdb (in-memory)
		return EngineMapDB, nil
	}

	if createDatabaseIfNotExists && len(dbEngine) == 0 {
		return EngineUnknown, errors.New("the database engine must be specified if the database should be newly created")
	}

	dbExists, err := Exists(dbPath)
	if err != nil {
		return EngineUnknown, err
	}

	if !dbExists && !createDatabaseIfNotExists {
		return EngineUnknown, fmt.Errorf("database not found (%s)", dbPath)
	}

	dbInfoFilePath := filepath.Join(dbPath, dbInfoFileName)
	if _, err := os.Stat(dbInfoFilePath); err != nil {
		if !os.IsNotExist(err) {
			return EngineUnknown, fmt.Errorf("unable to check database info file (%s): %w", dbInfoFilePath, err)
		}

		if len(dbEngine) == 0 {
			return EngineUnknown, fmt.Errorf("database info file not found (%s)", dbInfoFilePath)
		}

		if err := storeDatabaseInfoToFile(dbInfoFilePath, dbEngine[0]); err != nil {
			return EngineUnknown, err
		}

		return dbEngine[0], nil
	}

	engineFromInfoFile, err := LoadEngineFromFile(dbInfoFilePath)
	if err != nil {
		return EngineUnknown, err
	}

	if len(dbEngine) > 0 && engineFromInfoFile != dbEngine[0] {
		return EngineUnknown, fmt.Errorf("database engine does not match the configuration: '%v' != '%v'", engineFromInfoFile, dbEngine[0])
	}

	return engineFromInfoFile, nil
}

// LoadEngineFromFile returns the engine from the "database info file".
func LoadEngineFromFile(path string) (Engine, error) {

	var info databaseInfo

	if err := utils.ReadTOMLFromFile(path, &info); err != nil {
		return EngineUnknown, fmt.Errorf("unable to read database info file: %w", err)
	}

	return EngineFromString(info.Engine)
}

// storeDatabaseInfoToFile stores the used engine in a "database info file".
func storeDatabaseInfoToFile(filePath string, engine Engine) error {
	dirPath := filepath.Dir(filePath)

	if err := os.MkdirAll(dirPath, 0700); err != nil {
		return fmt.Errorf("could not create database dir '%s': %w", dirPath, err)
	}

	info := &databaseInfo{
		Engine: string(engine),
	}

	return utils.WriteTOMLToFile(filePath, info, 0660, "# auto-generated\n# !!! do not modify this file !!!")
}

// Open checks the engine of the database at path and opens it.
// The database metrics receive the compaction events of pebble.
func Open(path string, createDatabaseIfNotExists bool, databaseMetrics *metrics.DatabaseMetrics, dbEngine ...Engine) (*Database, error) {

	targetEngine, err := CheckEngine(path, createDatabaseIfNotExists, dbEngine...)
	if err != nil {
		return nil, err
	}

	switch targetEngine {
	case EnginePebble:
		db, err := NewPebbleDB(path, newCompactionEventListener(databaseMetrics), false)
		if err != nil {
			return nil, err
		}
		return New(path, pebble.New(db), targetEngine, databaseMetrics), nil

	case EngineMapDB:
		return New("", mapdb.NewMapDB(), targetEngine, databaseMetrics), nil

	default:
		return nil, fmt.Errorf("unknown database engine: %s, supported engines: pebble/mapdb", targetEngine)
	}
}

// StoreWithDefaultSettings returns a kvstore with default settings.
// It also checks if the database engine is correct.
func StoreWithDefaultSettings(path string, createDatabaseIfNotExists bool, dbEngine ...Engine) (kvstore.KVStore, error) {
	db, err := Open(path, createDatabaseIfNotExists, &metrics.DatabaseMetrics{}, dbEngine...)
	if err != nil {
		return nil, err
	}
	return db.KVStore(), nil
}
