package database

import (
	flag "github.com/spf13/pflag"

	"github.com/gohornet/agora/pkg/node"
)

const (
	// the used database engine (pebble/mapdb)
	CfgDatabaseEngine = "db.engine"
	// the path to the database folder
	CfgDatabasePath = "db.path"
)

var params = &node.PluginParams{
	Params: map[string]*flag.FlagSet{
		"appConfig": func() *flag.FlagSet {
			fs := flag.NewFlagSet("", flag.ContinueOnError)
			fs.String(CfgDatabaseEngine, "pebble", "the used database engine (pebble/mapdb)")
			fs.String(CfgDatabasePath, "governancedb", "the path to the database folder")
			return fs
		}(),
	},
	Masked: nil,
}
