package app

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"go.uber.org/dig"

	"github.com/gohornet/agora/pkg/node"
	"github.com/iotaledger/hive.go/configuration"
	"github.com/iotaledger/hive.go/logger"
)

var (
	// Name of the app.
	Name = "AGORA"

	// Version of the app.
	Version = "0.1.0"
)

var (
	version  = flag.BoolP("version", "v", false, "Prints the AGORA version")
	help     = flag.BoolP("help", "h", false, "Prints the AGORA help (--full for all parameters)")
	helpFull = flag.Bool("full", false, "Prints full AGORA help (only in combination with -h)")

	appConfig = configuration.New()

	configFilesFlagSet = flag.NewFlagSet("config_files", flag.ContinueOnError)
	appCfgFilePath     = configFilesFlagSet.StringP(CfgConfigFilePathAppConfig, "c", "config.json", "file path of the config file")

	nonHiddenFlag = map[string]struct{}{
		"config":             {},
		"app.disablePlugins": {},
		"app.enablePlugins":  {},
		"version":            {},
		"help":               {},
	}

	cfgNames = map[string]struct{}{
		"appConfig": {},
	}

	ErrConfigDoesNotExist = errors.New("config does not exist")
)

// AppInfo holds the name and version of the running app.
type AppInfo struct {
	Name    string
	Version string
}

func init() {
	InitPlugin = &node.InitPlugin{
		Pluggable: node.Pluggable{
			Name:      "App",
			Params:    params,
			Provide:   provide,
			Configure: configure,
		},
		Configs: map[string]*configuration.Configuration{
			"appConfig": appConfig,
		},
		Init: initialize,
	}
}

var (
	InitPlugin *node.InitPlugin
)

func initialize(params map[string][]*flag.FlagSet, maskedKeys []string) (*node.InitConfig, error) {

	configFlagSets, err := normalizeFlagSets(params)
	if err != nil {
		return nil, err
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage of %s (%s %s):

Command line flags:
`, os.Args[0], Name, Version)
		flag.PrintDefaults()
	}

	flagSetsToParse := configFlagSets
	flagSetsToParse["config_files"] = configFilesFlagSet

	parseFlags(flagSetsToParse)
	printVersion(flagSetsToParse)

	if err = loadCfg(configFlagSets); err != nil {
		return nil, err
	}

	if err = appConfig.SetDefault(logger.ConfigurationKeyDisableCaller, true); err != nil {
		return nil, err
	}

	if err = logger.InitGlobalLogger(appConfig); err != nil {
		return nil, errors.Wrap(err, "unable to initialize the global logger")
	}

	fmt.Printf(`
               █████╗  ██████╗  ██████╗ ██████╗  █████╗
              ██╔══██╗██╔════╝ ██╔═══██╗██╔══██╗██╔══██╗
              ███████║██║  ███╗██║   ██║██████╔╝███████║
              ██╔══██║██║   ██║██║   ██║██╔══██╗██╔══██║
              ██║  ██║╚██████╔╝╚██████╔╝██║  ██║██║  ██║
              ╚═╝  ╚═╝ ╚═════╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝
                                v%s
`+"\n", Version)

	printConfig(maskedKeys)

	return &node.InitConfig{
		EnabledPlugins:  appConfig.Strings(CfgAppEnablePlugins),
		DisabledPlugins: appConfig.Strings(CfgAppDisablePlugins),
	}, nil
}

func provide(c *dig.Container) {

	type cfgResult struct {
		dig.Out
		AppConfig *configuration.Configuration `name:"appConfig"`
	}

	if err := c.Provide(func() cfgResult {
		return cfgResult{
			AppConfig: appConfig,
		}
	}); err != nil {
		panic(err)
	}

	if err := c.Provide(func() *AppInfo {
		return &AppInfo{
			Name:    Name,
			Version: Version,
		}
	}); err != nil {
		panic(err)
	}
}

func configure() {
	InitPlugin.LogInfo("Loading plugins ...")
}
