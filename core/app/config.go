package app

import (
	"fmt"
	"os"
	"sort"
	"strings"

	flag "github.com/spf13/pflag"
)

func getList(a []string) string {
	sort.Strings(a)
	return "\n   - " + strings.Join(a, "\n   - ")
}

func normalizeFlagSets(params map[string][]*flag.FlagSet) (map[string]*flag.FlagSet, error) {
	fs := make(map[string]*flag.FlagSet)
	for cfgName, flagSets := range params {

		// check whether the config even exists
		if _, has := cfgNames[cfgName]; !has {
			return nil, fmt.Errorf("%w: %s", ErrConfigDoesNotExist, cfgName)
		}

		flagsUnderSameCfg := flag.NewFlagSet("", flag.ContinueOnError)
		for _, flagSet := range flagSets {
			flagSet.VisitAll(func(f *flag.Flag) {
				flagsUnderSameCfg.AddFlag(f)
			})
		}
		fs[cfgName] = flagsUnderSameCfg
	}

	if _, has := fs["appConfig"]; !has {
		fs["appConfig"] = flag.NewFlagSet("", flag.ContinueOnError)
	}

	return fs, nil
}

// loads the config file, the environment and the command line flags, in that order.
func loadCfg(flagSets map[string]*flag.FlagSet) error {
	if err := appConfig.LoadFile(*appCfgFilePath); err != nil {
		if hasFlag(flag.CommandLine, CfgConfigFilePathAppConfig) {
			// if a file was explicitly specified, raise the error
			return err
		}
		fmt.Printf("No config file found via '%s'. Loading default settings.\n", *appCfgFilePath)
	}

	// load the flags to set the default values
	if err := appConfig.LoadFlagSet(flagSets["appConfig"]); err != nil {
		return err
	}

	// the env vars are only picked up for keys that already exist
	if err := appConfig.LoadEnvironmentVars("AGORA"); err != nil {
		return err
	}

	// load the flags again to overwrite env vars that were also set via command line
	return appConfig.LoadFlagSet(flagSets["appConfig"])
}

func hasFlag(flagSet *flag.FlagSet, name string) bool {
	has := false
	flagSet.Visit(func(f *flag.Flag) {
		if f.Name == name {
			has = true
		}
	})
	return has
}

// prints the loaded configuration, but hides sensitive information.
func printConfig(maskedKeys []string) {
	appConfig.Print(maskedKeys)

	enablePlugins := appConfig.Strings(CfgAppEnablePlugins)
	disablePlugins := appConfig.Strings(CfgAppDisablePlugins)

	if len(enablePlugins) > 0 {
		fmt.Printf("\nThe following plugins are enabled: %s\n", getList(enablePlugins))
	}
	if len(disablePlugins) > 0 {
		fmt.Printf("\nThe following plugins are disabled: %s\n", getList(disablePlugins))
	}
}

// adds the given flag sets to flag.CommandLine and then parses them.
func parseFlags(flagSets map[string]*flag.FlagSet) {
	for _, flagSet := range flagSets {
		flag.CommandLine.AddFlagSet(flagSet)
	}
	flag.Parse()
}

// hides all non essential flags from the help/usage text.
func hideConfigFlags(flagSets map[string]*flag.FlagSet) {
	hide := func(f *flag.Flag) {
		_, notHidden := nonHiddenFlag[f.Name]
		f.Hidden = !notHidden
	}

	flag.VisitAll(hide)
	for _, flagSet := range flagSets {
		flagSet.VisitAll(hide)
	}
}

// prints out the version of this node.
func printVersion(flagSets map[string]*flag.FlagSet) {
	if *version {
		fmt.Println(Name + " " + Version)
		os.Exit(0)
	}

	if *help {
		if !*helpFull {
			hideConfigFlags(flagSets)
		}
		flag.Usage()
		os.Exit(0)
	}
}
