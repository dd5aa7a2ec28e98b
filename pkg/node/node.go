package node

import (
	"strings"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"go.uber.org/dig"

	"github.com/gohornet/agora/pkg/utils"
	"github.com/iotaledger/hive.go/daemon"
	"github.com/iotaledger/hive.go/logger"
)

type Node struct {
	*utils.WrappedLogger

	disabledPlugins map[string]struct{}
	enabledPlugins  map[string]struct{}
	corePluginsMap  map[string]*CorePlugin
	corePlugins     []*CorePlugin
	pluginsMap      map[string]*Plugin
	plugins         []*Plugin
	container       *dig.Container
	options         *NodeOptions
}

// New creates a node, runs the init plugin and configures all core plugins and enabled plugins.
func New(optionalOptions ...NodeOption) *Node {
	nodeOpts := &NodeOptions{}
	nodeOpts.apply(defaultNodeOptions...)
	nodeOpts.apply(optionalOptions...)

	node := &Node{
		disabledPlugins: make(map[string]struct{}),
		enabledPlugins:  make(map[string]struct{}),
		corePluginsMap:  make(map[string]*CorePlugin),
		corePlugins:     make([]*CorePlugin, 0),
		pluginsMap:      make(map[string]*Plugin),
		plugins:         make([]*Plugin, 0),
		container:       dig.New(dig.DeferAcyclicVerification()),
		options:         nodeOpts,
	}

	// initialize the core plugins and plugins
	node.init()

	// configure the core plugins and enabled plugins
	node.configure()

	return node
}

// Run creates a node and blocks until all background workers stopped.
func Run(optionalOptions ...NodeOption) *Node {
	node := New(optionalOptions...)
	node.Run()

	return node
}

// IsSkipped returns whether the plugin is loaded or skipped.
func (n *Node) IsSkipped(plugin *Plugin) bool {
	return (plugin.Status == StatusDisabled || n.isDisabled(plugin)) &&
		(plugin.Status == StatusEnabled || !n.isEnabled(plugin))
}

func (n *Node) isDisabled(plugin *Plugin) bool {
	_, exists := n.disabledPlugins[plugin.Identifier()]
	return exists
}

func (n *Node) isEnabled(plugin *Plugin) bool {
	_, exists := n.enabledPlugins[plugin.Identifier()]
	return exists
}

func collectParams(pluggable *Pluggable, params map[string][]*flag.FlagSet, masked []string) []string {
	if pluggable.Params == nil {
		return masked
	}
	for k, v := range pluggable.Params.Params {
		params[k] = append(params[k], v)
	}
	return append(masked, pluggable.Params.Masked...)
}

func (n *Node) init() {
	initPlugin := n.options.initPlugin
	if initPlugin == nil {
		panic("you must configure the node with an InitPlugin")
	}

	params := map[string][]*flag.FlagSet{}
	var masked []string

	masked = collectParams(&initPlugin.Pluggable, params, masked)
	for _, corePlugin := range n.options.corePlugins {
		masked = collectParams(&corePlugin.Pluggable, params, masked)
	}
	for _, plugin := range n.options.plugins {
		masked = collectParams(&plugin.Pluggable, params, masked)
	}

	initCfg, err := initPlugin.Init(params, masked)
	if err != nil {
		panic(errors.WithMessage(err, "unable to initialize node"))
	}

	for _, name := range initCfg.EnabledPlugins {
		n.enabledPlugins[strings.ToLower(name)] = struct{}{}
	}
	for _, name := range initCfg.DisabledPlugins {
		n.disabledPlugins[strings.ToLower(name)] = struct{}{}
	}

	// the loggers are created after the init phase because the init plugin configures the global logger
	n.WrappedLogger = utils.NewWrappedLogger(logger.NewLogger("Node"))
	n.preparePluggable(&initPlugin.Pluggable)

	for _, corePlugin := range n.options.corePlugins {
		n.addCorePlugin(corePlugin)
	}
	for _, plugin := range n.options.plugins {
		if n.IsSkipped(plugin) {
			continue
		}
		n.addPlugin(plugin)
	}

	n.ForEachCorePlugin(func(corePlugin *CorePlugin) bool {
		n.preparePluggable(&corePlugin.Pluggable)
		return true
	})
	n.ForEachPlugin(func(plugin *Plugin) bool {
		n.preparePluggable(&plugin.Pluggable)
		return true
	})

	if initPlugin.Provide == nil {
		panic("the init plugin must have a provide func")
	}
	initPlugin.Provide(n.container)

	n.ForEachCorePlugin(func(corePlugin *CorePlugin) bool {
		if corePlugin.Provide != nil {
			corePlugin.Provide(n.container)
		}
		return true
	})

	n.ForEachPlugin(func(plugin *Plugin) bool {
		if plugin.Provide != nil {
			plugin.Provide(n.container)
		}
		return true
	})

	invoke := func(pluggable *Pluggable) {
		if pluggable.DepsFunc == nil {
			return
		}
		if err := n.container.Invoke(pluggable.DepsFunc); err != nil {
			panic(errors.WithMessagef(err, "unable to resolve dependencies of %s", pluggable.Name))
		}
	}

	invoke(&initPlugin.Pluggable)
	n.ForEachCorePlugin(func(corePlugin *CorePlugin) bool {
		invoke(&corePlugin.Pluggable)
		return true
	})
	n.ForEachPlugin(func(plugin *Plugin) bool {
		invoke(&plugin.Pluggable)
		return true
	})
}

func (n *Node) preparePluggable(pluggable *Pluggable) {
	pluggable.Node = n
	pluggable.WrappedLogger = utils.NewWrappedLogger(logger.NewLogger(pluggable.Name))
}

func (n *Node) configurePluggable(pluggable *Pluggable) {
	if pluggable.Configure != nil {
		pluggable.Configure()
	}
}

func (n *Node) configure() {
	n.configurePluggable(&n.options.initPlugin.Pluggable)

	n.ForEachCorePlugin(func(corePlugin *CorePlugin) bool {
		n.configurePluggable(&corePlugin.Pluggable)
		n.LogInfof("Loading core plugin: %s ... done", corePlugin.Name)
		return true
	})

	n.ForEachPlugin(func(plugin *Plugin) bool {
		n.configurePluggable(&plugin.Pluggable)
		n.LogInfof("Loading plugin: %s ... done", plugin.Name)
		return true
	})
}

func (n *Node) execute() {
	n.LogInfo("Executing core plugins ...")

	if n.options.initPlugin.Run != nil {
		n.options.initPlugin.Run()
	}

	n.ForEachCorePlugin(func(corePlugin *CorePlugin) bool {
		if corePlugin.Run != nil {
			corePlugin.Run()
		}
		n.LogInfof("Starting core plugin: %s ... done", corePlugin.Name)
		return true
	})

	n.LogInfo("Executing plugins ...")

	n.ForEachPlugin(func(plugin *Plugin) bool {
		if plugin.Run != nil {
			plugin.Run()
		}
		n.LogInfof("Starting plugin: %s ... done", plugin.Name)
		return true
	})
}

// Run executes all plugins and blocks until the daemon shut down.
func (n *Node) Run() {
	n.execute()

	n.LogInfo("Starting background workers ...")
	n.Daemon().Run()

	n.LogInfo("Shutdown complete!")
}

// Shutdown stops all background workers and waits for them.
func (n *Node) Shutdown() {
	n.Daemon().ShutdownAndWait()
}

func (n *Node) Daemon() daemon.Daemon {
	return n.options.daemon
}

func (n *Node) addCorePlugin(corePlugin *CorePlugin) {
	name := corePlugin.Name

	if _, exists := n.corePluginsMap[name]; exists {
		panic("duplicate core plugin - \"" + name + "\" was defined already")
	}

	n.corePluginsMap[name] = corePlugin
	n.corePlugins = append(n.corePlugins, corePlugin)
}

func (n *Node) addPlugin(plugin *Plugin) {
	name := plugin.Name

	if _, exists := n.pluginsMap[name]; exists {
		panic("duplicate plugin - \"" + name + "\" was defined already")
	}

	n.pluginsMap[name] = plugin
	n.plugins = append(n.plugins, plugin)
}

// CorePluginForEachFunc is used in ForEachCorePlugin.
// Returning false indicates to stop looping.
type CorePluginForEachFunc func(corePlugin *CorePlugin) bool

// ForEachCorePlugin calls the given CorePluginForEachFunc on each loaded core plugin.
func (n *Node) ForEachCorePlugin(f CorePluginForEachFunc) {
	for _, corePlugin := range n.corePlugins {
		if !f(corePlugin) {
			break
		}
	}
}

// PluginForEachFunc is used in ForEachPlugin.
// Returning false indicates to stop looping.
type PluginForEachFunc func(plugin *Plugin) bool

// ForEachPlugin calls the given PluginForEachFunc on each loaded plugin.
func (n *Node) ForEachPlugin(f PluginForEachFunc) {
	for _, plugin := range n.plugins {
		if !f(plugin) {
			break
		}
	}
}
