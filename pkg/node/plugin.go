package node

import (
	"strings"

	flag "github.com/spf13/pflag"
	"go.uber.org/dig"

	"github.com/gohornet/agora/pkg/utils"
	"github.com/iotaledger/hive.go/configuration"
	"github.com/iotaledger/hive.go/daemon"
)

// PluginParams defines the parameters configuration of a plugin.
type PluginParams struct {
	// The parameters of the plugin under for the defined configuration.
	Params map[string]*flag.FlagSet
	// The configuration values to mask.
	Masked []string
}

// ProvideFunc gets called with a dig.Container.
type ProvideFunc func(c *dig.Container)

// Callback is a function called without any arguments.
type Callback func()

// Pluggable is something which extends the Node's capabilities.
type Pluggable struct {
	// A reference to the Node instance.
	Node *Node
	// The name of the plugin.
	Name string
	// The config parameters for this plugin.
	Params *PluginParams
	// The function to call to initialize the plugin dependencies.
	DepsFunc interface{}
	// Provide gets called in the provide stage of node initialization.
	Provide ProvideFunc
	// Configure gets called in the configure stage of node initialization.
	Configure Callback
	// Run gets called in the run stage of node initialization.
	Run Callback

	// the logger of the plugin, set before the provide stage.
	*utils.WrappedLogger
}

// Daemon returns the daemon of the node the plugin belongs to.
func (p *Pluggable) Daemon() daemon.Daemon {
	return p.Node.Daemon()
}

// Identifier returns the name in the form used to enable or disable the plugin.
func (p *Pluggable) Identifier() string {
	return strings.ToLower(strings.ReplaceAll(p.Name, " ", ""))
}

// InitPlugin is the module initializing configuration of the node.
// A Node can only have one of such modules.
type InitPlugin struct {
	Pluggable
	// Init gets called in the initialization stage of the node.
	Init InitFunc
	// The configs this InitPlugin brings to the node.
	Configs map[string]*configuration.Configuration
}

// InitConfig describes the result of a node initialization.
type InitConfig struct {
	EnabledPlugins  []string
	DisabledPlugins []string
}

// InitFunc gets called as the initialization function of the node.
type InitFunc func(params map[string][]*flag.FlagSet, maskedKeys []string) (*InitConfig, error)

// CorePlugin is a plugin essential for node operation.
// It can not be disabled.
type CorePlugin struct {
	Pluggable
}

const (
	StatusDisabled = iota
	StatusEnabled
)

// Plugin is an optional extension of the node.
type Plugin struct {
	Pluggable
	// The status of the plugin.
	Status int
}
