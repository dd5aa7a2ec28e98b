package gracefulshutdown

import (
	"time"

	"go.uber.org/dig"

	"github.com/gohornet/agora/pkg/node"
	"github.com/gohornet/agora/pkg/shutdown"
)

// the maximum amount of time to wait for background workers to terminate. After that the process is killed.
const waitToKill = 300 * time.Second

func init() {
	CorePlugin = &node.CorePlugin{
		Pluggable: node.Pluggable{
			Name:      "Graceful Shutdown",
			DepsFunc:  func(cDeps dependencies) { deps = cDeps },
			Provide:   provide,
			Configure: configure,
		},
	}
}

var (
	CorePlugin *node.CorePlugin
	deps       dependencies
)

type dependencies struct {
	dig.In
	ShutdownHandler *shutdown.ShutdownHandler
}

func provide(c *dig.Container) {
	if err := c.Provide(func() *shutdown.ShutdownHandler {
		return shutdown.NewShutdownHandler(CorePlugin.LoggerNamed(CorePlugin.Name), CorePlugin.Daemon(), waitToKill)
	}); err != nil {
		panic(err)
	}
}

func configure() {
	deps.ShutdownHandler.Run()
}
