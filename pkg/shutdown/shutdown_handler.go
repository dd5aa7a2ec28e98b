package shutdown

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iotaledger/hive.go/daemon"
	"github.com/iotaledger/hive.go/logger"
)

// ShutdownHandler waits until a shutdown signal was received or the node asked to stop itself,
// and then shuts down all background workers of the daemon in priority order.
type ShutdownHandler struct {
	log              *logger.Logger
	daemon           daemon.Daemon
	waitToKill       time.Duration
	gracefulStop     chan os.Signal
	nodeSelfShutdown chan string
}

// NewShutdownHandler creates a new shutdown handler.
// The process is killed if the workers did not stop within waitToKill.
func NewShutdownHandler(log *logger.Logger, daemon daemon.Daemon, waitToKill time.Duration) *ShutdownHandler {

	gs := &ShutdownHandler{
		log:              log,
		daemon:           daemon,
		waitToKill:       waitToKill,
		gracefulStop:     make(chan os.Signal, 1),
		nodeSelfShutdown: make(chan string),
	}

	signal.Notify(gs.gracefulStop, syscall.SIGTERM, syscall.SIGINT)

	return gs
}

// SelfShutdown instructs the node to shut down cleanly without an interrupt signal.
func (gs *ShutdownHandler) SelfShutdown(msg string) {
	select {
	case gs.nodeSelfShutdown <- msg:
	default:
	}
}

// Run starts the ShutdownHandler go routine.
func (gs *ShutdownHandler) Run() {

	go func() {
		select {
		case <-gs.gracefulStop:
			gs.log.Warnf("Received shutdown request - waiting (max %v) to finish processing ...", gs.waitToKill)
		case msg := <-gs.nodeSelfShutdown:
			gs.log.Warnf("Node self-shutdown: %s; waiting (max %v) to finish processing ...", msg, gs.waitToKill)
		}

		go func() {
			start := time.Now()
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()

			for now := range ticker.C {
				elapsed := now.Sub(start)
				if elapsed > gs.waitToKill {
					gs.log.Fatal("Background workers did not terminate in time! Forcing shutdown ...")
				}

				processList := ""
				if running := gs.daemon.GetRunningBackgroundWorkers(); len(running) > 0 {
					processList = "(" + strings.Join(running, ", ") + ") "
				}
				gs.log.Warnf("Received shutdown request - waiting (max %v) to finish processing %s...", (gs.waitToKill - elapsed).Truncate(time.Second), processList)
			}
		}()

		gs.daemon.ShutdownAndWait()
	}()
}
