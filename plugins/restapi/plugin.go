package restapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/gohornet/agora/core/app"
	"github.com/gohornet/agora/pkg/metrics"
	"github.com/gohornet/agora/pkg/node"
	"github.com/gohornet/agora/pkg/restapi"
	"github.com/gohornet/agora/pkg/shutdown"
	"github.com/iotaledger/hive.go/configuration"
)

const (
	nodeAPIHealthRoute = "/health"
	nodeAPIInfoRoute   = "/api/info"
)

func init() {
	Plugin = &node.Plugin{
		Status: node.StatusEnabled,
		Pluggable: node.Pluggable{
			Name:      "RestAPI",
			DepsFunc:  func(cDeps dependencies) { deps = cDeps },
			Params:    params,
			Provide:   provide,
			Configure: configure,
			Run:       run,
		},
	}
}

var (
	Plugin *node.Plugin
	deps   dependencies
)

type dependencies struct {
	dig.In
	AppConfig       *configuration.Configuration `name:"appConfig"`
	AppInfo         *app.AppInfo
	Echo            *echo.Echo
	RestAPIMetrics  *metrics.RestAPIMetrics
	ShutdownHandler *shutdown.ShutdownHandler
}

// infoResponse defines the response of a GET info REST API call.
type infoResponse struct {
	// The name of the app.
	Name string `json:"name"`
	// The version of the app.
	Version string `json:"version"`
}

func provide(c *dig.Container) {

	if err := c.Provide(func() *metrics.RestAPIMetrics {
		return &metrics.RestAPIMetrics{}
	}); err != nil {
		Plugin.LogPanic(err)
	}

	type echoDeps struct {
		dig.In
		AppConfig *configuration.Configuration `name:"appConfig"`
	}

	if err := c.Provide(func(deps echoDeps) *echo.Echo {
		e := echo.New()
		e.HideBanner = true
		e.Use(middleware.Recover())
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, restapi.HeaderIdentity},
		}))
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			// sync peers hijack the connection
			Skipper: func(c echo.Context) bool { return websocket.IsWebSocketUpgrade(c.Request()) },
		}))
		e.Use(middleware.BodyLimit(deps.AppConfig.String(CfgRestAPILimitsMaxBodyLength)))

		return e
	}); err != nil {
		Plugin.LogPanic(err)
	}
}

func configure() {
	if deps.AppConfig.Bool(CfgRestAPIDebugRequestLoggerEnabled) {
		deps.Echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Format: "${time_rfc3339} ${remote_ip} ${method} ${uri} ${status} ${latency_human}\n",
		}))
	}

	deps.Echo.HTTPErrorHandler = restapi.ErrorHandler(func(err error) {
		Plugin.LogDebugf("HTTP request failed: %s", err)
		deps.RestAPIMetrics.HTTPRequestErrorCounter.Inc()
	})

	deps.Echo.GET(nodeAPIHealthRoute, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	deps.Echo.GET(nodeAPIInfoRoute, func(c echo.Context) error {
		return restapi.JSONResponse(c, http.StatusOK, &infoResponse{
			Name:    deps.AppInfo.Name,
			Version: deps.AppInfo.Version,
		})
	})
}

func run() {

	Plugin.LogInfo("Starting REST-API server ...")

	if err := Plugin.Daemon().BackgroundWorker("REST-API server", func(ctx context.Context) {
		Plugin.LogInfo("Starting REST-API server ... done")

		bindAddr := deps.AppConfig.String(CfgRestAPIBindAddress)

		go func() {
			Plugin.LogInfof("You can now access the API using: http://%s", bindAddr)
			if err := deps.Echo.Start(bindAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				Plugin.LogWarnf("Stopped REST-API server due to an error (%s)", err)
				deps.ShutdownHandler.SelfShutdown(fmt.Sprintf("REST-API server failed: %s", err))
			}
		}()

		<-ctx.Done()
		Plugin.LogInfo("Stopping REST-API server ...")

		shutdownCtx, shutdownCtxCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := deps.Echo.Shutdown(shutdownCtx); err != nil {
			Plugin.LogWarn(err)
		}
		shutdownCtxCancel()
		Plugin.LogInfo("Stopping REST-API server ... done")
	}, shutdown.PriorityRestAPI); err != nil {
		Plugin.LogPanicf("failed to start worker: %s", err)
	}
}
