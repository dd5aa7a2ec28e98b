package prometheus

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/dig"

	"github.com/gohornet/agora/pkg/database"
	"github.com/gohornet/agora/pkg/governance"
	"github.com/gohornet/agora/pkg/metrics"
	"github.com/gohornet/agora/pkg/node"
	"github.com/gohornet/agora/pkg/shutdown"
	"github.com/iotaledger/hive.go/configuration"
)

// RouteMetrics is the route for getting the prometheus metrics.
// GET returns metrics.
const (
	RouteMetrics = "/metrics"
)

func init() {
	Plugin = &node.Plugin{
		Status: node.StatusDisabled,
		Pluggable: node.Pluggable{
			Name:      "Prometheus",
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

	registry = prometheus.NewRegistry()
	collects []func()
)

type dependencies struct {
	dig.In
	AppConfig      *configuration.Configuration `name:"appConfig"`
	Database       *database.Database
	Engine         *governance.Engine
	RestAPIMetrics *metrics.RestAPIMetrics `optional:"true"`
	Echo           *echo.Echo              `optional:"true"`
	PrometheusEcho *echo.Echo              `name:"prometheusEcho"`
}

func provide(c *dig.Container) {

	type depsOut struct {
		dig.Out
		PrometheusEcho *echo.Echo `name:"prometheusEcho"`
	}

	if err := c.Provide(func() depsOut {
		e := echo.New()
		e.HideBanner = true
		e.Use(middleware.Recover())
		return depsOut{
			PrometheusEcho: e,
		}
	}); err != nil {
		Plugin.LogPanic(err)
	}
}

func configure() {
	if deps.AppConfig.Bool(CfgPrometheusDatabase) {
		configureDatabase()
	}
	if deps.AppConfig.Bool(CfgPrometheusGovernance) {
		configureGovernance()
	}
	if deps.AppConfig.Bool(CfgPrometheusRestAPI) && deps.RestAPIMetrics != nil {
		configureRestAPI()
	}
	if deps.AppConfig.Bool(CfgPrometheusGoMetrics) {
		registry.MustRegister(collectors.NewGoCollector())
	}
	if deps.AppConfig.Bool(CfgPrometheusProcessMetrics) {
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	deps.PrometheusEcho.GET(RouteMetrics, metricsHandler(deps.AppConfig.Bool(CfgPrometheusPromhttpMetrics)))
}

func addCollect(collect func()) {
	collects = append(collects, collect)
}

func metricsHandler(promhttpMetrics bool) echo.HandlerFunc {
	handler := promhttp.HandlerFor(
		registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	)
	if promhttpMetrics {
		handler = promhttp.InstrumentMetricHandler(registry, handler)
	}

	return func(c echo.Context) error {
		for _, collect := range collects {
			collect()
		}
		handler.ServeHTTP(c.Response().Writer, c.Request())
		return nil
	}
}

func run() {
	Plugin.LogInfo("Starting Prometheus exporter ...")

	if err := Plugin.Daemon().BackgroundWorker("Prometheus exporter", func(ctx context.Context) {
		Plugin.LogInfo("Starting Prometheus exporter ... done")

		bindAddr := deps.AppConfig.String(CfgPrometheusBindAddress)

		go func() {
			Plugin.LogInfof("You can now access the Prometheus exporter using: http://%s%s", bindAddr, RouteMetrics)
			if err := deps.PrometheusEcho.Start(bindAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				Plugin.LogWarnf("Stopped Prometheus exporter due to an error (%s)", err)
			}
		}()

		<-ctx.Done()
		Plugin.LogInfo("Stopping Prometheus exporter ...")

		shutdownCtx, shutdownCtxCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCtxCancel()

		if err := deps.PrometheusEcho.Shutdown(shutdownCtx); err != nil {
			Plugin.LogWarn(err)
		}
		Plugin.LogInfo("Stopping Prometheus exporter ... done")
	}, shutdown.PriorityPrometheus); err != nil {
		Plugin.LogPanicf("failed to start worker: %s", err)
	}
}
