package apps

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"rankstream/internal/pkg/metrics"
	"rankstream/internal/pkg/ranking"
	"rankstream/internal/pkg/server"
	"rankstream/internal/pkg/validate"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// ServerAppCfg configures a ServerApp.
type ServerAppCfg interface {
	ApplyServerApp(*ServerApp) error
}

// ServerApp is the demo rankstream server application.
type ServerApp struct {
	Port          uint16 `validate:"required"`
	MetricsPort   uint16
	MaxStreams    uint32        `validate:"required"`
	DeferredDelay time.Duration `validate:"min=0"`
	CacheTTL      time.Duration `validate:"min=0"`

	// Listener, when set, is served instead of listening on Port.
	Listener net.Listener `validate:"-"`
}

// NewServerApp creates a new ServerApp.
func NewServerApp(cfgs ...ServerAppCfg) (*ServerApp, error) {
	app := &ServerApp{
		MaxStreams:    100,
		DeferredDelay: server.DefaultDeferredDelay,
	}
	for _, cfg := range cfgs {
		if err := cfg.ApplyServerApp(app); err != nil {
			return nil, errors.Wrap(err, "apply ServerApp cfg failed")
		}
	}
	if err := validate.Validate().Struct(app); err != nil {
		return nil, errors.Wrap(err, "validate ServerApp failed")
	}
	return app, nil
}

// Run serves the Ranking service until ctx is done, then stops gracefully.
func (app *ServerApp) Run(ctx context.Context, _ []string) error {
	lis := app.Listener
	if lis == nil {
		var err error
		lis, err = net.Listen("tcp", fmt.Sprintf(":%d", app.Port))
		if err != nil {
			return errors.Wrapf(err, "listen on port %d failed", app.Port)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var engine ranking.Engine = ranking.NewHashEngine()
	if app.CacheTTL > 0 {
		engine = ranking.NewCachingEngine(engine, app.CacheTTL)
	}
	srv, err := server.NewServer(
		server.WithEngine(engine),
		server.WithDeferredDelay(app.DeferredDelay),
		server.WithMetrics(metrics.NewServer(reg)),
	)
	if err != nil {
		return errors.Wrap(err, "create server failed")
	}
	gs := grpc.NewServer(grpc.MaxConcurrentStreams(app.MaxStreams))
	srv.Register(gs)

	var metricsSrv *http.Server
	if app.MetricsPort != 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsSrv = &http.Server{
			Addr:              fmt.Sprintf(":%d", app.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithFields(logrus.Fields{
			"addr":              lis.Addr().String(),
			"deferred_delay_ms": app.DeferredDelay.Milliseconds(),
			"cache_ttl_ms":      app.CacheTTL.Milliseconds(),
			"max_streams":       app.MaxStreams,
		}).Info("ranking server listening")
		return errors.Wrap(gs.Serve(lis), "serve gRPC failed")
	})
	if metricsSrv != nil {
		g.Go(func() error {
			logger.WithField("addr", metricsSrv.Addr).Info("metrics server listening")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "serve metrics failed")
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down ranking server")
		gs.GracefulStop()
		if metricsSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				return errors.Wrap(err, "shutdown metrics server failed")
			}
		}
		return nil
	})
	return g.Wait()
}
