package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"syscall"

	route "github.com/bassista/go_catalog/internal/api/route"
	appctx "github.com/bassista/go_catalog/internal/app"
	"github.com/bassista/go_catalog/internal/config"
	"github.com/bassista/go_catalog/internal/failure"
	"github.com/bassista/go_catalog/internal/logger"
	"github.com/bassista/go_catalog/internal/persistence"
	"github.com/bassista/go_catalog/internal/remote"
	"github.com/gin-gonic/gin"

	"github.com/enrichman/httpgrace"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithComponent("main").Fatalf("configuration error: %v", err)
	}

	if err := logger.SetLevel(cfg.Misc.LogLevel); err != nil {
		logger.WithComponent("main").Warnf("%v, using '%s'", err, logger.Logger.GetLevel())
	}
	logger.WithComponent("main").Debugf("log level set to: %s", logger.Logger.GetLevel())
	logger.WithComponent("main").Infof("App will run on port: %d", cfg.Server.Port)

	if failure.EnableReporting(os.Getenv("HONEYBADGER_API_KEY"), cfg.Misc.Environment) {
		logger.WithComponent("main").Info("failure reporting enabled")
	}

	app, err := newApp(cfg)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init app: %v", err)
	}
	defer app.Shutdown()

	app.StartWatchers()

	gin.SetMode(cfg.Misc.GinMode)
	gin.DefaultWriter = logger.Logger.Writer()
	gin.DefaultErrorWriter = logger.Logger.Writer()

	r := route.SetupRoutes(app, logger.Logger)
	mainSrv := createGraceHttpServer(app.BaseCtx, "main-server", app.Config.Server, r)

	if err := mainSrv.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithComponent("main").Fatal(err)
	}
}

// newApp opens the durable store and the remote service described by cfg.
func newApp(cfg *config.Config) (*appctx.App, error) {
	store, err := persistence.NewBoltStore(cfg.Data.StorePath)
	if err != nil {
		return nil, fmt.Errorf("cannot open store: %w", err)
	}

	svc, err := remote.NewServiceFromConfig(cfg.Remote.Type, cfg.Remote.BaseURL, cfg.Remote.Token, cfg.Remote.Timeout)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("cannot init remote service: %w", err)
	}
	logger.WithComponent("main").Infof("remote service: %s", cfg.Remote.Type)

	app, err := appctx.New(cfg, store, svc)
	if err != nil {
		store.Close()
		return nil, err
	}
	return app, nil
}

func createGraceHttpServer(ctx context.Context, name string, serverConfig config.ServerConfig, r *gin.Engine) *httpgrace.Server {
	slogLogger := slog.New(slog.NewTextHandler(logger.Logger.Writer(), nil))

	srv := httpgrace.NewServer(r,
		httpgrace.WithTimeout(serverConfig.ShutDownTimeout),
		httpgrace.WithSignals(syscall.SIGTERM, syscall.SIGINT),
		httpgrace.WithLogger(slogLogger),
		httpgrace.WithBeforeShutdown(func() {
			logger.WithComponent("http").Infof("Shutting down %s server....", name)
		}),
		httpgrace.WithServerOptions(
			httpgrace.WithReadTimeout(serverConfig.ReadTimeout),
			httpgrace.WithWriteTimeout(serverConfig.WriteTimeout),
			httpgrace.WithIdleTimeout(serverConfig.IdleTimeout),
			func(srv *http.Server) {
				srv.BaseContext = func(_ net.Listener) context.Context {
					return ctx
				}
			},
			func(srv *http.Server) {
				srv.ErrorLog = log.New(logger.Logger.Writer(), fmt.Sprintf("[%s] ", name), log.LstdFlags)
			},
		),
	)
	return srv
}
