// Package server wires configuration, storage and the identity service
// together and runs the HTTP and gRPC transports until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/credentials"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/shared/db"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
	hs "github.com/dmitrijs2005/gophauth/internal/server/http"
)

const dbWaitTimeout = 30 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
	metrics     *metrics.Collector
}

// NewApp builds every dependency from c. Log output goes to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger, err := logging.New(c.LogFormat, c.LogLevel, w)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}
	logger = logger.With("service", c.ServiceName, "version", c.Version)

	m, err := repomanager.New(c.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	conn, err := db.Open(ctx, m, c.DatabaseDSN, logger, dbWaitTimeout)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	key := []byte(c.SecretKey)
	issuer, err := auth.NewIssuer(key, c.AccessTokenValidityDuration, auth.WithIssuer(c.ServiceName))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("token issuer init error: %w", err)
	}
	verifier := auth.NewVerifier(key, auth.WithIssuer(c.ServiceName))

	p := credentials.DefaultParams()
	p.MemoryKiB = c.HashMemoryKiB
	p.Iterations = c.HashIterations
	p.Parallelism = c.HashParallelism

	collector := metrics.New(c.ServiceName, c.Version, time.Now())

	us := services.NewUserService(conn, m, credentials.New(p), issuer, verifier,
		services.WithLogger(logger),
		services.WithRecorder(collector),
	)

	return &App{
		config:      c,
		logger:      logger,
		db:          conn,
		userService: us,
		metrics:     collector,
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves HTTP and gRPC until ctx is cancelled, a termination signal
// arrives or either server fails. The database is closed on return.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)
	app.initSignalHandler(ctx, cancelFunc)

	httpServer := hs.NewHTTPServer(hs.Options{
		Address:        app.config.EndpointAddrHTTP,
		ServiceName:    app.config.ServiceName,
		Version:        app.config.Version,
		CORSOrigins:    app.config.CORSOrigins,
		RequestTimeout: app.config.RequestTimeout,
		Metrics:        app.metrics.Handler(),
		Observer:       app.metrics,
	}, app.logger, app.userService)

	grpcServer := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService, app.metrics, app.config.RequestTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpServer.Run(gctx) })
	g.Go(func() error { return grpcServer.Run(gctx) })

	err := g.Wait()
	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
