package mediator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/remotehelp/internal/creds"
	"github.com/dmitrijs2005/remotehelp/internal/creds/boltrepo"
	"github.com/dmitrijs2005/remotehelp/internal/creds/postgresrepo"
	"github.com/dmitrijs2005/remotehelp/internal/logging"
	"github.com/dmitrijs2005/remotehelp/internal/mediator/config"
	"github.com/dmitrijs2005/remotehelp/internal/tlsx"
	"github.com/dmitrijs2005/remotehelp/internal/wire"
)

// App wires the mediator together: credential store, session registry,
// listeners, and the reaper, with graceful shutdown on SIGINT/SIGTERM.
type App struct {
	config   *config.Config
	logger   logging.Logger
	store    *creds.Store
	registry *Registry
	server   *Server
	closers  []io.Closer
}

func NewApp(c *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	ctx := context.Background()

	var repo creds.Repository
	var closers []io.Closer

	if strings.HasPrefix(c.DatabaseDSN, "postgres://") {
		r, db, err := postgresrepo.Open(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		repo = r
		closers = append(closers, db)
	} else {
		r, err := boltrepo.Open(c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		repo = r
		closers = append(closers, r)
	}

	store := creds.NewStore(repo)
	registry := NewRegistry(c.IdleTimeout, logger)

	tlsConf, err := tlsx.ServerConfig(c.CertFile, c.KeyFile, c.CAFile)
	if err != nil {
		return nil, fmt.Errorf("tls init error: %w", err)
	}

	opts := wire.Options{MaxFrameSize: uint32(c.MaxFrameSize), IOTimeout: c.IOTimeout}
	server := NewServer(c.EndpointAddrClient, c.EndpointAddrTech, tlsConf, opts, registry, store, logger)

	return &App{
		config:   c,
		logger:   logger,
		store:    store,
		registry: registry,
		server:   server,
		closers:  closers,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting mediator...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.registry.RunReaper(ctx)
	}()

	wg.Wait()

	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			app.logger.Error(ctx, err.Error())
		}
	}
}
