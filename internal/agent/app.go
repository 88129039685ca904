package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dmitrijs2005/remotehelp/internal/agent/config"
	"github.com/dmitrijs2005/remotehelp/internal/creds"
	"github.com/dmitrijs2005/remotehelp/internal/creds/boltrepo"
	"github.com/dmitrijs2005/remotehelp/internal/creds/postgresrepo"
	"github.com/dmitrijs2005/remotehelp/internal/logging"
	"github.com/dmitrijs2005/remotehelp/internal/tlsx"
	"github.com/dmitrijs2005/remotehelp/internal/wire"
)

// App wires the agent for one of its two topologies. Mediator mode keeps a
// registration alive with the mediator, re-dialing after failures; direct
// mode runs the listener technicians connect to. The capture and input
// collaborators come from the caller.
type App struct {
	config  *config.Config
	logger  logging.Logger
	screens ScreenSource
	inputs  InputSink
}

func NewApp(c *config.Config, screens ScreenSource, inputs InputSink) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	if c.Mode != config.ModeMediator && c.Mode != config.ModeDirect {
		return nil, fmt.Errorf("unknown mode %q", c.Mode)
	}

	return &App{config: c, logger: logger, screens: screens, inputs: inputs}, nil
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

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting agent...", "mode", app.config.Mode)

	app.initSignalHandler(cancelFunc)

	if app.config.Mode == config.ModeDirect {
		return app.runDirect(ctx)
	}
	return app.runMediator(ctx)
}

func (app *App) runMediator(ctx context.Context) error {
	host, _, err := net.SplitHostPort(app.config.MediatorAddr)
	if err != nil {
		return fmt.Errorf("mediator address: %w", err)
	}

	tlsConf, err := tlsx.ClientConfig(app.config.CertFile, app.config.KeyFile, app.config.CAFile, host)
	if err != nil {
		return fmt.Errorf("tls init error: %w", err)
	}

	opts := wire.Options{MaxFrameSize: uint32(app.config.MaxFrameSize), IOTimeout: app.config.IOTimeout}
	a := New(app.config.MediatorAddr, tlsConf, opts, app.config.SessionID, app.screens, app.inputs, app.logger)

	for {
		if err := a.Run(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			app.logger.Warn(ctx, "mediator connection lost", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(app.config.ReconnectDelay):
		}
	}
}

func (app *App) runDirect(ctx context.Context) error {
	var repo creds.Repository

	if strings.HasPrefix(app.config.DatabaseDSN, "postgres://") {
		r, db, err := postgresrepo.Open(ctx, app.config.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("db init error: %w", err)
		}
		defer db.Close()
		repo = r
	} else {
		r, err := boltrepo.Open(app.config.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("db init error: %w", err)
		}
		defer r.Close()
		repo = r
	}

	tlsConf, err := tlsx.ServerConfig(app.config.CertFile, app.config.KeyFile, app.config.CAFile)
	if err != nil {
		return fmt.Errorf("tls init error: %w", err)
	}

	opts := wire.Options{MaxFrameSize: uint32(app.config.MaxFrameSize), IOTimeout: app.config.IOTimeout}
	listener := NewDirectListener(app.config.DirectAddr, tlsConf, opts, creds.NewStore(repo), app.screens, app.inputs, app.logger)

	return listener.Run(ctx)
}
