package agent

import (
	"context"
	"crypto/tls"
	"net"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/remotehelp/internal/creds"
	"github.com/dmitrijs2005/remotehelp/internal/logging"
	"github.com/dmitrijs2005/remotehelp/internal/wire"
)

// DirectListener accepts technician connections straight on the helped
// machine, with no mediator in between. Authentication uses the same
// credential store contract as the mediator path. Only one technician may
// be active at a time; late arrivals are rejected busy.
type DirectListener struct {
	addr    string
	tlsConf *tls.Config
	opts    wire.Options
	store   *creds.Store
	screens ScreenSource
	inputs  InputSink
	logger  logging.Logger

	busy atomic.Bool

	ready chan struct{}
	bound net.Addr
}

func NewDirectListener(addr string, tlsConf *tls.Config, opts wire.Options, store *creds.Store, screens ScreenSource, inputs InputSink, logger logging.Logger) *DirectListener {
	return &DirectListener{
		addr:    addr,
		tlsConf: tlsConf,
		opts:    opts,
		store:   store,
		screens: screens,
		inputs:  inputs,
		logger:  logger.With("module", "direct_listener"),
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the listener is bound; Addr is valid after that.
func (d *DirectListener) Ready() <-chan struct{} { return d.ready }

func (d *DirectListener) Addr() net.Addr { return d.bound }

// Run accepts connections until ctx is cancelled.
func (d *DirectListener) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.addr)
	if err != nil {
		return err
	}

	d.bound = ln.Addr()
	close(d.ready)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	d.logger.Info(ctx, "direct listener started", "addr", d.bound.String())

	for {
		raw, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go d.handle(ctx, raw)
	}
}

func (d *DirectListener) handle(ctx context.Context, raw net.Conn) {
	hsCtx, cancel := context.WithTimeout(ctx, d.handshakeTimeout())
	sess, err := wire.Server(hsCtx, raw, d.tlsConf, d.opts)
	cancel()
	if err != nil {
		d.logger.Warn(ctx, "rejecting connection", "peer", raw.RemoteAddr().String(), "error", err)
		return
	}

	msg, err := sess.ReceiveControl()
	if err != nil || msg.Kind != wire.ControlPairRequest {
		d.logger.Warn(ctx, "connection without pair request", "peer", sess.RemoteAddr().String(), "error", err)
		sess.Close()
		return
	}

	ok, err := d.store.Verify(ctx, msg.Username, msg.Password)
	if err != nil || !ok {
		if err != nil {
			d.logger.Error(ctx, "credential verification failed", "error", err)
		} else {
			d.logger.Warn(ctx, "technician rejected", "username", msg.Username)
		}
		_ = sess.SendControl(&wire.ControlMessage{Kind: wire.ControlPairRejected, Reason: wire.ReasonUnauthorized})
		sess.Close()
		return
	}

	if !d.busy.CompareAndSwap(false, true) {
		d.logger.Warn(ctx, "technician rejected, session active", "peer", sess.RemoteAddr().String())
		_ = sess.SendControl(&wire.ControlMessage{Kind: wire.ControlPairRejected, Reason: wire.ReasonBusy})
		sess.Close()
		return
	}
	defer d.busy.Store(false)

	if err := sess.SendControl(&wire.ControlMessage{Kind: wire.ControlPairAccepted}); err != nil {
		sess.Close()
		return
	}

	d.logger.Info(ctx, "technician connected", "peer", sess.RemoteAddr().String(), "username", msg.Username)
	if _, err := serve(ctx, sess, d.screens, d.inputs, d.logger); err != nil {
		d.logger.Info(ctx, "technician session ended", "error", err)
	}
	sess.Close()
}

func (d *DirectListener) handshakeTimeout() time.Duration {
	if d.opts.IOTimeout > 0 {
		return d.opts.IOTimeout
	}
	return wire.DefaultIOTimeout
}
