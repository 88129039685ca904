package mediator

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/dmitrijs2005/remotehelp/internal/common"
	"github.com/dmitrijs2005/remotehelp/internal/creds"
	"github.com/dmitrijs2005/remotehelp/internal/logging"
	"github.com/dmitrijs2005/remotehelp/internal/wire"
)

// Server runs the mediator's two listening endpoints: one accepting client
// registrations, one accepting technician pairing attempts. Each accepted
// connection gets its own handler goroutine; the registry is the only
// state they share.
type Server struct {
	clientAddr string
	techAddr   string

	tlsConf *tls.Config
	opts    wire.Options

	registry *Registry
	store    *creds.Store
	logger   logging.Logger

	ready       chan struct{}
	boundClient net.Addr
	boundTech   net.Addr
}

func NewServer(clientAddr, techAddr string, tlsConf *tls.Config, opts wire.Options, registry *Registry, store *creds.Store, l logging.Logger) *Server {
	return &Server{
		clientAddr: clientAddr,
		techAddr:   techAddr,
		tlsConf:    tlsConf,
		opts:       opts,
		registry:   registry,
		store:      store,
		logger:     l.With("module", "mediator_server"),
		ready:      make(chan struct{}),
	}
}

// Ready is closed once both listeners are bound. ClientAddr and TechAddr
// are valid after that; tests bind to port 0 and read the addresses back.
func (s *Server) Ready() <-chan struct{} { return s.ready }

func (s *Server) ClientAddr() net.Addr { return s.boundClient }

func (s *Server) TechAddr() net.Addr { return s.boundTech }

// Run listens on both endpoints until ctx is cancelled. Cancellation
// closes the listeners; sessions and their relays are torn down through
// the registry reaper, which reclaims everything on shutdown.
func (s *Server) Run(ctx context.Context) error {
	lnClient, err := net.Listen("tcp", s.clientAddr)
	if err != nil {
		return err
	}
	lnTech, err := net.Listen("tcp", s.techAddr)
	if err != nil {
		lnClient.Close()
		return err
	}

	s.boundClient = lnClient.Addr()
	s.boundTech = lnTech.Addr()
	close(s.ready)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "stopping mediator listeners")
		lnClient.Close()
		lnTech.Close()
	}()

	s.logger.Info(ctx, "mediator listening",
		"client_addr", s.boundClient.String(), "tech_addr", s.boundTech.String())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.acceptLoop(ctx, lnClient, s.handleClient)
	}()
	go func() {
		defer wg.Done()
		s.acceptLoop(ctx, lnTech, s.handleTechnician)
	}()
	wg.Wait()

	return nil
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener, handle func(context.Context, *wire.Session)) {
	for {
		raw, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Error(ctx, "accept failed", "error", err)
			}
			return
		}

		go func() {
			hsCtx, cancel := context.WithTimeout(ctx, s.handshakeTimeout())
			sess, err := wire.Server(hsCtx, raw, s.tlsConf, s.opts)
			cancel()
			if err != nil {
				s.logger.Warn(ctx, "rejecting connection", "peer", raw.RemoteAddr().String(), "error", err)
				return
			}
			handle(ctx, sess)
		}()
	}
}

func (s *Server) handshakeTimeout() time.Duration {
	if s.opts.IOTimeout > 0 {
		return s.opts.IOTimeout
	}
	return wire.DefaultIOTimeout
}

// handleClient serves one agent connection on the client endpoint: a
// register control frame, the registered reply, and nothing more. The
// transport is parked in the registry untouched until a technician pairs,
// so no relayed frame can ever be consumed here.
func (s *Server) handleClient(ctx context.Context, sess *wire.Session) {
	msg, err := sess.ReceiveControl()
	if err != nil {
		s.logger.Warn(ctx, "client connection without register", "peer", sess.RemoteAddr().String(), "error", err)
		sess.Close()
		return
	}
	if msg.Kind != wire.ControlRegister {
		s.logger.Warn(ctx, "unexpected control kind on client endpoint", "kind", msg.Kind)
		sess.Close()
		return
	}

	id, err := s.registry.Register(msg.SessionID, sess)
	if err != nil {
		// Requested id collision.
		_ = sess.SendControl(&wire.ControlMessage{Kind: wire.ControlRegistered, Reason: wire.ReasonBusy})
		sess.Close()
		return
	}

	if err := sess.SendControl(&wire.ControlMessage{Kind: wire.ControlRegistered, SessionID: id}); err != nil {
		s.registry.Unregister(id)
		return
	}

	s.logger.Info(ctx, "session registered", "session_id", id, "peer", sess.RemoteAddr().String())
}

// handleTechnician authenticates a pairing request, binds the technician
// to the session and runs the relay to completion. The handler owns the
// technician transport until the relay takes over; the client transport is
// obtained from the registry at the pairing point only.
func (s *Server) handleTechnician(ctx context.Context, sess *wire.Session) {
	reject := func(reason string) {
		_ = sess.SendControl(&wire.ControlMessage{Kind: wire.ControlPairRejected, Reason: reason})
		sess.Close()
	}

	msg, err := sess.ReceiveControl()
	if err != nil || msg.Kind != wire.ControlPairRequest {
		s.logger.Warn(ctx, "technician connection without pair request", "peer", sess.RemoteAddr().String(), "error", err)
		sess.Close()
		return
	}

	ok, err := s.store.Verify(ctx, msg.Username, msg.Password)
	if err != nil {
		s.logger.Error(ctx, "credential verification failed", "error", err)
		reject(wire.ReasonUnauthorized)
		return
	}
	if !ok {
		s.logger.Warn(ctx, "pairing rejected", "session_id", msg.SessionID, "username", msg.Username)
		reject(wire.ReasonUnauthorized)
		return
	}

	clientSess, err := s.registry.Pair(msg.SessionID, sess)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrSessionNotFound):
			reject(wire.ReasonNotFound)
		case errors.Is(err, common.ErrSessionBusy):
			reject(wire.ReasonBusy)
		default:
			sess.Close()
		}
		return
	}

	s.logger.Info(ctx, "session paired", "session_id", msg.SessionID, "technician", sess.RemoteAddr().String())

	accepted := &wire.ControlMessage{Kind: wire.ControlPairAccepted, SessionID: msg.SessionID}
	if err := sess.SendControl(accepted); err != nil {
		s.registry.ReleaseTechnician(msg.SessionID)
		sess.Close()
		return
	}
	// Notify the client leg too. If the parked client is already dead the
	// relay below fails on its first client-side operation and reclaims.
	_ = clientSess.SendControl(accepted)

	clientAlive := NewRelay(msg.SessionID, clientSess, sess, s.registry.IdleTimeout(), s.logger).Run(ctx)
	if clientAlive {
		s.registry.ReleaseTechnician(msg.SessionID)
		s.logger.Info(ctx, "session unpaired", "session_id", msg.SessionID)
	} else {
		s.registry.Unregister(msg.SessionID)
		s.logger.Info(ctx, "session reclaimed", "session_id", msg.SessionID)
	}
}
