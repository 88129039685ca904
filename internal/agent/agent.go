package agent

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/remotehelp/internal/common"
	"github.com/dmitrijs2005/remotehelp/internal/logging"
	"github.com/dmitrijs2005/remotehelp/internal/wire"
)

// Agent is the mediator-path client: it registers the machine with the
// mediator and then sits parked on the connection, serving technicians as
// they pair and unpair. One Run call covers one connection's lifetime;
// reconnecting after a failure is the caller's decision.
type Agent struct {
	addr        string
	tlsConf     *tls.Config
	opts        wire.Options
	requestedID string
	screens     ScreenSource
	inputs      InputSink
	logger      logging.Logger

	mu        sync.Mutex
	sessionID string
}

func New(addr string, tlsConf *tls.Config, opts wire.Options, requestedID string, screens ScreenSource, inputs InputSink, logger logging.Logger) *Agent {
	return &Agent{
		addr:        addr,
		tlsConf:     tlsConf,
		opts:        opts,
		requestedID: requestedID,
		screens:     screens,
		inputs:      inputs,
		logger:      logger.With("module", "agent"),
	}
}

// SessionID reports the id the mediator assigned, empty before the first
// successful registration. This is the value a technician needs to pair.
func (a *Agent) SessionID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionID
}

func (a *Agent) setSessionID(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessionID = id
}

// Run dials the mediator, registers, and serves pairings until the
// transport fails or ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	sess, err := wire.Dial(ctx, a.addr, a.tlsConf, a.opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.SendControl(&wire.ControlMessage{Kind: wire.ControlRegister, SessionID: a.requestedID}); err != nil {
		return err
	}
	reply, err := sess.ReceiveControl()
	if err != nil {
		return err
	}
	if reply.Kind != wire.ControlRegistered {
		return fmt.Errorf("%w: expected registration reply, got kind %d", common.ErrBadFrame, reply.Kind)
	}
	if reply.Reason != "" {
		return fmt.Errorf("%w: session id already in use", common.ErrSessionBusy)
	}
	a.setSessionID(reply.SessionID)
	a.logger.Info(ctx, "registered with mediator", "session_id", reply.SessionID)

	for {
		msg, err := a.waitParked(ctx, sess)
		if err != nil {
			return err
		}
		if msg.Kind != wire.ControlPairAccepted {
			a.logger.Debug(ctx, "ignoring control while parked", "kind", msg.Kind)
			continue
		}

		a.logger.Info(ctx, "technician paired", "session_id", reply.SessionID)
		unpaired, err := serve(ctx, sess, a.screens, a.inputs, a.logger)
		if err != nil {
			return err
		}
		if !unpaired {
			return nil
		}
		a.logger.Info(ctx, "technician unpaired, parked again", "session_id", reply.SessionID)
	}
}

// waitParked blocks until the mediator says something. Idle deadlines are
// expected here: a registered session can sit unclaimed for a long time.
func (a *Agent) waitParked(ctx context.Context, sess *wire.Session) (*wire.ControlMessage, error) {
	for {
		msg, err := sess.ReceiveControl()
		if errors.Is(err, common.ErrIdle) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		return msg, nil
	}
}
