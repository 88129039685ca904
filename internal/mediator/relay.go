package mediator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/remotehelp/internal/common"
	"github.com/dmitrijs2005/remotehelp/internal/logging"
	"github.com/dmitrijs2005/remotehelp/internal/wire"
)

// Relay bridges the two legs of one paired session. Each direction is an
// independent receive-one/forward-one loop, so at most a single frame is in
// flight per direction: a slow reader on one side stalls the opposite
// sender instead of growing a queue. Payloads are never inspected.
type Relay struct {
	sessionID   string
	client      *wire.Session
	tech        *wire.Session
	idleTimeout time.Duration
	logger      logging.Logger

	stopped atomic.Bool

	// lastActivity is the unix-nano time of the last frame seen in either
	// direction. A pairing where both legs stay quiet past idleTimeout is
	// treated as dead: a silently vanished peer never produces a transport
	// error on its own.
	lastActivity atomic.Int64
}

func NewRelay(sessionID string, client, tech *wire.Session, idleTimeout time.Duration, logger logging.Logger) *Relay {
	r := &Relay{
		sessionID:   sessionID,
		client:      client,
		tech:        tech,
		idleTimeout: idleTimeout,
		logger:      logger.With("module", "relay", "session_id", sessionID),
	}
	r.lastActivity.Store(time.Now().UnixNano())
	return r
}

// pumpResult reports which leg a forwarding loop died on: a receive error
// means the source leg failed, a send error means the destination did.
type pumpResult struct {
	clientDead bool
	err        error
}

// Run forwards frames until either leg fails or ctx is cancelled, then
// tears the pairing down and reports whether the client leg survived.
//
// The technician transport is always closed: either its leg failed, or the
// client's did and a technician must never be left talking to a dead
// client. If the client leg survived, a terminated notice is sent on it
// (best effort) after both forwarding loops have stopped, so the write
// cannot interleave with a relayed frame.
func (r *Relay) Run(ctx context.Context) (clientAlive bool) {
	results := make(chan pumpResult, 2)

	go func() { results <- r.pump(r.client, r.tech, true) }()
	go func() { results <- r.pump(r.tech, r.client, false) }()

	var first pumpResult
	remaining := 2
	select {
	case first = <-results:
		remaining = 1
	case <-ctx.Done():
		// Mediator shutdown: both legs go down.
		first = pumpResult{clientDead: true, err: ctx.Err()}
	}

	r.stopped.Store(true)
	r.tech.Close()
	if first.clientDead {
		r.client.Close()
	}

	// Drain the loops. The surviving direction unblocks on the closed
	// technician transport or on its next idle deadline, whichever first.
	for i := 0; i < remaining; i++ {
		<-results
	}

	r.logger.Info(ctx, "relay finished", "client_alive", !first.clientDead, "cause", first.err)

	if first.clientDead {
		return false
	}

	notice := &wire.ControlMessage{Kind: wire.ControlTerminated, SessionID: r.sessionID}
	if err := r.client.SendControl(notice); err != nil {
		r.logger.Debug(ctx, "terminated notice not delivered", "error", err)
		r.client.Close()
		return false
	}
	return true
}

// pump forwards src to dst until a leg fails. A quiet leg is not by itself
// a dead leg: an idle receive deadline re-arms as long as the opposite
// direction has seen traffic recently. Once the whole pairing has been
// quiet past the idle timeout it is torn down, since a peer that vanished
// without a reset never produces a transport error.
func (r *Relay) pump(src, dst *wire.Session, srcIsClient bool) pumpResult {
	for {
		f, err := src.ReceiveFrame()
		if errors.Is(err, common.ErrIdle) {
			if r.stopped.Load() {
				return pumpResult{}
			}
			if quiet := time.Since(time.Unix(0, r.lastActivity.Load())); r.idleTimeout > 0 && quiet > r.idleTimeout {
				return pumpResult{
					clientDead: true,
					err:        fmt.Errorf("%w: paired link quiet for %v", common.ErrIdle, quiet.Round(time.Second)),
				}
			}
			continue
		}
		if err != nil {
			return pumpResult{clientDead: srcIsClient, err: err}
		}
		r.lastActivity.Store(time.Now().UnixNano())
		if err := dst.SendFrame(f); err != nil {
			return pumpResult{clientDead: !srcIsClient, err: err}
		}
	}
}
