// Package techclient is the technician's side of the wire: it connects to a
// mediator's technician endpoint or to an agent's direct listener, performs
// the pairing exchange, and then exposes the raw frame stream.
package techclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/remotehelp/internal/common"
	"github.com/dmitrijs2005/remotehelp/internal/wire"
)

type Client struct {
	sess *wire.Session
}

// Connect dials and handshakes; pairing is a separate step so callers can
// prompt for credentials after the connection is up.
func Connect(ctx context.Context, addr string, tlsConf *tls.Config, opts wire.Options) (*Client, error) {
	sess, err := wire.Dial(ctx, addr, tlsConf, opts)
	if err != nil {
		return nil, err
	}
	return &Client{sess: sess}, nil
}

// PairSession requests pairing with a registered session via a mediator.
func (c *Client) PairSession(sessionID, username, password string) error {
	return c.pair(&wire.ControlMessage{
		Kind:      wire.ControlPairRequest,
		SessionID: sessionID,
		Username:  username,
		Password:  password,
	})
}

// PairDirect authenticates against an agent's direct listener, where no
// session id exists.
func (c *Client) PairDirect(username, password string) error {
	return c.pair(&wire.ControlMessage{
		Kind:     wire.ControlPairRequest,
		Username: username,
		Password: password,
	})
}

func (c *Client) pair(req *wire.ControlMessage) error {
	if err := c.sess.SendControl(req); err != nil {
		return err
	}

	reply, err := c.sess.ReceiveControl()
	if err != nil {
		return err
	}

	switch reply.Kind {
	case wire.ControlPairAccepted:
		return nil
	case wire.ControlPairRejected:
		switch reply.Reason {
		case wire.ReasonUnauthorized:
			return common.ErrUnauthorized
		case wire.ReasonNotFound:
			return common.ErrSessionNotFound
		case wire.ReasonBusy:
			return common.ErrSessionBusy
		default:
			return fmt.Errorf("pairing rejected: %s", reply.Reason)
		}
	default:
		return fmt.Errorf("%w: unexpected pairing reply kind %d", common.ErrBadFrame, reply.Kind)
	}
}

// Send forwards one frame to the paired client.
func (c *Client) Send(f *wire.Frame) error {
	return c.sess.SendFrame(f)
}

// SendInput wraps an input payload in an input-event frame.
func (c *Client) SendInput(payload []byte) error {
	return c.sess.SendFrame(&wire.Frame{Type: wire.FrameInputEvent, Payload: payload})
}

// Receive blocks until the next frame arrives or ctx ends. Idle stretches
// on the wire are re-armed silently; a quiet agent is not an error.
func (c *Client) Receive(ctx context.Context) (*wire.Frame, error) {
	for {
		f, err := c.sess.ReceiveFrame()
		if errors.Is(err, common.ErrIdle) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

// Close hangs up.
func (c *Client) Close() error {
	return c.sess.Close()
}
