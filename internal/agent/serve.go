package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/remotehelp/internal/common"
	"github.com/dmitrijs2005/remotehelp/internal/logging"
	"github.com/dmitrijs2005/remotehelp/internal/wire"
)

// serve runs one paired stretch on the transport: screen payloads flow out,
// input events flow in to the sink.
//
// It returns (true, nil) when the peer sent a clean terminated notice; the
// transport is still usable and, on the mediator path, goes back to waiting
// for the next pairing. On any error the transport is closed before
// returning.
func serve(ctx context.Context, sess *wire.Session, screens ScreenSource, inputs InputSink, logger logging.Logger) (unpaired bool, err error) {
	sendCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sendDone := make(chan error, 1)
	go func() {
		err := pumpScreens(sendCtx, sess, screens)
		if err != nil && sendCtx.Err() == nil {
			// A broken outbound side poisons the whole transport.
			sess.Close()
		}
		sendDone <- err
	}()

	unpaired, err = pumpInput(ctx, sess, inputs, logger)

	// Stop the outbound pump and wait for it, so no write of ours can
	// trail into whatever the caller does with the transport next.
	cancel()
	<-sendDone

	if err != nil {
		sess.Close()
		return false, err
	}
	return unpaired, nil
}

func pumpScreens(ctx context.Context, sess *wire.Session, screens ScreenSource) error {
	for {
		payload, err := screens.NextFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("screen source: %w", err)
		}
		if err := sess.SendFrame(&wire.Frame{Type: wire.FrameScreenData, Payload: payload}); err != nil {
			return err
		}
	}
}

func pumpInput(ctx context.Context, sess *wire.Session, inputs InputSink, logger logging.Logger) (bool, error) {
	for {
		f, err := sess.ReceiveFrame()
		if errors.Is(err, common.ErrIdle) {
			// A technician who is not typing is not gone.
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			continue
		}
		if err != nil {
			return false, err
		}

		switch f.Type {
		case wire.FrameInputEvent:
			if err := inputs.Apply(f.Payload); err != nil {
				return false, fmt.Errorf("input sink: %w", err)
			}
		case wire.FrameControl:
			msg, err := wire.DecodeControl(f)
			if err != nil {
				return false, err
			}
			if msg.Kind == wire.ControlTerminated {
				return true, nil
			}
			logger.Debug(ctx, "ignoring control frame", "kind", msg.Kind)
		default:
			logger.Debug(ctx, "ignoring unexpected frame", "type", f.Type)
		}
	}
}
