// Package agent implements the helped side: the serve loop that exchanges
// screen and input frames with a technician, the mediator registration
// client, and the direct-connect listener that lets a technician bypass the
// mediator entirely.
package agent

import "context"

// ScreenSource supplies screen-data payloads. The payload encoding is the
// capture module's business; the agent forwards blobs untouched.
type ScreenSource interface {
	// NextFrame blocks until the next capture is ready or ctx ends.
	NextFrame(ctx context.Context) ([]byte, error)
}

// InputSink executes input-event payloads received from the technician.
type InputSink interface {
	Apply(payload []byte) error
}

// NopScreenSource emits nothing: NextFrame blocks until ctx ends. Used by
// the stock binary, which has no capture module built in; deployments plug
// a real one in through NewApp.
type NopScreenSource struct{}

func (NopScreenSource) NextFrame(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// DiscardInputSink accepts and ignores every input event.
type DiscardInputSink struct{}

func (DiscardInputSink) Apply(payload []byte) error { return nil }
