// Package wire implements the framed message protocol carried over a TLS
// transport session. Every message is a frame: one type byte, a 4-byte
// big-endian payload length, then the payload. The payload is opaque at
// this layer; only control frames have a structure known to the core
// (see ControlMessage).
package wire

// FrameType identifies what a frame's payload carries. The relay never
// looks at it; endpoints dispatch on it.
type FrameType byte

const (
	// FrameScreenData carries an encoded snapshot of the client's screen.
	FrameScreenData FrameType = 0x01
	// FrameInputEvent carries an input event to replay on the client.
	FrameInputEvent FrameType = 0x02
	// FrameControl carries a CBOR-encoded ControlMessage.
	FrameControl FrameType = 0x03
)

func (t FrameType) valid() bool {
	switch t {
	case FrameScreenData, FrameInputEvent, FrameControl:
		return true
	}
	return false
}

// Frame is a single length-prefixed protocol message.
type Frame struct {
	Type    FrameType
	Payload []byte
}
