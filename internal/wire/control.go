package wire

import (
	"fmt"

	"github.com/dmitrijs2005/remotehelp/internal/common"
	"github.com/fxamacker/cbor/v2"
)

// ControlKind discriminates control-frame payloads.
type ControlKind uint8

const (
	// ControlRegister is sent by an agent right after connecting to the
	// mediator's client endpoint. SessionID may carry a caller-supplied id.
	ControlRegister ControlKind = iota + 1
	// ControlRegistered is the mediator's reply, carrying the session id.
	ControlRegistered
	// ControlPairRequest is sent by a technician: session id plus
	// credentials. On the direct-connect path the session id is empty.
	ControlPairRequest
	// ControlPairAccepted confirms a pairing to either side.
	ControlPairAccepted
	// ControlPairRejected carries a Reason (busy, not_found, unauthorized).
	ControlPairRejected
	// ControlTerminated tells the surviving side that the pairing ended.
	ControlTerminated
)

// Pair rejection reasons.
const (
	ReasonBusy         = "busy"
	ReasonNotFound     = "not_found"
	ReasonUnauthorized = "unauthorized"
)

// ControlMessage is the payload of a FrameControl frame, CBOR-encoded with
// integer keys to keep control frames small.
type ControlMessage struct {
	Kind      ControlKind `cbor:"1,keyasint"`
	SessionID string      `cbor:"2,keyasint,omitempty"`
	Username  string      `cbor:"3,keyasint,omitempty"`
	Password  string      `cbor:"4,keyasint,omitempty"`
	Reason    string      `cbor:"5,keyasint,omitempty"`
}

// Frame encodes the message into a control frame.
func (m *ControlMessage) Frame() (*Frame, error) {
	payload, err := cbor.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding control message: %w", err)
	}
	return &Frame{Type: FrameControl, Payload: payload}, nil
}

// DecodeControl parses a control frame's payload. A frame of any other
// type, or an undecodable payload, is a framing violation.
func DecodeControl(f *Frame) (*ControlMessage, error) {
	if f.Type != FrameControl {
		return nil, fmt.Errorf("%w: expected control frame, got type 0x%02x", common.ErrBadFrame, byte(f.Type))
	}
	m := &ControlMessage{}
	if err := cbor.Unmarshal(f.Payload, m); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBadFrame, err)
	}
	if m.Kind == 0 {
		return nil, fmt.Errorf("%w: control message without kind", common.ErrBadFrame)
	}
	return m, nil
}

// SendControl is a convenience wrapper used on both brokering paths.
func (s *Session) SendControl(m *ControlMessage) error {
	f, err := m.Frame()
	if err != nil {
		return err
	}
	return s.SendFrame(f)
}

// ReceiveControl receives one frame and requires it to be a control frame.
func (s *Session) ReceiveControl() (*ControlMessage, error) {
	f, err := s.ReceiveFrame()
	if err != nil {
		return nil, err
	}
	return DecodeControl(f)
}
