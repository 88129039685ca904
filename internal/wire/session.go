package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/remotehelp/internal/common"
)

const headerSize = 5 // 1 type byte + 4 length bytes

const (
	// DefaultMaxFrameSize bounds payload allocation against malicious or
	// corrupted peers. Sized for JPEG-encoded screen captures.
	DefaultMaxFrameSize = 8 << 20

	// DefaultIOTimeout is applied to every blocking send/receive. Sends
	// and mid-frame receives that exceed it are fatal; an idle receive
	// returns ErrIdle and may be re-armed.
	DefaultIOTimeout = 30 * time.Second
)

// Options tune a transport session. Zero values select the defaults.
type Options struct {
	MaxFrameSize uint32
	IOTimeout    time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxFrameSize == 0 {
		o.MaxFrameSize = DefaultMaxFrameSize
	}
	if o.IOTimeout == 0 {
		o.IOTimeout = DefaultIOTimeout
	}
	return o
}

// Session wraps an established (already handshaken) connection with frame
// framing and per-operation deadlines. A Session is owned by exactly one
// component at a time; Send and Receive may run concurrently with each
// other but not with themselves.
//
// Close is safe to call from any goroutine, more than once, and unblocks
// in-flight calls.
type Session struct {
	conn net.Conn
	opts Options

	rmu sync.Mutex
	wmu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewSession wraps conn. The connection's TLS handshake, if any, must have
// completed already (see Dial and Server).
func NewSession(conn net.Conn, opts Options) *Session {
	return &Session{conn: conn, opts: opts.withDefaults()}
}

// SendFrame writes one frame. It blocks at most for the configured I/O
// timeout and returns the underlying transport error on failure.
func (s *Session) SendFrame(f *Frame) error {
	if !f.Type.valid() {
		return fmt.Errorf("%w: unknown frame type 0x%02x", common.ErrBadFrame, byte(f.Type))
	}
	if uint64(len(f.Payload)) > uint64(s.opts.MaxFrameSize) {
		return fmt.Errorf("%w: payload is %d bytes, limit %d", common.ErrFrameTooLarge, len(f.Payload), s.opts.MaxFrameSize)
	}

	buf := make([]byte, headerSize+len(f.Payload))
	buf[0] = byte(f.Type)
	binary.BigEndian.PutUint32(buf[1:headerSize], uint32(len(f.Payload)))
	copy(buf[headerSize:], f.Payload)

	s.wmu.Lock()
	defer s.wmu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.opts.IOTimeout)); err != nil {
		return err
	}
	if _, err := s.conn.Write(buf); err != nil {
		return err
	}
	return nil
}

// ReceiveFrame reads one frame. The declared length is authoritative and is
// validated against the configured maximum before any payload allocation;
// framing violations close the session because the stream position can no
// longer be trusted.
//
// A deadline that expires before any byte arrives returns ErrIdle and
// leaves the session usable, so callers waiting on a legitimately quiet
// peer can re-arm the receive. A deadline hit mid-frame closes the session:
// the stream position is unknown.
func (s *Session) ReceiveFrame() (*Frame, error) {
	s.rmu.Lock()
	defer s.rmu.Unlock()

	if err := s.conn.SetReadDeadline(time.Now().Add(s.opts.IOTimeout)); err != nil {
		return nil, err
	}

	var hdr [headerSize]byte
	if n, err := io.ReadFull(s.conn, hdr[:]); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			if n == 0 {
				return nil, common.ErrIdle
			}
			s.Close()
		}
		return nil, err
	}

	typ := FrameType(hdr[0])
	length := binary.BigEndian.Uint32(hdr[1:])

	if !typ.valid() {
		s.Close()
		return nil, fmt.Errorf("%w: unknown frame type 0x%02x", common.ErrBadFrame, hdr[0])
	}
	if length > s.opts.MaxFrameSize {
		s.Close()
		return nil, fmt.Errorf("%w: declared %d bytes, limit %d", common.ErrFrameTooLarge, length, s.opts.MaxFrameSize)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(s.conn, payload); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			s.Close()
		}
		return nil, err
	}

	return &Frame{Type: typ, Payload: payload}, nil
}

// Close tears the connection down. In-flight sends and receives fail
// promptly with a closed-connection error.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// RemoteAddr reports the peer's network address, for logging.
func (s *Session) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}
