package wire

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/dmitrijs2005/remotehelp/internal/common"
)

// Dial opens a TCP connection to addr, performs the TLS handshake and
// returns the framed session. A handshake failure (untrusted certificate,
// protocol mismatch) is reported wrapped in common.ErrHandshake and the
// connection is closed; there is no cleartext fallback.
func Dial(ctx context.Context, addr string, tlsConf *tls.Config, opts Options) (*Session, error) {
	var d net.Dialer
	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}

	conn := tls.Client(raw, tlsConf)
	if err := conn.HandshakeContext(ctx); err != nil {
		raw.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrHandshake, err)
	}

	return NewSession(conn, opts), nil
}

// Server performs the server side of the TLS handshake on an accepted
// connection and returns the framed session. The handshake runs eagerly so
// an untrusted peer is rejected before any frame is exchanged.
func Server(ctx context.Context, raw net.Conn, tlsConf *tls.Config, opts Options) (*Session, error) {
	conn := tls.Server(raw, tlsConf)
	if err := conn.HandshakeContext(ctx); err != nil {
		raw.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrHandshake, err)
	}

	return NewSession(conn, opts), nil
}
