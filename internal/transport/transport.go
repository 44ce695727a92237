// Package transport provides the HTTP transport used for upstream catalog
// requests.
//
// Go's standard TLS client has a distinctive fingerprint that triggers
// aggressive rate limiting on the CDNs/WAFs commonly fronting WooCommerce
// stores. Requests here go out with a Chrome-like TLS fingerprint via uTLS,
// with ALPN negotiating h2 or http/1.1 naturally and Go's http2.Transport
// handling HTTP/2 framing when negotiated. Plain http:// URLs (local dev
// stores) bypass the fingerprint path entirely.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// New creates an http.RoundTripper presenting Chrome's TLS fingerprint to
// upstream servers. dialTimeout bounds connection establishment only;
// request deadlines are the caller's concern (per-attempt contexts).
func New(dialTimeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: dialTimeout}

	return &catalogTransport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialFingerprintTLS(ctx, dialer, network, addr)
			},
		},
		h1: &http.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialFingerprintTLS(ctx, dialer, network, addr)
			},
			ForceAttemptHTTP2: false,
		},
		plain: &http.Transport{
			DialContext: dialer.DialContext,
		},
	}
}

// catalogTransport routes requests to the appropriate underlying transport:
// fingerprinted h2 with h1 fallback for https, plain stdlib for http.
type catalogTransport struct {
	h2    *http2.Transport
	h1    *http.Transport
	plain *http.Transport
}

// RoundTrip implements http.RoundTripper. HTTPS requests try HTTP/2 first
// and fall back to HTTP/1.1 for servers that never negotiated h2.
func (t *catalogTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.plain.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	return t.h1.RoundTrip(req)
}

// dialFingerprintTLS establishes a TLS connection with Chrome's fingerprint.
func dialFingerprintTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	// Extract hostname for SNI
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
