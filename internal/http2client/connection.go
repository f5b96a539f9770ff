// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package http2client maintains a single logical HTTP/2 session to a
// configured endpoint, submits requests on it, and performs one
// best-effort reconnection attempt when the session is lost.
package http2client

import (
	"crypto/tls"
	"log/slog"
	"net"
	"time"

	"golang.org/x/net/http2"

	"github.com/jgomezselles/hermes-go/internal/debugflags"
	"github.com/jgomezselles/hermes-go/internal/util"
)

type connState int32

const (
	stateNotOpen connState = iota
	stateOpen
	stateClosed
)

// Connection is one HTTP/2 session over one TCP (or TLS) socket. It
// transitions NOT_OPEN -> OPEN on a successful handshake, and
// NOT_OPEN|OPEN -> CLOSED on error or explicit close. CLOSED is
// terminal: recovery means constructing a new Connection.
type Connection struct {
	host, port string
	secure     bool
	logger     *slog.Logger

	mu    chan struct{} // binary semaphore guarding st/cc/raw
	st    connState
	cc    *http2.ClientConn
	raw   net.Conn
	ready chan struct{} // closed once st leaves stateNotOpen
}

func newConnection(host, port string, secure bool, logger *slog.Logger) *Connection {
	c := &Connection{
		host:   host,
		port:   port,
		secure: secure,
		logger: logger,
		mu:     make(chan struct{}, 1),
		ready:  make(chan struct{}),
	}
	c.mu <- struct{}{}
	go c.connect()
	return c
}

func (c *Connection) lock()   { <-c.mu }
func (c *Connection) unlock() { c.mu <- struct{}{} }

// connect dials the endpoint and performs the HTTP/2 handshake
// asynchronously, signalling ready on completion either way.
func (c *Connection) connect() {
	addr := net.JoinHostPort(c.host, c.port)
	logLevel := slog.LevelInfo
	if util.IsLoopback(addr) && !debugflags.VerboseConn() {
		// A loopback target is almost always a test fixture; keep the
		// dial noise at debug so a real run's log isn't drowned by it,
		// unless HERMESDEBUG=verboseconn=1 asked to see it anyway.
		logLevel = slog.LevelDebug
	}

	var conn net.Conn
	var err error
	if c.secure {
		conn, err = tls.Dial("tcp", addr, &tls.Config{
			ServerName: c.host,
			NextProtos: []string{"h2"},
		})
	} else {
		conn, err = net.Dial("tcp", addr)
	}
	if err != nil {
		c.logger.Error("dial failed", "addr", addr, "secure", c.secure, "err", err)
		c.fail()
		return
	}

	transport := &http2.Transport{AllowHTTP: !c.secure}
	cc, err := transport.NewClientConn(conn)
	if err != nil {
		conn.Close()
		c.logger.Error("http2 handshake failed", "addr", addr, "err", err)
		c.fail()
		return
	}
	c.logger.Log(nil, logLevel, "http2 session open", "addr", addr, "secure", c.secure)

	c.lock()
	if c.st == stateClosed {
		// Close ran while the handshake was in flight: CLOSED is
		// terminal and ready is already closed.
		c.unlock()
		cc.Close()
		conn.Close()
		return
	}
	c.raw = conn
	c.cc = cc
	c.st = stateOpen
	c.unlock()
	close(c.ready)
}

func (c *Connection) fail() {
	c.lock()
	wasNotOpen := c.st == stateNotOpen
	c.st = stateClosed
	c.unlock()
	if wasNotOpen {
		close(c.ready)
	}
}

// WaitToBeConnected blocks up to timeout for the connection to leave
// NOT_OPEN, then reports whether it reached OPEN.
func (c *Connection) WaitToBeConnected(timeout time.Duration) bool {
	select {
	case <-c.ready:
	case <-time.After(timeout):
		return false
	}
	return c.State() == stateOpen
}

// State returns the current connection state.
func (c *Connection) State() connState {
	c.lock()
	defer c.unlock()
	return c.st
}

// ClientConn returns the underlying multiplexed HTTP/2 connection and
// whether it is currently OPEN.
func (c *Connection) ClientConn() (*http2.ClientConn, bool) {
	c.lock()
	defer c.unlock()
	return c.cc, c.st == stateOpen
}

// Close transitions the connection to CLOSED and releases the socket.
// Idempotent.
func (c *Connection) Close() {
	c.lock()
	alreadyClosed := c.st == stateClosed
	wasNotOpen := c.st == stateNotOpen
	c.st = stateClosed
	raw := c.raw
	c.unlock()

	if alreadyClosed {
		return
	}
	if raw != nil {
		raw.Close()
	}
	if wasNotOpen {
		close(c.ready)
	}
}
