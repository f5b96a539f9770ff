// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package http2client

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/jgomezselles/hermes-go/internal/debugflags"
	"github.com/jgomezselles/hermes-go/internal/queue"
	"github.com/jgomezselles/hermes-go/internal/script"
	"github.com/jgomezselles/hermes-go/internal/stats"
)

// connectTimeout bounds how long NewClient waits for the initial
// handshake before reporting the endpoint unreachable.
const connectTimeout = 2 * time.Second

// Client drives one logical HTTP/2 session against a single endpoint:
// it pulls work from a script queue, submits it on the session, races
// the response against a per-message timeout, and feeds the outcome
// to the statistics aggregator. A lost session triggers one
// best-effort reconnection attempt, rate-limited so a flapping
// endpoint cannot be redialed on every single request.
type Client struct {
	host, port string
	secure     bool
	timeout    time.Duration

	queue *queue.Queue
	stats *stats.Aggregator
	log   *slog.Logger

	connPtr atomic.Pointer[Connection]
	connMu  sync.RWMutex // Try*-only: exclusive for reconnect, shared for submit

	reconnectLimiter *rate.Limiter
}

// NewClient dials host:port and blocks until the session is OPEN or
// connectTimeout elapses. A failed initial connection is fatal to the
// caller (spec: the run does not start without it).
func NewClient(host, port string, secure bool, timeout time.Duration, q *queue.Queue, st *stats.Aggregator, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		host:    host,
		port:    port,
		secure:  secure,
		timeout: timeout,
		queue:   q,
		stats:   st,
		log:     logger,
		// At most one reconnection attempt per second: a session that
		// keeps dying faster than that is not worth redialing on every
		// request.
		reconnectLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}

	conn := newConnection(host, port, secure, logger)
	if !conn.WaitToBeConnected(connectTimeout) {
		return nil, fmt.Errorf("http2client: could not connect to %s:%s within %s", host, port, connectTimeout)
	}
	c.connPtr.Store(conn)
	return c, nil
}

// Close tears down the current session.
func (c *Client) Close() {
	if conn := c.connPtr.Load(); conn != nil {
		conn.Close()
	}
}

// Send pulls the next instance from the queue, if any, and submits its
// front message on the session. It never blocks on the network: the
// response (or timeout) is resolved asynchronously.
func (c *Client) Send() {
	in, ok := c.queue.GetNext()
	if !ok {
		return
	}
	id := in.NextID()

	conn := c.connPtr.Load()
	if conn == nil || conn.State() != stateOpen {
		c.stats.AddClientError(id, CodeSessionNotOpen)
		c.queue.Cancel()
		go c.reconnect()
		return
	}

	if !c.connMu.TryRLock() {
		c.stats.AddClientError(id, CodeSessionContended)
		c.queue.Cancel()
		return
	}

	cc, open := conn.ClientConn()
	if !open || !cc.CanTakeNewRequest() {
		c.connMu.RUnlock()
		c.stats.AddClientError(id, CodeSubmitFailed)
		c.queue.Cancel()
		return
	}

	req, err := c.buildRequest(in)
	if err != nil {
		c.connMu.RUnlock()
		c.log.Error("malformed request", "id", id, "err", err)
		c.stats.AddClientError(id, CodeSubmitFailed)
		c.queue.Cancel()
		return
	}

	c.stats.IncreaseSent(id)
	start := time.Now()
	ctrl := &raceControl{}
	var timer *time.Timer
	timer = time.AfterFunc(c.timeout, func() { c.onTimeout(ctrl, id) })

	go func() {
		defer c.connMu.RUnlock()
		resp, err := cc.RoundTrip(req)
		if err != nil {
			c.onTransportError(ctrl, timer, id, err)
			return
		}
		c.onResponse(ctrl, timer, id, in, resp, start)
	}()
}

func (c *Client) buildRequest(in *script.Instance) (*http.Request, error) {
	scheme := "http"
	if c.secure {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://%s:%s/%s", scheme, c.host, c.port, strings.TrimPrefix(in.NextURL(), "/"))
	body := in.NextBody()

	req, err := http.NewRequest(in.NextMethod(), url, bytes.NewReader([]byte(body)))
	if err != nil {
		return nil, err
	}
	req.ContentLength = int64(len(body))
	req.Header.Set("content-type", "application/json")
	for k, v := range in.NextHeaders() {
		req.Header.Set(k, v)
	}
	return req, nil
}

func (c *Client) onResponse(ctrl *raceControl, timer *time.Timer, id string, in *script.Instance, resp *http.Response, start time.Time) {
	if !ctrl.tryAnswer() {
		resp.Body.Close()
		return
	}
	timer.Stop()

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		c.stats.AddError(id, CodeSubmitFailed)
		c.queue.Cancel()
		return
	}
	elapsed := time.Since(start)

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	answer := script.Answer{Status: resp.StatusCode, Body: body, Headers: headers}

	if in.ValidateAnswer(answer) {
		c.stats.AddMeasurement(id, elapsed.Microseconds(), resp.StatusCode)
		c.queue.Enqueue(in, answer)
		return
	}
	c.stats.AddError(id, resp.StatusCode)
	c.queue.Cancel()
}

func (c *Client) onTransportError(ctrl *raceControl, timer *time.Timer, id string, err error) {
	if !ctrl.tryAnswer() {
		return
	}
	timer.Stop()
	c.log.Warn("round trip failed", "id", id, "err", err)
	c.stats.AddError(id, CodeSubmitFailed)
	c.queue.Cancel()
}

func (c *Client) onTimeout(ctrl *raceControl, id string) {
	expired, contended := ctrl.tryExpire()
	switch {
	case contended:
		c.stats.AddError(id, CodeLostTimerRace)
	case expired:
		c.stats.AddTimeout(id)
		c.queue.Cancel()
	}
}

// reconnect drops the current session and dials a new one. It is a
// no-op if a reconnect is already in progress or the rate limiter is
// exhausted.
func (c *Client) reconnect() {
	if debugflags.NoReconnect() {
		// Lets a test or a one-off diagnostic run observe a session
		// staying CLOSED instead of silently healing itself.
		return
	}
	if !c.connMu.TryLock() {
		return
	}
	defer c.connMu.Unlock()

	if !c.reconnectLimiter.Allow() {
		return
	}

	if old := c.connPtr.Load(); old != nil {
		old.Close()
	}

	next := newConnection(c.host, c.port, c.secure, c.log)
	if next.WaitToBeConnected(connectTimeout) {
		c.connPtr.Store(next)
		return
	}
	next.Close()
}
