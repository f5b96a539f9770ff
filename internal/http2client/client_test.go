// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package http2client

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/jgomezselles/hermes-go/internal/queue"
	"github.com/jgomezselles/hermes-go/internal/script"
	"github.com/jgomezselles/hermes-go/internal/stats"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newH2CServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	h2s := &http2.Server{}
	srv := httptest.NewServer(h2c.NewHandler(handler, h2s))
	t.Cleanup(srv.Close)
	return srv
}

func singleMessageTemplate(passCode int) *script.Template {
	return &script.Template{
		Flow: []string{"m1"},
		Messages: map[string]script.Message{
			"m1": {ID: "m1", URL: "/items", Method: "GET", PassCode: passCode},
		},
	}
}

func splitHostPort(t *testing.T, rawURL string) (string, string) {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return u.Hostname(), u.Port()
}

func TestSendSuccessRecordsMeasurement(t *testing.T) {
	srv := newH2CServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	})
	host, port := splitHostPort(t, srv.URL)

	q := queue.New(singleMessageTemplate(200))
	st := stats.New([]string{"m1"})
	c, err := NewClient(host, port, false, time.Second, q, st, discardLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	c.Send()
	waitForCondition(t, func() bool {
		total, _, _ := st.Flush()
		return total.RespondedOK == 1
	})
}

func TestSendValidationFailureRecordsError(t *testing.T) {
	srv := newH2CServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	host, port := splitHostPort(t, srv.URL)

	q := queue.New(singleMessageTemplate(200))
	st := stats.New([]string{"m1"})
	c, err := NewClient(host, port, false, time.Second, q, st, discardLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	c.Send()
	waitForCondition(t, func() bool {
		total, _, _ := st.Flush()
		return total.CodesErr[http.StatusInternalServerError] == 1
	})
}

func TestSendTimeoutRecordsTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := newH2CServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-block
	})
	t.Cleanup(func() { close(block) })
	host, port := splitHostPort(t, srv.URL)

	q := queue.New(singleMessageTemplate(200))
	st := stats.New([]string{"m1"})
	c, err := NewClient(host, port, false, 20*time.Millisecond, q, st, discardLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	c.Send()
	waitForCondition(t, func() bool {
		total, _, _ := st.Flush()
		return total.TimedOut == 1
	})
}

func TestSendOnClosedSessionRecordsClientErrorAndReconnects(t *testing.T) {
	srv := newH2CServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	host, port := splitHostPort(t, srv.URL)

	q := queue.New(singleMessageTemplate(200))
	st := stats.New([]string{"m1"})
	c, err := NewClient(host, port, false, time.Second, q, st, discardLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	c.connPtr.Load().Close()
	c.Send()

	total, _, _ := st.Flush()
	if total.CodesErr[CodeSessionNotOpen] != 1 {
		t.Fatalf("CodesErr[%d] = %d, want 1", CodeSessionNotOpen, total.CodesErr[CodeSessionNotOpen])
	}
	waitForCondition(t, func() bool {
		return c.connPtr.Load().State() == stateOpen
	})
}

func waitForCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
