// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package debugflags configures engine-internal debug knobs via the
// HERMESDEBUG environment variable, in the same spirit as Go's own
// GODEBUG: a comma-separated list of key=value pairs, read once at
// startup and never reloaded.
//
// Two knobs are recognized:
//
//	noreconnect=1  disables the http2client reconnect loop, so a
//	               dropped session is observed staying CLOSED instead
//	               of being silently repaired.
//	verboseconn=1  logs the "http2 session open" line at
//	               slog.LevelInfo, overriding the debug-level demotion
//	               connection.go otherwise applies to loopback targets.
//
//	HERMESDEBUG=noreconnect=1,verboseconn=1
//
// An unrecognized key is not an error — it is logged to stderr at
// init so a typo'd knob fails loud instead of silently doing nothing.
package debugflags

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const envKey = "HERMESDEBUG"

// knownKeys lists every knob consulted anywhere in the engine. Keeping
// it here, rather than scattering Value calls with no central record,
// gives init something to validate unrecognized keys against.
var knownKeys = map[string]bool{
	"noreconnect": true,
	"verboseconn": true,
}

var params map[string]string

func init() {
	var err error
	params, err = parse(os.Getenv(envKey))
	if err != nil {
		panic(err)
	}
	for k := range params {
		if !knownKeys[k] {
			slog.Warn("debugflags: unrecognized key in "+envKey, "key", k)
		}
	}
}

// Value returns the value of the named debug knob, or "" if unset.
func Value(key string) string {
	return params[key]
}

// VerboseConn reports whether the verboseconn knob is set to a value
// other than "" or "0".
func VerboseConn() bool {
	return enabled(Value("verboseconn"))
}

// NoReconnect reports whether the noreconnect knob is set to a value
// other than "" or "0".
func NoReconnect() bool {
	return enabled(Value("noreconnect"))
}

func enabled(v string) bool {
	return v != "" && v != "0"
}

func parse(envValue string) (map[string]string, error) {
	if envValue == "" {
		return nil, nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(envValue, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%s: invalid format: %q", envKey, part)
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}
