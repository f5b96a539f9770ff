// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package statsreport is the human-readable table writer for
// stats.Snapshot values. It is a thin, optional consumer of the
// aggregation model in internal/stats; formatting itself is out of
// scope for the engine proper (spec.md §1), so nothing in
// internal/stats imports this package.
package statsreport

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jgomezselles/hermes-go/internal/stats"
)

// WriteHeader writes the column header row, matching the original
// stats::create_headers_str layout.
func WriteHeader(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Time(s)\tSent/s\tRecv/s\tRT(ms)\tminRT(ms)\tmaxRT(ms)\tSent\tSuccess\tErrors\tTimeouts")
	tw.Flush()
}

// WriteSnapshot writes one row for snap. period is the wall-clock span
// the snapshot covers (used for Sent/s and Recv/s); totalElapsed is
// time since run start (the "Time(s)" column).
func WriteSnapshot(w io.Writer, snap stats.Snapshot, period, totalElapsed time.Duration) {
	if period <= 0 {
		return
	}
	var codesOK, codesErr int64
	for _, c := range snap.CodesOK {
		codesOK += c
	}
	for _, c := range snap.CodesErr {
		codesErr += c
	}

	sentPerSec := float64(snap.Sent) / period.Seconds()
	recvPerSec := float64(snap.RespondedOK) / period.Seconds()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%.1f\t%.1f\t%.1f\t%.3f\t%.3f\t%.3f\t%d\t%d\t%d\t%d\n",
		totalElapsed.Seconds(), sentPerSec, recvPerSec,
		snap.AvgRT/1000, snap.MinRT/1000, snap.MaxRT/1000,
		snap.Sent, codesOK, codesErr, snap.TimedOut)
	tw.Flush()
}

// WriteErrors appends one line per error code/count pair seen in snap,
// matching the original stats::write_errors "<time> <code> <count>" file.
func WriteErrors(w io.Writer, snap stats.Snapshot, totalElapsed time.Duration) {
	for code, count := range snap.CodesErr {
		fmt.Fprintf(w, "%.1f\t%d\t%d\n", totalElapsed.Seconds(), code, count)
	}
}
