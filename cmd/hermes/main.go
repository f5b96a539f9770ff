// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Command hermes drives a fixed-rate, scripted HTTP/2 request flow
// against a target server for a fixed duration, and reports
// throughput, latency, and error statistics.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/jgomezselles/hermes-go/internal/config"
	"github.com/jgomezselles/hermes-go/internal/dispatcher"
	"github.com/jgomezselles/hermes-go/internal/http2client"
	"github.com/jgomezselles/hermes-go/internal/queue"
	"github.com/jgomezselles/hermes-go/internal/script"
	"github.com/jgomezselles/hermes-go/internal/stats"
	"github.com/jgomezselles/hermes-go/internal/statsreport"
)

var (
	scriptPath   = flag.String("script", "", "path to the traffic script document (required)")
	outputPrefix = flag.String("output", "hermes", "prefix for the stats report files")
	rateHz       = flag.Int("rate", config.DefaultRateHz, "requests per second to dispatch")
	durationS    = flag.Int("duration", config.DefaultDurationS, "duration of the run, in seconds")
	statsPeriodS = flag.Int("stats-period", config.DefaultStatsPeriodS, "seconds between stats flushes")
)

func main() {
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	params := config.RuntimeParams{
		ScriptPath:   *scriptPath,
		OutputPrefix: *outputPrefix,
		RateHz:       *rateHz,
		DurationS:    *durationS,
		StatsPeriodS: *statsPeriodS,
	}
	if err := params.Validate(); err != nil {
		logger.Error("invalid parameters", "err", err)
		os.Exit(1)
	}

	os.Exit(run(params, logger))
}

func run(params config.RuntimeParams, logger *slog.Logger) int {
	tpl, err := config.Load(params.ScriptPath)
	if err != nil {
		logger.Error("failed to load script", "err", err)
		return 1
	}

	ids := messageIDs(tpl)
	st := stats.New(ids)
	q := queue.New(tpl)

	timeout := time.Duration(tpl.TimeoutMS) * time.Millisecond
	client, err := http2client.NewClient(tpl.Server.DNS, tpl.Server.Port, tpl.Server.Secure, timeout, q, st, logger)
	if err != nil {
		logger.Error("failed to establish initial connection", "err", err)
		return 1
	}
	defer client.Close()

	report, err := newReportFiles(params.OutputPrefix)
	if err != nil {
		logger.Error("failed to open report files", "err", err)
		return 1
	}
	defer report.Close()
	report.writeHeader()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	done := make(chan struct{})
	go func() {
		defer close(done)
		dispatcher.New(client, q, params.RateHz, time.Duration(params.DurationS)*time.Second, logger).Run(ctx)
	}()

	ticker := time.NewTicker(time.Duration(params.StatsPeriodS) * time.Second)
	defer ticker.Stop()

	lastFlush := start
	for {
		select {
		case <-done:
			report.flushAndWrite(st, time.Since(lastFlush), time.Since(start))
			logger.Info("run complete", "elapsed", time.Since(start))
			return 0
		case now := <-ticker.C:
			report.flushAndWrite(st, now.Sub(lastFlush), now.Sub(start))
			lastFlush = now
		}
	}
}

// messageIDs returns the set of distinct message identifiers declared
// in the template, so the aggregator can pre-seed one snapshot per id
// regardless of how many times a message appears in the flow.
func messageIDs(tpl *script.Template) []string {
	ids := make([]string, 0, len(tpl.Messages))
	for id := range tpl.Messages {
		ids = append(ids, id)
	}
	return ids
}

type reportFiles struct {
	total, partial, errs *os.File
}

func newReportFiles(prefix string) (*reportFiles, error) {
	total, err := os.Create(prefix + "_total.log")
	if err != nil {
		return nil, err
	}
	partial, err := os.Create(prefix + "_partial.log")
	if err != nil {
		total.Close()
		return nil, err
	}
	errs, err := os.Create(prefix + "_errors.log")
	if err != nil {
		total.Close()
		partial.Close()
		return nil, err
	}
	return &reportFiles{total: total, partial: partial, errs: errs}, nil
}

func (r *reportFiles) writeHeader() {
	statsreport.WriteHeader(r.total)
	statsreport.WriteHeader(r.partial)
}

func (r *reportFiles) flushAndWrite(a *stats.Aggregator, period, totalElapsed time.Duration) {
	total, partial, _ := a.Flush()
	statsreport.WriteSnapshot(r.total, total, totalElapsed, totalElapsed)
	statsreport.WriteSnapshot(r.partial, partial, period, totalElapsed)
	statsreport.WriteErrors(r.errs, total, totalElapsed)
}

func (r *reportFiles) Close() {
	r.total.Close()
	r.partial.Close()
	r.errs.Close()
}
