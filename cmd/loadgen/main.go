package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

func main() {
	var opts options
	flag.StringVar(&opts.baseURL, "url", "http://localhost:8080", "discounter base URL")
	flag.StringVar(&opts.brand, "brand", "Wayne Enterprises", "brand registering the campaign")
	flag.IntVar(&opts.maxIssued, "max-issued", 100, "campaign cap")
	flag.IntVar(&opts.requests, "requests", 1000, "issuance requests to send")
	flag.IntVar(&opts.workers, "workers", 50, "concurrent workers")
	flag.Float64Var(&opts.rps, "rps", 500, "request rate limit")
	flag.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall run timeout")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()

	transport := &http.Transport{
		MaxIdleConns:        opts.workers * 4,
		MaxIdleConnsPerHost: opts.workers * 4,
		IdleConnTimeout:     90 * time.Second,
	}
	client := &http.Client{Transport: transport, Timeout: 30 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	rep, err := run(ctx, client, opts, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.Info().
		Str("campaign_id", rep.campaignID).
		Int64("succeeded", rep.succeeded).
		Int64("refused", rep.refused).
		Int64("failed", rep.failed).
		Int("num_issued", rep.numIssued).
		Dur("elapsed", rep.elapsed).
		Dur("avg_latency", rep.avgLatency()).
		Msg("issued vouchers match the campaign cap")
}
