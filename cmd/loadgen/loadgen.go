package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"discounter/internal/middleware"
	"discounter/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type options struct {
	baseURL   string
	brand     string
	maxIssued int
	requests  int
	workers   int
	rps       float64
	timeout   time.Duration
}

type report struct {
	campaignID string
	succeeded  int64
	refused    int64
	failed     int64
	latencySum int64 // nanoseconds over succeeded requests
	numIssued  int
	elapsed    time.Duration
}

func (r report) avgLatency() time.Duration {
	if r.succeeded == 0 {
		return 0
	}
	return time.Duration(r.latencySum / r.succeeded)
}

// run registers a campaign, fires opts.requests issuance requests at it and
// checks that exactly min(maxIssued, requests) of them were granted.
func run(ctx context.Context, client *http.Client, opts options, logger zerolog.Logger) (report, error) {
	var rep report

	id, err := registerCampaign(ctx, client, opts)
	if err != nil {
		return rep, err
	}
	rep.campaignID = id
	logger.Info().
		Str("campaign_id", id).
		Int("max_issued", opts.maxIssued).
		Int("requests", opts.requests).
		Int("workers", opts.workers).
		Float64("rps", opts.rps).
		Msg("campaign registered, starting load")

	burst := int(opts.rps) / opts.workers
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(opts.rps), burst)

	var (
		succeeded, refused, failed, latencySum atomic.Int64
		wg                                     sync.WaitGroup
	)

	jobs := make(chan int)
	start := time.Now()

	for w := 0; w < opts.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					failed.Add(1)
					continue
				}

				began := time.Now()
				status, err := issueVoucher(ctx, client, opts.baseURL, id, fmt.Sprintf("loadgen-%d", i))
				switch {
				case err != nil:
					logger.Debug().Err(err).Int("request", i).Msg("request failed")
					failed.Add(1)
				case status == http.StatusOK:
					succeeded.Add(1)
					latencySum.Add(int64(time.Since(began)))
				case status == http.StatusNotFound:
					refused.Add(1)
				default:
					failed.Add(1)
				}
			}
		}()
	}

	for i := 0; i < opts.requests; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	rep.succeeded = succeeded.Load()
	rep.refused = refused.Load()
	rep.failed = failed.Load()
	rep.latencySum = latencySum.Load()
	rep.elapsed = time.Since(start)

	view, err := viewCampaign(ctx, client, opts.baseURL, id)
	if err != nil {
		return rep, err
	}
	rep.numIssued = view.NumIssued

	return rep, verify(rep, opts)
}

func verify(rep report, opts options) error {
	if rep.failed > 0 {
		return fmt.Errorf("%d requests failed", rep.failed)
	}

	expected := int64(min(opts.maxIssued, opts.requests))
	if rep.succeeded != expected {
		return fmt.Errorf("expected %d vouchers issued, got %d", expected, rep.succeeded)
	}
	if int64(rep.numIssued) != rep.succeeded {
		return fmt.Errorf("campaign reports %d issued, clients received %d", rep.numIssued, rep.succeeded)
	}
	return nil
}

func registerCampaign(ctx context.Context, client *http.Client, opts options) (string, error) {
	now := time.Now().UTC()
	body, err := json.Marshal(model.CampaignRequest{
		Amount:         1000,
		Currency:       string(model.USD),
		CampaignBegins: now.Add(-time.Hour),
		CampaignEnds:   now.Add(time.Hour),
		VoucherExpires: now.Add(24 * time.Hour),
		MaxIssued:      opts.maxIssued,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode campaign: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.baseURL+"/discounts/register", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderCurrentBrand, opts.brand)

	var reply model.CampaignReply
	if err := do(client, req, &reply); err != nil {
		return "", fmt.Errorf("failed to register campaign: %w", err)
	}
	return reply.Identifier, nil
}

func viewCampaign(ctx context.Context, client *http.Client, baseURL, id string) (model.CampaignView, error) {
	var view model.CampaignView

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/discounts/"+id, nil)
	if err != nil {
		return view, fmt.Errorf("failed to build view request: %w", err)
	}
	if err := do(client, req, &view); err != nil {
		return view, fmt.Errorf("failed to view campaign %s: %w", id, err)
	}
	return view, nil
}

func issueVoucher(ctx context.Context, client *http.Client, baseURL, id, user string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/discounts/"+id, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set(middleware.HeaderCurrentUser, user)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func do(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp model.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("unexpected status %d: %s %s", resp.StatusCode, errResp.Error, errResp.Message)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
