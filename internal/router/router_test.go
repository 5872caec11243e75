package router

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"discounter/internal/handler"
	"discounter/internal/middleware"
	"discounter/internal/model"
	"discounter/internal/notify"
	"discounter/internal/repository"
	"discounter/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2022, time.April, 5, 12, 0, 0, 0, time.UTC)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()
	svc := service.NewDiscountService(
		repository.NewMemory[model.Campaign](),
		repository.NewMemory[model.Voucher](),
		notify.NewLogNotifier(logger),
		logger,
	)
	clock := func() time.Time { return now }

	server := httptest.NewServer(New(handler.NewDiscountHandler(svc, clock, logger), clock, logger))
	t.Cleanup(server.Close)
	return server
}

func register(t *testing.T, server *httptest.Server, maxIssued int) string {
	t.Helper()

	body := fmt.Sprintf(`{
		"amount": 500,
		"currency": "USD",
		"voucher_expires": "2022-04-20T00:00:00Z",
		"campaign_begins": "2022-04-01T00:00:00Z",
		"campaign_ends": "2022-04-10T00:00:00Z",
		"max_issued": %d
	}`, maxIssued)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/discounts/register", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set(middleware.HeaderCurrentBrand, "Wayne Enterprises")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply model.CampaignReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	require.NotEmpty(t, reply.Identifier)
	return reply.Identifier
}

func issue(t *testing.T, server *httptest.Server, id, user string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, server.URL+"/discounts/"+id, nil)
	require.NoError(t, err)
	if user != "" {
		req.Header.Set(middleware.HeaderCurrentUser, user)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestRouter_Health(t *testing.T) {
	server := setupServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_Metrics(t *testing.T) {
	server := setupServer(t)
	id := register(t, server, 1)
	issue(t, server, id, "Bruce Wayne").Body.Close()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "discounter_issue_voucher_duration_seconds")
}

func TestRouter_IssueUntilExhausted(t *testing.T) {
	server := setupServer(t)
	id := register(t, server, 1)

	resp := issue(t, server, id, "Bruce Wayne")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var voucher model.VoucherReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&voucher))
	resp.Body.Close()
	assert.Equal(t, "Wayne Enterprises", voucher.Brand)
	assert.Equal(t, int64(500), voucher.Amount)

	resp = issue(t, server, id, "Bruce Wayne")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body model.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, model.ErrCodeCampaignExhausted, body.Error)
}

func TestRouter_IdentityRequired(t *testing.T) {
	server := setupServer(t)

	resp, err := http.Post(server.URL+"/discounts/register", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	id := register(t, server, 1)
	resp = issue(t, server, id, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_ViewUnknownCampaign(t *testing.T) {
	server := setupServer(t)

	resp, err := http.Get(server.URL + "/discounts/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_ConcurrentIssuance(t *testing.T) {
	server := setupServer(t)

	const (
		maxIssued = 10
		requests  = 200
	)
	id := register(t, server, maxIssued)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		refused   atomic.Int32
	)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, err := http.NewRequest(http.MethodPost, server.URL+"/discounts/"+id, nil)
			if !assert.NoError(t, err) {
				return
			}
			req.Header.Set(middleware.HeaderCurrentUser, fmt.Sprintf("user-%d", i))

			resp, err := http.DefaultClient.Do(req)
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusOK:
				succeeded.Add(1)
			case http.StatusNotFound:
				refused.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(maxIssued), succeeded.Load())
	assert.Equal(t, int32(requests-maxIssued), refused.Load())

	resp, err := http.Get(server.URL + "/discounts/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()

	var view model.CampaignView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, maxIssued, view.NumIssued)
	assert.Equal(t, model.CampaignExhausted, view.Status)
}
