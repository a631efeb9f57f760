package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"zhigulbot/models"
	"zhigulbot/scheduler"
	"zhigulbot/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	accounts   *service.MockAccountService
	prices     *service.MockPriceService
	settlement *service.MockSettlementService
	lease      *periodLease
	handler    http.Handler
}

func newTestServer() *testServer {
	ts := &testServer{
		accounts:   new(service.MockAccountService),
		prices:     new(service.MockPriceService),
		settlement: new(service.MockSettlementService),
		lease:      &periodLease{},
	}
	runner := scheduler.New(context.Background(), ts.settlement, time.Minute, ts.lease)
	ts.handler = NewServer(":0", ts.accounts, ts.prices, runner).Handler()
	return ts
}

// periodLease is an in-memory lease that stays held once a cycle commits
type periodLease struct {
	mu   sync.Mutex
	held bool
}

func (l *periodLease) Acquire(ctx context.Context) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return "", false, nil
	}
	l.held = true
	return "token", true, nil
}

func (l *periodLease) Hold(ctx context.Context, token string, d time.Duration) error {
	return nil
}

func (l *periodLease) Release(ctx context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	return nil
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer()
	ts.do(t, http.MethodGet, "/health", "")

	rec := ts.do(t, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "zhigul_http_requests_total")
}

func TestGetState(t *testing.T) {
	t.Run("returns prices and oracle direction", func(t *testing.T) {
		ts := newTestServer()
		ts.prices.On("GetState", mock.Anything).Return(&models.PriceState{
			PreviousPrice:  decimal.RequireFromString("99"),
			CurrentPrice:   decimal.RequireFromString("100"),
			PredictedPrice: decimal.RequireFromString("101.5"),
		}, nil)

		rec := ts.do(t, http.MethodGet, "/api/v1/state", "")

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "100", body["current_price"])
		assert.Equal(t, "101.5", body["predicted_price"])
		assert.Equal(t, "up", body["oracle_direction"])
	})

	t.Run("unseeded", func(t *testing.T) {
		ts := newTestServer()
		ts.prices.On("GetState", mock.Anything).Return(nil, service.ErrPriceStateMissing)

		rec := ts.do(t, http.MethodGet, "/api/v1/state", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("internal errors are not leaked", func(t *testing.T) {
		ts := newTestServer()
		ts.prices.On("GetState", mock.Anything).Return(nil, errors.New("pq: password authentication failed"))

		rec := ts.do(t, http.MethodGet, "/api/v1/state", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "password")
	})
}

func TestGetPrices(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		ts := newTestServer()
		ts.prices.On("GetHistory", mock.Anything, defaultPriceLimit).Return([]*models.PriceSnapshot{
			{ID: 1, CurrentPrice: decimal.NewFromInt(100)},
		}, nil)

		rec := ts.do(t, http.MethodGet, "/api/v1/prices", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var out []snapshotResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out, 1)
		assert.True(t, out[0].CurrentPrice.Equal(decimal.NewFromInt(100)))
	})

	t.Run("clamped limit", func(t *testing.T) {
		ts := newTestServer()
		ts.prices.On("GetHistory", mock.Anything, maxPriceLimit).Return([]*models.PriceSnapshot{}, nil)

		rec := ts.do(t, http.MethodGet, "/api/v1/prices?limit=999999", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		ts.prices.AssertExpectations(t)
	})

	t.Run("bad limit", func(t *testing.T) {
		ts := newTestServer()

		rec := ts.do(t, http.MethodGet, "/api/v1/prices?limit=ten", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestQueue(t *testing.T) {
	t.Run("length", func(t *testing.T) {
		ts := newTestServer()
		ts.prices.On("QueueLength", mock.Anything).Return(int64(42), nil)

		rec := ts.do(t, http.MethodGet, "/api/v1/queue", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(42), decodeBody(t, rec)["remaining"])
	})

	t.Run("replenish accepts strings and numbers", func(t *testing.T) {
		ts := newTestServer()
		ts.prices.On("ReplenishQueue", mock.Anything, mock.MatchedBy(func(p []decimal.Decimal) bool {
			return len(p) == 2 && p[0].Equal(decimal.RequireFromString("101.5")) && p[1].Equal(decimal.NewFromInt(102))
		})).Return(int64(12), nil)

		rec := ts.do(t, http.MethodPost, "/api/v1/queue", `{"prices":["101.5", 102]}`)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(2), body["added"])
		assert.Equal(t, float64(12), body["remaining"])
	})

	t.Run("replenish validation error", func(t *testing.T) {
		ts := newTestServer()
		ts.prices.On("ReplenishQueue", mock.Anything, mock.Anything).Return(int64(0), service.ErrEmptyReplenish)

		rec := ts.do(t, http.MethodPost, "/api/v1/queue", `{"prices":[]}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("replenish malformed body", func(t *testing.T) {
		ts := newTestServer()

		rec := ts.do(t, http.MethodPost, "/api/v1/queue", `{"prices":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		ts.prices.AssertNotCalled(t, "ReplenishQueue", mock.Anything, mock.Anything)
	})
}

func TestRunSettlement(t *testing.T) {
	t.Run("committed", func(t *testing.T) {
		ts := newTestServer()
		cycleID := uuid.New()
		ts.settlement.On("RunCycle", mock.Anything).Return(&models.CycleResult{
			Cycle: &models.SettlementCycle{
				ID:             cycleID,
				NextPrice:      decimal.NewFromInt(105),
				WagersResolved: 2,
				NetPayout:      20,
			},
			QueueRemaining: 7,
		}, nil)

		rec := ts.do(t, http.MethodPost, "/api/v1/settlement/run", "")

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		cycle := body["cycle"].(map[string]any)
		assert.Equal(t, cycleID.String(), cycle["id"])
		assert.Equal(t, float64(20), cycle["net_payout"])
		assert.Equal(t, float64(7), body["queue_remaining"])
	})

	t.Run("conflict while running", func(t *testing.T) {
		ts := newTestServer()
		ts.settlement.On("RunCycle", mock.Anything).Return(nil, service.ErrCycleInProgress)

		rec := ts.do(t, http.MethodPost, "/api/v1/settlement/run", "")

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("queue exhausted", func(t *testing.T) {
		ts := newTestServer()
		ts.settlement.On("RunCycle", mock.Anything).Return(nil, service.ErrQueueExhausted)

		rec := ts.do(t, http.MethodPost, "/api/v1/settlement/run", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.False(t, ts.lease.held)
	})

	t.Run("second run in the same period is refused", func(t *testing.T) {
		ts := newTestServer()
		ts.settlement.On("RunCycle", mock.Anything).Return(&models.CycleResult{
			Cycle: &models.SettlementCycle{ID: uuid.New(), NextPrice: decimal.NewFromInt(101)},
		}, nil)

		first := ts.do(t, http.MethodPost, "/api/v1/settlement/run", "")
		second := ts.do(t, http.MethodPost, "/api/v1/settlement/run", "")

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusConflict, second.Code)
		assert.Equal(t, "this period has already been settled", decodeBody(t, second)["error"])
		ts.settlement.AssertNumberOfCalls(t, "RunCycle", 1)
	})

	t.Run("period already settled by another process", func(t *testing.T) {
		ts := newTestServer()
		ts.settlement.On("RunCycle", mock.Anything).Return(nil, service.ErrCycleTooSoon)

		rec := ts.do(t, http.MethodPost, "/api/v1/settlement/run", "")

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestAccounts(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		ts := newTestServer()
		ts.accounts.On("GetAccount", mock.Anything, int64(123)).
			Return(&models.Account{DiscordID: 123, Username: "alice", Balance: 3010}, nil)

		rec := ts.do(t, http.MethodGet, "/api/v1/accounts/123", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(3010), decodeBody(t, rec)["balance"])
	})

	t.Run("not found", func(t *testing.T) {
		ts := newTestServer()
		ts.accounts.On("GetAccount", mock.Anything, int64(404)).Return(nil, nil)

		rec := ts.do(t, http.MethodGet, "/api/v1/accounts/404", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		ts := newTestServer()

		rec := ts.do(t, http.MethodGet, "/api/v1/accounts/alice", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wager history", func(t *testing.T) {
		ts := newTestServer()
		ts.accounts.On("GetWagerHistory", mock.Anything, int64(123), 5).Return([]*models.WagerRecord{
			{Direction: models.DirectionUp, Origin: models.OriginUser, Stake: 10, Payout: -10},
		}, nil)

		rec := ts.do(t, http.MethodGet, "/api/v1/accounts/123/wagers?limit=5", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var out []wagerRecordResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out, 1)
		assert.Equal(t, int64(-10), out[0].Payout)
		assert.Equal(t, "up", out[0].Direction)
	})
}

func TestLatestCycle(t *testing.T) {
	ts := newTestServer()
	ts.prices.On("GetLatestCycle", mock.Anything).Return(nil, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/cycles/latest", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
