package alpaca_test

import (
	"bytes"
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/goalpaca/pkg/alpaca"
	"github.com/betbot/goalpaca/pkg/alpaca/alpacatest"
)

const accountJSON = `{
	"id": "904837e3-3b76-47ec-b432-046db621571b",
	"account_number": "PA3ABCDEF123",
	"status": "ACTIVE",
	"crypto_status": "ACTIVE",
	"crypto_tier": 1,
	"currency": "USD",
	"buying_power": "262113.632",
	"regt_buying_power": "262113.632",
	"daytrading_buying_power": "0",
	"effective_buying_power": "262113.632",
	"non_marginable_buying_power": "131056.81",
	"options_buying_power": "131056.81",
	"bod_dtbp": "0",
	"cash": "-23140.2",
	"accrued_fees": "0",
	"pending_reg_taf_fees": "0",
	"portfolio_value": "103820.56",
	"pattern_day_trader": false,
	"trading_blocked": false,
	"transfers_blocked": false,
	"account_blocked": false,
	"shorting_enabled": true,
	"trade_suspended_by_user": false,
	"created_at": "2019-06-12T22:47:07.99658Z",
	"multiplier": "4",
	"equity": "103820.56",
	"last_equity": "103529.24",
	"long_market_value": "126960.76",
	"short_market_value": "0",
	"position_market_value": "126960.76",
	"initial_margin": "63480.38",
	"maintenance_margin": "38088.23",
	"last_maintenance_margin": "38000.83",
	"intraday_adjustments": "0",
	"sma": "0",
	"daytrade_count": 2,
	"balance_asof": "2024-05-10",
	"options_approved_level": 2,
	"options_trading_level": 2,
	"admin_configurations": {},
	"user_configurations": null,
	"some_future_field": "ignored"
}`

func TestGetAccountDecodesEveryField(t *testing.T) {
	srv := alpacatest.NewServer(t)
	srv.RequireAuth(alpacatest.KeyID, alpacatest.SecretKey)
	srv.HandleJSON(http.MethodGet, "/v2/account", http.StatusOK, accountJSON)

	account, err := srv.Client().GetAccount(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uuid.MustParse("904837e3-3b76-47ec-b432-046db621571b"), account.ID)
	assert.Equal(t, "PA3ABCDEF123", account.AccountNumber)
	assert.Equal(t, "ACTIVE", account.Status)
	assert.Equal(t, 1, account.CryptoTier)
	assert.Equal(t, "USD", account.Currency)
	assert.True(t, decimal.RequireFromString("262113.632").Equal(account.BuyingPower))
	assert.True(t, decimal.RequireFromString("131056.81").Equal(account.NonMarginableBuyingPower))
	assert.True(t, decimal.RequireFromString("-23140.2").Equal(account.Cash))
	assert.True(t, decimal.RequireFromString("103820.56").Equal(account.Equity))
	assert.True(t, decimal.RequireFromString("103529.24").Equal(account.LastEquity))
	assert.True(t, decimal.NewFromInt(4).Equal(account.Multiplier))
	assert.True(t, account.ShortingEnabled)
	assert.False(t, account.TradingBlocked)
	assert.Equal(t, 2, account.DaytradeCount)
	assert.Equal(t, 2, account.OptionsTradingLevel)
	assert.Equal(t, "2024-05-10", account.BalanceAsOf)
	assert.Equal(t, time.Date(2019, 6, 12, 22, 47, 7, 996580000, time.UTC), account.CreatedAt.UTC())

	req, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, alpacatest.KeyID, req.Header.Get(alpaca.HeaderKeyID))
	assert.Equal(t, alpacatest.SecretKey, req.Header.Get(alpaca.HeaderSecretKey))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Equal(t, alpaca.DefaultUserAgent, req.Header.Get("User-Agent"))
}

func TestAPIErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     any
		wantCode int
		wantMsg  string
	}{
		{
			name:     "forbidden",
			status:   http.StatusForbidden,
			body:     `{"code":40310000,"message":"insufficient buying power"}`,
			wantCode: 40310000,
			wantMsg:  "insufficient buying power",
		},
		{
			name:     "unprocessable",
			status:   http.StatusUnprocessableEntity,
			body:     `{"code":42210000,"message":"qty must be > 0"}`,
			wantCode: 42210000,
			wantMsg:  "qty must be > 0",
		},
		{
			name:     "code without message",
			status:   http.StatusUnprocessableEntity,
			body:     `{"code":42210000,"message":""}`,
			wantCode: 42210000,
			wantMsg:  "",
		},
		{
			name:    "plain text body",
			status:  http.StatusBadGateway,
			body:    "upstream unavailable\n",
			wantMsg: "upstream unavailable",
		},
		{
			name:    "empty body",
			status:  http.StatusInternalServerError,
			body:    nil,
			wantMsg: "Internal Server Error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := alpacatest.NewServer(t)
			srv.HandleJSON(http.MethodGet, "/v2/account", tt.status, tt.body)

			account, err := srv.Client().GetAccount(context.Background())
			assert.Nil(t, account)
			require.Error(t, err)
			assert.True(t, errors.Is(err, alpaca.ErrAPI))
			assert.False(t, errors.Is(err, alpaca.ErrTransport))

			var apiErr *alpaca.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestUnauthorizedIsAPIError(t *testing.T) {
	srv := alpacatest.NewServer(t)
	srv.RequireAuth("other-key", "other-secret")
	srv.HandleJSON(http.MethodGet, "/v2/clock", http.StatusOK, `{}`)

	_, err := srv.Client().GetClock(context.Background())
	var apiErr *alpaca.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestIsNotFound(t *testing.T) {
	srv := alpacatest.NewServer(t)

	_, err := srv.Client().GetAsset(context.Background(), "NOPE")
	assert.True(t, alpaca.IsNotFound(err))
	assert.False(t, alpaca.IsNotFound(errors.New("other")))
}

func TestConnectionFailureIsTransportError(t *testing.T) {
	srv := alpacatest.NewServer(t)
	c := srv.Client()
	srv.Close()

	account, err := c.GetAccount(context.Background())
	assert.Nil(t, account)
	require.Error(t, err)
	assert.True(t, errors.Is(err, alpaca.ErrTransport))
	assert.False(t, errors.Is(err, alpaca.ErrAPI))

	var te *alpaca.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "GET /v2/account", te.Op)
	assert.NotNil(t, te.Unwrap())
}

func TestCanceledContextIsTransportError(t *testing.T) {
	srv := alpacatest.NewServer(t)
	srv.HandleJSON(http.MethodGet, "/v2/clock", http.StatusOK, `{"is_open":true}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := srv.Client().GetClock(ctx)
	assert.True(t, errors.Is(err, alpaca.ErrTransport))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestUndecodableBodyIsTransportError(t *testing.T) {
	srv := alpacatest.NewServer(t)
	srv.HandleJSON(http.MethodGet, "/v2/account", http.StatusOK, `{"cash": [1, 2`)

	_, err := srv.Client().GetAccount(context.Background())
	assert.True(t, errors.Is(err, alpaca.ErrTransport))
	assert.Contains(t, err.Error(), "decode response")
}

func TestEmptySuccessBodyIsTransportError(t *testing.T) {
	srv := alpacatest.NewServer(t)
	srv.HandleJSON(http.MethodGet, "/v2/account", http.StatusOK, nil)

	_, err := srv.Client().GetAccount(context.Background())
	assert.True(t, errors.Is(err, alpaca.ErrTransport))
}

func TestNoRetryOnServerError(t *testing.T) {
	srv := alpacatest.NewServer(t)
	srv.HandleJSON(http.MethodGet, "/v2/clock", http.StatusServiceUnavailable, `{"message":"try later"}`)

	_, err := srv.Client().GetClock(context.Background())
	require.Error(t, err)
	assert.Len(t, srv.Requests(), 1)
}

func TestWithLoggerEmitsDebugWithoutSecrets(t *testing.T) {
	srv := alpacatest.NewServer(t)
	srv.HandleJSON(http.MethodGet, "/v2/clock", http.StatusOK, `{"is_open":false}`)

	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	_, err := srv.Client(alpaca.WithLogger(logger)).GetClock(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "GET /v2/clock")
	assert.Contains(t, out, "component=alpaca")
	assert.NotContains(t, out, alpacatest.SecretKey)
}

func TestConcurrentCallsShareClient(t *testing.T) {
	srv := alpacatest.NewServer(t)
	srv.HandleJSON(http.MethodGet, "/v2/clock", http.StatusOK, `{"is_open":true}`)
	c := srv.Client()

	const n = 8
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := c.GetClock(context.Background())
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		assert.NoError(t, <-errs)
	}
	assert.Len(t, srv.Requests(), n)
}

const clockJSON = `{"timestamp":"2024-05-10T10:00:00-04:00","is_open":true,
	"next_open":"2024-05-13T09:30:00-04:00","next_close":"2024-05-10T16:00:00-04:00"}`

func TestWithTimeoutBoundsEachRequest(t *testing.T) {
	srv := alpacatest.NewServer(t)
	srv.Handle(http.MethodGet, "/v2/clock", func(c *gin.Context) {
		select {
		case <-c.Request.Context().Done():
		case <-time.After(2 * time.Second):
		}
		c.String(http.StatusOK, clockJSON)
	})

	start := time.Now()
	_, err := srv.Client(alpaca.WithTimeout(50 * time.Millisecond)).GetClock(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, alpaca.ErrTransport))
	var transportErr *alpaca.TransportError
	assert.True(t, errors.As(err, &transportErr))
	assert.Less(t, time.Since(start), time.Second)
}

func TestWithUserAgent(t *testing.T) {
	srv := alpacatest.NewServer(t)
	srv.HandleJSON(http.MethodGet, "/v2/clock", http.StatusOK, clockJSON)

	_, err := srv.Client().GetClock(context.Background())
	require.NoError(t, err)
	last, _ := srv.LastRequest()
	assert.Equal(t, alpaca.DefaultUserAgent, last.Header.Get("User-Agent"))

	_, err = srv.Client(alpaca.WithUserAgent("rebalancer/2.1")).GetClock(context.Background())
	require.NoError(t, err)
	last, _ = srv.LastRequest()
	assert.Equal(t, "rebalancer/2.1", last.Header.Get("User-Agent"))
}

type countingTransport struct {
	calls atomic.Int32
}

func (rt *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.calls.Add(1)
	return http.DefaultTransport.RoundTrip(req)
}

func TestWithHTTPClientUsesTransportWithoutMutatingIt(t *testing.T) {
	srv := alpacatest.NewServer(t)
	srv.HandleJSON(http.MethodGet, "/v2/clock", http.StatusOK, clockJSON)

	rt := &countingTransport{}
	hc := &http.Client{Transport: rt}
	c := srv.Client(alpaca.WithHTTPClient(hc), alpaca.WithTimeout(5*time.Second))

	_, err := c.GetClock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), rt.calls.Load())
	assert.Zero(t, hc.Timeout)
	assert.Same(t, rt, hc.Transport)

	bare := &http.Client{}
	_, err = srv.Client(alpaca.WithHTTPClient(bare), alpaca.WithTimeout(5*time.Second)).GetClock(context.Background())
	require.NoError(t, err)
	assert.Zero(t, bare.Timeout)
	assert.Nil(t, bare.Transport)
}
