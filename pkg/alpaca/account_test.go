package alpaca_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/goalpaca/pkg/alpaca"
	"github.com/betbot/goalpaca/pkg/alpaca/alpacatest"
)

const configurationsJSON = `{
	"dtbp_check": "entry",
	"trade_confirm_email": "all",
	"suspend_trade": false,
	"no_shorting": true,
	"fractional_trading": true,
	"max_margin_multiplier": "4",
	"max_options_trading_level": 2,
	"pdt_check": "entry",
	"ptp_no_exception_entry": false
}`

func TestAccountConfigurations(t *testing.T) {
	srv := alpacatest.NewServer(t)
	srv.HandleJSON(http.MethodGet, "/v2/account/configurations", http.StatusOK, configurationsJSON)
	srv.HandleJSON(http.MethodPatch, "/v2/account/configurations", http.StatusOK, configurationsJSON)
	c := srv.Client()

	cfg, err := c.GetAccountConfigurations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "entry", cfg.DTBPCheck)
	assert.True(t, cfg.NoShorting)
	assert.True(t, decimal.NewFromInt(4).Equal(cfg.MaxMarginMultiplier))
	require.NotNil(t, cfg.MaxOptionsTradingLevel)
	assert.Equal(t, 2, *cfg.MaxOptionsTradingLevel)

	noShorting := true
	_, err = c.UpdateAccountConfigurations(context.Background(), alpaca.AccountConfigurationsUpdate{NoShorting: &noShorting})
	require.NoError(t, err)
	last, _ := srv.LastRequest()
	assert.Equal(t, http.MethodPatch, last.Method)
	assert.JSONEq(t, `{"no_shorting":true}`, string(last.Body))
}

func TestAccountActivities(t *testing.T) {
	srv := alpacatest.NewServer(t)
	srv.HandleJSON(http.MethodGet, "/v2/account/activities", http.StatusOK, `[
		{"id":"20240510133000000::8efc7b9a","activity_type":"FILL","transaction_time":"2024-05-10T13:30:00Z",
		 "type":"fill","price":"183.1","qty":"10","side":"buy","symbol":"AAPL","leaves_qty":"0","cum_qty":"10",
		 "order_id":"61e69015-8549-4bfd-b9c3-01e75843f47d","order_status":"filled"},
		{"id":"20240510000000000::1a2b","activity_type":"DIV","date":"2024-05-10","net_amount":"2.4",
		 "symbol":"AAPL","qty":"10","per_share_amount":"0.24","status":"executed"}
	]`)
	srv.HandleJSON(http.MethodGet, "/v2/account/activities/DIV", http.StatusOK, `[]`)
	c := srv.Client()

	after := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	acts, err := c.GetAccountActivities(context.Background(), alpaca.ActivitiesRequest{
		ActivityTypes: []alpaca.ActivityType{alpaca.ActivityFill, alpaca.ActivityDiv},
		After:         after,
		Direction:     alpaca.SortAsc,
		PageSize:      100,
	})
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.True(t, acts[0].IsTrade())
	assert.Equal(t, alpaca.OrderStatusFilled, acts[0].OrderStatus)
	assert.True(t, decimal.RequireFromString("183.1").Equal(acts[0].Price.Decimal))
	assert.False(t, acts[1].IsTrade())
	assert.True(t, decimal.RequireFromString("2.4").Equal(acts[1].NetAmount.Decimal))
	assert.False(t, acts[1].Price.Valid)

	q := srv.Requests()[0].Query
	assert.Equal(t, "FILL,DIV", q.Get("activity_types"))
	assert.Equal(t, "2024-05-01T00:00:00Z", q.Get("after"))
	assert.Equal(t, "100", q.Get("page_size"))

	acts, err = c.GetAccountActivitiesByType(context.Background(), alpaca.ActivityDiv, alpaca.ActivitiesRequest{
		ActivityTypes: []alpaca.ActivityType{alpaca.ActivityFill},
		Date:          time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Empty(t, acts)
	q = srv.Requests()[1].Query
	assert.False(t, q.Has("activity_types"))
	assert.Equal(t, "2024-05-10", q.Get("date"))

	_, err = c.GetAccountActivitiesByType(context.Background(), "", alpaca.ActivitiesRequest{})
	assert.True(t, errors.Is(err, alpaca.ErrValidation))
}

func TestGetPortfolioHistory(t *testing.T) {
	srv := alpacatest.NewServer(t)
	srv.HandleJSON(http.MethodGet, "/v2/account/portfolio/history", http.StatusOK, `{
		"timestamp": [1715313600, 1715400000, 1715486400],
		"equity": [100000, 100250.5, null],
		"profit_loss": [0, 250.5, null],
		"profit_loss_pct": [0, 0.002505, null],
		"base_value": 100000,
		"base_value_asof": "2024-05-09",
		"timeframe": "1D"
	}`)

	extended := true
	hist, err := srv.Client().GetPortfolioHistory(context.Background(), alpaca.PortfolioHistoryRequest{
		Period:        "1W",
		Timeframe:     "1D",
		ExtendedHours: &extended,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, hist.Len())
	assert.True(t, decimal.NewFromInt(100000).Equal(hist.BaseValue))

	points := hist.Points()
	require.Len(t, points, 3)
	assert.Equal(t, time.Unix(1715400000, 0).UTC(), points[1].Time)
	assert.True(t, decimal.RequireFromString("100250.5").Equal(points[1].Equity.Decimal))
	assert.False(t, points[2].Equity.Valid)

	q := srv.Requests()[0].Query
	assert.Equal(t, "1W", q.Get("period"))
	assert.Equal(t, "1D", q.Get("timeframe"))
	assert.Equal(t, "true", q.Get("extended_hours"))
}

func TestClockAndCalendar(t *testing.T) {
	srv := alpacatest.NewServer(t)
	srv.HandleJSON(http.MethodGet, "/v2/clock", http.StatusOK, `{
		"timestamp": "2024-05-10T09:00:00-04:00",
		"is_open": false,
		"next_open": "2024-05-10T09:30:00-04:00",
		"next_close": "2024-05-10T16:00:00-04:00"
	}`)
	srv.HandleJSON(http.MethodGet, "/v2/calendar", http.StatusOK, `[
		{"date":"2024-05-10","open":"09:30","close":"16:00","session_open":"0400","session_close":"2000","settlement_date":"2024-05-13"}
	]`)
	c := srv.Client()

	clock, err := c.GetClock(context.Background())
	require.NoError(t, err)
	assert.False(t, clock.IsOpen)
	assert.Equal(t, 30*time.Minute, clock.UntilNextOpen())
	assert.Zero(t, clock.UntilClose())

	days, err := c.GetCalendar(context.Background(), alpaca.CalendarRequest{
		Start: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, days, 1)
	open, err := days[0].OpenTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 10, 13, 30, 0, 0, time.UTC), open.UTC())
	assert.Equal(t, "2024-05-10", srv.Requests()[1].Query.Get("start"))

	_, err = c.GetCalendar(context.Background(), alpaca.CalendarRequest{DateType: "HOLIDAY"})
	assert.True(t, errors.Is(err, alpaca.ErrValidation))
}
