package alpaca

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioHistory 并行序列：各切片第 i 项对应 Timestamp[i]（unix 秒）。
// 缺失的点解析为无效的 NullDecimal
type PortfolioHistory struct {
	Timestamp     []int64               `json:"timestamp"`
	Equity        []decimal.NullDecimal `json:"equity"`
	ProfitLoss    []decimal.NullDecimal `json:"profit_loss"`
	ProfitLossPct []decimal.NullDecimal `json:"profit_loss_pct"`
	BaseValue     decimal.Decimal       `json:"base_value"`
	BaseValueAsOf string                `json:"base_value_asof,omitempty"`
	Timeframe     string                `json:"timeframe"`
	Cashflow      json.RawMessage       `json:"cashflow,omitempty"`
}

// PortfolioPoint PortfolioHistory 的一行
type PortfolioPoint struct {
	Time          time.Time
	Equity        decimal.NullDecimal
	ProfitLoss    decimal.NullDecimal
	ProfitLossPct decimal.NullDecimal
}

func (h PortfolioHistory) Len() int { return len(h.Timestamp) }

// Points 把并行序列合并为行，较短的序列尾部为无效值
func (h PortfolioHistory) Points() []PortfolioPoint {
	at := func(s []decimal.NullDecimal, i int) decimal.NullDecimal {
		if i < len(s) {
			return s[i]
		}
		return decimal.NullDecimal{}
	}
	out := make([]PortfolioPoint, len(h.Timestamp))
	for i, ts := range h.Timestamp {
		out[i] = PortfolioPoint{
			Time:          time.Unix(ts, 0).UTC(),
			Equity:        at(h.Equity, i),
			ProfitLoss:    at(h.ProfitLoss, i),
			ProfitLossPct: at(h.ProfitLossPct, i),
		}
	}
	return out
}

// PortfolioHistoryRequest GET /v2/account/portfolio/history 的参数。
// Period 形如 "1W"、"3M"；Timeframe 形如 "1Min"、"1H"、"1D"
type PortfolioHistoryRequest struct {
	Period            string
	Timeframe         string
	IntradayReporting string // market_hours | extended_hours | continuous
	Start             time.Time
	End               time.Time
	PNLReset          string // per_day | no_reset
	ExtendedHours     *bool
	CashflowTypes     []string
}

func (r PortfolioHistoryRequest) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return invalid("end", "is before start")
	}
	if r.Period != "" && !r.Start.IsZero() && !r.End.IsZero() {
		return invalid("period", "cannot be combined with both start and end")
	}
	return nil
}

func (c *Client) GetPortfolioHistory(ctx context.Context, req PortfolioHistoryRequest) (*PortfolioHistory, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	q := query{}
	q.str("period", req.Period)
	q.str("timeframe", req.Timeframe)
	q.str("intraday_reporting", req.IntradayReporting)
	q.ts("start", req.Start)
	q.ts("end", req.End)
	q.str("pnl_reset", req.PNLReset)
	q.boolPtr("extended_hours", req.ExtendedHours)
	q.list("cashflow_types", req.CashflowTypes)

	var history PortfolioHistory
	if err := c.get(ctx, tradingAPI, "/v2/account/portfolio/history", q.values(), &history); err != nil {
		return nil, err
	}
	return &history, nil
}
