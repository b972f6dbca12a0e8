package alpaca

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Position 持仓
type Position struct {
	AssetID                string              `json:"asset_id"`
	Symbol                 string              `json:"symbol"`
	Exchange               string              `json:"exchange"`
	AssetClass             string              `json:"asset_class"`
	AssetMarginable        bool                `json:"asset_marginable"`
	Qty                    decimal.Decimal     `json:"qty"`
	QtyAvailable           decimal.Decimal     `json:"qty_available"`
	AvgEntryPrice          decimal.Decimal     `json:"avg_entry_price"`
	Side                   string              `json:"side"`
	MarketValue            decimal.NullDecimal `json:"market_value"`
	CostBasis              decimal.Decimal     `json:"cost_basis"`
	UnrealizedPL           decimal.NullDecimal `json:"unrealized_pl"`
	UnrealizedPLPC         decimal.NullDecimal `json:"unrealized_plpc"`
	UnrealizedIntradayPL   decimal.NullDecimal `json:"unrealized_intraday_pl"`
	UnrealizedIntradayPLPC decimal.NullDecimal `json:"unrealized_intraday_plpc"`
	CurrentPrice           decimal.NullDecimal `json:"current_price"`
	LastdayPrice           decimal.NullDecimal `json:"lastday_price"`
	ChangeToday            decimal.NullDecimal `json:"change_today"`
}

// ClosePositionRequest 部分平仓，Qty 与 Percentage 互斥；都不设置则全部平仓
type ClosePositionRequest struct {
	Qty        *decimal.Decimal
	Percentage *decimal.Decimal
}

func (r ClosePositionRequest) Validate() error {
	if r.Qty != nil && r.Percentage != nil {
		return invalid("qty", "and percentage are mutually exclusive")
	}
	if r.Percentage != nil && (r.Percentage.Sign() <= 0 || r.Percentage.GreaterThan(decimal.NewFromInt(100))) {
		return invalid("percentage", "must be in (0, 100]")
	}
	if r.Qty != nil && r.Qty.Sign() <= 0 {
		return invalid("qty", "must be positive")
	}
	return nil
}

// ClosePositionResult DELETE /v2/positions 多状态响应中的一项
type ClosePositionResult struct {
	Symbol string          `json:"symbol"`
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// Order 解析平仓订单；该项失败时返回 *APIError
func (r ClosePositionResult) Order() (*Order, error) {
	if r.Status < 200 || r.Status > 299 {
		return nil, newAPIError(r.Status, r.Body)
	}
	var order Order
	if err := json.Unmarshal(r.Body, &order); err != nil {
		return nil, errors.Wrapf(err, "decode close order for %s", r.Symbol)
	}
	return &order, nil
}

func (c *Client) ListPositions(ctx context.Context) ([]Position, error) {
	var positions []Position
	if err := c.get(ctx, tradingAPI, "/v2/positions", nil, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// GetPosition 查询持仓（symbol 或 asset id）
func (c *Client) GetPosition(ctx context.Context, symbolOrAssetID string) (*Position, error) {
	if strings.TrimSpace(symbolOrAssetID) == "" {
		return nil, invalid("symbol", "is required")
	}
	var position Position
	if err := c.get(ctx, tradingAPI, "/v2/positions/"+pathEscape(symbolOrAssetID), nil, &position); err != nil {
		return nil, err
	}
	return &position, nil
}

// ClosePosition 平仓，返回平仓订单
func (c *Client) ClosePosition(ctx context.Context, symbolOrAssetID string, req ClosePositionRequest) (*Order, error) {
	if strings.TrimSpace(symbolOrAssetID) == "" {
		return nil, invalid("symbol", "is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	q := query{}
	q.dec("qty", req.Qty)
	q.dec("percentage", req.Percentage)
	var order Order
	if err := c.send(ctx, tradingAPI, http.MethodDelete, "/v2/positions/"+pathEscape(symbolOrAssetID), q.values(), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CloseAllPositions 平掉所有持仓，cancelOrders 为 true 时先撤销未成交订单
func (c *Client) CloseAllPositions(ctx context.Context, cancelOrders bool) ([]ClosePositionResult, error) {
	q := query{}
	q.flag("cancel_orders", cancelOrders)
	var results []ClosePositionResult
	if err := c.send(ctx, tradingAPI, http.MethodDelete, "/v2/positions", q.values(), nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// ExerciseOptionsPosition 行权，服务端无响应体
func (c *Client) ExerciseOptionsPosition(ctx context.Context, symbolOrContractID string) error {
	if strings.TrimSpace(symbolOrContractID) == "" {
		return invalid("symbol", "is required")
	}
	return c.send(ctx, tradingAPI, http.MethodPost, "/v2/positions/"+pathEscape(symbolOrContractID)+"/exercise", nil, nil, nil)
}
