package alpaca

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order 订单
type Order struct {
	ID             uuid.UUID           `json:"id"`
	ClientOrderID  string              `json:"client_order_id"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	SubmittedAt    time.Time           `json:"submitted_at"`
	FilledAt       *time.Time          `json:"filled_at"`
	ExpiredAt      *time.Time          `json:"expired_at"`
	ExpiresAt      *time.Time          `json:"expires_at"`
	CanceledAt     *time.Time          `json:"canceled_at"`
	FailedAt       *time.Time          `json:"failed_at"`
	ReplacedAt     *time.Time          `json:"replaced_at"`
	ReplacedBy     *uuid.UUID          `json:"replaced_by"`
	Replaces       *uuid.UUID          `json:"replaces"`
	AssetID        string              `json:"asset_id"`
	Symbol         string              `json:"symbol"`
	AssetClass     string              `json:"asset_class"`
	Notional       decimal.NullDecimal `json:"notional"`
	Qty            decimal.NullDecimal `json:"qty"`
	FilledQty      decimal.Decimal     `json:"filled_qty"`
	FilledAvgPrice decimal.NullDecimal `json:"filled_avg_price"`
	OrderClass     OrderClass          `json:"order_class"`
	Type           OrderType           `json:"type"`
	Side           Side                `json:"side"`
	PositionIntent PositionIntent      `json:"position_intent"`
	TimeInForce    TimeInForce         `json:"time_in_force"`
	LimitPrice     decimal.NullDecimal `json:"limit_price"`
	StopPrice      decimal.NullDecimal `json:"stop_price"`
	TrailPrice     decimal.NullDecimal `json:"trail_price"`
	TrailPercent   decimal.NullDecimal `json:"trail_percent"`
	HWM            decimal.NullDecimal `json:"hwm"`
	Status         OrderStatus         `json:"status"`
	ExtendedHours  bool                `json:"extended_hours"`
	Legs           []Order             `json:"legs"`
	Subtag         string              `json:"subtag"`
	Source         string              `json:"source"`
}

// ListOrdersRequest GET /v2/orders 的过滤条件
type ListOrdersRequest struct {
	Status     OrderQueryStatus
	Limit      int
	After      time.Time
	Until      time.Time
	Direction  SortDirection
	Nested     bool
	Symbols    []string
	Side       Side
	AssetClass string
}

func (r ListOrdersRequest) Validate() error {
	switch r.Status {
	case "", OrderQueryOpen, OrderQueryClosed, OrderQueryAll:
	default:
		return invalid("status", "must be open, closed or all")
	}
	if r.Limit < 0 {
		return invalid("limit", "must not be negative")
	}
	if r.Side != "" && !r.Side.IsValid() {
		return invalid("side", "must be buy or sell")
	}
	return nil
}

// ReplaceOrderRequest PATCH /v2/orders/{id} 请求体，至少设置一个字段
type ReplaceOrderRequest struct {
	Qty           *decimal.Decimal `json:"qty,omitempty"`
	TimeInForce   TimeInForce      `json:"time_in_force,omitempty"`
	LimitPrice    *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice     *decimal.Decimal `json:"stop_price,omitempty"`
	Trail         *decimal.Decimal `json:"trail,omitempty"`
	ClientOrderID string           `json:"client_order_id,omitempty"`
}

func (r ReplaceOrderRequest) Validate() error {
	if r.Qty == nil && r.TimeInForce == "" && r.LimitPrice == nil &&
		r.StopPrice == nil && r.Trail == nil && r.ClientOrderID == "" {
		return invalid("", "replace order needs at least one field")
	}
	if r.TimeInForce != "" && !r.TimeInForce.IsValid() {
		return invalid("time_in_force", "has unknown value "+string(r.TimeInForce))
	}
	return nil
}

// CancelOrderResult DELETE /v2/orders 多状态响应中的一项
type CancelOrderResult struct {
	ID     uuid.UUID       `json:"id"`
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// CreateOrder 校验并提交订单
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var order Order
	if err := c.send(ctx, tradingAPI, http.MethodPost, "/v2/orders", nil, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) ListOrders(ctx context.Context, req ListOrdersRequest) ([]Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	q := query{}
	q.str("status", string(req.Status))
	q.num("limit", req.Limit)
	q.ts("after", req.After)
	q.ts("until", req.Until)
	q.str("direction", string(req.Direction))
	q.flag("nested", req.Nested)
	q.list("symbols", req.Symbols)
	q.str("side", string(req.Side))
	q.str("asset_class", req.AssetClass)

	var orders []Order
	if err := c.get(ctx, tradingAPI, "/v2/orders", q.values(), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder 查询订单，nested 为 true 时包含多腿订单的各条腿
func (c *Client) GetOrder(ctx context.Context, orderID string, nested bool) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, invalid("order_id", "is required")
	}
	q := query{}
	q.flag("nested", nested)
	var order Order
	if err := c.get(ctx, tradingAPI, "/v2/orders/"+pathEscape(orderID), q.values(), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) GetOrderByClientOrderID(ctx context.Context, clientOrderID string) (*Order, error) {
	if strings.TrimSpace(clientOrderID) == "" {
		return nil, invalid("client_order_id", "is required")
	}
	q := query{}
	q.str("client_order_id", clientOrderID)
	var order Order
	if err := c.get(ctx, tradingAPI, "/v2/orders:by_client_order_id", q.values(), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ReplaceOrder 修改未成交订单，返回替换后的新订单
func (c *Client) ReplaceOrder(ctx context.Context, orderID string, req ReplaceOrderRequest) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, invalid("order_id", "is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var order Order
	if err := c.send(ctx, tradingAPI, http.MethodPatch, "/v2/orders/"+pathEscape(orderID), nil, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder 撤单，成功时服务端返回 204
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	if strings.TrimSpace(orderID) == "" {
		return invalid("order_id", "is required")
	}
	return c.send(ctx, tradingAPI, http.MethodDelete, "/v2/orders/"+pathEscape(orderID), nil, nil, nil)
}

// CancelAllOrders 撤销所有未成交订单，每个订单返回一条结果
func (c *Client) CancelAllOrders(ctx context.Context) ([]CancelOrderResult, error) {
	var results []CancelOrderResult
	if err := c.send(ctx, tradingAPI, http.MethodDelete, "/v2/orders", nil, nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}
