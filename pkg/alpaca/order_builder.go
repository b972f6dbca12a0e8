package alpaca

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
)

// OrderRequest POST /v2/orders 请求体，未设置的可选字段不序列化
type OrderRequest struct {
	Symbol         string           `json:"symbol"`
	Qty            *decimal.Decimal `json:"qty,omitempty"`
	Notional       *decimal.Decimal `json:"notional,omitempty"`
	Side           Side             `json:"side"`
	Type           OrderType        `json:"type"`
	TimeInForce    TimeInForce      `json:"time_in_force"`
	LimitPrice     *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice      *decimal.Decimal `json:"stop_price,omitempty"`
	TrailPrice     *decimal.Decimal `json:"trail_price,omitempty"`
	TrailPercent   *decimal.Decimal `json:"trail_percent,omitempty"`
	ExtendedHours  *bool            `json:"extended_hours,omitempty"`
	ClientOrderID  string           `json:"client_order_id,omitempty"`
	OrderClass     OrderClass       `json:"order_class,omitempty"`
	PositionIntent PositionIntent   `json:"position_intent,omitempty"`
	Legs           []OrderLeg       `json:"legs,omitempty"`
	TakeProfit     *TakeProfit      `json:"take_profit,omitempty"`
	StopLoss       *StopLoss        `json:"stop_loss,omitempty"`
}

// OrderLeg 多腿（mleg）期权订单的一条腿
type OrderLeg struct {
	Symbol         string         `json:"symbol"`
	RatioQty       string         `json:"ratio_qty"`
	Side           Side           `json:"side,omitempty"`
	PositionIntent PositionIntent `json:"position_intent,omitempty"`
}

type TakeProfit struct {
	LimitPrice decimal.Decimal `json:"limit_price"`
}

type StopLoss struct {
	StopPrice  decimal.Decimal  `json:"stop_price"`
	LimitPrice *decimal.Decimal `json:"limit_price,omitempty"`
}

// Validate 校验必填字段、互斥字段和枚举值
// 返回全部错误，每一项都是 *ValidationError
func (r OrderRequest) Validate() error {
	var merr *multierror.Error
	add := func(field, msg string) {
		merr = multierror.Append(merr, invalid(field, msg))
	}

	if strings.TrimSpace(r.Symbol) == "" {
		add("symbol", "is required")
	}
	switch {
	case r.Qty == nil && r.Notional == nil:
		add("qty", "or notional is required")
	case r.Qty != nil && r.Notional != nil:
		add("qty", "and notional are mutually exclusive")
	}
	if r.TrailPrice != nil && r.TrailPercent != nil {
		add("trail_price", "and trail_percent are mutually exclusive")
	}
	switch {
	case r.Side == "":
		add("side", "is required")
	case !r.Side.IsValid():
		add("side", fmt.Sprintf("has unknown value %q", r.Side))
	}
	switch {
	case r.Type == "":
		add("type", "is required")
	case !r.Type.IsValid():
		add("type", fmt.Sprintf("has unknown value %q", r.Type))
	}
	switch {
	case r.TimeInForce == "":
		add("time_in_force", "is required")
	case !r.TimeInForce.IsValid():
		add("time_in_force", fmt.Sprintf("has unknown value %q", r.TimeInForce))
	}
	if !r.OrderClass.IsValid() {
		add("order_class", fmt.Sprintf("has unknown value %q", r.OrderClass))
	}
	if !r.PositionIntent.IsValid() {
		add("position_intent", fmt.Sprintf("has unknown value %q", r.PositionIntent))
	}
	for i, leg := range r.Legs {
		if leg.Symbol == "" {
			add(fmt.Sprintf("legs[%d].symbol", i), "is required")
		}
	}
	return merr.ErrorOrNil()
}

// OrderBuilder 链式构建 OrderRequest，Build 时统一校验
type OrderBuilder struct {
	req OrderRequest
}

func NewOrderBuilder() *OrderBuilder {
	return &OrderBuilder{}
}

// NewMarketOrder 当日有效的市价单
func NewMarketOrder(symbol string, side Side, qty decimal.Decimal) *OrderBuilder {
	return NewOrderBuilder().
		Symbol(symbol).
		Side(side).
		Qty(qty).
		Type(OrderTypeMarket).
		TimeInForce(TimeInForceDay)
}

// NewLimitOrder 当日有效的限价单
func NewLimitOrder(symbol string, side Side, qty, limitPrice decimal.Decimal) *OrderBuilder {
	return NewOrderBuilder().
		Symbol(symbol).
		Side(side).
		Qty(qty).
		Type(OrderTypeLimit).
		LimitPrice(limitPrice).
		TimeInForce(TimeInForceDay)
}

func (b *OrderBuilder) Symbol(symbol string) *OrderBuilder {
	b.req.Symbol = symbol
	return b
}

func (b *OrderBuilder) Qty(qty decimal.Decimal) *OrderBuilder {
	b.req.Qty = &qty
	return b
}

func (b *OrderBuilder) Notional(notional decimal.Decimal) *OrderBuilder {
	b.req.Notional = &notional
	return b
}

func (b *OrderBuilder) Side(side Side) *OrderBuilder {
	b.req.Side = side
	return b
}

func (b *OrderBuilder) Type(t OrderType) *OrderBuilder {
	b.req.Type = t
	return b
}

func (b *OrderBuilder) TimeInForce(tif TimeInForce) *OrderBuilder {
	b.req.TimeInForce = tif
	return b
}

func (b *OrderBuilder) LimitPrice(p decimal.Decimal) *OrderBuilder {
	b.req.LimitPrice = &p
	return b
}

func (b *OrderBuilder) StopPrice(p decimal.Decimal) *OrderBuilder {
	b.req.StopPrice = &p
	return b
}

func (b *OrderBuilder) TrailPrice(p decimal.Decimal) *OrderBuilder {
	b.req.TrailPrice = &p
	return b
}

func (b *OrderBuilder) TrailPercent(p decimal.Decimal) *OrderBuilder {
	b.req.TrailPercent = &p
	return b
}

func (b *OrderBuilder) ExtendedHours(on bool) *OrderBuilder {
	b.req.ExtendedHours = &on
	return b
}

func (b *OrderBuilder) ClientOrderID(id string) *OrderBuilder {
	b.req.ClientOrderID = id
	return b
}

// GenerateClientOrderID 使用随机 UUID 作为 client_order_id
func (b *OrderBuilder) GenerateClientOrderID() *OrderBuilder {
	b.req.ClientOrderID = uuid.NewString()
	return b
}

func (b *OrderBuilder) OrderClass(c OrderClass) *OrderBuilder {
	b.req.OrderClass = c
	return b
}

func (b *OrderBuilder) PositionIntent(p PositionIntent) *OrderBuilder {
	b.req.PositionIntent = p
	return b
}

func (b *OrderBuilder) Legs(legs ...OrderLeg) *OrderBuilder {
	b.req.Legs = append(b.req.Legs, legs...)
	return b
}

func (b *OrderBuilder) TakeProfit(limitPrice decimal.Decimal) *OrderBuilder {
	b.req.TakeProfit = &TakeProfit{LimitPrice: limitPrice}
	return b
}

// StopLoss 设置止损腿，limitPrice 为 nil 时为普通止损
func (b *OrderBuilder) StopLoss(stopPrice decimal.Decimal, limitPrice *decimal.Decimal) *OrderBuilder {
	b.req.StopLoss = &StopLoss{StopPrice: stopPrice, LimitPrice: limitPrice}
	return b
}

// Build 校验并返回请求的副本
func (b *OrderBuilder) Build() (OrderRequest, error) {
	req := b.req
	if len(b.req.Legs) > 0 {
		req.Legs = append([]OrderLeg(nil), b.req.Legs...)
	}
	if err := req.Validate(); err != nil {
		return OrderRequest{}, err
	}
	return req, nil
}

// MustBuild 同 Build，校验失败时 panic
func (b *OrderBuilder) MustBuild() OrderRequest {
	req, err := b.Build()
	if err != nil {
		panic(err)
	}
	return req
}
