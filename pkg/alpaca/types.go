package alpaca

// Side 订单方向
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

func (s Side) IsValid() bool {
	return s == SideBuy || s == SideSell
}

// OrderType 订单类型
type OrderType string

const (
	OrderTypeMarket       OrderType = "market"
	OrderTypeLimit        OrderType = "limit"
	OrderTypeStop         OrderType = "stop"
	OrderTypeStopLimit    OrderType = "stop_limit"
	OrderTypeTrailingStop OrderType = "trailing_stop"
)

func (t OrderType) IsValid() bool {
	switch t {
	case OrderTypeMarket, OrderTypeLimit, OrderTypeStop, OrderTypeStopLimit, OrderTypeTrailingStop:
		return true
	}
	return false
}

// TimeInForce 订单有效期
type TimeInForce string

const (
	TimeInForceDay TimeInForce = "day"
	TimeInForceGTC TimeInForce = "gtc" // Good Till Cancel
	TimeInForceOPG TimeInForce = "opg" // 开盘集合竞价
	TimeInForceCLS TimeInForce = "cls" // 收盘集合竞价
	TimeInForceIOC TimeInForce = "ioc" // Immediate Or Cancel
	TimeInForceFOK TimeInForce = "fok" // Fill Or Kill
)

func (t TimeInForce) IsValid() bool {
	switch t {
	case TimeInForceDay, TimeInForceGTC, TimeInForceOPG, TimeInForceCLS, TimeInForceIOC, TimeInForceFOK:
		return true
	}
	return false
}

type OrderClass string

const (
	OrderClassSimple  OrderClass = "simple"
	OrderClassBracket OrderClass = "bracket"
	OrderClassOCO     OrderClass = "oco"
	OrderClassOTO     OrderClass = "oto"
	OrderClassMleg    OrderClass = "mleg"
)

// IsValid 空值视为 simple
func (c OrderClass) IsValid() bool {
	switch c {
	case "", OrderClassSimple, OrderClassBracket, OrderClassOCO, OrderClassOTO, OrderClassMleg:
		return true
	}
	return false
}

type PositionIntent string

const (
	PositionIntentBuyToOpen   PositionIntent = "buy_to_open"
	PositionIntentBuyToClose  PositionIntent = "buy_to_close"
	PositionIntentSellToOpen  PositionIntent = "sell_to_open"
	PositionIntentSellToClose PositionIntent = "sell_to_close"
)

func (p PositionIntent) IsValid() bool {
	switch p {
	case "", PositionIntentBuyToOpen, PositionIntentBuyToClose, PositionIntentSellToOpen, PositionIntentSellToClose:
		return true
	}
	return false
}

// OrderQueryStatus ListOrders 的状态过滤
type OrderQueryStatus string

const (
	OrderQueryOpen   OrderQueryStatus = "open"
	OrderQueryClosed OrderQueryStatus = "closed"
	OrderQueryAll    OrderQueryStatus = "all"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// OrderStatus 订单状态（响应中的 status 字段）
type OrderStatus string

const (
	OrderStatusNew                OrderStatus = "new"
	OrderStatusPartiallyFilled    OrderStatus = "partially_filled"
	OrderStatusFilled             OrderStatus = "filled"
	OrderStatusDoneForDay         OrderStatus = "done_for_day"
	OrderStatusCanceled           OrderStatus = "canceled"
	OrderStatusExpired            OrderStatus = "expired"
	OrderStatusReplaced           OrderStatus = "replaced"
	OrderStatusPendingCancel      OrderStatus = "pending_cancel"
	OrderStatusPendingReplace     OrderStatus = "pending_replace"
	OrderStatusAccepted           OrderStatus = "accepted"
	OrderStatusPendingNew         OrderStatus = "pending_new"
	OrderStatusAcceptedForBidding OrderStatus = "accepted_for_bidding"
	OrderStatusStopped            OrderStatus = "stopped"
	OrderStatusRejected           OrderStatus = "rejected"
	OrderStatusSuspended          OrderStatus = "suspended"
	OrderStatusCalculated         OrderStatus = "calculated"
)

// IsTerminal 订单是否已进入终态
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCanceled, OrderStatusExpired, OrderStatusReplaced, OrderStatusRejected:
		return true
	}
	return false
}
