package alpaca

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ActivityType 账户活动类型，例如 FILL、DIV
type ActivityType string

const (
	ActivityFill    ActivityType = "FILL"
	ActivityTrans   ActivityType = "TRANS"
	ActivityMisc    ActivityType = "MISC"
	ActivityACATC   ActivityType = "ACATC"
	ActivityACATS   ActivityType = "ACATS"
	ActivityCFEE    ActivityType = "CFEE"
	ActivityCSD     ActivityType = "CSD"
	ActivityCSW     ActivityType = "CSW"
	ActivityDiv     ActivityType = "DIV"
	ActivityDivCGL  ActivityType = "DIVCGL"
	ActivityDivCGS  ActivityType = "DIVCGS"
	ActivityDivFee  ActivityType = "DIVFEE"
	ActivityDivFT   ActivityType = "DIVFT"
	ActivityDivNRA  ActivityType = "DIVNRA"
	ActivityDivROC  ActivityType = "DIVROC"
	ActivityDivTW   ActivityType = "DIVTW"
	ActivityDivTXEX ActivityType = "DIVTXEX"
	ActivityFee     ActivityType = "FEE"
	ActivityInt     ActivityType = "INT"
	ActivityIntNRA  ActivityType = "INTNRA"
	ActivityIntTW   ActivityType = "INTTW"
	ActivityJNL     ActivityType = "JNL"
	ActivityJNLC    ActivityType = "JNLC"
	ActivityJNLS    ActivityType = "JNLS"
	ActivityMA      ActivityType = "MA"
	ActivityNC      ActivityType = "NC"
	ActivityOPASN   ActivityType = "OPASN"
	ActivityOPCA    ActivityType = "OPCA"
	ActivityOPCSH   ActivityType = "OPCSH"
	ActivityOPEXC   ActivityType = "OPEXC"
	ActivityOPEXP   ActivityType = "OPEXP"
	ActivityOPTRD   ActivityType = "OPTRD"
	ActivityPTC     ActivityType = "PTC"
	ActivityPTR     ActivityType = "PTR"
	ActivityReorg   ActivityType = "REORG"
	ActivitySpin    ActivityType = "SPIN"
	ActivitySplit   ActivityType = "SPLIT"
)

// AccountActivity 账户活动：成交类（FILL）或非成交类
// 不适用于该类型的字段保持零值
type AccountActivity struct {
	ID           string       `json:"id"`
	ActivityType ActivityType `json:"activity_type"`

	// 成交类
	TransactionTime time.Time           `json:"transaction_time"`
	Type            string              `json:"type"`
	Price           decimal.NullDecimal `json:"price"`
	Qty             decimal.NullDecimal `json:"qty"`
	Side            Side                `json:"side"`
	Symbol          string              `json:"symbol"`
	LeavesQty       decimal.NullDecimal `json:"leaves_qty"`
	CumQty          decimal.NullDecimal `json:"cum_qty"`
	OrderID         string              `json:"order_id"`
	OrderStatus     OrderStatus         `json:"order_status"`

	// 非成交类
	ActivitySubType string              `json:"activity_sub_type"`
	Date            string              `json:"date"`
	NetAmount       decimal.NullDecimal `json:"net_amount"`
	PerShareAmount  decimal.NullDecimal `json:"per_share_amount"`
	Cusip           string              `json:"cusip"`
	GroupID         string              `json:"group_id"`
	Status          string              `json:"status"`
	Description     string              `json:"description"`
	CreatedAt       time.Time           `json:"created_at"`
}

func (a AccountActivity) IsTrade() bool {
	return a.ActivityType == ActivityFill
}

// ActivitiesRequest GET /v2/account/activities 的过滤条件
// Date 与 Until/After 互斥，由服务端校验
type ActivitiesRequest struct {
	ActivityTypes []ActivityType
	Category      string // trade_activity | non_trade_activity
	Date          time.Time
	Until         time.Time
	After         time.Time
	Direction     SortDirection
	PageSize      int
	PageToken     string
}

func (r ActivitiesRequest) query(withTypes bool) query {
	q := query{}
	if withTypes && len(r.ActivityTypes) > 0 {
		types := make([]string, len(r.ActivityTypes))
		for i, t := range r.ActivityTypes {
			types[i] = string(t)
		}
		q.list("activity_types", types)
	}
	if withTypes {
		q.str("category", r.Category)
	}
	q.date("date", r.Date)
	q.ts("until", r.Until)
	q.ts("after", r.After)
	q.str("direction", string(r.Direction))
	q.num("page_size", r.PageSize)
	q.str("page_token", r.PageToken)
	return q
}

func (c *Client) GetAccountActivities(ctx context.Context, req ActivitiesRequest) ([]AccountActivity, error) {
	var out []AccountActivity
	q := req.query(true)
	if err := c.get(ctx, tradingAPI, "/v2/account/activities", q.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAccountActivitiesByType 按单一类型查询活动，忽略 req 中的 ActivityTypes 和 Category
func (c *Client) GetAccountActivitiesByType(ctx context.Context, activityType ActivityType, req ActivitiesRequest) ([]AccountActivity, error) {
	if activityType == "" {
		return nil, invalid("activity_type", "is required")
	}
	var out []AccountActivity
	q := req.query(false)
	path := "/v2/account/activities/" + pathEscape(string(activityType))
	if err := c.get(ctx, tradingAPI, path, q.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}
