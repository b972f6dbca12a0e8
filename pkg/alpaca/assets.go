package alpaca

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Asset 可交易资产
type Asset struct {
	ID                           uuid.UUID       `json:"id"`
	Class                        string          `json:"class"`
	Exchange                     string          `json:"exchange"`
	Symbol                       string          `json:"symbol"`
	Name                         string          `json:"name"`
	Status                       string          `json:"status"`
	Tradable                     bool            `json:"tradable"`
	Marginable                   bool            `json:"marginable"`
	Shortable                    bool            `json:"shortable"`
	EasyToBorrow                 bool            `json:"easy_to_borrow"`
	Fractionable                 bool            `json:"fractionable"`
	MaintenanceMarginRequirement decimal.Decimal `json:"maintenance_margin_requirement"`
	MarginRequirementLong        decimal.Decimal `json:"margin_requirement_long"`
	MarginRequirementShort       decimal.Decimal `json:"margin_requirement_short"`
	Attributes                   []string        `json:"attributes"`
}

// HasAttribute 判断资产是否带有某属性，例如 "has_options"
func (a Asset) HasAttribute(attr string) bool {
	for _, v := range a.Attributes {
		if v == attr {
			return true
		}
	}
	return false
}

// ListAssetsRequest GET /v2/assets 的过滤条件
type ListAssetsRequest struct {
	Status     string // active | inactive
	AssetClass string // us_equity | us_option | crypto
	Exchange   string
	Attributes []string
}

// OptionContract 期权合约。Deliverables 仅在请求时返回
type OptionContract struct {
	ID                uuid.UUID           `json:"id"`
	Symbol            string              `json:"symbol"`
	Name              string              `json:"name"`
	Status            string              `json:"status"`
	Tradable          bool                `json:"tradable"`
	ExpirationDate    string              `json:"expiration_date"`
	RootSymbol        string              `json:"root_symbol"`
	UnderlyingSymbol  string              `json:"underlying_symbol"`
	UnderlyingAssetID uuid.UUID           `json:"underlying_asset_id"`
	Type              string              `json:"type"`
	Style             string              `json:"style"`
	StrikePrice       decimal.Decimal     `json:"strike_price"`
	Multiplier        decimal.Decimal     `json:"multiplier"`
	Size              decimal.Decimal     `json:"size"`
	OpenInterest      decimal.NullDecimal `json:"open_interest"`
	OpenInterestDate  string              `json:"open_interest_date"`
	ClosePrice        decimal.NullDecimal `json:"close_price"`
	ClosePriceDate    string              `json:"close_price_date"`
	PPInd             bool                `json:"ppind"`
	Deliverables      []Deliverable       `json:"deliverables,omitempty"`
}

// Expiration 解析到期日，缺失或无法解析时返回零值
func (o OptionContract) Expiration() time.Time {
	t, err := time.Parse(dateLayout, o.ExpirationDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

type Deliverable struct {
	Type                 string          `json:"type"`
	Symbol               string          `json:"symbol"`
	AssetID              string          `json:"asset_id"`
	Amount               decimal.Decimal `json:"amount"`
	AllocationPercentage decimal.Decimal `json:"allocation_percentage"`
	SettlementType       string          `json:"settlement_type"`
	SettlementMethod     string          `json:"settlement_method"`
	DelayedSettlement    bool            `json:"delayed_settlement"`
}

// OptionContractsRequest GET /v2/options/contracts 的过滤条件
type OptionContractsRequest struct {
	UnderlyingSymbols []string
	Status            string
	ExpirationDate    time.Time
	ExpirationDateGTE time.Time
	ExpirationDateLTE time.Time
	RootSymbol        string
	Type              string // call | put
	Style             string // american | european
	StrikePriceGTE    *decimal.Decimal
	StrikePriceLTE    *decimal.Decimal
	Limit             int
	PageToken         string
	PPInd             *bool
	ShowDeliverables  bool
}

func (r OptionContractsRequest) Validate() error {
	if !r.ExpirationDate.IsZero() && (!r.ExpirationDateGTE.IsZero() || !r.ExpirationDateLTE.IsZero()) {
		return invalid("expiration_date", "cannot be combined with a date range")
	}
	if r.StrikePriceGTE != nil && r.StrikePriceLTE != nil && r.StrikePriceGTE.GreaterThan(*r.StrikePriceLTE) {
		return invalid("strike_price_gte", "is above strike_price_lte")
	}
	if r.Limit < 0 {
		return invalid("limit", "must not be negative")
	}
	return nil
}

// OptionContractsPage 一页合约。翻页由调用方用 NextPageToken 自行发起
type OptionContractsPage struct {
	OptionContracts []OptionContract `json:"option_contracts"`
	NextPageToken   string           `json:"next_page_token"`
}

func (c *Client) ListAssets(ctx context.Context, req ListAssetsRequest) ([]Asset, error) {
	q := query{}
	q.str("status", req.Status)
	q.str("asset_class", req.AssetClass)
	q.str("exchange", req.Exchange)
	q.list("attributes", req.Attributes)

	var assets []Asset
	if err := c.get(ctx, tradingAPI, "/v2/assets", q.values(), &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// GetAsset 查询资产（symbol 或 asset id）
func (c *Client) GetAsset(ctx context.Context, symbolOrAssetID string) (*Asset, error) {
	if strings.TrimSpace(symbolOrAssetID) == "" {
		return nil, invalid("symbol", "is required")
	}
	var asset Asset
	if err := c.get(ctx, tradingAPI, "/v2/assets/"+pathEscape(symbolOrAssetID), nil, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

func (c *Client) ListOptionContracts(ctx context.Context, req OptionContractsRequest) (*OptionContractsPage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	q := query{}
	q.list("underlying_symbols", req.UnderlyingSymbols)
	q.str("status", req.Status)
	q.date("expiration_date", req.ExpirationDate)
	q.date("expiration_date_gte", req.ExpirationDateGTE)
	q.date("expiration_date_lte", req.ExpirationDateLTE)
	q.str("root_symbol", req.RootSymbol)
	q.str("type", req.Type)
	q.str("style", req.Style)
	q.dec("strike_price_gte", req.StrikePriceGTE)
	q.dec("strike_price_lte", req.StrikePriceLTE)
	q.num("limit", req.Limit)
	q.str("page_token", req.PageToken)
	q.boolPtr("ppind", req.PPInd)
	q.flag("show_deliverables", req.ShowDeliverables)

	var page OptionContractsPage
	if err := c.get(ctx, tradingAPI, "/v2/options/contracts", q.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetOptionContract 查询期权合约（合约代码或 id）
func (c *Client) GetOptionContract(ctx context.Context, symbolOrID string) (*OptionContract, error) {
	if strings.TrimSpace(symbolOrID) == "" {
		return nil, invalid("symbol", "is required")
	}
	var contract OptionContract
	if err := c.get(ctx, tradingAPI, "/v2/options/contracts/"+pathEscape(symbolOrID), nil, &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}
