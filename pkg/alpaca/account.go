package alpaca

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account 账户信息（GET /v2/account）
type Account struct {
	ID                       uuid.UUID       `json:"id"`
	AccountNumber            string          `json:"account_number"`
	Status                   string          `json:"status"`
	CryptoStatus             string          `json:"crypto_status"`
	CryptoTier               int             `json:"crypto_tier"`
	Currency                 string          `json:"currency"`
	BuyingPower              decimal.Decimal `json:"buying_power"`
	RegTBuyingPower          decimal.Decimal `json:"regt_buying_power"`
	DaytradingBuyingPower    decimal.Decimal `json:"daytrading_buying_power"`
	EffectiveBuyingPower     decimal.Decimal `json:"effective_buying_power"`
	NonMarginableBuyingPower decimal.Decimal `json:"non_marginable_buying_power"`
	OptionsBuyingPower       decimal.Decimal `json:"options_buying_power"`
	BodDTBP                  decimal.Decimal `json:"bod_dtbp"`
	Cash                     decimal.Decimal `json:"cash"`
	AccruedFees              decimal.Decimal `json:"accrued_fees"`
	PendingRegTAFFees        decimal.Decimal `json:"pending_reg_taf_fees"`
	PortfolioValue           decimal.Decimal `json:"portfolio_value"`
	PatternDayTrader         bool            `json:"pattern_day_trader"`
	TradingBlocked           bool            `json:"trading_blocked"`
	TransfersBlocked         bool            `json:"transfers_blocked"`
	AccountBlocked           bool            `json:"account_blocked"`
	ShortingEnabled          bool            `json:"shorting_enabled"`
	TradeSuspendedByUser     bool            `json:"trade_suspended_by_user"`
	CreatedAt                time.Time       `json:"created_at"`
	Multiplier               decimal.Decimal `json:"multiplier"`
	Equity                   decimal.Decimal `json:"equity"`
	LastEquity               decimal.Decimal `json:"last_equity"`
	LongMarketValue          decimal.Decimal `json:"long_market_value"`
	ShortMarketValue         decimal.Decimal `json:"short_market_value"`
	PositionMarketValue      decimal.Decimal `json:"position_market_value"`
	InitialMargin            decimal.Decimal `json:"initial_margin"`
	MaintenanceMargin        decimal.Decimal `json:"maintenance_margin"`
	LastMaintenanceMargin    decimal.Decimal `json:"last_maintenance_margin"`
	IntradayAdjustments      decimal.Decimal `json:"intraday_adjustments"`
	SMA                      decimal.Decimal `json:"sma"`
	DaytradeCount            int             `json:"daytrade_count"`
	BalanceAsOf              string          `json:"balance_asof"`
	OptionsApprovedLevel     int             `json:"options_approved_level"`
	OptionsTradingLevel      int             `json:"options_trading_level"`
	AdminConfigurations      json.RawMessage `json:"admin_configurations,omitempty"`
	UserConfigurations       json.RawMessage `json:"user_configurations,omitempty"`
}

// AccountConfigurations 账户交易配置
type AccountConfigurations struct {
	DTBPCheck              string          `json:"dtbp_check"`
	TradeConfirmEmail      string          `json:"trade_confirm_email"`
	SuspendTrade           bool            `json:"suspend_trade"`
	NoShorting             bool            `json:"no_shorting"`
	FractionalTrading      bool            `json:"fractional_trading"`
	MaxMarginMultiplier    decimal.Decimal `json:"max_margin_multiplier"`
	MaxOptionsTradingLevel *int            `json:"max_options_trading_level"`
	PDTCheck               string          `json:"pdt_check"`
	PTPNoExceptionEntry    bool            `json:"ptp_no_exception_entry"`
}

// AccountConfigurationsUpdate 部分更新，nil 字段保持不变
type AccountConfigurationsUpdate struct {
	DTBPCheck              *string          `json:"dtbp_check,omitempty"`
	TradeConfirmEmail      *string          `json:"trade_confirm_email,omitempty"`
	SuspendTrade           *bool            `json:"suspend_trade,omitempty"`
	NoShorting             *bool            `json:"no_shorting,omitempty"`
	FractionalTrading      *bool            `json:"fractional_trading,omitempty"`
	MaxMarginMultiplier    *decimal.Decimal `json:"max_margin_multiplier,omitempty"`
	MaxOptionsTradingLevel *int             `json:"max_options_trading_level,omitempty"`
	PDTCheck               *string          `json:"pdt_check,omitempty"`
	PTPNoExceptionEntry    *bool            `json:"ptp_no_exception_entry,omitempty"`
}

func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	var account Account
	if err := c.get(ctx, tradingAPI, "/v2/account", nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *Client) GetAccountConfigurations(ctx context.Context) (*AccountConfigurations, error) {
	var cfg AccountConfigurations
	if err := c.get(ctx, tradingAPI, "/v2/account/configurations", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpdateAccountConfigurations 修改账户配置（PATCH），返回更新后的配置
func (c *Client) UpdateAccountConfigurations(ctx context.Context, update AccountConfigurationsUpdate) (*AccountConfigurations, error) {
	var cfg AccountConfigurations
	if err := c.send(ctx, tradingAPI, http.MethodPatch, "/v2/account/configurations", nil, update, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
