package alpaca

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CryptoWallet 某个币种的充值钱包
type CryptoWallet struct {
	Chain     string    `json:"chain"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// CryptoTransfer 充值或提现记录
type CryptoTransfer struct {
	ID          uuid.UUID           `json:"id"`
	TxHash      string              `json:"tx_hash"`
	Direction   string              `json:"direction"` // INCOMING | OUTGOING
	Status      string              `json:"status"`
	Amount      decimal.Decimal     `json:"amount"`
	USDValue    decimal.NullDecimal `json:"usd_value"`
	NetworkFee  decimal.NullDecimal `json:"network_fee"`
	Fees        decimal.NullDecimal `json:"fees"`
	Chain       string              `json:"chain"`
	Asset       string              `json:"asset"`
	FromAddress string              `json:"from_address"`
	ToAddress   string              `json:"to_address"`
	CreatedAt   time.Time           `json:"created_at"`
}

// WithdrawalRequest POST /v2/wallets/transfers 请求体
type WithdrawalRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Address string          `json:"address"`
	Asset   string          `json:"asset"`
}

func (r WithdrawalRequest) Validate() error {
	if r.Amount.Sign() <= 0 {
		return invalid("amount", "must be positive")
	}
	if strings.TrimSpace(r.Address) == "" {
		return invalid("address", "is required")
	}
	if strings.TrimSpace(r.Asset) == "" {
		return invalid("asset", "is required")
	}
	return nil
}

type WhitelistedAddress struct {
	ID        string    `json:"id"`
	Chain     string    `json:"chain"`
	Asset     string    `json:"asset"`
	Address   string    `json:"address"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type WhitelistRequest struct {
	Address string `json:"address"`
	Asset   string `json:"asset"`
}

func (r WhitelistRequest) Validate() error {
	if strings.TrimSpace(r.Address) == "" {
		return invalid("address", "is required")
	}
	if strings.TrimSpace(r.Asset) == "" {
		return invalid("asset", "is required")
	}
	return nil
}

// GasFeeRequest 待估算手续费的转账
type GasFeeRequest struct {
	Asset       string
	FromAddress string
	ToAddress   string
	Amount      decimal.Decimal
}

type GasFeeEstimate struct {
	Fee decimal.Decimal `json:"fee"`
}

func (c *Client) GetCryptoWallet(ctx context.Context, asset string) (*CryptoWallet, error) {
	if strings.TrimSpace(asset) == "" {
		return nil, invalid("asset", "is required")
	}
	q := query{}
	q.str("asset", asset)
	var wallet CryptoWallet
	if err := c.get(ctx, tradingAPI, "/v2/wallets", q.values(), &wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (c *Client) ListCryptoTransfers(ctx context.Context) ([]CryptoTransfer, error) {
	var transfers []CryptoTransfer
	if err := c.get(ctx, tradingAPI, "/v2/wallets/transfers", nil, &transfers); err != nil {
		return nil, err
	}
	return transfers, nil
}

func (c *Client) GetCryptoTransfer(ctx context.Context, id uuid.UUID) (*CryptoTransfer, error) {
	var transfer CryptoTransfer
	if err := c.get(ctx, tradingAPI, "/v2/wallets/transfers/"+id.String(), nil, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (c *Client) RequestCryptoWithdrawal(ctx context.Context, req WithdrawalRequest) (*CryptoTransfer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var transfer CryptoTransfer
	if err := c.send(ctx, tradingAPI, http.MethodPost, "/v2/wallets/transfers", nil, req, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (c *Client) ListWhitelistedAddresses(ctx context.Context) ([]WhitelistedAddress, error) {
	var addrs []WhitelistedAddress
	if err := c.get(ctx, tradingAPI, "/v2/wallets/whitelists", nil, &addrs); err != nil {
		return nil, err
	}
	return addrs, nil
}

func (c *Client) AddWhitelistedAddress(ctx context.Context, req WhitelistRequest) (*WhitelistedAddress, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var addr WhitelistedAddress
	if err := c.send(ctx, tradingAPI, http.MethodPost, "/v2/wallets/whitelists", nil, req, &addr); err != nil {
		return nil, err
	}
	return &addr, nil
}

func (c *Client) DeleteWhitelistedAddress(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("id", "is required")
	}
	return c.send(ctx, tradingAPI, http.MethodDelete, "/v2/wallets/whitelists/"+pathEscape(id), nil, nil, nil)
}

func (c *Client) EstimateGasFee(ctx context.Context, req GasFeeRequest) (*GasFeeEstimate, error) {
	switch {
	case strings.TrimSpace(req.Asset) == "":
		return nil, invalid("asset", "is required")
	case strings.TrimSpace(req.FromAddress) == "":
		return nil, invalid("from_address", "is required")
	case strings.TrimSpace(req.ToAddress) == "":
		return nil, invalid("to_address", "is required")
	}
	q := query{}
	q.str("asset", req.Asset)
	q.str("from_address", req.FromAddress)
	q.str("to_address", req.ToAddress)
	q.dec("amount", &req.Amount)

	var fee GasFeeEstimate
	if err := c.get(ctx, tradingAPI, "/v2/wallets/fees/estimate", q.values(), &fee); err != nil {
		return nil, err
	}
	return &fee, nil
}
