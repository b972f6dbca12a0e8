package alpaca

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Watchlist 自选列表，列表接口返回时 Assets 为空
type Watchlist struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Assets    []Asset   `json:"assets,omitempty"`
}

// Symbols 按顺序返回资产的 symbol
func (w Watchlist) Symbols() []string {
	out := make([]string, 0, len(w.Assets))
	for _, a := range w.Assets {
		out = append(out, a.Symbol)
	}
	return out
}

// WatchlistRequest 创建、更新自选列表的请求体
type WatchlistRequest struct {
	Name    string   `json:"name"`
	Symbols []string `json:"symbols,omitempty"`
}

func (r WatchlistRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("name", "is required")
	}
	return nil
}

type addSymbolRequest struct {
	Symbol string `json:"symbol"`
}

const watchlistByNamePath = "/v2/watchlists:by_name"

func watchlistPath(id uuid.UUID) string {
	return "/v2/watchlists/" + id.String()
}

func byName(name string) (url.Values, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalid("name", "is required")
	}
	return url.Values{"name": []string{name}}, nil
}

func (c *Client) ListWatchlists(ctx context.Context) ([]Watchlist, error) {
	var lists []Watchlist
	if err := c.get(ctx, tradingAPI, "/v2/watchlists", nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (c *Client) CreateWatchlist(ctx context.Context, req WatchlistRequest) (*Watchlist, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var list Watchlist
	if err := c.send(ctx, tradingAPI, http.MethodPost, "/v2/watchlists", nil, req, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) GetWatchlist(ctx context.Context, id uuid.UUID) (*Watchlist, error) {
	var list Watchlist
	if err := c.get(ctx, tradingAPI, watchlistPath(id), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UpdateWatchlist 替换名称和 symbol 列表
func (c *Client) UpdateWatchlist(ctx context.Context, id uuid.UUID, req WatchlistRequest) (*Watchlist, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var list Watchlist
	if err := c.send(ctx, tradingAPI, http.MethodPut, watchlistPath(id), nil, req, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) AddAssetToWatchlist(ctx context.Context, id uuid.UUID, symbol string) (*Watchlist, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, invalid("symbol", "is required")
	}
	var list Watchlist
	if err := c.send(ctx, tradingAPI, http.MethodPost, watchlistPath(id), nil, addSymbolRequest{Symbol: symbol}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// RemoveSymbolFromWatchlist 移除 symbol，返回更新后的列表
func (c *Client) RemoveSymbolFromWatchlist(ctx context.Context, id uuid.UUID, symbol string) (*Watchlist, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, invalid("symbol", "is required")
	}
	var list Watchlist
	if err := c.send(ctx, tradingAPI, http.MethodDelete, watchlistPath(id)+"/"+pathEscape(symbol), nil, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) DeleteWatchlist(ctx context.Context, id uuid.UUID) error {
	return c.send(ctx, tradingAPI, http.MethodDelete, watchlistPath(id), nil, nil, nil)
}

func (c *Client) GetWatchlistByName(ctx context.Context, name string) (*Watchlist, error) {
	q, err := byName(name)
	if err != nil {
		return nil, err
	}
	var list Watchlist
	if err := c.get(ctx, tradingAPI, watchlistByNamePath, q, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) UpdateWatchlistByName(ctx context.Context, name string, req WatchlistRequest) (*Watchlist, error) {
	q, err := byName(name)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var list Watchlist
	if err := c.send(ctx, tradingAPI, http.MethodPut, watchlistByNamePath, q, req, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) AddAssetToWatchlistByName(ctx context.Context, name, symbol string) (*Watchlist, error) {
	q, err := byName(name)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(symbol) == "" {
		return nil, invalid("symbol", "is required")
	}
	var list Watchlist
	if err := c.send(ctx, tradingAPI, http.MethodPost, watchlistByNamePath, q, addSymbolRequest{Symbol: symbol}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) DeleteWatchlistByName(ctx context.Context, name string) error {
	q, err := byName(name)
	if err != nil {
		return err
	}
	return c.send(ctx, tradingAPI, http.MethodDelete, watchlistByNamePath, q, nil, nil)
}

// DeleteAllWatchlists 删除所有自选列表，单个失败不中断，失败项合并返回
func (c *Client) DeleteAllWatchlists(ctx context.Context) error {
	lists, err := c.ListWatchlists(ctx)
	if err != nil {
		return err
	}
	var merr *multierror.Error
	for _, list := range lists {
		if err := c.DeleteWatchlist(ctx, list.ID); err != nil {
			merr = multierror.Append(merr, errors.WithMessagef(err, "delete watchlist %s", list.Name))
		}
	}
	return merr.ErrorOrNil()
}
