package alpaca

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Feed 行情数据源
type Feed string

const (
	FeedSIP Feed = "sip"
	FeedIEX Feed = "iex"
	FeedOTC Feed = "otc"
)

// TimeFrame K 线周期，例如 "1Min"、"15Min"、"1Hour"、"1Day"
type TimeFrame string

const (
	TimeFrameMinute TimeFrame = "1Min"
	TimeFrameHour   TimeFrame = "1Hour"
	TimeFrameDay    TimeFrame = "1Day"
	TimeFrameWeek   TimeFrame = "1Week"
	TimeFrameMonth  TimeFrame = "1Month"
)

// Bar 一根 K 线（OHLCV）
type Bar struct {
	Timestamp  time.Time `json:"t"`
	Open       float64   `json:"o"`
	High       float64   `json:"h"`
	Low        float64   `json:"l"`
	Close      float64   `json:"c"`
	Volume     uint64    `json:"v"`
	TradeCount uint64    `json:"n"`
	VWAP       float64   `json:"vw"`
}

type Quote struct {
	Timestamp   time.Time `json:"t"`
	BidExchange string    `json:"bx"`
	BidPrice    float64   `json:"bp"`
	BidSize     uint32    `json:"bs"`
	AskExchange string    `json:"ax"`
	AskPrice    float64   `json:"ap"`
	AskSize     uint32    `json:"as"`
	Conditions  []string  `json:"c"`
	Tape        string    `json:"z"`
}

type Trade struct {
	Timestamp  time.Time `json:"t"`
	Exchange   string    `json:"x"`
	Price      float64   `json:"p"`
	Size       uint32    `json:"s"`
	ID         int64     `json:"i"`
	Conditions []string  `json:"c"`
	Tape       string    `json:"z"`
	Update     string    `json:"u,omitempty"`
}

// HistoricalRequest 历史 K 线、报价、成交、集合竞价共用的请求参数，Symbols 必填
type HistoricalRequest struct {
	Symbols   []string
	Start     time.Time
	End       time.Time
	Limit     int
	AsOf      string
	Feed      Feed
	Currency  string
	PageToken string
	Sort      SortDirection
}

func (r HistoricalRequest) Validate() error {
	if err := validateSymbols(r.Symbols); err != nil {
		return err
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return invalid("end", "is before start")
	}
	if r.Limit < 0 {
		return invalid("limit", "must not be negative")
	}
	return nil
}

func (r HistoricalRequest) query() query {
	q := query{}
	q.list("symbols", r.Symbols)
	q.ts("start", r.Start)
	q.ts("end", r.End)
	q.num("limit", r.Limit)
	q.str("asof", r.AsOf)
	q.str("feed", string(r.Feed))
	q.str("currency", r.Currency)
	q.str("page_token", r.PageToken)
	q.str("sort", string(r.Sort))
	return q
}

// BarsRequest 历史 K 线请求
type BarsRequest struct {
	HistoricalRequest
	TimeFrame  TimeFrame
	Adjustment string // raw | split | dividend | all
}

func (r BarsRequest) Validate() error {
	if err := r.HistoricalRequest.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(string(r.TimeFrame)) == "" {
		return invalid("timeframe", "is required")
	}
	return nil
}

// LatestRequest 最新行情及快照接口共用的请求参数
type LatestRequest struct {
	Symbols  []string
	Feed     Feed
	Currency string
}

func (r LatestRequest) Validate() error {
	return validateSymbols(r.Symbols)
}

func (r LatestRequest) query() query {
	q := query{}
	q.list("symbols", r.Symbols)
	q.str("feed", string(r.Feed))
	q.str("currency", r.Currency)
	return q
}

func validateSymbols(symbols []string) error {
	if len(symbols) == 0 {
		return invalid("symbols", "at least one symbol is required")
	}
	for _, s := range symbols {
		if strings.TrimSpace(s) == "" {
			return invalid("symbols", "must not contain empty symbols")
		}
	}
	return nil
}

// BarsResponse symbol -> 按时间排序的 K 线
type BarsResponse struct {
	Bars          map[string][]Bar `json:"bars"`
	NextPageToken string           `json:"next_page_token"`
	Currency      string           `json:"currency,omitempty"`
}

// Symbols 返回排序后的 symbol 列表
func (r BarsResponse) Symbols() []string {
	return sortedKeys(r.Bars)
}

func (r BarsResponse) For(symbol string) []Bar {
	return r.Bars[symbol]
}

func (r BarsResponse) First(symbol string) (Bar, bool) {
	bars := r.Bars[symbol]
	if len(bars) == 0 {
		return Bar{}, false
	}
	return bars[0], true
}

func (r BarsResponse) Last(symbol string) (Bar, bool) {
	bars := r.Bars[symbol]
	if len(bars) == 0 {
		return Bar{}, false
	}
	return bars[len(bars)-1], true
}

// Len 所有 symbol 的 K 线总数
func (r BarsResponse) Len() int {
	n := 0
	for _, bars := range r.Bars {
		n += len(bars)
	}
	return n
}

// Closes 收盘价序列
func (r BarsResponse) Closes(symbol string) []float64 {
	return barSeries(r.Bars[symbol], func(b Bar) float64 { return b.Close })
}

func (r BarsResponse) Opens(symbol string) []float64 {
	return barSeries(r.Bars[symbol], func(b Bar) float64 { return b.Open })
}

func (r BarsResponse) Highs(symbol string) []float64 {
	return barSeries(r.Bars[symbol], func(b Bar) float64 { return b.High })
}

func (r BarsResponse) Lows(symbol string) []float64 {
	return barSeries(r.Bars[symbol], func(b Bar) float64 { return b.Low })
}

func (r BarsResponse) Volumes(symbol string) []uint64 {
	return barSeries(r.Bars[symbol], func(b Bar) uint64 { return b.Volume })
}

func (r BarsResponse) TradeCounts(symbol string) []uint64 {
	return barSeries(r.Bars[symbol], func(b Bar) uint64 { return b.TradeCount })
}

func (r BarsResponse) VWAPs(symbol string) []float64 {
	return barSeries(r.Bars[symbol], func(b Bar) float64 { return b.VWAP })
}

// AvgClose 平均收盘价，无数据时 ok 为 false
func (r BarsResponse) AvgClose(symbol string) (float64, bool) {
	bars := r.Bars[symbol]
	if len(bars) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, b := range bars {
		sum += b.Close
	}
	return sum / float64(len(bars)), true
}

// MaxHigh 最高价
func (r BarsResponse) MaxHigh(symbol string) (float64, bool) {
	bars := r.Bars[symbol]
	if len(bars) == 0 {
		return 0, false
	}
	high := bars[0].High
	for _, b := range bars[1:] {
		high = max(high, b.High)
	}
	return high, true
}

// MinLow 最低价
func (r BarsResponse) MinLow(symbol string) (float64, bool) {
	bars := r.Bars[symbol]
	if len(bars) == 0 {
		return 0, false
	}
	low := bars[0].Low
	for _, b := range bars[1:] {
		low = min(low, b.Low)
	}
	return low, true
}

// TotalVolume 成交量合计，symbol 不存在时为 0
func (r BarsResponse) TotalVolume(symbol string) uint64 {
	var total uint64
	for _, b := range r.Bars[symbol] {
		total += b.Volume
	}
	return total
}

// MaxHighAll 所有 symbol 中的最高价及其 symbol；相同价格取排序靠前的 symbol
func (r BarsResponse) MaxHighAll() (string, float64, bool) {
	var (
		symbol string
		high   float64
		found  bool
	)
	for _, sym := range r.Symbols() {
		if h, ok := r.MaxHigh(sym); ok && (!found || h > high) {
			symbol, high, found = sym, h, true
		}
	}
	return symbol, high, found
}

// MinLowAll 所有 symbol 中的最低价及其 symbol
func (r BarsResponse) MinLowAll() (string, float64, bool) {
	var (
		symbol string
		low    float64
		found  bool
	)
	for _, sym := range r.Symbols() {
		if l, ok := r.MinLow(sym); ok && (!found || l < low) {
			symbol, low, found = sym, l, true
		}
	}
	return symbol, low, found
}

// TotalVolumeAll 所有 symbol 的成交量合计
func (r BarsResponse) TotalVolumeAll() uint64 {
	var total uint64
	for sym := range r.Bars {
		total += r.TotalVolume(sym)
	}
	return total
}

func barSeries[T any](bars []Bar, field func(Bar) T) []T {
	out := make([]T, len(bars))
	for i, b := range bars {
		out[i] = field(b)
	}
	return out
}

type LatestBarsResponse struct {
	Bars     map[string]Bar `json:"bars"`
	Currency string         `json:"currency,omitempty"`
}

type QuotesResponse struct {
	Quotes        map[string][]Quote `json:"quotes"`
	NextPageToken string             `json:"next_page_token"`
	Currency      string             `json:"currency,omitempty"`
}

func (r QuotesResponse) HasSymbol(symbol string) bool {
	_, ok := r.Quotes[symbol]
	return ok
}

// Last 最近一条报价
func (r QuotesResponse) Last(symbol string) (Quote, bool) {
	quotes := r.Quotes[symbol]
	if len(quotes) == 0 {
		return Quote{}, false
	}
	return quotes[len(quotes)-1], true
}

func (r QuotesResponse) BidPrices(symbol string) []float64 {
	quotes := r.Quotes[symbol]
	out := make([]float64, len(quotes))
	for i, q := range quotes {
		out[i] = q.BidPrice
	}
	return out
}

func (r QuotesResponse) AskPrices(symbol string) []float64 {
	quotes := r.Quotes[symbol]
	out := make([]float64, len(quotes))
	for i, q := range quotes {
		out[i] = q.AskPrice
	}
	return out
}

type LatestQuotesResponse struct {
	Quotes   map[string]Quote `json:"quotes"`
	Currency string           `json:"currency,omitempty"`
}

func (r LatestQuotesResponse) HasSymbol(symbol string) bool {
	_, ok := r.Quotes[symbol]
	return ok
}

type TradesResponse struct {
	Trades        map[string][]Trade `json:"trades"`
	NextPageToken string             `json:"next_page_token"`
	Currency      string             `json:"currency,omitempty"`
}

// Len 所有 symbol 的成交总数
func (r TradesResponse) Len() int {
	n := 0
	for _, trades := range r.Trades {
		n += len(trades)
	}
	return n
}

func (r TradesResponse) First(symbol string) (Trade, bool) {
	trades := r.Trades[symbol]
	if len(trades) == 0 {
		return Trade{}, false
	}
	return trades[0], true
}

func (r TradesResponse) Last(symbol string) (Trade, bool) {
	trades := r.Trades[symbol]
	if len(trades) == 0 {
		return Trade{}, false
	}
	return trades[len(trades)-1], true
}

// CountsBySymbol 每个 symbol 的成交笔数
func (r TradesResponse) CountsBySymbol() map[string]int {
	out := make(map[string]int, len(r.Trades))
	for sym, trades := range r.Trades {
		out[sym] = len(trades)
	}
	return out
}

type LatestTradesResponse struct {
	Trades   map[string]Trade `json:"trades"`
	Currency string           `json:"currency,omitempty"`
}

// Snapshot 单个 symbol 的行情快照，成交稀少的 symbol 可能缺少部分字段
type Snapshot struct {
	LatestTrade  *Trade `json:"latestTrade"`
	LatestQuote  *Quote `json:"latestQuote"`
	MinuteBar    *Bar   `json:"minuteBar"`
	DailyBar     *Bar   `json:"dailyBar"`
	PrevDailyBar *Bar   `json:"prevDailyBar"`
}

// LatestPrice 最新成交价
func (s Snapshot) LatestPrice() (float64, bool) {
	if s.LatestTrade == nil {
		return 0, false
	}
	return s.LatestTrade.Price, true
}

// Spread 最新报价的买卖价差
func (s Snapshot) Spread() (float64, bool) {
	if s.LatestQuote == nil {
		return 0, false
	}
	return s.LatestQuote.AskPrice - s.LatestQuote.BidPrice, true
}

// IsAbovePrevClose 当日收盘价（截至目前）是否高于前一日收盘价
func (s Snapshot) IsAbovePrevClose() bool {
	if s.DailyBar == nil || s.PrevDailyBar == nil {
		return false
	}
	return s.DailyBar.Close > s.PrevDailyBar.Close
}

// DailyOHLC 当日 K 线的开高低收，缺少当日 K 线时 ok 为 false
func (s Snapshot) DailyOHLC() (o, h, l, c float64, ok bool) {
	if s.DailyBar == nil {
		return 0, 0, 0, 0, false
	}
	b := s.DailyBar
	return b.Open, b.High, b.Low, b.Close, true
}

type AuctionPrint struct {
	Timestamp time.Time `json:"t"`
	Exchange  string    `json:"x"`
	Price     float64   `json:"p"`
	Size      int64     `json:"s"`
	Condition string    `json:"c"`
}

// AuctionDay 一天的开盘、收盘集合竞价
type AuctionDay struct {
	Date    string         `json:"d"`
	Opening []AuctionPrint `json:"o"`
	Closing []AuctionPrint `json:"c"`
}

type AuctionsResponse struct {
	Auctions      map[string][]AuctionDay `json:"auctions"`
	NextPageToken string                  `json:"next_page_token"`
	Currency      string                  `json:"currency,omitempty"`
}

// Latest 最近一天的集合竞价
func (r AuctionsResponse) Latest(symbol string) (AuctionDay, bool) {
	days := r.Auctions[symbol]
	if len(days) == 0 {
		return AuctionDay{}, false
	}
	return days[len(days)-1], true
}

func (r AuctionsResponse) HasSymbol(symbol string) bool {
	_, ok := r.Auctions[symbol]
	return ok
}

// OpeningPrices 按时间顺序列出所有开盘集合竞价价格
func (r AuctionsResponse) OpeningPrices(symbol string) []float64 {
	var out []float64
	for _, day := range r.Auctions[symbol] {
		for _, p := range day.Opening {
			out = append(out, p.Price)
		}
	}
	return out
}

// ClosingPrices 按时间顺序列出所有收盘集合竞价价格
func (r AuctionsResponse) ClosingPrices(symbol string) []float64 {
	var out []float64
	for _, day := range r.Auctions[symbol] {
		for _, p := range day.Closing {
			out = append(out, p.Price)
		}
	}
	return out
}

// CodeTable 单字符代码 -> 说明
type CodeTable map[string]string

func (t CodeTable) Describe(code string) (string, bool) {
	desc, ok := t[code]
	return desc, ok
}

// TickType 条件代码表类型
type TickType string

const (
	TickTrade TickType = "trade"
	TickQuote TickType = "quote"
)

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Client) GetBars(ctx context.Context, req BarsRequest) (*BarsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	q := req.HistoricalRequest.query()
	q.str("timeframe", string(req.TimeFrame))
	q.str("adjustment", req.Adjustment)

	var resp BarsResponse
	if err := c.get(ctx, dataAPI, "/v2/stocks/bars", q.values(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetLatestBars(ctx context.Context, req LatestRequest) (*LatestBarsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp LatestBarsResponse
	if err := c.get(ctx, dataAPI, "/v2/stocks/bars/latest", req.query().values(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetQuotes(ctx context.Context, req HistoricalRequest) (*QuotesResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp QuotesResponse
	if err := c.get(ctx, dataAPI, "/v2/stocks/quotes", req.query().values(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetLatestQuotes(ctx context.Context, req LatestRequest) (*LatestQuotesResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp LatestQuotesResponse
	if err := c.get(ctx, dataAPI, "/v2/stocks/quotes/latest", req.query().values(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetTrades(ctx context.Context, req HistoricalRequest) (*TradesResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp TradesResponse
	if err := c.get(ctx, dataAPI, "/v2/stocks/trades", req.query().values(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetLatestTrades(ctx context.Context, req LatestRequest) (*LatestTradesResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp LatestTradesResponse
	if err := c.get(ctx, dataAPI, "/v2/stocks/trades/latest", req.query().values(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSnapshots 每个 symbol 返回一个快照
func (c *Client) GetSnapshots(ctx context.Context, req LatestRequest) (map[string]Snapshot, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp map[string]Snapshot
	if err := c.get(ctx, dataAPI, "/v2/stocks/snapshots", req.query().values(), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetAuctions(ctx context.Context, req HistoricalRequest) (*AuctionsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp AuctionsResponse
	if err := c.get(ctx, dataAPI, "/v2/stocks/auctions", req.query().values(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetConditionCodes 查询条件代码表，tape 为 A、B 或 C
func (c *Client) GetConditionCodes(ctx context.Context, tickType TickType, tape string) (CodeTable, error) {
	if tickType != TickTrade && tickType != TickQuote {
		return nil, invalid("ticktype", "must be trade or quote")
	}
	if strings.TrimSpace(tape) == "" {
		return nil, invalid("tape", "is required")
	}
	q := query{}
	q.str("tape", tape)
	var table CodeTable
	if err := c.get(ctx, dataAPI, "/v2/stocks/meta/conditions/"+string(tickType), q.values(), &table); err != nil {
		return nil, err
	}
	return table, nil
}

func (c *Client) GetExchangeCodes(ctx context.Context) (CodeTable, error) {
	var table CodeTable
	if err := c.get(ctx, dataAPI, "/v2/stocks/meta/exchanges", nil, &table); err != nil {
		return nil, err
	}
	return table, nil
}
