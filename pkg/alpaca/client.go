package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	sdkhttp "github.com/betbot/goalpaca/pkg/sdk/http"
)

const DefaultUserAgent = "goalpaca"

// Client Alpaca 交易与行情 API 客户端
// 创建后不再修改，可在多个 goroutine 间共享
type Client struct {
	creds      Credentials
	tradingURL string
	dataURL    string
	trading    *sdkhttp.Client
	data       *sdkhttp.Client
	log        logrus.FieldLogger
}

type clientOptions struct {
	tradingURL string
	dataURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     logrus.FieldLogger
}

// Option NewClient 的可选配置
type Option func(*clientOptions)

// WithTradingURL 覆盖交易 API 地址
func WithTradingURL(u string) Option {
	return func(o *clientOptions) { o.tradingURL = u }
}

// WithDataURL 覆盖行情 API 地址
func WithDataURL(u string) Option {
	return func(o *clientOptions) { o.dataURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithTimeout 单次请求超时（也可以通过 ctx 控制）
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

func WithUserAgent(ua string) Option {
	return func(o *clientOptions) { o.userAgent = ua }
}

// WithLogger 每个请求输出一条 debug 日志；不设置则不输出任何日志
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// NewClient 使用显式密钥创建客户端
func NewClient(creds Credentials, opts ...Option) *Client {
	o := clientOptions{
		tradingURL: creds.Environment.TradingURL(),
		dataURL:    MarketDataURL,
		timeout:    sdkhttp.DefaultTimeout,
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = discardLogger()
	}

	transport := sdkhttp.Options{
		Timeout:    o.timeout,
		HTTPClient: o.httpClient,
		UserAgent:  o.userAgent,
	}
	tradingURL := strings.TrimSuffix(o.tradingURL, "/")
	dataURL := strings.TrimSuffix(o.dataURL, "/")

	return &Client{
		creds:      creds,
		tradingURL: tradingURL,
		dataURL:    dataURL,
		trading:    sdkhttp.NewClient(tradingURL, transport),
		data:       sdkhttp.NewClient(dataURL, transport),
		log:        o.logger.WithField("component", "alpaca"),
	}
}

// NewClientFromEnv 从环境变量读取密钥并创建客户端
func NewClientFromEnv(env Environment, opts ...Option) (*Client, error) {
	creds, err := CredentialsFromEnv(env)
	if err != nil {
		return nil, err
	}
	return NewClient(creds, opts...), nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

func (c *Client) Environment() Environment { return c.creds.Environment }

func (c *Client) TradingURL() string { return c.tradingURL }

func (c *Client) DataURL() string { return c.dataURL }

// AuthHeaders 返回认证头（每次返回新的 map）
func (c *Client) AuthHeaders() map[string]string {
	return c.creds.headers()
}

// Authorize 在 req 上设置认证头
func (c *Client) Authorize(req *http.Request) {
	c.creds.apply(req.Header)
}

type apiBase int

const (
	tradingAPI apiBase = iota
	dataAPI
)

func (c *Client) get(ctx context.Context, base apiBase, path string, query url.Values, out any) error {
	return c.send(ctx, base, http.MethodGet, path, query, nil, out)
}

// send 发出一次请求并归类结果：传输失败或无法解析的响应为 *TransportError，
// 非 2xx 为 *APIError
func (c *Client) send(ctx context.Context, base apiBase, method, path string, query url.Values, body, out any) error {
	transport := c.trading
	if base == dataAPI {
		transport = c.data
	}
	op := method + " " + path

	start := time.Now()
	resp, err := transport.DoRequest(ctx, method, path, &sdkhttp.RequestOptions{
		Headers: c.creds.headers(),
		Params:  query,
		Data:    body,
	})
	if err != nil {
		c.log.WithError(err).WithField("op", op).Debug("request failed")
		return &TransportError{Op: op, Err: err}
	}
	c.log.WithFields(logrus.Fields{
		"op":       op,
		"status":   resp.StatusCode(),
		"duration": time.Since(start),
	}).Debug("request done")

	if !resp.IsSuccess() {
		return newAPIError(resp.StatusCode(), resp.Body())
	}
	if out == nil {
		return nil
	}
	raw := resp.Body()
	if len(bytes.TrimSpace(raw)) == 0 {
		return &TransportError{Op: op, Err: errors.New("empty response body")}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: op, Err: errors.Wrap(err, "decode response")}
	}
	return nil
}

func pathEscape(segment string) string {
	return url.PathEscape(segment)
}
