package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// DefaultTimeout 单次请求的默认超时
const DefaultTimeout = 30 * time.Second

type Client struct {
	client *resty.Client
	host   string
}

// Options 传输层配置
type Options struct {
	Timeout    time.Duration // 为 0 时使用 DefaultTimeout
	HTTPClient *http.Client  // 可选，自定义底层 http.Client（代理、TLS 等）
	UserAgent  string
}

func NewClient(host string, opts Options) *Client {
	host = strings.TrimSuffix(host, "/")

	var rc *resty.Client
	if opts.HTTPClient != nil {
		// 复制一份：resty 会改写 Timeout、Transport，不能影响调用方的 http.Client
		hc := *opts.HTTPClient
		rc = resty.NewWithClient(&hc)
	} else {
		// resty 会自动从环境变量读取代理配置（HTTP_PROXY, HTTPS_PROXY, http_proxy, https_proxy）
		rc = resty.New()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// 不做重试：每次调用只发出一个请求，失败直接交给调用方
	rc.SetBaseURL(host).
		SetTimeout(timeout).
		SetRetryCount(0)

	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}

	return &Client{client: rc, host: host}
}

// Host 返回基础 URL（无结尾斜杠）
func (c *Client) Host() string {
	return c.host
}

type RequestOptions struct {
	Headers map[string]string
	Data    any
	Params  url.Values
}

// 仅设置本次请求的默认 Header（不要再改 client 级 Header）
func (c *Client) newRequest(ctx context.Context) *resty.Request {
	r := c.client.R()
	if ctx != nil {
		r.SetContext(ctx)
	}
	r.SetHeader("Accept", "application/json")
	return r
}

// DoRequest 发送单个请求。非 2xx 状态码不视为错误，由调用方根据 resp 判断；
// 返回的 error 只代表传输层失败（连接、超时、取消）。
func (c *Client) DoRequest(ctx context.Context, method, endpoint string, opt *RequestOptions) (*resty.Response, error) {
	rc := c.newRequest(ctx)
	if opt != nil {
		for k, v := range opt.Headers {
			rc.SetHeader(k, v)
		}
		if len(opt.Params) > 0 {
			rc.SetQueryParamsFromValues(opt.Params)
		}
		if opt.Data != nil {
			rc.SetHeader("Content-Type", "application/json")
			rc.SetBody(opt.Data)
		}
	}

	switch m := strings.ToUpper(method); m {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		resp, err := rc.Execute(m, endpoint)
		if err != nil {
			return nil, errors.Wrapf(err, "%s %s", m, endpoint)
		}
		return resp, nil
	default:
		return nil, errors.Errorf("unsupported method: %s", method)
	}
}
