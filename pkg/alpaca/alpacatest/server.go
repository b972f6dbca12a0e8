// Package alpacatest 提供测试用的进程内 Alpaca HTTP 假服务。
// 路由以 "METHOD /path" 为键，所有请求都会被记录。
package alpacatest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/betbot/goalpaca/pkg/alpaca"
)

const (
	KeyID     = "test-key-id"
	SecretKey = "test-secret-key"
)

// Request 记录的请求
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// DecodeJSON 解析请求体
func (r Request) DecodeJSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Server 在同一个监听地址上同时提供交易和行情 API
type Server struct {
	URL string

	srv *httptest.Server

	mu       sync.Mutex
	routes   map[string]gin.HandlerFunc
	requests []Request
	auth     *[2]string
}

// NewServer 启动服务，测试结束时自动关闭
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{routes: make(map[string]gin.HandlerFunc)}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.NoRoute(s.dispatch)

	s.srv = httptest.NewServer(r)
	s.URL = s.srv.URL
	t.Cleanup(s.srv.Close)
	return s
}

// Close 提前关闭（用于构造连接失败）
func (s *Server) Close() {
	s.srv.Close()
}

// Handle 注册路由，后注册的覆盖先注册的
func (s *Server) Handle(method, path string, h gin.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = h
}

// HandleJSON 返回固定状态码和响应体：string / []byte 原样发送，nil 不发送，其他类型序列化为 JSON
func (s *Server) HandleJSON(method, path string, status int, body any) {
	s.Handle(method, path, func(c *gin.Context) {
		switch b := body.(type) {
		case nil:
			c.Status(status)
		case string:
			c.Data(status, "application/json", []byte(b))
		case []byte:
			c.Data(status, "application/json", b)
		default:
			c.JSON(status, b)
		}
	})
}

// RequireAuth 认证头不匹配时返回 401
func (s *Server) RequireAuth(keyID, secretKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = &[2]string{keyID, secretKey}
}

// Requests 返回已收到请求的副本
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest 最近一次请求
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// Client 返回指向该服务、使用测试密钥的 paper 客户端
func (s *Server) Client(opts ...alpaca.Option) *alpaca.Client {
	creds := alpaca.NewCredentials(KeyID, SecretKey, alpaca.EnvironmentPaper)
	base := []alpaca.Option{
		alpaca.WithTradingURL(s.URL),
		alpaca.WithDataURL(s.URL),
	}
	return alpaca.NewClient(creds, append(base, opts...)...)
}

func (s *Server) dispatch(c *gin.Context) {
	body, _ := c.GetRawData()
	req := Request{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.Query(),
		Header: c.Request.Header.Clone(),
		Body:   body,
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	h, ok := s.routes[req.Method+" "+req.Path]
	auth := s.auth
	s.mu.Unlock()

	if auth != nil && (req.Header.Get(alpaca.HeaderKeyID) != auth[0] || req.Header.Get(alpaca.HeaderSecretKey) != auth[1]) {
		c.JSON(http.StatusUnauthorized, gin.H{"code": 40110000, "message": "request is not authorized"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"code": 40410000, "message": "route not found: " + req.Method + " " + req.Path})
		return
	}
	h(c)
}
