package alpaca

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// 错误类别。本包返回的每个错误都能通过 errors.Is 匹配其中之一
var (
	ErrMissingCredential = errors.New("alpaca: missing credential")
	ErrValidation        = errors.New("alpaca: invalid request")
	ErrAPI               = errors.New("alpaca: api error")
	ErrTransport         = errors.New("alpaca: transport error")
)

// MissingCredentialError 密钥环境变量缺失或为空
type MissingCredentialError struct {
	Variable string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("alpaca: environment variable %s is not set", e.Variable)
}

func (e *MissingCredentialError) Is(target error) bool { return target == ErrMissingCredential }

// ValidationError 请求参数无效（在发出请求前拒绝）
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "alpaca: invalid request: " + e.Message
	}
	return fmt.Sprintf("alpaca: invalid request: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// APIError Alpaca 返回的非 2xx 响应，Message 原样保留服务端信息
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Body       string `json:"-"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != 0 {
		return fmt.Sprintf("alpaca: api error (status %d, code %d): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("alpaca: api error (status %d): %s", e.StatusCode, msg)
}

func (e *APIError) Is(target error) bool { return target == ErrAPI }

// newAPIError 解析错误响应；不是 {"code","message"} 格式时以原始文本作为 Message
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: string(body)}
	var payload struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && (payload.Code != 0 || payload.Message != "") {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// TransportError 连接、超时、取消及响应解析失败
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("alpaca: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// IsNotFound 判断 err 是否为 404 的 APIError
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
