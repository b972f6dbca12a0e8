package alpaca

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const (
	PaperTradingURL = "https://paper-api.alpaca.markets"
	LiveTradingURL  = "https://api.alpaca.markets"
	MarketDataURL   = "https://data.alpaca.markets"

	// CredentialsFromEnv 读取的环境变量
	EnvKeyID     = "APCA_API_KEY_ID"
	EnvSecretKey = "APCA_API_SECRET_KEY"

	HeaderKeyID     = "APCA-API-KEY-ID"
	HeaderSecretKey = "APCA-API-SECRET-KEY"
)

// Environment 交易环境，零值为模拟盘（paper）
type Environment int

const (
	EnvironmentPaper Environment = iota
	EnvironmentLive
)

func (e Environment) String() string {
	switch e {
	case EnvironmentPaper:
		return "paper"
	case EnvironmentLive:
		return "live"
	default:
		return fmt.Sprintf("Environment(%d)", int(e))
	}
}

// TradingURL 返回该环境的交易 API 地址
// 行情数据两个环境都使用 MarketDataURL
func (e Environment) TradingURL() string {
	if e == EnvironmentLive {
		return LiveTradingURL
	}
	return PaperTradingURL
}

// ParseEnvironment 解析 "paper" / "live"（不区分大小写），空字符串视为 paper
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "paper":
		return EnvironmentPaper, nil
	case "live":
		return EnvironmentLive, nil
	default:
		return EnvironmentPaper, errors.Errorf("unknown environment %q", s)
	}
}

// Credentials API 密钥对及其交易环境
type Credentials struct {
	KeyID       string
	SecretKey   string
	Environment Environment
}

// NewCredentials 使用显式传入的密钥，不做校验
func NewCredentials(keyID, secretKey string, env Environment) Credentials {
	return Credentials{KeyID: keyID, SecretKey: secretKey, Environment: env}
}

// CredentialsFromEnv 从 APCA_API_KEY_ID / APCA_API_SECRET_KEY 读取密钥
// 未设置或只有空白时返回 *MissingCredentialError
func CredentialsFromEnv(env Environment) (Credentials, error) {
	return credentialsFromLookup(env, os.LookupEnv)
}

func credentialsFromLookup(env Environment, lookup func(string) (string, bool)) (Credentials, error) {
	values := make(map[string]string, 2)
	for _, name := range []string{EnvKeyID, EnvSecretKey} {
		v, ok := lookup(name)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			return Credentials{}, &MissingCredentialError{Variable: name}
		}
		values[name] = v
	}
	return NewCredentials(values[EnvKeyID], values[EnvSecretKey], env), nil
}

// String 不输出 secret
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{KeyID: %s, SecretKey: <redacted>, Environment: %s}", c.KeyID, c.Environment)
}

func (c Credentials) headers() map[string]string {
	return map[string]string{
		HeaderKeyID:     c.KeyID,
		HeaderSecretKey: c.SecretKey,
	}
}

func (c Credentials) apply(h http.Header) {
	h.Set(HeaderKeyID, c.KeyID)
	h.Set(HeaderSecretKey, c.SecretKey)
}
