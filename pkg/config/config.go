package config

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/betbot/goalpaca/pkg/alpaca"
	"github.com/betbot/goalpaca/pkg/logger"
)

// 默认值
const (
	DefaultEnvironment = "paper"
	DefaultTimeout     = 30 * time.Second
	DefaultLogLevel    = "info"
	DefaultLogMaxSize  = 100 // MB
	DefaultLogBackups  = 3
	DefaultLogMaxAge   = 7 // 天
)

// Config 应用配置
// 注意：API 密钥不在这里，只从 APCA_API_KEY_ID / APCA_API_SECRET_KEY 环境变量读取
type Config struct {
	Environment string        // paper 或 live
	TradingURL  string        // 交易 API 地址（可选，覆盖环境默认值）
	DataURL     string        // 行情 API 地址（可选）
	Timeout     time.Duration // 单次请求超时，0 时使用 alpaca 客户端默认值（30s）
	UserAgent   string        // 自定义 User-Agent（可选）
	LogLevel    string        // 日志级别
	LogFile     string        // 日志文件路径（可选，为空则只输出到控制台）
	LogMaxSize  int           // 日志文件最大大小（MB）
	LogBackups  int           // 保留的旧日志文件数量
	LogMaxAge   int           // 保留旧日志文件的天数
	LogCompress bool          // 是否压缩旧日志文件
}

// ConfigFile 配置文件结构（用于 YAML/JSON 解析）
type ConfigFile struct {
	Environment string `yaml:"environment" json:"environment"`
	TradingURL  string `yaml:"trading_url" json:"trading_url"`
	DataURL     string `yaml:"data_url" json:"data_url"`
	Timeout     string `yaml:"timeout" json:"timeout"` // 例如 "15s"
	UserAgent   string `yaml:"user_agent" json:"user_agent"`
	Log         struct {
		Level      string `yaml:"level" json:"level"`
		File       string `yaml:"file" json:"file"`
		MaxSize    int    `yaml:"max_size" json:"max_size"`
		MaxBackups int    `yaml:"max_backups" json:"max_backups"`
		MaxAge     int    `yaml:"max_age" json:"max_age"`
		Compress   *bool  `yaml:"compress" json:"compress"`
	} `yaml:"log" json:"log"`
}

var configFilePath string

// SetConfigPath 设置配置文件路径
func SetConfigPath(path string) {
	configFilePath = path
}

// GetConfigPath 获取配置文件路径
func GetConfigPath() string {
	return configFilePath
}

// LoadDotEnv 加载 .env 文件到进程环境变量（尽力而为）
// 不存在的文件直接跳过；已设置的环境变量不会被覆盖
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Wrapf(err, "读取 %s 失败", p)
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "解析 %s 失败", p)
		}
	}
	return nil
}

// Load 加载配置
func Load() (*Config, error) {
	return LoadFromFile(configFilePath)
}

// LoadFromFile 从指定文件加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func LoadFromFile(filePath string) (*Config, error) {
	var configFile *ConfigFile
	if filePath != "" {
		var err error
		configFile, err = loadConfigFile(filePath)
		if err != nil {
			return nil, errors.Wrapf(err, "加载配置文件失败 %s", filePath)
		}
	}
	if configFile == nil {
		configFile = &ConfigFile{}
	}

	timeout, err := parseTimeout(getEnv("ALPACA_TIMEOUT", configFile.Timeout))
	if err != nil {
		return nil, err
	}

	compress := true
	if configFile.Log.Compress != nil {
		compress = *configFile.Log.Compress
	}

	config := &Config{
		Environment: getEnv("ALPACA_ENVIRONMENT", firstNonEmpty(configFile.Environment, DefaultEnvironment)),
		TradingURL:  getEnv("ALPACA_TRADING_URL", configFile.TradingURL),
		DataURL:     getEnv("ALPACA_DATA_URL", configFile.DataURL),
		Timeout:     timeout,
		UserAgent:   getEnv("ALPACA_USER_AGENT", configFile.UserAgent),
		LogLevel:    getEnv("ALPACA_LOG_LEVEL", firstNonEmpty(configFile.Log.Level, DefaultLogLevel)),
		LogFile:     getEnv("ALPACA_LOG_FILE", configFile.Log.File),
		LogMaxSize:  parseIntEnv("ALPACA_LOG_MAX_SIZE", positiveOr(configFile.Log.MaxSize, DefaultLogMaxSize)),
		LogBackups:  parseIntEnv("ALPACA_LOG_MAX_BACKUPS", positiveOr(configFile.Log.MaxBackups, DefaultLogBackups)),
		LogMaxAge:   parseIntEnv("ALPACA_LOG_MAX_AGE", positiveOr(configFile.Log.MaxAge, DefaultLogMaxAge)),
		LogCompress: parseBoolEnv("ALPACA_LOG_COMPRESS", compress),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	configFilePath = filePath
	return config, nil
}

// loadConfigFile 加载配置文件（支持 YAML 和 JSON）
func loadConfigFile(filePath string) (*ConfigFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "读取配置文件失败")
	}

	var configFile ConfigFile
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &configFile); err != nil {
			return nil, errors.Wrap(err, "解析 YAML 配置文件失败")
		}
	case ".json":
		if err := json.Unmarshal(data, &configFile); err != nil {
			return nil, errors.Wrap(err, "解析 JSON 配置文件失败")
		}
	default:
		return nil, errors.Errorf("不支持的配置文件格式: %s (支持 .yaml, .yml, .json)", ext)
	}

	return &configFile, nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if _, err := alpaca.ParseEnvironment(c.Environment); err != nil {
		return errors.Wrap(err, "ALPACA_ENVIRONMENT 无效")
	}
	if c.Timeout < 0 {
		return errors.New("ALPACA_TIMEOUT 不能为负数")
	}
	for name, raw := range map[string]string{"ALPACA_TRADING_URL": c.TradingURL, "ALPACA_DATA_URL": c.DataURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return errors.Wrapf(err, "%s 无效", name)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.Errorf("%s 必须是 http(s) 地址: %q", name, raw)
		}
	}
	return nil
}

// AlpacaEnvironment 返回交易环境
func (c *Config) AlpacaEnvironment() alpaca.Environment {
	env, _ := alpaca.ParseEnvironment(c.Environment)
	return env
}

// ClientOptions 转换为 alpaca 客户端选项
func (c *Config) ClientOptions() []alpaca.Option {
	var opts []alpaca.Option
	if c.TradingURL != "" {
		opts = append(opts, alpaca.WithTradingURL(c.TradingURL))
	}
	if c.DataURL != "" {
		opts = append(opts, alpaca.WithDataURL(c.DataURL))
	}
	if c.Timeout > 0 {
		opts = append(opts, alpaca.WithTimeout(c.Timeout))
	}
	if c.UserAgent != "" {
		opts = append(opts, alpaca.WithUserAgent(c.UserAgent))
	}
	return opts
}

// LoggerConfig 转换为日志配置
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.LogLevel,
		OutputFile: c.LogFile,
		MaxSize:    c.LogMaxSize,
		MaxBackups: c.LogBackups,
		MaxAge:     c.LogMaxAge,
		Compress:   c.LogCompress,
	}
}

// parseTimeout 解析超时，支持 "15s" 或纯秒数 "15"
func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTimeout, nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "超时配置无效 %q", s)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv 解析整数环境变量
func parseIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// parseBoolEnv 解析布尔环境变量
func parseBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
