package alpaca

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// query 收集可选查询参数，零值跳过
type query url.Values

func (q query) str(key, v string) {
	if v != "" {
		url.Values(q).Set(key, v)
	}
}

func (q query) num(key string, v int) {
	if v > 0 {
		url.Values(q).Set(key, strconv.Itoa(v))
	}
}

func (q query) boolPtr(key string, v *bool) {
	if v != nil {
		url.Values(q).Set(key, strconv.FormatBool(*v))
	}
}

func (q query) flag(key string, v bool) {
	if v {
		url.Values(q).Set(key, "true")
	}
}

func (q query) ts(key string, t time.Time) {
	if !t.IsZero() {
		url.Values(q).Set(key, t.UTC().Format(time.RFC3339Nano))
	}
}

func (q query) date(key string, t time.Time) {
	if !t.IsZero() {
		url.Values(q).Set(key, t.Format(dateLayout))
	}
}

func (q query) dec(key string, d *decimal.Decimal) {
	if d != nil {
		url.Values(q).Set(key, d.String())
	}
}

// list 多值参数用逗号拼接
func (q query) list(key string, vs []string) {
	if len(vs) > 0 {
		url.Values(q).Set(key, strings.Join(vs, ","))
	}
}

func (q query) values() url.Values {
	if len(q) == 0 {
		return nil
	}
	return url.Values(q)
}
