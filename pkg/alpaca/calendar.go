package alpaca

import (
	"context"
	"time"
	_ "time/tzdata"

	"github.com/pkg/errors"
)

// 交易时段使用纽约时间
var marketLocation = loadMarketLocation()

func loadMarketLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// CalendarDay 一个交易日，Open / Close 为市场时间 "HH:MM"
type CalendarDay struct {
	Date           string `json:"date"`
	Open           string `json:"open"`
	Close          string `json:"close"`
	SessionOpen    string `json:"session_open,omitempty"`
	SessionClose   string `json:"session_close,omitempty"`
	SettlementDate string `json:"settlement_date"`
}

// OpenTime 开盘时刻（纽约时间）
func (d CalendarDay) OpenTime() (time.Time, error) {
	return parseMarketTime(d.Date, d.Open)
}

// CloseTime 收盘时刻（纽约时间）
func (d CalendarDay) CloseTime() (time.Time, error) {
	return parseMarketTime(d.Date, d.Close)
}

func parseMarketTime(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout+" 15:04", date+" "+clock, marketLocation)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse market time %s %s", date, clock)
	}
	return t, nil
}

// CalendarRequest GET /v2/calendar 的查询范围，DateType 为 TRADING 或 SETTLEMENT
type CalendarRequest struct {
	Start    time.Time
	End      time.Time
	DateType string
}

func (r CalendarRequest) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return invalid("end", "is before start")
	}
	switch r.DateType {
	case "", "TRADING", "SETTLEMENT":
		return nil
	}
	return invalid("date_type", "must be TRADING or SETTLEMENT")
}

func (c *Client) GetCalendar(ctx context.Context, req CalendarRequest) ([]CalendarDay, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	q := query{}
	q.date("start", req.Start)
	q.date("end", req.End)
	q.str("date_type", req.DateType)

	var days []CalendarDay
	if err := c.get(ctx, tradingAPI, "/v2/calendar", q.values(), &days); err != nil {
		return nil, err
	}
	return days, nil
}
