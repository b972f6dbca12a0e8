package alpaca

import (
	"context"
	"time"
)

// Clock 市场时钟
type Clock struct {
	Timestamp time.Time `json:"timestamp"`
	IsOpen    bool      `json:"is_open"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close"`
}

// UntilNextOpen 距下次开盘的时间，开盘中为 0
func (c Clock) UntilNextOpen() time.Duration {
	if c.IsOpen {
		return 0
	}
	return c.NextOpen.Sub(c.Timestamp)
}

// UntilClose 距收盘的时间，休市中为 0
func (c Clock) UntilClose() time.Duration {
	if !c.IsOpen {
		return 0
	}
	return c.NextClose.Sub(c.Timestamp)
}

func (c *Client) GetClock(ctx context.Context) (*Clock, error) {
	var clock Clock
	if err := c.get(ctx, tradingAPI, "/v2/clock", nil, &clock); err != nil {
		return nil, err
	}
	return &clock, nil
}
