package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/betbot/goalpaca/pkg/alpaca"
)

type command struct {
	name  string
	usage string
	help  string
	run   func(ctx context.Context, c *alpaca.Client, out io.Writer, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"account", "account", "账户概览", runAccount},
		{"clock", "clock", "市场开闭状态", runClock},
		{"positions", "positions", "当前持仓", runPositions},
		{"orders", "orders [-status open|closed|all] [-limit N]", "订单列表", runOrders},
		{"buy", "buy SYMBOL QTY [-limit P] [-tif day]", "买入（默认市价单）", runTrade(alpaca.SideBuy)},
		{"sell", "sell SYMBOL QTY [-limit P] [-tif day]", "卖出（默认市价单）", runTrade(alpaca.SideSell)},
		{"cancel", "cancel ORDER_ID", "撤销订单", runCancel},
		{"bars", "bars SYMBOL [-timeframe 1Day] [-days N]", "历史K线", runBars},
		{"watchlists", "watchlists", "自选列表", runWatchlists},
	}
}

// run 执行一个子命令
func run(ctx context.Context, c *alpaca.Client, out io.Writer, args []string) error {
	if len(args) == 0 {
		return errors.New("缺少命令")
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(ctx, c, out, args[1:])
		}
	}
	return errors.Errorf("未知命令: %s", args[0])
}

// parseArgs 解析 flag，允许 flag 出现在位置参数之后（例如 buy AAPL 1 -limit 180）
func parseArgs(fs *flag.FlagSet, args []string, positional int) ([]string, error) {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	rest := fs.Args()
	if len(rest) < positional {
		return nil, errors.Errorf("%s 需要 %d 个参数", fs.Name(), positional)
	}
	pos := rest[:positional]
	if err := fs.Parse(rest[positional:]); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, errors.Errorf("%s 多余的参数: %s", fs.Name(), strings.Join(fs.Args(), " "))
	}
	return pos, nil
}

func runAccount(ctx context.Context, c *alpaca.Client, out io.Writer, args []string) error {
	acct, err := c.GetAccount(ctx)
	if err != nil {
		return err
	}
	renderKV(out, "Account "+acct.AccountNumber, [][2]string{
		{"status", acct.Status},
		{"currency", acct.Currency},
		{"cash", acct.Cash.StringFixed(2)},
		{"buying_power", acct.BuyingPower.StringFixed(2)},
		{"portfolio_value", acct.PortfolioValue.StringFixed(2)},
		{"pattern_day_trader", strconv.FormatBool(acct.PatternDayTrader)},
		{"trading_blocked", strconv.FormatBool(acct.TradingBlocked)},
	})
	return nil
}

func runClock(ctx context.Context, c *alpaca.Client, out io.Writer, args []string) error {
	clock, err := c.GetClock(ctx)
	if err != nil {
		return err
	}
	state := downStyle.Render("closed")
	if clock.IsOpen {
		state = upStyle.Render("open")
	}
	rows := [][2]string{
		{"market", state},
		{"timestamp", clock.Timestamp.Format(time.RFC3339)},
		{"next_open", clock.NextOpen.Format(time.RFC3339)},
		{"next_close", clock.NextClose.Format(time.RFC3339)},
	}
	if !clock.IsOpen {
		rows = append(rows, [2]string{"opens_in", clock.UntilNextOpen().Round(time.Minute).String()})
	}
	renderKV(out, "Market clock", rows)
	return nil
}

func runPositions(ctx context.Context, c *alpaca.Client, out io.Writer, args []string) error {
	positions, err := c.ListPositions(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, []string{
			p.Symbol,
			p.Side,
			p.Qty.String(),
			p.AvgEntryPrice.StringFixed(2),
			nullFixed(p.CurrentPrice),
			nullFixed(p.MarketValue),
			signed(p.UnrealizedPL),
		})
	}
	renderTable(out, fmt.Sprintf("Positions (%d)", len(positions)),
		[]string{"SYMBOL", "SIDE", "QTY", "AVG ENTRY", "PRICE", "VALUE", "UNREALIZED P/L"}, rows)
	return nil
}

func runOrders(ctx context.Context, c *alpaca.Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ContinueOnError)
	status := fs.String("status", "open", "open | closed | all")
	limit := fs.Int("limit", 50, "最多返回条数")
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}

	orders, err := c.ListOrders(ctx, alpaca.ListOrdersRequest{
		Status: alpaca.OrderQueryStatus(*status),
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			o.ID.String(),
			o.Symbol,
			sideText(o.Side),
			string(o.Type),
			nullString(o.Qty),
			nullFixed(o.LimitPrice),
			o.FilledQty.String(),
			string(o.Status),
			o.SubmittedAt.Format("2006-01-02 15:04:05"),
		})
	}
	renderTable(out, fmt.Sprintf("Orders %s (%d)", *status, len(orders)),
		[]string{"ID", "SYMBOL", "SIDE", "TYPE", "QTY", "LIMIT", "FILLED", "STATUS", "SUBMITTED"}, rows)
	return nil
}

func runTrade(side alpaca.Side) func(context.Context, *alpaca.Client, io.Writer, []string) error {
	return func(ctx context.Context, c *alpaca.Client, out io.Writer, args []string) error {
		fs := flag.NewFlagSet(string(side), flag.ContinueOnError)
		limit := fs.String("limit", "", "限价（为空则市价单）")
		tif := fs.String("tif", string(alpaca.TimeInForceDay), "day | gtc | ioc | fok | opg | cls")
		pos, err := parseArgs(fs, args, 2)
		if err != nil {
			return err
		}

		symbol := strings.ToUpper(pos[0])
		qty, err := decimal.NewFromString(pos[1])
		if err != nil {
			return errors.Wrapf(err, "数量无效 %q", pos[1])
		}

		var b *alpaca.OrderBuilder
		if *limit != "" {
			price, err := decimal.NewFromString(*limit)
			if err != nil {
				return errors.Wrapf(err, "限价无效 %q", *limit)
			}
			b = alpaca.NewLimitOrder(symbol, side, qty, price)
		} else {
			b = alpaca.NewMarketOrder(symbol, side, qty)
		}
		req, err := b.TimeInForce(alpaca.TimeInForce(*tif)).GenerateClientOrderID().Build()
		if err != nil {
			return err
		}

		order, err := c.CreateOrder(ctx, req)
		if err != nil {
			return err
		}
		renderKV(out, "Order submitted", [][2]string{
			{"id", order.ID.String()},
			{"client_order_id", order.ClientOrderID},
			{"symbol", order.Symbol},
			{"side", sideText(order.Side)},
			{"type", string(order.Type)},
			{"qty", nullString(order.Qty)},
			{"limit_price", nullFixed(order.LimitPrice)},
			{"status", string(order.Status)},
		})
		return nil
	}
}

func runCancel(ctx context.Context, c *alpaca.Client, out io.Writer, args []string) error {
	if len(args) != 1 {
		return errors.New("cancel 需要 1 个参数: ORDER_ID")
	}
	if err := c.CancelOrder(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(out, upStyle.Render("已提交撤单: "+args[0]))
	return nil
}

func runBars(ctx context.Context, c *alpaca.Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("bars", flag.ContinueOnError)
	timeframe := fs.String("timeframe", string(alpaca.TimeFrameDay), "1Min | 15Min | 1Hour | 1Day ...")
	days := fs.Int("days", 10, "向前回溯天数")
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	if *days <= 0 {
		return errors.New("-days 必须大于 0")
	}
	symbol := strings.ToUpper(pos[0])

	resp, err := c.GetBars(ctx, alpaca.BarsRequest{
		HistoricalRequest: alpaca.HistoricalRequest{
			Symbols: []string{symbol},
			Start:   time.Now().AddDate(0, 0, -*days),
		},
		TimeFrame: alpaca.TimeFrame(*timeframe),
	})
	if err != nil {
		return err
	}
	bars := resp.For(symbol)
	rows := make([][]string, 0, len(bars))
	for _, bar := range bars {
		rows = append(rows, []string{
			bar.Timestamp.Format("2006-01-02 15:04"),
			formatFloat(bar.Open),
			formatFloat(bar.High),
			formatFloat(bar.Low),
			formatFloat(bar.Close),
			strconv.FormatUint(bar.Volume, 10),
		})
	}
	renderTable(out, fmt.Sprintf("%s %s (%d)", symbol, *timeframe, len(bars)),
		[]string{"TIME", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME"}, rows)
	return nil
}

func runWatchlists(ctx context.Context, c *alpaca.Client, out io.Writer, args []string) error {
	lists, err := c.ListWatchlists(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(lists))
	for _, wl := range lists {
		rows = append(rows, []string{wl.Name, wl.ID.String(), wl.UpdatedAt.Format("2006-01-02 15:04:05")})
	}
	renderTable(out, fmt.Sprintf("Watchlists (%d)", len(lists)), []string{"NAME", "ID", "UPDATED"}, rows)
	return nil
}
