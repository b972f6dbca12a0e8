package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/betbot/goalpaca/pkg/alpaca"
	"github.com/betbot/goalpaca/pkg/config"
	"github.com/betbot/goalpaca/pkg/logger"
)

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "用法: %s [-config FILE] [-live] [-env-file FILE] <命令> [参数]\n\n命令:\n", os.Args[0])
	for _, cmd := range commands {
		fmt.Fprintf(out, "  %-40s %s\n", cmd.usage, cmd.help)
	}
	fmt.Fprintln(out, "\n选项:")
	flag.PrintDefaults()
}

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "", "配置文件路径（支持 .yaml, .yml, .json）")
	live := flag.Bool("live", false, "使用实盘环境（默认模拟盘 paper）")
	envFile := flag.String("env-file", ".env", ".env 文件路径（不存在则忽略）")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	// 先加载 .env，确保 APCA_* 与 ALPACA_* 环境变量可用
	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "加载 .env 失败: %v\n", err)
		os.Exit(1)
	}

	if *configPath != "" {
		config.SetConfigPath(*configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	env := cfg.AlpacaEnvironment()
	if *live {
		env = alpaca.EnvironmentLive
	}

	opts := append(cfg.ClientOptions(), alpaca.WithLogger(logger.Logger))
	client, err := alpaca.NewClientFromEnv(env, opts...)
	if err != nil {
		fail(err)
	}
	logger.WithFields(logrus.Fields{
		"config":      config.GetConfigPath(),
		"environment": client.Environment(),
		"trading_url": client.TradingURL(),
	}).Debug("alpaca 客户端已创建")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, client, os.Stdout, flag.Args()); err != nil {
		stop()
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("错误: "+err.Error()))
	_ = logger.Close()
	os.Exit(1)
}
