package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"MarketPulse/internal/collector"
	"MarketPulse/internal/config"
	"MarketPulse/internal/logger"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/recorder"
	"MarketPulse/internal/scheduler"
	"MarketPulse/internal/server"
)

// app bundles what every command needs after config is loaded.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *collector.Registry
}

func setup(cmd *cli.Command) (*app, error) {
	if err := config.LoadEnvFile(cmd.String("env-file")); err != nil {
		return nil, err
	}
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if out := cmd.String("output"); out != "" {
		cfg.OutputPath = out
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	registry, err := buildRegistry(cfg, cmd.Bool("mock"))
	if err != nil {
		return nil, err
	}
	log.Info("MarketPulse starting",
		zap.Int("instruments", len(cfg.Instruments)),
		zap.Strings("sources", registry.Names()),
	)
	return &app{cfg: cfg, log: log, registry: registry}, nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync() //nolint:errcheck

	col := newCollector(a.cfg, a.registry, a.log)
	if cmd.Bool("progress") {
		bar := progressbar.NewOptions(len(a.cfg.Instruments),
			progressbar.OptionSetDescription("refreshing"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)
		col.OnResult = func(collector.Result) { _ = bar.Add(1) }
		defer bar.Finish() //nolint:errcheck
	}

	rec, err := recorder.NewJSONRecorder(a.cfg.OutputPath, a.log)
	if err != nil {
		return err
	}
	defer rec.Close()

	start := time.Now()
	board, results := col.CollectAll(ctx, a.cfg.Instruments)
	if err := rec.RecordBoard(board); err != nil {
		return fmt.Errorf("write %s: %w", a.cfg.OutputPath, err)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	a.log.Info("refresh complete",
		zap.String("output", a.cfg.OutputPath),
		zap.Int("ok", len(results)-failed),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rec, err := recorder.NewJSONRecorder(a.cfg.OutputPath, a.log)
	if err != nil {
		return err
	}
	defer rec.Close()

	sched := scheduler.NewScheduler(ctx, newCollector(a.cfg, a.registry, a.log), a.cfg.Instruments, rec, a.log)
	if board, err := recorder.ReadBoard(a.cfg.OutputPath); err != nil {
		a.log.Warn("previous board unreadable", zap.Error(err))
	} else if board.Len() > 0 {
		var at time.Time
		if fi, err := os.Stat(a.cfg.OutputPath); err == nil {
			at = fi.ModTime()
		}
		sched.Seed(board, at)
	}

	m := metrics.NewMetrics()
	sched.Metrics = m

	if a.cfg.TelegramEnabled() {
		tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, a.log)
		sched.Notifier = tn
		go tn.StartPolling(ctx, sched.HandleCommand)
		a.log.Info("telegram polling started")
	} else {
		a.log.Info("telegram disabled")
	}

	if err := sched.Register(a.cfg.Schedule.RefreshCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if cmd.Bool("run-on-start") {
		a.log.Info("run-on-start enabled, refreshing now")
		go sched.RunNow()
	}

	if a.cfg.MetricsListen != "" {
		srv := server.New(a.cfg.MetricsListen, sched, m.Handler(), a.log)
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	} else {
		<-ctx.Done()
	}
	a.log.Info("shutdown signal received, stopping")
	return nil
}

func schemaAction(_ context.Context, _ *cli.Command) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(recorder.BoardSchema())
}

func main() {
	configFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to the YAML config",
			Value:   "configs/config.yaml",
			Sources: cli.EnvVars("CONFIG_PATH"),
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "optional dotenv file loaded before the config",
			Value: ".env",
		},
		&cli.BoolFlag{
			Name:  "mock",
			Usage: "use synthetic market data for every instrument",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "board JSON path (overrides output_path)",
		},
	}

	cmd := &cli.Command{
		Name:  "pulse",
		Usage: "KDJ, divergence and indicator snapshots for a watchlist",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "refresh once and write the board",
				Flags: append(configFlags, &cli.BoolFlag{
					Name:  "progress",
					Usage: "show a progress bar on stderr",
				}),
				Action: runAction,
			},
			{
				Name:  "watch",
				Usage: "refresh on schedule, serve HTTP and answer Telegram commands",
				Flags: append(configFlags, &cli.BoolFlag{
					Name:    "run-on-start",
					Usage:   "refresh immediately instead of waiting for the first cron tick",
					Sources: cli.EnvVars("RUN_ON_START"),
				}),
				Action: watchAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the board document",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "pulse: %v\n", err)
		os.Exit(1)
	}
}
