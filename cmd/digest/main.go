package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"crypto-digest-bot/internal/digest"
	"crypto-digest-bot/internal/llm"
	"crypto-digest-bot/internal/logger"
	"crypto-digest-bot/internal/market"
	"crypto-digest-bot/internal/news"
	"crypto-digest-bot/internal/scheduler"
	"crypto-digest-bot/internal/sink"
	"crypto-digest-bot/internal/store"
	"crypto-digest-bot/internal/trace"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	snapshotFlag := flag.String("snapshot", "", "path or URL to the portfolio snapshot (overrides config)")
	dateFlag := flag.String("date", "", "UTC date YYYYMMDD for the default snapshot URL (default: today)")
	symbolsFlag := flag.String("symbols", "", "comma-separated trading pairs (overrides config)")
	hoursFlag := flag.Int("hours", 0, "lookback window in hours (overrides config)")
	intervalFlag := flag.String("interval", "", "kline interval (overrides config)")
	modelFlag := flag.String("model", "", "explicit model id (default: auto-select free models)")
	dryRun := flag.Bool("dry-run", false, "print the composed prompt and exit without calling the model")
	noArchive := flag.Bool("no-archive", false, "skip archiving even when configured")
	noNotify := flag.Bool("no-notify", false, "skip push notification even when configured")
	scheduleFlag := flag.Bool("schedule", false, "run once now, then daily per schedule.daily_cron")
	flag.Parse()

	_ = godotenv.Load()

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "init tracing: %v\n", err)
	}
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := store.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Flag overrides
	if *snapshotFlag != "" {
		cfg.Snapshot.Source = *snapshotFlag
	}
	if *symbolsFlag != "" {
		cfg.Symbols = strings.Split(*symbolsFlag, ",")
	}
	if *hoursFlag > 0 {
		cfg.Hours = *hoursFlag
	}
	if *intervalFlag != "" {
		cfg.Interval = *intervalFlag
	}
	if *modelFlag != "" {
		cfg.LLM.Model = *modelFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() {
		_ = trace.Shutdown(context.Background())
	}()

	apiKey := os.Getenv("OPENROUTER_API_KEY")

	marketClient := market.NewClient("")
	collector := news.NewCollector(cfg.Feeds, cfg.Keywords, news.NewScraper(""))
	llmClient := llm.NewClient("", apiKey, cfg.LLM)

	var archiver sink.Archiver
	if cfg.R2.Complete() {
		a, err := sink.NewR2Archiver(ctx, cfg.R2)
		if err != nil {
			logger.Warn(ctx, "R2 archiver unavailable", "error", err)
		} else {
			archiver = a
		}
	} else if !*noArchive {
		logger.Warn(ctx, "R2 config incomplete; archiving disabled")
	}

	var notifier sink.Notifier
	if cfg.Bark.Key != "" {
		notifier = sink.NewBarkNotifier(cfg.Bark)
	} else if !*noNotify {
		logger.Warn(ctx, "Bark key not set; notifications disabled")
	}

	runner := digest.NewRunner(cfg, marketClient, collector, llmClient, archiver, notifier, os.Stdout)
	opts := digest.Options{
		Date:      *dateFlag,
		APIKey:    apiKey,
		DryRun:    *dryRun,
		NoArchive: *noArchive,
		NoNotify:  *noNotify,
	}

	if *scheduleFlag {
		sched := scheduler.New(ctx, func(ctx context.Context) error {
			return runner.Run(ctx, opts)
		})
		if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
			logger.ErrorWithErr(ctx, "Invalid schedule", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()

		if cfg.Schedule.RunOnStart {
			go sched.RunNow()
		}

		<-ctx.Done()
		logger.Info(context.Background(), "Shutdown signal received, stopping")
		return
	}

	if err := runner.Run(ctx, opts); err != nil {
		logger.ErrorWithErr(ctx, "Digest run failed", err)
		_ = trace.Shutdown(context.Background())
		os.Exit(1)
	}
}
