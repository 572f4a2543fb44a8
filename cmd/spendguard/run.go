package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SpendGuard/internal/config"
	"SpendGuard/internal/custody"
	"SpendGuard/internal/logging"
	"SpendGuard/internal/notifier"
	"SpendGuard/internal/recorder"
	"SpendGuard/internal/scheduler"
	"SpendGuard/internal/transfer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the custody daemon",
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Environment)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("SpendGuard starting", zap.String("config", flagConfig))

	rec := openRecorder(cfg, logger)
	defer rec.Close()

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger.Named("telegram"))
	} else {
		logger.Warn("telegram not configured, alerts and chat commands disabled")
	}

	limit, _ := cfg.InitialLimit()
	whitelist, _ := cfg.WhitelistAddresses()
	opts := custody.Options{
		StateFile:    cfg.Ledger.StateFile,
		InitialLimit: limit,
		Whitelist:    whitelist,
		Authorizer:   custody.SingleOwner(cfg.Owner),
		Transferer:   transfer.NewBook(),
		Recorder:     rec,
		Logger:       logger.Named("custody"),
	}
	if tn != nil {
		opts.Alerter = tn
	}
	svc, err := custody.NewService(opts)
	if err != nil {
		return fmt.Errorf("init custody: %w", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, svc, tn, rec, logger.Named("scheduler"))
	if err := sched.RegisterAll(cfg.Schedule.ReportCron, cfg.Schedule.FlushCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info("RUN_ON_START enabled, sending daily report now")
		go sched.RunReportNow()
	}

	logger.Info("SpendGuard is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping")
	cancel()
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	if err := svc.Close(closeCtx); err != nil {
		logger.Warn("pending alerts dropped", zap.Error(err))
	}
	if err := svc.Flush(); err != nil {
		logger.Error("final flush", zap.Error(err))
	}
	logger.Info("SpendGuard stopped")
	return nil
}

// openRecorder falls back to a no-op recorder when SQLite cannot be opened.
func openRecorder(cfg *config.Config, logger *zap.Logger) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger.Named("recorder"))
	if err != nil {
		logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		return recorder.NewNoopRecorder()
	}
	return sr
}
