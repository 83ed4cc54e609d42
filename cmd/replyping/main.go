package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tg "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmhodges/clock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"replyping/internal/api"
	"replyping/internal/channel"
	"replyping/internal/config"
	"replyping/internal/notify"
	"replyping/internal/plan"
	"replyping/internal/rules"
	"replyping/internal/scheduler"
	"replyping/internal/store"
	"replyping/internal/todo"
	"replyping/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if cfg.StoreDriver == "memory" {
		log.Warn("using in-memory store, data will not survive restarts")
		st = store.NewMemory()
	} else {
		pg, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalw("failed opening store", "err", err)
		}
		st = pg
	}
	defer func() { _ = st.Close() }()

	var bot *tg.BotAPI
	if cfg.TelegramToken != "" {
		bot, err = tg.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			log.Errorw("failed initializing telegram bot, delivery disabled", "err", err)
			bot = nil
		}
	}

	clk := clock.New()
	gate := plan.NewGate(st, clk)
	sender := channel.NewMeta(channel.MetaConfig{
		WhatsAppAccessToken:   cfg.WhatsAppToken,
		WhatsAppPhoneNumberID: cfg.WhatsAppPhoneID,
		InstagramAccessToken:  cfg.InstagramToken,
		InstagramPageID:       cfg.InstagramPageID,
	}, log)
	todos := todo.NewService(st, gate, sender, clk, log)
	rulesSvc := rules.NewService(st, gate)
	emitter := notify.NewEmitter(st, &notify.LogMailer{Logger: log}, bot, log)
	hooks := webhook.NewHandler(todos, st, cfg.WebhookVerifyToken, log)
	handler := api.NewHandler(st, todos, rulesSvc, gate, emitter, hooks, log)

	engine := scheduler.New(st, emitter, clk, log)
	go engine.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infow("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("http server failed", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("http shutdown failed", "err", err)
	}
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
