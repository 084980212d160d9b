package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roommate_go/internal/identity"
	"roommate_go/internal/maintenance"
	"roommate_go/internal/participant"
	"roommate_go/internal/server"
	"roommate_go/pkg/storage/migrations"
	"roommate_go/pkg/telegram"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/gotd/td/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить HTTP API, бота и плановую сверку",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	if cfg.SecretToken == "" {
		return errors.New("SECRET_TOKEN is required to verify Telegram logins")
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()
	if store.SQL != nil {
		if err := migrations.Apply(ctx, store.SQL); err != nil {
			return errors.Wrap(err, "migrate")
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	var notifier participant.Notifier
	if cfg.BotEnabled() {
		var sessions session.Storage = &session.FileStorage{Path: cfg.BotSessionPath}
		if store.SQL != nil {
			botID, err := telegram.BotIDFromToken(cfg.BotToken)
			if err != nil {
				return err
			}
			sessions = &telegram.DBSessionStorage{DB: store.SQL, BotID: botID, Log: log}
		}
		bot := telegram.NewBot(telegram.BotConfig{
			AppID:   cfg.AppID,
			AppHash: cfg.AppHash,
			Token:   cfg.BotToken,
			Storage: sessions,
			Pause:   [2]time.Duration{50 * time.Millisecond, 200 * time.Millisecond},
		}, log)
		notifier = bot
		g.Go(func() error { return runBestEffort(ctx, bot, log) })
	}

	if cfg.ReconcileSchedule != "" {
		sched, err := maintenance.NewScheduler(maintenance.NewReconciler(store.Repo, log), cfg.ReconcileSchedule, log)
		if err != nil {
			return err
		}
		g.Go(func() error { return sched.Run(ctx) })
	}

	router := server.New(server.Deps{
		Repo:           store.Repo,
		Signer:         identity.NewHMACSigner(cfg.JWTSecret),
		SecretToken:    cfg.SecretToken,
		AuthMaxAge:     cfg.AuthMaxAge,
		Notifier:       notifier,
		WebhookSecret:  cfg.WebhookSecret,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Log:            log,
	})
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	g.Go(func() error {
		log.Info("[SERVER] запуск", zap.String("port", cfg.Port), zap.String("storage", cfg.Storage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Info("[SERVER] остановка")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type runner interface {
	Run(ctx context.Context) error
}

// runBestEffort запускает бота так, чтобы его сбой не останавливал HTTP API:
// ошибка пишется в лог, а Notify дальше отвечает ErrBotStopped.
func runBestEffort(ctx context.Context, r runner, log *zap.Logger) error {
	if err := r.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("[BOT] бот остановлен, уведомления отключены", zap.Error(err))
	}
	return nil
}
