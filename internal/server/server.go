// Package server собирает HTTP-роутер сервиса из доменных пакетов.
package server

import (
	"net/http"
	"time"

	"roommate_go/internal/allocation"
	"roommate_go/internal/auth"
	"roommate_go/internal/export"
	"roommate_go/internal/formfield"
	"roommate_go/internal/identity"
	"roommate_go/internal/metrics"
	"roommate_go/internal/middleware"
	"roommate_go/internal/participant"
	"roommate_go/internal/preference"
	"roommate_go/internal/room"
	"roommate_go/internal/user"
	"roommate_go/internal/webhook"
	"roommate_go/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps — зависимости роутера.
type Deps struct {
	Repo   *storage.Repository
	Signer identity.Signer
	// SecretToken — токен бота, которым подписаны данные виджета входа.
	SecretToken string
	AuthMaxAge  time.Duration
	// Notifier может быть nil, тогда уведомления не отправляются.
	Notifier       participant.Notifier
	WebhookSecret  string
	RateLimitRPS   float64
	RateLimitBurst int
	Log            *zap.Logger
}

func New(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), metrics.Middleware())

	users := user.NewService(d.Repo, log)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	var limiter *middleware.RateLimiter
	if d.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(d.RateLimitRPS, d.RateLimitBurst, log)
	}
	authSvc := auth.NewService(users, d.Signer, d.SecretToken, d.AuthMaxAge, log)
	auth.SetupRoutes(r.Group("/auth"), auth.NewHandler(authSvc, log), limiter)

	webhook.SetupRoutes(r.Group("/webhook"), webhook.NewHandler(users, d.Notifier, d.WebhookSecret, log))

	api := r.Group("/api", middleware.AuthRequired(d.Signer, log))
	user.SetupRoutes(api.Group("/users"), user.NewHandler(users, log))
	allocation.SetupRoutes(api.Group("/allocations"), allocation.NewHandler(allocation.NewService(d.Repo, log), log))
	participant.SetupRoutes(api.Group("/participants"),
		participant.NewHandler(participant.NewService(d.Repo, log), d.Notifier, log))
	formfield.SetupRoutes(api.Group("/form-fields"), api.Group("/answers"),
		formfield.NewHandler(formfield.NewService(d.Repo, log), log))
	room.SetupRoutes(api.Group("/rooms"), room.NewHandler(room.NewService(d.Repo, log), log))
	preference.SetupRoutes(api.Group("/preferences"), preference.NewHandler(preference.NewService(d.Repo, log), log))
	api.GET("/export", export.NewHandler(d.Repo, log).Export)

	log.Info("[ROUTER] маршруты зарегистрированы", zap.Int("routes", len(r.Routes())))
	return r
}
