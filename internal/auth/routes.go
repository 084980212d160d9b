package auth

import (
	"roommate_go/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes регистрирует маршруты входа; limiter может быть nil.
func SetupRoutes(r *gin.RouterGroup, h *Handler, limiter *middleware.RateLimiter) {
	if limiter != nil {
		r.Use(limiter.Handler())
	}
	r.GET("/register", h.Register)
	r.GET("/login", h.Login)
}
