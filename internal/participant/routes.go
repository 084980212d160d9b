package participant

import (
	"roommate_go/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes регистрирует маршруты участников.
func SetupRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("", h.Create)
	r.POST("/batch", h.Batch)
	r.GET("/recommendations", func(c *gin.Context) {
		h.Recommendations(c, middleware.CurrentIdentity(c).UserID)
	})
	r.GET("/:id", h.Get)
	r.PATCH("/:id", h.Update)
	r.DELETE("/:id", h.Delete)
	r.POST("/:id/viewed/:other", h.MarkViewed)
	r.POST("/:id/subscriptions/:other", h.Subscribe)
	r.DELETE("/:id/subscriptions/:other", h.Unsubscribe)
}
