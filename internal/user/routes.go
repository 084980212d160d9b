package user

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes регистрирует маршруты пользователей.
func SetupRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/me", h.Me)
	r.PATCH("/me", h.UpdateMe)
	r.DELETE("/me", h.DeleteMe)
	r.GET("", h.Search)
	r.POST("/batch", h.Batch)
	r.GET("/by-telegram/:telegram_id", h.GetByTelegramID)
	r.GET("/:id", h.Get)
}
