package webhook

import "github.com/gin-gonic/gin"

// SetupRoutes регистрирует приёмник обновлений бота.
func SetupRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/telegram", h.Handle)
}
