package room

import "github.com/gin-gonic/gin"

// SetupRoutes регистрирует маршруты комнат.
func SetupRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("", h.Create)
	r.POST("/batch", h.Batch)
	r.GET("/:id", h.Get)
	r.PATCH("/:id", h.Update)
	r.DELETE("/:id", h.Delete)
}
