package preference

import "github.com/gin-gonic/gin"

// SetupRoutes вешает маршруты предпочтений на группу r.
func SetupRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("", h.Create)
	r.GET("", h.Find)
	r.POST("/batch", h.Batch)
	r.GET("/:id", h.Get)
	r.PATCH("/:id", h.Update)
	r.DELETE("/:id", h.Delete)
}
