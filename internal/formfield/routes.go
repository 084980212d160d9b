package formfield

import "github.com/gin-gonic/gin"

// SetupRoutes регистрирует вопросы в fields, ответы в answers.
func SetupRoutes(fields, answers *gin.RouterGroup, h *Handler) {
	fields.POST("", h.Create)
	fields.POST("/batch", h.Batch)
	fields.GET("/:id", h.Get)
	fields.PATCH("/:id", h.Update)
	fields.DELETE("/:id", h.Delete)

	answers.POST("", h.CreateAnswer)
	answers.POST("/batch", h.BatchAnswers)
	answers.GET("/:id", h.GetAnswer)
	answers.PATCH("/:id", h.UpdateAnswer)
	answers.DELETE("/:id", h.DeleteAnswer)
}
