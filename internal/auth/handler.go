package auth

import (
	"net/http"

	"roommate_go/internal/httputil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler обслуживает вход через Telegram.
type Handler struct {
	Service *Service
	log     *zap.Logger
}

// NewHandler создаёт обработчик входа.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{Service: svc, log: log}
}

// queryParams берёт первое значение каждого параметра строки запроса.
func queryParams(c *gin.Context) map[string]string {
	out := make(map[string]string)
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// Register заводит пользователя по подписанным данным виджета и выдаёт токен.
func (h *Handler) Register(c *gin.Context) {
	s, err := h.Service.Register(c.Request.Context(), queryParams(c))
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

// Login проверяет данные виджета и выдаёт токен существующему пользователю.
func (h *Handler) Login(c *gin.Context) {
	s, err := h.Service.Login(c.Request.Context(), queryParams(c))
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
