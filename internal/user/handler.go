package user

import (
	"net/http"
	"strconv"

	"roommate_go/internal/httputil"
	"roommate_go/internal/middleware"
	"roommate_go/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler обслуживает /users.
type Handler struct {
	Service *Service
	log     *zap.Logger
}

// NewHandler создаёт обработчик пользователей.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{Service: svc, log: log}
}

// Me возвращает пользователя из токена.
func (h *Handler) Me(c *gin.Context) {
	u, err := h.Service.Read(c.Request.Context(), middleware.CurrentIdentity(c).UserID)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateMe обновляет профиль пользователя из токена.
func (h *Handler) UpdateMe(c *gin.Context) {
	var in models.UpdateUser
	if !httputil.BindJSON(c, h.log, &in) {
		return
	}
	in.ID = middleware.CurrentIdentity(c).UserID
	u, err := h.Service.Update(c.Request.Context(), in)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// DeleteMe мягко удаляет профиль текущего пользователя.
func (h *Handler) DeleteMe(c *gin.Context) {
	u, err := h.Service.Delete(c.Request.Context(), middleware.CurrentIdentity(c).UserID)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Get отдаёт пользователя по id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := httputil.ParamID(c, "id")
	if !ok {
		return
	}
	u, err := h.Service.Read(c.Request.Context(), id)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// GetByTelegramID ищет пользователя по Telegram ID из пути.
func (h *Handler) GetByTelegramID(c *gin.Context) {
	tgID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "invalid telegram_id")
		return
	}
	u, err := h.Service.FindByTelegramID(c.Request.Context(), tgID)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Search ищет пользователей по ?username=.
func (h *Handler) Search(c *gin.Context) {
	users, err := h.Service.FindByUsername(c.Request.Context(), c.Query("username"))
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}

// Batch отдаёт пользователей по списку id; на месте отсутствующих null.
func (h *Handler) Batch(c *gin.Context) {
	var in httputil.IDsRequest
	if !httputil.BindJSON(c, h.log, &in) {
		return
	}
	users, err := h.Service.ReadMany(c.Request.Context(), in.IDs)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
