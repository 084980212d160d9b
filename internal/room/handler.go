package room

import (
	"net/http"

	"roommate_go/internal/httputil"
	"roommate_go/internal/middleware"
	"roommate_go/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler обслуживает /rooms.
type Handler struct {
	Service *Service
	log     *zap.Logger
}

// NewHandler создаёт обработчик комнат.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{Service: svc, log: log}
}

func (h *Handler) Create(c *gin.Context) {
	var in models.CreateRoom
	if !httputil.BindJSON(c, h.log, &in) {
		return
	}
	if in.CreatorID == uuid.Nil {
		in.CreatorID = middleware.CurrentIdentity(c).UserID
	}
	r, err := h.Service.Create(c.Request.Context(), in)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// Get отдаёт комнату по id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := httputil.ParamID(c, "id")
	if !ok {
		return
	}
	r, err := h.Service.Read(c.Request.Context(), id)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Update применяет патч к комнате из пути.
func (h *Handler) Update(c *gin.Context) {
	id, ok := httputil.ParamID(c, "id")
	if !ok {
		return
	}
	var in models.UpdateRoom
	if !httputil.BindJSON(c, h.log, &in) {
		return
	}
	in.ID = id
	r, err := h.Service.Update(c.Request.Context(), in)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Delete удаляет комнату.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := httputil.ParamID(c, "id")
	if !ok {
		return
	}
	r, err := h.Service.Delete(c.Request.Context(), id)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) Batch(c *gin.Context) {
	var in httputil.IDsRequest
	if !httputil.BindJSON(c, h.log, &in) {
		return
	}
	out, err := h.Service.ReadMany(c.Request.Context(), in.IDs)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

