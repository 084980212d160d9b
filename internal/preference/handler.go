package preference

import (
	"net/http"

	"roommate_go/internal/httputil"
	"roommate_go/internal/middleware"
	"roommate_go/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler обслуживает /preferences.
type Handler struct {
	Service *Service
	log     *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{Service: svc, log: log}
}

// Create сохраняет предпочтение участника.
func (h *Handler) Create(c *gin.Context) {
	var in models.CreatePreference
	if !httputil.BindJSON(c, h.log, &in) {
		return
	}
	if in.UserID == uuid.Nil {
		in.UserID = middleware.CurrentIdentity(c).UserID
	}
	p, err := h.Service.Create(c.Request.Context(), in)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Get отдаёт предпочтение по id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := httputil.ParamID(c, "id")
	if !ok {
		return
	}
	p, err := h.Service.Read(c.Request.Context(), id)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Update меняет предпочтение из пути.
func (h *Handler) Update(c *gin.Context) {
	id, ok := httputil.ParamID(c, "id")
	if !ok {
		return
	}
	var in models.UpdatePreference
	if !httputil.BindJSON(c, h.log, &in) {
		return
	}
	in.ID = id
	p, err := h.Service.Update(c.Request.Context(), in)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := httputil.ParamID(c, "id")
	if !ok {
		return
	}
	p, err := h.Service.Delete(c.Request.Context(), id)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Batch отдаёт предпочтения по списку id.
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


// Find отдаёт предпочтения ?user_id= к ?target_id=; user_id по умолчанию — автор запроса.
func (h *Handler) Find(c *gin.Context) {
	userID := middleware.CurrentIdentity(c).UserID
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondError(c, http.StatusBadRequest, "invalid user_id")
			return
		}
		userID = id
	}
	targetID, err := uuid.Parse(c.Query("target_id"))
	if err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "invalid target_id")
		return
	}
	out, err := h.Service.Find(c.Request.Context(), userID, targetID)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
