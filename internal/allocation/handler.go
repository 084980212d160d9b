package allocation

import (
	"net/http"

	"roommate_go/internal/httputil"
	"roommate_go/internal/middleware"
	"roommate_go/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler обслуживает /allocations.
type Handler struct {
	Service *Service
	log     *zap.Logger
}

// NewHandler создаёт обработчик кампаний.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{Service: svc, log: log}
}

// Create создаёт кампанию; создателем по умолчанию считается автор запроса.
func (h *Handler) Create(c *gin.Context) {
	var in models.CreateAllocation
	if !httputil.BindJSON(c, h.log, &in) {
		return
	}
	if in.CreatorID == uuid.Nil {
		in.CreatorID = middleware.CurrentIdentity(c).UserID
	}
	a, err := h.Service.Create(c.Request.Context(), in)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// Get отдаёт кампанию по id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := httputil.ParamID(c, "id")
	if !ok {
		return
	}
	a, err := h.Service.Read(c.Request.Context(), id)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Update применяет патч к кампании из пути.
func (h *Handler) Update(c *gin.Context) {
	id, ok := httputil.ParamID(c, "id")
	if !ok {
		return
	}
	var in models.UpdateAllocation
	if !httputil.BindJSON(c, h.log, &in) {
		return
	}
	in.ID = id
	a, err := h.Service.Update(c.Request.Context(), in)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := httputil.ParamID(c, "id")
	if !ok {
		return
	}
	a, err := h.Service.Delete(c.Request.Context(), id)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Batch отдаёт кампании по списку id.
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
