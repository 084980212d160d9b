package formfield

import (
	"net/http"

	"roommate_go/internal/httputil"
	"roommate_go/internal/middleware"
	"roommate_go/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler обслуживает вопросы анкеты и ответы на них.
type Handler struct {
	Service *Service
	log     *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{Service: svc, log: log}
}

// Create добавляет вопрос в анкету кампании.
func (h *Handler) Create(c *gin.Context) {
	var in models.CreateFormField
	if !httputil.BindJSON(c, h.log, &in) {
		return
	}
	if in.CreatorID == uuid.Nil {
		in.CreatorID = middleware.CurrentIdentity(c).UserID
	}
	f, err := h.Service.Create(c.Request.Context(), in)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

// Get отдаёт вопрос со счётчиками.
func (h *Handler) Get(c *gin.Context) {
	id, ok := httputil.ParamID(c, "id")
	if !ok {
		return
	}
	f, err := h.Service.Read(c.Request.Context(), id)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// Update меняет вопрос; у замороженного менять текст и варианты нельзя.
func (h *Handler) Update(c *gin.Context) {
	id, ok := httputil.ParamID(c, "id")
	if !ok {
		return
	}
	var in models.UpdateFormField
	if !httputil.BindJSON(c, h.log, &in) {
		return
	}
	in.ID = id
	f, err := h.Service.Update(c.Request.Context(), in)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := httputil.ParamID(c, "id")
	if !ok {
		return
	}
	f, err := h.Service.Delete(c.Request.Context(), id)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// Batch отдаёт вопросы по списку id.
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

// ---- ответы ----

// CreateAnswer принимает ответ на вопрос.
func (h *Handler) CreateAnswer(c *gin.Context) {
	var in models.CreateAnswer
	if !httputil.BindJSON(c, h.log, &in) {
		return
	}
	a, err := h.Service.CreateAnswer(c.Request.Context(), in)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// GetAnswer отдаёт ответ по id.
func (h *Handler) GetAnswer(c *gin.Context) {
	id, ok := httputil.ParamID(c, "id")
	if !ok {
		return
	}
	a, err := h.Service.ReadAnswer(c.Request.Context(), id)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// UpdateAnswer меняет ответ и пересчитывает счётчики.
func (h *Handler) UpdateAnswer(c *gin.Context) {
	id, ok := httputil.ParamID(c, "id")
	if !ok {
		return
	}
	var in models.UpdateAnswer
	if !httputil.BindJSON(c, h.log, &in) {
		return
	}
	in.ID = id
	a, err := h.Service.UpdateAnswer(c.Request.Context(), in)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAnswer(c *gin.Context) {
	id, ok := httputil.ParamID(c, "id")
	if !ok {
		return
	}
	a, err := h.Service.DeleteAnswer(c.Request.Context(), id)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// BatchAnswers отдаёт ответы по списку id.
func (h *Handler) BatchAnswers(c *gin.Context) {
	var in httputil.IDsRequest
	if !httputil.BindJSON(c, h.log, &in) {
		return
	}
	out, err := h.Service.ReadAnswers(c.Request.Context(), in.IDs)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
