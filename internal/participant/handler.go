package participant

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"roommate_go/internal/httputil"
	"roommate_go/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier доставляет пользователю сообщение в Telegram.
type Notifier interface {
	Notify(ctx context.Context, telegramID int64, text string, spans []models.FormatSpan) error
}

// Handler обслуживает /participants и рекомендации.
type Handler struct {
	Service  *Service
	notifier Notifier
	log      *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewHandler создаёт обработчик; notifier может быть nil, тогда уведомления не отправляются.
func NewHandler(svc *Service, notifier Notifier, log *zap.Logger) *Handler {
	return &Handler{
		Service:  svc,
		notifier: notifier,
		log:      log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create записывает пользователя в кампанию.
func (h *Handler) Create(c *gin.Context) {
	var in models.CreateParticipant
	if !httputil.BindJSON(c, h.log, &in) {
		return
	}
	p, err := h.Service.Create(c.Request.Context(), in)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Get отдаёт участника по id.
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

func (h *Handler) Update(c *gin.Context) {
	id, ok := httputil.ParamID(c, "id")
	if !ok {
		return
	}
	var in models.UpdateParticipant
	if !httputil.BindJSON(c, h.log, &in) {
		return
	}
	in.ID = id
	before, err := h.Service.Read(c.Request.Context(), id)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	p, err := h.Service.Update(c.Request.Context(), in)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	if p.State == models.ParticipantAllocated && (before.State != p.State || !sameRoom(before.RoomID, p.RoomID)) {
		h.notifyPlacement(c.Request.Context(), p)
	}
	c.JSON(http.StatusOK, p)
}

func sameRoom(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// notifyPlacement отправляет уведомление в фоне, не задерживая ответ.
func (h *Handler) notifyPlacement(ctx context.Context, p models.Participant) {
	if h.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		u, room, err := h.Service.Placement(ctx, p)
		if err != nil {
			h.log.Warn("[NOTIFIER] не удалось подготовить уведомление", zap.String("participant", p.ID.String()), zap.Error(err))
			return
		}
		text, spans := placementText(u, room)
		if err := h.notifier.Notify(ctx, u.TelegramID, text, spans); err != nil {
			h.log.Warn("[NOTIFIER] уведомление не доставлено", zap.Int64("telegram_id", u.TelegramID), zap.Error(err))
		}
	}()
}

// placementText выделяет название комнаты жирным.
func placementText(u models.User, room models.Room) (string, []models.FormatSpan) {
	prefix := fmt.Sprintf("%s, вас расселили в комнату ", u.Profile.FirstName)
	text := prefix + "«" + room.Name + "»."
	span := models.FormatSpan{
		Option: models.SpanBold,
		Offset: models.UTF16Len(prefix),
		Length: models.UTF16Len("«" + room.Name + "»"),
	}
	return text, []models.FormatSpan{span}
}

// Delete удаляет участника вместе со ссылками на него.
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

// Batch отдаёт участников по списку id.
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

func (h *Handler) pair(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	self, ok := httputil.ParamID(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	other, ok := httputil.ParamID(c, "other")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return self, other, true
}

// MarkViewed отмечает other просмотренным участником id.
func (h *Handler) MarkViewed(c *gin.Context) {
	self, other, ok := h.pair(c)
	if !ok {
		return
	}
	p, err := h.Service.MarkViewed(c.Request.Context(), self, other)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Subscribe подписывает участника id на other.
func (h *Handler) Subscribe(c *gin.Context) {
	self, other, ok := h.pair(c)
	if !ok {
		return
	}
	p, err := h.Service.Subscribe(c.Request.Context(), self, other)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Unsubscribe снимает подписку id на other.
func (h *Handler) Unsubscribe(c *gin.Context) {
	self, other, ok := h.pair(c)
	if !ok {
		return
	}
	p, err := h.Service.Unsubscribe(c.Request.Context(), self, other)
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Recommendations отдаёт случайных активных участников кампании ?allocation_id=.
func (h *Handler) Recommendations(c *gin.Context, userID uuid.UUID) {
	allocationID, err := uuid.Parse(c.Query("allocation_id"))
	if err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "invalid allocation_id")
		return
	}
	h.rngMu.Lock()
	seed := h.rng.Int63()
	h.rngMu.Unlock()
	out, err := h.Service.Recommendations(c.Request.Context(), userID, allocationID, rand.New(rand.NewSource(seed)))
	if err != nil {
		httputil.RespondAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
