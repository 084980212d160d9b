// Package webhook принимает обновления Bot API и отвечает на команды бота.
package webhook

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"roommate_go/internal/apperr"
	"roommate_go/internal/httputil"
	"roommate_go/internal/user"
	"roommate_go/models"
	"roommate_go/pkg/telegram"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// SecretHeader — заголовок, которым Telegram подтверждает подлинность вызова.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Notifier отправляет ответ пользователю.
type Notifier interface {
	Notify(ctx context.Context, telegramID int64, text string, spans []models.FormatSpan) error
}

// Message — входящее текстовое сообщение.
type Message struct {
	UpdateID  int64
	FromID    int64
	FirstName string
	Text      string
	Entities  []models.FormatSpan
}

// Command возвращает команду без "/" и упоминания бота, либо пустую строку.
func (m Message) Command() string {
	if !strings.HasPrefix(m.Text, "/") {
		return ""
	}
	cmd := strings.Fields(m.Text)[0][1:]
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return cmd
}

// Parse извлекает сообщение из обновления. ok == false, если это не текстовое сообщение.
func Parse(body []byte) (Message, bool) {
	if !gjson.ValidBytes(body) {
		return Message{}, false
	}
	root := gjson.ParseBytes(body)
	msg := root.Get("message")
	if !msg.Exists() || !msg.Get("text").Exists() {
		return Message{}, false
	}
	m := Message{
		UpdateID:  root.Get("update_id").Int(),
		FromID:    msg.Get("from.id").Int(),
		FirstName: msg.Get("from.first_name").String(),
		Text:      msg.Get("text").String(),
	}
	msg.Get("entities").ForEach(func(_, e gjson.Result) bool {
		span, ok := telegram.SpanFromBotAPI(e.Get("type").String(), int(e.Get("offset").Int()),
			int(e.Get("length").Int()), e.Get("url").String(), e.Get("language").String())
		if ok {
			m.Entities = append(m.Entities, span)
		}
		return true
	})
	return m, m.FromID != 0
}

// Handler принимает обновления Telegram и отвечает на /start.
type Handler struct {
	users    *user.Service
	notifier Notifier
	secret   string
	log      *zap.Logger
}

// NewHandler создаёт обработчик; пустой secret отключает проверку заголовка.
func NewHandler(users *user.Service, notifier Notifier, secret string, log *zap.Logger) *Handler {
	return &Handler{users: users, notifier: notifier, secret: secret, log: log}
}

// Handle разбирает обновление и отвечает на команды /start и /help.
func (h *Handler) Handle(c *gin.Context) {
	if h.secret != "" && subtle.ConstantTimeCompare([]byte(c.GetHeader(SecretHeader)), []byte(h.secret)) != 1 {
		httputil.RespondError(c, http.StatusUnauthorized, "invalid secret token")
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "cannot read body")
		return
	}
	m, ok := Parse(body)
	if ok {
		switch m.Command() {
		case "start":
			h.replyStart(c.Request.Context(), m)
		case "help":
			h.reply(c.Request.Context(), m.FromID, "Команды: /start — проверить регистрацию.", nil)
		}
	}
	// Telegram повторяет доставку при любом ответе, кроме 2xx.
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) replyStart(ctx context.Context, m Message) {
	u, err := h.users.FindByTelegramID(ctx, m.FromID)
	switch {
	case err == nil:
		text := fmt.Sprintf("С возвращением, %s!", u.Profile.FirstName)
		var spans []models.FormatSpan
		if span, ok := models.SpanOf(text, u.Profile.FirstName, models.SpanBold); ok {
			spans = append(spans, span)
		}
		h.reply(ctx, m.FromID, text, spans)
	case apperr.KindOf(err) == apperr.UserNotFound:
		h.reply(ctx, m.FromID, fmt.Sprintf("Привет, %s! Войдите через виджет Telegram на сайте, чтобы участвовать в расселении.", m.FirstName), nil)
	default:
		h.log.Error("[WEBHOOK] ошибка поиска пользователя", zap.Int64("telegram_id", m.FromID), zap.Error(err))
	}
}

// reply отправляет ответ в фоне, чтобы не задерживать подтверждение вебхука.
func (h *Handler) reply(ctx context.Context, telegramID int64, text string, spans []models.FormatSpan) {
	if h.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := h.notifier.Notify(ctx, telegramID, text, spans); err != nil {
			h.log.Warn("[WEBHOOK] ответ не доставлен", zap.Int64("telegram_id", telegramID), zap.Error(err))
		}
	}()
}
