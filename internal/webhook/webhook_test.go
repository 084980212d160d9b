package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roommate_go/internal/testutil"
	"roommate_go/internal/user"
	"roommate_go/models"

	"github.com/gin-gonic/gin"
)

type sent struct {
	telegramID int64
	text       string
	spans      []models.FormatSpan
}

type chanNotifier chan sent

func (n chanNotifier) Notify(_ context.Context, telegramID int64, text string, spans []models.FormatSpan) error {
	n <- sent{telegramID: telegramID, text: text, spans: spans}
	return nil
}

const startUpdate = `{"update_id":10,"message":{"message_id":1,"from":{"id":9536,"first_name":"John"},
"text":"/start@roommate_bot hello","entities":[{"type":"bot_command","offset":0,"length":19},{"type":"bold","offset":20,"length":5}]}}`

func TestParse(t *testing.T) {
	m, ok := Parse([]byte(startUpdate))
	if !ok {
		t.Fatalf("обновление не разобрано")
	}
	if m.UpdateID != 10 || m.FromID != 9536 || m.FirstName != "John" {
		t.Fatalf("разобрано %+v", m)
	}
	if m.Command() != "start" {
		t.Fatalf("команда %q", m.Command())
	}
	if len(m.Entities) != 1 || m.Entities[0].Option != models.SpanBold || m.Entities[0].Offset != 20 {
		t.Fatalf("разметка %+v", m.Entities)
	}

	if _, ok := Parse([]byte(`{"update_id":1,"edited_channel_post":{}}`)); ok {
		t.Fatalf("обновление без сообщения не должно разбираться")
	}
	if _, ok := Parse([]byte(`not json`)); ok {
		t.Fatalf("некорректный JSON не должен разбираться")
	}
	if (Message{Text: "hello"}).Command() != "" {
		t.Fatalf("обычный текст не команда")
	}
}

func newRouter(users *user.Service, n Notifier, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupRoutes(r.Group("/webhook"), NewHandler(users, n, secret, nil))
	return r
}

func post(r http.Handler, secret, body string) int {
	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", strings.NewReader(body))
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestWebhookSecret(t *testing.T) {
	r := newRouter(user.NewService(testutil.Repo(), nil), nil, "hook-secret")
	if code := post(r, "", startUpdate); code != http.StatusUnauthorized {
		t.Fatalf("без секрета ожидался 401, получено %d", code)
	}
	if code := post(r, "wrong", startUpdate); code != http.StatusUnauthorized {
		t.Fatalf("с неверным секретом ожидался 401, получено %d", code)
	}
	if code := post(r, "hook-secret", startUpdate); code != http.StatusOK {
		t.Fatalf("с верным секретом ожидался 200, получено %d", code)
	}
}

func TestStartGreetsRegisteredUser(t *testing.T) {
	repo := testutil.Repo()
	testutil.User(t, repo, 9536, "Иван")
	n := make(chanNotifier, 1)
	r := newRouter(user.NewService(repo, nil), n, "")

	if code := post(r, "", startUpdate); code != http.StatusOK {
		t.Fatalf("ожидался 200, получено %d", code)
	}
	select {
	case m := <-n:
		if m.telegramID != 9536 || m.text != "С возвращением, Иван!" {
			t.Fatalf("ответ %+v", m)
		}
		if len(m.spans) != 1 || m.spans[0].Offset != 16 || m.spans[0].Length != 4 {
			t.Fatalf("имя не выделено: %+v", m.spans)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("ответ не отправлен")
	}
}

func TestStartInvitesUnknownUser(t *testing.T) {
	n := make(chanNotifier, 1)
	r := newRouter(user.NewService(testutil.Repo(), nil), n, "")
	post(r, "", startUpdate)
	select {
	case m := <-n:
		if !strings.HasPrefix(m.text, "Привет, John!") {
			t.Fatalf("ответ %q", m.text)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("ответ не отправлен")
	}
}

func TestMalformedUpdateAcknowledged(t *testing.T) {
	r := newRouter(user.NewService(testutil.Repo(), nil), nil, "")
	if code := post(r, "", "{"); code != http.StatusOK {
		t.Fatalf("некорректное обновление должно подтверждаться, получено %d", code)
	}
}
