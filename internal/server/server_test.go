package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"roommate_go/internal/identity"
	"roommate_go/internal/testutil"
	"roommate_go/models"
	"roommate_go/pkg/telegram"

	"github.com/gin-gonic/gin"
)

const botToken = "123456:bot-token"

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return New(Deps{
		Repo:        testutil.Repo(),
		Signer:      identity.NewHMACSigner("jwt-secret"),
		SecretToken: botToken,
	})
}

func do(r http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, r http.Handler, id, name string) string {
	t.Helper()
	params := map[string]string{"id": id, "first_name": name, "auth_date": "1700000000"}
	params["hash"] = telegram.Sign(params, botToken)
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	w := do(r, http.MethodGet, "/auth/register?"+q.Encode(), "", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("регистрация вернула %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("в ответе нет токена: %s", w.Body.String())
	}
	return resp.Token
}

func TestHealth(t *testing.T) {
	w := do(newRouter(t), http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("/health вернул %d", w.Code)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	r := newRouter(t)
	if w := do(r, http.MethodGet, "/api/users/me", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("без токена ожидался 401, получено %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/users/me", "garbage", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("с испорченным токеном ожидался 401, получено %d", w.Code)
	}
}

func TestRegisterThenMe(t *testing.T) {
	r := newRouter(t)
	token := register(t, r, "9536", "John")

	w := do(r, http.MethodGet, "/api/users/me", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("/api/users/me вернул %d: %s", w.Code, w.Body.String())
	}
	var u models.User
	if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil {
		t.Fatalf("ответ не разбирается: %v", err)
	}
	if u.TelegramID != 9536 || u.Profile.FirstName != "John" {
		t.Fatalf("получен пользователь %+v", u)
	}

	params := map[string]string{"id": "9536", "first_name": "John", "auth_date": "1700000000"}
	params["hash"] = telegram.Sign(params, botToken)
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	if w := do(r, http.MethodGet, "/auth/register?"+q.Encode(), "", ""); w.Code != http.StatusConflict {
		t.Fatalf("повторная регистрация: ожидался 409, получено %d", w.Code)
	}
}

func TestCreateAllocationDefaultsCreator(t *testing.T) {
	r := newRouter(t)
	token := register(t, r, "1", "Anna")

	w := do(r, http.MethodPost, "/api/allocations", token, `{"name":"Лагерь"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("создание расселения вернуло %d: %s", w.Code, w.Body.String())
	}
	var a models.Allocation
	if err := json.Unmarshal(w.Body.Bytes(), &a); err != nil {
		t.Fatalf("ответ не разбирается: %v", err)
	}
	if a.State != models.AllocationCreating {
		t.Fatalf("начальное состояние %s", a.State)
	}

	me := do(r, http.MethodGet, "/api/users/me", token, "")
	var u models.User
	_ = json.Unmarshal(me.Body.Bytes(), &u)
	if a.CreatorID != u.ID {
		t.Fatalf("создатель %s, ожидался %s", a.CreatorID, u.ID)
	}

	if w := do(r, http.MethodGet, "/api/allocations/not-a-uuid", token, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("неверный id: ожидался 400, получено %d", w.Code)
	}
}
