package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"roommate_go/internal/apperr"
	"roommate_go/internal/identity"
	"roommate_go/internal/testutil"
	"roommate_go/internal/user"
	"roommate_go/pkg/storage"
	"roommate_go/pkg/telegram"
)

const botToken = "123456:bot-token"

func newService(repo *storage.Repository) (*Service, identity.Signer) {
	signer := identity.NewHMACSigner("jwt-secret")
	return NewService(user.NewService(repo, nil), signer, botToken, 0, nil), signer
}

func loginParams(id, firstName string) map[string]string {
	params := map[string]string{"id": id, "first_name": firstName, "auth_date": "1700000000"}
	params["hash"] = telegram.Sign(params, botToken)
	return params
}

func TestRegisterIssuesToken(t *testing.T) {
	ctx := context.Background()
	repo := testutil.Repo()
	svc, signer := newService(repo)

	session, err := svc.Register(ctx, loginParams("9536", "John"))
	if err != nil {
		t.Fatalf("регистрация не удалась: %v", err)
	}
	if session.User.TelegramID != 9536 || session.User.Profile.FirstName != "John" {
		t.Fatalf("неверный пользователь: %+v", session.User)
	}
	id, err := identity.Decode(session.Token, signer)
	if err != nil {
		t.Fatalf("токен не декодируется: %v", err)
	}
	if id.TelegramID != 9536 || id.UserID != session.User.ID {
		t.Fatalf("токен содержит %+v, ожидался пользователь %s", id, session.User.ID)
	}
}

func TestRegisterTwiceFails(t *testing.T) {
	ctx := context.Background()
	repo := testutil.Repo()
	svc, _ := newService(repo)

	params := loginParams("9536", "John")
	if _, err := svc.Register(ctx, params); err != nil {
		t.Fatalf("первая регистрация не удалась: %v", err)
	}
	_, err := svc.Register(ctx, params)
	if !errors.Is(err, apperr.ErrUserAlreadyExists) {
		t.Fatalf("ожидалась UserAlreadyExists, получено %v", err)
	}
	users, err := repo.FindUsersByTelegramID(ctx, 9536)
	if err != nil || len(users) != 1 {
		t.Fatalf("ожидался один пользователь, найдено %d (%v)", len(users), err)
	}
}

func TestRegisterRejectsBadHash(t *testing.T) {
	svc, _ := newService(testutil.Repo())
	params := loginParams("9536", "John")
	params["first_name"] = "Jane"
	if _, err := svc.Register(context.Background(), params); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Fatalf("ожидалась InvalidCredentials, получено %v", err)
	}
}

func TestRegisterRejectsMalformedID(t *testing.T) {
	svc, _ := newService(testutil.Repo())
	if _, err := svc.Register(context.Background(), loginParams("abc", "John")); !errors.Is(err, apperr.ErrValidationFailed) {
		t.Fatalf("ожидалась ValidationFailed, получено %v", err)
	}
}

func TestLoginExpired(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(testutil.Repo())
	svc.maxAge = time.Hour
	svc.now = func() time.Time { return time.Unix(1700000000, 0).Add(2 * time.Hour) }

	if _, err := svc.Login(ctx, loginParams("9536", "John")); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Fatalf("ожидалась InvalidCredentials для устаревших данных, получено %v", err)
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	repo := testutil.Repo()
	svc, _ := newService(repo)

	if _, err := svc.Login(ctx, loginParams("9536", "John")); !errors.Is(err, apperr.ErrUserNotFound) {
		t.Fatalf("ожидалась UserNotFound, получено %v", err)
	}
	u := testutil.User(t, repo, 9536, "John")
	session, err := svc.Login(ctx, loginParams("9536", "John"))
	if err != nil {
		t.Fatalf("вход не удался: %v", err)
	}
	if session.User.ID != u.ID || session.Token == "" {
		t.Fatalf("вход выдал %+v", session)
	}
}
