package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gotd/td/session"
)

func TestDBSessionStorage(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("не удалось создать sqlmock: %v", err)
	}
	defer conn.Close()
	s := &DBSessionStorage{DB: conn, BotID: 123456}
	ctx := context.Background()

	mock.ExpectQuery("SELECT data_json FROM bot_session").WithArgs(int64(123456)).
		WillReturnRows(sqlmock.NewRows([]string{"data_json"}))
	if _, err := s.LoadSession(ctx); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("ожидалась session.ErrNotFound, получено %v", err)
	}

	mock.ExpectExec("INSERT INTO bot_session").WithArgs(int64(123456), `{"Version":1}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := s.StoreSession(ctx, []byte(`{"Version":1}`)); err != nil {
		t.Fatalf("сессия не сохранена: %v", err)
	}

	mock.ExpectQuery("SELECT data_json FROM bot_session").WithArgs(int64(123456)).
		WillReturnRows(sqlmock.NewRows([]string{"data_json"}).AddRow(`{"Version":1}`))
	data, err := s.LoadSession(ctx)
	if err != nil || string(data) != `{"Version":1}` {
		t.Fatalf("прочитано %q, %v", data, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("не все запросы выполнены: %v", err)
	}
}

func TestNilSessionStorage(t *testing.T) {
	var s *DBSessionStorage
	if _, err := s.LoadSession(context.Background()); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("ожидалась session.ErrNotFound, получено %v", err)
	}
}
