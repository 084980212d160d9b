package storage

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"roommate_go/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

func newMockCollection(t *testing.T) (*PostgresCollection[models.Room, *models.Room], sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("не удалось создать sqlmock: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewPostgresCollection[models.Room](NewDB(conn, nil), RoomsCollection, tickingClock()), mock
}

func roomBody(t *testing.T, id uuid.UUID, name string) []byte {
	t.Helper()
	body, err := json.Marshal(models.Room{Base: models.Base{ID: id}, Name: name, Capacity: 2})
	if err != nil {
		t.Fatalf("не удалось сериализовать комнату: %v", err)
	}
	return body
}

func TestPostgresReadFiltersDeleted(t *testing.T) {
	coll, mock := newMockCollection(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT body FROM documents")).
		WithArgs(RoomsCollection, id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow(roomBody(t, id, "101")))

	room, err := coll.Read(context.Background(), id)
	if err != nil {
		t.Fatalf("чтение завершилось ошибкой: %v", err)
	}
	if room.Name != "101" || room.Occupied == nil {
		t.Fatalf("неверно разобрана комната: %+v", room)
	}

	mock.ExpectQuery(regexp.QuoteMeta("deleted_at IS NULL")).
		WithArgs(RoomsCollection, id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"body"}))
	if _, err := coll.Read(context.Background(), id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ожидался ErrNotFound, получено %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("не все запросы выполнены: %v", err)
	}
}

func TestPostgresCreateConflict(t *testing.T) {
	coll, mock := newMockCollection(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := coll.Create(context.Background(), models.Room{Name: "101"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("ожидался ErrConflict, получено %v", err)
	}
}

func TestPostgresUnavailable(t *testing.T) {
	coll, mock := newMockCollection(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WillReturnError(errors.New("connection refused"))

	_, err := coll.Create(context.Background(), models.Room{Name: "101"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("ожидался ErrUnavailable, получено %v", err)
	}
}

func TestPostgresReadManyOrder(t *testing.T) {
	coll, mock := newMockCollection(t)
	a, b, missing := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, body FROM documents WHERE collection = $1 AND id = ANY($2) AND deleted_at IS NULL")).
		WithArgs(RoomsCollection, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "body"}).
			AddRow(a.String(), roomBody(t, a, "A")).
			AddRow(b.String(), roomBody(t, b, "B")))

	got, err := coll.ReadMany(context.Background(), []uuid.UUID{b, missing, a})
	if err != nil {
		t.Fatalf("ReadMany завершился ошибкой: %v", err)
	}
	if got[0] == nil || got[0].Name != "B" || got[1] != nil || got[2] == nil || got[2].Name != "A" {
		t.Fatalf("порядок не сохранён: %v", got)
	}
}

func TestPostgresFindBuildsPathFilter(t *testing.T) {
	coll, mock := newMockCollection(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("body #>> $2::text[] = $3")).
		WithArgs(RoomsCollection, sqlmock.AnyArg(), "101").
		WillReturnRows(sqlmock.NewRows([]string{"id", "body"}).AddRow(id.String(), roomBody(t, id, "101")))

	rooms, err := coll.Find(context.Background(), Filter{"name": "101"})
	if err != nil {
		t.Fatalf("поиск завершился ошибкой: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != id {
		t.Fatalf("неверный результат поиска: %v", rooms)
	}
}
