package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"roommate_go/models"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// DB — подключение к Postgres, где все сущности лежат в таблице documents
// в виде JSONB вместе с отметками времени.
type DB struct {
	Conn *sqlx.DB
	log  *zap.Logger
}

func NewDB(conn *sql.DB, log *zap.Logger) *DB {
	if log == nil {
		log = zap.NewNop()
	}
	return &DB{Conn: sqlx.NewDb(conn, "postgres"), log: log}
}

// NewPostgresRepository создаёт хранилище поверх Postgres.
func NewPostgresRepository(db *DB, now func() time.Time) *Repository {
	return &Repository{
		Users:        NewPostgresCollection[models.User](db, UsersCollection, now),
		Allocations:  NewPostgresCollection[models.Allocation](db, AllocationsCollection, now),
		FormFields:   NewPostgresCollection[models.FormField](db, FormFieldsCollection, now),
		Answers:      NewPostgresCollection[models.Answer](db, AnswersCollection, now),
		Participants: NewPostgresCollection[models.Participant](db, ParticipantsCollection, now),
		Rooms:        NewPostgresCollection[models.Room](db, RoomsCollection, now),
		Preferences:  NewPostgresCollection[models.Preference](db, PreferencesCollection, now),
	}
}

// PostgresCollection — коллекция документов одного типа в таблице documents.
type PostgresCollection[T any, P Doc[T]] struct {
	db   *DB
	name string
	now  func() time.Time
}

func NewPostgresCollection[T any, P Doc[T]](db *DB, name string, now func() time.Time) *PostgresCollection[T, P] {
	if now == nil {
		now = utcNow
	}
	return &PostgresCollection[T, P]{db: db, name: name, now: now}
}

var _ Collection[models.Room] = (*PostgresCollection[models.Room, *models.Room])(nil)

type documentRow struct {
	ID   string `db:"id"`
	Body []byte `db:"body"`
}

func (c *PostgresCollection[T, P]) Name() string { return c.name }

// unavailable оборачивает ошибку драйвера и пишет её в лог.
func (c *PostgresCollection[T, P]) unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	c.db.log.Error("[DB ERROR] запрос к коллекции завершился ошибкой",
		zap.String("collection", c.name), zap.String("op", op), zap.Error(err))
	return errors.Wrap(ErrUnavailable, err.Error())
}

func (c *PostgresCollection[T, P]) Create(ctx context.Context, doc T) (T, error) {
	var zero T
	stamp[T, P](&doc, c.now())
	body, err := encode[T, P](&doc)
	if err != nil {
		return zero, err
	}
	meta := P(&doc).Meta()
	query := `
               INSERT INTO documents (collection, id, body, created_at, updated_at)
               VALUES ($1, $2, $3, $4, $5)
       `
	_, err = c.db.Conn.ExecContext(ctx, query, c.name, meta.ID.String(), body, meta.CreatedAt, meta.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return zero, ErrConflict
		}
		return zero, c.unavailable("create", err)
	}
	return decode[T, P](body)
}

func (c *PostgresCollection[T, P]) Read(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T
	var body []byte
	query := `
               SELECT body FROM documents
               WHERE collection = $1 AND id = $2 AND deleted_at IS NULL
       `
	err := c.db.Conn.GetContext(ctx, &body, query, c.name, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, c.unavailable("read", err)
	}
	return decode[T, P](body)
}

func (c *PostgresCollection[T, P]) Update(ctx context.Context, doc T) (T, error) {
	var zero T
	meta := P(&doc).Meta()
	prev, err := c.Read(ctx, meta.ID)
	if err != nil {
		return zero, err
	}
	meta.CreatedAt = P(&prev).Meta().CreatedAt
	meta.UpdatedAt = c.now()
	meta.DeletedAt = nil
	body, err := encode[T, P](&doc)
	if err != nil {
		return zero, err
	}
	query := `
               UPDATE documents SET body = $3, updated_at = $4
               WHERE collection = $1 AND id = $2 AND deleted_at IS NULL
       `
	res, err := c.db.Conn.ExecContext(ctx, query, c.name, meta.ID.String(), body, meta.UpdatedAt)
	if err != nil {
		return zero, c.unavailable("update", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return zero, ErrNotFound
	}
	return decode[T, P](body)
}

func (c *PostgresCollection[T, P]) Delete(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T
	doc, err := c.Read(ctx, id)
	if err != nil {
		return zero, err
	}
	now := c.now()
	meta := P(&doc).Meta()
	meta.DeletedAt = &now
	meta.UpdatedAt = now
	body, err := encode[T, P](&doc)
	if err != nil {
		return zero, err
	}
	query := `
               UPDATE documents SET body = $3, updated_at = $4, deleted_at = $4
               WHERE collection = $1 AND id = $2 AND deleted_at IS NULL
       `
	res, err := c.db.Conn.ExecContext(ctx, query, c.name, id.String(), body, now)
	if err != nil {
		return zero, c.unavailable("delete", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return zero, ErrNotFound
	}
	return doc, nil
}

func (c *PostgresCollection[T, P]) ReadMany(ctx context.Context, ids []uuid.UUID, opts ...ReadOption) ([]*T, error) {
	out := make([]*T, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	o := applyReadOptions(opts)
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	query := `SELECT id, body FROM documents WHERE collection = $1 AND id = ANY($2)`
	if !o.withDeleted {
		query += ` AND deleted_at IS NULL`
	}
	var rows []documentRow
	if err := c.db.Conn.SelectContext(ctx, &rows, query, c.name, pq.Array(keys)); err != nil {
		return nil, c.unavailable("read_many", err)
	}
	byID := make(map[string][]byte, len(rows))
	for _, r := range rows {
		byID[r.ID] = r.Body
	}
	for i, key := range keys {
		body, ok := byID[key]
		if !ok {
			continue
		}
		doc, err := decode[T, P](body)
		if err != nil {
			return nil, err
		}
		out[i] = &doc
	}
	return out, nil
}

func (c *PostgresCollection[T, P]) Find(ctx context.Context, filter Filter) ([]T, error) {
	query := `SELECT id, body FROM documents WHERE collection = $1 AND deleted_at IS NULL`
	args := []any{c.name}
	for _, path := range sortedKeys(filter) {
		args = append(args, pq.Array(strings.Split(path, ".")), textOf(filter[path]))
		query += " AND body #>> $" + itoa(len(args)-1) + "::text[] = $" + itoa(len(args))
	}
	query += ` ORDER BY created_at, id`
	return c.selectDocs(ctx, "find", query, args...)
}

func (c *PostgresCollection[T, P]) All(ctx context.Context, opts ...ReadOption) ([]T, error) {
	o := applyReadOptions(opts)
	query := `SELECT id, body FROM documents WHERE collection = $1`
	if !o.withDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY created_at, id`
	return c.selectDocs(ctx, "all", query, c.name)
}

func (c *PostgresCollection[T, P]) selectDocs(ctx context.Context, op, query string, args ...any) ([]T, error) {
	var rows []documentRow
	if err := c.db.Conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, c.unavailable(op, err)
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		doc, err := decode[T, P](r.Body)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}
