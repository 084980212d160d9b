package cli

import (
	"context"
	"database/sql"
	"time"

	"roommate_go/internal/config"
	"roommate_go/pkg/storage"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// backend — открытое хранилище и функция его закрытия.
type backend struct {
	Repo *storage.Repository
	// SQL заполнен только для Postgres.
	SQL   *sql.DB
	Close func()
}

// connectRetry повторяет проверку соединения, пока база поднимается.
func connectRetry(ctx context.Context, log *zap.Logger, what string, ping func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = time.Minute
	return backoff.RetryNotify(func() error {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return ping(pctx)
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		log.Warn("[STORAGE] база недоступна, повтор", zap.String("backend", what), zap.Duration("next", next), zap.Error(err))
	})
}

func openStorage(ctx context.Context, cfg config.Config, log *zap.Logger) (*backend, error) {
	switch cfg.Storage {
	case "postgres":
		conn, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "open postgres")
		}
		if err := connectRetry(ctx, log, "postgres", conn.PingContext); err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "ping postgres")
		}
		repo := storage.NewPostgresRepository(storage.NewDB(conn, log), nil)
		return &backend{Repo: repo, SQL: conn, Close: func() { conn.Close() }}, nil
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, errors.Wrap(err, "connect mongo")
		}
		ping := func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
		if err := connectRetry(ctx, log, "mongo", ping); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, errors.Wrap(err, "ping mongo")
		}
		repo := storage.NewMongoRepository(client.Database(cfg.MongoDatabase), log, nil)
		return &backend{Repo: repo, Close: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}}, nil
	default:
		log.Warn("[STORAGE] данные хранятся в памяти и пропадут при перезапуске")
		return &backend{Repo: storage.NewMemoryRepository(nil), Close: func() {}}, nil
	}
}
