package storage

import (
	"context"
	"time"

	"roommate_go/models"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// NewMongoRepository создаёт хранилище поверх базы MongoDB, по коллекции на сущность.
func NewMongoRepository(db *mongo.Database, log *zap.Logger, now func() time.Time) *Repository {
	return &Repository{
		Users:        NewMongoCollection[models.User](db, UsersCollection, log, now),
		Allocations:  NewMongoCollection[models.Allocation](db, AllocationsCollection, log, now),
		FormFields:   NewMongoCollection[models.FormField](db, FormFieldsCollection, log, now),
		Answers:      NewMongoCollection[models.Answer](db, AnswersCollection, log, now),
		Participants: NewMongoCollection[models.Participant](db, ParticipantsCollection, log, now),
		Rooms:        NewMongoCollection[models.Room](db, RoomsCollection, log, now),
		Preferences:  NewMongoCollection[models.Preference](db, PreferencesCollection, log, now),
	}
}

// MongoCollection хранит документ как BSON-копию его JSON-представления.
// Поле _id совпадает с каноническим строковым видом идентификатора.
type MongoCollection[T any, P Doc[T]] struct {
	coll *mongo.Collection
	name string
	log  *zap.Logger
	now  func() time.Time
}

func NewMongoCollection[T any, P Doc[T]](db *mongo.Database, name string, log *zap.Logger, now func() time.Time) *MongoCollection[T, P] {
	if now == nil {
		now = utcNow
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MongoCollection[T, P]{coll: db.Collection(name), name: name, log: log, now: now}
}

var _ Collection[models.Answer] = (*MongoCollection[models.Answer, *models.Answer])(nil)

func (c *MongoCollection[T, P]) Name() string { return c.name }

func liveFilter(id uuid.UUID) bson.M {
	return bson.M{"_id": id.String(), "deleted_at": bson.M{"$exists": false}}
}

// toBSON переводит документ в bson.M через JSON, чтобы теги json оставались единственной схемой.
func toBSON[T any, P Doc[T]](doc *T) (bson.M, error) {
	body, err := encode[T, P](doc)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.UnmarshalExtJSON(body, false, &m); err != nil {
		return nil, errors.Wrap(ErrDataShape, err.Error())
	}
	m["_id"] = P(doc).Meta().ID.String()
	return m, nil
}

func fromBSON[T any, P Doc[T]](raw bson.Raw) (T, error) {
	var zero T
	body, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return zero, errors.Wrap(ErrDataShape, err.Error())
	}
	return decode[T, P](body)
}

func (c *MongoCollection[T, P]) unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	c.log.Error("[MONGO ERROR] запрос к коллекции завершился ошибкой",
		zap.String("collection", c.name), zap.String("op", op), zap.Error(err))
	return errors.Wrap(ErrUnavailable, err.Error())
}

func (c *MongoCollection[T, P]) Create(ctx context.Context, doc T) (T, error) {
	var zero T
	stamp[T, P](&doc, c.now())
	m, err := toBSON[T, P](&doc)
	if err != nil {
		return zero, err
	}
	if _, err := c.coll.InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return zero, ErrConflict
		}
		return zero, c.unavailable("create", err)
	}
	return c.roundTrip(&doc)
}

// roundTrip возвращает документ в том виде, в каком его вернёт чтение.
func (c *MongoCollection[T, P]) roundTrip(doc *T) (T, error) {
	var zero T
	body, err := encode[T, P](doc)
	if err != nil {
		return zero, err
	}
	return decode[T, P](body)
}

func (c *MongoCollection[T, P]) Read(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T
	raw, err := c.coll.FindOne(ctx, liveFilter(id)).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, c.unavailable("read", err)
	}
	return fromBSON[T, P](raw)
}

func (c *MongoCollection[T, P]) Update(ctx context.Context, doc T) (T, error) {
	var zero T
	meta := P(&doc).Meta()
	prev, err := c.Read(ctx, meta.ID)
	if err != nil {
		return zero, err
	}
	meta.CreatedAt = P(&prev).Meta().CreatedAt
	meta.UpdatedAt = c.now()
	meta.DeletedAt = nil
	m, err := toBSON[T, P](&doc)
	if err != nil {
		return zero, err
	}
	res, err := c.coll.ReplaceOne(ctx, liveFilter(meta.ID), m)
	if err != nil {
		return zero, c.unavailable("update", err)
	}
	if res.MatchedCount == 0 {
		return zero, ErrNotFound
	}
	return c.roundTrip(&doc)
}

func (c *MongoCollection[T, P]) Delete(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T
	doc, err := c.Read(ctx, id)
	if err != nil {
		return zero, err
	}
	now := c.now()
	meta := P(&doc).Meta()
	meta.DeletedAt = &now
	meta.UpdatedAt = now
	m, err := toBSON[T, P](&doc)
	if err != nil {
		return zero, err
	}
	res, err := c.coll.ReplaceOne(ctx, liveFilter(id), m)
	if err != nil {
		return zero, c.unavailable("delete", err)
	}
	if res.MatchedCount == 0 {
		return zero, ErrNotFound
	}
	return doc, nil
}

func (c *MongoCollection[T, P]) ReadMany(ctx context.Context, ids []uuid.UUID, opts ...ReadOption) ([]*T, error) {
	out := make([]*T, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	o := applyReadOptions(opts)
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	filter := bson.M{"_id": bson.M{"$in": keys}}
	if !o.withDeleted {
		filter["deleted_at"] = bson.M{"$exists": false}
	}
	byID := make(map[string]*T, len(ids))
	err := c.each(ctx, "read_many", filter, nil, func(doc T) {
		d := doc
		byID[P(&d).Meta().ID.String()] = &d
	})
	if err != nil {
		return nil, err
	}
	for i, key := range keys {
		if d, ok := byID[key]; ok {
			cp := *d
			out[i] = &cp
		}
	}
	return out, nil
}

func (c *MongoCollection[T, P]) Find(ctx context.Context, filter Filter) ([]T, error) {
	q := bson.M{"deleted_at": bson.M{"$exists": false}}
	for path, v := range filter {
		q[path] = v
	}
	var out []T
	err := c.each(ctx, "find", q, creationOrder(), func(doc T) { out = append(out, doc) })
	return out, err
}

func (c *MongoCollection[T, P]) All(ctx context.Context, opts ...ReadOption) ([]T, error) {
	o := applyReadOptions(opts)
	q := bson.M{}
	if !o.withDeleted {
		q["deleted_at"] = bson.M{"$exists": false}
	}
	var out []T
	err := c.each(ctx, "all", q, creationOrder(), func(doc T) { out = append(out, doc) })
	return out, err
}

// creationOrder сортирует по _id: строки UUIDv7 упорядочены так же, как время создания.
// created_at хранится строкой RFC3339Nano без хвостовых нулей и для сортировки не годится.
func creationOrder() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
}

func (c *MongoCollection[T, P]) each(ctx context.Context, op string, filter bson.M, opts *options.FindOptions, fn func(T)) error {
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	cur, err := c.coll.Find(ctx, filter, findOpts...)
	if err != nil {
		return c.unavailable(op, err)
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		doc, err := fromBSON[T, P](cur.Current)
		if err != nil {
			return err
		}
		fn(doc)
	}
	if err := cur.Err(); err != nil {
		return c.unavailable(op, err)
	}
	return nil
}
