package storage

import (
	"context"
	"sync"
	"time"

	"roommate_go/models"

	"github.com/google/uuid"
)

// MemoryCollection хранит документы в памяти процесса в виде JSON,
// поэтому вызывающий код никогда не получает общих ссылок на данные.
type MemoryCollection[T any, P Doc[T]] struct {
	name  string
	now   func() time.Time
	mu    sync.RWMutex
	docs  map[uuid.UUID][]byte
	live  map[uuid.UUID]bool
	order []uuid.UUID
}

// NewMemoryCollection создаёт пустую коллекцию.
func NewMemoryCollection[T any, P Doc[T]](name string, now func() time.Time) *MemoryCollection[T, P] {
	if now == nil {
		now = utcNow
	}
	return &MemoryCollection[T, P]{
		name: name,
		now:  now,
		docs: make(map[uuid.UUID][]byte),
		live: make(map[uuid.UUID]bool),
	}
}

var _ Collection[models.User] = (*MemoryCollection[models.User, *models.User])(nil)

func (c *MemoryCollection[T, P]) Name() string { return c.name }

func (c *MemoryCollection[T, P]) Create(ctx context.Context, doc T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	stamp[T, P](&doc, c.now())
	data, err := encode[T, P](&doc)
	if err != nil {
		return zero, err
	}
	id := P(&doc).Meta().ID

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.docs[id]; exists {
		return zero, ErrConflict
	}
	c.docs[id] = data
	c.live[id] = true
	c.order = append(c.order, id)
	return decode[T, P](data)
}

func (c *MemoryCollection[T, P]) Read(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	c.mu.RLock()
	data, ok := c.docs[id]
	live := c.live[id]
	c.mu.RUnlock()
	if !ok || !live {
		return zero, ErrNotFound
	}
	return decode[T, P](data)
}

func (c *MemoryCollection[T, P]) Update(ctx context.Context, doc T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	meta := P(&doc).Meta()

	c.mu.Lock()
	defer c.mu.Unlock()
	old, ok := c.docs[meta.ID]
	if !ok || !c.live[meta.ID] {
		return zero, ErrNotFound
	}
	prev, err := decode[T, P](old)
	if err != nil {
		return zero, err
	}
	meta.CreatedAt = P(&prev).Meta().CreatedAt
	meta.UpdatedAt = c.now()
	meta.DeletedAt = nil
	data, err := encode[T, P](&doc)
	if err != nil {
		return zero, err
	}
	c.docs[meta.ID] = data
	return decode[T, P](data)
}

func (c *MemoryCollection[T, P]) Delete(ctx context.Context, id uuid.UUID) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	old, ok := c.docs[id]
	if !ok || !c.live[id] {
		return zero, ErrNotFound
	}
	doc, err := decode[T, P](old)
	if err != nil {
		return zero, err
	}
	now := c.now()
	meta := P(&doc).Meta()
	meta.DeletedAt = &now
	meta.UpdatedAt = now
	data, err := encode[T, P](&doc)
	if err != nil {
		return zero, err
	}
	c.docs[id] = data
	c.live[id] = false
	return doc, nil
}

func (c *MemoryCollection[T, P]) ReadMany(ctx context.Context, ids []uuid.UUID, opts ...ReadOption) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := applyReadOptions(opts)
	out := make([]*T, len(ids))

	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, id := range ids {
		data, ok := c.docs[id]
		if !ok || (!c.live[id] && !o.withDeleted) {
			continue
		}
		doc, err := decode[T, P](data)
		if err != nil {
			return nil, err
		}
		out[i] = &doc
	}
	return out, nil
}

func (c *MemoryCollection[T, P]) Find(ctx context.Context, filter Filter) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []T
	for _, id := range c.order {
		if !c.live[id] {
			continue
		}
		ok, err := matches(c.docs[id], filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		doc, err := decode[T, P](c.docs[id])
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *MemoryCollection[T, P]) All(ctx context.Context, opts ...ReadOption) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := applyReadOptions(opts)
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		if !c.live[id] && !o.withDeleted {
			continue
		}
		doc, err := decode[T, P](c.docs[id])
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func utcNow() time.Time { return time.Now().UTC() }
