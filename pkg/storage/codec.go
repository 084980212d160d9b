package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"roommate_go/models"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

type normalizer interface {
	Normalize()
}

// encode сериализует документ в JSON.
func encode[T any, P Doc[T]](doc *T) ([]byte, error) {
	if n, ok := any(P(doc)).(normalizer); ok {
		n.Normalize()
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(ErrDataShape, err.Error())
	}
	return data, nil
}

// decode разбирает JSON в документ и приводит его к согласованному виду.
func decode[T any, P Doc[T]](data []byte) (T, error) {
	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, errors.Wrap(ErrDataShape, err.Error())
	}
	if n, ok := any(P(&doc)).(normalizer); ok {
		n.Normalize()
	}
	return doc, nil
}

// stamp выставляет идентификатор и отметки времени нового документа.
func stamp[T any, P Doc[T]](doc *T, now time.Time) {
	m := P(doc).Meta()
	if m.ID == uuid.Nil {
		m.ID = models.NewID()
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	m.DeletedAt = nil
}

// lookup достаёт значение по пути через точку из разобранного JSON.
func lookup(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// textOf приводит значение к тому же текстовому виду, что и оператор #>> в Postgres.
func textOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// matches проверяет JSON-документ на соответствие фильтру.
func matches(data []byte, filter Filter) (bool, error) {
	if len(filter) == 0 {
		return true, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return false, errors.Wrap(ErrDataShape, err.Error())
	}
	for path, want := range filter {
		got, ok := lookup(doc, path)
		if !ok || textOf(got) != textOf(want) {
			return false, nil
		}
	}
	return true, nil
}
