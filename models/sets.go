package models

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/google/uuid"
)

// IDSet — множество идентификаторов. В JSON выводится отсортированным массивом,
// чтобы представление документа было детерминированным.
// В структурах обновления nil означает «оставить как есть».
type IDSet map[uuid.UUID]struct{}

// NewIDSet создаёт множество из перечисленных идентификаторов.
func NewIDSet(ids ...uuid.UUID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Len() int { return len(s) }

// With возвращает новое множество с добавленными идентификаторами.
func (s IDSet) With(ids ...uuid.UUID) IDSet {
	out := s.Clone()
	if out == nil {
		out = make(IDSet, len(ids))
	}
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// Without возвращает новое множество без указанных идентификаторов.
func (s IDSet) Without(ids ...uuid.UUID) IDSet {
	out := s.Clone()
	if out == nil {
		out = IDSet{}
	}
	for _, id := range ids {
		delete(out, id)
	}
	return out
}

// Clone копирует множество; nil остаётся nil.
func (s IDSet) Clone() IDSet {
	if s == nil {
		return nil
	}
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Slice возвращает элементы в порядке возрастания байтового представления.
// Для UUIDv7 это совпадает с порядком создания.
func (s IDSet) Slice() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

func (s IDSet) Equal(o IDSet) bool {
	if len(s) != len(o) {
		return false
	}
	for id := range s {
		if !o.Has(id) {
			return false
		}
	}
	return true
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []uuid.UUID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// IndexSet — множество индексов вариантов ответа.
type IndexSet map[int]struct{}

func NewIndexSet(idx ...int) IndexSet {
	s := make(IndexSet, len(idx))
	for _, i := range idx {
		s[i] = struct{}{}
	}
	return s
}

func (s IndexSet) Has(i int) bool {
	_, ok := s[i]
	return ok
}

func (s IndexSet) Len() int { return len(s) }

// Slice возвращает индексы по возрастанию.
func (s IndexSet) Slice() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Diff возвращает индексы, которые есть в s, но отсутствуют в o.
func (s IndexSet) Diff(o IndexSet) []int {
	var out []int
	for _, i := range s.Slice() {
		if !o.Has(i) {
			out = append(out, i)
		}
	}
	return out
}

func (s IndexSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *IndexSet) UnmarshalJSON(data []byte) error {
	var idx []int
	if err := json.Unmarshal(data, &idx); err != nil {
		return err
	}
	*s = NewIndexSet(idx...)
	return nil
}
