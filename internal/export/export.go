// Package export выгружает документы хранилища в сжатый zstd поток NDJSON.
package export

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"roommate_go/pkg/storage"

	"github.com/go-faster/errors"
	"github.com/klauspost/compress/zstd"
)

// Record — одна строка выгрузки.
type Record struct {
	Collection string          `json:"collection"`
	Document   json.RawMessage `json:"document"`
}

// Write выгружает все документы репозитория в w и возвращает их число.
// Удалённые документы попадают в выгрузку только при includeDeleted.
func Write(ctx context.Context, repo *storage.Repository, w io.Writer, includeDeleted bool) (int, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return 0, errors.Wrap(err, "zstd writer")
	}
	lines := json.NewEncoder(enc)
	n := 0
	err = repo.Walk(ctx, includeDeleted, func(collection string, doc any) error {
		body, err := json.Marshal(doc)
		if err != nil {
			return errors.Wrapf(err, "marshal %s", collection)
		}
		n++
		return lines.Encode(Record{Collection: collection, Document: body})
	})
	if err != nil {
		enc.Close()
		return n, err
	}
	if err := enc.Close(); err != nil {
		return n, errors.Wrap(err, "zstd close")
	}
	return n, nil
}

// Read разбирает выгрузку и вызывает fn для каждой записи.
func Read(r io.Reader, fn func(Record) error) error {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return errors.Wrap(err, "zstd reader")
	}
	defer dec.Close()
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return errors.Wrap(err, "decode record")
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return sc.Err()
}
