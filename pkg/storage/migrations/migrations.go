// Package migrations содержит схему Postgres и применяет её при старте.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"sort"

	"github.com/go-faster/errors"
)

//go:embed sql/*.sql
var files embed.FS

// Files возвращает имена файлов миграций в порядке применения.
func Files() ([]string, error) {
	names, err := fs.Glob(files, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Apply выполняет все миграции по порядку. Скрипты идемпотентны,
// поэтому повторный запуск безопасен.
func Apply(ctx context.Context, db *sql.DB) error {
	names, err := Files()
	if err != nil {
		return errors.Wrap(err, "list migrations")
	}
	for _, name := range names {
		script, err := files.ReadFile(name)
		if err != nil {
			return errors.Wrapf(err, "read %s", name)
		}
		if _, err := db.ExecContext(ctx, string(script)); err != nil {
			return errors.Wrapf(err, "apply %s", name)
		}
	}
	return nil
}
