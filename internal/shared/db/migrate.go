package db

import (
	"context"
	"database/sql"
	"io/fs"
	"sort"
)

// Migrate applies every .sql file of fsys in name order. Files must be idempotent.
func Migrate(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return Wrap("db.migrate", err)
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return Wrap("db.migrate", err)
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return Wrap("db.migrate "+name, err)
		}
	}
	return nil
}
