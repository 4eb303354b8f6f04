package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/hbd/internal/client/migrations"
	"github.com/dmitrijs2005/hbd/internal/client/repositories/birthdays"
	"github.com/dmitrijs2005/hbd/internal/client/repositories/metadata"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Repositories groups the local stores opened over one database.
type Repositories struct {
	DB        *sql.DB
	Metadata  metadata.Repository
	Birthdays birthdays.Repository
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite file at dsn and brings its schema up to date.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dsn, err)
	}

	return &Repositories{
		DB:        db,
		Metadata:  metadata.NewSQLiteRepository(db),
		Birthdays: birthdays.NewSQLiteRepository(db),
	}, nil
}
