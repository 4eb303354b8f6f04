package birthdays

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/hbd/internal/client/models"
	"github.com/dmitrijs2005/hbd/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, items []models.Birthday) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM birthdays`); err != nil {
			return err
		}
		return dbx.ExecEach(ctx, tx, `INSERT INTO birthdays (position, id, name, date) VALUES (?, ?, ?, ?)`, len(items),
			func(i int) []any { return []any{i, items[i].ID, items[i].Name, items[i].Date} })
	})
	if err != nil {
		return fmt.Errorf("failed to replace birthdays: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Birthday, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, date FROM birthdays ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to select birthdays: %w", err)
	}
	defer rows.Close()

	result := make([]models.Birthday, 0)
	for rows.Next() {
		var b models.Birthday
		if err := rows.Scan(&b.ID, &b.Name, &b.Date); err != nil {
			return nil, fmt.Errorf("failed to scan birthday row: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate birthday rows: %w", err)
	}

	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM birthdays`); err != nil {
		return fmt.Errorf("failed to clear birthdays: %w", err)
	}
	return nil
}
