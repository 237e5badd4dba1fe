package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Stream executes query and hands each scanned row to yield, one at a time.
// It stops early when yield returns false; the cursor is always closed.
func Stream[T any](ctx context.Context, query *gorm.DB, yield func(T) bool) error {
	rows, err := query.Rows()
	if err != nil {
		return fmt.Errorf("open cursor: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		var item T
		if err := query.ScanRows(rows, &item); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		if !yield(item) {
			return nil
		}
	}
	return rows.Err()
}
