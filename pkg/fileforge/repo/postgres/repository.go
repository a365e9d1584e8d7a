// Package postgres provides a PostgreSQL-backed conversion history
// repository. Schema lives under migrations/.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fileforge/fileforge/pkg/fileforge"
)

// DBTX is an interface that allows us to use either a database connection or
// a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements fileforge.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// handlePostgresError maps driver errors to something callers can log.
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("conversion record already exists")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) SaveRecord(ctx context.Context, record *fileforge.ConversionRecord) error {
	query := `
		INSERT INTO conversion_record (
			id, owner_id, tool, public_id, filename, size, resource_class, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		record.ID, record.OwnerID, record.Tool, record.PublicID,
		record.Filename, record.Size, string(record.ResourceClass), record.CreatedAt)
	if err != nil {
		return r.handlePostgresError("save record", err)
	}

	return nil
}

func (r *Repository) ListRecords(ctx context.Context, ownerID string) ([]*fileforge.ConversionRecord, error) {
	query := `
		SELECT id, owner_id, tool, public_id, filename, size, resource_class, created_at
		FROM conversion_record
		WHERE owner_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, r.handlePostgresError("list records", err)
	}
	defer rows.Close()

	var records []*fileforge.ConversionRecord
	for rows.Next() {
		var rec fileforge.ConversionRecord
		var class string
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.Tool, &rec.PublicID,
			&rec.Filename, &rec.Size, &class, &rec.CreatedAt); err != nil {
			return nil, r.handlePostgresError("scan record", err)
		}
		rec.ResourceClass = fileforge.ResourceClass(class)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list records", err)
	}

	return records, nil
}

func (r *Repository) DeleteRecord(ctx context.Context, ownerID, publicID string) error {
	query := `DELETE FROM conversion_record WHERE owner_id = $1 AND public_id = $2`

	// Deleting a missing row is not an error.
	if _, err := r.db.Exec(ctx, query, ownerID, publicID); err != nil {
		return r.handlePostgresError("delete record", err)
	}

	return nil
}
