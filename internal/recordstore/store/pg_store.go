package store

import (
	"context"
	"errors"
	"fmt"

	rerrors "github.com/abgdnv/storefront/internal/recordstore/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const (
	listSQL = `SELECT collection, id, fields, created_at, updated_at
FROM records WHERE collection = $1 ORDER BY seq`
	getSQL = `SELECT collection, id, fields, created_at, updated_at
FROM records WHERE collection = $1 AND id = $2`
	insertSQL = `INSERT INTO records (collection, id, fields) VALUES ($1, $2, $3)
RETURNING collection, id, fields, created_at, updated_at`
	replaceSQL = `UPDATE records SET fields = $3, updated_at = now() WHERE collection = $1 AND id = $2
RETURNING collection, id, fields, created_at, updated_at`
	deleteSQL = `DELETE FROM records WHERE collection = $1 AND id = $2`
)

// PgStore implements RecordStore on a PostgreSQL JSONB table.
type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (p *PgStore) List(ctx context.Context, collection string) ([]Record, error) {
	rows, err := p.db.Query(ctx, listSQL, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	recs, err := pgx.CollectRows(rows, pgx.RowToStructByName[Record])
	if err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}
	return recs, nil
}

func (p *PgStore) Get(ctx context.Context, collection, id string) (*Record, error) {
	return p.one(ctx, "find record", getSQL, collection, id)
}

func (p *PgStore) Insert(ctx context.Context, collection, id string, fields map[string]any) (*Record, error) {
	rec, err := p.one(ctx, "insert record", insertSQL, collection, id, nonNil(fields))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return nil, rerrors.ErrRecordExists
	}
	return rec, err
}

func (p *PgStore) Replace(ctx context.Context, collection, id string, fields map[string]any) (*Record, error) {
	return p.one(ctx, "replace record", replaceSQL, collection, id, nonNil(fields))
}

func (p *PgStore) Delete(ctx context.Context, collection, id string) error {
	tag, err := p.db.Exec(ctx, deleteSQL, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return rerrors.ErrRecordNotFound
	}
	return nil
}

func (p *PgStore) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// one runs a single-row statement. No row maps to ErrRecordNotFound.
func (p *PgStore) one(ctx context.Context, op, sql string, args ...any) (*Record, error) {
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Record])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rerrors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return &rec, nil
}

func nonNil(fields map[string]any) map[string]any {
	if fields == nil {
		return map[string]any{}
	}
	return fields
}
