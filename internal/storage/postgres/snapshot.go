package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/marine-storefront/internal/domain/cart"
)

var _ cart.Storage = (*SnapshotStorage)(nil)

const snapshotsTable = "snapshots"

// SnapshotStorage implements cart.Storage backed by the snapshots table.
type SnapshotStorage struct {
	pool *pgxpool.Pool
	sq   squirrel.StatementBuilderType
}

// NewSnapshotStorage returns a SnapshotStorage that uses the given pool.
func NewSnapshotStorage(pool *pgxpool.Pool) *SnapshotStorage {
	return &SnapshotStorage{
		pool: pool,
		sq:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Load returns the snapshot stored under key, or cart.ErrNoSnapshot.
func (r *SnapshotStorage) Load(ctx context.Context, key string) ([]byte, error) {
	query, args, err := r.sq.Select("data").
		From(snapshotsTable).
		Where(squirrel.Eq{"key": key}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build select")
	}

	var data []byte
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNoSnapshot
		}
		return nil, errors.Wrapf(err, "load snapshot %q", key)
	}
	return data, nil
}

// Save upserts the snapshot stored under key.
func (r *SnapshotStorage) Save(ctx context.Context, key string, data []byte) error {
	query, args, err := r.sq.Insert(snapshotsTable).
		Columns("key", "data", "updated_at").
		Values(key, data, squirrel.Expr("now()")).
		Suffix("ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build upsert")
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "save snapshot %q", key)
	}
	return nil
}

// Ping checks database connectivity.
func (r *SnapshotStorage) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
