package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production Store implementation, backed by a single
// tenant_data table keyed (nest_id, data_type, key) with a jsonb value
// column (see migrations/0001_tenant_data.up.sql).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an already-connected pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Put(ctx context.Context, nestID string, dataType DataType, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling value for %s/%s/%s: %w", nestID, dataType, key, err)
	}

	const q = `
		INSERT INTO tenant_data (nest_id, data_type, key, value, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (nest_id, data_type, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, q, nestID, string(dataType), key, raw); err != nil {
		return fmt.Errorf("%w: put %s/%s/%s: %v", ErrStoreUnavailable, nestID, dataType, key, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, nestID string, dataType DataType, key string, dst any) error {
	const q = `SELECT value FROM tenant_data WHERE nest_id = $1 AND data_type = $2 AND key = $3`

	var raw []byte
	err := s.pool.QueryRow(ctx, q, nestID, string(dataType), key).Scan(&raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("%w: get %s/%s/%s: %v", ErrStoreUnavailable, nestID, dataType, key, err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("unmarshaling value for %s/%s/%s: %w", nestID, dataType, key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, nestID string, dataType DataType, key string) error {
	const q = `DELETE FROM tenant_data WHERE nest_id = $1 AND data_type = $2 AND key = $3`
	if _, err := s.pool.Exec(ctx, q, nestID, string(dataType), key); err != nil {
		return fmt.Errorf("%w: delete %s/%s/%s: %v", ErrStoreUnavailable, nestID, dataType, key, err)
	}
	return nil
}

func (s *PostgresStore) ListByType(ctx context.Context, nestID string, dataType DataType, dst any) error {
	const q = `SELECT value FROM tenant_data WHERE nest_id = $1 AND data_type = $2`

	rows, err := s.pool.Query(ctx, q, nestID, string(dataType))
	if err != nil {
		return fmt.Errorf("%w: list %s/%s: %v", ErrStoreUnavailable, nestID, dataType, err)
	}
	defer rows.Close()

	var values []json.RawMessage
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("%w: scanning %s/%s row: %v", ErrStoreUnavailable, nestID, dataType, err)
		}
		values = append(values, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterating %s/%s rows: %v", ErrStoreUnavailable, nestID, dataType, err)
	}

	assembled, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("assembling list result for %s/%s: %w", nestID, dataType, err)
	}
	if err := json.Unmarshal(assembled, dst); err != nil {
		return fmt.Errorf("unmarshaling list result for %s/%s: %w", nestID, dataType, err)
	}
	return nil
}
