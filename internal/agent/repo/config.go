package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/energy-exec/server/internal/agent/model"
	errx "github.com/energy-exec/server/internal/core/error"
	logx "github.com/energy-exec/server/pkg/logger"
)

type SQLConfigRepository struct {
	store *Store
}

func NewConfigRepository(store *Store) *SQLConfigRepository {
	return &SQLConfigRepository{store: store}
}

func (r *SQLConfigRepository) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var value string
	err := r.store.db.QueryRowContext(ctx, r.store.rebind("SELECT value FROM config WHERE key = ?"), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to read config")
		return nil, false, errx.WrapStore(err)
	}
	return json.RawMessage(value), true, nil
}

func (r *SQLConfigRepository) Set(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to marshal config value")
		return fmt.Errorf("marshal config %s: %w", key, err)
	}

	_, err = r.store.db.ExecContext(ctx, r.store.rebind(
		`INSERT INTO config (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		key, string(b), r.store.nowMillis())
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to write config")
		return errx.WrapStore(err)
	}
	return nil
}

func (r *SQLConfigRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.store.db.ExecContext(ctx, r.store.rebind("DELETE FROM config WHERE key = ?"), key); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete config")
		return errx.WrapStore(err)
	}
	return nil
}

// Entries lists every key with its raw value, for inspection.
func (r *SQLConfigRepository) Entries(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := r.store.db.QueryContext(ctx, "SELECT key, value FROM config ORDER BY key")
	if err != nil {
		return nil, errx.WrapStore(err)
	}
	defer rows.Close()

	out := map[string]json.RawMessage{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, errx.WrapStore(err)
		}
		out[k] = json.RawMessage(v)
	}
	return out, errx.WrapStore(rows.Err())
}

var _ model.ConfigRepository = (*SQLConfigRepository)(nil)
