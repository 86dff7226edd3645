package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/energy-exec/server/internal/agent/model"
	errx "github.com/energy-exec/server/internal/core/error"
	logx "github.com/energy-exec/server/pkg/logger"
)

const messageColumns = "id, chat_message_id, direction, content, created_at"

type SQLMessageLogRepository struct {
	store *Store
}

func NewMessageLogRepository(store *Store) *SQLMessageLogRepository {
	return &SQLMessageLogRepository{store: store}
}

func (r *SQLMessageLogRepository) Append(ctx context.Context, e model.MessageLogEntry) (*model.MessageLogEntry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.store.now()
	}
	err := r.store.db.QueryRowContext(ctx, r.store.rebind(
		"INSERT INTO messages (chat_message_id, direction, content, created_at) VALUES (?, ?, ?, ?) RETURNING id"),
		e.ChatMessageID, string(e.Direction), e.Content, e.CreatedAt.UnixMilli(),
	).Scan(&e.ID)
	if err != nil {
		logx.Error().Err(err).Int64("chat_message_id", e.ChatMessageID).Str("direction", string(e.Direction)).
			Msg("failed to append message log")
		return nil, errx.WrapStore(err)
	}
	e.CreatedAt = time.UnixMilli(e.CreatedAt.UnixMilli()).UTC()
	return &e, nil
}

func (r *SQLMessageLogRepository) GetByChatMessageID(ctx context.Context, chatMessageID int64) (*model.MessageLogEntry, error) {
	row := r.store.db.QueryRowContext(ctx, r.store.rebind(
		"SELECT "+messageColumns+" FROM messages WHERE chat_message_id = ? ORDER BY id LIMIT 1"), chatMessageID)
	e, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errx.WrapStore(err)
	}
	return e, nil
}

func (r *SQLMessageLogRepository) ListRecent(ctx context.Context, limit int) ([]model.MessageLogEntry, error) {
	if limit <= 0 {
		return []model.MessageLogEntry{}, nil
	}
	return r.list(ctx, "SELECT "+messageColumns+" FROM messages ORDER BY created_at DESC, id DESC LIMIT ?", limit)
}

func (r *SQLMessageLogRepository) ListByDate(ctx context.Context, date string) ([]model.MessageLogEntry, error) {
	day, err := time.ParseInLocation(model.DateLayout, date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return r.list(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE created_at >= ? AND created_at < ? ORDER BY created_at, id",
		day.UnixMilli(), day.Add(24*time.Hour).UnixMilli())
}

func (r *SQLMessageLogRepository) list(ctx context.Context, query string, args ...any) ([]model.MessageLogEntry, error) {
	rows, err := r.store.db.QueryContext(ctx, r.store.rebind(query), args...)
	if err != nil {
		logx.Error().Err(err).Msg("failed to query message log")
		return nil, errx.WrapStore(err)
	}
	defer rows.Close()

	out := []model.MessageLogEntry{}
	for rows.Next() {
		e, err := scanMessage(rows)
		if err != nil {
			return nil, errx.WrapStore(err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapStore(err)
	}
	return out, nil
}

func scanMessage(row rowScanner) (*model.MessageLogEntry, error) {
	var (
		e         model.MessageLogEntry
		direction string
		createdAt int64
	)
	if err := row.Scan(&e.ID, &e.ChatMessageID, &direction, &e.Content, &createdAt); err != nil {
		return nil, err
	}
	e.Direction = model.Direction(direction)
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &e, nil
}

var _ model.MessageLogRepository = (*SQLMessageLogRepository)(nil)
