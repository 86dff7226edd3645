package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/energy-exec/server/internal/agent/model"
	errx "github.com/energy-exec/server/internal/core/error"
	logx "github.com/energy-exec/server/pkg/logger"
)

const dailyLogColumns = `id, date, body_battery_start, body_battery_end, sleep_notes, mood,
	priorities, appointments, generated_plan, reflections, updated_at`

type SQLDailyLogRepository struct {
	store *Store
}

func NewDailyLogRepository(store *Store) *SQLDailyLogRepository {
	return &SQLDailyLogRepository{store: store}
}

func (r *SQLDailyLogRepository) Get(ctx context.Context, date string) (*model.DailyLog, error) {
	row := r.store.db.QueryRowContext(ctx,
		r.store.rebind("SELECT "+dailyLogColumns+" FROM daily_logs WHERE date = ?"), date)

	l, err := scanDailyLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logx.Error().Err(err).Str("date", date).Msg("failed to read daily log")
		return nil, errx.WrapStore(err)
	}
	return l, nil
}

// Upsert writes only the columns present in patch; ON CONFLICT keeps the others.
func (r *SQLDailyLogRepository) Upsert(ctx context.Context, date string, patch model.DailyLogPatch) (*model.DailyLog, error) {
	cols, args, err := patchColumns(patch)
	if err != nil {
		logx.Error().Err(err).Str("date", date).Msg("failed to encode daily log patch")
		return nil, fmt.Errorf("encode daily log patch: %w", err)
	}
	cols = append(cols, "updated_at")
	args = append(args, r.store.nowMillis())

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)+1), ", ")
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = excluded." + c
	}
	query := fmt.Sprintf(
		"INSERT INTO daily_logs (date, %s) VALUES (%s) ON CONFLICT (date) DO UPDATE SET %s",
		strings.Join(cols, ", "), placeholders, strings.Join(sets, ", "),
	)

	if _, err := r.store.db.ExecContext(ctx, r.store.rebind(query), append([]any{date}, args...)...); err != nil {
		logx.Error().Err(err).Str("date", date).Strs("columns", cols).Msg("failed to upsert daily log")
		return nil, errx.WrapStore(err)
	}

	l, err := r.Get(ctx, date)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, errx.WrapStore(fmt.Errorf("daily log %s missing after upsert", date))
	}
	return l, nil
}

func (r *SQLDailyLogRepository) ListRecent(ctx context.Context, limit int) ([]model.DailyLog, error) {
	if limit <= 0 {
		return []model.DailyLog{}, nil
	}
	rows, err := r.store.db.QueryContext(ctx,
		r.store.rebind("SELECT "+dailyLogColumns+" FROM daily_logs ORDER BY date DESC LIMIT ?"), limit)
	if err != nil {
		logx.Error().Err(err).Int("limit", limit).Msg("failed to list daily logs")
		return nil, errx.WrapStore(err)
	}
	defer rows.Close()

	out := make([]model.DailyLog, 0, limit)
	for rows.Next() {
		l, err := scanDailyLog(rows)
		if err != nil {
			return nil, errx.WrapStore(err)
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapStore(err)
	}
	return out, nil
}

func patchColumns(p model.DailyLogPatch) ([]string, []any, error) {
	var cols []string
	var args []any
	add := func(col string, v any) {
		cols = append(cols, col)
		args = append(args, v)
	}

	if p.BodyBatteryStart != nil {
		add("body_battery_start", sql.NullInt64{Int64: int64(p.BodyBatteryStart.V), Valid: p.BodyBatteryStart.Valid})
	}
	if p.BodyBatteryEnd != nil {
		add("body_battery_end", sql.NullInt64{Int64: int64(p.BodyBatteryEnd.V), Valid: p.BodyBatteryEnd.Valid})
	}
	if p.SleepNotes != nil {
		add("sleep_notes", sql.NullString{String: p.SleepNotes.V, Valid: p.SleepNotes.Valid})
	}
	if p.GeneratedPlan != nil {
		add("generated_plan", sql.NullString{String: p.GeneratedPlan.V, Valid: p.GeneratedPlan.Valid})
	}
	if p.Reflections != nil {
		add("reflections", sql.NullString{String: p.Reflections.V, Valid: p.Reflections.Valid})
	}
	if p.Mood != nil {
		v, err := jsonColumn(p.Mood.V, p.Mood.Valid)
		if err != nil {
			return nil, nil, err
		}
		add("mood", v)
	}
	if p.Priorities != nil {
		v, err := jsonColumn(p.Priorities.V, p.Priorities.Valid)
		if err != nil {
			return nil, nil, err
		}
		add("priorities", v)
	}
	if p.Appointments != nil {
		v, err := jsonColumn(p.Appointments.V, p.Appointments.Valid)
		if err != nil {
			return nil, nil, err
		}
		add("appointments", v)
	}
	return cols, args, nil
}

func jsonColumn(v any, valid bool) (sql.NullString, error) {
	if !valid {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDailyLog(row rowScanner) (*model.DailyLog, error) {
	var (
		l                    model.DailyLog
		start, end           sql.NullInt64
		sleep, plan, reflect sql.NullString
		mood, prios, appts   sql.NullString
		updatedAt            int64
	)
	if err := row.Scan(&l.ID, &l.Date, &start, &end, &sleep, &mood, &prios, &appts, &plan, &reflect, &updatedAt); err != nil {
		return nil, err
	}

	l.BodyBatteryStart = intPtr(start)
	l.BodyBatteryEnd = intPtr(end)
	l.SleepNotes = strPtr(sleep)
	l.GeneratedPlan = strPtr(plan)
	l.Reflections = strPtr(reflect)
	l.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	if mood.Valid {
		var m model.Mood
		if err := json.Unmarshal([]byte(mood.String), &m); err != nil {
			return nil, fmt.Errorf("decode mood for %s: %w", l.Date, err)
		}
		l.Mood = &m
	}
	if err := decodeList(prios, &l.Priorities); err != nil {
		return nil, fmt.Errorf("decode priorities for %s: %w", l.Date, err)
	}
	if err := decodeList(appts, &l.Appointments); err != nil {
		return nil, fmt.Errorf("decode appointments for %s: %w", l.Date, err)
	}
	return &l, nil
}

func decodeList(v sql.NullString, dst *[]string) error {
	if !v.Valid {
		return nil
	}
	return json.Unmarshal([]byte(v.String), dst)
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func strPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

var _ model.DailyLogRepository = (*SQLDailyLogRepository)(nil)
