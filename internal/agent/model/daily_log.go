package model

import (
	"context"
	"database/sql"
	"time"
)

// DateLayout is the canonical date key format (UTC calendar date).
const DateLayout = "2006-01-02"

// DateKey returns the UTC calendar date of t as a daily log key.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Mood is stored as a structured value so richer fields can be added later.
type Mood struct {
	Text string `json:"text"`
}

// DailyLog aggregates check-in, reflection and plan data for one date.
type DailyLog struct {
	ID               int64     `json:"id"`
	Date             string    `json:"date"`
	BodyBatteryStart *int      `json:"bodyBatteryStart"`
	BodyBatteryEnd   *int      `json:"bodyBatteryEnd"`
	SleepNotes       *string   `json:"sleepNotes"`
	Mood             *Mood     `json:"mood"`
	Priorities       []string  `json:"priorities"`
	Appointments     []string  `json:"appointments"`
	GeneratedPlan    *string   `json:"generatedPlan"`
	Reflections      *string   `json:"reflections"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// HasPlan reports whether a non-empty plan is stored.
func (l *DailyLog) HasPlan() bool {
	return l != nil && l.GeneratedPlan != nil && *l.GeneratedPlan != ""
}

// HasReflections reports whether non-empty reflections are stored.
func (l *DailyLog) HasReflections() bool {
	return l != nil && l.Reflections != nil && *l.Reflections != ""
}

// BatteryDelta returns end minus start when both readings exist.
func (l *DailyLog) BatteryDelta() (int, bool) {
	if l == nil || l.BodyBatteryStart == nil || l.BodyBatteryEnd == nil {
		return 0, false
	}
	return *l.BodyBatteryEnd - *l.BodyBatteryStart, true
}

// DailyLogPatch is a partial update. A nil field is left untouched,
// a non-nil invalid field clears the column, a valid field overwrites it.
type DailyLogPatch struct {
	BodyBatteryStart *sql.Null[int]
	BodyBatteryEnd   *sql.Null[int]
	SleepNotes       *sql.Null[string]
	Mood             *sql.Null[Mood]
	Priorities       *sql.Null[[]string]
	Appointments     *sql.Null[[]string]
	GeneratedPlan    *sql.Null[string]
	Reflections      *sql.Null[string]
}

// Set returns a patch field that overwrites the column with v.
func Set[T any](v T) *sql.Null[T] {
	return &sql.Null[T]{V: v, Valid: true}
}

// Clear returns a patch field that nulls the column.
func Clear[T any]() *sql.Null[T] {
	return &sql.Null[T]{}
}

// SetOrClear sets v when ok, otherwise clears the column.
func SetOrClear[T any](v T, ok bool) *sql.Null[T] {
	if !ok {
		return Clear[T]()
	}
	return Set(v)
}

// Apply merges p over l field by field.
func (p DailyLogPatch) Apply(l *DailyLog) {
	applyPtr(p.BodyBatteryStart, &l.BodyBatteryStart)
	applyPtr(p.BodyBatteryEnd, &l.BodyBatteryEnd)
	applyPtr(p.SleepNotes, &l.SleepNotes)
	applyPtr(p.Mood, &l.Mood)
	applyPtr(p.GeneratedPlan, &l.GeneratedPlan)
	applyPtr(p.Reflections, &l.Reflections)
	applySlice(p.Priorities, &l.Priorities)
	applySlice(p.Appointments, &l.Appointments)
}

func applyPtr[T any](f *sql.Null[T], dst **T) {
	if f == nil {
		return
	}
	if !f.Valid {
		*dst = nil
		return
	}
	v := f.V
	*dst = &v
}

func applySlice(f *sql.Null[[]string], dst *[]string) {
	if f == nil {
		return
	}
	if !f.Valid {
		*dst = nil
		return
	}
	*dst = append([]string(nil), f.V...)
}

// DailyLogRepository persists daily logs keyed by date.
type DailyLogRepository interface {
	// Get returns nil, nil when no log exists for date.
	Get(ctx context.Context, date string) (*DailyLog, error)

	// Upsert merges patch into the log for date, creating it if needed, and returns the full row.
	Upsert(ctx context.Context, date string, patch DailyLogPatch) (*DailyLog, error)

	// ListRecent returns at most limit logs ordered by date descending.
	ListRecent(ctx context.Context, limit int) ([]DailyLog, error)
}
