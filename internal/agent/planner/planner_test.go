package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energy-exec/server/internal/agent/graph/conversations"
	"github.com/energy-exec/server/internal/agent/graph/prompts"
	"github.com/energy-exec/server/internal/agent/model"
	"github.com/energy-exec/server/internal/agent/repo"
)

type call struct {
	task  model.GenerationTask
	model model.ModelType
	vars  map[string]any
}

type fakeGenerator struct {
	reply string
	err   error
	calls []call
}

func (f *fakeGenerator) Generate(_ context.Context, task model.GenerationTask, m model.ModelType, vars map[string]any) (string, error) {
	f.calls = append(f.calls, call{task, m, vars})
	return f.reply, f.err
}

type fakePrefs struct {
	tz    string
	model model.ModelType
	err   error
}

func (f fakePrefs) Timezone(context.Context) (string, error)        { return f.tz, f.err }
func (f fakePrefs) Model(context.Context) (model.ModelType, error) { return f.model, f.err }

func newStore(t *testing.T) *repo.SQLDailyLogRepository {
	t.Helper()
	store, err := repo.Open(context.Background(), repo.DialectSQLite, t.TempDir()+"/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return repo.NewDailyLogRepository(store)
}

func TestGeneratePlanUsesSelectedModelAndTimezone(t *testing.T) {
	gen := &fakeGenerator{reply: "plan"}
	p := New(gen, fakePrefs{tz: "Asia/Tokyo", model: model.ModelGemini3Pro}, newStore(t), nil)

	battery := 40
	out, err := p.GeneratePlan(context.Background(), &model.DailyLog{BodyBatteryStart: &battery}, "gym moved")
	require.NoError(t, err)
	assert.Equal(t, "plan", out)

	require.Len(t, gen.calls, 1)
	c := gen.calls[0]
	assert.Equal(t, model.TaskPlan, c.task)
	assert.Equal(t, model.ModelGemini3Pro, c.model)
	assert.Equal(t, "Asia/Tokyo", c.vars[prompts.VarTimezone])
	assert.Equal(t, "40", c.vars["BodyBattery"])
	assert.Equal(t, "gym moved", c.vars["Update"])
}

func TestGenerateFallsBackToDefaultModel(t *testing.T) {
	gen := &fakeGenerator{reply: "review"}
	p := New(gen, fakePrefs{err: errors.New("db down")}, newStore(t), nil)

	_, err := p.GenerateReview(context.Background(), &model.DailyLog{})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultModel, gen.calls[0].model)
	assert.Equal(t, "", gen.calls[0].vars[prompts.VarTimezone])
}

func TestGenerateDiffNeedsPlan(t *testing.T) {
	gen := &fakeGenerator{reply: "diff"}
	p := New(gen, fakePrefs{model: model.ModelBigPickle}, newStore(t), nil)

	_, err := p.GenerateDiff(context.Background(), &model.DailyLog{}, "x")
	assert.ErrorIs(t, err, ErrNoPlan)
	assert.Empty(t, gen.calls)

	plan := "09:00 focus"
	out, err := p.GenerateDiff(context.Background(), &model.DailyLog{GeneratedPlan: &plan}, "meeting at 9")
	require.NoError(t, err)
	assert.Equal(t, "diff", out)
	assert.Equal(t, "09:00 focus", gen.calls[0].vars["Plan"])
}

func TestChatCarriesContextAndMemory(t *testing.T) {
	ctx := context.Background()
	logs := newStore(t)
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	_, err := logs.Upsert(ctx, "2024-03-10", model.DailyLogPatch{SleepNotes: model.Set("slept well")})
	require.NoError(t, err)
	_, err = logs.Upsert(ctx, "2024-03-09", model.DailyLogPatch{SleepNotes: model.Set("restless")})
	require.NoError(t, err)

	memory := conversations.NewMessagesManager(
		repo.NewMemoryConversationRepository(time.Hour, 10), model.ConversationConfig{MaxTurns: 10})
	gen := &fakeGenerator{reply: "take a walk"}
	p := New(gen, fakePrefs{model: model.ModelBigPickle}, logs, memory)
	p.SetClock(func() time.Time { return now })

	out, err := p.Chat(ctx, 1, "what now?")
	require.NoError(t, err)
	assert.Equal(t, "take a walk", out)

	vars := gen.calls[0].vars
	assert.Contains(t, vars[prompts.VarDayLog], "slept well")
	assert.Contains(t, vars[prompts.VarRecentLogs], "restless")
	assert.Empty(t, vars[prompts.VarHistory])

	_, err = p.Chat(ctx, 1, "and then?")
	require.NoError(t, err)
	history, ok := gen.calls[1].vars[prompts.VarHistory].([]*schema.Message)
	require.True(t, ok)
	require.Len(t, history, 2)
	assert.Equal(t, "what now?", history[0].Content)
	assert.Equal(t, "take a walk", history[1].Content)
}

func TestChatFailureIsNotRemembered(t *testing.T) {
	ctx := context.Background()
	memory := conversations.NewMessagesManager(
		repo.NewMemoryConversationRepository(time.Hour, 10), model.ConversationConfig{MaxTurns: 10})
	gen := &fakeGenerator{err: errors.New("boom")}
	p := New(gen, fakePrefs{model: model.ModelBigPickle}, newStore(t), memory)

	_, err := p.Chat(ctx, 1, "hello")
	require.Error(t, err)

	h, err := memory.History(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, h)
}
