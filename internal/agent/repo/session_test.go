package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/schema"
	"github.com/energy-exec/server/internal/agent/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func exerciseSessionRepository(t *testing.T, repo model.SessionRepository) {
	ctx := context.Background()

	got, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)

	battery := 70
	require.NoError(t, repo.Save(ctx, &model.Session{
		UserID:    42,
		Flow:      model.FlowMorningCheckin,
		Step:      1,
		DateKey:   "2024-01-01",
		Answers:   model.Answers{BodyBatteryStart: &battery},
		StartedAt: time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC),
	}))

	// overwrite with a different flow
	require.NoError(t, repo.Save(ctx, &model.Session{UserID: 42, Flow: model.FlowEveningReflection, DateKey: "2024-01-01"}))
	got, err = repo.Get(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.FlowEveningReflection, got.Flow)
	assert.Equal(t, 0, got.Step)
	assert.Nil(t, got.Answers.BodyBatteryStart)

	other, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, repo.Delete(ctx, 42))
	require.NoError(t, repo.Delete(ctx, 42))
	got, err = repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemorySessionRepository(t *testing.T) {
	exerciseSessionRepository(t, NewMemorySessionRepository())
}

func TestRedisSessionRepository(t *testing.T) {
	_, rdb := newTestRedis(t)
	exerciseSessionRepository(t, NewRedisSessionRepository(rdb, "test", 0))
}

func TestRedisSessionRepositoryNoExpiryByDefault(t *testing.T) {
	mr, rdb := newTestRedis(t)
	repo := NewRedisSessionRepository(rdb, "test", 0)
	require.NoError(t, repo.Save(context.Background(), &model.Session{UserID: 1, Flow: model.FlowOnboarding}))

	mr.FastForward(30 * 24 * time.Hour)
	got, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.FlowOnboarding, got.Flow)
}

func TestRedisConversationRepository(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	repo := NewRedisConversationRepository(rdb, "test", time.Minute, 1)

	require.NoError(t, repo.AddMessage(ctx, "42", schema.UserMessage("first")))
	require.NoError(t, repo.AddMessage(ctx, "42", schema.AssistantMessage("one", nil)))
	require.NoError(t, repo.AddMessage(ctx, "42", schema.UserMessage("second")))

	n, err := repo.GetMessageCount(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	h, err := repo.LoadHistory(ctx, "42")
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, "one", h.Messages[0].Content)
	assert.Equal(t, schema.User, h.Messages[1].Role)

	mr.FastForward(2 * time.Minute)
	h, err = repo.LoadHistory(ctx, "42")
	require.NoError(t, err)
	assert.Empty(t, h.Messages)

	require.NoError(t, repo.AddMessage(ctx, "42", schema.UserMessage("again")))
	require.NoError(t, repo.ClearHistory(ctx, "42"))
	n, err = repo.GetMessageCount(ctx, "42")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryConversationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryConversationRepository(time.Minute, 1)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.AddMessage(ctx, "u", schema.UserMessage("a")))
	require.NoError(t, repo.AddMessage(ctx, "u", schema.AssistantMessage("b", nil)))
	require.NoError(t, repo.AddMessage(ctx, "u", schema.UserMessage("c")))

	h, err := repo.LoadHistory(ctx, "u")
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, "b", h.Messages[0].Content)

	now = now.Add(2 * time.Minute)
	n, err := repo.GetMessageCount(ctx, "u")
	require.NoError(t, err)
	assert.Zero(t, n)
}
