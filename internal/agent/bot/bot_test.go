package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energy-exec/server/internal/agent/flows"
	"github.com/energy-exec/server/internal/agent/model"
	"github.com/energy-exec/server/internal/agent/repo"
	"github.com/energy-exec/server/internal/agent/settings"
	"github.com/energy-exec/server/internal/channel"
)

const owner int64 = 1001

var testNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type fakeSender struct {
	mu   sync.Mutex
	sent []channel.Response
	next int64
}

func (f *fakeSender) Send(_ context.Context, resp channel.Response) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, resp)
	f.next++
	return 500 + f.next, nil
}

func (f *fakeSender) last() channel.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return channel.Response{}
	}
	return f.sent[len(f.sent)-1]
}

type fakePlanner struct {
	plan    string
	review  string
	chat    string
	err     error
	chatted []string
}

func (f *fakePlanner) GeneratePlan(context.Context, *model.DailyLog, string) (string, error) {
	return f.plan, f.err
}

func (f *fakePlanner) GenerateDiff(context.Context, *model.DailyLog, string) (string, error) {
	return "diff", f.err
}

func (f *fakePlanner) GenerateReview(context.Context, *model.DailyLog) (string, error) {
	return f.review, f.err
}

func (f *fakePlanner) Chat(_ context.Context, _ int64, text string) (string, error) {
	f.chatted = append(f.chatted, text)
	return f.chat, f.err
}

type harness struct {
	bot      *Bot
	sender   *fakeSender
	planner  *fakePlanner
	settings *settings.Settings
	logs     *repo.SQLDailyLogRepository
	messages *repo.SQLMessageLogRepository
	sessions model.SessionRepository
	msgID    int64
}

func newHarness(t *testing.T, onboarded bool) *harness {
	t.Helper()
	return newHarnessWithSessions(t, onboarded, repo.NewMemorySessionRepository())
}

func newHarnessWithSessions(t *testing.T, onboarded bool, sessions model.SessionRepository) *harness {
	t.Helper()
	ctx := context.Background()
	store, err := repo.Open(ctx, repo.DialectSQLite, t.TempDir()+"/bot.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	store.SetClock(func() time.Time { return testNow })

	h := &harness{
		sender:   &fakeSender{},
		planner:  &fakePlanner{plan: "09:00 deep work", review: "solid day", chat: "drink water"},
		settings: settings.New(repo.NewConfigRepository(store)),
		logs:     repo.NewDailyLogRepository(store),
		messages: repo.NewMessageLogRepository(store),
		sessions: sessions,
	}
	if onboarded {
		require.NoError(t, h.settings.SetTimezone(ctx, "America/New_York"))
	}
	clock := func() time.Time { return testNow }
	engine := flows.NewEngine(flows.Collaborators{
		Sessions: h.sessions,
		Logs:     h.logs,
		Settings: h.settings,
		Planner:  h.planner,
		Now:      clock,
	})
	h.bot = New(Config{AuthorizedUserID: owner}, Deps{
		Sender:   h.sender,
		Engine:   engine,
		Settings: h.settings,
		Logs:     h.logs,
		Messages: h.messages,
		Planner:  h.planner,
		Now:      clock,
	})
	return h
}

func (h *harness) say(t *testing.T, text string) channel.Response {
	t.Helper()
	h.msgID++
	require.NoError(t, h.bot.Handle(context.Background(), channel.Message{
		Source: "telegram", SenderID: owner, ChatID: owner, MessageID: h.msgID, Content: text,
		Timestamp: testNow.UnixMilli(),
	}))
	return h.sender.last()
}

func TestUnauthorizedSenderIsRejected(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	require.NoError(t, h.bot.Handle(ctx, channel.Message{SenderID: 7, ChatID: 7, MessageID: 1, Content: "/checkin"}))
	assert.Equal(t, channel.Response{ChatID: 7, Content: accessDenied}, h.sender.last())

	require.NoError(t, h.bot.Handle(ctx, channel.Message{ChatID: 9, MessageID: 2, Content: "hi"}))
	assert.Equal(t, channel.Response{ChatID: 9, Content: unidentifiedUser}, h.sender.last())

	logged, err := h.messages.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, logged)
	s, err := h.sessions.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, s)
}

type brokenSessions struct{ err error }

func (b brokenSessions) Get(context.Context, int64) (*model.Session, error) { return nil, b.err }
func (b brokenSessions) Save(context.Context, *model.Session) error        { return b.err }
func (b brokenSessions) Delete(context.Context, int64) error               { return b.err }

func TestSessionStoreFailureStillReplies(t *testing.T) {
	h := newHarnessWithSessions(t, true, brokenSessions{err: errors.New("redis down")})
	ctx := context.Background()

	for i, text := range []string{"hello", "/checkin", "/reflect"} {
		before := len(h.sender.sent)
		err := h.bot.Handle(ctx, channel.Message{SenderID: owner, ChatID: owner, MessageID: int64(i + 1), Content: text})
		assert.Error(t, err, text)
		require.Len(t, h.sender.sent, before+1, text)
		assert.Equal(t, channel.Response{ChatID: owner, Content: genericFailure}, h.sender.last(), text)
	}

	out, err := h.messages.GetByChatMessageID(ctx, 501)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, model.DirectionOutgoing, out.Direction)
	assert.Equal(t, genericFailure, out.Content)
}

func TestFirstContactStartsOnboarding(t *testing.T) {
	h := newHarness(t, false)
	reply := h.say(t, "hello there")
	assert.Contains(t, reply.Content, "Let's get you set up")
	assert.Empty(t, h.planner.chatted)

	reply = h.say(t, "Nowhere/Land")
	assert.Contains(t, reply.Content, "doesn't look like a valid timezone")

	reply = h.say(t, "asia/tokyo")
	assert.Contains(t, reply.Content, "Your timezone has been set to: Asia/Tokyo")
	tz, err := h.settings.Timezone(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", tz)

	reply = h.say(t, "/start")
	assert.Equal(t, welcomeBack, reply.Content)
}

func TestStartBeforeOnboarding(t *testing.T) {
	h := newHarness(t, false)
	assert.Contains(t, h.say(t, "/start").Content, "Let's get you set up")
	assert.Contains(t, h.say(t, "/help").Content, "Available Commands")
	assert.Contains(t, h.say(t, "UTC").Content, "Your timezone has been set to: UTC")
}

func TestModelSelectionAndChat(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	assert.Contains(t, h.say(t, "/models").Content, "Current Model: big-pickle (free)")

	assert.Contains(t, h.say(t, "2").Content, "Model changed to: gemini-3-pro")
	m, err := h.settings.Model(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ModelGemini3Pro, m)
	assert.Contains(t, h.say(t, "/models").Content, "Current Model: gemini-3-pro")

	assert.Equal(t, "drink water", h.say(t, "I feel tired").Content)
	assert.Equal(t, []string{"I feel tired"}, h.planner.chatted)

	h.planner.err = errors.New("down")
	assert.Equal(t, genericFailure, h.say(t, "help me").Content)
}

func TestCommandsDuringFlowKeepStep(t *testing.T) {
	h := newHarness(t, true)
	h.say(t, "/checkin")
	assert.Contains(t, h.sender.last().Content, "body battery level this morning")

	assert.Contains(t, h.say(t, "/help").Content, "Available Commands")
	assert.Contains(t, h.say(t, "70").Content, "How was your sleep")

	assert.Contains(t, h.say(t, "/reflect").Content, "How did your day go")
	s, err := h.sessions.Get(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, model.FlowEveningReflection, s.Flow)
}

func TestCheckinThenTodayAndReview(t *testing.T) {
	h := newHarness(t, true)
	for _, in := range []string{"/checkin", "80", "7 hours", "focused", "ship release", "none"} {
		h.say(t, in)
	}
	last := h.sender.last()
	assert.True(t, last.Markdown)
	assert.Contains(t, last.Content, "09:00 deep work")

	assert.Contains(t, h.say(t, "/planReview").Content, "No reflections found for today")

	for _, in := range []string{"/reflect", "good", "55", "skip"} {
		h.say(t, in)
	}

	today := h.say(t, "/today")
	assert.True(t, today.Markdown)
	assert.Contains(t, today.Content, "📅 *Wednesday, May 1, 2024 (2024-05-01)*")
	assert.Contains(t, today.Content, "Start: *80* • End: *55* • 📉 -25")
	assert.Contains(t, today.Content, "✅ *Priorities*\n1. ship release\n")
	assert.NotContains(t, today.Content, "Appointments")
	assert.Contains(t, today.Content, "_Last updated: 05:00_")

	review := h.say(t, "/planReview")
	assert.Equal(t, channel.Response{ChatID: owner, Content: "📊 *Plan Review & Suggestions for Tomorrow*\n\nsolid day", Markdown: true}, review)
}

func TestPlanReviewPreconditions(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	assert.Equal(t, noLogToday, h.say(t, "/planReview").Content)

	_, err := h.logs.Upsert(ctx, "2024-05-01", model.DailyLogPatch{Reflections: model.Set("ok")})
	require.NoError(t, err)
	assert.Equal(t, reviewNoPlan, h.say(t, "/planReview").Content)

	_, err = h.logs.Upsert(ctx, "2024-05-01", model.DailyLogPatch{GeneratedPlan: model.Set("plan")})
	require.NoError(t, err)
	h.planner.err = errors.New("down")
	assert.Equal(t, reviewFailed, h.say(t, "/planReview").Content)
}

func TestPlanCommand(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	assert.Equal(t, noLogToday, h.say(t, "/plan").Content)

	_, err := h.logs.Upsert(ctx, "2024-05-01", model.DailyLogPatch{BodyBatteryStart: model.Set(60)})
	require.NoError(t, err)
	reply := h.say(t, "/plan")
	assert.Equal(t, "📋 *Your Day Plan*\n\n09:00 deep work", reply.Content)

	l, err := h.logs.Get(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, "09:00 deep work", *l.GeneratedPlan)
}

func TestViewDailyLog(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	assert.Equal(t, viewInvalidDate, h.say(t, "/viewDailyLog 01-12-2024").Content)
	assert.Equal(t, "📅 No log found for 2024-04-30.\n\nUse /checkin to create a morning check-in for today.",
		h.say(t, "/viewDailyLog 2024-04-30").Content)

	_, err := h.logs.Upsert(ctx, "2024-04-30", model.DailyLogPatch{
		BodyBatteryStart: model.Set(40),
		BodyBatteryEnd:   model.Set(60),
		SleepNotes:       model.Set("short"),
		Appointments:     model.Set([]string{"dentist 3pm"}),
	})
	require.NoError(t, err)

	reply := h.say(t, "/viewdailylog@energy_exec_bot 2024-04-30")
	assert.False(t, reply.Markdown)
	assert.Equal(t, "📅 Daily Log: Tuesday, April 30, 2024\n\n"+
		"🔋 Body Battery Start: 40\n"+
		"🔋 Body Battery End: 60\n"+
		"📈 Change: +20\n"+
		"\n😴 Sleep: short\n"+
		"\n📅 Appointments:\n  1. dentist 3pm\n"+
		"\n🕒 Last updated: 2024-05-01 05:00:00", reply.Content)
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t, true)
	assert.Equal(t, unknownCommand, h.say(t, "/dance").Content)
}

func TestMessagesAreLogged(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	h.say(t, "/help")

	in, err := h.messages.GetByChatMessageID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, in)
	assert.Equal(t, model.DirectionIncoming, in.Direction)
	assert.Equal(t, "/help", in.Content)

	out, err := h.messages.GetByChatMessageID(ctx, 501)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, model.DirectionOutgoing, out.Direction)
	assert.Equal(t, helpText, out.Content)
}

func TestParseCommand(t *testing.T) {
	cmd, args := parseCommand("/viewDailyLog@my_bot  2024-01-01 ")
	assert.Equal(t, "viewdailylog", cmd)
	assert.Equal(t, "2024-01-01", args)

	cmd, _ = parseCommand("hello")
	assert.Empty(t, cmd)
}
