package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energy-exec/server/internal/agent/model"
	"github.com/energy-exec/server/internal/agent/repo"
)

const userID int64 = 99

var fixedNow = time.Date(2024, 5, 1, 22, 30, 0, 0, time.UTC)

type recorder struct {
	msgs []Message
}

func (r *recorder) Reply(_ context.Context, msg Message) error {
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recorder) last() Message {
	if len(r.msgs) == 0 {
		return Message{}
	}
	return r.msgs[len(r.msgs)-1]
}

func (r *recorder) texts() []string {
	out := make([]string, len(r.msgs))
	for i, m := range r.msgs {
		out[i] = m.Text
	}
	return out
}

type fakeSettings struct {
	tz  string
	err error
}

func (f *fakeSettings) SetTimezone(_ context.Context, tz string) error {
	if f.err != nil {
		return f.err
	}
	f.tz = tz
	return nil
}

type fakePlanner struct {
	plan     string
	planErr  error
	diff     string
	diffErr  error
	updates  []string
	planLogs []model.DailyLog
}

func (f *fakePlanner) GeneratePlan(_ context.Context, log *model.DailyLog, update string) (string, error) {
	f.updates = append(f.updates, update)
	f.planLogs = append(f.planLogs, *log)
	return f.plan, f.planErr
}

func (f *fakePlanner) GenerateDiff(_ context.Context, _ *model.DailyLog, _ string) (string, error) {
	return f.diff, f.diffErr
}

type harness struct {
	engine   *Engine
	logs     *repo.SQLDailyLogRepository
	sessions *repo.MemorySessionRepository
	settings *fakeSettings
	planner  *fakePlanner
	out      *recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := repo.Open(context.Background(), repo.DialectSQLite, t.TempDir()+"/flows.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{
		logs:     repo.NewDailyLogRepository(store),
		sessions: repo.NewMemorySessionRepository(),
		settings: &fakeSettings{},
		planner:  &fakePlanner{plan: "09:00 deep work", diff: "moved gym to 18:00"},
		out:      &recorder{},
	}
	h.engine = NewEngine(Collaborators{
		Sessions: h.sessions,
		Logs:     h.logs,
		Settings: h.settings,
		Planner:  h.planner,
		Now:      func() time.Time { return fixedNow },
	})
	return h
}

func (h *harness) start(t *testing.T, id model.FlowID) {
	t.Helper()
	require.NoError(t, h.engine.Start(context.Background(), userID, id, h.out))
}

func (h *harness) send(t *testing.T, inputs ...string) {
	t.Helper()
	for _, in := range inputs {
		handled, err := h.engine.HandleText(context.Background(), userID, in, h.out)
		require.NoError(t, err)
		require.True(t, handled, "input %q was not consumed", in)
	}
}

func (h *harness) session(t *testing.T) *model.Session {
	t.Helper()
	s, err := h.sessions.Get(context.Background(), userID)
	require.NoError(t, err)
	return s
}

func (h *harness) today(t *testing.T) *model.DailyLog {
	t.Helper()
	l, err := h.logs.Get(context.Background(), "2024-05-01")
	require.NoError(t, err)
	return l
}

func TestOnboardingLoopsUntilValidTimezone(t *testing.T) {
	h := newHarness(t)
	h.start(t, model.FlowOnboarding)
	assert.Equal(t, onboardingWelcome, h.out.last().Text)

	h.send(t, "Mars/Olympus")
	assert.Equal(t, onboardingInvalid, h.out.last().Text)
	h.send(t, "   ")
	assert.Equal(t, onboardingInvalid, h.out.last().Text)
	require.NotNil(t, h.session(t))

	h.send(t, " Europe/Berlin ")
	assert.Equal(t, "Europe/Berlin", h.settings.tz)
	assert.Contains(t, h.out.last().Text, "Your timezone has been set to: Europe/Berlin")
	assert.Nil(t, h.session(t))
}

func TestOnboardingSaveFailure(t *testing.T) {
	h := newHarness(t)
	h.settings.err = errors.New("disk full")
	h.start(t, model.FlowOnboarding)
	h.send(t, "UTC")
	assert.Equal(t, onboardingFailed, h.out.last().Text)
	assert.Nil(t, h.session(t))
}

func TestCheckinHappyPath(t *testing.T) {
	h := newHarness(t)
	h.start(t, model.FlowMorningCheckin)
	assert.Equal(t, []string{checkinIntro, checkinBattery}, h.out.texts())

	h.send(t, "abc")
	assert.Equal(t, checkinBatteryInvalid, h.out.last().Text)
	h.send(t, "150")
	assert.Equal(t, checkinBatteryInvalid, h.out.last().Text)
	assert.Equal(t, 0, h.session(t).Step)

	h.send(t, "75")
	assert.Equal(t, checkinSleep, h.out.last().Text)
	h.send(t, "7 hours, woke up twice", "motivated but tired", "finish the report", "Meeting at 2PM")

	l := h.today(t)
	require.NotNil(t, l)
	assert.Equal(t, 75, *l.BodyBatteryStart)
	assert.Equal(t, "7 hours, woke up twice", *l.SleepNotes)
	assert.Equal(t, &model.Mood{Text: "motivated but tired"}, l.Mood)
	assert.Equal(t, []string{"finish the report"}, l.Priorities)
	assert.Equal(t, []string{"meeting at 2pm"}, l.Appointments)
	assert.Equal(t, "09:00 deep work", *l.GeneratedPlan)

	require.Len(t, h.planner.updates, 1)
	assert.Equal(t, "", h.planner.updates[0])
	assert.Equal(t, 75, *h.planner.planLogs[0].BodyBatteryStart)

	n := len(h.out.msgs)
	assert.Equal(t, checkinDone, h.out.msgs[n-2].Text)
	assert.Equal(t, Message{Text: "📋 *Your Day Plan*\n\n09:00 deep work", Markdown: true}, h.out.msgs[n-1])
	assert.Nil(t, h.session(t))
}

func TestCheckinBatteryBoundsAndEmptyAnswers(t *testing.T) {
	for _, in := range []string{"0", "100"} {
		h := newHarness(t)
		h.start(t, model.FlowMorningCheckin)
		h.send(t, in, "", "", "", "none")

		l := h.today(t)
		require.NotNil(t, l)
		want, _ := ParseBodyBattery(in)
		assert.Equal(t, want, *l.BodyBatteryStart)
		assert.Nil(t, l.SleepNotes)
		assert.Nil(t, l.Mood)
		assert.Nil(t, l.Priorities)
		assert.Nil(t, l.Appointments)
	}
}

func TestCheckinClearsEarlierValues(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.logs.Upsert(ctx, "2024-05-01", model.DailyLogPatch{
		SleepNotes:  model.Set("old notes"),
		Reflections: model.Set("kept"),
	})
	require.NoError(t, err)

	h.start(t, model.FlowMorningCheckin)
	h.send(t, "60", "", "ok", "write", "no")

	l := h.today(t)
	assert.Nil(t, l.SleepNotes)
	assert.Equal(t, "kept", *l.Reflections)
}

func TestCheckinPlanFailureKeepsCheckin(t *testing.T) {
	h := newHarness(t)
	h.planner.planErr = errors.New("model down")
	h.start(t, model.FlowMorningCheckin)
	h.send(t, "50", "fine", "ok", "write", "none")

	l := h.today(t)
	require.NotNil(t, l)
	assert.Equal(t, 50, *l.BodyBatteryStart)
	assert.Nil(t, l.GeneratedPlan)
	assert.Equal(t, checkinPlanFailed, h.out.last().Text)
}

func TestReflection(t *testing.T) {
	cases := []struct {
		name    string
		battery string
		want    *int
		warned  bool
	}{
		{"value", "30", intp(30), false},
		{"skip", "SKIP", nil, false},
		{"empty", "  ", nil, false},
		{"garbage", "xyz", nil, true},
		{"out of range", "101", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.start(t, model.FlowEveningReflection)
			assert.Equal(t, []string{reflectIntro, reflectDay}, h.out.texts())

			h.send(t, "productive day", tc.battery)
			if tc.warned {
				n := len(h.out.msgs)
				assert.Equal(t, reflectBatteryWarning, h.out.msgs[n-2].Text)
			}
			assert.Equal(t, reflectNotes, h.out.last().Text)

			h.send(t, "Call Mom")
			assert.Equal(t, reflectDone, h.out.last().Text)

			l := h.today(t)
			require.NotNil(t, l)
			assert.Equal(t, "productive day", *l.Reflections)
			assert.Equal(t, tc.want, l.BodyBatteryEnd)
		})
	}
}

func TestUpdatePlanPreconditions(t *testing.T) {
	h := newHarness(t)
	h.start(t, model.FlowUpdatePlan)
	assert.Equal(t, Message{Text: updateNoLog, Markdown: true}, h.out.last())
	assert.Nil(t, h.session(t))

	_, err := h.logs.Upsert(context.Background(), "2024-05-01", model.DailyLogPatch{BodyBatteryStart: model.Set(40)})
	require.NoError(t, err)
	h.start(t, model.FlowUpdatePlan)
	assert.Equal(t, Message{Text: updateNoPlan, Markdown: true}, h.out.last())
	assert.Nil(t, h.session(t))
}

func seedPlan(t *testing.T, h *harness) {
	t.Helper()
	_, err := h.logs.Upsert(context.Background(), "2024-05-01", model.DailyLogPatch{
		BodyBatteryStart: model.Set(70),
		GeneratedPlan:    model.Set("old plan"),
	})
	require.NoError(t, err)
}

func TestUpdatePlanSuccess(t *testing.T) {
	h := newHarness(t)
	seedPlan(t, h)
	h.planner.plan = "new plan"

	h.start(t, model.FlowUpdatePlan)
	assert.Equal(t, Message{Text: updatePrompt, Markdown: true}, h.out.last())
	h.send(t, "gym moved to evening")

	got := h.out.texts()[1:]
	assert.Equal(t, []string{updateProcessing, "📋 *Plan Changes*\n\nmoved gym to 18:00", updateSaved}, got)
	assert.Equal(t, "new plan", *h.today(t).GeneratedPlan)
	assert.Equal(t, []string{"gym moved to evening"}, h.planner.updates)
	assert.Equal(t, "old plan", *h.planner.planLogs[0].GeneratedPlan)
}

func TestUpdatePlanRegenerationFailureKeepsDiff(t *testing.T) {
	h := newHarness(t)
	seedPlan(t, h)
	h.planner.planErr = errors.New("timeout")

	h.start(t, model.FlowUpdatePlan)
	h.send(t, "meeting cancelled")

	got := h.out.texts()[1:]
	assert.Equal(t, []string{updateProcessing, "📋 *Plan Changes*\n\nmoved gym to 18:00", updateRegenFailed}, got)
	assert.Equal(t, "old plan", *h.today(t).GeneratedPlan)
	assert.Nil(t, h.session(t))
}

func TestUpdatePlanDiffFailureAndEmptyInput(t *testing.T) {
	h := newHarness(t)
	seedPlan(t, h)

	h.start(t, model.FlowUpdatePlan)
	h.send(t, "   ")
	assert.Equal(t, updateEmpty, h.out.last().Text)
	assert.Nil(t, h.session(t))

	h.planner.diffErr = errors.New("down")
	h.start(t, model.FlowUpdatePlan)
	h.send(t, "change")
	assert.Equal(t, updateFailed, h.out.last().Text)
	assert.Empty(t, h.planner.updates)
}

func TestReenteringOverwritesSession(t *testing.T) {
	h := newHarness(t)
	h.start(t, model.FlowMorningCheckin)
	h.send(t, "80", "slept ok")
	assert.Equal(t, 2, h.session(t).Step)

	h.start(t, model.FlowEveningReflection)
	s := h.session(t)
	require.NotNil(t, s)
	assert.Equal(t, model.FlowEveningReflection, s.Flow)
	assert.Equal(t, 0, s.Step)
	assert.Nil(t, s.Answers.BodyBatteryStart)

	h.start(t, model.FlowEveningReflection)
	assert.Equal(t, 0, h.session(t).Step)
}

func TestIdleTextIsNotConsumed(t *testing.T) {
	h := newHarness(t)
	handled, err := h.engine.HandleText(context.Background(), userID, "hello", h.out)
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, h.out.msgs)
}

func TestSessionDateKeyIsFixedAtStart(t *testing.T) {
	h := newHarness(t)
	h.start(t, model.FlowEveningReflection)
	assert.Equal(t, "2024-05-01", h.session(t).DateKey)
}

func intp(i int) *int { return &i }
