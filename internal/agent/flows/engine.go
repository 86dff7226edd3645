// Package flows runs the multi-step conversations: onboarding, morning
// check-in, evening reflection and plan update.
package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/energy-exec/server/internal/agent/model"
	"github.com/energy-exec/server/internal/metrics"
	logx "github.com/energy-exec/server/pkg/logger"
)

// Message is one reply sent to the user.
type Message struct {
	Text     string
	Markdown bool
}

// Replier delivers replies as soon as they are produced.
type Replier interface {
	Reply(ctx context.Context, msg Message) error
}

// TimezoneSetter stores the validated user timezone.
type TimezoneSetter interface {
	SetTimezone(ctx context.Context, tz string) error
}

type PlanGenerator interface {
	GeneratePlan(ctx context.Context, log *model.DailyLog, update string) (string, error)
	GenerateDiff(ctx context.Context, log *model.DailyLog, change string) (string, error)
}

// Collaborators are the dependencies of the Engine.
type Collaborators struct {
	Sessions model.SessionRepository
	Logs     model.DailyLogRepository
	Settings TimezoneSetter
	Planner  PlanGenerator
	// Now defaults to time.Now.
	Now func() time.Time
}

type Engine struct {
	c     Collaborators
	flows map[model.FlowID]*flow
}

func NewEngine(c Collaborators) *Engine {
	if c.Now == nil {
		c.Now = time.Now
	}
	e := &Engine{c: c}
	e.flows = map[model.FlowID]*flow{
		model.FlowOnboarding:        onboardingFlow(),
		model.FlowMorningCheckin:    checkinFlow(),
		model.FlowEveningReflection: reflectionFlow(),
		model.FlowUpdatePlan:        updatePlanFlow(),
	}
	return e
}

// Active returns the user's pending session, nil when idle.
func (e *Engine) Active(ctx context.Context, userID int64) (*model.Session, error) {
	return e.c.Sessions.Get(ctx, userID)
}

// Start enters a flow, abandoning any session the user already has.
func (e *Engine) Start(ctx context.Context, userID int64, id model.FlowID, r Replier) error {
	f, ok := e.flows[id]
	if !ok {
		return fmt.Errorf("unknown flow %q", id)
	}
	if err := e.c.Sessions.Delete(ctx, userID); err != nil {
		logx.Error().Err(err).Int64("user_id", userID).Str("flow", string(id)).Msg("Failed to clear previous session")
		return err
	}

	now := e.c.Now()
	s := &model.Session{
		UserID:    userID,
		Flow:      id,
		DateKey:   model.DateKey(now),
		StartedAt: now,
	}

	if f.precheck != nil {
		msg, ok, err := f.precheck(ctx, e, s)
		if err != nil {
			logx.Error().Err(err).Int64("user_id", userID).Str("flow", string(id)).Msg("Flow precondition check failed")
			metrics.IncFlow(string(id), "failed")
			return e.reply(ctx, r, Message{Text: f.failure})
		}
		if !ok {
			metrics.IncFlow(string(id), "rejected")
			return e.reply(ctx, r, msg)
		}
	}

	if err := e.c.Sessions.Save(ctx, s); err != nil {
		logx.Error().Err(err).Int64("user_id", userID).Str("flow", string(id)).Msg("Failed to save session")
		return err
	}
	metrics.IncFlow(string(id), "started")
	logx.Info().Int64("user_id", userID).Str("flow", string(id)).Str("date", s.DateKey).Msg("Flow started")

	if f.intro != "" {
		if err := e.reply(ctx, r, Message{Text: f.intro}); err != nil {
			return err
		}
	}
	return e.reply(ctx, r, f.steps[0].prompt)
}

// HandleText feeds text to the pending step. It returns false when the
// user has no active session and the text was not consumed.
func (e *Engine) HandleText(ctx context.Context, userID int64, text string, r Replier) (bool, error) {
	s, err := e.c.Sessions.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	if s == nil {
		return false, nil
	}

	f, ok := e.flows[s.Flow]
	if !ok || s.Step < 0 || s.Step >= len(f.steps) {
		logx.Warn().Int64("user_id", userID).Str("flow", string(s.Flow)).Int("step", s.Step).Msg("Dropping unusable session")
		return false, e.c.Sessions.Delete(ctx, userID)
	}

	res := f.steps[s.Step].accept(&s.Answers, text)
	if res.retry != "" {
		logx.Debug().Int64("user_id", userID).Str("flow", string(s.Flow)).Int("step", s.Step).Msg("Step input rejected")
		return true, e.reply(ctx, r, Message{Text: res.retry})
	}
	if res.notice != "" {
		if err := e.reply(ctx, r, Message{Text: res.notice}); err != nil {
			return true, err
		}
	}

	s.Step++
	if s.Step < len(f.steps) {
		if err := e.c.Sessions.Save(ctx, s); err != nil {
			logx.Error().Err(err).Int64("user_id", userID).Str("flow", string(s.Flow)).Msg("Failed to save session")
			return true, err
		}
		return true, e.reply(ctx, r, f.steps[s.Step].prompt)
	}

	// The session is gone before the terminal action so a failure never leaves the user stuck.
	if err := e.c.Sessions.Delete(ctx, userID); err != nil {
		logx.Error().Err(err).Int64("user_id", userID).Str("flow", string(s.Flow)).Msg("Failed to delete session")
	}

	if err := f.finish(ctx, e, s, r); err != nil {
		logx.Error().Err(err).
			Int64("user_id", userID).
			Str("flow", string(s.Flow)).
			Str("date", s.DateKey).
			Msg("Flow terminal action failed")
		metrics.IncFlow(string(s.Flow), "failed")
		return true, e.reply(ctx, r, Message{Text: f.failure})
	}
	metrics.IncFlow(string(s.Flow), "completed")
	logx.Info().Int64("user_id", userID).Str("flow", string(s.Flow)).Str("date", s.DateKey).Msg("Flow completed")
	return true, nil
}

func (e *Engine) reply(ctx context.Context, r Replier, msg Message) error {
	if err := r.Reply(ctx, msg); err != nil {
		logx.Error().Err(err).Msg("Failed to send reply")
		return err
	}
	return nil
}
