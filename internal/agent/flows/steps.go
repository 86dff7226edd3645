package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/energy-exec/server/internal/agent/model"
	"github.com/energy-exec/server/internal/agent/settings"
	logx "github.com/energy-exec/server/pkg/logger"
)

// stepResult: a non-empty retry keeps the flow on the same step,
// a notice is sent before advancing.
type stepResult struct {
	retry  string
	notice string
}

type step struct {
	prompt Message
	accept func(a *model.Answers, text string) stepResult
}

type flow struct {
	intro string
	steps []step
	// precheck may refuse to start the flow with a guidance message.
	precheck func(ctx context.Context, e *Engine, s *model.Session) (Message, bool, error)
	finish   func(ctx context.Context, e *Engine, s *model.Session, r Replier) error
	failure  string
}

func plain(text string) Message { return Message{Text: text} }

func onboardingFlow() *flow {
	return &flow{
		steps: []step{{
			prompt: plain(onboardingWelcome),
			accept: func(a *model.Answers, text string) stepResult {
				tz, ok := settings.ValidateTimezone(text)
				if !ok {
					return stepResult{retry: onboardingInvalid}
				}
				a.Timezone = tz
				return stepResult{}
			},
		}},
		finish: func(ctx context.Context, e *Engine, s *model.Session, r Replier) error {
			if err := e.c.Settings.SetTimezone(ctx, s.Answers.Timezone); err != nil {
				return err
			}
			logx.Info().Int64("user_id", s.UserID).Str("timezone", s.Answers.Timezone).Msg("User onboarded")
			return e.reply(ctx, r, plain(fmt.Sprintf(onboardingDone, s.Answers.Timezone)))
		},
		failure: onboardingFailed,
	}
}

func checkinFlow() *flow {
	return &flow{
		intro: checkinIntro,
		steps: []step{
			{prompt: plain(checkinBattery), accept: func(a *model.Answers, text string) stepResult {
				n, ok := ParseBodyBattery(text)
				if !ok {
					return stepResult{retry: checkinBatteryInvalid}
				}
				a.BodyBatteryStart = &n
				return stepResult{}
			}},
			{prompt: plain(checkinSleep), accept: func(a *model.Answers, text string) stepResult {
				a.SleepNotes = optionalText(text)
				return stepResult{}
			}},
			{prompt: plain(checkinMood), accept: func(a *model.Answers, text string) stepResult {
				a.Mood = optionalText(text)
				return stepResult{}
			}},
			{prompt: plain(checkinPriority), accept: func(a *model.Answers, text string) stepResult {
				a.Priority = optionalText(text)
				return stepResult{}
			}},
			{prompt: plain(checkinAppointments), accept: func(a *model.Answers, text string) stepResult {
				if appts := ParseAppointments(text); len(appts) > 0 {
					a.Appointments = &appts[0]
				} else {
					a.Appointments = nil
				}
				return stepResult{}
			}},
		},
		finish:  finishCheckin,
		failure: checkinFailed,
	}
}

func finishCheckin(ctx context.Context, e *Engine, s *model.Session, r Replier) error {
	a := s.Answers
	patch := model.DailyLogPatch{
		BodyBatteryStart: model.SetOrClear(deref(a.BodyBatteryStart), a.BodyBatteryStart != nil),
		SleepNotes:       model.SetOrClear(deref(a.SleepNotes), a.SleepNotes != nil),
		Mood:             model.SetOrClear(model.Mood{Text: deref(a.Mood)}, a.Mood != nil),
		Priorities:       model.SetOrClear([]string{deref(a.Priority)}, a.Priority != nil),
		Appointments:     model.SetOrClear([]string{deref(a.Appointments)}, a.Appointments != nil),
	}
	log, err := e.c.Logs.Upsert(ctx, s.DateKey, patch)
	if err != nil {
		return err
	}
	logx.Info().Int64("user_id", s.UserID).Str("date", s.DateKey).Interface("body_battery_start", a.BodyBatteryStart).
		Msg("Morning check-in completed")

	if err := e.reply(ctx, r, plain(checkinDone)); err != nil {
		return err
	}

	// From here on the check-in is saved; plan failures only get their own notice.
	plan, err := e.c.Planner.GeneratePlan(ctx, log, "")
	if err == nil {
		_, err = e.c.Logs.Upsert(ctx, s.DateKey, model.DailyLogPatch{GeneratedPlan: model.Set(plan)})
	}
	if err != nil {
		logx.Error().Err(err).Int64("user_id", s.UserID).Str("date", s.DateKey).Msg("Failed to generate plan after check-in")
		return e.reply(ctx, r, plain(checkinPlanFailed))
	}
	return e.reply(ctx, r, Message{Text: fmt.Sprintf(checkinPlan, plan), Markdown: true})
}

func reflectionFlow() *flow {
	return &flow{
		intro: reflectIntro,
		steps: []step{
			{prompt: plain(reflectDay), accept: func(a *model.Answers, text string) stepResult {
				a.Reflections = optionalText(text)
				return stepResult{}
			}},
			{prompt: plain(reflectBattery), accept: func(a *model.Answers, text string) stepResult {
				a.BodyBatteryEnd = nil
				if IsSkip(text) {
					return stepResult{}
				}
				n, ok := ParseBodyBattery(text)
				if !ok {
					return stepResult{notice: reflectBatteryWarning}
				}
				a.BodyBatteryEnd = &n
				return stepResult{}
			}},
			{prompt: plain(reflectNotes), accept: func(a *model.Answers, text string) stepResult {
				a.NotesForTomorrow = nil
				if !IsSkip(text) {
					notes := strings.ToLower(strings.TrimSpace(text))
					a.NotesForTomorrow = &notes
				}
				return stepResult{}
			}},
		},
		finish: func(ctx context.Context, e *Engine, s *model.Session, r Replier) error {
			a := s.Answers
			_, err := e.c.Logs.Upsert(ctx, s.DateKey, model.DailyLogPatch{
				Reflections:    model.SetOrClear(deref(a.Reflections), a.Reflections != nil),
				BodyBatteryEnd: model.SetOrClear(deref(a.BodyBatteryEnd), a.BodyBatteryEnd != nil),
			})
			if err != nil {
				return err
			}
			// No daily log field holds notes for tomorrow; they are only logged.
			logx.Info().Int64("user_id", s.UserID).Str("date", s.DateKey).Interface("body_battery_end", a.BodyBatteryEnd).
				Bool("has_notes_for_tomorrow", a.NotesForTomorrow != nil).
				Msg("Evening reflection completed")
			if a.NotesForTomorrow != nil {
				logx.Debug().Int64("user_id", s.UserID).Str("notes", *a.NotesForTomorrow).Msg("Notes for tomorrow not persisted")
			}
			return e.reply(ctx, r, plain(reflectDone))
		},
		failure: reflectFailed,
	}
}

func updatePlanFlow() *flow {
	return &flow{
		steps: []step{{
			prompt: Message{Text: updatePrompt, Markdown: true},
			accept: func(a *model.Answers, text string) stepResult {
				a.PlanChange = strings.TrimSpace(text)
				return stepResult{}
			},
		}},
		precheck: func(ctx context.Context, e *Engine, s *model.Session) (Message, bool, error) {
			log, err := e.c.Logs.Get(ctx, s.DateKey)
			if err != nil {
				return Message{}, false, err
			}
			if log == nil {
				return Message{Text: updateNoLog, Markdown: true}, false, nil
			}
			if !log.HasPlan() {
				return Message{Text: updateNoPlan, Markdown: true}, false, nil
			}
			return Message{}, true, nil
		},
		finish:  finishUpdatePlan,
		failure: updateFailed,
	}
}

// finishUpdatePlan sends the diff first, then regenerates and stores the full plan.
// A failure after the diff was sent is reported without withdrawing the diff.
func finishUpdatePlan(ctx context.Context, e *Engine, s *model.Session, r Replier) error {
	change := s.Answers.PlanChange
	if change == "" {
		return e.reply(ctx, r, plain(updateEmpty))
	}

	log, err := e.c.Logs.Get(ctx, s.DateKey)
	if err != nil {
		return err
	}
	if log == nil {
		return e.reply(ctx, r, Message{Text: updateNoLog, Markdown: true})
	}
	if !log.HasPlan() {
		return e.reply(ctx, r, Message{Text: updateNoPlan, Markdown: true})
	}

	if err := e.reply(ctx, r, plain(updateProcessing)); err != nil {
		return err
	}
	diff, err := e.c.Planner.GenerateDiff(ctx, log, change)
	if err != nil {
		return err
	}
	if err := e.reply(ctx, r, Message{Text: fmt.Sprintf(updateDiff, diff), Markdown: true}); err != nil {
		return err
	}

	if err := regeneratePlan(ctx, e, s, log, change); err != nil {
		logx.Error().Err(err).Int64("user_id", s.UserID).Str("date", s.DateKey).Msg("Failed to regenerate plan")
		return e.reply(ctx, r, plain(updateRegenFailed))
	}
	return e.reply(ctx, r, Message{Text: updateSaved, Markdown: true})
}

func regeneratePlan(ctx context.Context, e *Engine, s *model.Session, log *model.DailyLog, change string) error {
	logx.Debug().Int64("user_id", s.UserID).Str("date", s.DateKey).Str("update", change).Msg("Regenerating full plan")
	plan, err := e.c.Planner.GeneratePlan(ctx, log, change)
	if err != nil {
		return err
	}
	if _, err := e.c.Logs.Upsert(ctx, s.DateKey, model.DailyLogPatch{GeneratedPlan: model.Set(plan)}); err != nil {
		return err
	}
	saved, err := e.c.Logs.Get(ctx, s.DateKey)
	if err != nil {
		return err
	}
	if saved == nil || !saved.HasPlan() {
		return fmt.Errorf("plan for %s missing after save", s.DateKey)
	}
	logx.Info().Int64("user_id", s.UserID).Str("date", s.DateKey).Int("plan_length", len(*saved.GeneratedPlan)).Msg("Plan updated")
	return nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
