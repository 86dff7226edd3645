package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/energy-exec/server/internal/agent/model"
	logx "github.com/energy-exec/server/pkg/logger"
)

type commandHandler func(ctx context.Context, userID int64, args string, r *replier) error

// flowCommands enter a flow and replace any pending one.
var flowCommands = map[string]model.FlowID{
	"checkin":    model.FlowMorningCheckin,
	"reflect":    model.FlowEveningReflection,
	"updateplan": model.FlowUpdatePlan,
	"timezone":   model.FlowOnboarding,
}

func (b *Bot) commandTable() map[string]commandHandler {
	return map[string]commandHandler{
		"start":        b.handleStart,
		"help":         b.handleHelp,
		"models":       b.handleModels,
		"today":        b.handleToday,
		"viewdailylog": b.handleViewDailyLog,
		"planreview":   b.handlePlanReview,
		"plan":         b.handlePlan,
	}
}

// handleStart only runs for onboarded users; route starts onboarding otherwise.
func (b *Bot) handleStart(ctx context.Context, _ int64, _ string, r *replier) error {
	return r.send(ctx, welcomeBack)
}

func (b *Bot) handleHelp(ctx context.Context, _ int64, _ string, r *replier) error {
	return r.send(ctx, helpText)
}

func (b *Bot) handleModels(ctx context.Context, userID int64, _ string, r *replier) error {
	m, err := b.deps.Settings.Model(ctx)
	if err != nil {
		logx.Error().Err(err).Int64("user_id", userID).Msg("Failed to handle /models command")
		return r.send(ctx, modelsFailed)
	}
	return r.send(ctx, fmt.Sprintf(modelsMenu, m.DisplayName()))
}

func (b *Bot) selectModel(ctx context.Context, userID int64, m model.ModelType, r *replier) error {
	if err := b.deps.Settings.SetModel(ctx, m); err != nil {
		logx.Error().Err(err).Int64("user_id", userID).Str("model", string(m)).Msg("Failed to change model")
		return r.send(ctx, modelChangeFailed)
	}
	logx.Info().Int64("user_id", userID).Str("model", string(m)).Msg("Model changed")
	return r.send(ctx, fmt.Sprintf(modelChanged, m.DisplayName()))
}

func (b *Bot) handleToday(ctx context.Context, userID int64, _ string, r *replier) error {
	loc, _ := b.deps.Settings.Location(ctx)
	now := b.deps.Now()
	today := model.DateKey(now)
	display := now.In(loc).Format(displayDateLayout)

	l, err := b.deps.Logs.Get(ctx, today)
	if err != nil {
		logx.Error().Err(err).Int64("user_id", userID).Str("date", today).Msg("Failed to retrieve today's daily log")
		return r.send(ctx, todayFailed)
	}
	if l == nil {
		return r.sendMarkdown(ctx, fmt.Sprintf(todayMissing, display))
	}
	return r.sendMarkdown(ctx, formatToday(l, display, loc))
}

func (b *Bot) handleViewDailyLog(ctx context.Context, userID int64, args string, r *replier) error {
	loc, _ := b.deps.Settings.Location(ctx)
	now := b.deps.Now()
	date := model.DateKey(now)
	display := now.In(loc).Format(displayDateLayout)

	if args != "" {
		day, err := time.Parse(model.DateLayout, strings.Fields(args)[0])
		if err != nil {
			return r.send(ctx, viewInvalidDate)
		}
		date = day.Format(model.DateLayout)
		display = day.Format(displayDateLayout)
	}

	l, err := b.deps.Logs.Get(ctx, date)
	if err != nil {
		logx.Error().Err(err).Int64("user_id", userID).Str("date", date).Msg("Failed to retrieve daily log")
		return r.send(ctx, viewFailed)
	}
	if l == nil {
		return r.send(ctx, fmt.Sprintf(viewMissing, date))
	}
	return r.send(ctx, formatDailyLog(l, display, loc))
}

func (b *Bot) handlePlanReview(ctx context.Context, userID int64, _ string, r *replier) error {
	today := model.DateKey(b.deps.Now())
	l, err := b.deps.Logs.Get(ctx, today)
	if err != nil {
		logx.Error().Err(err).Int64("user_id", userID).Str("date", today).Msg("Failed to generate plan review")
		return r.send(ctx, reviewFailed)
	}
	logx.Debug().Int64("user_id", userID).Str("date", today).
		Bool("has_plan", l.HasPlan()).Bool("has_reflections", l.HasReflections()).
		Msg("Retrieved daily log for /planReview")

	switch {
	case l == nil:
		return r.send(ctx, noLogToday)
	case !l.HasPlan():
		return r.send(ctx, reviewNoPlan)
	case !l.HasReflections():
		return r.send(ctx, reviewNoReflection)
	}

	if err := r.send(ctx, reviewGenerating); err != nil {
		return err
	}
	review, err := b.deps.Planner.GenerateReview(ctx, l)
	if err != nil {
		logx.Error().Err(err).Int64("user_id", userID).Str("date", today).Msg("Failed to generate plan review")
		return r.send(ctx, reviewFailed)
	}
	return r.sendMarkdown(ctx, fmt.Sprintf(reviewResult, review))
}

// handlePlan regenerates today's plan from the stored check-in.
func (b *Bot) handlePlan(ctx context.Context, userID int64, _ string, r *replier) error {
	today := model.DateKey(b.deps.Now())
	l, err := b.deps.Logs.Get(ctx, today)
	if err != nil {
		logx.Error().Err(err).Int64("user_id", userID).Str("date", today).Msg("Failed to read daily log for /plan")
		return r.send(ctx, planFailed)
	}
	if l == nil {
		return r.send(ctx, noLogToday)
	}

	if err := r.send(ctx, planGenerating); err != nil {
		return err
	}
	plan, err := b.deps.Planner.GeneratePlan(ctx, l, "")
	if err == nil {
		_, err = b.deps.Logs.Upsert(ctx, today, model.DailyLogPatch{GeneratedPlan: model.Set(plan)})
	}
	if err != nil {
		logx.Error().Err(err).Int64("user_id", userID).Str("date", today).Msg("Failed to generate plan")
		return r.send(ctx, planFailed)
	}
	return r.sendMarkdown(ctx, fmt.Sprintf(planResult, plan))
}
