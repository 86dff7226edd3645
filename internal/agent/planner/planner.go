// Package planner turns daily logs into plans, reviews and chat replies.
package planner

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/energy-exec/server/internal/agent/graph"
	"github.com/energy-exec/server/internal/agent/graph/prompts"
	"github.com/energy-exec/server/internal/agent/model"
	logx "github.com/energy-exec/server/pkg/logger"
)

// recentLogsForChat is how many past logs the generic chat path sees.
const recentLogsForChat = 7

// Preferences is the part of the settings the planner reads.
type Preferences interface {
	Timezone(ctx context.Context) (string, error)
	Model(ctx context.Context) (model.ModelType, error)
}

// ChatMemory keeps the free chat history of a user.
type ChatMemory interface {
	History(ctx context.Context, userID int64) ([]*schema.Message, error)
	SaveExchange(ctx context.Context, userID int64, query, reply string) error
}

var ErrNoPlan = errors.New("daily log has no plan")

type Planner struct {
	gen    graph.Generator
	prefs  Preferences
	logs   model.DailyLogRepository
	memory ChatMemory
	now    func() time.Time
}

func New(gen graph.Generator, prefs Preferences, logs model.DailyLogRepository, memory ChatMemory) *Planner {
	return &Planner{gen: gen, prefs: prefs, logs: logs, memory: memory, now: time.Now}
}

// SetClock overrides the time source used to find today's log.
func (p *Planner) SetClock(now func() time.Time) {
	p.now = now
}

// GeneratePlan writes a full day plan from the check-in fields of log.
// A non-empty update is passed as an important change to honour.
func (p *Planner) GeneratePlan(ctx context.Context, log *model.DailyLog, update string) (string, error) {
	return p.generate(ctx, model.TaskPlan, prompts.PlanVars(p.context(ctx, log), log, update))
}

// GenerateReview reviews the stored plan against the evening reflections.
func (p *Planner) GenerateReview(ctx context.Context, log *model.DailyLog) (string, error) {
	return p.generate(ctx, model.TaskReview, prompts.ReviewVars(p.context(ctx, log), log))
}

// GenerateDiff describes only what changes in the current plan.
func (p *Planner) GenerateDiff(ctx context.Context, log *model.DailyLog, change string) (string, error) {
	if !log.HasPlan() {
		return "", ErrNoPlan
	}
	return p.generate(ctx, model.TaskDiff, prompts.DiffVars(p.context(ctx, log), *log.GeneratedPlan, change))
}

// Chat answers a free-form message with today's log, recent logs and chat memory as context.
func (p *Planner) Chat(ctx context.Context, userID int64, text string) (string, error) {
	today, err := p.logs.Get(ctx, model.DateKey(p.now()))
	if err != nil {
		return "", err
	}
	c := p.context(ctx, today)

	recent, err := p.logs.ListRecent(ctx, recentLogsForChat)
	if err != nil {
		logx.Warn().Err(err).Int64("user_id", userID).Msg("Could not load recent logs for chat")
	} else {
		c.RecentLogs = recent
	}

	var history []*schema.Message
	if p.memory != nil {
		history, err = p.memory.History(ctx, userID)
		if err != nil {
			logx.Warn().Err(err).Int64("user_id", userID).Msg("Could not load chat history")
		}
	}

	reply, err := p.generate(ctx, model.TaskChat, prompts.ChatVars(c, history, text))
	if err != nil {
		return "", err
	}

	if p.memory != nil {
		if err := p.memory.SaveExchange(ctx, userID, text, reply); err != nil {
			logx.Warn().Err(err).Int64("user_id", userID).Msg("Could not save chat history")
		}
	}
	return reply, nil
}

func (p *Planner) generate(ctx context.Context, task model.GenerationTask, vars map[string]any) (string, error) {
	m, err := p.prefs.Model(ctx)
	if err != nil {
		logx.Warn().Err(err).Msg("Could not read model setting, using default")
		m = model.DefaultModel
	}
	return p.gen.Generate(ctx, task, m, vars)
}

// context builds the shared prompt context. A settings read error only drops the timezone line.
func (p *Planner) context(ctx context.Context, log *model.DailyLog) prompts.Context {
	tz, err := p.prefs.Timezone(ctx)
	if err != nil {
		logx.Warn().Err(err).Msg("Could not read timezone for prompt context")
	}
	return prompts.Context{Timezone: tz, DayLog: log}
}
