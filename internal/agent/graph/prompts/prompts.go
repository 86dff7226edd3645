package prompts

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/energy-exec/server/internal/agent/model"
)

//go:embed template/*.txt
var templates embed.FS

// Template variable keys shared by all tasks.
const (
	VarTimezone   = "Timezone"
	VarDayLog     = "DayLog"
	VarRecentLogs = "RecentLogs"
	// VarHistory holds prior chat turns as []*schema.Message.
	VarHistory = "history"
	// VarRequestID is read by the chain state handler, not by templates.
	VarRequestID = "request_id"
)

const notProvided = "not provided"

// Context is the optional user context attached to every system prompt.
type Context struct {
	Timezone   string
	DayLog     *model.DailyLog
	RecentLogs []model.DailyLog
}

func mustRead(name string) string {
	b, err := templates.ReadFile("template/" + name)
	if err != nil {
		panic(fmt.Sprintf("prompt template %s: %v", name, err))
	}
	return strings.TrimSpace(string(b))
}

// ChatTemplate returns the system+user template for task.
func ChatTemplate(task model.GenerationTask) (prompt.ChatTemplate, error) {
	system := schema.SystemMessage(mustRead("system.txt"))
	switch task {
	case model.TaskPlan, model.TaskReview, model.TaskDiff:
		return prompt.FromMessages(schema.GoTemplate, system, schema.UserMessage(mustRead(string(task)+".txt"))), nil
	case model.TaskChat:
		return prompt.FromMessages(schema.GoTemplate,
			system,
			schema.MessagesPlaceholder(VarHistory, true),
			schema.UserMessage(mustRead("chat.txt")),
		), nil
	}
	return nil, fmt.Errorf("unknown generation task %q", task)
}

// Render formats task with vars outside of a chain, e.g. for previews and tests.
func Render(ctx context.Context, task model.GenerationTask, vars map[string]any) ([]*schema.Message, error) {
	tpl, err := ChatTemplate(task)
	if err != nil {
		return nil, err
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("%s prompt render: %w", task, err)
	}
	if len(msgs) < 2 {
		return nil, fmt.Errorf("%s prompt render: empty result", task)
	}
	return msgs, nil
}

func (c Context) vars() map[string]any {
	v := map[string]any{
		VarTimezone:   c.Timezone,
		VarDayLog:     "",
		VarRecentLogs: "",
	}
	if c.DayLog != nil {
		v[VarDayLog] = indentJSON(c.DayLog)
	}
	if len(c.RecentLogs) > 0 {
		v[VarRecentLogs] = indentJSON(c.RecentLogs)
	}
	return v
}

// PlanVars builds the plan request from the check-in fields of log.
// A non-empty update is appended as an important change to honour.
func PlanVars(c Context, log *model.DailyLog, update string) map[string]any {
	v := c.vars()
	v["BodyBattery"] = notProvided
	v["SleepNotes"] = notProvided
	v["Mood"] = notProvided
	v["Priorities"] = notProvided
	v["Appointments"] = "none"
	v["Update"] = strings.TrimSpace(update)

	if log != nil {
		if log.BodyBatteryStart != nil {
			v["BodyBattery"] = strconv.Itoa(*log.BodyBatteryStart)
		}
		if log.SleepNotes != nil && *log.SleepNotes != "" {
			v["SleepNotes"] = *log.SleepNotes
		}
		if log.Mood != nil && log.Mood.Text != "" {
			v["Mood"] = log.Mood.Text
		}
		if len(log.Priorities) > 0 {
			v["Priorities"] = strings.Join(log.Priorities, ", ")
		}
		if len(log.Appointments) > 0 {
			v["Appointments"] = strings.Join(log.Appointments, ", ")
		}
	}
	return v
}

// ReviewVars builds the review request. log must carry a plan and reflections.
func ReviewVars(c Context, log *model.DailyLog) map[string]any {
	v := c.vars()
	v["Plan"] = deref(log.GeneratedPlan)
	v["Reflections"] = deref(log.Reflections)
	v["BatteryStart"] = intOr(log.BodyBatteryStart)
	v["BatteryEnd"] = intOr(log.BodyBatteryEnd)
	v["BatteryDelta"] = ""
	if d, ok := log.BatteryDelta(); ok {
		v["BatteryDelta"] = SignedInt(d)
	}
	return v
}

// DiffVars builds the delta-only request for a plan change.
func DiffVars(c Context, plan, change string) map[string]any {
	v := c.vars()
	v["Plan"] = plan
	v["Change"] = change
	return v
}

// ChatVars builds a free chat request with prior turns.
func ChatVars(c Context, history []*schema.Message, message string) map[string]any {
	v := c.vars()
	v["Message"] = message
	v[VarHistory] = history
	return v
}

// SignedInt renders d with an explicit sign for non-negative values.
func SignedInt(d int) string {
	if d >= 0 {
		return "+" + strconv.Itoa(d)
	}
	return strconv.Itoa(d)
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOr(i *int) string {
	if i == nil {
		return notProvided
	}
	return strconv.Itoa(*i)
}
