package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/energy-exec/server/internal/agent/graph/prompts"
	"github.com/energy-exec/server/internal/agent/model"
)

const displayDateLayout = "Monday, January 2, 2006"

func batteryTrend(delta int) string {
	if delta >= 0 {
		return "📈"
	}
	return "📉"
}

// formatToday renders the Markdown summary of today's log.
func formatToday(l *model.DailyLog, displayDate string, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 *%s (%s)*\n\n", displayDate, l.Date)

	var battery []string
	if l.BodyBatteryStart != nil {
		battery = append(battery, fmt.Sprintf("Start: *%d*", *l.BodyBatteryStart))
	}
	if l.BodyBatteryEnd != nil {
		battery = append(battery, fmt.Sprintf("End: *%d*", *l.BodyBatteryEnd))
	}
	if d, ok := l.BatteryDelta(); ok {
		battery = append(battery, batteryTrend(d)+" "+prompts.SignedInt(d))
	}
	if len(battery) > 0 {
		fmt.Fprintf(&b, "🔋 *Body Battery*\n%s\n\n", strings.Join(battery, " • "))
	}

	if l.SleepNotes != nil && *l.SleepNotes != "" {
		fmt.Fprintf(&b, "😴 *Sleep*\n%s\n\n", *l.SleepNotes)
	}
	if l.Mood != nil && l.Mood.Text != "" {
		fmt.Fprintf(&b, "💭 *Mood*\n%s\n\n", l.Mood.Text)
	}
	if writeList(&b, "✅ *Priorities*\n", "%d. %s\n", l.Priorities) {
		b.WriteString("\n")
	}
	if writeList(&b, "📅 *Appointments*\n", "%d. %s\n", l.Appointments) {
		b.WriteString("\n")
	}
	if l.GeneratedPlan != nil && *l.GeneratedPlan != "" {
		fmt.Fprintf(&b, "📋 *Generated Plan*\n%s\n\n", *l.GeneratedPlan)
	}
	if l.Reflections != nil && *l.Reflections != "" {
		fmt.Fprintf(&b, "🌙 *Reflections*\n%s\n\n", *l.Reflections)
	}

	fmt.Fprintf(&b, "_Last updated: %s_", l.UpdatedAt.In(loc).Format("15:04"))
	return b.String()
}

// writeList writes a numbered section and reports whether anything was written.
func writeList(b *strings.Builder, header, item string, items []string) bool {
	if len(items) == 0 {
		return false
	}
	b.WriteString(header)
	for i, v := range items {
		fmt.Fprintf(b, item, i+1, v)
	}
	return true
}

// formatDailyLog renders the plain text view of any day's log.
func formatDailyLog(l *model.DailyLog, displayDate string, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Daily Log: %s\n\n", displayDate)

	if l.BodyBatteryStart != nil {
		fmt.Fprintf(&b, "🔋 Body Battery Start: %d\n", *l.BodyBatteryStart)
	}
	if l.BodyBatteryEnd != nil {
		fmt.Fprintf(&b, "🔋 Body Battery End: %d\n", *l.BodyBatteryEnd)
	}
	if d, ok := l.BatteryDelta(); ok {
		fmt.Fprintf(&b, "%s Change: %s\n", batteryTrend(d), prompts.SignedInt(d))
	}
	if l.SleepNotes != nil && *l.SleepNotes != "" {
		fmt.Fprintf(&b, "\n😴 Sleep: %s\n", *l.SleepNotes)
	}
	if l.Mood != nil && l.Mood.Text != "" {
		fmt.Fprintf(&b, "\n💭 Mood: %s\n", l.Mood.Text)
	}
	writeList(&b, "\n✅ Priorities:\n", "  %d. %s\n", l.Priorities)
	writeList(&b, "\n📅 Appointments:\n", "  %d. %s\n", l.Appointments)
	if l.GeneratedPlan != nil && *l.GeneratedPlan != "" {
		fmt.Fprintf(&b, "\n📋 Generated Plan:\n%s\n", *l.GeneratedPlan)
	}
	if l.Reflections != nil && *l.Reflections != "" {
		fmt.Fprintf(&b, "\n🌙 Reflections:\n%s\n", *l.Reflections)
	}

	fmt.Fprintf(&b, "\n🕒 Last updated: %s", l.UpdatedAt.In(loc).Format("2006-01-02 15:04:05"))
	return b.String()
}
