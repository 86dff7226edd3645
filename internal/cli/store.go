package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/energy-exec/server/internal/agent/model"
	"github.com/energy-exec/server/internal/agent/repo"
	"github.com/energy-exec/server/internal/agent/settings"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(app *Context) error {
	cfg, err := app.StoreConfig()
	if err != nil {
		return err
	}
	// Open applies every pending migration.
	store, err := openStore(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Fprintf(app.Out, "Database schema is up to date (%s).\n", cfg.Driver)
	return nil
}

type LogsShowCmd struct {
	Date string `arg:"" help:"Date to show (YYYY-MM-DD or 'today')." default:"today"`
}

func (c *LogsShowCmd) Run(app *Context) error {
	date, err := resolveDate(c.Date, time.Now())
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	l, err := repo.NewDailyLogRepository(store).Get(ctx, date)
	if err != nil {
		return err
	}
	if l == nil {
		fmt.Fprintf(app.Out, "No daily log for %s\n", date)
		return nil
	}
	return writeIndented(app.Out, l)
}

type LogsRecentCmd struct {
	Limit int `help:"How many days to list." default:"7"`
}

func (c *LogsRecentCmd) Run(app *Context) error {
	ctx := context.Background()
	store, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	logs, err := repo.NewDailyLogRepository(store).ListRecent(ctx, c.Limit)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		fmt.Fprintln(app.Out, "No daily logs yet")
		return nil
	}
	for _, l := range logs {
		fmt.Fprintf(app.Out, "%s  battery %s -> %s  plan:%s  reflections:%s\n",
			l.Date, optInt(l.BodyBatteryStart), optInt(l.BodyBatteryEnd), yesNo(l.HasPlan()), yesNo(l.HasReflections()))
	}
	return nil
}

type MessagesRecentCmd struct {
	Limit int `help:"How many messages to list." default:"20"`
}

func (c *MessagesRecentCmd) Run(app *Context) error {
	ctx := context.Background()
	store, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := repo.NewMessageLogRepository(store).ListRecent(ctx, c.Limit)
	if err != nil {
		return err
	}
	writeMessages(app.Out, entries)
	return nil
}

type MessagesDateCmd struct {
	Date string `arg:"" help:"UTC date (YYYY-MM-DD or 'today')." default:"today"`
}

func (c *MessagesDateCmd) Run(app *Context) error {
	date, err := resolveDate(c.Date, time.Now())
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := repo.NewMessageLogRepository(store).ListByDate(ctx, date)
	if err != nil {
		return err
	}
	writeMessages(app.Out, entries)
	return nil
}

type ConfigGetCmd struct {
	Key string `arg:"" help:"Config key."`
}

func (c *ConfigGetCmd) Run(app *Context) error {
	ctx := context.Background()
	store, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	v, ok, err := repo.NewConfigRepository(store).Get(ctx, c.Key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("config key %q is not set", c.Key)
	}
	fmt.Fprintln(app.Out, string(v))
	return nil
}

type ConfigSetCmd struct {
	Key   string `arg:"" help:"Config key."`
	Value string `arg:"" help:"JSON value; bare text is stored as a string."`
}

func (c *ConfigSetCmd) Run(app *Context) error {
	ctx := context.Background()
	store, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var value any = c.Value
	var decoded any
	if err := json.Unmarshal([]byte(c.Value), &decoded); err == nil {
		value = decoded
	}

	switch c.Key {
	case model.ConfigKeyTimezone:
		tz, ok := value.(string)
		if !ok {
			return fmt.Errorf("timezone must be a string")
		}
		err = settings.New(repo.NewConfigRepository(store)).SetTimezone(ctx, tz)
	case model.ConfigKeyModel:
		m, ok := value.(string)
		if !ok {
			return fmt.Errorf("model must be a string")
		}
		err = settings.New(repo.NewConfigRepository(store)).SetModel(ctx, model.ModelType(m))
	default:
		err = repo.NewConfigRepository(store).Set(ctx, c.Key, value)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Set %s\n", c.Key)
	return nil
}

type ConfigDeleteCmd struct {
	Key string `arg:"" help:"Config key."`
}

func (c *ConfigDeleteCmd) Run(app *Context) error {
	ctx := context.Background()
	store, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := repo.NewConfigRepository(store).Delete(ctx, c.Key); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Deleted %s\n", c.Key)
	return nil
}

type ConfigListCmd struct{}

func (c *ConfigListCmd) Run(app *Context) error {
	ctx := context.Background()
	store, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := repo.NewConfigRepository(store).Entries(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(app.Out, "%s = %s\n", k, entries[k])
	}
	return nil
}

func resolveDate(v string, now time.Time) (string, error) {
	if v == "" || strings.EqualFold(v, "today") {
		return model.DateKey(now), nil
	}
	d, err := time.Parse(model.DateLayout, v)
	if err != nil {
		return "", fmt.Errorf("invalid date format, use YYYY-MM-DD or 'today': %w", err)
	}
	return d.Format(model.DateLayout), nil
}

func writeMessages(w io.Writer, entries []model.MessageLogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No messages")
		return
	}
	for _, e := range entries {
		arrow := "<-"
		if e.Direction == model.DirectionOutgoing {
			arrow = "->"
		}
		fmt.Fprintf(w, "%s %s [%d] %s\n", e.CreatedAt.Format(time.RFC3339), arrow, e.ChatMessageID,
			strings.ReplaceAll(e.Content, "\n", " "))
	}
}

func writeIndented(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
