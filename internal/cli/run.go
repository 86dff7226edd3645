package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/energy-exec/server/internal/agent/bot"
	"github.com/energy-exec/server/internal/agent/flows"
	"github.com/energy-exec/server/internal/agent/graph"
	"github.com/energy-exec/server/internal/agent/graph/conversations"
	"github.com/energy-exec/server/internal/agent/graph/nodes"
	"github.com/energy-exec/server/internal/agent/model"
	"github.com/energy-exec/server/internal/agent/planner"
	"github.com/energy-exec/server/internal/agent/repo"
	"github.com/energy-exec/server/internal/agent/settings"
	"github.com/energy-exec/server/internal/channel/telegram"
	"github.com/energy-exec/server/internal/server"
	logx "github.com/energy-exec/server/pkg/logger"
)

type RunCmd struct{}

func (c *RunCmd) Run(app *Context) error {
	cfg, err := app.Config()
	if err != nil {
		return err
	}
	env := cfg.Environment()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	st := settings.New(repo.NewConfigRepository(store))
	logs := repo.NewDailyLogRepository(store)
	messages := repo.NewMessageLogRepository(store)

	sessions, convs, closeState, err := newStateRepos(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeState()

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{Zen: cfg.Zen, Gemini: cfg.Gemini})
	if err != nil {
		return fmt.Errorf("configure chat models: %w", err)
	}
	runner, err := graph.BuildRunner(ctx, cms, cfg.Generation)
	if err != nil {
		return fmt.Errorf("build generation graph: %w", err)
	}
	pl := planner.New(runner, st, logs, conversations.NewMessagesManager(convs, cfg.Conversation))

	engine := flows.NewEngine(flows.Collaborators{
		Sessions: sessions,
		Logs:     logs,
		Settings: st,
		Planner:  pl,
	})

	tgCfg := cfg.Telegram
	if !env.UsesWebhook() {
		tgCfg.WebhookURL = ""
	} else if tgCfg.WebhookURL == "" {
		return errors.New("WEBHOOK_URL is required in production")
	}
	tg, err := telegram.New(tgCfg)
	if err != nil {
		return fmt.Errorf("connect telegram: %w", err)
	}

	b := bot.New(cfg.Bot, bot.Deps{
		Sender:   tg,
		Engine:   engine,
		Settings: st,
		Logs:     logs,
		Messages: messages,
		Planner:  pl,
	})

	srv := server.New(cfg.HTTP, app.Version)
	srv.AddCheck("database", store)
	if tg.UsesWebhook() {
		srv.Mount(tg.WebhookPath(), tg)
	}

	logx.Info().Str("env", env.String()).Bool("webhook", tg.UsesWebhook()).
		Strs("models", modelNames(cms.Available())).Msg("Energy Exec starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return tg.Start(gctx, b.Handle) })
	g.Go(func() error {
		<-gctx.Done()
		return tg.Stop()
	})

	if err := g.Wait(); err != nil {
		logx.Error().Err(err).Msg("Energy Exec stopped with error")
		return err
	}
	logx.Info().Msg("Energy Exec stopped")
	return nil
}

// newStateRepos picks the session and chat history backends.
func newStateRepos(ctx context.Context, cfg *AppConfig) (model.SessionRepository, model.ConversationRepository, func(), error) {
	switch cfg.Session.Backend {
	case "", "memory":
		return repo.NewMemorySessionRepository(),
			repo.NewMemoryConversationRepository(cfg.Conversation.TTL, cfg.Conversation.MaxTurns),
			func() {}, nil
	case "redis":
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		logx.Info().Str("prefix", cfg.Redis.KeyPrefix).Msg("Connected to Redis")
		return repo.NewRedisSessionRepository(rdb, cfg.Redis.KeyPrefix, cfg.Session.TTL),
			repo.NewRedisConversationRepository(rdb, cfg.Redis.KeyPrefix, cfg.Conversation.TTL, cfg.Conversation.MaxTurns),
			func() { _ = rdb.Close() }, nil
	}
	return nil, nil, nil, fmt.Errorf("unsupported session backend %q", cfg.Session.Backend)
}

func modelNames(ms []model.ModelType) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = string(m)
	}
	return out
}
