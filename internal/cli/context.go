// Package cli holds the kong commands of the energy-exec binary.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/energy-exec/server/internal/agent/bot"
	"github.com/energy-exec/server/internal/agent/model"
	"github.com/energy-exec/server/internal/agent/repo"
	"github.com/energy-exec/server/internal/channel/telegram"
	"github.com/energy-exec/server/internal/core"
	"github.com/energy-exec/server/internal/server"
	logx "github.com/energy-exec/server/pkg/logger"
	pkgredis "github.com/energy-exec/server/pkg/redis"
)

// AppConfig is every setting of the process, read from the environment
// (and .env for local runs).
type AppConfig struct {
	Env string `envconfig:"APP_ENV" default:"development"`

	Log      logx.Config
	Bot      bot.Config
	Telegram telegram.Config
	HTTP     server.Config

	// Infrastructure
	Store   model.StoreConfig
	Session model.SessionConfig
	Redis   pkgredis.Config

	// LLM providers
	Zen          model.ZenModelConfig
	Gemini       model.GeminiModelConfig
	Generation   model.GenerationConfig
	Conversation model.ConversationConfig
}

func (c AppConfig) Environment() core.Environment {
	return core.ParseEnvironment(c.Env)
}

// Context is handed to every command's Run method.
type Context struct {
	Version string
	Out     io.Writer
	// EnvFile is loaded before the environment is processed; missing is fine.
	EnvFile string

	config *AppConfig
}

// Config loads the app config once. Commands that only touch the database
// call it too, so a bot token is required everywhere the env is complete.
func (c *Context) Config() (*AppConfig, error) {
	if c.config != nil {
		return c.config, nil
	}
	if c.EnvFile != "" {
		if err := godotenv.Load(c.EnvFile); err != nil {
			logx.Debug().Err(err).Str("file", c.EnvFile).Msg("No env file loaded")
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	logx.Init(cfg.Log.Opts(cfg.Environment()))
	c.config = &cfg
	return c.config, nil
}

// StoreConfig loads only the database settings, for the inspection commands.
func (c *Context) StoreConfig() (model.StoreConfig, error) {
	if c.config != nil {
		return c.config.Store, nil
	}
	if c.EnvFile != "" {
		_ = godotenv.Load(c.EnvFile)
	}
	var cfg model.StoreConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("process database config: %w", err)
	}
	return cfg, nil
}

func (c *Context) openStore(ctx context.Context) (*repo.Store, error) {
	cfg, err := c.StoreConfig()
	if err != nil {
		return nil, err
	}
	return openStore(ctx, cfg)
}

func openStore(ctx context.Context, cfg model.StoreConfig) (*repo.Store, error) {
	dialect, err := repo.ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn := cfg.Path
	if dialect == repo.DialectPostgres {
		dsn = cfg.URL
	}
	if dsn == "" {
		return nil, fmt.Errorf("no database configured for driver %s", dialect)
	}
	return repo.Open(ctx, dialect, dsn)
}
