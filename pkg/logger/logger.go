package logx

import (
	"io"
	"os"
	"path/filepath"

	"github.com/energy-exec/server/internal/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var DefaultLoggerOpts = &LoggerOpts{
	Environment: core.Development,
}

type LoggerOpts struct {
	Environment core.Environment
	// Level overrides the environment default when set (debug, info, warn, error).
	Level string
	// File enables an additional rotating log file.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Config is the env-driven form of LoggerOpts.
type Config struct {
	Level      string `envconfig:"LOG_LEVEL"`
	File       string `envconfig:"LOG_FILE"`
	MaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"10"`
	MaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"3"`
	MaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"28"`
}

// Opts converts the env config into LoggerOpts for the given environment.
func (c Config) Opts(env core.Environment) LoggerOpts {
	return LoggerOpts{
		Environment: env,
		Level:       c.Level,
		File:        c.File,
		MaxSizeMB:   c.MaxSizeMB,
		MaxBackups:  c.MaxBackups,
		MaxAgeDays:  c.MaxAgeDays,
	}
}

func safe(otps ...LoggerOpts) *LoggerOpts {
	if len(otps) == 0 {
		return DefaultLoggerOpts
	}
	return &otps[0]
}

func Init(otps ...LoggerOpts) {
	o := safe(otps...)

	var console io.Writer
	level := zerolog.DebugLevel
	if o.Environment.IsProduction() {
		console = os.Stderr
		level = zerolog.InfoLevel
	} else {
		console = zerolog.NewConsoleWriter()
	}
	if o.Level != "" {
		if l, err := zerolog.ParseLevel(o.Level); err == nil {
			level = l
		}
	}

	out := console
	if o.File != "" {
		_ = os.MkdirAll(filepath.Dir(o.File), 0o755)
		out = zerolog.MultiLevelWriter(console, newFileWriter(o))
	}

	log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger().Level(level)
}

func newFileWriter(o *LoggerOpts) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   o.File,
		MaxSize:    o.MaxSizeMB,
		MaxBackups: o.MaxBackups,
		MaxAge:     o.MaxAgeDays,
		Compress:   true,
	}
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Panic() *zerolog.Event {
	return log.Panic()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
