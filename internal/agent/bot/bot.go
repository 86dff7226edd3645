// Package bot routes chat messages to flows, commands and the generic chat path.
package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/energy-exec/server/internal/agent/flows"
	"github.com/energy-exec/server/internal/agent/model"
	"github.com/energy-exec/server/internal/channel"
	errx "github.com/energy-exec/server/internal/core/error"
	"github.com/energy-exec/server/internal/metrics"
	logx "github.com/energy-exec/server/pkg/logger"
)

type Config struct {
	AuthorizedUserID int64 `envconfig:"AUTHORIZED_USER_ID" required:"true"`
}

// Sender delivers replies and returns the id of the sent message.
type Sender interface {
	Send(ctx context.Context, resp channel.Response) (int64, error)
}

type Settings interface {
	IsOnboarded(ctx context.Context) (bool, error)
	Location(ctx context.Context) (*time.Location, string)
	Model(ctx context.Context) (model.ModelType, error)
	SetModel(ctx context.Context, m model.ModelType) error
}

type Planner interface {
	GeneratePlan(ctx context.Context, log *model.DailyLog, update string) (string, error)
	GenerateReview(ctx context.Context, log *model.DailyLog) (string, error)
	Chat(ctx context.Context, userID int64, text string) (string, error)
}

// Deps are the collaborators of the Bot.
type Deps struct {
	Sender   Sender
	Engine   *flows.Engine
	Settings Settings
	Logs     model.DailyLogRepository
	Messages model.MessageLogRepository
	Planner  Planner
	// Now defaults to time.Now.
	Now func() time.Time
}

type Bot struct {
	config Config
	deps   Deps

	mu    sync.Mutex
	locks map[int64]*sync.Mutex

	commands map[string]commandHandler
}

func New(config Config, deps Deps) *Bot {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	b := &Bot{config: config, deps: deps, locks: map[int64]*sync.Mutex{}}
	b.commands = b.commandTable()
	return b
}

// Handle is the channel.MessageHandler of the assistant.
func (b *Bot) Handle(ctx context.Context, msg channel.Message) error {
	if msg.SenderID == 0 {
		_, err := b.deps.Sender.Send(ctx, channel.Response{ChatID: msg.ChatID, Content: unidentifiedUser})
		return err
	}
	if msg.SenderID != b.config.AuthorizedUserID {
		logx.Warn().Int64("user_id", msg.SenderID).Msg("Rejected message from unauthorized user")
		_, err := b.deps.Sender.Send(ctx, channel.Response{ChatID: msg.ChatID, Content: accessDenied})
		return err
	}

	unlock := b.lock(msg.SenderID)
	defer unlock()

	b.logIncoming(ctx, msg)
	r := &replier{bot: b, chatID: msg.ChatID}

	if err := b.route(ctx, msg.SenderID, strings.TrimSpace(msg.Content), r); err != nil {
		logx.Error().Err(err).Int64("user_id", msg.SenderID).Int64("message_id", msg.MessageID).Msg("Failed to handle message")
		// every failed message still gets an answer
		if sendErr := r.send(ctx, genericFailure); sendErr != nil {
			logx.Warn().Err(sendErr).Int64("user_id", msg.SenderID).Msg("Failed to send failure reply")
		}
		return err
	}
	return nil
}

func (b *Bot) lock(userID int64) func() {
	b.mu.Lock()
	l, ok := b.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		b.locks[userID] = l
	}
	b.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (b *Bot) route(ctx context.Context, userID int64, text string, r *replier) error {
	cmd, args := parseCommand(text)

	if flow, ok := flowCommands[cmd]; ok {
		return b.deps.Engine.Start(ctx, userID, flow, r)
	}

	active := false
	if cmd == "" {
		handled, err := b.deps.Engine.HandleText(ctx, userID, text, r)
		if err != nil || handled {
			return err
		}
	} else {
		s, err := b.deps.Engine.Active(ctx, userID)
		if err != nil {
			return err
		}
		active = s != nil
	}

	if !active {
		onboarded, err := b.deps.Settings.IsOnboarded(ctx)
		if err != nil {
			logx.Error().Err(err).Int64("user_id", userID).Msg("Failed to read onboarding state")
			return r.send(ctx, genericFailure)
		}
		if !onboarded {
			return b.deps.Engine.Start(ctx, userID, model.FlowOnboarding, r)
		}
	}

	if cmd != "" {
		h, ok := b.commands[cmd]
		if !ok {
			return r.send(ctx, unknownCommand)
		}
		return h(ctx, userID, args, r)
	}
	return b.handleIdleText(ctx, userID, text, r)
}

// handleIdleText answers a model pick from the /models menu, anything else goes to chat.
func (b *Bot) handleIdleText(ctx context.Context, userID int64, text string, r *replier) error {
	if sel := flows.ParseModelSelection(text); sel.Matched {
		return b.selectModel(ctx, userID, sel.Model, r)
	}

	reply, err := b.deps.Planner.Chat(ctx, userID, text)
	if err != nil {
		ev := logx.Error()
		if errx.IsGeneration(err) {
			ev = logx.Warn()
		}
		ev.Err(err).Int64("user_id", userID).Msg("Generic chat failed")
		return r.send(ctx, genericFailure)
	}
	return r.send(ctx, reply)
}

func (b *Bot) logIncoming(ctx context.Context, msg channel.Message) {
	metrics.IncMessage(string(model.DirectionIncoming))
	createdAt := b.deps.Now()
	if msg.Timestamp > 0 {
		createdAt = time.UnixMilli(msg.Timestamp)
	}
	_, err := b.deps.Messages.Append(ctx, model.MessageLogEntry{
		ChatMessageID: msg.MessageID,
		Direction:     model.DirectionIncoming,
		Content:       msg.Content,
		CreatedAt:     createdAt,
	})
	if err != nil {
		logx.Warn().Err(err).Int64("user_id", msg.SenderID).Int64("message_id", msg.MessageID).Msg("Failed to log incoming message")
	}
}

func (b *Bot) logOutgoing(ctx context.Context, messageID int64, content string) {
	metrics.IncMessage(string(model.DirectionOutgoing))
	_, err := b.deps.Messages.Append(ctx, model.MessageLogEntry{
		ChatMessageID: messageID,
		Direction:     model.DirectionOutgoing,
		Content:       content,
		CreatedAt:     b.deps.Now(),
	})
	if err != nil {
		logx.Warn().Err(err).Int64("message_id", messageID).Msg("Failed to log outgoing message")
	}
}

// replier sends to one chat and records every reply in the message log.
type replier struct {
	bot    *Bot
	chatID int64
}

func (r *replier) Reply(ctx context.Context, msg flows.Message) error {
	id, err := r.bot.deps.Sender.Send(ctx, channel.Response{ChatID: r.chatID, Content: msg.Text, Markdown: msg.Markdown})
	if err != nil {
		return err
	}
	r.bot.logOutgoing(ctx, id, msg.Text)
	return nil
}

func (r *replier) send(ctx context.Context, text string) error {
	return r.Reply(ctx, flows.Message{Text: text})
}

func (r *replier) sendMarkdown(ctx context.Context, text string) error {
	return r.Reply(ctx, flows.Message{Text: text, Markdown: true})
}

// parseCommand splits "/cmd@bot args" into a lowercased command and its arguments.
func parseCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	head, args, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(args)
}
