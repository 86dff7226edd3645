// Package telegram implements channel.Channel over the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/energy-exec/server/internal/channel"
	logx "github.com/energy-exec/server/pkg/logger"
)

// maxMessageLength is the Bot API limit for one text message, in characters.
const maxMessageLength = 4096

const webhookQueueSize = 64

// Channel receives updates by long polling, or by webhook when a webhook URL is configured.
type Channel struct {
	config Config
	bot    *tgbotapi.BotAPI

	mu      sync.Mutex
	updates chan tgbotapi.Update
	cancel  context.CancelFunc
}

// New connects to the Bot API and checks the token.
func New(config Config) (*Channel, error) {
	return NewWithClient(config, http.DefaultClient)
}

func NewWithClient(config Config, client *http.Client) (*Channel, error) {
	endpoint := config.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(config.Token, endpoint, client)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to connect to Telegram")
		return nil, fmt.Errorf("telegram bot api: %w", err)
	}
	bot.Debug = config.Debug
	logx.Info().Str("username", bot.Self.UserName).Msg("Telegram bot authorized")

	c := &Channel{config: config, bot: bot}
	if c.UsesWebhook() {
		c.updates = make(chan tgbotapi.Update, webhookQueueSize)
	}
	return c, nil
}

func (c *Channel) Name() string { return "telegram" }

func (c *Channel) UsesWebhook() bool { return c.config.WebhookURL != "" }

// Start registers the webhook or removes it and starts long polling,
// then hands every text message to handler in arrival order.
func (c *Channel) Start(ctx context.Context, handler channel.MessageHandler) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	updates, err := c.subscribe()
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			msg, ok := toMessage(u)
			if !ok {
				continue
			}
			if err := handler(ctx, msg); err != nil {
				logx.Error().Err(err).Int64("user_id", msg.SenderID).Int64("message_id", msg.MessageID).
					Msg("Failed to handle Telegram message")
			}
		}
	}
}

func (c *Channel) subscribe() (<-chan tgbotapi.Update, error) {
	if c.UsesWebhook() {
		url := strings.TrimSuffix(c.config.WebhookURL, "/") + c.config.WebhookPath
		wh, err := tgbotapi.NewWebhook(url)
		if err != nil {
			return nil, fmt.Errorf("telegram webhook config: %w", err)
		}
		if _, err := c.bot.Request(wh); err != nil {
			logx.Error().Err(err).Str("url", url).Msg("Failed to set Telegram webhook")
			return nil, fmt.Errorf("set telegram webhook: %w", err)
		}
		logx.Info().Str("url", url).Msg("Telegram webhook registered")
		return c.updates, nil
	}

	if _, err := c.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		logx.Warn().Err(err).Msg("Failed to delete Telegram webhook before polling")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.config.PollTimeout
	logx.Info().Int("timeout", u.Timeout).Msg("Telegram long polling started")
	return c.bot.GetUpdatesChan(u), nil
}

// ServeHTTP accepts webhook updates and queues them for Start.
func (c *Channel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !c.UsesWebhook() {
		http.Error(w, "webhook disabled", http.StatusNotFound)
		return
	}
	update, err := c.bot.HandleUpdate(r)
	if err != nil {
		logx.Warn().Err(err).Msg("Invalid Telegram webhook payload")
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}
	select {
	case c.updates <- *update:
		w.WriteHeader(http.StatusOK)
	default:
		logx.Error().Int("update_id", update.UpdateID).Msg("Telegram update queue full")
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}
}

// WebhookPath is where ServeHTTP should be mounted.
func (c *Channel) WebhookPath() string { return c.config.WebhookPath }

// Send splits long content and retries a chunk as plain text when Markdown is rejected.
func (c *Channel) Send(ctx context.Context, resp channel.Response) (int64, error) {
	var lastID int64
	for _, chunk := range splitMessage(resp.Content, maxMessageLength) {
		if err := ctx.Err(); err != nil {
			return lastID, err
		}
		id, err := c.sendChunk(resp.ChatID, chunk, resp.Markdown)
		if err != nil {
			return lastID, err
		}
		lastID = id
	}
	return lastID, nil
}

func (c *Channel) sendChunk(chatID int64, text string, markdown bool) (int64, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	sent, err := c.bot.Send(msg)
	if err != nil && markdown {
		logx.Warn().Err(err).Int64("chat_id", chatID).Msg("Markdown send failed, retrying as plain text")
		msg.ParseMode = ""
		sent, err = c.bot.Send(msg)
	}
	if err != nil {
		logx.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send Telegram message")
		return 0, fmt.Errorf("telegram send: %w", err)
	}
	return int64(sent.MessageID), nil
}

func (c *Channel) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	if !c.UsesWebhook() {
		c.bot.StopReceivingUpdates()
	}
	return nil
}

func toMessage(u tgbotapi.Update) (channel.Message, bool) {
	m := u.Message
	if m == nil || m.Text == "" || m.Chat == nil {
		return channel.Message{}, false
	}
	msg := channel.Message{
		Source:    "telegram",
		ChatID:    m.Chat.ID,
		MessageID: int64(m.MessageID),
		Content:   m.Text,
		Timestamp: int64(m.Date) * 1000,
	}
	if m.From != nil {
		msg.SenderID = m.From.ID
	}
	return msg, true
}

// splitMessage cuts text into chunks of at most limit UTF-16 code units,
// the unit Telegram measures message length in, preferring line breaks as cut points.
func splitMessage(text string, limit int) []string {
	if utf16Len(text) <= limit {
		return []string{text}
	}
	var out []string
	runes := []rune(text)
	for len(runes) > 0 {
		units, end, lastBreak := 0, len(runes), -1
		for i, r := range runes {
			n := runeUnits(r)
			if units+n > limit {
				end = i
				break
			}
			units += n
			if r == '\n' && units > limit/2 {
				lastBreak = i + 1
			}
		}
		if end < len(runes) && lastBreak > 0 {
			end = lastBreak
		}
		if end == 0 {
			end = 1
		}
		out = append(out, string(runes[:end]))
		runes = runes[end:]
	}
	return out
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

// runeUnits counts invalid runes as the one-unit replacement character.
func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

var (
	_ channel.Channel = (*Channel)(nil)
	_ http.Handler    = (*Channel)(nil)
)
