package telegram

// Config of the Telegram channel.
type Config struct {
	Token string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`

	// WebhookURL is the public base URL; set it to receive updates by webhook instead of long polling.
	WebhookURL  string `envconfig:"WEBHOOK_URL"`
	WebhookPath string `envconfig:"WEBHOOK_PATH" default:"/telegram/webhook"`

	PollTimeout int  `envconfig:"TELEGRAM_POLL_TIMEOUT" default:"60"`
	Debug       bool `envconfig:"TELEGRAM_DEBUG" default:"false"`

	// APIEndpoint overrides the Bot API URL format, mostly for tests.
	APIEndpoint string `envconfig:"TELEGRAM_API_ENDPOINT"`
}
