package model

import "time"

// ================ Config ================
type ConversationConfig struct {
	TTL      time.Duration `envconfig:"CONVERSATION_TTL" default:"30m"`
	MaxTurns int           `envconfig:"CONVERSATION_MAX_TURNS" default:"10"`
}

type SessionConfig struct {
	Backend string `envconfig:"SESSION_BACKEND" default:"memory"`
	// TTL of zero keeps suspended flows forever.
	TTL time.Duration `envconfig:"SESSION_TTL" default:"0s"`
}

type StoreConfig struct {
	Driver string `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	Path   string `envconfig:"DATABASE_PATH" default:"./data/db.sqlite"`
	URL    string `envconfig:"DATABASE_URL"`
}

// ZenModelConfig configures the OpenAI-compatible endpoint serving big-pickle.
type ZenModelConfig struct {
	APIKey      string  `envconfig:"OPENCODE_ZEN_API_KEY"`
	BaseURL     string  `envconfig:"OPENCODE_ZEN_BASE_URL" default:"https://opencode.ai/zen/v1"`
	Model       string  `envconfig:"OPENCODE_ZEN_MODEL" default:"big-pickle"`
	MaxTokens   int     `envconfig:"OPENCODE_ZEN_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"OPENCODE_ZEN_TEMPERATURE" default:"0.7"`
}

type GeminiModelConfig struct {
	APIKey      string  `envconfig:"GEMINI_API_KEY"`
	BaseURL     string  `envconfig:"GEMINI_BASE_URL"`
	Model       string  `envconfig:"GEMINI_MODEL" default:"gemini-3-pro-preview"`
	MaxTokens   int     `envconfig:"GEMINI_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"GEMINI_TEMPERATURE" default:"0.7"`
}

type GenerationConfig struct {
	Timeout time.Duration `envconfig:"GENERATION_TIMEOUT" default:"90s"`
}
