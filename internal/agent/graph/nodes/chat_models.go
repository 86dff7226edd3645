package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/energy-exec/server/internal/agent/model"
	logx "github.com/energy-exec/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	Zen    model.ZenModelConfig
	Gemini model.GeminiModelConfig
}

// ChatModels maps each user-selectable model to its provider binding.
type ChatModels struct {
	models map[model.ModelType]einomodel.BaseChatModel
	names  map[model.ModelType]string
}

// NewChatModels creates every binding whose credentials are configured.
// A missing key only disables that model; at least one must be available.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	cm := &ChatModels{
		models: map[model.ModelType]einomodel.BaseChatModel{},
		names:  map[model.ModelType]string{},
	}

	if config.Zen.APIKey != "" {
		zen, err := NewZenChatModel(config.Zen)
		if err != nil {
			logx.Error().Err(err).Msg("Error creating big-pickle model")
			return nil, fmt.Errorf("error creating big-pickle model: %w", err)
		}
		cm.Register(model.ModelBigPickle, zen, config.Zen.Model)
	} else {
		logx.Warn().Msg("OPENCODE_ZEN_API_KEY not set, big-pickle disabled")
	}

	if config.Gemini.APIKey != "" {
		g, err := newGeminiChatModel(ctx, config.Gemini)
		if err != nil {
			return nil, err
		}
		cm.Register(model.ModelGemini3Pro, g, config.Gemini.Model)
	} else {
		logx.Warn().Msg("GEMINI_API_KEY not set, gemini-3-pro disabled")
	}

	if len(cm.models) == 0 {
		return nil, fmt.Errorf("no chat model configured: set OPENCODE_ZEN_API_KEY or GEMINI_API_KEY")
	}
	return cm, nil
}

// NewChatModelsFrom wraps already built bindings.
func NewChatModelsFrom(models map[model.ModelType]einomodel.BaseChatModel) *ChatModels {
	cm := &ChatModels{
		models: map[model.ModelType]einomodel.BaseChatModel{},
		names:  map[model.ModelType]string{},
	}
	for k, v := range models {
		cm.Register(k, v, string(k))
	}
	return cm
}

// Register binds m to a chat model served under providerModel.
func (cm *ChatModels) Register(m model.ModelType, chatModel einomodel.BaseChatModel, providerModel string) {
	cm.models[m] = chatModel
	cm.names[m] = providerModel
}

// Get returns the binding for m and the provider-side model name.
func (cm *ChatModels) Get(m model.ModelType) (einomodel.BaseChatModel, string, bool) {
	c, ok := cm.models[m]
	return c, cm.names[m], ok
}

// Available lists configured models.
func (cm *ChatModels) Available() []model.ModelType {
	var out []model.ModelType
	for _, m := range model.SupportedModels {
		if _, ok := cm.models[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

func newGeminiChatModel(ctx context.Context, cfg model.GeminiModelConfig) (*gemini.ChatModel, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini model")
		return nil, fmt.Errorf("error creating Gemini model: %w", err)
	}
	return chatModel, nil
}
